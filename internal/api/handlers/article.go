package handlers

import (
	"log/slog"
	"net/http"

	"github.com/farmbasket/farmbasket-backend/internal/api/middleware"
	"github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	service "github.com/farmbasket/farmbasket-backend/internal/services"
	"github.com/farmbasket/farmbasket-backend/internal/utils"
	"github.com/farmbasket/farmbasket-backend/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ArticleHandler serves the shop catalog. Reads are open to any signed-in
// buyer; mutations are restricted to the seller account.
type ArticleHandler struct {
	catalogService service.CatalogService
	validator      *validator.Validate
	sellerID       uuid.UUID
}

func NewArticleHandler(catalogService service.CatalogService, sellerID uuid.UUID) *ArticleHandler {
	return &ArticleHandler{
		catalogService: catalogService,
		validator:      validator.New(),
		sellerID:       sellerID,
	}
}

func (h *ArticleHandler) ListArticles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		articles, err := h.catalogService.Articles(r.Context())
		if err != nil {
			logger.Error("Failed to list articles", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, articles)
	}
}

func (h *ArticleHandler) CreateArticle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := h.sellerClaims(w, r, logger)
		if !ok {
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		var req models.UpsertArticleRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid article input")
			return
		}

		article, err := h.catalogService.UpsertArticle(r.Context(), nil, &req)
		if err != nil {
			logger.Error("Article creation failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Article created",
			slog.String("articleId", article.ID.String()),
			slog.String("name", article.Name))
		response.Success(w, http.StatusCreated, article)
	}
}

func (h *ArticleHandler) UpdateArticle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := h.sellerClaims(w, r, logger)
		if !ok {
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		id, err := utils.ParseUUIDParam(r, "id")
		if err != nil {
			logger.Warn("Invalid article id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		var req models.UpsertArticleRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid article input")
			return
		}

		article, err := h.catalogService.UpsertArticle(r.Context(), &id, &req)
		if err != nil {
			logger.Error("Article update failed", slog.String("articleId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Article updated", slog.String("articleId", article.ID.String()))
		response.Success(w, http.StatusOK, article)
	}
}

func (h *ArticleHandler) DeleteArticle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := h.sellerClaims(w, r, logger)
		if !ok {
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		id, err := utils.ParseUUIDParam(r, "id")
		if err != nil {
			logger.Warn("Invalid article id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if err := h.catalogService.RemoveArticle(r.Context(), id); err != nil {
			logger.Error("Article deletion failed", slog.String("articleId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Article deleted", slog.String("articleId", id.String()))
		response.Success(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

// sellerClaims enforces that the caller is the seller account. It writes the
// error response itself; callers just return on !ok.
func (h *ArticleHandler) sellerClaims(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*models.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		logger.Warn("Unauthorized catalog mutation attempt")
		response.Error(w, errors.UnauthorizedError("Authentication required"))
		return nil, false
	}

	if claims.UserID != h.sellerID {
		logger.Warn("Non-seller attempted a catalog mutation",
			slog.String("userId", claims.UserID.String()))
		response.Error(w, errors.ForbiddenError("Only the shop can manage the catalog"))
		return nil, false
	}

	return claims, true
}

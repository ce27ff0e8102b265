package handlers

import (
	"log/slog"
	"net/http"

	"github.com/farmbasket/farmbasket-backend/internal/api/middleware"
	"github.com/farmbasket/farmbasket-backend/internal/basket"
	"github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/metrics"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	service "github.com/farmbasket/farmbasket-backend/internal/services"
	"github.com/farmbasket/farmbasket-backend/internal/utils"
	"github.com/farmbasket/farmbasket-backend/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// BasketHandler serves the buyer's draft basket. Lines are built from the
// catalog, never from client-supplied names or prices; the client only says
// which article and how much.
type BasketHandler struct {
	basket    *basket.Store
	catalog   service.ArticleReader
	validator *validator.Validate
}

func NewBasketHandler(basketStore *basket.Store, catalog service.ArticleReader) *BasketHandler {
	return &BasketHandler{
		basket:    basketStore,
		catalog:   catalog,
		validator: validator.New(),
	}
}

func (h *BasketHandler) GetBasket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized basket access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		response.Success(w, http.StatusOK, h.basket.Get(claims.UserID))
	}
}

// AddItem puts an article in the basket, or tops up the existing line. The
// article must exist in the catalog and be available.
func (h *BasketHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized basket mutation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add item input")
			return
		}

		logger = logger.With(slog.String("articleId", req.ArticleID.String()))

		article, err := h.catalog.GetArticle(r.Context(), req.ArticleID)
		if err != nil {
			logger.Warn("Article lookup failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		if !article.Available {
			logger.Warn("Attempted to add unavailable article")
			response.Error(w, errors.ValidationError("Article is currently unavailable"))
			return
		}

		line, err := lineFromArticle(article, req.Quantity, req.Pieces)
		if err != nil {
			logger.Warn("Invalid line quantity", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		snapshot := h.basket.AddItem(claims.UserID, line)
		metrics.BasketMutations.WithLabelValues("add").Inc()

		logger.Info("Article added to basket", slog.Int("itemCount", snapshot.ItemCount))
		response.Success(w, http.StatusOK, snapshot)
	}
}

// UpdateQuantity sets the line's amount. A zero amount removes the line.
func (h *BasketHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized basket mutation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update quantity input")
			return
		}

		logger = logger.With(slog.String("articleId", req.ArticleID.String()))

		current := h.basket.Get(claims.UserID)
		line, ok := current.Item(req.ArticleID)
		if !ok {
			logger.Warn("Attempted to update an article not in the basket")
			response.Error(w, errors.NotFoundError("Article is not in the basket"))
			return
		}

		quantity, pieces := req.Quantity, req.Pieces
		if line.Unit.IsPieceBased() {
			if pieces <= 0 {
				pieces = int(quantity.IntPart())
			}
			quantity = decimal.NewFromInt(int64(pieces))
		} else {
			pieces = 0
		}

		snapshot := h.basket.UpdateQuantity(claims.UserID, req.ArticleID, quantity, pieces)
		metrics.BasketMutations.WithLabelValues("update").Inc()

		logger.Info("Basket line updated", slog.Int("itemCount", snapshot.ItemCount))
		response.Success(w, http.StatusOK, snapshot)
	}
}

func (h *BasketHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized basket mutation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		articleID, err := utils.ParseUUIDParam(r, "articleId")
		if err != nil {
			logger.Warn("Invalid article id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		snapshot := h.basket.RemoveItem(claims.UserID, articleID)
		metrics.BasketMutations.WithLabelValues("remove").Inc()

		logger.Info("Article removed from basket",
			slog.String("articleId", articleID.String()),
			slog.Int("itemCount", snapshot.ItemCount))
		response.Success(w, http.StatusOK, snapshot)
	}
}

// UpdateDetails records the draft's pickup date and note to the seller.
func (h *BasketHandler) UpdateDetails() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized basket mutation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		var req models.UpdateBasketRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid basket details input")
			return
		}

		snapshot := h.basket.Get(claims.UserID)
		if req.PickupDate != nil {
			snapshot = h.basket.SetPickupDate(claims.UserID, *req.PickupDate)
		}
		if req.Message != nil {
			snapshot = h.basket.SetMessage(claims.UserID, *req.Message)
		}
		metrics.BasketMutations.WithLabelValues("details").Inc()

		logger.Info("Basket details updated")
		response.Success(w, http.StatusOK, snapshot)
	}
}

func (h *BasketHandler) ClearBasket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized basket mutation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		snapshot := h.basket.Clear(claims.UserID)
		metrics.BasketMutations.WithLabelValues("clear").Inc()

		logger.Info("Basket cleared", slog.String("userId", claims.UserID.String()))
		response.Success(w, http.StatusOK, snapshot)
	}
}

// lineFromArticle builds the authoritative line for an article: name, unit
// and price come from the catalog. For piece-based units the quantity
// mirrors the piece count so Subtotal prices whole pieces.
func lineFromArticle(article *models.Article, quantity decimal.Decimal, pieces int) (models.LineItem, error) {
	if article.Unit.IsPieceBased() {
		if pieces <= 0 {
			pieces = int(quantity.IntPart())
		}
		if pieces <= 0 {
			return models.LineItem{}, errors.ValidationError("Pieces must be positive for piece-based articles")
		}
		quantity = decimal.NewFromInt(int64(pieces))
	} else {
		pieces = 0
		if !quantity.GreaterThan(decimal.Zero) {
			return models.LineItem{}, errors.ValidationError("Quantity must be positive")
		}
	}

	return models.LineItem{
		ArticleID: article.ID,
		Name:      article.Name,
		Unit:      article.Unit,
		UnitPrice: article.Price,
		Quantity:  quantity,
		Pieces:    pieces,
	}, nil
}

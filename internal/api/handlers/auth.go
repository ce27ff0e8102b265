package handlers

import (
	"log/slog"
	"net/http"

	"github.com/farmbasket/farmbasket-backend/internal/api/middleware"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	service "github.com/farmbasket/farmbasket-backend/internal/services"
	"github.com/farmbasket/farmbasket-backend/internal/utils"
	"github.com/farmbasket/farmbasket-backend/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// AuthHandler serves the sign-in endpoints. All three are public: anonymous
// sign-in is how a first-time buyer gets a session at all.
type AuthHandler struct {
	authService service.AuthService
	validator   *validator.Validate
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService, validator: validator.New()}
}

// Anonymous creates a guest user and returns its token. No request body.
func (h *AuthHandler) Anonymous() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		resp, err := h.authService.SignInAnonymously(r.Context())
		if err != nil {
			logger.Error("Anonymous sign-in failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Guest session created", slog.String("userId", resp.UserID.String()))
		response.Success(w, http.StatusCreated, resp)
	}
}

func (h *AuthHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.RegisterRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid registration input")
			return
		}

		resp, err := h.authService.Register(r.Context(), &req)
		if err != nil {
			logger.Error("Registration failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Buyer registered", slog.String("userId", resp.UserID.String()))
		response.Success(w, http.StatusCreated, resp)
	}
}

func (h *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid login input")
			return
		}

		resp, err := h.authService.Login(r.Context(), &req)
		if err != nil {
			logger.Warn("Login failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Buyer logged in", slog.String("userId", resp.UserID.String()))
		response.Success(w, http.StatusOK, resp)
	}
}

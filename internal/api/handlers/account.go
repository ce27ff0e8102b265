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
)

// AccountHandler serves the lifecycle of an existing session: upgrading a
// guest in place, signing out, and deleting the account.
type AccountHandler struct {
	accountService service.AccountService
	validator      *validator.Validate
}

func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService, validator: validator.New()}
}

// Link upgrades the calling guest to a permanent account, keeping its
// profile, basket and order history. Returns a fresh token for the upgraded
// identity.
func (h *AccountHandler) Link() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized account link attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		var req models.LinkAccountRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid account link input")
			return
		}

		resp, err := h.accountService.LinkGuestToPermanent(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Account link failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Guest upgraded to permanent account")
		response.Success(w, http.StatusOK, resp)
	}
}

// Logout ends the session. For a guest this deletes the user and profile;
// a guest who signs out is gone for good.
func (h *AccountHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized logout attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		if err := h.accountService.Logout(r.Context(), claims.UserID); err != nil {
			logger.Error("Logout failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Buyer signed out")
		response.Success(w, http.StatusOK, map[string]bool{"signed_out": true})
	}
}

// DeleteAccount removes the account and reports what the cleanup did:
// future orders cancelled, past orders left for the seller's records, and
// any steps that failed along the way.
func (h *AccountHandler) DeleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized account deletion attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		report, err := h.accountService.DeleteAccount(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Account deletion failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Account deleted",
			slog.Int("cancelledOrders", len(report.CancelledOrders)),
			slog.Int("skippedOrders", len(report.SkippedOrders)),
			slog.Int("cleanupErrors", len(report.Errors)))
		response.Success(w, http.StatusOK, report)
	}
}

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/farmbasket/farmbasket-backend/internal/api/middleware"
	service "github.com/farmbasket/farmbasket-backend/internal/services"
	"github.com/farmbasket/farmbasket-backend/internal/utils/response"
)

// SessionHandler serves session bootstrap and the pickup date list. Both
// endpoints sit outside the auth middleware: bootstrap accepts an optional
// token and falls back to a guest session, and pickup dates are shop-level
// data.
type SessionHandler struct {
	sessionService service.SessionService
}

func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Bootstrap assembles everything a client needs for its first screen. A
// bearer token is honored when present and valid; otherwise the bootstrap
// signs the caller in as a new guest.
func (h *SessionHandler) Bootstrap() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		token := bearerToken(r)

		result, err := h.sessionService.Bootstrap(r.Context(), token)
		if err != nil {
			logger.Error("Session bootstrap failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Session bootstrapped",
			slog.Bool("anonymous", result.Anonymous),
			slog.Bool("freshGuest", result.Token != ""),
			slog.Int("articles", len(result.Articles)))
		response.Success(w, http.StatusOK, result)
	}
}

func (h *SessionHandler) PickupDates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.sessionService.PickupDates())
	}
}

// bearerToken extracts the token from the Authorization header, or returns
// an empty string when the header is absent or not a bearer scheme. This
// handler treats a malformed header the same as no header: the bootstrap
// decides how to proceed without a usable token.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

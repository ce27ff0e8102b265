package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/farmbasket/farmbasket-backend/internal/api/middleware"
	"github.com/farmbasket/farmbasket-backend/internal/basket"
	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/metrics"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/schedule"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AccountService covers the account lifecycle beyond sign-in: upgrading a
// guest to a permanent account in place, logging out, and full account
// deletion with order cleanup.
type AccountService interface {
	LinkGuestToPermanent(ctx context.Context, buyerID uuid.UUID, req *models.LinkAccountRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, buyerID uuid.UUID) error
	DeleteAccount(ctx context.Context, buyerID uuid.UUID) (*models.CleanupReport, error)
}

type accountService struct {
	users    UserStore
	profiles ProfileStore
	orders   OrderStore
	auth     AuthService
	basket   *basket.Store
	schedule *schedule.Calculator
	sellerID uuid.UUID
}

func NewAccountService(
	users UserStore,
	profiles ProfileStore,
	orders OrderStore,
	auth AuthService,
	basketStore *basket.Store,
	calc *schedule.Calculator,
	sellerID uuid.UUID,
) AccountService {
	return &accountService{
		users:    users,
		profiles: profiles,
		orders:   orders,
		auth:     auth,
		basket:   basketStore,
		schedule: calc,
		sellerID: sellerID,
	}
}

// LinkGuestToPermanent turns the calling guest into a registered account
// under the same id, so the profile, basket and placed orders all carry
// over. The caller gets a fresh token with the upgraded identity.
func (s *accountService) LinkGuestToPermanent(ctx context.Context, buyerID uuid.UUID, req *models.LinkAccountRequest) (*models.AuthResponse, error) {

	logger := middleware.LoggerFromContext(ctx)

	user, err := s.users.GetUserByID(ctx, buyerID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.DatabaseError("Failed to load user").WithError(err)
	}

	if !user.Anonymous {
		return nil, appErrors.ValidationError("account is already permanent")
	}

	existingUser, _ := s.users.GetUserByEmail(ctx, req.Email)
	if existingUser != nil {
		return nil, appErrors.DuplicateEntryError("Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.InternalError("Failed to secure password").WithError(err)
	}

	linked, err := s.users.LinkAccount(ctx, buyerID, req.Email, string(hashedPassword))
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeDuplicateEntry) || appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.DatabaseError("Failed to link account").WithError(err)
	}

	if err := s.profiles.SetContactEmail(ctx, buyerID, req.Email); err != nil {
		logger.Warn("Linked account email not copied to the profile",
			slog.String("buyerID", buyerID.String()),
			slog.String("error", err.Error()))
	}

	token, expiresIn, err := s.auth.IssueToken(linked)
	if err != nil {
		return nil, err
	}

	userID := linked.ID
	s.auth.PublishAuthState(models.AuthState{UserID: &userID})

	logger.Info("Guest account linked", slog.String("buyerID", buyerID.String()))

	return &models.AuthResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: expiresIn,
		UserID:    linked.ID,
	}, nil
}

// Logout ends the session. A guest identity is unreachable once its token
// is discarded, so its user row and profile are wiped instead of being left
// orphaned; a permanent account keeps everything, including the draft
// basket, for the next sign-in.
func (s *accountService) Logout(ctx context.Context, buyerID uuid.UUID) error {

	logger := middleware.LoggerFromContext(ctx)

	signedOut := models.AuthState{}

	user, err := s.users.GetUserByID(ctx, buyerID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			s.basket.Drop(buyerID)
			s.auth.PublishAuthState(signedOut)

			return nil
		}

		return appErrors.DatabaseError("Failed to load user").WithError(err)
	}

	if user.Anonymous {
		if err := s.profiles.DeleteProfile(ctx, buyerID); err != nil && !appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			logger.Warn("Guest profile not wiped on logout",
				slog.String("buyerID", buyerID.String()),
				slog.String("error", err.Error()))
		}

		if err := s.users.DeleteUser(ctx, buyerID); err != nil && !appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return appErrors.DatabaseError("Failed to delete guest user").WithError(err)
		}

		logger.Info("Guest session wiped", slog.String("buyerID", buyerID.String()))
	}

	s.basket.Drop(buyerID)
	s.auth.PublishAuthState(signedOut)

	return nil
}

// DeleteAccount removes the buyer and everything only they care about.
// Future orders are cancelled so the seller stops preparing them; past
// orders stay for the seller's records. Steps run to completion even when
// some fail, and the report says exactly what happened.
func (s *accountService) DeleteAccount(ctx context.Context, buyerID uuid.UUID) (*models.CleanupReport, error) {

	logger := middleware.LoggerFromContext(ctx)

	report := &models.CleanupReport{
		CancelledOrders: []uuid.UUID{},
		SkippedOrders:   []uuid.UUID{},
	}

	profile, err := s.profiles.GetProfile(ctx, buyerID)
	if err != nil && !appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
		return nil, appErrors.RemoteFailureError("Could not load the buyer profile").WithError(err)
	}

	if profile != nil {
		s.cleanupOrders(ctx, profile, report)

		if err := s.profiles.DeleteProfile(ctx, buyerID); err != nil && !appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			report.Errors = append(report.Errors, "profile: "+err.Error())
		} else {
			report.ProfileDeleted = true
		}
	}

	if err := s.users.DeleteUser(ctx, buyerID); err != nil && !appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
		report.Errors = append(report.Errors, "user: "+err.Error())
	}

	s.basket.Drop(buyerID)
	s.auth.PublishAuthState(models.AuthState{})

	logger.Info("Account deleted",
		slog.String("buyerID", buyerID.String()),
		slog.Int("cancelledOrders", len(report.CancelledOrders)),
		slog.Int("skippedOrders", len(report.SkippedOrders)),
		slog.Int("errors", len(report.Errors)))

	return report, nil
}

// cleanupOrders walks the profile's placed-order index in date order and
// cancels every order whose pickup day has not passed, edit window or not.
func (s *accountService) cleanupOrders(ctx context.Context, profile *models.BuyerProfile, report *models.CleanupReport) {

	logger := middleware.LoggerFromContext(ctx)

	todayKey := s.schedule.TodayKey()

	dateKeys := make([]string, 0, len(profile.PlacedOrderIDs))
	for dateKey := range profile.PlacedOrderIDs {
		dateKeys = append(dateKeys, dateKey)
	}

	sort.Strings(dateKeys)

	for _, dateKey := range dateKeys {
		orderID := profile.PlacedOrderIDs[dateKey]

		if _, err := s.schedule.ParseDateKey(dateKey); err != nil {
			report.Errors = append(report.Errors, "order "+orderID.String()+": "+err.Error())

			continue
		}

		// Date keys compare lexicographically in date order.
		if dateKey < todayKey {
			report.SkippedOrders = append(report.SkippedOrders, orderID)

			continue
		}

		err := s.orders.UpdateOrderStatus(ctx, s.sellerID, dateKey, orderID, models.OrderStatusCancelled)

		switch {
		case err == nil:
			report.CancelledOrders = append(report.CancelledOrders, orderID)
			metrics.OrdersCancelled.Inc()
		case appErrors.HasCode(err, appErrors.ErrCodeNotFound):
			report.SkippedOrders = append(report.SkippedOrders, orderID)
		default:
			report.Errors = append(report.Errors, "order "+orderID.String()+": "+err.Error())

			logger.Warn("Order not cancelled during account deletion",
				slog.String("orderID", orderID.String()),
				slog.String("dateKey", dateKey),
				slog.String("error", err.Error()))
		}
	}
}

package service_test

import (
	"errors"
	"testing"

	"github.com/farmbasket/farmbasket-backend/internal/basket"
	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	service "github.com/farmbasket/farmbasket-backend/internal/services"
	"github.com/farmbasket/farmbasket-backend/internal/services/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type accountDeps struct {
	users    *mocks.UserStore
	profiles *mocks.ProfileStore
	orders   *mocks.OrderStore
	auth     *mocks.AuthService
	basket   *basket.Store
	sellerID uuid.UUID
	buyerID  uuid.UUID
}

func setupAccountService(t *testing.T, day, hour int) (service.AccountService, *accountDeps) {
	t.Helper()

	deps := &accountDeps{
		users:    mocks.NewUserStore(t),
		profiles: mocks.NewProfileStore(t),
		orders:   mocks.NewOrderStore(t),
		auth:     mocks.NewAuthService(t),
		basket:   basket.NewStore(nil, nil),
		sellerID: uuid.New(),
		buyerID:  uuid.New(),
	}

	svc := service.NewAccountService(
		deps.users,
		deps.profiles,
		deps.orders,
		deps.auth,
		deps.basket,
		newCalculatorAt(t, day, hour),
		deps.sellerID,
	)

	return svc, deps
}

func TestLinkGuestToPermanent(t *testing.T) {
	t.Run("Guest is upgraded in place and gets a fresh token", func(t *testing.T) {
		// Arrange
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		guest := &models.User{ID: deps.buyerID, Anonymous: true}
		linked := &models.User{ID: deps.buyerID, Email: "anna@example.com"}

		deps.users.On("GetUserByID", ctx, deps.buyerID).Return(guest, nil).Once()
		deps.users.On("GetUserByEmail", ctx, "anna@example.com").
			Return(nil, appErrors.NotFoundError("user not found")).Once()

		var passwordHash string

		deps.users.On("LinkAccount", ctx, deps.buyerID, "anna@example.com", mock.AnythingOfType("string")).
			Return(linked, nil).
			Run(func(args mock.Arguments) { passwordHash = args.String(3) }).Once()

		deps.profiles.On("SetContactEmail", ctx, deps.buyerID, "anna@example.com").Return(nil).Once()
		deps.auth.On("IssueToken", linked).Return("upgraded-token", 86400, nil).Once()
		deps.auth.On("PublishAuthState", mock.MatchedBy(func(state models.AuthState) bool {
			return state.UserID != nil && *state.UserID == deps.buyerID && !state.Anonymous
		})).Return().Once()

		// Act
		resp, err := svc.LinkGuestToPermanent(ctx, deps.buyerID, &models.LinkAccountRequest{
			Email:    "anna@example.com",
			Password: "secret123",
		})

		// Assert
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "upgraded-token", resp.Token)
		assert.Equal(t, deps.buyerID, resp.UserID)

		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte("secret123")))
	})

	t.Run("Permanent account cannot link again", func(t *testing.T) {
		// Arrange
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		deps.users.On("GetUserByID", ctx, deps.buyerID).
			Return(&models.User{ID: deps.buyerID, Email: "anna@example.com"}, nil).Once()

		// Act
		resp, err := svc.LinkGuestToPermanent(ctx, deps.buyerID, &models.LinkAccountRequest{
			Email:    "other@example.com",
			Password: "secret123",
		})

		// Assert
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeValidation))
		deps.users.AssertNotCalled(t, "LinkAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Taken email is rejected", func(t *testing.T) {
		// Arrange
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		deps.users.On("GetUserByID", ctx, deps.buyerID).
			Return(&models.User{ID: deps.buyerID, Anonymous: true}, nil).Once()
		deps.users.On("GetUserByEmail", ctx, "taken@example.com").
			Return(&models.User{ID: uuid.New(), Email: "taken@example.com"}, nil).Once()

		// Act
		resp, err := svc.LinkGuestToPermanent(ctx, deps.buyerID, &models.LinkAccountRequest{
			Email:    "taken@example.com",
			Password: "secret123",
		})

		// Assert
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeDuplicateEntry))
	})

	t.Run("Unknown user passes through as not found", func(t *testing.T) {
		// Arrange
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		deps.users.On("GetUserByID", ctx, deps.buyerID).
			Return(nil, appErrors.NotFoundError("user not found")).Once()

		// Act
		_, err := svc.LinkGuestToPermanent(ctx, deps.buyerID, &models.LinkAccountRequest{
			Email:    "anna@example.com",
			Password: "secret123",
		})

		// Assert
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNotFound))
	})
}

func TestLogout(t *testing.T) {
	t.Run("Guest logout wipes the user and profile", func(t *testing.T) {
		// Arrange
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		deps.basket.AddItem(deps.buyerID, lineItem(uuid.New(), "Apples", "2", "3.50"))

		deps.users.On("GetUserByID", ctx, deps.buyerID).
			Return(&models.User{ID: deps.buyerID, Anonymous: true}, nil).Once()
		deps.profiles.On("DeleteProfile", ctx, deps.buyerID).Return(nil).Once()
		deps.users.On("DeleteUser", ctx, deps.buyerID).Return(nil).Once()
		deps.auth.On("PublishAuthState", models.AuthState{}).Return().Once()

		// Act
		err := svc.Logout(ctx, deps.buyerID)

		// Assert
		require.NoError(t, err)
		snap := deps.basket.Get(deps.buyerID)
		assert.True(t, snap.IsEmpty())
	})

	t.Run("Permanent account keeps its rows on logout", func(t *testing.T) {
		// Arrange
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		deps.users.On("GetUserByID", ctx, deps.buyerID).
			Return(&models.User{ID: deps.buyerID, Email: "anna@example.com"}, nil).Once()
		deps.auth.On("PublishAuthState", models.AuthState{}).Return().Once()

		// Act
		err := svc.Logout(ctx, deps.buyerID)

		// Assert
		require.NoError(t, err)
		deps.profiles.AssertNotCalled(t, "DeleteProfile", mock.Anything, mock.Anything)
		deps.users.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})

	t.Run("Logout for a vanished user still signs out", func(t *testing.T) {
		// Arrange
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		deps.users.On("GetUserByID", ctx, deps.buyerID).
			Return(nil, appErrors.NotFoundError("user not found")).Once()
		deps.auth.On("PublishAuthState", models.AuthState{}).Return().Once()

		// Act
		err := svc.Logout(ctx, deps.buyerID)

		// Assert
		require.NoError(t, err)
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("Future orders are cancelled, past pickups stay", func(t *testing.T) {
		// Arrange: today is 2026-08-25; one order last Friday, two upcoming.
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		pastID := uuid.New()
		nextID := uuid.New()
		laterID := uuid.New()

		profile := &models.BuyerProfile{
			ID: deps.buyerID,
			PlacedOrderIDs: map[string]uuid.UUID{
				"20260821": pastID,
				"20260828": nextID,
				"20260904": laterID,
			},
		}

		deps.profiles.On("GetProfile", ctx, deps.buyerID).Return(profile, nil).Once()
		deps.orders.On("UpdateOrderStatus", ctx, deps.sellerID, "20260828", nextID, models.OrderStatusCancelled).
			Return(nil).Once()
		deps.orders.On("UpdateOrderStatus", ctx, deps.sellerID, "20260904", laterID, models.OrderStatusCancelled).
			Return(nil).Once()
		deps.profiles.On("DeleteProfile", ctx, deps.buyerID).Return(nil).Once()
		deps.users.On("DeleteUser", ctx, deps.buyerID).Return(nil).Once()
		deps.auth.On("PublishAuthState", models.AuthState{}).Return().Once()

		// Act
		report, err := svc.DeleteAccount(ctx, deps.buyerID)

		// Assert
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{nextID, laterID}, report.CancelledOrders)
		assert.Equal(t, []uuid.UUID{pastID}, report.SkippedOrders)
		assert.True(t, report.ProfileDeleted)
		assert.Empty(t, report.Errors)
	})

	t.Run("Cleanup continues past individual failures", func(t *testing.T) {
		// Arrange
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		stubbornID := uuid.New()
		goneID := uuid.New()

		profile := &models.BuyerProfile{
			ID: deps.buyerID,
			PlacedOrderIDs: map[string]uuid.UUID{
				"20260828": stubbornID,
				"20260904": goneID,
			},
		}

		deps.profiles.On("GetProfile", ctx, deps.buyerID).Return(profile, nil).Once()
		deps.orders.On("UpdateOrderStatus", ctx, deps.sellerID, "20260828", stubbornID, models.OrderStatusCancelled).
			Return(errors.New("write conflict")).Once()
		deps.orders.On("UpdateOrderStatus", ctx, deps.sellerID, "20260904", goneID, models.OrderStatusCancelled).
			Return(appErrors.NotFoundError("open order not found")).Once()
		deps.profiles.On("DeleteProfile", ctx, deps.buyerID).
			Return(errors.New("still referenced")).Once()
		deps.users.On("DeleteUser", ctx, deps.buyerID).Return(nil).Once()
		deps.auth.On("PublishAuthState", models.AuthState{}).Return().Once()

		// Act
		report, err := svc.DeleteAccount(ctx, deps.buyerID)

		// Assert
		require.NoError(t, err, "partial failures are reported, not returned")
		assert.Empty(t, report.CancelledOrders)
		assert.Equal(t, []uuid.UUID{goneID}, report.SkippedOrders)
		assert.False(t, report.ProfileDeleted)
		assert.Len(t, report.Errors, 2)
	})

	t.Run("Missing profile still deletes the user", func(t *testing.T) {
		// Arrange
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		deps.profiles.On("GetProfile", ctx, deps.buyerID).
			Return(nil, appErrors.NotFoundError("profile not found")).Once()
		deps.users.On("DeleteUser", ctx, deps.buyerID).Return(nil).Once()
		deps.auth.On("PublishAuthState", models.AuthState{}).Return().Once()

		// Act
		report, err := svc.DeleteAccount(ctx, deps.buyerID)

		// Assert
		require.NoError(t, err)
		assert.False(t, report.ProfileDeleted)
		assert.Empty(t, report.CancelledOrders)
	})

	t.Run("Profile store outage aborts before any deletion", func(t *testing.T) {
		// Arrange
		svc, deps := setupAccountService(t, 25, 10)
		ctx := t.Context()

		deps.profiles.On("GetProfile", ctx, deps.buyerID).
			Return(nil, errors.New("connection reset")).Once()

		// Act
		report, err := svc.DeleteAccount(ctx, deps.buyerID)

		// Assert
		require.Error(t, err)
		assert.Nil(t, report)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeRemoteFailure))
		deps.users.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})
}

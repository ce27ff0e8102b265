package service

import (
	"context"
	"log/slog"

	"github.com/farmbasket/farmbasket-backend/internal/api/middleware"
	"github.com/farmbasket/farmbasket-backend/internal/basket"
	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/pubsub"
	"github.com/farmbasket/farmbasket-backend/internal/schedule"
	"github.com/google/uuid"
)

// SessionService assembles everything a client needs to render its first
// screen, in one strictly sequential pass: auth, then profile, then the
// upcoming order or draft basket, then the catalog. Each step gates the
// next; a failed step aborts the bootstrap.
type SessionService interface {
	Bootstrap(ctx context.Context, token string) (*models.BootstrapResult, error)
	PickupDates() []models.PickupDateOption
	ObserveBootstrap() (<-chan models.BootstrapProgress, func())
	Close()
}

type sessionService struct {
	auth     AuthService
	profiles ProfileStore
	orders   OrderStore
	articles ArticleReader
	basket   *basket.Store
	schedule *schedule.Calculator
	sellerID uuid.UUID
	stream   *pubsub.Stream[models.BootstrapProgress]
}

func NewSessionService(
	auth AuthService,
	profiles ProfileStore,
	orders OrderStore,
	articles ArticleReader,
	basketStore *basket.Store,
	calc *schedule.Calculator,
	sellerID uuid.UUID,
) SessionService {
	return &sessionService{
		auth:     auth,
		profiles: profiles,
		orders:   orders,
		articles: articles,
		basket:   basketStore,
		schedule: calc,
		sellerID: sellerID,
		stream:   pubsub.NewStream[models.BootstrapProgress](),
	}
}

// Bootstrap restores the session behind the given token, or starts a fresh
// guest session when the token is absent or no longer valid. The basket is
// hydrated draft-first: a persisted draft wins over the upcoming order,
// because it is the newer of the two by construction.
func (s *sessionService) Bootstrap(ctx context.Context, token string) (*models.BootstrapResult, error) {

	logger := middleware.LoggerFromContext(ctx)

	result := &models.BootstrapResult{}

	advance := func(step models.BootstrapStep) {
		progress := models.BootstrapProgress{Step: step}
		s.stream.Publish(progress)
		result.Steps = append(result.Steps, progress)
	}

	fail := func(step models.BootstrapStep, err error) (*models.BootstrapResult, error) {
		message := err.Error()
		if appErr, ok := appErrors.IsAppError(err); ok {
			message = appErr.Message
		}

		progress := models.BootstrapProgress{Step: models.StepFailed, Failed: step, Message: message}
		s.stream.Publish(progress)

		logger.Error("Session bootstrap failed",
			slog.String("step", string(step)),
			slog.String("error", message))

		return nil, err
	}

	advance(models.StepCheckingAuth)

	var buyerID uuid.UUID

	if token != "" {
		claims, err := s.auth.VerifyToken(token)
		if err == nil {
			buyerID = claims.UserID
			result.Anonymous = claims.Anonymous

			userID := claims.UserID
			s.auth.PublishAuthState(models.AuthState{UserID: &userID, Anonymous: claims.Anonymous})
		} else {
			logger.Warn("Session token rejected, starting a guest session")
		}
	}

	if buyerID == uuid.Nil {
		session, err := s.auth.SignInAnonymously(ctx)
		if err != nil {
			return fail(models.StepCheckingAuth, err)
		}

		buyerID = session.UserID
		result.Token = session.Token
		result.ExpiresIn = session.ExpiresIn
		result.Anonymous = true
	}

	advance(models.StepLoadingProfile)

	profile, err := s.profiles.GetProfile(ctx, buyerID)
	if err != nil {
		if !appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return fail(models.StepLoadingProfile, appErrors.RemoteFailureError("Could not load the buyer profile").WithError(err))
		}

		// Valid token, vanished profile: recreate an empty one so the
		// session can proceed instead of stranding the buyer.
		profile = &models.BuyerProfile{ID: buyerID, PlacedOrderIDs: map[string]uuid.UUID{}}

		if err := s.profiles.CreateProfile(ctx, profile); err != nil {
			return fail(models.StepLoadingProfile, appErrors.RemoteFailureError("Could not create the buyer profile").WithError(err))
		}
	}

	result.Profile = profile

	advance(models.StepLoadingOrder)

	if profile.DraftBasket != nil && !profile.DraftBasket.IsEmpty() {
		snapshot := s.basket.LoadFromDraft(buyerID, profile.DraftBasket)
		result.Basket = &snapshot
	} else {
		order, err := s.orders.GetOpenEditableOrder(ctx, s.sellerID, buyerID, s.schedule.TodayKey())

		switch {
		case err == nil:
			result.UpcomingOrder = order

			if s.schedule.CanEdit(order.PickupDate) {
				snapshot := s.basket.LoadFromExisting(buyerID, order)
				result.Basket = &snapshot
			} else {
				// Inside the cutoff the order is read-only; the basket
				// stays free for a later pickup date.
				snapshot := s.basket.Get(buyerID)
				result.Basket = &snapshot
			}
		case appErrors.HasCode(err, appErrors.ErrCodeNotFound):
			snapshot := s.basket.Get(buyerID)
			result.Basket = &snapshot
		default:
			return fail(models.StepLoadingOrder, appErrors.RemoteFailureError("Could not load the upcoming order").WithError(err))
		}
	}

	advance(models.StepLoadingArticles)

	articles, err := s.articles.Articles(ctx)
	if err != nil {
		return fail(models.StepLoadingArticles, err)
	}

	result.Articles = articles
	result.PickupDates = s.PickupDates()

	advance(models.StepComplete)

	logger.Info("Session bootstrap complete",
		slog.String("buyerID", buyerID.String()),
		slog.Bool("anonymous", result.Anonymous),
		slog.Bool("hasUpcomingOrder", result.UpcomingOrder != nil),
		slog.Int("articles", len(articles)))

	return result, nil
}

// PickupDates lists the currently offered pickup dates with their edit
// deadlines, soonest first.
func (s *sessionService) PickupDates() []models.PickupDateOption {

	dates := s.schedule.AvailablePickupDates()

	options := make([]models.PickupDateOption, len(dates))
	for i, date := range dates {
		options[i] = models.PickupDateOption{
			PickupDate:   date,
			DateKey:      s.schedule.DateKey(date),
			EditDeadline: s.schedule.EditDeadline(date),
		}
	}

	return options
}

// ObserveBootstrap subscribes to bootstrap progress. The most recent event
// is replayed so a late observer still sees where the sequence stands.
func (s *sessionService) ObserveBootstrap() (<-chan models.BootstrapProgress, func()) {
	return s.stream.Subscribe()
}

func (s *sessionService) Close() {
	s.stream.Close()
}

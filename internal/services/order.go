package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/farmbasket/farmbasket-backend/internal/api/middleware"
	"github.com/farmbasket/farmbasket-backend/internal/basket"
	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/metrics"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/reconcile"
	"github.com/farmbasket/farmbasket-backend/internal/schedule"
	"github.com/farmbasket/farmbasket-backend/pkg/sendgrid"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	emailSendTimeout = 10 * time.Second
)

// OrderLifecycleService drives an order through its life: checkout with
// merge detection, merge confirmation, edits and cancellation within the
// edit window, re-pricing a past order for a new date, and seller-side
// completion.
type OrderLifecycleService interface {
	Checkout(ctx context.Context, buyerID uuid.UUID, req *models.CheckoutRequest) (*models.CheckoutOutcome, error)
	ConfirmMerge(ctx context.Context, buyerID uuid.UUID, req *models.ConfirmMergeRequest) (*models.Order, error)
	GetOrder(ctx context.Context, buyerID uuid.UUID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, buyerID uuid.UUID, page int, size int) (*models.OrderHistoryResponse, error)
	UpdateOrder(ctx context.Context, buyerID uuid.UUID, orderID uuid.UUID) (*models.Order, error)
	CancelOrder(ctx context.Context, buyerID uuid.UUID, orderID uuid.UUID) error
	Reorder(ctx context.Context, buyerID uuid.UUID, req *models.ReorderRequest) (*models.Basket, error)
	CompleteOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type orderLifecycleService struct {
	orders     OrderStore
	profiles   ProfileStore
	basket     *basket.Store
	reconciler *reconcile.Reconciler
	schedule   *schedule.Calculator
	catalog    PriceIndexer
	email      EmailSender
	sellerID   uuid.UUID
	shopName   string
}

func NewOrderLifecycleService(
	orders OrderStore,
	profiles ProfileStore,
	basketStore *basket.Store,
	reconciler *reconcile.Reconciler,
	calc *schedule.Calculator,
	catalog PriceIndexer,
	email EmailSender,
	sellerID uuid.UUID,
	shopName string,
) OrderLifecycleService {
	return &orderLifecycleService{
		orders:     orders,
		profiles:   profiles,
		basket:     basketStore,
		reconciler: reconciler,
		schedule:   calc,
		catalog:    catalog,
		email:      email,
		sellerID:   sellerID,
		shopName:   shopName,
	}
}

// Checkout turns the basket into an order for the requested pickup date, or
// reports the merge the buyer must confirm when an open order for that date
// already exists. In the merge case nothing is persisted: the pickup date is
// pinned on the basket and the conflicts are returned for resolution.
func (s *orderLifecycleService) Checkout(ctx context.Context, buyerID uuid.UUID, req *models.CheckoutRequest) (*models.CheckoutOutcome, error) {

	logger := middleware.LoggerFromContext(ctx)

	snapshot := s.basket.Get(buyerID)
	if snapshot.IsEmpty() {
		return nil, appErrors.ValidationError("cannot check out an empty basket")
	}

	profile, err := s.loadProfile(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	path, err := s.reconciler.ResolveCheckoutPath(ctx, &snapshot, req.PickupDate, profile.PlacedOrderIDs)
	if err != nil {
		return nil, err
	}

	if path.Kind == reconcile.PathMergeRequired {
		s.basket.SetPickupDate(buyerID, req.PickupDate)

		if req.Message != "" {
			s.basket.SetMessage(buyerID, req.Message)
		}

		logger.Info("Checkout needs a merge",
			slog.String("buyerID", buyerID.String()),
			slog.String("orderID", path.Existing.ID.String()),
			slog.Int("conflicts", len(path.Conflicts)))

		return &models.CheckoutOutcome{
			MergeRequired: &models.MergeRequiredResponse{
				ExistingOrder: path.Existing,
				Conflicts:     path.Conflicts,
			},
		}, nil
	}

	order := &models.Order{
		ID:       uuid.New(),
		SellerID: s.sellerID,
		Buyer: models.BuyerSnapshot{
			BuyerID:     profile.ID,
			DisplayName: profile.DisplayName,
			Email:       profile.Email,
			Phone:       profile.Phone,
		},
		PickupDate: req.PickupDate,
		DateKey:    s.schedule.DateKey(req.PickupDate),
		Message:    sanitizeText(req.Message),
		Articles:   snapshot.Items,
		Status:     models.OrderStatusOpen,
	}

	if err := s.orders.PlaceOrder(ctx, order); err != nil {
		return nil, appErrors.RemoteFailureError("Could not place the order").WithError(err)
	}

	if err := s.profiles.RegisterPlacedOrder(ctx, buyerID, order.DateKey, order.ID); err != nil {
		// The order exists but is not indexed on the profile. The basket is
		// left intact so the buyer can retry without losing their selection.
		return nil, appErrors.RemoteFailureError("The order was placed but could not be registered to your profile").WithError(err)
	}

	s.basket.Clear(buyerID)
	metrics.OrdersPlaced.Inc()

	logger.Info("Order placed",
		slog.String("orderID", order.ID.String()),
		slog.String("dateKey", order.DateKey),
		slog.Int("articles", len(order.Articles)))

	s.notify(order, profile.Email, sendgrid.NewOrderConfirmation)

	return &models.CheckoutOutcome{Order: order}, nil
}

// ConfirmMerge finishes a checkout that hit an existing open order. The
// buyer's resolutions are stamped onto the recomputed conflicts; anything
// left undecided keeps the quantity already ordered. On success the basket
// mirrors the merged order.
func (s *orderLifecycleService) ConfirmMerge(ctx context.Context, buyerID uuid.UUID, req *models.ConfirmMergeRequest) (*models.Order, error) {

	logger := middleware.LoggerFromContext(ctx)

	snapshot := s.basket.Get(buyerID)
	if snapshot.IsEmpty() {
		return nil, appErrors.ValidationError("cannot merge an empty basket")
	}

	if snapshot.PickupDate == nil {
		return nil, appErrors.ValidationError("no merge is pending; check out first to choose a pickup date")
	}

	profile, err := s.loadProfile(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	path, err := s.reconciler.ResolveCheckoutPath(ctx, &snapshot, *snapshot.PickupDate, profile.PlacedOrderIDs)
	if err != nil {
		return nil, err
	}

	if path.Kind != reconcile.PathMergeRequired {
		return nil, appErrors.NotFoundError("no existing order to merge into").
			WithDetail("the order may have been cancelled in the meantime; check out again to place a new one")
	}

	if !s.schedule.CanEdit(path.Existing.PickupDate) {
		return nil, appErrors.EditWindowClosedError("The existing order can no longer be changed")
	}

	conflicts := reconcile.ResolveConflicts(path.Conflicts, req.Resolutions)
	merged := reconcile.ApplyResolutions(path.Existing.Articles, snapshot.Items, conflicts)

	message := path.Existing.Message
	if snapshot.Message != "" {
		message = sanitizeText(snapshot.Message)
	}

	updated, err := s.orders.UpdateOrderArticles(ctx, s.sellerID, path.Existing.DateKey, path.Existing.ID, merged, message)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.RemoteFailureError("Could not update the existing order").WithError(err)
	}

	s.basket.LoadFromExisting(buyerID, updated)
	metrics.OrdersMerged.Inc()

	logger.Info("Basket merged into existing order",
		slog.String("orderID", updated.ID.String()),
		slog.String("dateKey", updated.DateKey),
		slog.Int("articles", len(updated.Articles)))

	return updated, nil
}

func (s *orderLifecycleService) GetOrder(ctx context.Context, buyerID uuid.UUID, orderID uuid.UUID) (*models.Order, error) {

	order, err := s.orders.GetOrderByID(ctx, s.sellerID, orderID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.RemoteFailureError("Could not load the order").WithError(err)
	}

	if order.Buyer.BuyerID != buyerID {
		return nil, appErrors.ForbiddenError("This order belongs to another buyer")
	}

	return order, nil
}

func (s *orderLifecycleService) ListOrders(ctx context.Context, buyerID uuid.UUID, page int, size int) (*models.OrderHistoryResponse, error) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}

	orders, total, err := s.orders.ListOrdersByBuyer(ctx, s.sellerID, buyerID, page, size)
	if err != nil {
		return nil, appErrors.RemoteFailureError("Could not load the order history").WithError(err)
	}

	return &models.OrderHistoryResponse{
		Orders: orders,
		Total:  total,
		Page:   page,
		Size:   size,
	}, nil
}

// UpdateOrder replaces an open order's lines with the current basket
// contents. Allowed only while the order is open and its edit deadline has
// not passed.
func (s *orderLifecycleService) UpdateOrder(ctx context.Context, buyerID uuid.UUID, orderID uuid.UUID) (*models.Order, error) {

	logger := middleware.LoggerFromContext(ctx)

	order, err := s.GetOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status.IsTerminal() {
		return nil, appErrors.EditWindowClosedError("The order is no longer open")
	}

	if !s.schedule.CanEdit(order.PickupDate) {
		return nil, appErrors.EditWindowClosedError("The edit deadline for this pickup has passed")
	}

	snapshot := s.basket.Get(buyerID)
	if snapshot.IsEmpty() {
		return nil, appErrors.ValidationError("cannot save an empty basket; cancel the order instead")
	}

	message := order.Message
	if snapshot.Message != "" {
		message = sanitizeText(snapshot.Message)
	}

	updated, err := s.orders.UpdateOrderArticles(ctx, s.sellerID, order.DateKey, order.ID, snapshot.Items, message)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.RemoteFailureError("Could not update the order").WithError(err)
	}

	s.basket.LoadFromExisting(buyerID, updated)

	logger.Info("Order updated",
		slog.String("orderID", updated.ID.String()),
		slog.Int("articles", len(updated.Articles)))

	return updated, nil
}

// CancelOrder cancels an open order inside its edit window. Cancelling is
// idempotent: an already-cancelled or missing order succeeds quietly, only
// cleaning up whatever is left (index entry, basket provenance).
func (s *orderLifecycleService) CancelOrder(ctx context.Context, buyerID uuid.UUID, orderID uuid.UUID) error {

	logger := middleware.LoggerFromContext(ctx)

	order, err := s.orders.GetOrderByID(ctx, s.sellerID, orderID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			s.dropIndexEntry(ctx, buyerID, orderID)
			s.clearBasketFor(buyerID, orderID)

			return nil
		}

		return appErrors.RemoteFailureError("Could not load the order").WithError(err)
	}

	if order.Buyer.BuyerID != buyerID {
		return appErrors.ForbiddenError("This order belongs to another buyer")
	}

	if order.Status == models.OrderStatusCancelled {
		return nil
	}

	if order.Status == models.OrderStatusCompleted {
		return appErrors.EditWindowClosedError("A completed order can no longer be cancelled")
	}

	if !s.schedule.CanEdit(order.PickupDate) {
		return appErrors.EditWindowClosedError("The cancellation deadline for this pickup has passed")
	}

	if err := s.orders.UpdateOrderStatus(ctx, s.sellerID, order.DateKey, order.ID, models.OrderStatusCancelled); err != nil {
		// A concurrent cancel may have removed the open row; that is the
		// outcome we wanted. Anything else aborts before local cleanup.
		if !appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return appErrors.RemoteFailureError("Could not cancel the order").WithError(err)
		}
	}

	if err := s.profiles.RemovePlacedOrder(ctx, buyerID, order.DateKey); err != nil {
		logger.Warn("Cancelled order still indexed on the profile",
			slog.String("orderID", order.ID.String()),
			slog.String("dateKey", order.DateKey),
			slog.String("error", err.Error()))
	}

	s.clearBasketFor(buyerID, orderID)
	metrics.OrdersCancelled.Inc()

	logger.Info("Order cancelled",
		slog.String("orderID", order.ID.String()),
		slog.String("dateKey", order.DateKey))

	s.notify(order, order.Buyer.Email, sendgrid.NewOrderCancellation)

	return nil
}

// Reorder rebuilds the basket from past lines re-priced against the current
// catalog, pinned to a new pickup date. Articles the catalog no longer
// offers keep their stale line so the buyer sees what they had and decides.
func (s *orderLifecycleService) Reorder(ctx context.Context, buyerID uuid.UUID, req *models.ReorderRequest) (*models.Basket, error) {

	logger := middleware.LoggerFromContext(ctx)

	if !s.schedule.IsPickupDateValid(req.PickupDate) {
		return nil, appErrors.ValidationError("pickup date is no longer available").
			WithDetail("refresh the pickup dates and choose a current one")
	}

	source := s.basket.Get(buyerID).Items

	if req.OrderID != nil {
		order, err := s.GetOrder(ctx, buyerID, *req.OrderID)
		if err != nil {
			return nil, err
		}

		source = order.Articles
	}

	if len(source) == 0 {
		return nil, appErrors.ValidationError("nothing to reorder")
	}

	index, err := s.catalog.PriceIndex(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.LineItem, 0, len(source))

	for _, line := range source {
		current, ok := index[line.ArticleID]
		if !ok || !current.Available {
			logger.Warn("Reordered article is no longer offered",
				slog.String("articleID", line.ArticleID.String()),
				slog.String("name", line.Name))

			items = append(items, line)

			continue
		}

		line.Name = current.Name
		line.Unit = current.Unit
		line.UnitPrice = current.Price
		items = append(items, line)
	}

	snapshot := s.basket.LoadForReorder(buyerID, items, req.PickupDate)

	logger.Info("Basket rebuilt for a new pickup date",
		slog.String("buyerID", buyerID.String()),
		slog.String("dateKey", s.schedule.DateKey(req.PickupDate)),
		slog.Int("items", len(items)))

	return &snapshot, nil
}

// CompleteOrder is the seller marking a pickup as handed over. Completing an
// already-completed order is a no-op; a cancelled order cannot complete.
func (s *orderLifecycleService) CompleteOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {

	order, err := s.orders.GetOrderByID(ctx, s.sellerID, orderID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.RemoteFailureError("Could not load the order").WithError(err)
	}

	switch order.Status {
	case models.OrderStatusCompleted:
		return order, nil
	case models.OrderStatusCancelled:
		return nil, appErrors.EditWindowClosedError("A cancelled order cannot be completed")
	}

	if err := s.orders.UpdateOrderStatus(ctx, s.sellerID, order.DateKey, order.ID, models.OrderStatusCompleted); err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.RemoteFailureError("Could not complete the order").WithError(err)
	}

	order.Status = models.OrderStatusCompleted
	metrics.OrdersCompleted.Inc()

	middleware.LoggerFromContext(ctx).Info("Order completed",
		slog.String("orderID", order.ID.String()),
		slog.String("dateKey", order.DateKey))

	return order, nil
}

func (s *orderLifecycleService) loadProfile(ctx context.Context, buyerID uuid.UUID) (*models.BuyerProfile, error) {
	profile, err := s.profiles.GetProfile(ctx, buyerID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return nil, err
		}

		return nil, appErrors.RemoteFailureError("Could not load the buyer profile").WithError(err)
	}

	return profile, nil
}

// clearBasketFor resets the basket only when its contents came from the
// given order, so cancelling an old order never wipes an unrelated draft.
func (s *orderLifecycleService) clearBasketFor(buyerID uuid.UUID, orderID uuid.UUID) {
	snapshot := s.basket.Get(buyerID)
	if snapshot.OrderID != nil && *snapshot.OrderID == orderID {
		s.basket.Clear(buyerID)
	}
}

// dropIndexEntry removes a dangling placed-order pointer after the order
// itself turned out to be gone. Best effort.
func (s *orderLifecycleService) dropIndexEntry(ctx context.Context, buyerID uuid.UUID, orderID uuid.UUID) {

	logger := middleware.LoggerFromContext(ctx)

	profile, err := s.profiles.GetProfile(ctx, buyerID)
	if err != nil {
		logger.Warn("Could not load the profile to drop a stale order entry",
			slog.String("orderID", orderID.String()),
			slog.String("error", err.Error()))

		return
	}

	for dateKey, id := range profile.PlacedOrderIDs {
		if id != orderID {
			continue
		}

		if err := s.profiles.RemovePlacedOrder(ctx, buyerID, dateKey); err != nil {
			logger.Warn("Could not drop the stale order entry",
				slog.String("orderID", orderID.String()),
				slog.String("dateKey", dateKey),
				slog.String("error", err.Error()))
		}

		return
	}
}

// notify sends an order email off the request path. Delivery failures are
// logged and never surfaced: the order stands whether or not the mail went
// out.
func (s *orderLifecycleService) notify(order *models.Order, email string, build func(string, string, *models.Order) *models.EmailNotificationRequest) {
	if email == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
		defer cancel()

		if err := s.email.Send(ctx, build(email, s.shopName, order)); err != nil {
			slog.Error("Order email failed",
				slog.String("orderID", order.ID.String()),
				slog.String("error", err.Error()))
		}
	}()
}

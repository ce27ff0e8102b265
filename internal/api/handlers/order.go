package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/farmbasket/farmbasket-backend/internal/api/middleware"
	"github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/metrics"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	service "github.com/farmbasket/farmbasket-backend/internal/services"
	"github.com/farmbasket/farmbasket-backend/internal/utils"
	"github.com/farmbasket/farmbasket-backend/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// OrderHandler serves checkout and the order lifecycle. Completion is the
// one seller-side operation: marking an order as picked up.
type OrderHandler struct {
	orderService service.OrderLifecycleService
	validator    *validator.Validate
	sellerID     uuid.UUID
}

func NewOrderHandler(orderService service.OrderLifecycleService, sellerID uuid.UUID) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    validator.New(),
		sellerID:     sellerID,
	}
}

// Checkout godoc
//
//	@Summary		Submit the basket for a pickup date
//	@Description	Places a new order from the basket contents for the chosen pickup date. When an open order already exists for that date, responds 409 with the conflict payload and the buyer must resolve the merge first.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			checkout	body		models.CheckoutRequest	true	"Pickup date for the basket contents"
//	@Success		201			{object}	models.CheckoutOutcome	"Order placed"
//	@Failure		400			{object}	response.ErrorResponse	"Validation error or empty basket"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		409			{object}	models.CheckoutOutcome	"Open order exists for that date, merge required"
//	@Failure		500			{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/checkout [post]
func (h *OrderHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized checkout attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		var req models.CheckoutRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid checkout input")
			return
		}

		outcome, err := h.orderService.Checkout(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Checkout failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		if outcome.MergeRequired != nil {
			logger.Info("Checkout requires merge",
				slog.String("existingOrderId", outcome.MergeRequired.ExistingOrder.ID.String()),
				slog.Int("conflicts", len(outcome.MergeRequired.Conflicts)))
			// Not an error shape: the client drives the merge screen off
			// this payload.
			response.WriteJson(w, http.StatusConflict, response.APIResponse{Success: false, Data: outcome})
			return
		}

		metrics.OrdersPlaced.Inc()
		logger.Info("Order placed", slog.String("orderId", outcome.Order.ID.String()))
		response.Success(w, http.StatusCreated, outcome)
	}
}

// ConfirmMerge godoc
//
//	@Summary		Merge the basket into an existing order
//	@Description	Applies the buyer's conflict resolutions and folds the basket into the open order for the pinned pickup date.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			merge	body		models.ConfirmMergeRequest	true	"Resolutions for every conflicting article"
//	@Success		200		{object}	models.Order				"Merged order"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error or unresolved conflicts"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse		"Open order not found"
//	@Failure		409		{object}	response.ErrorResponse		"Edit window closed"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/checkout/merge [post]
func (h *OrderHandler) ConfirmMerge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized merge attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		var req models.ConfirmMergeRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid merge input")
			return
		}

		order, err := h.orderService.ConfirmMerge(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Merge failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		metrics.OrdersMerged.Inc()
		logger.Info("Basket merged into order", slog.String("orderId", order.ID.String()))
		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//
//	@Summary		List the buyer's orders with pagination
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int								false	"Page number (default 1)"
//	@Param			pageSize	query		int								false	"Items per page (default 10, max 100)"
//	@Success		200			{object}	models.OrderHistoryResponse	"Order history, newest pickup first"
//	@Failure		401			{object}	response.ErrorResponse			"Authentication required"
//	@Failure		500			{object}	response.ErrorResponse			"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order list attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 10
		}

		history, err := h.orderService.ListOrders(r.Context(), claims.UserID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Orders listed", slog.Int("count", len(history.Orders)), slog.Int("total", history.Total))
		response.Success(w, http.StatusOK, history)
	}
}

// GetOrder godoc
//
//	@Summary		Get an order by ID
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID"
//	@Success		200	{object}	models.Order			"The requested order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found or owned by another buyer"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		id, err := utils.ParseUUIDParam(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := h.orderService.GetOrder(r.Context(), claims.UserID, id)
		if err != nil {
			logger.Error("Failed to get order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// UpdateOrder godoc
//
//	@Summary		Replace an order's lines with the basket contents
//	@Description	The basket is the edit payload; there is no request body. Only open orders before the edit cutoff can be updated.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID"
//	@Success		200	{object}	models.Order			"Updated order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID or empty basket"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found or owned by another buyer"
//	@Failure		409	{object}	response.ErrorResponse	"Edit window closed"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id} [put]
func (h *OrderHandler) UpdateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order update attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		id, err := utils.ParseUUIDParam(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := h.orderService.UpdateOrder(r.Context(), claims.UserID, id)
		if err != nil {
			logger.Error("Order update failed", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order updated", slog.String("orderId", order.ID.String()))
		response.Success(w, http.StatusOK, order)
	}
}

// CancelOrder godoc
//
//	@Summary		Cancel an open order
//	@Description	Cancelling is idempotent: repeating the call on an already cancelled order responds 200 again.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID"
//	@Success		200	{object}	map[string]bool			"Cancelled"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found or owned by another buyer"
//	@Failure		409	{object}	response.ErrorResponse	"Edit window closed"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id} [delete]
func (h *OrderHandler) CancelOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order cancellation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		id, err := utils.ParseUUIDParam(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if err := h.orderService.CancelOrder(r.Context(), claims.UserID, id); err != nil {
			logger.Error("Order cancellation failed", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		metrics.OrdersCancelled.Inc()
		logger.Info("Order cancelled", slog.String("orderId", id.String()))
		response.Success(w, http.StatusOK, map[string]bool{"cancelled": true})
	}
}

// Reorder godoc
//
//	@Summary		Fill the basket from a past order
//	@Description	Copies a past order's lines into the basket at current catalog prices, ready for checkout against a new pickup date.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			reorder	body		models.ReorderRequest	true	"Target pickup date and optional source order"
//	@Success		200		{object}	models.Basket			"Refilled basket"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"Source order not found"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/basket/reorder [post]
func (h *OrderHandler) Reorder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized reorder attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		var req models.ReorderRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid reorder input")
			return
		}

		basket, err := h.orderService.Reorder(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Reorder failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Basket filled from past order", slog.Int("itemCount", basket.ItemCount))
		response.Success(w, http.StatusOK, basket)
	}
}

// CompleteOrder godoc
//
//	@Summary		Mark an order as picked up
//	@Description	Seller only. Flags the order as completed once the buyer has collected it.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID"
//	@Success		200	{object}	models.Order			"Completed order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Caller is not the shop account"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/{id}/complete [post]
func (h *OrderHandler) CompleteOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order completion attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		if claims.UserID != h.sellerID {
			logger.Warn("Non-seller attempted to complete an order",
				slog.String("userId", claims.UserID.String()))
			response.Error(w, errors.ForbiddenError("Only the shop can mark an order as picked up"))
			return
		}

		id, err := utils.ParseUUIDParam(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := h.orderService.CompleteOrder(r.Context(), id)
		if err != nil {
			logger.Error("Order completion failed", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		metrics.OrdersCompleted.Inc()
		logger.Info("Order completed", slog.String("orderId", order.ID.String()))
		response.Success(w, http.StatusOK, order)
	}
}

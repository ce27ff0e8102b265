package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// BuyerSnapshot is denormalized onto every order at placement so the seller's
// records survive later buyer-profile deletion.
type BuyerSnapshot struct {
	BuyerID     uuid.UUID `json:"buyer_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
}

// Order is one buyer's order for one pickup date. Exactly one order exists per
// (buyer, date key); the date key partitions the seller's order store. An order
// is editable only while Status is open and the edit deadline for PickupDate
// has not passed.
type Order struct {
	ID         uuid.UUID     `json:"id"`
	SellerID   uuid.UUID     `json:"seller_id"`
	Buyer      BuyerSnapshot `json:"buyer"`
	PickupDate time.Time     `json:"pickup_date"`
	DateKey    string        `json:"date_key"`
	Message    string        `json:"message,omitempty"`
	Articles   []LineItem    `json:"articles"`
	Status     OrderStatus   `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type CheckoutRequest struct {
	PickupDate time.Time `json:"pickup_date" validate:"required"`
	Message    string    `json:"message" validate:"omitempty,max=500"`
}

type MergeResolutionInput struct {
	ArticleID  uuid.UUID  `json:"article_id" validate:"required"`
	Resolution Resolution `json:"resolution" validate:"required,oneof=UNDECIDED ADD KEEP_EXISTING USE_NEW"`
}

type ConfirmMergeRequest struct {
	Resolutions []MergeResolutionInput `json:"resolutions" validate:"dive"`
}

type OrderResponse struct {
	Order *Order `json:"order"`
}

// MergeRequiredResponse is returned when checkout finds an existing open order
// for the target pickup date; the caller resolves the conflicts and confirms.
type MergeRequiredResponse struct {
	ExistingOrder *Order          `json:"existing_order"`
	Conflicts     []MergeConflict `json:"conflicts"`
}

// CheckoutOutcome is what a checkout attempt produced: exactly one of Order
// (a new order was placed) or MergeRequired (an open order already exists
// for the date and the buyer must resolve the merge) is set.
type CheckoutOutcome struct {
	Order         *Order                 `json:"order,omitempty"`
	MergeRequired *MergeRequiredResponse `json:"merge_required,omitempty"`
}

type OrderHistoryResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Size   int     `json:"size"`
}

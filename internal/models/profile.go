package models

import (
	"time"

	"github.com/google/uuid"
)

// BuyerProfile holds everything the shop knows about one buyer. PlacedOrderIDs
// indexes the buyer's orders by pickup-date key (YYYYMMDD) so "the order for
// this date" is found without scanning the order store. DraftBasket persists
// not-yet-checked-out contents across sessions.
type BuyerProfile struct {
	ID                  uuid.UUID            `json:"id"`
	DisplayName         string               `json:"display_name"`
	Email               string               `json:"email,omitempty"`
	Phone               string               `json:"phone,omitempty"`
	FavouriteArticleIDs []uuid.UUID          `json:"favourite_article_ids"`
	PlacedOrderIDs      map[string]uuid.UUID `json:"placed_order_ids"`
	DraftBasket         *Basket              `json:"draft_basket,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// OrderIDForDateKey looks up the placed order for a pickup-date key.
func (p *BuyerProfile) OrderIDForDateKey(dateKey string) (uuid.UUID, bool) {
	if p.PlacedOrderIDs == nil {
		return uuid.Nil, false
	}

	id, ok := p.PlacedOrderIDs[dateKey]

	return id, ok
}

type UpdateProfileRequest struct {
	DisplayName         string      `json:"display_name" validate:"omitempty,max=120"`
	Phone               string      `json:"phone" validate:"omitempty,max=40"`
	FavouriteArticleIDs []uuid.UUID `json:"favourite_article_ids" validate:"omitempty,dive,required"`
}

// CleanupReport summarizes an account deletion: future orders cancelled, past
// orders deliberately left for the seller's records, and any per-step errors.
// Partial failures do not abort the remaining steps.
type CleanupReport struct {
	CancelledOrders []uuid.UUID `json:"cancelled_orders"`
	SkippedOrders   []uuid.UUID `json:"skipped_orders"`
	ProfileDeleted  bool        `json:"profile_deleted"`
	Errors          []string    `json:"errors,omitempty"`
}

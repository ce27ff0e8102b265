package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Unit is the measure an article is sold in. Weight and volume units carry
// continuous quantities; piece-based units carry integral ones.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitGram     Unit = "g"
	UnitPiece    Unit = "piece"
	UnitBunch    Unit = "bunch"
	UnitLitre    Unit = "litre"
)

func (u Unit) IsPieceBased() bool {
	return u == UnitPiece || u == UnitBunch
}

// LineItem is one article position in a basket or an order. UnitPrice is the
// price per unit; a line with zero quantity is equivalent to absence.
type LineItem struct {
	ArticleID uuid.UUID       `json:"article_id"`
	Name      string          `json:"name"`
	Unit      Unit            `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Pieces    int             `json:"pieces"`
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(i.Quantity)
}

// Basket is the buyer's in-progress selection: an ordered collection of line
// items, unique by article id. OrderID and DateKey record provenance when the
// contents were hydrated from an already-placed order; HasChanges tracks
// whether the contents have drifted from that snapshot.
type Basket struct {
	BuyerID    uuid.UUID       `json:"buyer_id"`
	Items      []LineItem      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
	OrderID    *uuid.UUID      `json:"order_id,omitempty"`
	DateKey    string          `json:"date_key,omitempty"`
	HasChanges bool            `json:"has_changes"`
	PickupDate *time.Time      `json:"pickup_date,omitempty"`
	Message    string          `json:"message,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (b *Basket) IsEmpty() bool {
	return len(b.Items) == 0
}

// Item returns the line for the given article, if present.
func (b *Basket) Item(articleID uuid.UUID) (LineItem, bool) {
	for _, item := range b.Items {
		if item.ArticleID == articleID {
			return item, true
		}
	}

	return LineItem{}, false
}

type AddItemRequest struct {
	ArticleID uuid.UUID       `json:"article_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Pieces    int             `json:"pieces" validate:"min=0"`
}

type UpdateQuantityRequest struct {
	ArticleID uuid.UUID       `json:"article_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Pieces    int             `json:"pieces" validate:"min=0"`
}

// UpdateBasketRequest sets the draft's pickup date and note to the seller.
// Absent fields are left unchanged; validity of the date is checked at
// checkout, not here.
type UpdateBasketRequest struct {
	PickupDate *time.Time `json:"pickup_date,omitempty"`
	Message    *string    `json:"message,omitempty" validate:"omitempty,max=500"`
}

// ReorderRequest re-prices a past order's items for a new pickup date. When
// OrderID is unset the current basket contents are re-priced instead.
type ReorderRequest struct {
	PickupDate time.Time  `json:"pickup_date" validate:"required"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Article is one catalog entry of the seller's shop.
type Article struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Name        string          `json:"name"`
	Unit        Unit            `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ChangeMode string

const (
	ChangeAdded   ChangeMode = "ADDED"
	ChangeChanged ChangeMode = "CHANGED"
	ChangeRemoved ChangeMode = "REMOVED"
)

// ArticleChangeEvent is one catalog mutation delivered to observers. New
// subscribers first receive the current articles as ADDED events, then live
// changes in mutation order.
type ArticleChangeEvent struct {
	Mode    ChangeMode `json:"mode"`
	Article Article    `json:"article"`
}

type UpsertArticleRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=120"`
	Unit        Unit            `json:"unit" validate:"required,oneof=kg g piece bunch litre"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" validate:"omitempty,max=1000"`
	Available   bool            `json:"available"`
}

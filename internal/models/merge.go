package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Resolution decides how a single conflicting line is merged into the existing
// order. UNDECIDED behaves like KEEP_EXISTING when the merge is confirmed.
type Resolution string

const (
	ResolutionUndecided    Resolution = "UNDECIDED"
	ResolutionAdd          Resolution = "ADD"
	ResolutionKeepExisting Resolution = "KEEP_EXISTING"
	ResolutionUseNew       Resolution = "USE_NEW"
)

// MergeConflict reports one article the buyer is re-submitting with a quantity
// that differs from the already-placed order for the same pickup date. It is
// handed to the caller for resolution and never persisted.
type MergeConflict struct {
	ArticleID        uuid.UUID       `json:"article_id"`
	Name             string          `json:"name"`
	Unit             Unit            `json:"unit"`
	ExistingQuantity decimal.Decimal `json:"existing_quantity"`
	NewQuantity      decimal.Decimal `json:"new_quantity"`
	ExistingPrice    decimal.Decimal `json:"existing_price"`
	NewPrice         decimal.Decimal `json:"new_price"`
	Resolution       Resolution      `json:"resolution"`
}

// Package reconcile decides what checkout has to do when a buyer already
// holds an order for the chosen pickup date: create a fresh order, or merge
// the basket into the existing one. It also computes the article-level merge
// conflicts a buyer must resolve and applies their decisions.
package reconcile

import (
	"context"
	"time"

	appErrors "github.com/farmbasket/farmbasket-backend/internal/errors"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/schedule"
	"github.com/google/uuid"
)

// PathKind classifies the outcome of checkout path resolution.
type PathKind string

const (
	// PathCreateNew means no live order exists for the date; checkout may
	// place a brand-new order.
	PathCreateNew PathKind = "create_new"

	// PathMergeRequired means an open order already exists for the date.
	// Checkout must merge into it, even when Conflicts is empty, so a buyer
	// never ends up with two orders for one pickup.
	PathMergeRequired PathKind = "merge_required"
)

// CheckoutPath is the resolved route for a checkout attempt. Existing and
// Conflicts are populated only for PathMergeRequired.
type CheckoutPath struct {
	Kind      PathKind
	Existing  *models.Order
	Conflicts []models.MergeConflict
}

// OrderLoader is the slice of the order repository the reconciler needs.
type OrderLoader interface {
	LoadOrder(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID) (*models.Order, error)
}

type Reconciler struct {
	schedule *schedule.Calculator
	orders   OrderLoader
	sellerID uuid.UUID
}

func NewReconciler(calc *schedule.Calculator, orders OrderLoader, sellerID uuid.UUID) *Reconciler {
	return &Reconciler{
		schedule: calc,
		orders:   orders,
		sellerID: sellerID,
	}
}

// ResolveCheckoutPath inspects the buyer's placed-order index for the pickup
// date and returns the route checkout must take.
//
// A terminal (cancelled or completed) order does not block a new one for the
// same date, and a dangling index entry whose order no longer exists remotely
// is treated the same way. Any other load failure aborts resolution so the
// caller never risks placing a duplicate next to an order it could not see.
func (r *Reconciler) ResolveCheckoutPath(ctx context.Context, basket *models.Basket, pickupDate time.Time, placedOrderIDs map[string]uuid.UUID) (CheckoutPath, error) {
	if !r.schedule.IsPickupDateValid(pickupDate) {
		return CheckoutPath{}, appErrors.ValidationError("pickup date is no longer available").
			WithDetail("refresh the pickup dates and choose a current one")
	}

	dateKey := r.schedule.DateKey(pickupDate)

	orderID, ok := placedOrderIDs[dateKey]
	if !ok {
		return CheckoutPath{Kind: PathCreateNew}, nil
	}

	existing, err := r.orders.LoadOrder(ctx, r.sellerID, dateKey, orderID)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
			return CheckoutPath{Kind: PathCreateNew}, nil
		}

		return CheckoutPath{}, appErrors.RemoteFailureError("could not load the existing order for this pickup date").WithError(err)
	}

	if existing.Status.IsTerminal() {
		return CheckoutPath{Kind: PathCreateNew}, nil
	}

	return CheckoutPath{
		Kind:      PathMergeRequired,
		Existing:  existing,
		Conflicts: CalculateMergeConflicts(basket.Items, existing.Articles),
	}, nil
}

// CalculateMergeConflicts returns one conflict per article present in both
// the new basket and the existing order with differing quantities, in basket
// order, each starting UNDECIDED.
//
// The policy is one-directional: articles only in the existing order are
// never flagged (they stay as ordered), and identical quantities are not
// conflicts. Only lines the buyer re-submitted with a different quantity
// need a decision.
func CalculateMergeConflicts(newItems, existingItems []models.LineItem) []models.MergeConflict {
	existingByArticle := make(map[uuid.UUID]models.LineItem, len(existingItems))
	for _, item := range existingItems {
		existingByArticle[item.ArticleID] = item
	}

	var conflicts []models.MergeConflict

	for _, incoming := range newItems {
		current, ok := existingByArticle[incoming.ArticleID]
		if !ok {
			continue
		}

		if current.Quantity.Equal(incoming.Quantity) {
			continue
		}

		conflicts = append(conflicts, models.MergeConflict{
			ArticleID:        incoming.ArticleID,
			Name:             incoming.Name,
			Unit:             incoming.Unit,
			ExistingQuantity: current.Quantity,
			NewQuantity:      incoming.Quantity,
			ExistingPrice:    current.UnitPrice,
			NewPrice:         incoming.UnitPrice,
			Resolution:       models.ResolutionUndecided,
		})
	}

	return conflicts
}

// ResolveConflicts stamps caller-chosen resolutions onto computed conflicts,
// matching by article ID. Conflicts without an input stay UNDECIDED, which
// ApplyResolutions treats as KEEP_EXISTING.
func ResolveConflicts(conflicts []models.MergeConflict, inputs []models.MergeResolutionInput) []models.MergeConflict {
	byArticle := make(map[uuid.UUID]models.Resolution, len(inputs))
	for _, in := range inputs {
		byArticle[in.ArticleID] = in.Resolution
	}

	resolved := make([]models.MergeConflict, len(conflicts))
	for i, conflict := range conflicts {
		if res, ok := byArticle[conflict.ArticleID]; ok {
			conflict.Resolution = res
		}

		resolved[i] = conflict
	}

	return resolved
}

// ApplyResolutions builds the merged article list for the existing order.
//
// Existing lines keep their order. A conflicted line follows its resolution:
// ADD sums the quantities and adopts the new price, USE_NEW replaces the
// line, KEEP_EXISTING and UNDECIDED keep it untouched. A non-conflicted line
// that also appears in the basket takes the basket version (same quantity,
// fresh price and name). Basket-only articles are appended at the end in
// basket order.
func ApplyResolutions(existing, newItems []models.LineItem, conflicts []models.MergeConflict) []models.LineItem {
	resolutionByArticle := make(map[uuid.UUID]models.Resolution, len(conflicts))
	for _, conflict := range conflicts {
		resolutionByArticle[conflict.ArticleID] = conflict.Resolution
	}

	newByArticle := make(map[uuid.UUID]models.LineItem, len(newItems))
	for _, item := range newItems {
		newByArticle[item.ArticleID] = item
	}

	merged := make([]models.LineItem, 0, len(existing)+len(newItems))
	seen := make(map[uuid.UUID]bool, len(existing))

	for _, current := range existing {
		seen[current.ArticleID] = true

		incoming, hasNew := newByArticle[current.ArticleID]
		resolution, conflicted := resolutionByArticle[current.ArticleID]

		switch {
		case conflicted && hasNew:
			switch resolution {
			case models.ResolutionAdd:
				sum := incoming
				sum.Quantity = current.Quantity.Add(incoming.Quantity)
				sum.Pieces = current.Pieces + incoming.Pieces
				merged = append(merged, sum)
			case models.ResolutionUseNew:
				merged = append(merged, incoming)
			default:
				merged = append(merged, current)
			}
		case hasNew:
			merged = append(merged, incoming)
		default:
			merged = append(merged, current)
		}
	}

	for _, incoming := range newItems {
		if !seen[incoming.ArticleID] {
			merged = append(merged, incoming)
		}
	}

	return merged
}

// Package basket holds the buyer's in-progress selection. The store is the
// single writer for basket state: every mutation runs under one lock, then
// the new snapshot is published to observers and mirrored to the buyer's
// profile as a draft, best effort.
package basket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/pubsub"
	"github.com/farmbasket/farmbasket-backend/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DraftMirror persists the draft basket on the buyer's profile so an
// interrupted session can be restored. A nil draft clears the stored one.
type DraftMirror interface {
	SaveDraftBasket(ctx context.Context, buyerID uuid.UUID, draft *models.Basket) error
}

// Store keeps one basket per buyer. Mutations are local-first: the in-memory
// state is updated and observers notified before the draft mirror write,
// which runs in the background and never blocks or fails a mutation.
type Store struct {
	mu      sync.Mutex
	baskets map[uuid.UUID]*buyerState
	mirror  DraftMirror
	logger  *slog.Logger
}

type buyerState struct {
	basket models.Basket

	// provenance is the article->quantity snapshot of the placed order the
	// basket was hydrated from. Empty for a basket without an order behind it.
	provenance map[uuid.UUID]decimal.Decimal

	stream *pubsub.Stream[models.Basket]
}

func NewStore(mirror DraftMirror, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		baskets: make(map[uuid.UUID]*buyerState),
		mirror:  mirror,
		logger:  logger,
	}
}

// AddItem appends the line, or sums quantities when the article is already
// in the basket. Returns the updated snapshot.
func (s *Store) AddItem(buyerID uuid.UUID, item models.LineItem) models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(buyerID)

	merged := false
	for i, existing := range st.basket.Items {
		if existing.ArticleID == item.ArticleID {
			existing.Quantity = existing.Quantity.Add(item.Quantity)
			existing.Pieces += item.Pieces
			existing.UnitPrice = item.UnitPrice
			existing.Name = item.Name
			st.basket.Items[i] = existing
			merged = true

			break
		}
	}

	if !merged {
		st.basket.Items = append(st.basket.Items, item)
	}

	return s.commit(buyerID, st)
}

// RemoveItem drops the article's line. Removing an absent article is a no-op.
func (s *Store) RemoveItem(buyerID uuid.UUID, articleID uuid.UUID) models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(buyerID)

	for i, existing := range st.basket.Items {
		if existing.ArticleID == articleID {
			st.basket.Items = append(st.basket.Items[:i], st.basket.Items[i+1:]...)

			return s.commit(buyerID, st)
		}
	}

	return snapshot(st.basket)
}

// UpdateQuantity sets the line's quantity and piece count. A quantity of
// zero or less removes the line. Updating an absent article is a no-op.
func (s *Store) UpdateQuantity(buyerID uuid.UUID, articleID uuid.UUID, quantity decimal.Decimal, pieces int) models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(buyerID)

	for i, existing := range st.basket.Items {
		if existing.ArticleID != articleID {
			continue
		}

		if quantity.LessThanOrEqual(decimal.Zero) {
			st.basket.Items = append(st.basket.Items[:i], st.basket.Items[i+1:]...)
		} else {
			existing.Quantity = quantity
			existing.Pieces = pieces
			st.basket.Items[i] = existing
		}

		return s.commit(buyerID, st)
	}

	return snapshot(st.basket)
}

// Clear resets the basket to empty and forgets any order provenance.
func (s *Store) Clear(buyerID uuid.UUID) models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(buyerID)
	st.basket.Items = nil
	st.basket.OrderID = nil
	st.basket.DateKey = ""
	st.basket.PickupDate = nil
	st.basket.Message = ""
	st.provenance = map[uuid.UUID]decimal.Decimal{}

	return s.commit(buyerID, st)
}

// SetPickupDate records the buyer's chosen pickup date.
func (s *Store) SetPickupDate(buyerID uuid.UUID, pickup time.Time) models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(buyerID)
	st.basket.PickupDate = &pickup

	return s.commit(buyerID, st)
}

// SetMessage records the buyer's note to the seller.
func (s *Store) SetMessage(buyerID uuid.UUID, message string) models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(buyerID)
	st.basket.Message = message

	return s.commit(buyerID, st)
}

// LoadFromExisting replaces the basket contents with a placed order's
// articles and remembers them as the baseline, so HasChanges starts false
// and flips only when the buyer edits.
func (s *Store) LoadFromExisting(buyerID uuid.UUID, order *models.Order) models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(buyerID)

	st.basket.Items = append([]models.LineItem(nil), order.Articles...)
	orderID := order.ID
	st.basket.OrderID = &orderID
	st.basket.DateKey = order.DateKey
	pickup := order.PickupDate
	st.basket.PickupDate = &pickup
	st.basket.Message = order.Message

	st.provenance = make(map[uuid.UUID]decimal.Decimal, len(order.Articles))
	for _, item := range order.Articles {
		st.provenance[item.ArticleID] = item.Quantity
	}

	return s.commit(buyerID, st)
}

// LoadFromDraft restores a mirrored draft, keeping whatever provenance the
// draft itself recorded. Used during bootstrap, where a draft outranks the
// placed order for the same date.
func (s *Store) LoadFromDraft(buyerID uuid.UUID, draft *models.Basket) models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(buyerID)

	st.basket.Items = append([]models.LineItem(nil), draft.Items...)
	st.basket.OrderID = draft.OrderID
	st.basket.DateKey = draft.DateKey
	st.basket.PickupDate = draft.PickupDate
	st.basket.Message = draft.Message

	// A draft has, per definition, drifted from any placed order, so the
	// baseline stays empty and HasChanges comes out true for non-empty drafts.
	st.provenance = map[uuid.UUID]decimal.Decimal{}

	return s.commit(buyerID, st)
}

// LoadForReorder replaces the contents with re-priced lines from a past
// order and targets a new pickup date. Provenance is cleared: the result is
// a fresh draft, not an edit of the old order.
func (s *Store) LoadForReorder(buyerID uuid.UUID, items []models.LineItem, pickup time.Time) models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(buyerID)

	st.basket.Items = append([]models.LineItem(nil), items...)
	st.basket.OrderID = nil
	st.basket.DateKey = ""
	st.basket.PickupDate = &pickup
	st.provenance = map[uuid.UUID]decimal.Decimal{}

	return s.commit(buyerID, st)
}

// Get returns the current snapshot without mutating anything.
func (s *Store) Get(buyerID uuid.UUID) models.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.state(buyerID).basket)
}

// Observe subscribes to the buyer's basket. The current snapshot is replayed
// immediately, then every mutation arrives in order.
func (s *Store) Observe(buyerID uuid.UUID) (<-chan models.Basket, func()) {
	s.mu.Lock()
	st := s.state(buyerID)
	stream := st.stream
	s.mu.Unlock()

	return stream.Subscribe()
}

// Drop discards the buyer's basket entirely and closes its observer stream.
// Used when the account behind it is wiped; no draft is mirrored.
func (s *Store) Drop(buyerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.baskets[buyerID]
	if !ok {
		return
	}

	st.stream.Close()
	delete(s.baskets, buyerID)
}

// Close shuts down all observer streams.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.baskets {
		st.stream.Close()
	}
}

// state returns the buyer's entry, creating an empty one on first use. The
// caller must hold s.mu.
func (s *Store) state(buyerID uuid.UUID) *buyerState {
	st, ok := s.baskets[buyerID]
	if !ok {
		st = &buyerState{
			basket:     models.Basket{BuyerID: buyerID, Total: decimal.Zero, UpdatedAt: time.Now().UTC()},
			provenance: map[uuid.UUID]decimal.Decimal{},
			stream:     pubsub.NewStream[models.Basket](),
		}
		st.stream.Publish(snapshot(st.basket))
		s.baskets[buyerID] = st
	}

	return st
}

// commit recomputes derived fields, publishes the new snapshot, and kicks
// off the background draft mirror. The caller must hold s.mu.
func (s *Store) commit(buyerID uuid.UUID, st *buyerState) models.Basket {
	total := decimal.Zero
	for _, item := range st.basket.Items {
		total = total.Add(item.Subtotal())
	}

	st.basket.Total = total
	st.basket.ItemCount = len(st.basket.Items)
	st.basket.HasChanges = driftsFromBaseline(st.basket.Items, st.provenance)
	st.basket.UpdatedAt = time.Now().UTC()

	snap := snapshot(st.basket)
	st.stream.Publish(snap)

	if s.mirror != nil {
		go s.mirrorDraft(buyerID, snap)
	}

	return snap
}

// mirrorDraft persists the draft when the basket has unsaved work and clears
// it otherwise, so a stored draft always means "something to restore".
func (s *Store) mirrorDraft(buyerID uuid.UUID, snap models.Basket) {
	ctx, cancel := utils.WithDBTimeout(context.Background())
	defer cancel()

	var draft *models.Basket
	if snap.HasChanges {
		draft = &snap
	}

	if err := s.mirror.SaveDraftBasket(ctx, buyerID, draft); err != nil {
		s.logger.Warn("Draft basket mirror failed",
			slog.String("buyerId", buyerID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func driftsFromBaseline(items []models.LineItem, baseline map[uuid.UUID]decimal.Decimal) bool {
	if len(items) != len(baseline) {
		return true
	}

	for _, item := range items {
		qty, ok := baseline[item.ArticleID]
		if !ok || !qty.Equal(item.Quantity) {
			return true
		}
	}

	return false
}

func snapshot(b models.Basket) models.Basket {
	b.Items = append([]models.LineItem(nil), b.Items...)

	return b
}

package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Hassan5123/roast-direct/internal/domain"
	"github.com/Hassan5123/roast-direct/internal/events"
	"github.com/Hassan5123/roast-direct/internal/storage"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Store is the shopper's cart. Lines are unique by (product id, grind option)
// and every mutation is written through to durable storage.
type Store struct {
	mu        sync.RWMutex
	id        string
	sessionID string
	items     []domain.CartItem
	storage   storage.Store
	bus       events.Bus
	log       *slog.Logger
}

// New returns a store hydrated from durable storage.
func New(ctx context.Context, sessionID string, st storage.Store, bus events.Bus, log *slog.Logger) *Store {
	if bus == nil {
		bus = events.Nop{}
	}
	s := &Store{
		id:        uuid.NewString(),
		sessionID: sessionID,
		storage:   st,
		bus:       bus,
		log:       log.With("component", "cart", "session_id", sessionID),
	}
	s.Hydrate(ctx)
	return s
}

// Hydrate replaces the in-memory list with the persisted one. Absent or
// unreadable data yields an empty cart.
func (s *Store) Hydrate(ctx context.Context) {
	items := s.load(ctx)

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

func (s *Store) load(ctx context.Context) []domain.CartItem {
	raw, err := s.storage.Get(ctx, storage.KeyCart)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.ErrorContext(ctx, "failed to load cart", "error", err)
		return nil
	}

	var saved []domain.CartItem
	if err := json.Unmarshal(raw, &saved); err != nil {
		s.log.ErrorContext(ctx, "failed to parse saved cart", "error", err)
		return nil
	}

	items := make([]domain.CartItem, 0, len(saved))
	for _, it := range saved {
		if it.Quantity < 1 {
			s.log.WarnContext(ctx, "dropping saved cart line with invalid quantity",
				"product_id", it.ProductID, "grind_option", it.GrindOption, "quantity", it.Quantity)
			continue
		}
		items = append(items, it)
	}
	return items
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Add inserts item, or sets the quantity of the line with the same key.
// The quantity is replaced, not summed.
func (s *Store) Add(ctx context.Context, item domain.CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	if i := s.indexOf(item.Key()); i >= 0 {
		s.items[i].Quantity = item.Quantity
	} else {
		s.items = append(s.items, item)
	}
	saved := s.persist(ctx)
	s.mu.Unlock()

	s.notify(saved)
	return nil
}

// Remove drops the matching line. Removing an absent line is a no-op.
func (s *Store) Remove(ctx context.Context, productID, grindOption string) {
	s.mu.Lock()
	key := domain.LineKey{ProductID: productID, GrindOption: grindOption}
	kept := s.items[:0:0]
	for _, it := range s.items {
		if it.Key() != key {
			kept = append(kept, it)
		}
	}
	s.items = kept
	saved := s.persist(ctx)
	s.mu.Unlock()

	s.notify(saved)
}

// UpdateQuantity sets the quantity of the matching line. It returns false and
// leaves the cart untouched when quantity < 1.
func (s *Store) UpdateQuantity(ctx context.Context, productID, grindOption string, quantity int) bool {
	if quantity < 1 {
		return false
	}

	s.mu.Lock()
	if i := s.indexOf(domain.LineKey{ProductID: productID, GrindOption: grindOption}); i >= 0 {
		s.items[i].Quantity = quantity
	}
	saved := s.persist(ctx)
	s.mu.Unlock()

	s.notify(saved)
	return true
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	saved := s.persist(ctx)
	s.mu.Unlock()

	s.notify(saved)
}

// Total is the sum of price times quantity over all lines.
func (s *Store) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, it := range s.items {
		total += it.LineTotal()
	}
	return total
}

// ItemCount is the number of units, not lines.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, it := range s.items {
		count += it.Quantity
	}
	return count
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}

// Watch re-hydrates the store whenever another component changes this
// session's cart.
func (s *Store) Watch(bus events.Bus) func() {
	return bus.Subscribe(func(e events.Event) {
		if e.Kind != events.CartChanged || e.SessionID != s.sessionID || e.Source == s.id {
			return
		}
		s.Hydrate(context.Background())
	})
}

func (s *Store) indexOf(key domain.LineKey) int {
	for i, it := range s.items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

// persist must be called with mu held. Failures are logged; the in-memory
// cart stays authoritative. It reports whether the write went through.
func (s *Store) persist(ctx context.Context) bool {
	items := s.items
	if items == nil {
		items = []domain.CartItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to encode cart", "error", err)
		return false
	}
	if err := s.storage.Set(ctx, storage.KeyCart, raw); err != nil {
		s.log.ErrorContext(ctx, "failed to save cart", "error", err)
		return false
	}
	return true
}

// notify announces a saved change. It must be called without mu held:
// subscribers may read the cart, and relays may do I/O.
func (s *Store) notify(saved bool) {
	if !saved {
		return
	}
	s.bus.Publish(events.Event{
		Kind:      events.CartChanged,
		SessionID: s.sessionID,
		Key:       storage.KeyCart,
		Source:    s.id,
	})
}

package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hassan5123/roast-direct/internal/domain"
	"github.com/Hassan5123/roast-direct/internal/events"
	"github.com/Hassan5123/roast-direct/internal/storage"
	"github.com/Hassan5123/roast-direct/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, storage.Store, *events.Local) {
	t.Helper()
	st := storage.NewMemoryStore()
	bus := events.NewLocal()
	return New(context.Background(), "s1", st, bus, logger.Nop()), st, bus
}

func item(productID, grind string, price float64, qty int) domain.CartItem {
	return domain.CartItem{ProductID: productID, Name: "Coffee " + productID, Price: price, Quantity: qty, GrindOption: grind}
}

func TestAdd_NewLinesAppendInOrder(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, item("p1", "Whole Bean", 10, 1)))
	require.NoError(t, s.Add(ctx, item("p1", "Espresso", 10, 2)))
	require.NoError(t, s.Add(ctx, item("p2", "Whole Bean", 5, 1)))

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Whole Bean", items[0].GrindOption)
	assert.Equal(t, "Espresso", items[1].GrindOption)
	assert.Equal(t, "p2", items[2].ProductID)
}

func TestAdd_SameKeyReplacesQuantity(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, item("A", "Espresso", 10, 2)))
	require.NoError(t, s.Add(ctx, item("A", "Espresso", 10, 5)))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAdd_RejectsQuantityBelowOne(t *testing.T) {
	s, _, _ := newTestStore(t)

	err := s.Add(context.Background(), item("A", "Espresso", 10, 0))

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.True(t, s.IsEmpty())
}

func TestRemove(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, item("A", "Espresso", 10, 2)))
	require.NoError(t, s.Add(ctx, item("A", "Chemex", 10, 1)))

	s.Remove(ctx, "A", "Espresso")
	s.Remove(ctx, "missing", "Espresso")

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Chemex", items[0].GrindOption)
}

func TestUpdateQuantity(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, item("A", "Espresso", 10, 2)))

	assert.False(t, s.UpdateQuantity(ctx, "A", "Espresso", 0))
	assert.Equal(t, 2, s.Items()[0].Quantity)

	assert.False(t, s.UpdateQuantity(ctx, "A", "Espresso", -3))
	assert.Equal(t, 2, s.Items()[0].Quantity)

	assert.True(t, s.UpdateQuantity(ctx, "A", "Espresso", 7))
	assert.Equal(t, 7, s.Items()[0].Quantity)

	// absent line: accepted, nothing changes
	assert.True(t, s.UpdateQuantity(ctx, "B", "Espresso", 3))
	assert.Len(t, s.Items(), 1)
}

func TestTotalsAndClear(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, item("A", "Espresso", 12.5, 2)))
	require.NoError(t, s.Add(ctx, item("B", "Chemex", 20, 1)))

	assert.InDelta(t, 45.0, s.Total(), 0.001)
	assert.Equal(t, 3, s.ItemCount())

	s.Clear(ctx)
	assert.True(t, s.IsEmpty())
	assert.Zero(t, s.Total())
	assert.Zero(t, s.ItemCount())
}

func TestPersistence_SurvivesReload(t *testing.T) {
	s, st, bus := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, item("A", "Espresso", 10, 2)))

	raw, err := st.Get(ctx, storage.KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"A","name":"Coffee A","price":10,"quantity":2,"grindOption":"Espresso","imageUrl":""}]`, string(raw))

	reloaded := New(ctx, "s1", st, bus, logger.Nop())
	assert.Equal(t, s.Items(), reloaded.Items())
}

func TestClear_PersistsEmptyList(t *testing.T) {
	s, st, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, item("A", "Espresso", 10, 2)))

	s.Clear(ctx)

	raw, err := st.Get(ctx, storage.KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestHydrate_CorruptDataYieldsEmptyCart(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(context.Background(), storage.KeyCart, []byte("{not json")))

	s := New(context.Background(), "s1", st, nil, logger.Nop())

	assert.True(t, s.IsEmpty())
}

func TestHydrate_DropsInvalidQuantities(t *testing.T) {
	st := storage.NewMemoryStore()
	saved := `[{"productId":"A","grindOption":"Espresso","price":1,"quantity":0},
	           {"productId":"B","grindOption":"Chemex","price":2,"quantity":3}]`
	require.NoError(t, st.Set(context.Background(), storage.KeyCart, []byte(saved)))

	s := New(context.Background(), "s1", st, nil, logger.Nop())

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].ProductID)
}

type failingStore struct{ storage.Store }

func (failingStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestPersistFailure_KeepsInMemoryState(t *testing.T) {
	st := failingStore{storage.NewMemoryStore()}
	s := New(context.Background(), "s1", st, nil, logger.Nop())

	require.NoError(t, s.Add(context.Background(), item("A", "Espresso", 10, 1)))

	assert.Len(t, s.Items(), 1)
}

func TestMutationsPublishCartChanged(t *testing.T) {
	s, _, bus := newTestStore(t)
	var got []events.Event
	bus.Subscribe(func(e events.Event) { got = append(got, e) })

	require.NoError(t, s.Add(context.Background(), item("A", "Espresso", 10, 1)))
	s.Remove(context.Background(), "A", "Espresso")

	require.Len(t, got, 2)
	assert.Equal(t, events.CartChanged, got[0].Kind)
	assert.Equal(t, "s1", got[0].SessionID)
	assert.Equal(t, storage.KeyCart, got[0].Key)
}

func TestWatch_RehydratesOnExternalChange(t *testing.T) {
	st := storage.NewMemoryStore()
	bus := events.NewLocal()
	ctx := context.Background()

	tabA := New(ctx, "s1", st, bus, logger.Nop())
	tabB := New(ctx, "s1", st, bus, logger.Nop())
	other := New(ctx, "s2", storage.NewMemoryStore(), bus, logger.Nop())
	defer tabB.Watch(bus)()
	defer other.Watch(bus)()

	require.NoError(t, tabA.Add(ctx, item("A", "Espresso", 10, 4)))

	assert.Equal(t, tabA.Items(), tabB.Items())
	assert.True(t, other.IsEmpty())
}

func TestMutations_PublishWithoutHoldingLock(t *testing.T) {
	st := storage.NewMemoryStore()
	bus := events.NewLocal()
	ctx := context.Background()
	s := New(ctx, "s1", st, bus, logger.Nop())

	var seen []int
	bus.Subscribe(func(e events.Event) {
		seen = append(seen, s.ItemCount())
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Add(ctx, item("A", "Espresso", 10, 2))
		s.UpdateQuantity(ctx, "A", "Espresso", 3)
		s.Remove(ctx, "A", "Espresso")
		_ = s.Add(ctx, item("B", "Chemex", 10, 1))
		s.Clear(ctx)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cart mutation blocked while publishing")
	}
	assert.Equal(t, []int{2, 3, 0, 1, 0}, seen)
}

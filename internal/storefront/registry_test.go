package storefront

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hassan5123/roast-direct/internal/catalog"
	"github.com/Hassan5123/roast-direct/internal/domain"
	"github.com/Hassan5123/roast-direct/internal/events"
	"github.com/Hassan5123/roast-direct/internal/storage"
	"github.com/Hassan5123/roast-direct/pkg/logger"
)

type stubBackend struct{}

func (stubBackend) Login(context.Context, domain.Credentials) (catalog.AuthResult, error) {
	return catalog.AuthResult{Token: "tok", User: domain.User{ID: "u1"}}, nil
}

func (stubBackend) Register(context.Context, domain.Registration) (catalog.AuthResult, error) {
	return catalog.AuthResult{Token: "tok", User: domain.User{ID: "u1"}}, nil
}

func (stubBackend) FinalTotal(context.Context, catalog.FinalTotalRequest) (domain.OrderDetails, error) {
	return domain.OrderDetails{}, nil
}

func (stubBackend) PlaceOrder(context.Context, catalog.PlaceOrderRequest) (domain.PlacedOrder, error) {
	return domain.PlacedOrder{}, nil
}

func newTestRegistry(store storage.Store, bus events.Bus) *Registry {
	return NewRegistry(Deps{Store: store, Bus: bus, Backend: stubBackend{}, IdleTTL: time.Minute, Log: logger.Nop()})
}

func TestGet_ReusesAndIsolatesSessions(t *testing.T) {
	r := newTestRegistry(storage.NewMemoryStore(), events.NewLocal())
	ctx := context.Background()

	a := r.Get(ctx, "a")
	assert.Same(t, a, r.Get(ctx, "a"))

	require.NoError(t, a.Cart.Add(ctx, domain.CartItem{ProductID: "p", GrindOption: "Espresso", Quantity: 1}))
	assert.True(t, r.Get(ctx, "b").Cart.IsEmpty())
	assert.Equal(t, 2, r.Len())
}

func TestSweep_EvictsIdleAndRehydrates(t *testing.T) {
	store := storage.NewMemoryStore()
	r := newTestRegistry(store, events.NewLocal())
	ctx := context.Background()
	now := time.Now()
	r.now = func() time.Time { return now }

	s := r.Get(ctx, "a")
	require.NoError(t, s.Cart.Add(ctx, domain.CartItem{ProductID: "p", GrindOption: "Espresso", Quantity: 3}))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Zero(t, r.Len())

	again := r.Get(ctx, "a")
	assert.NotSame(t, s, again)
	assert.Equal(t, 3, again.Cart.ItemCount())
}

func TestExpire_UsesSessionFromContext(t *testing.T) {
	r := newTestRegistry(storage.NewMemoryStore(), events.NewLocal())
	ctx := context.Background()
	s := r.Get(ctx, "a")
	_, err := s.Auth.Login(ctx, domain.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)

	r.Expire(ctx) // no session id: ignored
	assert.True(t, s.Auth.IsAuthenticated(ctx))

	r.Expire(s.Context(ctx))
	assert.False(t, s.Auth.IsAuthenticated(ctx))
}

func TestSession_ContextCarriesToken(t *testing.T) {
	r := newTestRegistry(storage.NewMemoryStore(), nil)
	ctx := context.Background()
	s := r.Get(ctx, "a")
	_, err := s.Auth.Login(ctx, domain.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)

	sctx := s.Context(ctx)

	assert.Equal(t, "tok", catalog.TokenFrom(sctx))
	id, ok := SessionIDFrom(sctx)
	assert.True(t, ok)
	assert.Equal(t, "a", id)
}

func TestTwoRegistriesShareStateThroughBus(t *testing.T) {
	store := storage.NewMemoryStore()
	bus := events.NewLocal()
	ctx := context.Background()
	tab1 := newTestRegistry(store, bus).Get(ctx, "a")
	tab2 := newTestRegistry(store, bus).Get(ctx, "a")

	require.NoError(t, tab1.Cart.Add(ctx, domain.CartItem{ProductID: "p", GrindOption: "Espresso", Quantity: 2}))

	assert.Equal(t, 2, tab2.Cart.ItemCount())
}

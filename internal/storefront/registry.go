package storefront

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Hassan5123/roast-direct/internal/auth"
	"github.com/Hassan5123/roast-direct/internal/cart"
	"github.com/Hassan5123/roast-direct/internal/checkout"
	"github.com/Hassan5123/roast-direct/internal/events"
	"github.com/Hassan5123/roast-direct/internal/review"
	"github.com/Hassan5123/roast-direct/internal/storage"
)

// Backend is everything the per-session components need from the API client.
type Backend interface {
	auth.API
	review.API
}

type Deps struct {
	Store         storage.Store
	Bus           events.Bus
	Backend       Backend
	RedirectDelay time.Duration
	// IdleTTL is how long an unused session stays in memory. Its durable
	// state outlives eviction.
	IdleTTL time.Duration
	Log     *slog.Logger
}

// Session bundles one shopper's components over storage namespaced by the
// session id.
type Session struct {
	ID       string
	Auth     *auth.Session
	Cart     *cart.Store
	Checkout *checkout.Collector
	Review   *review.Flow

	lastUsed time.Time
	stop     []func()
}

// Context returns ctx carrying the session id and bearer token.
func (s *Session) Context(ctx context.Context) context.Context {
	return s.Auth.Context(WithSessionID(ctx, s.ID))
}

type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	deps     Deps
	now      func() time.Time
}

func NewRegistry(deps Deps) *Registry {
	if deps.Bus == nil {
		deps.Bus = events.Nop{}
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = 30 * time.Minute
	}
	return &Registry{
		sessions: make(map[string]*Session),
		deps:     deps,
		now:      time.Now,
	}
}

// Get returns the live session for id, hydrating it from storage on first use.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.lastUsed = r.now()
		return s
	}

	s := r.open(ctx, id)
	s.lastUsed = r.now()
	r.sessions[id] = s
	return s
}

func (r *Registry) open(ctx context.Context, id string) *Session {
	d := r.deps
	st := storage.Namespaced(d.Store, id)
	log := d.Log.With("session_id", id)

	c := cart.New(ctx, id, st, d.Bus, d.Log)
	col := checkout.NewCollector(id, st, d.Bus, d.Log)
	flow := review.NewFlow(id, d.Backend, c, col, d.RedirectDelay, d.Log)
	s := &Session{
		ID:       id,
		Auth:     auth.NewSession(id, st, d.Backend, d.Bus, d.Log),
		Cart:     c,
		Checkout: col,
		Review:   flow,
	}
	s.stop = append(s.stop, c.Watch(d.Bus), flow.Watch(d.Bus))
	log.DebugContext(ctx, "session opened")
	return s
}

// Expire ends the authenticated session carried by ctx. It is the backend
// client's 401 hook.
func (r *Registry) Expire(ctx context.Context) {
	id, ok := SessionIDFrom(ctx)
	if !ok {
		return
	}
	r.Get(ctx, id).Auth.Expire(ctx)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.deps.IdleTTL)
	evicted := 0
	for id, s := range r.sessions {
		if s.lastUsed.Before(cutoff) {
			for _, stop := range s.stop {
				stop()
			}
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.deps.Log.Debug("evicted idle sessions", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type sessionKey struct{}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

func SessionIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

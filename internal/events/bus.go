package events

import (
	"sync"
	"time"
)

type Kind string

const (
	CartChanged  Kind = "cart.changed"
	AuthChanged  Kind = "auth.changed"
	AuthExpired  Kind = "auth.expired"
	DraftChanged Kind = "draft.changed"
)

// Event reports that durable state of a session changed outside the caller.
type Event struct {
	Kind      Kind      `json:"kind"`
	SessionID string    `json:"session_id"`
	Key       string    `json:"key,omitempty"`
	At        time.Time `json:"at"`
	// Source identifies the component that made the change.
	Source string `json:"source,omitempty"`
	// Origin identifies the gateway instance that produced the event.
	Origin string `json:"origin,omitempty"`
}

type Handler func(Event)

type Bus interface {
	Publish(e Event)
	Subscribe(h Handler) (unsubscribe func())
}

// Local fans events out synchronously to in-process subscribers.
type Local struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
}

func NewLocal() *Local {
	return &Local{handlers: make(map[int]Handler)}
}

func (b *Local) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(e)
	}
}

func (b *Local) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) {}
func (Nop) Subscribe(Handler) func() { return func() {} }

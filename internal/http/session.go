package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Hassan5123/roast-direct/internal/storefront"
)

// Sessions resolves a session id to the shopper's live components.
type Sessions interface {
	Get(ctx context.Context, id string) *storefront.Session
}

// sessionHandler is embedded by handlers that act on the shopper's session.
type sessionHandler struct {
	sessions Sessions
	timeout  time.Duration
}

// begin returns the request context bounded by the handler timeout and
// carrying the session id and bearer token, along with the session.
func (h sessionHandler) begin(r *http.Request) (context.Context, *storefront.Session, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	id, ok := storefront.SessionIDFrom(ctx)
	if !ok {
		id = uuid.NewString()
	}
	sess := h.sessions.Get(ctx, id)
	return sess.Context(ctx), sess, cancel
}

package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Hassan5123/roast-direct/internal/apperr"
	"github.com/Hassan5123/roast-direct/internal/domain"
	"github.com/Hassan5123/roast-direct/internal/events"
	"github.com/Hassan5123/roast-direct/internal/storage"
)

// EntryGuard decides whether the checkout flow may be entered. It returns the
// step to redirect to, or ok when the shopper may proceed.
func EntryGuard(authenticated, cartEmpty bool) (redirect domain.Step, ok bool) {
	switch {
	case !authenticated:
		return domain.StepLogin, false
	case cartEmpty:
		return domain.StepCart, false
	default:
		return "", true
	}
}

// Collector validates the checkout form and keeps the draft between the
// checkout and review steps.
type Collector struct {
	sessionID string
	storage   storage.Store
	bus       events.Bus
	log       *slog.Logger
}

func NewCollector(sessionID string, st storage.Store, bus events.Bus, log *slog.Logger) *Collector {
	if bus == nil {
		bus = events.Nop{}
	}
	return &Collector{
		sessionID: sessionID,
		storage:   st,
		bus:       bus,
		log:       log.With("component", "checkout", "session_id", sessionID),
	}
}

// Submit validates f. A valid form is saved as the draft and the shopper
// moves on to review; an invalid one is neither saved nor advanced.
func (c *Collector) Submit(ctx context.Context, f Form) (domain.Step, error) {
	if errs := f.Validate(); errs != nil {
		return domain.StepCheckout, apperr.Invalid(errs)
	}

	raw, err := json.Marshal(f.Draft())
	if err != nil {
		return domain.StepCheckout, &apperr.Error{Kind: apperr.Internal, Err: err}
	}
	if err := c.storage.Set(ctx, storage.KeyCheckoutForm, raw); err != nil {
		c.log.ErrorContext(ctx, "failed to save checkout draft", "error", err)
		return domain.StepCheckout, &apperr.Error{Kind: apperr.Internal, Message: "Unable to save your checkout details. Please try again.", Err: err}
	}
	c.publish()
	return domain.StepReview, nil
}

// Draft returns the saved draft. Absent or unreadable drafts report false.
func (c *Collector) Draft(ctx context.Context) (domain.CheckoutDraft, bool) {
	raw, err := c.storage.Get(ctx, storage.KeyCheckoutForm)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.log.ErrorContext(ctx, "failed to load checkout draft", "error", err)
		}
		return domain.CheckoutDraft{}, false
	}
	var d domain.CheckoutDraft
	if err := json.Unmarshal(raw, &d); err != nil {
		c.log.WarnContext(ctx, "discarding unreadable checkout draft", "error", err)
		return domain.CheckoutDraft{}, false
	}
	return d, true
}

func (c *Collector) Discard(ctx context.Context) {
	if err := c.storage.Delete(ctx, storage.KeyCheckoutForm); err != nil {
		c.log.ErrorContext(ctx, "failed to remove checkout draft", "error", err)
		return
	}
	c.publish()
}

func (c *Collector) publish() {
	c.bus.Publish(events.Event{Kind: events.DraftChanged, SessionID: c.sessionID, Key: storage.KeyCheckoutForm})
}

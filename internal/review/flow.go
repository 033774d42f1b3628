package review

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Hassan5123/roast-direct/internal/apperr"
	"github.com/Hassan5123/roast-direct/internal/catalog"
	"github.com/Hassan5123/roast-direct/internal/checkout"
	"github.com/Hassan5123/roast-direct/internal/domain"
	"github.com/Hassan5123/roast-direct/internal/events"
)

const (
	MissingInfoMessage = "Missing order information. Please go back to checkout."
	PlacedMessage      = "Order placed successfully! Redirecting to orders page..."

	totalsFailedMessage = "Failed to calculate order totals. Please try again."
	placeFailedMessage  = "Failed to place order. Please try again."
)

const DefaultRedirectDelay = time.Second

type API interface {
	FinalTotal(ctx context.Context, req catalog.FinalTotalRequest) (domain.OrderDetails, error)
	PlaceOrder(ctx context.Context, req catalog.PlaceOrderRequest) (domain.PlacedOrder, error)
}

type Cart interface {
	Items() []domain.CartItem
	Total() float64
	IsEmpty() bool
	Clear(ctx context.Context)
}

type Drafts interface {
	Draft(ctx context.Context) (domain.CheckoutDraft, bool)
	Discard(ctx context.Context)
}

// Outcome is what the review page shows after an action.
type Outcome struct {
	Step                domain.Step          `json:"step"`
	Redirect            domain.Step          `json:"redirect,omitempty"`
	RedirectAfter       time.Duration        `json:"-"`
	ProvisionalSubtotal float64              `json:"provisional_subtotal,omitempty"`
	Totals              *domain.OrderDetails `json:"totals,omitempty"`
	Order               *domain.PlacedOrder  `json:"order,omitempty"`
	Message             string               `json:"message,omitempty"`
	Error               string               `json:"error,omitempty"`
}

// Flow is one shopper's pass through review and placement. Confirmed totals
// live only here and are dropped whenever the cart or draft changes.
type Flow struct {
	sessionID     string
	api           API
	cart          Cart
	drafts        Drafts
	log           *slog.Logger
	redirectDelay time.Duration

	// placeMu serialises placements; mu guards the fields below. Neither is
	// held by event handlers while a backend call is in flight.
	placeMu sync.Mutex
	mu      sync.Mutex
	step    domain.Step
	totals  *domain.OrderDetails
	gen     uint64
}

func NewFlow(sessionID string, api API, cart Cart, drafts Drafts, redirectDelay time.Duration, log *slog.Logger) *Flow {
	if redirectDelay <= 0 {
		redirectDelay = DefaultRedirectDelay
	}
	return &Flow{
		sessionID:     sessionID,
		api:           api,
		cart:          cart,
		drafts:        drafts,
		redirectDelay: redirectDelay,
		log:           log.With("component", "review", "session_id", sessionID),
		step:          domain.StepCart,
	}
}

func (f *Flow) Step() domain.Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Totals returns the confirmed totals, if any.
func (f *Flow) Totals() (domain.OrderDetails, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.totals == nil {
		return domain.OrderDetails{}, false
	}
	return *f.totals, true
}

// Watch drops confirmed totals when this session's cart or draft changes.
func (f *Flow) Watch(bus events.Bus) func() {
	return bus.Subscribe(func(e events.Event) {
		if e.SessionID != f.sessionID {
			return
		}
		switch e.Kind {
		case events.CartChanged, events.DraftChanged, events.AuthExpired:
			f.invalidate()
		}
	})
}

func (f *Flow) invalidate() {
	f.mu.Lock()
	f.totals = nil
	f.gen++
	f.mu.Unlock()
}

// Enter loads the draft and asks the backend for the authoritative totals.
// A backend 401 is returned as an error; other failures are reported in the
// outcome and leave placement blocked.
func (f *Flow) Enter(ctx context.Context, authenticated bool) (Outcome, error) {
	if redirect, ok := checkout.EntryGuard(authenticated, f.cart.IsEmpty()); !ok {
		return f.redirect(redirect), nil
	}

	draft, ok := f.drafts.Draft(ctx)
	if !ok {
		return f.redirect(domain.StepCheckout), nil
	}

	subtotal := f.cart.Total()

	f.mu.Lock()
	f.moveTo(domain.StepReview)
	f.totals = nil
	f.gen++
	gen := f.gen
	f.mu.Unlock()

	out := Outcome{Step: domain.StepReview, ProvisionalSubtotal: subtotal}
	totals, err := f.api.FinalTotal(ctx, finalTotalRequest(subtotal, draft))
	if err != nil {
		if apperr.IsUnauthorized(err) {
			return out, err
		}
		f.log.WarnContext(ctx, "final total calculation failed", "error", err)
		out.Error = userMessage(err, totalsFailedMessage, true)
		return out, nil
	}

	f.mu.Lock()
	// a change that arrived during the call leaves placement blocked
	if f.gen == gen {
		f.totals = &totals
	}
	f.mu.Unlock()

	out.Totals = &totals
	return out, nil
}

// Place submits the order at the confirmed final total. On success the cart
// and draft are cleared and the shopper is sent to the orders page after the
// redirect delay; on failure both are left intact.
func (f *Flow) Place(ctx context.Context, authenticated bool) (Outcome, error) {
	if redirect, ok := checkout.EntryGuard(authenticated, f.cart.IsEmpty()); !ok {
		return f.redirect(redirect), nil
	}

	f.placeMu.Lock()
	defer f.placeMu.Unlock()

	totals, confirmed := f.Totals()
	draft, ok := f.drafts.Draft(ctx)
	if !ok || !confirmed {
		return Outcome{Step: domain.StepReview, Error: MissingInfoMessage}, nil
	}
	out := Outcome{Step: domain.StepReview, Totals: &totals}

	items := f.cart.Items()
	req := catalog.PlaceOrderRequest{
		Items:           make([]domain.OrderItem, 0, len(items)),
		ShippingAddress: draft.Shipping,
		FinalTotal:      totals.FinalTotal,
	}
	for _, it := range items {
		req.Items = append(req.Items, domain.OrderItem{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			PriceAtTime: it.Price,
			GrindOption: domain.GrindOrDefault(it.GrindOption),
		})
	}

	placed, err := f.api.PlaceOrder(ctx, req)
	if err != nil {
		if apperr.IsUnauthorized(err) {
			return out, err
		}
		f.log.WarnContext(ctx, "order placement failed", "error", err)
		out.Error = userMessage(err, placeFailedMessage, false)
		return out, nil
	}

	f.log.InfoContext(ctx, "order placed", "order_id", placed.OrderID, "order_number", placed.OrderNumber)
	f.invalidate()
	f.cart.Clear(ctx)
	f.drafts.Discard(ctx)

	f.mu.Lock()
	f.moveTo(domain.StepPlaced)
	f.mu.Unlock()

	return Outcome{
		Step:          domain.StepPlaced,
		Redirect:      domain.StepOrders,
		RedirectAfter: f.redirectDelay,
		Order:         &placed,
		Message:       PlacedMessage,
	}, nil
}

func (f *Flow) redirect(to domain.Step) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moveTo(to)
	return Outcome{Step: to, Redirect: to}
}

// moveTo must be called with mu held.
func (f *Flow) moveTo(to domain.Step) {
	if f.step == to {
		return
	}
	if !domain.CanTransitionTo(f.step, to) {
		f.log.Debug("unexpected step transition", "from", f.step, "to", to)
	}
	f.step = to
}

func finalTotalRequest(subtotal float64, d domain.CheckoutDraft) catalog.FinalTotalRequest {
	return catalog.FinalTotalRequest{
		Subtotal:        subtotal,
		CardNumber:      strings.Join(strings.Fields(d.Card.Number), ""),
		CardholderName:  d.Card.HolderName,
		CVC:             d.Card.CVC,
		ExpMonth:        atoi(d.Card.ExpMonth),
		ExpYear:         fullYear(d.Card.ExpYear),
		ShippingAddress: d.Shipping,
		BillingAddress:  d.Billing.Resolve(d.Shipping),
	}
}

// fullYear turns a two-digit expiry year into 20YY.
func fullYear(s string) int {
	y := atoi(s)
	if y < 100 {
		y += 2000
	}
	return y
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func userMessage(err error, fallback string, withDetails bool) string {
	ae, ok := apperr.As(err)
	if !ok || ae.Message == "" {
		return fallback
	}
	if withDetails {
		return ae.UserMessage()
	}
	return ae.Message
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Hassan5123/roast-direct/internal/checkout"
	"github.com/Hassan5123/roast-direct/internal/domain"
)

type SubtotalEstimator interface {
	Estimate(ctx context.Context, items []domain.CartItem) (checkout.Estimate, error)
}

type CheckoutHandler struct {
	sessionHandler
	estimator SubtotalEstimator
}

func NewCheckoutHandler(sessions Sessions, estimator SubtotalEstimator, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		sessionHandler: sessionHandler{sessions: sessions, timeout: timeout},
		estimator:      estimator,
	}
}

type CheckoutResponseDTO struct {
	Step     domain.Step       `json:"step"`
	Items    []domain.CartItem `json:"items"`
	Estimate checkout.Estimate `json:"estimate"`
	// Form is prefilled from a previously submitted draft.
	Form *checkout.Form `json:"form,omitempty"`
}

// GET /api/v1/checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	if redirect, ok := checkout.EntryGuard(sess.Auth.IsAuthenticated(ctx), sess.Cart.IsEmpty()); !ok {
		respondJSON(w, http.StatusOK, RedirectResponse{Redirect: redirect})
		return
	}

	items := sess.Cart.Items()
	est, err := h.estimator.Estimate(ctx, items)
	if err != nil {
		handleError(w, err)
		return
	}

	resp := CheckoutResponseDTO{Step: domain.StepCheckout, Items: items, Estimate: est}
	if d, ok := sess.Checkout.Draft(ctx); ok {
		f := checkout.FormFromDraft(d)
		resp.Form = &f
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	if redirect, ok := checkout.EntryGuard(sess.Auth.IsAuthenticated(ctx), sess.Cart.IsEmpty()); !ok {
		respondJSON(w, http.StatusOK, RedirectResponse{Redirect: redirect})
		return
	}

	var form checkout.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	next, err := sess.Checkout.Submit(ctx, form)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, RedirectResponse{Redirect: next})
}

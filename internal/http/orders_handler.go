package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Hassan5123/roast-direct/internal/domain"
	"github.com/Hassan5123/roast-direct/internal/orders"
)

type OrderHistory interface {
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	Cancel(ctx context.Context, id string) (domain.Order, error)
}

type OrdersHandler struct {
	sessionHandler
	orders OrderHistory
}

func NewOrdersHandler(sessions Sessions, history OrderHistory, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		sessionHandler: sessionHandler{sessions: sessions, timeout: timeout},
		orders:         history,
	}
}

type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

type OrderResponse struct {
	Order   domain.Order `json:"order"`
	Message string       `json:"message,omitempty"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	if !sess.Auth.IsAuthenticated(ctx) {
		respondLogin(w, loginRequiredMessage)
		return
	}

	list, err := h.orders.List(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, OrdersResponse{Orders: list})
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	if !sess.Auth.IsAuthenticated(ctx) {
		respondLogin(w, loginRequiredMessage)
		return
	}

	order, err := h.orders.Get(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, OrderResponse{Order: order})
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	if !sess.Auth.IsAuthenticated(ctx) {
		respondLogin(w, loginRequiredMessage)
		return
	}

	order, err := h.orders.Cancel(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, OrderResponse{Order: order, Message: orders.CanceledMessage})
}

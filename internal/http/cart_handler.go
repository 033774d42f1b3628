package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Hassan5123/roast-direct/internal/cart"
	"github.com/Hassan5123/roast-direct/internal/domain"
	"github.com/Hassan5123/roast-direct/internal/inventory"
	"github.com/Hassan5123/roast-direct/internal/storefront"
)

const (
	loginRequiredMessage = "Please log in to continue."
	addLoginMessage      = "You need to login to add items to cart"
	addedMessage         = "Added to cart!"
)

// Inventory checks cart lines against product stock.
type Inventory interface {
	Reconcile(ctx context.Context, authenticated bool, items []domain.CartItem) inventory.Report
	PrepareAdd(ctx context.Context, inCart []domain.CartItem, productID, grindOption string, quantity int) (domain.CartItem, error)
}

type CartHandler struct {
	sessionHandler
	inventory Inventory
}

func NewCartHandler(sessions Sessions, inv Inventory, timeout time.Duration) *CartHandler {
	return &CartHandler{
		sessionHandler: sessionHandler{sessions: sessions, timeout: timeout},
		inventory:      inv,
	}
}

type AddItemRequestDTO struct {
	ProductID   string `json:"product_id"`
	GrindOption string `json:"grind_option"`
	Quantity    int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	GrindOption string `json:"grind_option"`
	Quantity    int    `json:"quantity"`
}

type CartResponse struct {
	Items     []domain.CartItem `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"item_count"`
	Inventory *inventory.Report `json:"inventory,omitempty"`
	// CanIncrease is keyed by "productId-grindOption".
	CanIncrease map[string]bool `json:"can_increase,omitempty"`
	Message     string          `json:"message,omitempty"`
}

func cartResponse(sess *storefront.Session) CartResponse {
	return CartResponse{
		Items:     sess.Cart.Items(),
		Total:     sess.Cart.Total(),
		ItemCount: sess.Cart.ItemCount(),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	if !sess.Auth.IsAuthenticated(ctx) {
		respondLogin(w, loginRequiredMessage)
		return
	}

	resp := cartResponse(sess)
	rep := h.inventory.Reconcile(ctx, true, resp.Items)
	resp.Inventory = &rep
	resp.CanIncrease = make(map[string]bool, len(resp.Items))
	for _, it := range resp.Items {
		resp.CanIncrease[it.Key().String()] = rep.CanIncrease(it)
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	if !sess.Auth.IsAuthenticated(ctx) {
		respondLogin(w, addLoginMessage)
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	item, err := h.inventory.PrepareAdd(ctx, sess.Cart.Items(), req.ProductID, req.GrindOption, req.Quantity)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := sess.Cart.Add(ctx, item); err != nil {
		respondCartError(w, err)
		return
	}

	resp := cartResponse(sess)
	resp.Message = addedMessage
	respondJSON(w, http.StatusCreated, resp)
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	if !sess.Auth.IsAuthenticated(ctx) {
		respondLogin(w, loginRequiredMessage)
		return
	}

	productID := chi.URLParam(r, "product_id")
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	item, ok := findLine(sess.Cart.Items(), productID, req.GrindOption)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "item is not in the cart")
		return
	}

	rep := h.inventory.Reconcile(ctx, true, []domain.CartItem{item})
	if key, msg, ok := rep.CheckQuantity(item, req.Quantity); !ok {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  msg,
			Code:   "invalid_quantity",
			Errors: map[string]string{key: msg},
		})
		return
	}

	sess.Cart.UpdateQuantity(ctx, productID, req.GrindOption, req.Quantity)
	respondJSON(w, http.StatusOK, cartResponse(sess))
}

// DELETE /api/v1/cart/items/{product_id}?grind=...
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	if !sess.Auth.IsAuthenticated(ctx) {
		respondLogin(w, loginRequiredMessage)
		return
	}

	sess.Cart.Remove(ctx, chi.URLParam(r, "product_id"), r.URL.Query().Get("grind"))
	respondJSON(w, http.StatusOK, cartResponse(sess))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	if !sess.Auth.IsAuthenticated(ctx) {
		respondLogin(w, loginRequiredMessage)
		return
	}

	sess.Cart.Clear(ctx)
	respondJSON(w, http.StatusOK, cartResponse(sess))
}

func findLine(items []domain.CartItem, productID, grindOption string) (domain.CartItem, bool) {
	key := domain.LineKey{ProductID: productID, GrindOption: grindOption}
	for _, it := range items {
		if it.Key() == key {
			return it, true
		}
	}
	return domain.CartItem{}, false
}

func respondCartError(w http.ResponseWriter, err error) {
	if errors.Is(err, cart.ErrInvalidQuantity) {
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "internal_error", "failed to update cart")
}

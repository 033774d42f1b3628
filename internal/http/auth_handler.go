package http

import (
	"net/http"
	"time"

	"github.com/Hassan5123/roast-direct/internal/domain"
)

type AuthHandler struct {
	sessionHandler
}

func NewAuthHandler(sessions Sessions, timeout time.Duration) *AuthHandler {
	return &AuthHandler{sessionHandler{sessions: sessions, timeout: timeout}}
}

type AuthResponse struct {
	User     domain.User `json:"user"`
	Redirect domain.Step `json:"redirect"`
}

type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	CartCount     int          `json:"cart_count"`
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	var req domain.Credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := sess.Auth.Login(ctx, req)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, AuthResponse{User: user, Redirect: domain.StepProducts})
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	var req domain.Registration
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := sess.Auth.Register(ctx, req)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, AuthResponse{User: user, Redirect: domain.StepProducts})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	sess.Auth.Logout(ctx)
	respondJSON(w, http.StatusOK, RedirectResponse{Redirect: domain.StepLogin})
}

// GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	resp := SessionResponse{
		Authenticated: sess.Auth.IsAuthenticated(ctx),
		CartCount:     sess.Cart.ItemCount(),
	}
	if resp.Authenticated {
		if u, ok := sess.Auth.User(ctx); ok {
			resp.User = &u
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

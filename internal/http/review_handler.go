package http

import (
	"net/http"
	"time"

	"github.com/Hassan5123/roast-direct/internal/review"
)

type ReviewHandler struct {
	sessionHandler
}

func NewReviewHandler(sessions Sessions, timeout time.Duration) *ReviewHandler {
	return &ReviewHandler{sessionHandler{sessions: sessions, timeout: timeout}}
}

// ReviewResponse adds the redirect delay in milliseconds to the outcome.
type ReviewResponse struct {
	review.Outcome
	RedirectAfterMS int64 `json:"redirect_after_ms,omitempty"`
}

// GET /api/v1/review
func (h *ReviewHandler) Enter(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	out, err := sess.Review.Enter(ctx, sess.Auth.IsAuthenticated(ctx))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ReviewResponse{Outcome: out})
}

// POST /api/v1/review/place
func (h *ReviewHandler) Place(w http.ResponseWriter, r *http.Request) {
	ctx, sess, cancel := h.begin(r)
	defer cancel()

	out, err := sess.Review.Place(ctx, sess.Auth.IsAuthenticated(ctx))
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusOK
	if out.Order != nil {
		status = http.StatusCreated
	}
	respondJSON(w, status, ReviewResponse{
		Outcome:         out,
		RedirectAfterMS: out.RedirectAfter.Milliseconds(),
	})
}

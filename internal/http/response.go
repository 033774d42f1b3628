package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Hassan5123/roast-direct/internal/apperr"
	"github.com/Hassan5123/roast-direct/internal/domain"
)

type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code,omitempty"`
	Details  string            `json:"details,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Redirect domain.Step       `json:"redirect,omitempty"`
}

// RedirectResponse tells the client which step to show next.
type RedirectResponse struct {
	Redirect domain.Step `json:"redirect"`
	Message  string      `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondLogin answers 401 and sends the shopper to the login step.
func respondLogin(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:    message,
		Code:     "unauthorized",
		Redirect: domain.StepLogin,
	})
}

// handleError converts a service error into its HTTP answer. A 401 from the
// backend always redirects to login.
func handleError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	resp := ErrorResponse{
		Error: apperr.Message(err),
		Code:  errorCode(err),
	}
	if ae, ok := apperr.As(err); ok {
		resp.Errors = ae.Fields
	}
	if status == http.StatusUnauthorized {
		resp.Redirect = domain.StepLogin
	}
	respondJSON(w, status, resp)
}

func errorCode(err error) string {
	switch apperr.KindOf(err) {
	case apperr.Validation:
		return "invalid_argument"
	case apperr.Network:
		return "service_unavailable"
	case apperr.Unauthorized:
		return "unauthenticated"
	case apperr.Forbidden:
		return "permission_denied"
	case apperr.NotFound:
		return "not_found"
	case apperr.Business:
		return "rejected"
	default:
		return "internal_error"
	}
}

// decodeJSON reads the request body into dst, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
	case errors.Is(err, io.EOF):
		respondError(w, http.StatusBadRequest, "invalid_request", "request body is empty")
	default:
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
	}
	return false
}

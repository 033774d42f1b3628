package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	Validation   Kind = "validation"
	Network      Kind = "network"
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	NotFound     Kind = "not_found"
	Business     Kind = "business"
	Internal     Kind = "internal"
)

// Error is a backend or local failure classified for the shopper.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Details []string
	// Fields holds per-field messages of a rejected form.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the message shown to the shopper, with any server-supplied
// details appended as "msg (d1, d2)".
func (e *Error) UserMessage() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessage(e.Kind)
	}
	if len(e.Details) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(e.Details, ", "))
	}
	return msg
}

func defaultMessage(k Kind) string {
	switch k {
	case Network:
		return "Unable to reach the store. Please check your connection and try again."
	case Unauthorized:
		return "Your session has expired. Please log in again."
	case Forbidden:
		return "You do not have permission to perform this action."
	case NotFound:
		return "The requested resource was not found."
	default:
		return "Something went wrong. Please try again."
	}
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Invalid reports a form rejected before anything was sent.
func Invalid(fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: "Please correct the highlighted fields.", Fields: fields}
}

func NetworkErr(err error) *Error {
	return &Error{Kind: Network, Err: err}
}

// FromStatus classifies an HTTP error response.
func FromStatus(status int, msg string, details []string) *Error {
	return &Error{Kind: KindForStatus(status), Status: status, Message: msg, Details: details}
}

func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return Unauthorized
	case status == http.StatusForbidden:
		return Forbidden
	case status == http.StatusNotFound:
		return NotFound
	case status >= 500:
		return Internal
	case status >= 400:
		return Business
	default:
		return Internal
	}
}

func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return Internal
}

func IsUnauthorized(err error) bool {
	return err != nil && KindOf(err) == Unauthorized
}

// Message returns the shopper-facing text for any error.
func Message(err error) string {
	if ae, ok := As(err); ok {
		return ae.UserMessage()
	}
	return defaultMessage(Internal)
}

// HTTPStatus maps an error to the status the gateway answers with.
func HTTPStatus(err error) int {
	ae, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case Validation:
		return http.StatusBadRequest
	case Network:
		return http.StatusBadGateway
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Business:
		if ae.Status != 0 {
			return ae.Status
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

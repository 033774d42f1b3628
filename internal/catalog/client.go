package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Hassan5123/roast-direct/internal/apperr"
	"github.com/Hassan5123/roast-direct/pkg/circuitbreaker"
)

// Client talks to the Roast Direct backend API.
type Client struct {
	baseURL        string
	http           *http.Client
	breaker        *gobreaker.CircuitBreaker[response]
	log            *slog.Logger
	onUnauthorized func(ctx context.Context)
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithBreaker(cfg circuitbreaker.Config) Option {
	return func(cl *Client) {
		cl.breaker = circuitbreaker.New[response](cfg, cl.log, isSuccessful)
	}
}

// WithUnauthorizedHook registers fn to run whenever the backend answers 401 to
// a call that carried a bearer token.
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(cl *Client) { cl.onUnauthorized = fn }
}

func New(baseURL string, timeout time.Duration, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log.With("component", "catalog_client"),
	}
	c.breaker = circuitbreaker.New[response](circuitbreaker.DefaultConfig("backend-api"), c.log, isSuccessful)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenKey struct{}

// WithToken attaches the bearer token used by authenticated calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type response struct {
	status int
	body   []byte
}

var errUpstream = errors.New("backend unavailable")

// only transport failures and 5xx answers trip the breaker
func isSuccessful(err error) bool {
	return err == nil || !(errors.Is(err, errUpstream) || isTransport(err))
}

type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransport(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}

type errorBody struct {
	Error         string   `json:"error"`
	Message       string   `json:"message"`
	Details       []string `json:"details"`
	MissingFields []string `json:"missing_fields"`
}

// do sends the request and decodes a 2xx body into out. Every other outcome
// is returned as *apperr.Error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return &apperr.Error{Kind: apperr.Internal, Message: "failed to encode request", Err: err}
		}
		body = bytes.NewReader(raw)
	}

	resp, err := c.breaker.Execute(func() (response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return response{}, err
		}
		req.Header.Set("Accept", "application/json")
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := TokenFrom(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return response{}, &transportError{err}
		}
		defer httpResp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
		if err != nil {
			return response{}, &transportError{err}
		}
		r := response{status: httpResp.StatusCode, body: raw}
		if r.status >= 500 {
			return r, errUpstream
		}
		return r, nil
	})

	switch {
	case circuitbreaker.IsOpen(err):
		c.log.WarnContext(ctx, "backend call rejected by breaker", "method", method, "path", path)
		return apperr.NetworkErr(err)
	case isTransport(err):
		c.log.ErrorContext(ctx, "backend call failed", "method", method, "path", path, "error", err)
		return apperr.NetworkErr(err)
	case err != nil && !errors.Is(err, errUpstream):
		return &apperr.Error{Kind: apperr.Internal, Err: err}
	}

	if resp.status < 200 || resp.status >= 300 {
		appErr := decodeError(resp)
		// a 401 to an anonymous call (login, register) is a rejected
		// credential, not an expired session
		if appErr.Kind == apperr.Unauthorized && c.onUnauthorized != nil && TokenFrom(ctx) != "" {
			c.onUnauthorized(ctx)
		}
		c.log.InfoContext(ctx, "backend call rejected", "method", method, "path", path, "status", resp.status, "error", appErr.Message)
		return appErr
	}

	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &apperr.Error{Kind: apperr.Internal, Status: resp.status, Message: "unexpected response from server", Err: err}
	}
	return nil
}

func decodeError(r response) *apperr.Error {
	var eb errorBody
	if err := json.Unmarshal(r.body, &eb); err != nil {
		return apperr.FromStatus(r.status, "", nil)
	}
	msg := eb.Error
	if msg == "" {
		msg = eb.Message
	}
	details := eb.Details
	if len(details) == 0 {
		details = eb.MissingFields
	}
	return apperr.FromStatus(r.status, msg, details)
}

func pathID(format, id string) string {
	return fmt.Sprintf(format, url.PathEscape(id))
}

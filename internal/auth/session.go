package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Hassan5123/roast-direct/internal/apperr"
	"github.com/Hassan5123/roast-direct/internal/catalog"
	"github.com/Hassan5123/roast-direct/internal/domain"
	"github.com/Hassan5123/roast-direct/internal/events"
	"github.com/Hassan5123/roast-direct/internal/storage"
	"github.com/Hassan5123/roast-direct/internal/validation"
)

const authFlagValue = "true"

// API is the part of the backend client used for authentication.
type API interface {
	Login(ctx context.Context, creds domain.Credentials) (catalog.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (catalog.AuthResult, error)
}

// Session is the authentication state of one shopper session.
type Session struct {
	id      string
	storage storage.Store
	api     API
	bus     events.Bus
	log     *slog.Logger
	now     func() time.Time
}

func NewSession(id string, st storage.Store, api API, bus events.Bus, log *slog.Logger) *Session {
	if bus == nil {
		bus = events.Nop{}
	}
	return &Session{
		id:      id,
		storage: st,
		api:     api,
		bus:     bus,
		log:     log.With("component", "auth", "session_id", id),
		now:     time.Now,
	}
}

type loginForm struct {
	Email    string `form:"email" label:"Email" validate:"notblank"`
	Password string `form:"password" label:"Password" validate:"required"`
}

type registerForm struct {
	FirstName string `form:"first_name" label:"First name" validate:"notblank"`
	LastName  string `form:"last_name" label:"Last name" validate:"notblank"`
	Email     string `form:"email" label:"Email" validate:"notblank,email"`
	Password  string `form:"password" label:"Password" validate:"required,min=8"`
}

// Login authenticates against the backend and stores the returned token.
func (s *Session) Login(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if fields := validation.Struct(loginForm{Email: creds.Email, Password: creds.Password}); fields != nil {
		return domain.User{}, apperr.Invalid(fields)
	}

	res, err := s.api.Login(anonymous(ctx), creds)
	if err != nil {
		if apperr.KindOf(err) == apperr.Network {
			return domain.User{}, err
		}
		s.log.InfoContext(ctx, "login rejected", "error", err)
		return domain.User{}, &apperr.Error{
			Kind:    apperr.Unauthorized,
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password. Please try again.",
			Err:     err,
		}
	}

	if err := s.store(ctx, res); err != nil {
		return domain.User{}, err
	}
	return res.User, nil
}

// Register creates an account and signs the new user in.
func (s *Session) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	form := registerForm{FirstName: reg.FirstName, LastName: reg.LastName, Email: reg.Email, Password: reg.Password}
	if fields := validation.Struct(form); fields != nil {
		return domain.User{}, apperr.Invalid(fields)
	}

	res, err := s.api.Register(anonymous(ctx), reg)
	if err != nil {
		return domain.User{}, registerError(err)
	}

	if err := s.store(ctx, res); err != nil {
		return domain.User{}, err
	}
	return res.User, nil
}

// anonymous drops any bearer token from ctx. Credential exchanges never send
// the current session's token, so a rejection there cannot expire it.
func anonymous(ctx context.Context) context.Context {
	return catalog.WithToken(ctx, "")
}

func registerError(err error) error {
	ae, ok := apperr.As(err)
	if !ok || ae.Kind == apperr.Network {
		return err
	}
	msg := ae.Message
	switch ae.Status {
	case http.StatusConflict:
		msg = "An account with this email already exists. Please use a different email or try logging in."
	case http.StatusBadRequest:
		msg = "Please check your information and try again. All fields are required."
	case http.StatusNotFound:
		msg = "The registration service is currently unavailable. Please try again later."
	}
	if msg == "" {
		msg = "Unable to create account. Please try again later."
	}
	return &apperr.Error{Kind: ae.Kind, Status: ae.Status, Message: msg, Err: err}
}

func (s *Session) store(ctx context.Context, res catalog.AuthResult) error {
	if res.Token == "" {
		return &apperr.Error{Kind: apperr.Internal, Message: "Login succeeded but no token was returned."}
	}
	user, err := json.Marshal(res.User)
	if err != nil {
		return &apperr.Error{Kind: apperr.Internal, Err: err}
	}

	for _, kv := range []struct {
		key   string
		value []byte
	}{
		{storage.KeyAuthToken, []byte(res.Token)},
		{storage.KeyUserData, user},
		{storage.KeyAuthFlag, []byte(authFlagValue)},
	} {
		if err := s.storage.Set(ctx, kv.key, kv.value); err != nil {
			s.log.ErrorContext(ctx, "failed to store auth state", "key", kv.key, "error", err)
			return &apperr.Error{Kind: apperr.Internal, Message: "Unable to save your session. Please try again.", Err: err}
		}
	}

	s.publish(events.AuthChanged, storage.KeyAuthFlag)
	return nil
}

// Logout forgets the session's credentials and any checkout draft.
func (s *Session) Logout(ctx context.Context) {
	s.clear(ctx)
	s.publish(events.AuthChanged, storage.KeyAuthFlag)
}

// Expire is called when the backend rejected the stored token.
func (s *Session) Expire(ctx context.Context) {
	s.log.InfoContext(ctx, "session expired")
	s.clear(ctx)
	s.publish(events.AuthExpired, storage.KeyAuthToken)
}

func (s *Session) clear(ctx context.Context) {
	for _, key := range []string{storage.KeyAuthFlag, storage.KeyAuthToken, storage.KeyUserData, storage.KeyCheckoutForm} {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.log.ErrorContext(ctx, "failed to remove auth state", "key", key, "error", err)
		}
	}
}

// IsAuthenticated reports whether the session holds a usable token. A JWT
// whose exp has passed expires the session without a backend round-trip.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	flag, err := s.storage.Get(ctx, storage.KeyAuthFlag)
	if err != nil || string(flag) != authFlagValue {
		return false
	}
	token := s.Token(ctx)
	if token == "" {
		return false
	}
	if tokenExpired(token, s.now()) {
		s.Expire(ctx)
		return false
	}
	return true
}

// Token returns the stored bearer token, or "" when there is none.
func (s *Session) Token(ctx context.Context) string {
	raw, err := s.storage.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.ErrorContext(ctx, "failed to read token", "error", err)
		}
		return ""
	}
	return string(raw)
}

// User returns the signed-in user as stored at login.
func (s *Session) User(ctx context.Context) (domain.User, bool) {
	raw, err := s.storage.Get(ctx, storage.KeyUserData)
	if err != nil {
		return domain.User{}, false
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		s.log.WarnContext(ctx, "failed to parse stored user", "error", err)
		return domain.User{}, false
	}
	return u, true
}

// Context returns ctx carrying the session's bearer token for backend calls.
func (s *Session) Context(ctx context.Context) context.Context {
	return catalog.WithToken(ctx, s.Token(ctx))
}

func (s *Session) publish(kind events.Kind, key string) {
	s.bus.Publish(events.Event{Kind: kind, SessionID: s.id, Key: key})
}

// tokenExpired inspects exp without verifying the signature; the backend
// stays the authority on validity. Tokens that are not JWTs never expire here.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

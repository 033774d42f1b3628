package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hassan5123/roast-direct/internal/apperr"
	"github.com/Hassan5123/roast-direct/internal/catalog"
	"github.com/Hassan5123/roast-direct/internal/domain"
	"github.com/Hassan5123/roast-direct/internal/events"
	"github.com/Hassan5123/roast-direct/internal/storage"
	"github.com/Hassan5123/roast-direct/pkg/logger"
)

type fakeAPI struct {
	result   catalog.AuthResult
	err      error
	gotCreds domain.Credentials
	gotReg   domain.Registration
	gotToken string
	calls    int
}

func (f *fakeAPI) Login(ctx context.Context, creds domain.Credentials) (catalog.AuthResult, error) {
	f.calls++
	f.gotCreds = creds
	f.gotToken = catalog.TokenFrom(ctx)
	return f.result, f.err
}

func (f *fakeAPI) Register(ctx context.Context, reg domain.Registration) (catalog.AuthResult, error) {
	f.calls++
	f.gotReg = reg
	f.gotToken = catalog.TokenFrom(ctx)
	return f.result, f.err
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newTestSession(t *testing.T, api *fakeAPI) (*Session, storage.Store, *[]events.Event) {
	t.Helper()
	st := storage.NewMemoryStore()
	bus := events.NewLocal()
	var got []events.Event
	bus.Subscribe(func(e events.Event) { got = append(got, e) })
	return NewSession("s1", st, api, bus, logger.Nop()), st, &got
}

func TestLogin_StoresCredentials(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	api := &fakeAPI{result: catalog.AuthResult{Token: token, User: domain.User{ID: "u1", Email: "ada@example.com"}}}
	s, st, got := newTestSession(t, api)
	ctx := context.Background()

	user, err := s.Login(ctx, domain.Credentials{Email: "  ada@example.com ", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "ada@example.com", api.gotCreds.Email)
	assert.True(t, s.IsAuthenticated(ctx))
	assert.Equal(t, token, s.Token(ctx))

	flag, err := st.Get(ctx, storage.KeyAuthFlag)
	require.NoError(t, err)
	assert.Equal(t, "true", string(flag))

	stored, ok := s.User(ctx)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", stored.Email)

	require.Len(t, *got, 1)
	assert.Equal(t, events.AuthChanged, (*got)[0].Kind)
}

func TestLogin_ValidationSkipsBackend(t *testing.T) {
	api := &fakeAPI{}
	s, _, _ := newTestSession(t, api)

	_, err := s.Login(context.Background(), domain.Credentials{Email: "   "})

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Validation, ae.Kind)
	assert.Equal(t, map[string]string{
		"email":    "Email is required",
		"password": "Password is required",
	}, ae.Fields)
	assert.Zero(t, api.calls)
}

func TestLogin_RejectedCredentials(t *testing.T) {
	api := &fakeAPI{err: apperr.FromStatus(http.StatusUnauthorized, "Invalid credentials", nil)}
	s, _, _ := newTestSession(t, api)
	ctx := context.Background()

	_, err := s.Login(ctx, domain.Credentials{Email: "a@b.co", Password: "wrong"})

	assert.Equal(t, "Invalid email or password. Please try again.", apperr.Message(err))
	assert.False(t, s.IsAuthenticated(ctx))
}

func TestLogin_NetworkErrorPassesThrough(t *testing.T) {
	api := &fakeAPI{err: apperr.NetworkErr(errors.New("connection refused"))}
	s, _, _ := newTestSession(t, api)

	_, err := s.Login(context.Background(), domain.Credentials{Email: "a@b.co", Password: "pw"})

	assert.Equal(t, apperr.Network, apperr.KindOf(err))
}

func TestRegister(t *testing.T) {
	api := &fakeAPI{result: catalog.AuthResult{Token: "opaque-token", User: domain.User{ID: "u2"}}}
	s, _, _ := newTestSession(t, api)
	ctx := context.Background()

	user, err := s.Register(ctx, domain.Registration{Email: "new@example.com", Password: "password1", FirstName: " Ada ", LastName: "Lovelace"})

	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)
	assert.Equal(t, "Ada", api.gotReg.FirstName)
	assert.True(t, s.IsAuthenticated(ctx))
}

func TestRegister_Validation(t *testing.T) {
	api := &fakeAPI{}
	s, _, _ := newTestSession(t, api)

	_, err := s.Register(context.Background(), domain.Registration{Email: "nope", Password: "short"})

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"first_name": "First name is required",
		"last_name":  "Last name is required",
		"email":      "Please enter a valid email address",
		"password":   "Password must be at least 8 characters long",
	}, ae.Fields)
	assert.Zero(t, api.calls)
}

func TestRegister_ConflictMessage(t *testing.T) {
	api := &fakeAPI{err: apperr.FromStatus(http.StatusConflict, "User already exists", nil)}
	s, _, _ := newTestSession(t, api)

	_, err := s.Register(context.Background(), domain.Registration{Email: "a@b.co", Password: "password1", FirstName: "A", LastName: "B"})

	assert.Equal(t, "An account with this email already exists. Please use a different email or try logging in.", apperr.Message(err))
}

func TestExpire_ClearsTokenAndDraft(t *testing.T) {
	api := &fakeAPI{result: catalog.AuthResult{Token: "opaque", User: domain.User{ID: "u1"}}}
	s, st, got := newTestSession(t, api)
	ctx := context.Background()
	_, err := s.Login(ctx, domain.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, storage.KeyCheckoutForm, []byte(`{}`)))
	require.NoError(t, st.Set(ctx, storage.KeyCart, []byte(`[]`)))

	s.Expire(ctx)

	assert.False(t, s.IsAuthenticated(ctx))
	assert.Empty(t, s.Token(ctx))
	_, err = st.Get(ctx, storage.KeyCheckoutForm)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	// the cart outlives the session
	_, err = st.Get(ctx, storage.KeyCart)
	assert.NoError(t, err)
	assert.Equal(t, events.AuthExpired, (*got)[len(*got)-1].Kind)
}

func TestLogout(t *testing.T) {
	api := &fakeAPI{result: catalog.AuthResult{Token: "opaque", User: domain.User{ID: "u1"}}}
	s, _, got := newTestSession(t, api)
	ctx := context.Background()
	_, err := s.Login(ctx, domain.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)

	s.Logout(ctx)

	assert.False(t, s.IsAuthenticated(ctx))
	_, ok := s.User(ctx)
	assert.False(t, ok)
	assert.Equal(t, events.AuthChanged, (*got)[len(*got)-1].Kind)
}

func TestIsAuthenticated_ExpiredJWT(t *testing.T) {
	api := &fakeAPI{result: catalog.AuthResult{Token: signedToken(t, time.Now().Add(-time.Minute)), User: domain.User{ID: "u1"}}}
	s, _, got := newTestSession(t, api)
	ctx := context.Background()
	_, err := s.Login(ctx, domain.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)

	assert.False(t, s.IsAuthenticated(ctx))
	assert.Empty(t, s.Token(ctx))
	assert.Equal(t, events.AuthExpired, (*got)[len(*got)-1].Kind)
}

func TestIsAuthenticated_FlagWithoutToken(t *testing.T) {
	s, st, _ := newTestSession(t, &fakeAPI{})
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, storage.KeyAuthFlag, []byte("true")))

	assert.False(t, s.IsAuthenticated(ctx))
}

func TestContext_CarriesToken(t *testing.T) {
	api := &fakeAPI{result: catalog.AuthResult{Token: "opaque", User: domain.User{ID: "u1"}}}
	s, _, _ := newTestSession(t, api)
	ctx := context.Background()
	_, err := s.Login(ctx, domain.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "opaque", catalog.TokenFrom(s.Context(ctx)))
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	assert.False(t, tokenExpired("not-a-jwt", now))
	assert.False(t, tokenExpired(signedToken(t, now.Add(time.Hour)), now))
	assert.True(t, tokenExpired(signedToken(t, now.Add(-time.Hour)), now))
}

func TestLogin_NeverSendsCurrentToken(t *testing.T) {
	api := &fakeAPI{result: catalog.AuthResult{Token: "opaque-token", User: domain.User{ID: "u1"}}}
	s, _, _ := newTestSession(t, api)
	ctx := context.Background()
	_, err := s.Login(ctx, domain.Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)

	api.err = apperr.FromStatus(http.StatusUnauthorized, "Invalid credentials", nil)
	_, err = s.Login(s.Context(ctx), domain.Credentials{Email: "ada@example.com", Password: "wrong"})

	require.Error(t, err)
	assert.Empty(t, api.gotToken)
	assert.True(t, s.IsAuthenticated(ctx))

	_, _ = s.Register(s.Context(ctx), domain.Registration{Email: "b@example.com", Password: "longenough", FirstName: "B", LastName: "C"})
	assert.Empty(t, api.gotToken)
}

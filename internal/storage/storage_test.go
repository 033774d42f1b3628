package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyCart, []byte(`[{"productId":"p1"}]`)))
	got, err := s.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"p1"}]`, string(got))

	require.NoError(t, s.Set(ctx, KeyCart, []byte(`[]`)))
	got, err = s.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, s.Delete(ctx, KeyCart))
	_, err = s.Get(ctx, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting an absent key is not an error
	assert.NoError(t, s.Delete(ctx, KeyCart))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	value := []byte("true")
	require.NoError(t, s.Set(ctx, KeyAuthFlag, value))
	value[0] = 'x'

	got, err := s.Get(ctx, KeyAuthFlag)
	require.NoError(t, err)
	assert.Equal(t, "true", string(got))
}

func TestNamespaced_IsolatesSessions(t *testing.T) {
	base := NewMemoryStore()
	ctx := context.Background()
	a := Namespaced(base, "a")
	b := Namespaced(base, "b")

	require.NoError(t, a.Set(ctx, KeyAuthToken, []byte("token-a")))

	_, err := b.Get(ctx, KeyAuthToken)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := a.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "token-a", string(got))

	raw, err := base.Get(ctx, "session:a:"+KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "token-a", string(raw))

	exerciseStore(t, b)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)
}

func TestSQLiteStore_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), KeyUserData, []byte(`{"id":"u1"}`)))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), KeyUserData)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1"}`, string(got))
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	res, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.Equal(t, "memory", res.Driver)
	assert.NoError(t, res.Close(ctx))

	res, err = Open(ctx, Config{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "s.db")})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", res.Driver)
	assert.NoError(t, res.Close(ctx))

	_, err = Open(ctx, Config{Driver: "dynamo"})
	assert.ErrorContains(t, err, "unknown STORAGE_DRIVER")
}

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStore(t *testing.T) {
	s, _ := setupTestRedis(t, 0)
	exerciseStore(t, s)
}

func TestRedisStore_KeyFormatAndTTL(t *testing.T) {
	s, mr := setupTestRedis(t, 30*time.Minute)

	require.NoError(t, s.Set(context.Background(), KeyCheckoutForm, []byte(`{}`)))

	assert.True(t, mr.Exists("storefront:checkoutFormData"))
	assert.Equal(t, 30*time.Minute, mr.TTL("storefront:checkoutFormData"))
}

func TestRedisStore_NoTTL(t *testing.T) {
	s, mr := setupTestRedis(t, 0)

	require.NoError(t, s.Set(context.Background(), KeyCart, []byte(`[]`)))

	assert.Equal(t, time.Duration(0), mr.TTL("storefront:roastDirectCart"))
}

func TestRedisStore_ServerDown(t *testing.T) {
	s, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := s.Get(context.Background(), KeyCart)
	assert.ErrorContains(t, err, "redis get failed")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisKey_Format(t *testing.T) {
	assert.Equal(t, "storefront:session:abc:authToken", redisKey("session:abc:authToken"))
}

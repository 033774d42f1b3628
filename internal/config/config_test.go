package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "API_BASE_URL", "STORAGE_DRIVER", "KAFKA_BROKERS", "REQUEST_TIMEOUT", "PLACE_REDIRECT_DELAY"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:5001", cfg.APIBaseURL)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Second, cfg.PlaceRedirectDelay)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend:5001")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("BREAKER_FAILURES", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, "http://backend:5001", cfg.APIBaseURL)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Storage.TTL)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=9090\nKAFKA_TOPIC=from-file\n"), 0o600))
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("KAFKA_TOPIC", "")
	os.Unsetenv("KAFKA_TOPIC")

	cfg := Load(path)

	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, "from-file", cfg.KafkaTopic)
	os.Unsetenv("KAFKA_TOPIC")
}

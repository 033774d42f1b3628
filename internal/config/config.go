package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Hassan5123/roast-direct/internal/storage"
)

type Config struct {
	HTTPPort           string
	APIBaseURL         string
	LogLevel           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	// SessionTTL bounds how long an idle shopper session is kept.
	SessionTTL          time.Duration
	PlaceRedirectDelay  time.Duration
	Storage             storage.Config
	KafkaBrokers        []string
	KafkaTopic          string
	BreakerFailures     uint32
	BreakerOpenDuration time.Duration
}

// Load reads .env when present, then the process environment.
func Load(files ...string) *Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() *Config {
	ttl := getDuration("SESSION_TTL", 24*time.Hour)
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		APIBaseURL:         getEnv("API_BASE_URL", "http://localhost:5001"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: 1 << 20, // 1MB
		SessionTTL:         ttl,
		PlaceRedirectDelay: getDuration("PLACE_REDIRECT_DELAY", time.Second),
		Storage: storage.Config{
			Driver:        getEnv("STORAGE_DRIVER", "memory"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDBName:   getEnv("MONGO_DB_NAME", "storefront"),
			SQLitePath:    getEnv("SQLITE_PATH", "storefront.db"),
			TTL:           ttl,
		},
		KafkaBrokers:        splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "storefront-events"),
		BreakerFailures:     uint32(getInt("BREAKER_FAILURES", 5)),
		BreakerOpenDuration: getDuration("BREAKER_OPEN_DURATION", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

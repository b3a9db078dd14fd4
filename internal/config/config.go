package config

import (
	"os"
	"strings"
	"time"
)

// Config holds the storefront service configuration, loaded from environment
// variables with sensible local-development defaults.
type Config struct {
	Port           string
	BackendURL     string
	RequestTimeout time.Duration

	// CartStorage selects the backing store for anonymous carts:
	// "memory", "file" or "redis".
	CartStorage string
	DataDir     string
	RedisAddr   string

	CacheTTL time.Duration

	KafkaBrokers []string

	JaegerEndpoint string
	LogLevel       string
	Development    bool
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8090"),
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:3000"),
		RequestTimeout: getDuration("BACKEND_TIMEOUT", 10*time.Second),
		CartStorage:    getEnv("CART_STORAGE", "memory"),
		DataDir:        getEnv("CART_DATA_DIR", "./data"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:       getDuration("CACHE_TTL", 5*time.Minute),
		KafkaBrokers:   getList("KAFKA_BROKERS"),
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Development:    getEnv("APP_ENV", "development") == "development",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

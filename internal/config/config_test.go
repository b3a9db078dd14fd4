package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.BackendURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "memory", cfg.CartStorage)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.Development)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CART_STORAGE", "redis")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "redis", cfg.CartStorage)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.Development)
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("BACKEND_TIMEOUT", "not-a-duration")

	cfg := Load()
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

// Package cache holds the cached view of per-session cart totals. Entries
// are invalidated through CartChanged events rather than by the mutating
// code paths directly.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned when no fresh value is cached for the key.
var ErrCacheMiss = errors.New("cache miss")

// TotalCache caches the per-session cart item count.
type TotalCache interface {
	Get(ctx context.Context, key string) (int, error)
	Set(ctx context.Context, key string, total int) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	total     int
	expiresAt time.Time
}

// MemoryCache is an in-process TotalCache with TTL expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (int, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return 0, ErrCacheMiss
	}
	return entry.total, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, total int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{total: total, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

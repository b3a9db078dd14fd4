package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a TotalCache shared across storefront replicas.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(key string) string {
	return "storefront:cart-total:" + key
}

func (c *RedisCache) Get(ctx context.Context, key string) (int, error) {
	total, err := c.client.Get(ctx, c.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, fmt.Errorf("cache get failed: %w", err)
	}
	return total, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, total int) error {
	return c.client.Set(ctx, c.key(key), total, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

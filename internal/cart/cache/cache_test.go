package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	_, err := c.Get(ctx, "guest:g1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "guest:g1", 5))
	total, err := c.Get(ctx, "guest:g1")
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	require.NoError(t, c.Delete(ctx, "guest:g1"))
	_, err = c.Get(ctx, "guest:g1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Deleting a missing key is fine
	assert.NoError(t, c.Delete(ctx, "guest:g1"))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(20 * time.Millisecond)

	require.NoError(t, c.Set(ctx, "user:u1", 3))

	total, err := c.Get(ctx, "user:u1")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	require.Eventually(t, func() bool {
		_, err := c.Get(ctx, "user:u1")
		return err == ErrCacheMiss
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryCacheKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	require.NoError(t, c.Set(ctx, "guest:g1", 1))
	require.NoError(t, c.Set(ctx, "user:u1", 2))
	require.NoError(t, c.Delete(ctx, "guest:g1"))

	total, err := c.Get(ctx, "user:u1")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

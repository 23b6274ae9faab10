package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSetDel(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(ctx, 0)

	_, ok, err := c.Get(ctx, "playlist:1:etag")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "playlist:1:etag", `"abc"`, 0))
	require.NoError(t, c.Set(ctx, "playlist:2:etag", `"def"`, 0))

	val, ok, err := c.Get(ctx, "playlist:1:etag")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"abc"`, val)

	require.NoError(t, c.Del(ctx, "playlist:1:etag", "missing"))
	_, ok, _ = c.Get(ctx, "playlist:1:etag")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size())
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	c := NewMemoryCache(ctx, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size())

	c.sweep()
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCacheJanitorStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewMemoryCache(ctx, time.Millisecond)
	require.NoError(t, c.Set(ctx, "k", "v", time.Nanosecond))

	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}
	ctx := context.Background()
	c := NewRedisCache(addr, "", "")
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(ctx))

	key := "pocketbuddy:test:etag"
	require.NoError(t, c.Set(ctx, key, "v1", time.Minute))
	val, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", val)

	require.NoError(t, c.Del(ctx, key))
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

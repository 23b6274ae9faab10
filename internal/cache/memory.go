package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value      string
	expiration time.Time
}

// expired reports whether the entry has a TTL that has passed.
func (e entry) expired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

// MemoryCache is the in-process fallback when Redis is not configured.
type MemoryCache struct {
	items map[string]entry
	mutex sync.RWMutex
	now   func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache whose janitor sweeps expired entries every
// interval until ctx is done. A zero interval disables the janitor.
func NewMemoryCache(ctx context.Context, interval time.Duration) *MemoryCache {
	c := &MemoryCache{
		items: make(map[string]entry),
		now:   time.Now,
	}
	if interval > 0 {
		go c.cleanupExpired(ctx, interval)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, ok := c.items[key]
	if !ok || e.expired(c.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value. A ttl of zero keeps it until deleted.
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiration = c.now().Add(ttl)
	}
	c.items[key] = e
	return nil
}

func (c *MemoryCache) Del(_ context.Context, keys ...string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

// Size returns the number of stored entries, expired ones included.
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) sweep() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
		}
	}
}

func (c *MemoryCache) cleanupExpired(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

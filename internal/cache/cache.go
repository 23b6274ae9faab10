package cache

import (
	"context"
	"time"
)

// Cache is the small key/value surface the API needs for ETags.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Package cache provides a small TTL key-value cache used to avoid
// re-fetching upstream taxonomy data on every sync.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented TTL cache. Implementations must treat a missing
// key as a miss, not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

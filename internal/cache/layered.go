package cache

import (
	"context"
	"io"
	"time"
)

// LayeredCache puts a process-local memory cache in front of a shared
// backend. The backend is the source of truth for Add.
type LayeredCache struct {
	memory Cache
	shared Cache
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(memory, shared Cache) *LayeredCache {
	return &LayeredCache{
		memory: memory,
		shared: shared,
	}
}

// Get retrieves a value from the cache (checks memory first, then the shared backend)
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	// Check memory cache first
	if val, found, _ := c.memory.Get(ctx, key); found {
		return val, true, nil
	}

	ttlShared, ok := c.shared.(ttlGetter)
	if !ok {
		// Without the remaining lifetime a promoted copy could outlive the
		// shared entry, so nothing is promoted.
		return c.shared.Get(ctx, key)
	}

	val, ttl, found, err := ttlShared.GetWithTTL(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	switch {
	case ttl == 0:
		// about to expire; a zero TTL would mean no expiry in memory
		return val, true, nil
	case ttl < 0 || ttl > promoteTTL:
		ttl = promoteTTL
	}
	_ = c.memory.Set(ctx, key, val, ttl)
	return val, true, nil
}

// promoteTTL caps how long a promoted entry lives in memory.
const promoteTTL = 5 * time.Second

// ttlGetter is implemented by backends that can report an entry's
// remaining lifetime.
type ttlGetter interface {
	GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error)
}

// Set stores a value in both caches
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.shared.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.memory.Set(ctx, key, value, ttl)
}

// Add stores a value in the shared backend if absent, then mirrors it in memory
func (c *LayeredCache) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	added, err := c.shared.Add(ctx, key, value, ttl)
	if err != nil || !added {
		return added, err
	}
	_ = c.memory.Set(ctx, key, value, ttl)
	return true, nil
}

// Delete removes a value from both caches
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	_ = c.memory.Delete(ctx, key)
	return c.shared.Delete(ctx, key)
}

// Clear removes all values from both caches
func (c *LayeredCache) Clear(ctx context.Context) error {
	_ = c.memory.Clear(ctx)
	return c.shared.Clear(ctx)
}

// Close closes the shared backend when it holds connections.
func (c *LayeredCache) Close() error {
	if closer, ok := c.shared.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/discountclaim/internal/model"
)

// Cache defines the key/value store used for claim records.
// Entries expire after their TTL; a zero TTL means the backend default.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Add stores value only if key is absent. It reports whether it stored.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// New builds the backend selected by cfg.
func New(cfg model.CacheConfig) (Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryCache(0, cfg.CleanupInterval), nil
	case "disk":
		if cfg.Dir == "" {
			return nil, model.NewConfigError("cache.dir is required for the disk backend", nil)
		}
		return NewDiskCache(cfg.Dir, 0), nil
	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	case "layered":
		return NewLayeredCache(NewMemoryCache(0, cfg.CleanupInterval), NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)), nil
	default:
		return nil, model.NewConfigError(fmt.Sprintf("unknown cache backend %q (supported: memory, disk, redis, layered)", cfg.Backend), nil)
	}
}

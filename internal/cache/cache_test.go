package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/discountclaim/internal/model"
)

func newRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

// backends returns every implementation under test.
func backends(t *testing.T) map[string]Cache {
	t.Helper()
	rc, _ := newRedis(t)
	lrc, _ := newRedis(t)
	return map[string]Cache{
		"memory":  NewMemoryCache(0, time.Minute),
		"disk":    NewDiskCache(t.TempDir(), 0),
		"redis":   rc,
		"layered": NewLayeredCache(NewMemoryCache(0, time.Minute), lrc),
	}
}

func TestCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, found, err := c.Get(ctx, "claims:a"); err != nil || found {
				t.Fatalf("expected miss, got found=%v err=%v", found, err)
			}

			if err := c.Set(ctx, "claims:a", []byte("v1"), time.Minute); err != nil {
				t.Fatalf("set: %v", err)
			}

			val, found, err := c.Get(ctx, "claims:a")
			if err != nil || !found {
				t.Fatalf("expected hit, got found=%v err=%v", found, err)
			}
			if !bytes.Equal(val, []byte("v1")) {
				t.Errorf("expected v1, got %q", val)
			}

			if err := c.Delete(ctx, "claims:a"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, found, _ := c.Get(ctx, "claims:a"); found {
				t.Error("expected miss after delete")
			}
		})
	}
}

func TestCache_AddOnlyOnce(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			added, err := c.Add(ctx, "claims:k", []byte("first"), time.Minute)
			if err != nil || !added {
				t.Fatalf("first add: added=%v err=%v", added, err)
			}

			added, err = c.Add(ctx, "claims:k", []byte("second"), time.Minute)
			if err != nil {
				t.Fatalf("second add: %v", err)
			}
			if added {
				t.Error("second add must not store")
			}

			val, _, _ := c.Get(ctx, "claims:k")
			if string(val) != "first" {
				t.Errorf("expected first value to survive, got %q", val)
			}
		})
	}
}

func TestRedisCache_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	if err := c.Set(ctx, "claims:k", []byte("v"), 300*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	mr.FastForward(299 * time.Second)
	if _, found, _ := c.Get(ctx, "claims:k"); !found {
		t.Fatal("expected entry at t+299s")
	}

	mr.FastForward(2 * time.Second)
	if _, found, _ := c.Get(ctx, "claims:k"); found {
		t.Fatal("expected entry to be gone at t+301s")
	}

	added, err := c.Add(ctx, "claims:k", []byte("fresh"), 300*time.Second)
	if err != nil || !added {
		t.Fatalf("expected fresh add after expiry: added=%v err=%v", added, err)
	}
}

func TestLayeredCache_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	shared, mr := newRedis(t)

	if err := shared.Set(ctx, "claims:k", []byte("v"), 300*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A second instance reads the record just before it expires.
	layered := NewLayeredCache(NewMemoryCache(0, time.Minute), shared)
	mr.FastForward(299*time.Second + 900*time.Millisecond)
	if _, found, _ := layered.Get(ctx, "claims:k"); !found {
		t.Fatal("expected entry just before expiry")
	}

	mr.FastForward(2 * time.Second)
	time.Sleep(150 * time.Millisecond)
	if _, found, _ := layered.Get(ctx, "claims:k"); found {
		t.Fatal("promoted copy outlived the shared entry")
	}

	added, err := layered.Add(ctx, "claims:k", []byte("fresh"), 300*time.Second)
	if err != nil || !added {
		t.Fatalf("expected fresh add after expiry: added=%v err=%v", added, err)
	}
}

func TestLayeredCache_PromotesSharedHits(t *testing.T) {
	ctx := context.Background()
	shared, mr := newRedis(t)

	if err := shared.Set(ctx, "claims:k", []byte("v"), 300*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	layered := NewLayeredCache(NewMemoryCache(0, time.Minute), shared)
	if _, found, _ := layered.Get(ctx, "claims:k"); !found {
		t.Fatal("expected shared hit")
	}

	mr.Del("claims:k")
	val, found, _ := layered.Get(ctx, "claims:k")
	if !found || !bytes.Equal(val, []byte("v")) {
		t.Errorf("expected promoted copy in memory, got found=%v val=%q", found, val)
	}
}

func TestLayeredCache_NoPromotionWithoutTTL(t *testing.T) {
	ctx := context.Background()
	shared := NewDiskCache(t.TempDir(), 0)
	if err := shared.Set(ctx, "claims:k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	layered := NewLayeredCache(NewMemoryCache(0, time.Minute), shared)
	if _, found, _ := layered.Get(ctx, "claims:k"); !found {
		t.Fatal("expected shared hit")
	}

	if err := shared.Delete(ctx, "claims:k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := layered.Get(ctx, "claims:k"); found {
		t.Error("disk hit must not be promoted to memory")
	}
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mr := newRedis(t)
	mr.Close()

	if _, _, err := c.Get(context.Background(), "claims:k"); err == nil {
		t.Error("expected error when redis is unreachable")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewDiskCache(t.TempDir(), 0)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "claims:k", []byte("v"), 300*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	now = now.Add(299 * time.Second)
	if _, found, _ := c.Get(ctx, "claims:k"); !found {
		t.Fatal("expected entry at t+299s")
	}

	now = now.Add(2 * time.Second)
	if _, found, _ := c.Get(ctx, "claims:k"); found {
		t.Fatal("expected entry to be gone at t+301s")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, time.Minute)

	if err := c.Set(ctx, "claims:k", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(40 * time.Millisecond)

	if _, found, _ := c.Get(ctx, "claims:k"); found {
		t.Error("expected entry to expire")
	}
	added, _ := c.Add(ctx, "claims:k", []byte("fresh"), time.Minute)
	if !added {
		t.Error("expected add to succeed after expiry")
	}
}

func TestNew_Backends(t *testing.T) {
	if _, err := New(model.CacheConfig{Backend: "memory"}); err != nil {
		t.Errorf("memory: %v", err)
	}
	if _, err := New(model.CacheConfig{Backend: "disk", Dir: t.TempDir()}); err != nil {
		t.Errorf("disk: %v", err)
	}

	_, err := New(model.CacheConfig{Backend: "disk"})
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("disk without dir: expected ConfigError, got %v", err)
	}

	_, err = New(model.CacheConfig{Backend: "memcached"})
	if !errors.As(err, &cfgErr) {
		t.Errorf("unknown backend: expected ConfigError, got %v", err)
	}
}

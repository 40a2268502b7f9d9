package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements Cache in process using patrickmn/go-cache.
// Values are copied on the way in and out, so callers never share buffers.
type MemoryCache struct {
	store *gocache.Cache
	mu    sync.Mutex // serializes IncrWithExpiry
}

// NewMemoryCache creates a MemoryCache whose expired entries are purged every cleanupInterval.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (c *MemoryCache) Ping(_ context.Context) error { return nil }

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(key, cloneBytes(value), ttl)
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := c.store.Get(key)
	if !found {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(b), true, nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// IncrWithExpiry increments a counter and resets its expiry, matching the Redis implementation.
func (c *MemoryCache) IncrWithExpiry(_ context.Context, key string, expiry time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	if v, found := c.store.Get(key); found {
		if cur, ok := v.(int64); ok {
			n = cur
		}
	}
	n++
	c.store.Set(key, n, expiry)
	return n, nil
}

func (c *MemoryCache) Close() error {
	c.store.Flush()
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ Cache = (*MemoryCache)(nil)

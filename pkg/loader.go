package cache

// loader.go implements LoadingCache, a concurrency-safe convenience wrapper
// around the single-mutator *Cache core: it deduplicates concurrent loads
// on a miss via singleflight, and serializes every Get/Set behind a mutex
// so the core still has exactly one caller. Nothing about the core's
// concurrency contract changes; LoadingCache is simply that one caller.
//
// © 2025 arena-cache authors. MIT License.

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadingCache wraps a *Cache so multiple goroutines can share it safely,
// with GetOrLoad deduplicating concurrent misses for the same key via
// singleflight: only one goroutine runs the LoaderFunc, the rest wait for
// its result.
type LoadingCache struct {
	mu sync.Mutex
	c  *Cache
	g  singleflight.Group
}

// NewLoadingCache wraps c. c must not be used directly by any other caller
// afterward -- LoadingCache becomes the core's sole mutator.
func NewLoadingCache(c *Cache) *LoadingCache {
	return &LoadingCache{c: c}
}

// Get looks up key as of the cache's configured clock.
func (lc *LoadingCache) Get(key []byte) (data []byte, ttl time.Duration, ok bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.c.Get(key, lc.c.cfg.clock.Now())
}

// Set inserts or overwrites key.
func (lc *LoadingCache) Set(key, data []byte, ttl time.Duration) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.c.Set(key, data, ttl)
}

// loadResult is the type singleflight.Group.DoChan delivers for a given key.
type loadResult struct {
	data []byte
	ttl  time.Duration
}

// GetOrLoad returns key's value, loading and storing it via loader on a
// miss. Concurrent GetOrLoad calls for the same key share a single loader
// invocation. ctx governs cancellation of this call's wait only: the loader
// always runs with context.Background() and is never cancelled by ctx.
func (lc *LoadingCache) GetOrLoad(ctx context.Context, key []byte, loader LoaderFunc) (data []byte, ttl time.Duration, err error) {
	if data, ttl, ok := lc.Get(key); ok {
		return data, ttl, nil
	}

	keyCopy := append([]byte(nil), key...)
	ch := lc.g.DoChan(string(keyCopy), func() (any, error) {
		// Deliberately context.Background(), not ctx: this closure is
		// shared across every goroutine that lands on the same key, and
		// one caller's cancellation must not abort the load for the
		// others still waiting on it (see the doc comment above).
		data, ttl, err := loader(context.Background(), keyCopy)
		if err != nil {
			return nil, err
		}
		lc.mu.Lock()
		lc.c.Set(keyCopy, data, ttl)
		lc.mu.Unlock()
		return loadResult{data: data, ttl: ttl}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, 0, res.Err
		}
		r := res.Val.(loadResult)
		return r.data, r.ttl, nil
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
}

package cache

// default.go restores the process-wide default instance the original C
// source exposed as a module-level "default_cache" plus a cumulative
// cache_motion counter. It is a thin wrapper over a single package-level
// *Cache: DefaultInit/DefaultGet/DefaultSet/DefaultSetOptions mirror
// cache_init/cache_get/cache_set/cache_set_options exactly, including the
// original's quirk that cache_set_options only takes effect once a default
// instance already exists.
//
// The default instance follows the same single-mutator discipline as any
// other *Cache: these wrappers guard the package-level pointer itself
// (replaced, never freed, by DefaultInit) but do not serialize concurrent
// DefaultGet/DefaultSet calls against each other. Callers that need that
// need LoadingCache instead.
//
// © 2025 arena-cache authors. MIT License.

import (
	"sync"
	"sync/atomic"
	"time"
)

var (
	defaultMu     sync.Mutex
	defaultCache  *Cache
	defaultMotion atomic.Uint64
)

// DefaultInit (re)creates the process-wide default instance at the given
// size, replacing any existing one. It reports false on allocation failure,
// in which case the previous default instance, if any, is left in place.
func DefaultInit(size uint32, opts ...Option) bool {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	c, err := New(size, opts...)
	if err != nil {
		return false
	}
	c.motionHook = func(n uint64) { defaultMotion.Add(n) }
	defaultCache = c
	return true
}

// DefaultGet looks up key in the default instance as of now. It misses if
// no default instance has been created yet.
func DefaultGet(key []byte) (data []byte, ttl time.Duration, ok bool) {
	defaultMu.Lock()
	c := defaultCache
	defaultMu.Unlock()
	if c == nil {
		return nil, 0, false
	}
	return c.Get(key, c.cfg.clock.Now())
}

// DefaultSet inserts key into the default instance. It is a no-op if no
// default instance has been created yet.
func DefaultSet(key, data []byte, ttl time.Duration) {
	defaultMu.Lock()
	c := defaultCache
	defaultMu.Unlock()
	if c == nil {
		return
	}
	c.Set(key, data, ttl)
}

// DefaultSetOptions overwrites the default instance's Options in place.
// This mirrors the original cache_set_options exactly: it is a direct
// field assignment, not a re-init and not a buffered value consumed by a
// future DefaultInit, so it only affects behavior starting from whichever
// Set happens to land on the next cycle boundary. It is a documented no-op
// when called before the first DefaultInit -- call order matters.
func DefaultSetOptions(opts Options) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCache == nil {
		return
	}
	defaultCache.cfg.Options = opts
}

// CacheMotion returns the cumulative number of bytes written via Set to the
// default instance across its lifetime (surviving DefaultInit replacement).
// It is write-only from the engine's perspective and monotonically
// nondecreasing; callers read it for liveness/throughput instrumentation.
func CacheMotion() uint64 {
	return defaultMotion.Load()
}

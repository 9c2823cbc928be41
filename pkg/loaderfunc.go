package cache

// loaderfunc.go defines LoaderFunc, the user-supplied callback LoadingCache
// invokes on a miss. It lives in its own file so it can be referenced from
// loader.go without clutter.
//
// © 2025 arena-cache authors. MIT License.

import (
	"context"
	"time"
)

// LoaderFunc produces the value for key when LoadingCache.GetOrLoad misses.
// It must be safe for concurrent invocation: the same LoaderFunc may be
// called for different keys from different goroutines simultaneously, and
// singleflight only deduplicates calls for the same key.
//
// It should honor ctx for cancellation. Returning an error means nothing is
// stored and the error is propagated to every caller sharing the call.
type LoaderFunc func(ctx context.Context, key []byte) (data []byte, ttl time.Duration, err error)

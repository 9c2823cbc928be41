// Package bench provides reproducible micro-benchmarks for the cache.
// Run via:  go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// The benchmarks use one key/value shape so results are comparable across
// versions: a 16-byte key (a random uint64 as 16 hex digits) and a 64-byte
// value, both plain []byte.
//
// We measure:
//  1. Set          -- write-only workload
//  2. Get          -- read-only workload (after warm-up)
//  3. GetParallel  -- concurrent reads through LoadingCache
//  4. GetOrLoad    -- 90% of keys preloaded; the other 10% miss once, are
//     loaded (with loader cost) and stored, and hit from then on
//
// © 2025 arena-cache authors. MIT License.
package bench

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	cache "github.com/nullcache/xorring/pkg"
)

const (
	arenaSize = 64 << 20 // 64 MiB
	entryTTL  = time.Minute
	numKeys   = 1 << 16
)

var value64 = make([]byte, 64)

func newTestCache(tb testing.TB) *cache.Cache {
	c, err := cache.New(arenaSize)
	if err != nil {
		tb.Fatalf("cache init: %v", err)
	}
	return c
}

// dataset is reused across benchmarks to avoid reallocating large slices.
var dataset = func() [][]byte {
	rnd := rand.New(rand.NewSource(42))
	ks := make([][]byte, numKeys)
	for i := range ks {
		ks[i] = []byte(fmt.Sprintf("%016x", rnd.Uint64()))
	}
	return ks
}()

func BenchmarkSet(b *testing.B) {
	c := newTestCache(b)
	defer c.Close()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := dataset[i&(numKeys-1)]
		c.Set(key, value64, entryTTL)
	}
}

func BenchmarkGet(b *testing.B) {
	c := newTestCache(b)
	defer c.Close()
	for _, k := range dataset {
		c.Set(k, value64, entryTTL)
	}
	now := time.Now()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := dataset[i&(numKeys-1)]
		c.Get(key, now)
	}
}

func BenchmarkGetParallel(b *testing.B) {
	c := newTestCache(b)
	defer c.Close()
	for _, k := range dataset {
		c.Set(k, value64, entryTTL)
	}
	lc := cache.NewLoadingCache(c)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		idx := rand.Intn(numKeys)
		for pb.Next() {
			idx = (idx + 1) & (numKeys - 1)
			lc.Get(dataset[idx])
		}
	})
}

func BenchmarkGetOrLoad(b *testing.B) {
	c := newTestCache(b)
	defer c.Close()
	lc := cache.NewLoadingCache(c)

	// Preload 90% of keys to simulate a mixed hit/miss workload.
	for i, k := range dataset {
		if i%10 != 0 {
			lc.Set(k, value64, entryTTL)
		}
	}

	var loaderCalls atomic.Uint64
	loader := func(ctx context.Context, key []byte) ([]byte, time.Duration, error) {
		loaderCalls.Add(1)
		return value64, entryTTL, nil
	}

	b.ReportAllocs()
	b.ResetTimer()
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		key := dataset[i&(numKeys-1)]
		_, _, _ = lc.GetOrLoad(ctx, key, loader)
	}
	b.ReportMetric(float64(loaderCalls.Load())/float64(b.N)*100, "miss-%")
}

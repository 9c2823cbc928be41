package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoadingCacheGetOrLoadMiss(t *testing.T) {
	t.Parallel()

	c, err := New(64 << 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	lc := NewLoadingCache(c)

	var calls atomic.Int32
	loader := func(ctx context.Context, key []byte) ([]byte, time.Duration, error) {
		calls.Add(1)
		return []byte("loaded:" + string(key)), time.Minute, nil
	}

	data, _, err := lc.GetOrLoad(context.Background(), []byte("k"), loader)
	if err != nil {
		t.Fatalf("GetOrLoad failed: %v", err)
	}
	if string(data) != "loaded:k" {
		t.Errorf("got %q, want %q", data, "loaded:k")
	}
	if calls.Load() != 1 {
		t.Errorf("got %d loader calls, want 1", calls.Load())
	}

	// A second call should hit the cache, not invoke the loader again.
	if _, _, err := lc.GetOrLoad(context.Background(), []byte("k"), loader); err != nil {
		t.Fatalf("GetOrLoad failed: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("got %d loader calls after a cache hit, want still 1", calls.Load())
	}
}

func TestLoadingCacheGetOrLoadDeduplicatesConcurrentMisses(t *testing.T) {
	t.Parallel()

	c, err := New(64 << 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	lc := NewLoadingCache(c)

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(ctx context.Context, key []byte) ([]byte, time.Duration, error) {
		calls.Add(1)
		<-release
		return []byte("v"), time.Minute, nil
	}

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _, err := lc.GetOrLoad(context.Background(), []byte("shared"), loader)
			if err != nil {
				t.Errorf("GetOrLoad failed: %v", err)
			}
		}()
	}

	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("got %d loader invocations for %d concurrent misses on the same key, want 1", calls.Load(), n)
	}
}

func TestLoadingCacheGetOrLoadPropagatesError(t *testing.T) {
	t.Parallel()

	c, err := New(64 << 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	lc := NewLoadingCache(c)

	wantErr := fmt.Errorf("boom")
	loader := func(ctx context.Context, key []byte) ([]byte, time.Duration, error) {
		return nil, 0, wantErr
	}

	if _, _, err := lc.GetOrLoad(context.Background(), []byte("k"), loader); err != wantErr {
		t.Errorf("got err=%v, want %v", err, wantErr)
	}
	if _, _, ok := lc.Get([]byte("k")); ok {
		t.Error("expected a failed load to store nothing")
	}
}

func TestLoadingCacheSetThenGet(t *testing.T) {
	t.Parallel()

	c, err := New(64 << 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	lc := NewLoadingCache(c)

	lc.Set([]byte("k"), []byte("v"), time.Minute)
	data, _, ok := lc.Get([]byte("k"))
	if !ok {
		t.Fatal("expected hit")
	}
	if string(data) != "v" {
		t.Errorf("got %q, want %q", data, "v")
	}
}

package cache

// cache.go is the engine itself: the arena layout manager, hash index and
// XOR-linked chains of internal/arena and internal/hash are tied together
// here into Get/Set/Init against the circular new-region/old-region write
// protocol, with internal/cyclesizer deciding at each cycle boundary whether
// to grow or shrink before the regions rotate.
//
// There is exactly one arena per instance (no sharding -- the instance is
// documented as single-mutator, and concurrent callers use LoadingCache
// instead), keys and values are plain []byte (no generics -- the wire
// layout is a byte arena, not a Go value store), and eviction is
// FIFO-by-insertion-batch via region rotation, not a recency-tracked
// replacement policy. The public surface (New/Init/Get/Set/Close,
// functional Options, a metrics sink, a pluggable logger) follows a
// bounds-checked-read-or-die posture that treats an out-of-range arena
// offset as a fatal bug rather than a recoverable error.
//
// © 2025 arena-cache authors. MIT License.

import (
	"bytes"
	"errors"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nullcache/xorring/internal/arena"
	"github.com/nullcache/xorring/internal/binpack"
	"github.com/nullcache/xorring/internal/cyclesizer"
	"github.com/nullcache/xorring/internal/hash"
)

const (
	// MinSize and MaxSize bound the arena the caller may request; requests
	// outside this range are clamped, never rejected.
	MinSize = 100
	MaxSize = 1_000_000_000

	// MaxKeyLen and MaxDataLen bound a single entry; Set silently drops
	// anything larger.
	MaxKeyLen  = 1000
	MaxDataLen = 1_000_000

	// MaxTTL is the longest TTL Set will honor; longer requests are
	// clamped, not rejected.
	MaxTTL = 604800 * time.Second

	// entryHeaderSize is link(4) + keylen(4) + datalen(4) + expire(8).
	entryHeaderSize = 4 + 4 + 4 + binpack.InstantSize

	// maxChainWalk bounds the cost of a Get under adversarial hash
	// collisions: a chain is never walked past this many nodes.
	maxChainWalk = 100
)

// ErrAllocFailed is returned by New and reported by Init when the
// requested arena could not be allocated. It is the only error this
// package returns from instance construction; oversize keys/values and
// out-of-range sizes are clamped or silently dropped, never surfaced.
var ErrAllocFailed = errors.New("cache: arena allocation failed")

// Cache is a single-arena, single-mutator key/value cache. The zero value
// is not usable; construct one with New.
//
// A *Cache is not safe for concurrent use. Callers that need a shared
// instance across goroutines should wrap it in LoadingCache, which
// serializes access with a mutex and is the only mutator the core ever
// sees.
type Cache struct {
	ar    *arena.Arena
	cfg   *config
	cycle cyclesizer.CycleState

	motion    uint64
	hits      uint64
	misses    uint64
	evictions uint64
	resizes   uint64
	metrics   metricsSink

	// metricsRegistry tracks which *prometheus.Registry metrics was built
	// against, so reinit (called on every resize) does not attempt to
	// register the same collectors into the same registry twice.
	metricsRegistry *prometheus.Registry

	// motionHook, when set, is invoked with the number of bytes written by
	// every successful Set. default.go uses this to drive the process-wide
	// cache motion counter for the default instance only.
	motionHook func(uint64)
}

// New allocates a fresh cache of the given size (clamped to
// [MinSize, MaxSize]) configured by opts. It returns ErrAllocFailed if the
// arena could not be allocated.
func New(size uint32, opts ...Option) (*Cache, error) {
	cfg := buildConfig(nil, opts)
	c := &Cache{cfg: cfg}
	if !c.reinit(size, cfg) {
		return nil, ErrAllocFailed
	}
	return c, nil
}

// Init reinitializes c in place at the given size. A nil opts resets the
// instance's Options to their defaults; a non-nil opts replaces them
// wholesale. Either way, the ambient collaborators already configured on
// c (logger, metrics registry, clock) are preserved -- they are not part
// of the Options record and Init has no way to change them.
//
// This differs from the implicit re-init the adaptive sizer performs at a
// cycle boundary, which always preserves the current Options verbatim;
// see checkForResize.
//
// Init reports false, leaving the existing arena untouched, if the new
// arena could not be allocated.
func (c *Cache) Init(size uint32, opts *Options) bool {
	newCfg := &config{
		Options:  defaultOptions(),
		registry: c.cfg.registry,
		logger:   c.cfg.logger,
		clock:    c.cfg.clock,
	}
	if opts != nil {
		newCfg.Options = *opts
	}
	return c.reinit(size, newCfg)
}

// Close releases the arena. c is not usable afterward except for another
// call to Init.
func (c *Cache) Close() {
	c.ar = nil
}

// reinit is the single place that allocates a new arena and swaps it in.
// It allocates before mutating c so a failed allocation leaves the prior
// arena (if any) fully intact, per the allocate-before-release discipline
// documented for Init.
func (c *Cache) reinit(size uint32, cfg *config) bool {
	size = clampSize(size)
	a, ok := arena.Alloc(size)
	if !ok {
		return false
	}
	c.ar = a
	c.cfg = cfg
	c.cycle.Reset(cfg.clock.Now())

	if c.metrics == nil || cfg.registry != c.metricsRegistry {
		c.metrics = newMetricsSink(cfg.registry)
		c.metricsRegistry = cfg.registry
	}
	c.metrics.setSizeBytes(a.Size, a.HSize, 0)
	return true
}

// incHit, incMiss, incEvict and incResize bump both the plain per-instance
// counters Stats reports and the configured metrics sink. They exist so
// Stats works the same whether or not the caller opted into Prometheus via
// WithMetrics.
func (c *Cache) incHit()    { c.hits++; c.metrics.incHit() }
func (c *Cache) incMiss()   { c.misses++; c.metrics.incMiss() }
func (c *Cache) incEvict()  { c.evictions++; c.metrics.incEvict() }
func (c *Cache) incResize() { c.resizes++; c.metrics.incResize() }

// Stats is a point-in-time snapshot of an instance's counters and arena
// layout, suitable for a debug/inspection endpoint that doesn't want to
// depend on Prometheus scraping.
type Stats struct {
	SizeBytes      uint32
	HSizeBytes     uint32
	LiveBytes      uint32
	HitsTotal      uint64
	MissesTotal    uint64
	EvictionsTotal uint64
	ResizesTotal   uint64
	MotionBytes    uint64
}

// Stats returns a snapshot of c's counters and current arena layout.
func (c *Cache) Stats() Stats {
	live := (c.ar.Writer - c.ar.HSize) + (c.ar.Unused - c.ar.Oldest)
	return Stats{
		SizeBytes:      c.ar.Size,
		HSizeBytes:     c.ar.HSize,
		LiveBytes:      live,
		HitsTotal:      c.hits,
		MissesTotal:    c.misses,
		EvictionsTotal: c.evictions,
		ResizesTotal:   c.resizes,
		MotionBytes:    c.motion,
	}
}

func clampSize(size uint32) uint32 {
	if size < MinSize {
		return MinSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// corrupt logs an arena-corruption event and terminates the process with
// exit code 111. It never returns. Every bounds-checked arena access in
// this file calls corrupt on failure: a correct implementation never
// triggers it, so any occurrence means the arena has been corrupted by
// something outside this package's control (or this package has a bug),
// and every subsequent read could dereference an arbitrary offset.
func (c *Cache) corrupt(msg string, fields ...zap.Field) {
	c.cfg.logger.Error(msg, fields...)
	os.Exit(111)
}

// readEntryHeader decodes the fixed header at pos: link, keylen, datalen
// and the packed expiry instant. ok is false if any field's region falls
// outside the arena.
func (c *Cache) readEntryHeader(pos uint32) (link, keylen, datalen uint32, expire time.Time, ok bool) {
	a := c.ar
	link, ok = a.ReadUint32(pos)
	if !ok {
		return
	}
	keylen, ok = a.ReadUint32(pos + 4)
	if !ok {
		return
	}
	datalen, ok = a.ReadUint32(pos + 8)
	if !ok {
		return
	}
	expireBuf, sok := a.Slice(pos+12, binpack.InstantSize)
	if !sok {
		ok = false
		return
	}
	expire = binpack.Instant(expireBuf)
	return
}

// writeEntryHeader is the write-side counterpart of readEntryHeader.
func (c *Cache) writeEntryHeader(pos, link, keylen, datalen uint32, expire time.Time) bool {
	a := c.ar
	if !a.WriteUint32(pos, link) {
		return false
	}
	if !a.WriteUint32(pos+4, keylen) {
		return false
	}
	if !a.WriteUint32(pos+8, datalen) {
		return false
	}
	expireBuf, ok := a.Slice(pos+12, binpack.InstantSize)
	if !ok {
		return false
	}
	binpack.PutInstant(expireBuf, expire)
	return true
}

// Get looks up key as of now, returning a borrow of the stored data, its
// remaining TTL, and whether the key was found live. The returned slice
// aliases the arena and is only valid until the next Set, Init or Close on
// c.
//
// Get never mutates c: no promotion, no write-side bookkeeping beyond
// read-only hit/miss counters that feed metrics only, never eviction
// decisions.
func (c *Cache) Get(key []byte, now time.Time) (data []byte, ttl time.Duration, ok bool) {
	if c == nil || c.ar == nil {
		return nil, 0, false
	}
	if len(key) > MaxKeyLen {
		c.incMiss()
		return nil, 0, false
	}

	a := c.ar
	b := hash.Bucket(key, a.HSize)
	prev := b
	pos, rok := a.ReadUint32(b)
	if !rok {
		c.corrupt("cache: hash head out of bounds", zap.Uint32("bucket", b))
	}

	for i := 0; pos != 0; i++ {
		if i >= maxChainWalk {
			c.incMiss()
			return nil, 0, false
		}

		link, keylen, datalen, expire, hok := c.readEntryHeader(pos)
		if !hok {
			c.corrupt("cache: entry header out of bounds", zap.Uint32("pos", pos))
		}

		if keylen == uint32(len(key)) {
			keyBytes, kok := a.Slice(pos+entryHeaderSize, keylen)
			if !kok {
				c.corrupt("cache: entry key region out of bounds", zap.Uint32("pos", pos))
			}
			if bytes.Equal(keyBytes, key) {
				if expire.Before(now) {
					c.incMiss()
					return nil, 0, false
				}
				dataBytes, dok := a.Slice(pos+entryHeaderSize+keylen, datalen)
				if !dok {
					c.corrupt("cache: entry data region out of bounds", zap.Uint32("pos", pos))
				}
				remaining := expire.Sub(now).Truncate(time.Second)
				if remaining > MaxTTL {
					remaining = MaxTTL
				}
				c.incHit()
				return dataBytes, remaining, true
			}
		}

		next := prev ^ link
		prev = pos
		pos = next
	}

	c.incMiss()
	return nil, 0, false
}

// Set inserts or overwrites key with data and the given ttl (clamped to
// [0, MaxTTL]). It is infallible from the caller's perspective: an
// oversize key or value, or a nil/closed cache, is silently dropped.
func (c *Cache) Set(key, data []byte, ttl time.Duration) {
	if c == nil || c.ar == nil {
		return
	}
	if len(key) > MaxKeyLen || len(data) > MaxDataLen {
		return
	}
	if ttl < 0 {
		ttl = 0
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}
	c.set(key, data, ttl, 0)
}

// set is Set's recursive core. depth bounds the Set -> checkForResize ->
// reinit -> Set recursion to depth 1: the recursive call always runs
// against a freshly emptied arena, where the no-room loop below terminates
// immediately (there is nothing yet to evict and the new region starts
// empty), so depth never legitimately reaches 2.
func (c *Cache) set(key, data []byte, ttl time.Duration, depth int) {
	if depth > 1 {
		return
	}

	a := c.ar
	entrylen := uint32(entryHeaderSize + len(key) + len(data))

	for a.Writer+entrylen > a.Oldest {
		if a.Oldest == a.Unused {
			// Cycle boundary: the old region is empty.
			if a.Writer <= a.HSize {
				// The new region is itself empty and the entry still
				// doesn't fit: it would not fit a freshly emptied arena of
				// this size either.
				return
			}
			if c.checkForResize() {
				c.set(key, data, ttl, depth+1)
				return
			}
			a.Unused = a.Writer
			a.Oldest = a.HSize
			a.Writer = a.HSize
			continue
		}
		c.evictOldest()
	}

	now := c.cfg.clock.Now()
	expire := now.Add(ttl)

	b := hash.Bucket(key, a.HSize)
	head, hok := a.ReadUint32(b)
	if !hok {
		c.corrupt("cache: hash head out of bounds on set", zap.Uint32("bucket", b))
	}
	if head != 0 {
		headLink, lok := a.ReadUint32(head)
		if !lok {
			c.corrupt("cache: entry header out of bounds on set", zap.Uint32("pos", head))
		}
		if !a.WriteUint32(head, headLink^b^a.Writer) {
			c.corrupt("cache: entry header out of bounds on set", zap.Uint32("pos", head))
		}
	}

	pos := a.Writer
	if !c.writeEntryHeader(pos, head^b, uint32(len(key)), uint32(len(data)), expire) {
		c.corrupt("cache: arena write out of bounds on set", zap.Uint32("pos", pos))
	}
	keyDst, kok := a.Slice(pos+entryHeaderSize, uint32(len(key)))
	if !kok {
		c.corrupt("cache: arena write out of bounds on set", zap.Uint32("pos", pos))
	}
	copy(keyDst, key)
	dataDst, dok := a.Slice(pos+entryHeaderSize+uint32(len(key)), uint32(len(data)))
	if !dok {
		c.corrupt("cache: arena write out of bounds on set", zap.Uint32("pos", pos))
	}
	copy(dataDst, data)

	if !a.WriteUint32(b, pos) {
		c.corrupt("cache: hash head out of bounds on set", zap.Uint32("bucket", b))
	}
	a.Writer += entrylen

	ttlSeconds := uint32(ttl / time.Second)
	c.cycle.TTL.Add(ttlSeconds)
	c.motion += uint64(entrylen)
	if c.motionHook != nil {
		c.motionHook(uint64(entrylen))
	}

	c.metrics.addMotion(uint64(entrylen))
	c.metrics.observeTTL(float64(ttlSeconds))
	live := (a.Writer - a.HSize) + (a.Unused - a.Oldest)
	c.metrics.setSizeBytes(a.Size, a.HSize, live)
}

// evictOldest reclaims the entry at a.Oldest to make room, patching its
// predecessor's XOR link and advancing a.Oldest past it.
//
// The entry at a.Oldest is always the tail of its bucket chain: entries
// are evicted strictly in insertion order, so by the time an entry reaches
// a.Oldest every entry inserted after it in the same chain (if any) is
// still between the head and it. That makes its "next" neighbor the
// off-list sentinel (0), so its stored link field equals prev XOR 0 ==
// prev: the offset of whatever points at it, be that a hash head slot or
// another entry's link field. No chain walk is needed to find it.
func (c *Cache) evictOldest() {
	a := c.ar
	pos := a.Oldest

	link, keylen, datalen, _, ok := c.readEntryHeader(pos)
	if !ok {
		c.corrupt("cache: entry header out of bounds during eviction", zap.Uint32("pos", pos))
	}

	prevOffset := link
	prevLink, pok := a.ReadUint32(prevOffset)
	if !pok {
		c.corrupt("cache: predecessor link out of bounds during eviction", zap.Uint32("pos", prevOffset))
	}
	if !a.WriteUint32(prevOffset, prevLink^pos) {
		c.corrupt("cache: predecessor link out of bounds during eviction", zap.Uint32("pos", prevOffset))
	}

	entrylen := uint32(entryHeaderSize) + keylen + datalen
	newOldest := pos + entrylen
	if newOldest > a.Unused {
		c.corrupt("cache: cursor ordering violated during eviction",
			zap.Uint32("oldest", newOldest), zap.Uint32("unused", a.Unused))
	}

	a.Oldest = newOldest
	if a.Oldest == a.Unused {
		a.Oldest = a.Size
		a.Unused = a.Size
	}
	c.incEvict()
}

// checkForResize runs the adaptive sizer at a cycle boundary. It reports
// true if it reinitialized the arena at a new size (in which case the
// caller must restart Set against the fresh arena), false if the cycle
// should simply rotate at its current size.
func (c *Cache) checkForResize() bool {
	if !c.cfg.AllowResize {
		return false
	}

	now := c.cfg.clock.Now()
	elapsed := now.Sub(c.cycle.Start)

	decision, ok := cyclesizer.Evaluate(c.ar.Size, MinSize, MaxSize, c.cfg.TargetCycleTime, elapsed, c.cycle.LastRatio)
	if !ok {
		c.cycle.Start = now
		return false
	}

	proposed := decision.Proposed
	if c.cfg.ResizeCallback != nil {
		proposed = c.cfg.ResizeCallback(decision.Ratio, c.ar.Size, decision.NewSize, c.cycle.TTL, decision.Proposed)
	}
	c.cycle.LastRatio = decision.Ratio

	if !proposed {
		c.cycle.Start = now
		return false
	}

	oldSize := c.ar.Size
	if !c.reinit(decision.NewSize, c.cfg) {
		c.cfg.logger.Warn("cache: resize allocation failed, continuing at current size",
			zap.Uint32("size", oldSize), zap.Uint32("attempted_size", decision.NewSize))
		c.cycle.Start = now
		return false
	}

	// reinit's call to cycle.Reset already cleared LastRatio to 0, giving
	// the "three cycles of the same sign required before a second resize"
	// behavior the adaptive sizer relies on.
	c.cfg.logger.Info("cache: resized arena",
		zap.Uint32("old_size", oldSize),
		zap.Uint32("new_size", decision.NewSize),
		zap.Float64("ratio", decision.Ratio))
	c.incResize()
	return true
}

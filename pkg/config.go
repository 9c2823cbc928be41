package cache

// config.go defines the Options record and the functional options used to
// build it: a private struct assembled by defaultConfig() and mutated by a
// slice of Option values.
//
// Design notes
// ------------
// • All fields have sensible defaults in defaultConfig().
// • Options never allocate unless strictly necessary -- they just capture
//   pointers to external collaborators (logger, registry, clock, callback).
// • ResizeCallback, AllowResize and TargetCycleTime are also exposed as the
//   public Options struct so DefaultSetOptions can take one by value.
//
// © 2025 arena-cache authors. MIT License.

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nullcache/xorring/internal/cyclesizer"
)

// TTLStats is the coarse per-cycle TTL histogram, re-exported here so
// callers configuring a ResizeCallback don't need to import the internal
// cyclesizer package directly.
type TTLStats = cyclesizer.TTLStats

// ResizeCallback is invoked at a cycle boundary, after the adaptive sizer
// has formed its own opinion, and may override that opinion in either
// direction. It must be cheap: it runs inline in whichever Set call happens
// to land on the cycle boundary.
type ResizeCallback func(ratio float64, oldSize, newSize uint32, stats TTLStats, proposed bool) bool

// Options bundles the adaptive-sizer knobs a Cache carries.
// DefaultSetOptions takes one of these by value and copies it directly into
// the live default instance's configuration -- see default.go for why that
// is a direct field overwrite, not a merge or a re-init.
type Options struct {
	AllowResize     bool
	TargetCycleTime time.Duration
	ResizeCallback  ResizeCallback
}

// Option is a functional option passed to New or Init.
type Option func(*config)

// config is the fully assembled configuration backing a *Cache. It embeds
// Options (preserved across the adaptive sizer's implicit re-inits) plus
// purely ambient knobs (logger, metrics, clock) that every instance carries
// regardless of Options.
type config struct {
	Options

	registry *prometheus.Registry
	logger   *zap.Logger
	clock    Clock
}

func defaultOptions() Options {
	return Options{
		AllowResize:     true,
		TargetCycleTime: 24 * time.Hour,
	}
}

func defaultConfig() *config {
	return &config{
		Options: defaultOptions(),
		logger:  zap.NewNop(),
		clock:   SystemClock{},
	}
}

/*
   ---------------- Functional options exposed to users ----------------
*/

// WithAllowResize toggles the adaptive sizer. Default true.
func WithAllowResize(allow bool) Option {
	return func(c *config) { c.AllowResize = allow }
}

// WithTargetCycleTime sets the cycle duration the adaptive sizer aims for.
// Default 24h, matching the original's DEFAULT_TARGET_CYCLETIME.
func WithTargetCycleTime(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.TargetCycleTime = d
		}
	}
}

// WithResizeCallback registers a function invoked at every cycle boundary
// that may override the adaptive sizer's own resize decision.
func WithResizeCallback(cb ResizeCallback) Option {
	return func(c *config) { c.ResizeCallback = cb }
}

// WithMetrics enables Prometheus metrics collection for the cache instance.
// Passing nil disables metrics (default): the cache uses a no-op sink so the
// hot path never pays for a WithLabelValues() call.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger plugs an external zap.Logger. The cache never logs on the hot
// path; only slow events (arena resize, resize failure, corruption) are
// emitted.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source. Intended for tests; production code
// should rely on the SystemClock default.
func WithClock(clk Clock) Option {
	return func(c *config) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// buildConfig applies a base Options (possibly nil, meaning "reset to
// defaults") and a set of functional Options on top, producing a fully
// assembled config. base follows the same rule as Init's *Options argument
// (nil resets to defaults, non-nil is preserved as-is before opts are
// layered on top of it); Init assembles its config itself, and New calls
// buildConfig with a nil base.
func buildConfig(base *Options, opts []Option) *config {
	c := defaultConfig()
	if base != nil {
		c.Options = *base
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

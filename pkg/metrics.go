package cache

// metrics.go contains a thin abstraction over Prometheus so that arena-cache
// can be used with or without metrics. When the caller passes a
// *prometheus.Registry via WithMetrics, we create real collectors and
// register them; otherwise a no-op sink is used and the hot path does not
// pay for a single metrics call.
//
// There is exactly one arena per instance, so there is no shard label --
// one Cache, one set of metrics.
//
// ┌───────────────────────────────┬───────┐
// │ Metric                        │ Type  │
// ├────────────────────────────────┼───────┤
// │ arena_cache_hits_total         │ Ctr   │
// │ arena_cache_misses_total       │ Ctr   │
// │ arena_cache_evictions_total    │ Ctr   │
// │ arena_cache_resizes_total      │ Ctr   │
// │ arena_cache_motion_bytes_total │ Ctr   │
// │ arena_cache_size_bytes         │ Gge   │
// │ arena_cache_hsize_bytes        │ Gge   │
// │ arena_cache_live_bytes         │ Gge   │
// │ arena_cache_ttl_seconds        │ Hist  │
// └───────────────────────────────┴───────┘
//
// © 2025 arena-cache authors. MIT License.

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink abstracts the concrete backend (Prometheus vs noop). It is
// not exposed outside the package; Cache only knows about these methods.
type metricsSink interface {
	incHit()
	incMiss()
	incEvict()
	incResize()
	addMotion(delta uint64)
	setSizeBytes(size, hsize, live uint32)
	observeTTL(seconds float64)
}

/*
   ---------------- No-op implementation ----------------
*/

type noopMetrics struct{}

func (noopMetrics) incHit()                             {}
func (noopMetrics) incMiss()                            {}
func (noopMetrics) incEvict()                           {}
func (noopMetrics) incResize()                          {}
func (noopMetrics) addMotion(uint64)                    {}
func (noopMetrics) setSizeBytes(uint32, uint32, uint32) {}
func (noopMetrics) observeTTL(float64)                  {}

/*
   ---------------- Prometheus implementation ----------------
*/

type promMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	resizes   prometheus.Counter
	motion    prometheus.Counter

	sizeBytes  prometheus.Gauge
	hsizeBytes prometheus.Gauge
	liveBytes  prometheus.Gauge

	ttl prometheus.Histogram
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	pm := &promMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena_cache", Name: "hits_total", Help: "Number of cache hits.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena_cache", Name: "misses_total", Help: "Number of cache misses.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena_cache", Name: "evictions_total", Help: "Number of entries evicted to make room.",
		}),
		resizes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena_cache", Name: "resizes_total", Help: "Number of adaptive arena resizes.",
		}),
		motion: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena_cache", Name: "motion_bytes_total", Help: "Cumulative bytes written via Set.",
		}),
		sizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arena_cache", Name: "size_bytes", Help: "Current total arena size.",
		}),
		hsizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arena_cache", Name: "hsize_bytes", Help: "Current hash-head table size.",
		}),
		liveBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arena_cache", Name: "live_bytes", Help: "Bytes currently occupied by live entries.",
		}),
		ttl: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arena_cache", Name: "ttl_seconds", Help: "TTL distribution of entries written via Set.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10), // 1s .. 262144s (~73h)
		}),
	}

	reg.MustRegister(pm.hits, pm.misses, pm.evictions, pm.resizes, pm.motion,
		pm.sizeBytes, pm.hsizeBytes, pm.liveBytes, pm.ttl)
	return pm
}

func (m *promMetrics) incHit()            { m.hits.Inc() }
func (m *promMetrics) incMiss()           { m.misses.Inc() }
func (m *promMetrics) incEvict()          { m.evictions.Inc() }
func (m *promMetrics) incResize()         { m.resizes.Inc() }
func (m *promMetrics) addMotion(n uint64) { m.motion.Add(float64(n)) }
func (m *promMetrics) setSizeBytes(size, hsize, live uint32) {
	m.sizeBytes.Set(float64(size))
	m.hsizeBytes.Set(float64(hsize))
	m.liveBytes.Set(float64(live))
}
func (m *promMetrics) observeTTL(seconds float64) { m.ttl.Observe(seconds) }

/*
   ---------------- Factory ----------------
*/

// newMetricsSink decides which implementation to use. reg==nil means the
// caller did not opt in to metrics.
func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}

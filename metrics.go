package tlproxy

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes proxy counters to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests         *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
	sharedWaits      prometheus.Counter
	rateLimited      prometheus.Counter
}

// NewMetrics creates the proxy metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Translate requests by response status.",
		}, []string{"status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups for requested texts by result.",
		}, []string{"result"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_calls_total",
			Help: "Upstream translation calls by result.",
		}, []string{"result"}),
		upstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upstream_call_duration_seconds",
			Help:    "Upstream translation call latency, retries included.",
			Buckets: prometheus.DefBuckets,
		}),
		sharedWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inflight_shared_total",
			Help: "Texts whose in-flight result was delivered to more than one request.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Requests rejected by the per-client rate limit.",
		}),
	}

	reg.MustRegister(
		m.requests,
		m.cacheLookups,
		m.upstreamCalls,
		m.upstreamDuration,
		m.sharedWaits,
		m.rateLimited,
	)
	return m
}

// RegisterCacheSize exposes the current cache entry count as a gauge.
func (m *Metrics) RegisterCacheSize(reg prometheus.Registerer, size func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cache_entries",
		Help: "Entries currently held by the translation cache.",
	}, func() float64 {
		return float64(size())
	}))
}

func (m *Metrics) observeRequest(status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeCache(hits, misses int) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Add(float64(hits))
	m.cacheLookups.WithLabelValues("miss").Add(float64(misses))
}

func (m *Metrics) observeUpstream(ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.upstreamCalls.WithLabelValues(result).Inc()
	m.upstreamDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeShared() {
	if m == nil {
		return
	}
	m.sharedWaits.Inc()
}

func (m *Metrics) observeRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

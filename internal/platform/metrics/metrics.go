// Package metrics exposes the prometheus collectors for find-time queries
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "findtime"

// Metrics owns a private registry; a nil *Metrics is a valid no-op
type Metrics struct {
	reg *prometheus.Registry

	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	blocks        *prometheus.CounterVec
	oracleCalls   prometheus.Counter
	baselineCalls prometheus.Counter
	baselineHours prometheus.Counter
	cache         *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers every collector plus the go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Find-time queries by predicate, resolution and outcome",
		}, []string{"predicate", "resolution", "outcome"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Find-time query latency",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
		}, []string{"resolution"}),
		blocks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Calendar blocks examined by the pruning engine",
		}, []string{"granularity", "determination"}),
		oracleCalls: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Bounds requests sent to the oracle, one per span and reducer",
		}),
		baselineCalls: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "baseline_calls_total",
			Help:      "Exact series requests sent to the baseline",
		}),
		baselineHours: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "baseline_hours_total",
			Help:      "Hours evaluated exactly by the baseline",
		}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bounds_cache_total",
			Help:      "Bounds cache lookups by result",
		}, []string{"result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Query records one finished query
func (m *Metrics) Query(predicate, resolution, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(predicate, resolution, outcome).Inc()
	m.queryDuration.WithLabelValues(resolution).Observe(d.Seconds())
}

// Level records how the blocks of one granularity were decided
func (m *Metrics) Level(granularity string, resolvedTrue, resolvedFalse, refined int) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues(granularity, "true").Add(float64(resolvedTrue))
	m.blocks.WithLabelValues(granularity, "false").Add(float64(resolvedFalse))
	m.blocks.WithLabelValues(granularity, "refined").Add(float64(refined))
}

// Calls records collaborator traffic for one query
func (m *Metrics) Calls(oracle, baseline, baselineHours int) {
	if m == nil {
		return
	}
	m.oracleCalls.Add(float64(oracle))
	m.baselineCalls.Add(float64(baseline))
	m.baselineHours.Add(float64(baselineHours))
}

// Cache records a bounds cache lookup; result is hit, miss or error
func (m *Metrics) Cache(result string) { m.CacheN(result, 1) }

// CacheN records n block lookups with the same result
func (m *Metrics) CacheN(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cache.WithLabelValues(result).Add(float64(n))
}

// HTTP matches middleware.AccessLogOptions.Observe
func (m *Metrics) HTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

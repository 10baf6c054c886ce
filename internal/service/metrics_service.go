package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var httpLabels = []string{"method", "path", "status"}

// MetricsSnapshot is a lightweight summary of the collected metrics.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	EditsTotal               uint64    `json:"editsTotal"`
	RevertsTotal             uint64    `json:"revertsTotal"`
	ExportsTotal             uint64    `json:"exportsTotal"`
	ActiveSessions           int64     `json:"activeSessions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	edits           *prometheus.CounterVec
	reverts         *prometheus.CounterVec
	distributed     *prometheus.CounterVec
	exports         *prometheus.CounterVec
	sessions        prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	editCount            uint64
	revertCount          uint64
	exportCount          uint64
	activeSessions       int64
}

// NewMetricsService builds the collectors on a private registry so tests and
// the running server never share state.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	latency := func(subsystem, name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Subsystem: subsystem, Name: name, Help: help, Buckets: prometheus.DefBuckets}
	}
	counter := func(namespace, name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}
	}

	m := &MetricsService{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		requestDuration: factory.NewHistogramVec(latency("http", "request_duration_seconds", "Duration of HTTP requests in seconds"), httpLabels),
		requestTotal:    factory.NewCounterVec(counter("http", "requests_total", "Total number of HTTP requests"), httpLabels),
		dbQueryDuration: factory.NewHistogramVec(latency("db", "query_duration_seconds", "Duration of roster and export job queries"), []string{"query"}),

		cacheLatency:  factory.NewHistogram(latency("view_cache", "latency_seconds", "Latency for view cache lookups")),
		cacheWrite:    factory.NewHistogram(latency("view_cache", "write_seconds", "Latency for view cache writes")),
		cacheHits:     factory.NewCounter(counter("view_cache", "hits_total", "Total view cache hits")),
		cacheMisses:   factory.NewCounter(counter("view_cache", "misses_total", "Total view cache misses")),
		cacheHitRatio: factory.NewGauge(prometheus.GaugeOpts{Namespace: "view_cache", Name: "hit_ratio", Help: "Ratio of view cache hits to total lookups"}),

		edits:       factory.NewCounterVec(counter("timetable", "edits_total", "Manual timetable edits by action and outcome"), []string{"action", "outcome"}),
		reverts:     factory.NewCounterVec(counter("timetable", "reverts_total", "Audit log reverts by outcome"), []string{"outcome"}),
		exports:     factory.NewCounterVec(counter("timetable", "exports_total", "Rendered exports by format, view mode and outcome"), []string{"format", "mode", "outcome"}),
		sessions:    factory.NewGauge(prometheus.GaugeOpts{Namespace: "timetable", Name: "sessions_active", Help: "Workspaces currently held in memory"}),
		distributed: factory.NewCounterVec(counter("workload", "options_distributed_total", "Options placed by the workload distributor"), []string{"kind"}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{Name: "goroutines_total", Help: "Total number of goroutines"}, func() float64 {
		return float64(runtime.NumGoroutine())
	})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordEdit counts a manual add or delete.
func (m *MetricsService) RecordEdit(action string, err error) {
	if m == nil {
		return
	}
	m.edits.WithLabelValues(action, outcome(err)).Inc()
	if err == nil {
		atomic.AddUint64(&m.editCount, 1)
	}
}

// RecordRevert counts a revert attempt.
func (m *MetricsService) RecordRevert(err error) {
	if m == nil {
		return
	}
	m.reverts.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		atomic.AddUint64(&m.revertCount, 1)
	}
}

// RecordDistribution counts the options placed by one distributor run.
func (m *MetricsService) RecordDistribution(theory, lab int) {
	if m == nil {
		return
	}
	m.distributed.WithLabelValues("theory").Add(float64(theory))
	m.distributed.WithLabelValues("lab").Add(float64(lab))
}

// RecordExport counts a rendered export.
func (m *MetricsService) RecordExport(format, mode string, err error) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format, mode, outcome(err)).Inc()
	if err == nil {
		atomic.AddUint64(&m.exportCount, 1)
	}
}

// SetActiveSessions publishes the session registry size.
func (m *MetricsService) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
	atomic.StoreInt64(&m.activeSessions, int64(n))
}

// Snapshot returns aggregated metrics suitable for a status endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: avgDBMs,
		EditsTotal:               atomic.LoadUint64(&m.editCount),
		RevertsTotal:             atomic.LoadUint64(&m.revertCount),
		ExportsTotal:             atomic.LoadUint64(&m.exportCount),
		ActiveSessions:           atomic.LoadInt64(&m.activeSessions),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

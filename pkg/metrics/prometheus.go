// Package metrics provides Prometheus metrics for the gameboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by gameboard.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Statistics engine
	statisticResolutions *prometheus.CounterVec
	statisticLatency     *prometheus.HistogramVec
	windowFallbacks      prometheus.Counter
	trophyBoardsBuilt    prometheus.Counter
	trophyBoardLatency   prometheus.Histogram

	// Trophy cache
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter
	cacheEntries       prometheus.Gauge

	// Bracket scoring
	bracketScorings        prometheus.Counter
	bracketInconsistencies prometheus.Counter

	// Round ingest
	roundsRecorded  prometheus.Counter
	roundsDuplicate prometheus.Counter
	roundsRejected  *prometheus.CounterVec
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	workerCount     prometheus.Gauge
	workerErrors    prometheus.Counter
	workerLatency   prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // dedicated registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gameboard",
		subsystem:        "engine",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.statisticResolutions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "statistic_resolutions_total",
		Help:      "Statistic resolutions by kind (wins, percentage, heavy, unique, game)",
	}, []string{"kind"})
	m.statisticLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "statistic_resolution_milliseconds",
		Help:      "Statistic resolution latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"kind"})
	m.windowFallbacks = m.counter("window_fallbacks_total", "Window selectors that fell back to all time")
	m.trophyBoardsBuilt = m.counter("trophy_boards_built_total", "Trophy boards computed from scratch")
	m.trophyBoardLatency = m.histogram("trophy_board_milliseconds", "Trophy board computation latency in milliseconds")

	m.cacheHits = m.counter("trophy_cache_hits_total", "Trophy cache hits")
	m.cacheMisses = m.counter("trophy_cache_misses_total", "Trophy cache misses (absent or expired)")
	m.cacheInvalidations = m.counter("trophy_cache_invalidations_total", "Explicit trophy cache invalidations")
	m.cacheEntries = m.gauge("trophy_cache_entries", "Live trophy cache entries")

	m.bracketScorings = m.counter("bracket_scorings_total", "Bracket score computations")
	m.bracketInconsistencies = m.counter("bracket_inconsistencies_total", "Bracket scorings aborted on roster inconsistency")

	m.roundsRecorded = m.counter("rounds_recorded_total", "Rounds persisted")
	m.roundsDuplicate = m.counter("rounds_duplicate_total", "Round submissions dropped as duplicates")
	m.roundsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rounds_rejected_total",
		Help:      "Round submissions rejected by reason",
	}, []string{"reason"})
	m.queueSize = m.gauge("queue_size", "Round submissions waiting in the ingest queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the ingest queue")
	m.workerCount = m.gauge("worker_count", "Ingest workers running")
	m.workerErrors = m.counter("worker_errors_total", "Ingest worker failures")
	m.workerLatency = m.histogram("worker_processing_milliseconds", "Time to persist one submission")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method", "status_code"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordStatisticResolution counts one resolution of kind and its latency.
func RecordStatisticResolution(kind string, latencyMs float64) {
	globalManager.statisticResolutions.WithLabelValues(kind).Inc()
	globalManager.statisticLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordWindowFallback counts a selector that could not be parsed.
func RecordWindowFallback() {
	globalManager.windowFallbacks.Inc()
}

// RecordTrophyBoardBuilt counts a trophy board computation and its latency.
func RecordTrophyBoardBuilt(latencyMs float64) {
	globalManager.trophyBoardsBuilt.Inc()
	globalManager.trophyBoardLatency.Observe(latencyMs)
}

// RecordCacheHit increments the trophy cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the trophy cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheInvalidation increments the invalidation counter.
func RecordCacheInvalidation() {
	globalManager.cacheInvalidations.Inc()
}

// UpdateCacheEntries sets the number of live cache entries.
func UpdateCacheEntries(n int) {
	globalManager.cacheEntries.Set(float64(n))
}

// RecordBracketScoring counts one bracket scoring.
func RecordBracketScoring() {
	globalManager.bracketScorings.Inc()
}

// RecordBracketInconsistency counts a scoring aborted by a roster miss.
func RecordBracketInconsistency() {
	globalManager.bracketInconsistencies.Inc()
}

// RecordRoundRecorded counts a persisted round.
func RecordRoundRecorded() {
	globalManager.roundsRecorded.Inc()
}

// RecordRoundDuplicate counts a duplicate submission.
func RecordRoundDuplicate() {
	globalManager.roundsDuplicate.Inc()
}

// RecordRoundRejected counts a rejected submission by reason.
func RecordRoundRejected(reason string) {
	globalManager.roundsRejected.WithLabelValues(reason).Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerProcessingLatency records the time spent on one submission.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordHTTPRequest records one HTTP request and its duration.
func RecordHTTPRequest(route, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(route, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry every gameboard metric lives in.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

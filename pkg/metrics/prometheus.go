// Package metrics provides Prometheus metrics for the gamefeed engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the gamefeed service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Pipeline Metrics - What really matters for feed assembly
	pagesAssembled    prometheus.Counter
	candidatesScored  prometheus.Counter
	duplicatesDropped prometheus.Counter
	nonviableDropped  prometheus.Counter
	diversityBackfill prometheus.Counter
	poolSize          prometheus.Histogram
	assemblyLatency   prometheus.Histogram

	// Upstream Catalog Metrics
	upstreamFetches      *prometheus.CounterVec
	upstreamFetchLatency prometheus.Histogram
	breakerOpen          prometheus.Counter
	storeLookups         *prometheus.CounterVec

	// Learning Metrics - Profile and seen tracking
	interactions       *prometheus.CounterVec
	smartFeedsServed   *prometheus.CounterVec
	seenItemsTracked   prometheus.Gauge
	profileGenres      prometheus.Gauge
	persistenceErrors  *prometheus.CounterVec
	persistenceLatency prometheus.Histogram

	// Queue Metrics - Interaction queue health
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gamefeed",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// NewMetricsManager is an alias kept for callers that predate NewManager.
func NewMetricsManager(opts ...Option) *Manager {
	return NewManager(opts...)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Pipeline metrics
	m.pagesAssembled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pages_assembled_total",
		Help:      "Total number of feed pages assembled",
	})
	m.candidatesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_scored_total",
		Help:      "Total number of candidates run through the relevance scorer",
	})
	m.duplicatesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicates_dropped_total",
		Help:      "Total number of duplicate catalog items dropped during pool merge",
	})
	m.nonviableDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "nonviable_dropped_total",
		Help:      "Total number of candidates rejected by the viability gate",
	})
	m.diversityBackfill = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "diversity_backfill_total",
		Help:      "Total number of page slots filled by the cap-free backfill pass",
	})
	m.poolSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_size",
		Help:      "Candidate pool size after merge and dedupe",
		Buckets:   []float64{0, 5, 10, 20, 40, 60, 80, 120, 200},
	})
	m.assemblyLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assembly_latency_milliseconds",
		Help:      "End-to-end page assembly latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Upstream catalog metrics
	m.upstreamFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_fetches_total",
		Help:      "Upstream catalog page fetches by outcome",
	}, []string{"outcome"})
	m.upstreamFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_fetch_latency_milliseconds",
		Help:      "Upstream catalog page fetch latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.breakerOpen = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_breaker_open_total",
		Help:      "Total number of requests rejected by the open circuit breaker",
	})
	m.storeLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_lookups_total",
		Help:      "Store-link lookups by outcome",
	}, []string{"outcome"})

	// Learning metrics
	m.interactions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "interactions_total",
		Help:      "Recorded viewer interactions by kind",
	}, []string{"kind"})
	m.smartFeedsServed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "smart_feeds_served_total",
		Help:      "Smart feeds served by phase (bootstrap or tiered)",
	}, []string{"phase"})
	m.seenItemsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "seen_items_tracked",
		Help:      "Number of distinct items in the seen tracker",
	})
	m.profileGenres = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_genres",
		Help:      "Number of genres with a learned affinity",
	})
	m.persistenceErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_errors_total",
		Help:      "Persistence failures by operation",
	}, []string{"op"})
	m.persistenceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_latency_milliseconds",
		Help:      "Persistence operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Queue metrics
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of queued interaction events",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured interaction queue capacity",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Interaction queue utilization ratio (0-1)",
	})
	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total number of enqueued interaction events",
	})
	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total number of dequeued interaction events",
	})
	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of rejected enqueue attempts",
	})

	// HTTP metrics
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	// System metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "System memory usage in bytes",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Pipeline helpers.

// RecordPageAssembled increments the assembled pages counter.
func RecordPageAssembled() {
	globalManager.pagesAssembled.Inc()
}

// RecordCandidatesScored adds to the scored candidates counter.
func RecordCandidatesScored(n int) {
	globalManager.candidatesScored.Add(float64(n))
}

// RecordDuplicateDropped increments the dropped duplicates counter.
func RecordDuplicateDropped() {
	globalManager.duplicatesDropped.Inc()
}

// RecordNonviableDropped adds to the viability-gate rejection counter.
func RecordNonviableDropped(n int) {
	globalManager.nonviableDropped.Add(float64(n))
}

// RecordDiversityBackfill adds to the backfill slot counter.
func RecordDiversityBackfill(n int) {
	globalManager.diversityBackfill.Add(float64(n))
}

// ObservePoolSize records the candidate pool size after merge.
func ObservePoolSize(n int) {
	globalManager.poolSize.Observe(float64(n))
}

// RecordAssemblyLatency records page assembly latency in milliseconds.
func RecordAssemblyLatency(latencyMs float64) {
	globalManager.assemblyLatency.Observe(latencyMs)
}

// Upstream helpers.

// RecordUpstreamFetch counts an upstream page fetch by outcome ("ok" or "error").
func RecordUpstreamFetch(outcome string) {
	globalManager.upstreamFetches.WithLabelValues(outcome).Inc()
}

// RecordUpstreamFetchLatency records upstream fetch latency in milliseconds.
func RecordUpstreamFetchLatency(latencyMs float64) {
	globalManager.upstreamFetchLatency.Observe(latencyMs)
}

// RecordBreakerOpen counts a request rejected by the open circuit breaker.
func RecordBreakerOpen() {
	globalManager.breakerOpen.Inc()
}

// RecordStoreLookup counts a store-link lookup by outcome.
func RecordStoreLookup(outcome string) {
	globalManager.storeLookups.WithLabelValues(outcome).Inc()
}

// Learning helpers.

// RecordInteraction counts a recorded interaction by kind.
func RecordInteraction(kind string) {
	globalManager.interactions.WithLabelValues(kind).Inc()
}

// RecordSmartFeedServed counts a served smart feed by phase.
func RecordSmartFeedServed(phase string) {
	globalManager.smartFeedsServed.WithLabelValues(phase).Inc()
}

// UpdateSeenItemsTracked sets the seen tracker cardinality gauge.
func UpdateSeenItemsTracked(count int) {
	globalManager.seenItemsTracked.Set(float64(count))
}

// UpdateProfileGenres sets the learned genre count gauge.
func UpdateProfileGenres(count int) {
	globalManager.profileGenres.Set(float64(count))
}

// RecordPersistenceError counts a persistence failure by operation ("load" or "save").
func RecordPersistenceError(op string) {
	globalManager.persistenceErrors.WithLabelValues(op).Inc()
}

// RecordPersistenceLatency records persistence latency in milliseconds.
func RecordPersistenceLatency(latencyMs float64) {
	globalManager.persistenceLatency.Observe(latencyMs)
}

// Queue helpers.

// UpdateQueueSize sets the interaction queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the interaction queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the interaction queue utilization gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the rejected enqueue counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// HTTP helpers.

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// System helpers.

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus metrics for the RoboStorm comparison service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Dispatcher
	dispatchRequests *prometheus.CounterVec
	dispatchLatency  *prometheus.HistogramVec

	// Comparison engine
	comparisons           *prometheus.CounterVec
	interactionsRecorded  *prometheus.CounterVec
	interactionsDuplicate prometheus.Counter
	robotsTotal           prometheus.Gauge
	newsImported          prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "robostorm",
		subsystem:        "comparison",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // metric declarations
	auto := promauto.With(m.registry)

	m.dispatchRequests = m.counterVec("dispatch_requests_total",
		"Dispatcher requests by action and outcome (ok or error kind)", "action", "outcome")
	m.dispatchLatency = m.histogramVec("dispatch_latency_milliseconds",
		"Dispatcher latency in milliseconds by action", "action")

	m.comparisons = m.counterVec("comparisons_total",
		"Computed comparisons by overall winner", "overall_winner")
	m.interactionsRecorded = m.counterVec("interactions_recorded_total",
		"Recorded interaction events by interaction type", "interaction_type")
	m.interactionsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "interactions_duplicate_total",
		Help:        "Interaction events collapsed by idempotency key",
		ConstLabels: m.constLabels,
	})
	m.robotsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "robots_total",
		Help:        "Robots known to the entity store",
		ConstLabels: m.constLabels,
	})
	m.newsImported = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "news_imported_total",
		Help:        "Curated news articles imported",
		ConstLabels: m.constLabels,
	})

	m.storeLatency = m.histogramVec("store_latency_milliseconds",
		"Entity store call latency in milliseconds by operation", "operation")
	m.storeErrors = m.counterVec("store_errors_total",
		"Entity store call failures by operation and reason", "operation", "reason")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total",
		"Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
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

// RecordDispatch records one dispatcher call. Outcome is "ok" or an error kind.
func RecordDispatch(action, outcome string, latencyMs float64) {
	globalManager.dispatchRequests.WithLabelValues(action, outcome).Inc()
	globalManager.dispatchLatency.WithLabelValues(action).Observe(latencyMs)
}

// RecordComparison increments the comparisons counter for the overall winner.
func RecordComparison(overallWinner string) {
	globalManager.comparisons.WithLabelValues(overallWinner).Inc()
}

// RecordInteraction increments the recorded interactions counter.
func RecordInteraction(interactionType string) {
	globalManager.interactionsRecorded.WithLabelValues(interactionType).Inc()
}

// RecordInteractionDuplicate increments the duplicate interactions counter.
func RecordInteractionDuplicate() {
	globalManager.interactionsDuplicate.Inc()
}

// UpdateRobotsTotal sets the robots gauge.
func UpdateRobotsTotal(count int) {
	globalManager.robotsTotal.Set(float64(count))
}

// RecordNewsImported adds n imported articles.
func RecordNewsImported(n int) {
	globalManager.newsImported.Add(float64(n))
}

// RecordStoreCall records an entity store call latency.
func RecordStoreCall(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError increments the store error counter.
func RecordStoreError(operation, reason string) {
	globalManager.storeErrors.WithLabelValues(operation, reason).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
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

// Package metrics exposes Prometheus instrumentation for the reading service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Reading tracker metrics
	sessionsStarted prometheus.Counter
	sessionsIgnored prometheus.Counter
	validReads      prometheus.Counter
	invalidReads    prometheus.Counter
	activeSessions  prometheus.Gauge

	// Telemetry pipeline metrics
	telemetryAccepted prometheus.Counter
	telemetryDropped  prometheus.Counter
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	workerCount       prometheus.Gauge
	applyLatency      prometheus.Histogram

	// Upload signing metrics
	signRequests   *prometheus.CounterVec
	rateLimited    prometheus.Counter
	presignLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Runtime metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry avoids the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "comite",
		subsystem:        "reading",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics registers all collectors on the configured registry.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_started_total",
		Help:      "Total number of reading sessions started",
	})

	m.sessionsIgnored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_ignored_total",
		Help:      "Start requests ignored because a session was active or the chapter was already read",
	})

	m.validReads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "valid_reads_total",
		Help:      "Sessions that ended with a passing validity verdict",
	})

	m.invalidReads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "invalid_reads_total",
		Help:      "Sessions that ended without meeting the validity thresholds",
	})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Number of reading sessions currently tracked",
	})

	m.telemetryAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "telemetry_events_total",
		Help:      "Telemetry beacons accepted into the queue",
	})

	m.telemetryDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "telemetry_dropped_total",
		Help:      "Telemetry beacons dropped due to backpressure",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "telemetry_queue_size",
		Help:      "Current number of queued telemetry events",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "telemetry_queue_capacity",
		Help:      "Configured telemetry queue capacity",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "telemetry_worker_count",
		Help:      "Number of telemetry workers",
	})

	m.applyLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "telemetry_apply_latency_milliseconds",
		Help:      "Histogram of telemetry apply latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.signRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "upload",
		Name:      "sign_requests_total",
		Help:      "Upload signing requests by outcome",
	}, []string{"outcome"})

	m.rateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "upload",
		Name:      "rate_limited_total",
		Help:      "Upload signing requests rejected by the rate limiter",
	})

	m.presignLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "upload",
		Name:      "presign_latency_milliseconds",
		Help:      "Histogram of presigned URL generation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Allocated heap bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Number of goroutines",
	})
}

// Tracker helpers.

// RecordSessionStarted increments the started sessions counter.
func RecordSessionStarted() { globalManager.sessionsStarted.Inc() }

// RecordSessionIgnored increments the ignored start counter.
func RecordSessionIgnored() { globalManager.sessionsIgnored.Inc() }

// RecordValidRead increments the valid reads counter.
func RecordValidRead() { globalManager.validReads.Inc() }

// RecordInvalidRead increments the invalid reads counter.
func RecordInvalidRead() { globalManager.invalidReads.Inc() }

// UpdateActiveSessions sets the tracked session gauge.
func UpdateActiveSessions(n int) { globalManager.activeSessions.Set(float64(n)) }

// Telemetry pipeline helpers.

// RecordTelemetryAccepted increments the accepted telemetry counter.
func RecordTelemetryAccepted() { globalManager.telemetryAccepted.Inc() }

// RecordTelemetryDropped increments the dropped telemetry counter.
func RecordTelemetryDropped() { globalManager.telemetryDropped.Inc() }

// UpdateQueueSize sets the current telemetry queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateWorkerCount sets the telemetry worker gauge.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordApplyLatency records telemetry apply latency in milliseconds.
func RecordApplyLatency(latencyMs float64) { globalManager.applyLatency.Observe(latencyMs) }

// Upload signing helpers.

// RecordSignRequest increments the sign-request counter for an outcome,
// e.g. "ok", "unauthorized", "forbidden", "bad_request", "error".
func RecordSignRequest(outcome string) { globalManager.signRequests.WithLabelValues(outcome).Inc() }

// RecordRateLimited increments the rate-limited counter.
func RecordRateLimited() { globalManager.rateLimited.Inc() }

// RecordPresignLatency records presign latency in milliseconds.
func RecordPresignLatency(latencyMs float64) { globalManager.presignLatency.Observe(latencyMs) }

// HTTP helpers.

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
}

// Runtime helpers.

// UpdateSystemMemoryUsage sets the heap usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry all service metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package metrics provides Prometheus metrics for the salary prediction service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the salary service.
type Manager struct {
	namespace         string
	subsystem         string
	histogramBuckets  []float64
	predictionBuckets []float64
	enabled           bool
	refreshInterval   time.Duration
	customLabels      map[string]string
	metricPrefix      string
	registry          prometheus.Registerer

	// Prediction metrics
	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	predictionErrors  *prometheus.CounterVec
	unknownCategories *prometheus.CounterVec
	validationErrors  *prometheus.CounterVec
	clampedSalaries   prometheus.Counter

	// Cache metrics
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Artifact metrics
	artifactInfo     *prometheus.GaugeVec
	artifactFeatures prometheus.Gauge
	artifactLoadTime prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec

	// Error metrics
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:         "salarygauge",
		subsystem:         "predictor",
		histogramBuckets:  defaultRequestBuckets,
		predictionBuckets: defaultPredictionBuckets,
		enabled:           true,
		refreshInterval:   defaultRefreshInterval,
		customLabels:      make(map[string]string),
		metricPrefix:      "",
		registry:          prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Total number of salary predictions served"),
		[]string{"source"},
	)
	m.predictionLatency = auto.NewHistogram(
		m.histogramOpts("prediction_latency_milliseconds", "Feature preparation and model latency in milliseconds", m.predictionBuckets),
	)
	m.predictionErrors = auto.NewCounterVec(
		m.counterOpts("prediction_errors_total", "Total number of failed predictions by error kind"),
		[]string{"kind"},
	)
	m.unknownCategories = auto.NewCounterVec(
		m.counterOpts("unknown_categories_total", "Categorical values outside the training vocabulary"),
		[]string{"feature", "resolution"},
	)
	m.validationErrors = auto.NewCounterVec(
		m.counterOpts("validation_errors_total", "Rejected input fields by field name"),
		[]string{"field"},
	)
	m.clampedSalaries = auto.NewCounter(
		m.counterOpts("clamped_predictions_total", "Negative model outputs clamped to zero"),
	)

	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Prediction cache hits"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Prediction cache misses"))

	m.artifactInfo = auto.NewGaugeVec(
		m.gaugeOpts("artifact_info", "Loaded model artifact, value is always 1"),
		[]string{"version", "schema", "model_kind", "scaler_kind"},
	)
	m.artifactFeatures = auto.NewGauge(
		m.gaugeOpts("artifact_features", "Number of columns in the loaded feature schema"),
	)
	m.artifactLoadTime = auto.NewHistogram(
		m.histogramOpts("artifact_load_duration_milliseconds", "Artifact load duration in milliseconds", m.histogramBuckets),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.rateLimited = auto.NewCounterVec(
		m.counterOpts("rate_limited_total", "Requests rejected by the rate limiter"),
		[]string{"endpoint"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Enabled reports whether recorders write to the collectors.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is the sampling period of the system collector.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RecordPrediction increments the predictions counter; source is "model" or "cache".
func RecordPrediction(source string) {
	if !globalManager.enabled {
		return
	}
	globalManager.predictions.WithLabelValues(source).Inc()
}

// RecordPredictionLatency records pipeline latency in milliseconds.
func RecordPredictionLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordPredictionError counts a failed prediction by error kind.
func RecordPredictionError(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.predictionErrors.WithLabelValues(kind).Inc()
}

// RecordUnknownCategory counts an out-of-vocabulary value and how it was resolved.
func RecordUnknownCategory(feature, resolution string) {
	if !globalManager.enabled {
		return
	}
	globalManager.unknownCategories.WithLabelValues(feature, resolution).Inc()
}

// RecordValidationError counts a rejected field.
func RecordValidationError(field string) {
	if !globalManager.enabled {
		return
	}
	globalManager.validationErrors.WithLabelValues(field).Inc()
}

// RecordClampedPrediction counts a negative output clamped to zero.
func RecordClampedPrediction() {
	if !globalManager.enabled {
		return
	}
	globalManager.clampedSalaries.Inc()
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheMisses.Inc()
}

// SetArtifactInfo publishes the identity of the loaded artifact.
func SetArtifactInfo(version, schema, modelKind, scalerKind string, features int) {
	if !globalManager.enabled {
		return
	}
	globalManager.artifactInfo.Reset()
	globalManager.artifactInfo.WithLabelValues(version, schema, modelKind, scalerKind).Set(1)
	globalManager.artifactFeatures.Set(float64(features))
}

// RecordArtifactLoad records how long the artifact took to load.
func RecordArtifactLoad(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.artifactLoadTime.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	if !globalManager.enabled {
		return
	}
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
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

// SampleSystem reads runtime statistics once and updates the system gauges.
// lastGC is the GC count seen by the previous sample; the new count is returned.
func SampleSystem(lastGC uint32) uint32 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.HeapAlloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// PauseNs is a ring buffer of the most recent 256 pauses.
	n := ms.NumGC - lastGC
	if n > uint32(len(ms.PauseNs)) {
		n = uint32(len(ms.PauseNs))
	}
	for i := uint32(0); i < n; i++ {
		idx := (ms.NumGC - 1 - i) % uint32(len(ms.PauseNs))
		RecordSystemGCPauseTime(float64(ms.PauseNs[idx]) / float64(time.Millisecond))
	}
	return ms.NumGC
}

// RunSystemCollector samples runtime statistics every refresh interval until ctx is done.
func RunSystemCollector(ctx context.Context) {
	ticker := time.NewTicker(globalManager.refreshInterval)
	defer ticker.Stop()
	last := SampleSystem(0)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last = SampleSystem(last)
		}
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

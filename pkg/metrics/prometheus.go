// Package metrics provides Prometheus metrics for the sightmark service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the sightmark service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	clickBuckets   []float64
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Core Business Metrics
	adjustmentsComputed *prometheus.CounterVec
	adjustmentClicks    *prometheus.HistogramVec
	invalidInputs       *prometheus.CounterVec

	// Photo Metrics
	photosDecoded      *prometheus.CounterVec
	photoErrors        *prometheus.CounterVec
	photoDecodeLatency prometheus.Histogram
	overlaysRendered   prometheus.Counter

	// Batch Metrics
	batchSize     prometheus.Histogram
	batchRejected *prometheus.CounterVec

	// Queue Metrics
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerCount             prometheus.Gauge
	workerJobsProcessed     prometheus.Counter
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
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
		namespace:      "sightmark",
		subsystem:      "adjust",
		latencyBuckets: prometheus.DefBuckets,
		clickBuckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.adjustmentsComputed = m.counterVec("adjustments_total",
		"Total number of axis adjustments computed by axis and direction", "axis", "direction")
	m.adjustmentClicks = m.histogramVec("adjustment_clicks",
		"Histogram of total clicks per axis adjustment", m.clickBuckets, "axis")
	m.invalidInputs = m.counterVec("invalid_inputs_total",
		"Total number of rejected calculation inputs by source", "source")

	m.photosDecoded = m.counterVec("photos_decoded_total",
		"Total number of decoded target photos by format", "format")
	m.photoErrors = m.counterVec("photo_errors_total",
		"Total number of photo decode failures by reason", "reason")
	m.photoDecodeLatency = m.histogram("photo_decode_latency_milliseconds",
		"Photo decode latency in milliseconds", m.latencyBuckets)
	m.overlaysRendered = m.counter("overlays_rendered_total",
		"Total number of crosshair overlays rendered")

	m.batchSize = m.histogram("batch_size",
		"Number of items per batch request", []float64{1, 2, 5, 10, 25, 50, 100, 250, 500})
	m.batchRejected = m.counterVec("batch_rejected_total",
		"Total number of rejected batch requests by reason", "reason")

	m.queueCapacity = m.gauge("queue_capacity", "Maximum job queue capacity")
	m.queueSize = m.gauge("queue_size", "Current size of the job queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue errors")

	m.workerCount = m.gauge("worker_count", "Current number of batch workers")
	m.workerJobsProcessed = m.counter("worker_jobs_processed_total", "Total number of jobs processed by workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Worker processing latency in milliseconds", m.latencyBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of jobs that finished with an error")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.latencyBuckets, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds",
		"Latency of failed operations in milliseconds", m.latencyBuckets, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordAdjustment records one computed axis adjustment.
func RecordAdjustment(axis, direction string, totalClicks int) {
	globalManager.adjustmentsComputed.WithLabelValues(axis, direction).Inc()
	globalManager.adjustmentClicks.WithLabelValues(axis).Observe(float64(totalClicks))
}

// RecordInvalidInput increments the rejected inputs counter.
func RecordInvalidInput(source string) {
	globalManager.invalidInputs.WithLabelValues(source).Inc()
}

// RecordPhotoDecoded increments the decoded photos counter.
func RecordPhotoDecoded(format string) {
	globalManager.photosDecoded.WithLabelValues(format).Inc()
}

// RecordPhotoError increments the photo errors counter.
func RecordPhotoError(reason string) {
	globalManager.photoErrors.WithLabelValues(reason).Inc()
}

// RecordPhotoDecodeLatency records photo decode latency in milliseconds.
func RecordPhotoDecodeLatency(latencyMs float64) {
	globalManager.photoDecodeLatency.Observe(latencyMs)
}

// RecordOverlayRendered increments the rendered overlays counter.
func RecordOverlayRendered() {
	globalManager.overlaysRendered.Inc()
}

// RecordBatch records the size of an accepted batch.
func RecordBatch(size int) {
	globalManager.batchSize.Observe(float64(size))
}

// RecordBatchRejected increments the rejected batches counter.
func RecordBatchRejected(reason string) {
	globalManager.batchRejected.WithLabelValues(reason).Inc()
}

// Queue Metrics Functions.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueUtilization sets the queue utilization ratio.
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

// RecordQueueEnqueueError increments the enqueue errors counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerJobProcessed increments the processed jobs counter.
func RecordWorkerJobProcessed() {
	globalManager.workerJobsProcessed.Inc()
}

// RecordWorkerProcessingLatency records worker processing latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker errors counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent increments the error counter for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType increments the error counter for a type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments the error counter for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

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

// RegisterCollector adds an extra collector to the service registry.
func RegisterCollector(c prometheus.Collector) error {
	if err := customRegistry.Register(c); err != nil {
		return fmt.Errorf("%w: %w", ErrRegister, err)
	}
	return nil
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

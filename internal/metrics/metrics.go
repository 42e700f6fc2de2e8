// Package metrics holds the Prometheus collectors of the embed service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the application metrics
type Metrics struct {
	// HTTP request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Storage operation metrics
	StorageOperationTotal    *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	ConfigCacheTotal         *prometheus.CounterVec

	// Event publishing metrics
	EventPublishTotal    *prometheus.CounterVec
	EventPublishDuration *prometheus.HistogramVec

	// Schema validation metrics
	SchemaValidationTotal    *prometheus.CounterVec
	SchemaValidationDuration *prometheus.HistogramVec

	// Rendering metrics
	RenderTotal            *prometheus.CounterVec
	RenderDuration         *prometheus.HistogramVec
	RenderedRecords        *prometheus.HistogramVec
	ViabilityWarningsTotal *prometheus.CounterVec
}

// Global metrics instance with mutex for thread safety
var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics returns the process-wide Metrics instance, creating and
// registering it on first use.
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		StorageOperationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storage_operations_total",
			Help: "Total number of storage operations",
		}, []string{"operation", "status"}),

		StorageOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),

		ConfigCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "embed_config_cache_total",
			Help: "Embed configuration cache lookups by result",
		}, []string{"result"}),

		EventPublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "event_publish_total",
			Help: "Total number of event publish operations",
		}, []string{"event_type", "status"}),

		EventPublishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "event_publish_duration_seconds",
			Help:    "Event publish duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"event_type", "status"}),

		SchemaValidationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schema_validation_total",
			Help: "Total number of schema validation operations",
		}, []string{"document", "status"}),

		SchemaValidationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "schema_validation_duration_seconds",
			Help:    "Schema validation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"document", "status"}),

		RenderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "embed_render_total",
			Help: "Total number of embed render passes",
		}, []string{"embed_type", "strategy"}),

		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "embed_render_duration_seconds",
			Help:    "Embed render duration in seconds, excluding data access",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"embed_type", "strategy"}),

		RenderedRecords: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "embed_render_records",
			Help:    "Number of testimonials handed to a render pass",
			Buckets: []float64{0, 1, 3, 10, 25, 50, 100},
		}, []string{"embed_type"}),

		ViabilityWarningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "embed_viability_warnings_total",
			Help: "Viability warnings raised by embed type and condition",
		}, []string{"embed_type", "code", "severity"}),
	}

	registerMetrics(m)
	globalMetrics = m
	return m
}

// registerMetrics registers all metrics with the default registry
func registerMetrics(m *Metrics) {
	for _, c := range []prometheus.Collector{
		m.HTTPRequestTotal,
		m.HTTPRequestDuration,
		m.StorageOperationTotal,
		m.StorageOperationDuration,
		m.ConfigCacheTotal,
		m.EventPublishTotal,
		m.EventPublishDuration,
		m.SchemaValidationTotal,
		m.SchemaValidationDuration,
		m.RenderTotal,
		m.RenderDuration,
		m.RenderedRecords,
		m.ViabilityWarningsTotal,
	} {
		registerOrGet(c)
	}
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}

// ObserveStorage records one storage operation.
func (m *Metrics) ObserveStorage(operation string, start time.Time, err error) {
	status := statusOf(err)
	m.StorageOperationTotal.WithLabelValues(operation, status).Inc()
	m.StorageOperationDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// ObserveSchema records one schema validation.
func (m *Metrics) ObserveSchema(document string, start time.Time, err error) {
	status := statusOf(err)
	m.SchemaValidationTotal.WithLabelValues(document, status).Inc()
	m.SchemaValidationDuration.WithLabelValues(document, status).Observe(time.Since(start).Seconds())
}

// ObserveRender records one render pass.
func (m *Metrics) ObserveRender(embedType, strategy string, records int, d time.Duration) {
	m.RenderTotal.WithLabelValues(embedType, strategy).Inc()
	m.RenderDuration.WithLabelValues(embedType, strategy).Observe(d.Seconds())
	m.RenderedRecords.WithLabelValues(embedType).Observe(float64(records))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

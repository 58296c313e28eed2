// Package metrics provides Prometheus metrics for the intake service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the intake service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Pipeline Metrics - per-provider batch outcomes
	filesProcessed *prometheus.CounterVec
	parseFailures  *prometheus.CounterVec
	rowsRejected   *prometheus.CounterVec
	recordsEmitted *prometheus.CounterVec
	batchDuration  prometheus.Histogram

	// Orchestration Metrics - input directory sweeps
	pollCycles       prometheus.Counter
	unknownProviders prometheus.Counter
	inputBacklog     prometheus.Gauge

	// System Performance Metrics
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
		namespace:        "intake",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.filesProcessed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "files_processed_total",
			Help:      "Total number of input files normalized successfully",
		},
		[]string{"provider"},
	)

	m.parseFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "parse_failures_total",
			Help:      "Total number of input files rejected as structurally malformed",
		},
		[]string{"provider"},
	)

	m.rowsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rows_rejected_total",
			Help:      "Total number of rows excluded from output by validation",
		},
		[]string{"provider"},
	)

	m.recordsEmitted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "records_emitted_total",
			Help:      "Total number of canonical records written to the output directory",
		},
		[]string{"provider"},
	)

	m.batchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_duration_milliseconds",
		Help:      "Histogram of end-to-end batch normalization duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.pollCycles = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "poll_cycles_total",
		Help:      "Total number of input directory sweeps",
	})

	m.unknownProviders = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unknown_providers_total",
		Help:      "Total number of input files with an unrecognized provider identifier",
	})

	m.inputBacklog = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "input_backlog",
		Help:      "Current number of files waiting in the input directory",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Current memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Histogram of garbage collection pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// RecordFileProcessed increments the processed-file counter for a provider.
func RecordFileProcessed(provider string) {
	if globalManager.enabled {
		globalManager.filesProcessed.WithLabelValues(provider).Inc()
	}
}

// RecordParseFailure increments the parse-failure counter for a provider.
func RecordParseFailure(provider string) {
	if globalManager.enabled {
		globalManager.parseFailures.WithLabelValues(provider).Inc()
	}
}

// RecordRowsRejected adds the number of rows excluded by one validation pass.
func RecordRowsRejected(provider string, count int) {
	if globalManager.enabled {
		globalManager.rowsRejected.WithLabelValues(provider).Add(float64(count))
	}
}

// RecordRecordsEmitted adds the number of canonical records written for a batch.
func RecordRecordsEmitted(provider string, count int) {
	if globalManager.enabled {
		globalManager.recordsEmitted.WithLabelValues(provider).Add(float64(count))
	}
}

// RecordBatchDuration observes one batch normalization duration.
func RecordBatchDuration(durationMs float64) {
	if globalManager.enabled {
		globalManager.batchDuration.Observe(durationMs)
	}
}

// RecordPollCycle increments the input directory sweep counter.
func RecordPollCycle() {
	if globalManager.enabled {
		globalManager.pollCycles.Inc()
	}
}

// RecordUnknownProvider increments the unrecognized-provider counter.
func RecordUnknownProvider() {
	if globalManager.enabled {
		globalManager.unknownProviders.Inc()
	}
}

// UpdateInputBacklog sets the current input directory backlog gauge.
func UpdateInputBacklog(count int) {
	if globalManager.enabled {
		globalManager.inputBacklog.Set(float64(count))
	}
}

// UpdateSystemMemoryUsage sets the current memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the current goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime observes one GC pause duration.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

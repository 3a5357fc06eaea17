// Package metrics provides Prometheus metrics for the savor pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Ingestion metrics
	pagesFetched         prometheus.Counter
	recordsFetched       prometheus.Counter
	fetchRequestDuration prometheus.Histogram
	fetchErrors          prometheus.Counter

	// Validation metrics
	recordsFiltered prometheus.Counter
	recordsDeduped  prometheus.Counter

	// Selection metrics
	recordsAdmitted   prometheus.Counter
	recordsEvicted    prometheus.Counter
	recordsDiscarded  prometheus.Counter
	selectorSize      *prometheus.GaugeVec
	scoreDistribution prometheus.Histogram

	// Pipe metrics
	pipeSize          prometheus.Gauge
	pipeCapacity      prometheus.Gauge
	pipeEnqueueErrors prometheus.Counter

	// Stage timings
	stageDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "savor",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.pagesFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pages_fetched_total",
		Help:      "Total number of dataset pages downloaded from the API",
	})
	m.recordsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_fetched_total",
		Help:      "Total number of raw records received from the API",
	})
	m.fetchRequestDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_request_duration_seconds",
		Help:      "Duration of API requests issued by the fetcher",
		Buckets:   m.histogramBuckets,
	})
	m.fetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_errors_total",
		Help:      "Total number of failed API requests",
	})

	m.recordsFiltered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_filtered_total",
		Help:      "Total number of records rejected by the validator",
	})
	m.recordsDeduped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_deduped_total",
		Help:      "Total number of duplicate record ids skipped",
	})

	m.recordsAdmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_admitted_total",
		Help:      "Total number of records admitted into a candidate set",
	})
	m.recordsEvicted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_evicted_total",
		Help:      "Total number of records evicted from a full candidate set",
	})
	m.recordsDiscarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_discarded_total",
		Help:      "Total number of records that did not beat the current minimum",
	})
	m.selectorSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selector_size",
		Help:      "Current number of records held by each shard selector",
	}, []string{"shard"})
	m.scoreDistribution = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "record_score",
		Help:      "Distribution of computed record scores",
		Buckets:   prometheus.LinearBuckets(-400, 50, 11),
	})

	m.pipeSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipe_size",
		Help:      "Current number of records buffered in the pipe",
	})
	m.pipeCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipe_capacity",
		Help:      "Configured capacity of the record pipe",
	})
	m.pipeEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipe_enqueue_errors_total",
		Help:      "Total number of records that could not be enqueued",
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages (fetch, select, persist)",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})
}

// Handler returns an HTTP handler exposing the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package-level helpers on the global manager.

func RecordPageFetched()            { globalManager.pagesFetched.Inc() }
func RecordRecordsFetched(n int)    { globalManager.recordsFetched.Add(float64(n)) }
func RecordFetchDuration(s float64) { globalManager.fetchRequestDuration.Observe(s) }
func RecordFetchError()             { globalManager.fetchErrors.Inc() }
func RecordFiltered()               { globalManager.recordsFiltered.Inc() }
func RecordDeduped()                { globalManager.recordsDeduped.Inc() }
func RecordAdmitted()               { globalManager.recordsAdmitted.Inc() }
func RecordEvicted()                { globalManager.recordsEvicted.Inc() }
func RecordDiscarded()              { globalManager.recordsDiscarded.Inc() }
func RecordScore(score float64)     { globalManager.scoreDistribution.Observe(score) }
func RecordPipeEnqueueError()       { globalManager.pipeEnqueueErrors.Inc() }
func UpdatePipeSize(n int)          { globalManager.pipeSize.Set(float64(n)) }
func UpdatePipeCapacity(n int)      { globalManager.pipeCapacity.Set(float64(n)) }
func ObserveStage(stage string, s float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(s)
}

// UpdateSelectorSize sets the candidate-set size gauge for one shard.
func UpdateSelectorSize(shard string, n int) {
	globalManager.selectorSize.WithLabelValues(shard).Set(float64(n))
}

// Handler exposes the global registry for an optional /metrics listener.
func Handler() http.Handler {
	return globalManager.Handler()
}

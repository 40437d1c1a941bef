// Package metrics provides Prometheus metrics for the gigrec recommendation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	sizeBuckets      []float64
	registry         prometheus.Registerer

	// Ingestion
	eventsTracked     *prometheus.CounterVec
	eventsUnknownItem *prometheus.CounterVec
	eventsDuplicate   prometheus.Counter
	registrations     *prometheus.CounterVec
	validationErrors  *prometheus.CounterVec

	// Queries
	queryLatency  *prometheus.HistogramVec
	candidatePool prometheus.Histogram
	emptyResults  *prometheus.CounterVec

	// Similarity cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Engine state
	registeredItems *prometheus.GaugeVec
	trackedUsers    prometheus.Gauge
	trendingItems   prometheus.Gauge

	// Warm start and persistence
	warmupLoaded   *prometheus.CounterVec
	warmupFailures prometheus.Counter
	storeErrors    *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // metrics must exist before any component records
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gigrec",
		subsystem:        "engine",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		sizeBuckets:      []float64{0, 1, 5, 10, 25, 50, 100, 200, 400},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		}, labels)
	}
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		})
	}

	m.eventsTracked = counterVec("events_tracked_total", "Tracked behavior events by kind", "kind")
	m.eventsUnknownItem = counterVec("events_unknown_item_total", "Events whose item had no registered features", "kind")
	m.eventsDuplicate = counter("events_duplicate_total", "Events dropped by idempotency check")
	m.registrations = counterVec("registrations_total", "Feature registrations by item kind", "kind")
	m.validationErrors = counterVec("validation_errors_total", "Rejected registration payloads by item kind", "kind")

	m.queryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "query_latency_milliseconds",
		Help:    "Latency of read queries in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"operation"})
	m.candidatePool = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "candidate_pool_size",
		Help:    "Number of candidates scored per recommendation query",
		Buckets: m.sizeBuckets,
	})
	m.emptyResults = counterVec("empty_results_total", "Queries that returned no results", "operation")

	m.cacheHits = counter("similarity_cache_hits_total", "Similarity cache hits")
	m.cacheMisses = counter("similarity_cache_misses_total", "Similarity cache misses")

	m.registeredItems = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "registered_items", Help: "Registered items by kind",
	}, []string{"kind"})
	m.trackedUsers = gauge("tracked_users", "Users with at least one interaction")
	m.trendingItems = gauge("trending_items", "Items with a non-empty trending window")

	m.warmupLoaded = counterVec("warmup_loaded_total", "Records replayed during warm start", "kind")
	m.warmupFailures = counter("warmup_failures_total", "Warm starts aborted by a failure")
	m.storeErrors = counterVec("store_errors_total", "Backing store failures by operation", "operation")

	m.queueSize = gauge("queue_size", "Current size of the event queue")
	m.queueCapacity = gauge("queue_capacity", "Capacity of the event queue")
	m.queueUtilization = gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = counter("queue_enqueued_total", "Events enqueued")
	m.queueDequeued = counter("queue_dequeued_total", "Events dequeued")
	m.queueEnqueueErrors = counter("queue_enqueue_errors_total", "Rejected enqueue attempts")

	m.workerCount = gauge("worker_count", "Number of event workers")
	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_processing_latency_milliseconds",
		Help:    "Time to apply one queued event",
		Buckets: m.histogramBuckets,
	})
	m.workerErrors = counter("worker_errors_total", "Events the workers failed to apply")

	m.httpRequests = counterVec("http_requests_total", "HTTP requests by endpoint", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = counterVec("http_errors_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByComponent = counterVec("errors_total", "Errors by component", "component", "error_type")

	m.systemMemoryUsage = gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "system_gc_pause_milliseconds",
		Help:    "Average GC pause in milliseconds",
		Buckets: m.histogramBuckets,
	})
}

// RecordEventTracked counts a tracked event of kind.
func RecordEventTracked(kind string) { globalManager.eventsTracked.WithLabelValues(kind).Inc() }

// RecordEventUnknownItem counts an event whose item is not registered.
func RecordEventUnknownItem(kind string) { globalManager.eventsUnknownItem.WithLabelValues(kind).Inc() }

// RecordEventDuplicate counts an event dropped as duplicate.
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }

// RecordRegistration counts a successful registration.
func RecordRegistration(kind string) { globalManager.registrations.WithLabelValues(kind).Inc() }

// RecordValidationError counts a rejected registration.
func RecordValidationError(kind string) { globalManager.validationErrors.WithLabelValues(kind).Inc() }

// RecordQueryLatency records the latency of a read operation.
func RecordQueryLatency(operation string, latencyMs float64) {
	globalManager.queryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordCandidatePool records the candidate pool size of a query.
func RecordCandidatePool(size int) { globalManager.candidatePool.Observe(float64(size)) }

// RecordEmptyResult counts a query with no results.
func RecordEmptyResult(operation string) { globalManager.emptyResults.WithLabelValues(operation).Inc() }

// RecordCacheHit counts a similarity cache hit.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss counts a similarity cache miss.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// UpdateRegisteredItems sets the registered item gauge for kind.
func UpdateRegisteredItems(kind string, count int) {
	globalManager.registeredItems.WithLabelValues(kind).Set(float64(count))
}

// UpdateTrackedUsers sets the tracked users gauge.
func UpdateTrackedUsers(count int) { globalManager.trackedUsers.Set(float64(count)) }

// UpdateTrendingItems sets the trending items gauge.
func UpdateTrendingItems(count int) { globalManager.trendingItems.Set(float64(count)) }

// RecordWarmupLoaded adds n replayed records of kind.
func RecordWarmupLoaded(kind string, n int) {
	globalManager.warmupLoaded.WithLabelValues(kind).Add(float64(n))
}

// RecordWarmupFailure counts an aborted warm start.
func RecordWarmupFailure() { globalManager.warmupFailures.Inc() }

// RecordStoreError counts a backing store failure.
func RecordStoreError(operation string) { globalManager.storeErrors.WithLabelValues(operation).Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

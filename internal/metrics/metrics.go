package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPRequestSize       prometheus.HistogramVec
	HTTPResponseSize      prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal         prometheus.CounterVec
	CacheMissesTotal       prometheus.CounterVec
	CacheOperationsTotal   prometheus.CounterVec
	CacheOperationDuration prometheus.HistogramVec
	CacheEvictionsTotal    prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec
	RateLimitBucketUsage   prometheus.GaugeVec

	// Database metrics
	DatabaseQueryDuration   prometheus.HistogramVec
	DatabaseQueriesTotal    prometheus.CounterVec
	DatabaseConnectionsOpen prometheus.GaugeVec

	// Redis metrics
	RedisOperationDuration prometheus.HistogramVec
	RedisOperationsTotal   prometheus.CounterVec
	RedisConnectionsOpen   prometheus.GaugeVec

	// Mastering pipeline metrics
	ChunkBuildDuration   prometheus.HistogramVec
	ChunkBuildsTotal     prometheus.CounterVec
	ChunkBuildQueueDepth prometheus.GaugeVec
	DSPStepDuration      prometheus.HistogramVec
	DSPStepFailuresTotal prometheus.CounterVec

	// Fingerprint queue metrics
	FingerprintQueueDepth    prometheus.GaugeVec
	FingerprintJobsTotal     prometheus.CounterVec
	FingerprintJobDuration   prometheus.HistogramVec
	FingerprintIntegrityFail prometheus.CounterVec

	// Streaming metrics
	StreamChunksServedTotal prometheus.CounterVec
	StreamActiveTracks      prometheus.GaugeVec
	StreamStallsTotal       prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			// HTTP metrics
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_size_bytes",
					Help:    "HTTP request body size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path"},
			),
			HTTPResponseSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			// Cache metrics
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name", "tier"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name", "tier"},
			),
			CacheOperationsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_operations_total",
					Help: "Total number of cache operations",
				},
				[]string{"operation", "cache_name"},
			),
			CacheOperationDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cache_operation_duration_seconds",
					Help:    "Cache operation latency in seconds",
					Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
				},
				[]string{"operation", "cache_name"},
			),
			CacheEvictionsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_evictions_total",
					Help: "Total number of cache evictions",
				},
				[]string{"cache_name", "reason"},
			),

			// Rate limiting metrics
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate limit violations",
				},
				[]string{"endpoint", "method"},
			),
			RateLimitBucketUsage: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "rate_limit_bucket_usage",
					Help: "Current rate limit bucket usage (tokens used)",
				},
				[]string{"endpoint", "client_ip"},
			),

			// Database metrics
			DatabaseQueryDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "database_query_duration_seconds",
					Help:    "Database query latency in seconds",
					Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"query_type", "table"},
			),
			DatabaseQueriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "database_queries_total",
					Help: "Total number of database queries",
				},
				[]string{"query_type", "table", "status"},
			),
			DatabaseConnectionsOpen: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "database_connections_open",
					Help: "Number of currently open database connections",
				},
				[]string{"database"},
			),

			// Redis metrics
			RedisOperationDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "redis_operation_duration_seconds",
					Help:    "Redis operation latency in seconds",
					Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
				},
				[]string{"operation", "key_pattern"},
			),
			RedisOperationsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "redis_operations_total",
					Help: "Total number of Redis operations",
				},
				[]string{"operation", "status"},
			),
			RedisConnectionsOpen: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "redis_connections_open",
					Help: "Number of currently open Redis connections",
				},
				[]string{"instance"},
			),

			// Mastering pipeline metrics
			ChunkBuildDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "chunk_build_duration_seconds",
					Help:    "Time to master and encode a single chunk",
					Buckets: []float64{.05, .1, .25, .5, 1, 2, 4, 8, 16},
				},
				[]string{"preset"},
			),
			ChunkBuildsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chunk_builds_total",
					Help: "Total number of chunk builds by outcome",
				},
				[]string{"preset", "status"},
			),
			ChunkBuildQueueDepth: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "chunk_build_queue_depth",
					Help: "Number of chunk build requests waiting on a singleflight slot",
				},
				[]string{"track_id"},
			),
			DSPStepDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "dsp_step_duration_seconds",
					Help:    "Time spent in each DSP pipeline step",
					Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1},
				},
				[]string{"step"},
			),
			DSPStepFailuresTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "dsp_step_failures_total",
					Help: "Total number of DSP pipeline step failures",
				},
				[]string{"step"},
			),

			// Fingerprint queue metrics
			FingerprintQueueDepth: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "fingerprint_queue_depth",
					Help: "Number of tracks pending fingerprint computation",
				},
				[]string{},
			),
			FingerprintJobsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fingerprint_jobs_total",
					Help: "Total number of fingerprint jobs by outcome",
				},
				[]string{"status"},
			),
			FingerprintJobDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "fingerprint_job_duration_seconds",
					Help:    "Time to compute a track fingerprint",
					Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
				},
				[]string{},
			),
			FingerprintIntegrityFail: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fingerprint_integrity_failures_total",
					Help: "Total number of fingerprint hash integrity verification failures",
				},
				[]string{},
			),

			// Streaming metrics
			StreamChunksServedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "stream_chunks_served_total",
					Help: "Total number of chunks served over HTTP",
				},
				[]string{"source"},
			),
			StreamActiveTracks: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "stream_active_tracks",
					Help: "Number of tracks with an active progressive streaming session",
				},
				[]string{},
			),
			StreamStallsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "stream_stalls_total",
					Help: "Total number of times a client requested a chunk still outside the predictive window",
				},
				[]string{},
			),

			// Error metrics
			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}

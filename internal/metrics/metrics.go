package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec
	CacheErrorsTotal prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Tracking metrics
	ClicksTrackedTotal    prometheus.CounterVec
	PageViewsTrackedTotal prometheus.CounterVec

	// Aggregation metrics
	AggregationDuration prometheus.HistogramVec
	AggregationErrors   prometheus.CounterVec

	// Reconciliation metrics
	CounterCorrectionsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
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

			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"key_prefix"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"key_prefix"},
			),
			CacheErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_errors_total",
					Help: "Total number of cache backend errors",
				},
				[]string{"operation"},
			),

			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate limit violations",
				},
				[]string{"key_prefix"},
			),

			ClicksTrackedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "clicks_tracked_total",
					Help: "Total number of link clicks recorded",
				},
				[]string{"status"},
			),
			PageViewsTrackedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "page_views_tracked_total",
					Help: "Total number of page views recorded",
				},
				[]string{"status"},
			),

			AggregationDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "aggregation_duration_seconds",
					Help:    "Aggregation query latency in seconds",
					Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"aggregation"},
			),
			AggregationErrors: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "aggregation_errors_total",
					Help: "Total number of aggregation queries that degraded to defaults",
				},
				[]string{"aggregation"},
			),

			CounterCorrectionsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "counter_corrections_total",
					Help: "Denormalized counters corrected by the reconciliation job",
				},
				[]string{"table"},
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

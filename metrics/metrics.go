// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "omiit_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration records request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "omiit_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// PostOperations counts post service calls by operation and outcome code.
	PostOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "omiit_post_operations_total",
		Help: "Total post operations by operation and result",
	}, []string{"operation", "result"})

	// CoverUploads counts attachment stores by backend and outcome.
	CoverUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "omiit_cover_uploads_total",
		Help: "Total cover uploads by backend and result",
	}, []string{"backend", "result"})

	// QueryLatency records MongoDB call latency by operation and collection.
	QueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "omiit_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// CacheEvents counts list cache hits, misses and errors.
	CacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "omiit_posts_cache_events_total",
		Help: "Posts list cache events by kind",
	}, []string{"event"})
)

// TrackQuery returns a func that records the query latency when called (e.g. defer).
func TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		QueryLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}

// Result turns an error into a low-cardinality label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

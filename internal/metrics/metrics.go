// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Follow Graph Metrics
	GraphOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_operations_total",
			Help: "Total number of follow graph operations by outcome",
		},
		[]string{"operation", "result"}, // result: "ok" or an error kind
	)

	GraphOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_operation_duration_seconds",
			Help:    "Duration of follow graph operations including retries",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"operation"},
	)

	GraphRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_transaction_retries_total",
			Help: "Total number of graph transactions re-run after a transient failure",
		},
		[]string{"operation"},
	)

	CounterDrift = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_counter_drift_detected_total",
			Help: "Counter audits that found stored counters differing from accepted edges",
		},
		[]string{"counter"}, // "followers", "following"
	)

	// Notification Metrics
	NotificationsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_recorded_total",
			Help: "Total number of notifications appended to recipient trays",
		},
		[]string{"type"},
	)

	NotificationDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Secondary notification deliveries by deliverer and result",
		},
		[]string{"deliverer", "result"}, // result: "success", "failure", "timeout"
	)

	// Search Metrics
	SearchReindex = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_reindex_total",
			Help: "Search index entry rebuilds by result",
		},
		[]string{"result"}, // "indexed", "removed", "error"
	)

	SearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_queries_total",
			Help: "Total number of profile search and suggest queries",
		},
		[]string{"kind"}, // "search", "suggest"
	)

	SearchQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_query_duration_seconds",
			Help:    "Duration of profile search queries",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Feed Metrics
	FeedBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_builds_total",
			Help: "Total number of recommendation feed builds",
		},
		[]string{"category", "result"},
	)

	FeedBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_build_duration_seconds",
			Help:    "Duration of recommendation feed builds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"category"},
	)

	FeedUserSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_user_skips_total",
			Help: "Followed users skipped while building a feed",
		},
		[]string{"reason"}, // "timeout", "error", "breaker_open"
	)

	FeedTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_truncated_total",
			Help: "Feeds built from a following list cut at the configured maximum",
		},
	)

	FeedRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_snapshot_refreshes_total",
			Help: "Background refreshes of hot media snapshots",
		},
		[]string{"result"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "memory", "redis"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of cache backend errors",
		},
		[]string{"cache_type", "operation"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Auth Metrics
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Rejected authentication attempts by authenticator and reason",
		},
		[]string{"authenticator", "reason"},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Authorization decisions by result",
		},
		[]string{"result"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_messages_published_total",
			Help: "Messages published to the event bus",
		},
		[]string{"topic", "result"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_messages_consumed_total",
			Help: "Messages consumed from the event bus",
		},
		[]string{"topic", "result"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Store Metrics
	StoreMaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_maintenance_runs_total",
			Help: "Background store maintenance runs by result",
		},
		[]string{"backend", "result"},
	)
)

// RecordGraphOperation records the outcome of a follow graph operation.
// kind is "" on success.
func RecordGraphOperation(operation, kind string, duration time.Duration) {
	result := kind
	if result == "" {
		result = "ok"
	}
	GraphOperations.WithLabelValues(operation, result).Inc()
	GraphOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordFeedBuild records a completed feed build.
func RecordFeedBuild(category string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	FeedBuilds.WithLabelValues(category, result).Inc()
	FeedBuildDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordCacheLookup records a hit or miss for a cache backend.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

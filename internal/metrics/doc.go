// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto
and exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Follow graph:
  - graph_operations_total{operation, result}: result is "ok" or an error kind
  - graph_operation_duration_seconds{operation}
  - graph_transaction_retries_total{operation}
  - graph_counter_drift_detected_total{counter}

Notifications:
  - notifications_recorded_total{type}
  - notification_deliveries_total{deliverer, result}

Search:
  - search_reindex_total{result}
  - search_queries_total{kind}
  - search_query_duration_seconds

Feed:
  - feed_builds_total{category, result}
  - feed_build_duration_seconds{category}
  - feed_user_skips_total{reason}
  - feed_truncated_total
  - feed_snapshot_refreshes_total{result}

Infrastructure:
  - cache_hits_total, cache_misses_total, cache_errors_total
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - eventbus_messages_published_total, eventbus_messages_consumed_total
  - websocket_connections, websocket_messages_sent_total, websocket_errors_total
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total
  - store_maintenance_runs_total

# Testing

Tests read values with prometheus/testutil or by writing a collector into
an io_prometheus_client.Metric.
*/
package metrics

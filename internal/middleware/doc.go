// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package middleware provides infrastructure HTTP middleware shared by every
route: request ids and Prometheus instrumentation.

Both are plain func(http.Handler) http.Handler and plug into chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

RequestID reuses a well-formed upstream X-Request-ID or generates one,
echoes it on the response and seeds the logging context so every
logging.Ctx(ctx) line of the request carries request_id and
correlation_id.

PrometheusMetrics labels api_requests_total and
api_request_duration_seconds by chi route pattern so path parameters
such as user ids do not explode label cardinality.

Authentication and authorization live in internal/auth and
internal/authz; CORS, rate limiting and compression come from the chi
ecosystem and are configured in internal/api.
*/
package middleware

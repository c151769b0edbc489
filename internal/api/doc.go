// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package api provides the HTTP API of Shelfwise.

Every route under /api/v1 requires an authenticated caller; the caller's
user id from the auth context is passed explicitly into the core
services. Admin routes additionally go through Casbin authorization.

Middleware stack, outermost first:

	RequestID -> RealIP -> Recoverer -> CORS -> PrometheusMetrics
	  /api/v1: RateLimit (per IP) -> Authenticate
	    /ws: per-user upgrade limit
	    rest: Timeout -> Compress -> [per-user limits] -> handlers
	      /admin: AuthorizeRequest

Responses use models.APIResponse:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","query_time_ms":2}}
	{"status":"error","data":null,"metadata":{...},"error":{"code":"BLOCKED","message":"..."}}

Service errors map to HTTP by taxonomy kind:

	INVALID_OPERATION, VALIDATION_ERROR  400
	BLOCKED                              403
	NOT_FOUND                            404
	ALREADY_EXISTS                       409
	TRANSIENT                            503 with Retry-After
	anything else                        500 INTERNAL_ERROR

Handlers are split across files by area; see Handler.
*/
package api

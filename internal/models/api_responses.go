// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package models

import "time"

// APIResponse is the envelope of every JSON response.
//
// Success:
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"...","query_time_ms":3}}
//
// Error:
//
//	{"status":"error","data":null,"metadata":{...},"error":{"code":"BLOCKED","message":"..."}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp   time.Time       `json:"timestamp"`
	QueryTimeMS int64           `json:"query_time_ms,omitempty"`
	Cached      bool            `json:"cached,omitempty"`
	Pagination  *PaginationInfo `json:"pagination,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes: VALIDATION_ERROR, INVALID_OPERATION, UNAUTHORIZED, FORBIDDEN,
// BLOCKED, NOT_FOUND, ALREADY_EXISTS, TRANSIENT, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PaginationInfo describes cursor pagination of list endpoints.
type PaginationInfo struct {
	Limit      int    `json:"limit"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// HealthStatus is returned by the health endpoints.
type HealthStatus struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Uptime   float64           `json:"uptime_seconds"`
	Backend  string            `json:"store_backend"`
	Checks   map[string]string `json:"checks,omitempty"`
	Degraded bool              `json:"degraded,omitempty"`
}

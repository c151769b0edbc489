// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/validation"
)

// Error codes of the envelope.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeBlocked          = "BLOCKED"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeTransient        = "TRANSIENT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
)

// retryAfterSeconds is advertised on TRANSIENT responses.
const retryAfterSeconds = 1

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// sanitizeLogValue escapes control characters so request input cannot
// forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// respondJSON writes the envelope. Responses are per-caller, so nothing
// is cacheable by shared caches.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("failed to write JSON response")
	}
}

func respondSuccess(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: metadata(start),
	})
}

func respondPage(w http.ResponseWriter, data interface{}, start time.Time, page *models.PaginationInfo) {
	md := metadata(start)
	md.Pagination = page
	respondJSON(w, http.StatusOK, &models.APIResponse{Status: "success", Data: data, Metadata: md})
}

func metadata(start time.Time) models.Metadata {
	md := models.Metadata{Timestamp: time.Now().UTC()}
	if !start.IsZero() {
		md.QueryTimeMS = time.Since(start).Milliseconds()
	}
	return md
}

// respondError writes an error envelope. err is logged, never sent.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		ev := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(r.Context()).Error()
		}
		ev.Str("code", code).Str("path", sanitizeLogValue(r.URL.Path)).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: metadata(time.Time{}),
		Error:    &models.APIError{Code: code, Message: message},
	})
}

func respondAPIError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: metadata(time.Time{}),
		Error:    apiErr,
	})
}

// respondServiceError maps the error taxonomy to HTTP.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
		return
	}

	switch models.KindOf(err) {
	case models.KindInvalidOperation:
		respondError(w, r, http.StatusBadRequest, CodeInvalidOperation, err.Error(), nil)
	case models.KindBlocked:
		respondError(w, r, http.StatusForbidden, CodeBlocked, "operation not permitted between these users", nil)
	case models.KindNotFound:
		respondError(w, r, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case models.KindAlreadyExists:
		respondError(w, r, http.StatusConflict, CodeAlreadyExists, err.Error(), nil)
	case models.KindTransient:
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		respondError(w, r, http.StatusServiceUnavailable, CodeTransient, "temporary failure, retry the request", err)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error", err)
	}
}

// callerID returns the authenticated user id. The router only mounts
// handlers behind auth, so a missing id is answered with 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, CodeUnauthorized, "authentication required", nil)
		return "", false
	}
	return id, true
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, http.StatusRequestEntityTooLarge, CodeValidation, "request body too large", nil)
		return false
	}
	if len(body) == 0 {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "request body is required", nil)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "invalid JSON body", nil)
		return false
	}
	return validateRequest(w, dst)
}

func validateRequest(w http.ResponseWriter, v interface{}) bool {
	if verr := validation.ValidateStruct(v); verr != nil {
		respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
		return false
	}
	return true
}

// getIntParam parses an integer query parameter, falling back to
// defaultValue when absent or malformed.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getBoolParam(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

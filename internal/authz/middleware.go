// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package authz

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

// Middleware enforces the policy on the request path. It must run after
// auth.Middleware.Authenticate.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// AuthorizeRequest maps the method to an action and checks it against
// the request path.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := auth.SubjectFromContext(r.Context())
		if subject == nil {
			metrics.AuthzDecisions.WithLabelValues("deny").Inc()
			writeForbidden(w, "no authentication context")
			return
		}

		allowed, err := m.enforcer.EnforceWithRoles(subject.UserID, subject.Roles, r.URL.Path, methodToAction(r.Method))
		if err != nil {
			metrics.AuthzDecisions.WithLabelValues("error").Inc()
			logging.Ctx(r.Context()).Error().Err(err).Msg("authorization error")
			writeJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "authorization unavailable")
			return
		}
		if !allowed {
			metrics.AuthzDecisions.WithLabelValues("deny").Inc()
			logging.Ctx(r.Context()).Info().Str("path", r.URL.Path).Strs("roles", subject.Roles).Msg("authorization denied")
			writeForbidden(w, "insufficient permissions")
			return
		}
		metrics.AuthzDecisions.WithLabelValues("allow").Inc()
		next.ServeHTTP(w, r)
	})
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

func writeForbidden(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusForbidden, "FORBIDDEN", msg)
}

func writeJSON(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: msg},
	})
}

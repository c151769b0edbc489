// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

// Middleware authenticates requests and places the AuthSubject in the
// request context.
type Middleware struct {
	authenticator Authenticator
	admins        map[string]bool
}

// NewMiddleware builds the middleware for cfg.AuthMode. Users listed in
// cfg.AdminUsers are granted the admin role whatever their token says.
func NewMiddleware(cfg config.SecurityConfig) (*Middleware, error) {
	var a Authenticator
	switch strings.ToLower(cfg.AuthMode) {
	case config.AuthModeJWT:
		manager, err := NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return nil, err
		}
		a = NewJWTAuthenticator(manager)
	case config.AuthModeNone:
		logging.Warn().Msg("AUTH_MODE=none: trusting X-User-ID header, do not expose this instance")
		a = HeaderAuthenticator{}
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}
	return NewMiddlewareWith(a, cfg.AdminUsers), nil
}

// NewMiddlewareWith wraps an arbitrary authenticator.
func NewMiddlewareWith(a Authenticator, adminUsers []string) *Middleware {
	admins := make(map[string]bool, len(adminUsers))
	for _, id := range adminUsers {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = true
		}
	}
	return &Middleware{authenticator: a, admins: admins}
}

// Authenticate rejects unauthenticated requests with 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.authenticator.Authenticate(r.Context(), r)
		if err != nil {
			metrics.AuthFailures.WithLabelValues(m.authenticator.Name(), failureReason(err)).Inc()
			logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
			writeUnauthorized(w, err)
			return
		}
		if m.admins[subject.UserID] && !subject.IsAdmin() {
			subject.Roles = append(subject.Roles, RoleAdmin)
		}

		ctx := WithSubject(r.Context(), subject)
		ctx = logging.ContextWithUserID(ctx, subject.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoCredentials):
		return "missing"
	case errors.Is(err, ErrExpiredCredentials):
		return "expired"
	default:
		return "invalid"
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	msg := "authentication required"
	switch {
	case errors.Is(err, ErrExpiredCredentials):
		msg = "credentials expired"
	case errors.Is(err, ErrInvalidCredentials):
		msg = "invalid credentials"
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="shelfwise"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: "UNAUTHORIZED", Message: msg},
	})
}

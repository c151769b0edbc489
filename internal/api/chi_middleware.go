// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/middleware"
)

// ChiMiddlewareConfig configures CORS and rate limiting.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSMaxAge         int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// Per-endpoint limits, applied per authenticated user on top of the
// per-IP limit.
var (
	// RateLimitGraphWrites covers follow, unfollow, block and request handling.
	RateLimitGraphWrites = RateLimitConfig{Requests: 60, Window: time.Minute}

	// RateLimitSearch covers search and autocomplete.
	RateLimitSearch = RateLimitConfig{Requests: 120, Window: time.Minute}

	// RateLimitWebSocket limits upgrade attempts.
	RateLimitWebSocket = RateLimitConfig{Requests: 30, Window: time.Minute}
)

// RateLimitConfig is a request budget per window.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// ChiMiddlewareConfigFrom builds the config from the security section.
func ChiMiddlewareConfigFrom(c config.SecurityConfig) *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: c.CORSOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  c.RateLimitRequests,
		RateLimitWindow:    c.RateLimitWindow,
		RateLimitDisabled:  c.RateLimitDisabled,
	}
}

// ChiMiddleware provides CORS and rate limiting from the chi ecosystem.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware builds the middleware. Empty CORS origins allow no
// cross-origin requests.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = 300
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	return &ChiMiddleware{
		config: cfg,
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposedHeaders:   []string{middleware.HeaderRequestID, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           cfg.CORSMaxAge,
		}),
	}
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit limits requests per client IP.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return passthrough
	}
	return httprate.Limit(m.config.RateLimitRequests, m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitHandler("ip")),
	)
}

// RateLimitPerUser limits requests per authenticated user. It must run
// after auth.Middleware.Authenticate.
func (m *ChiMiddleware) RateLimitPerUser(scope string, cfg RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return passthrough
	}
	return httprate.Limit(cfg.Requests, cfg.Window,
		httprate.WithKeyFuncs(keyByUser(scope)),
		httprate.WithLimitHandler(limitHandler(scope)),
	)
}

func keyByUser(scope string) httprate.KeyFunc {
	return func(r *http.Request) (string, error) {
		if id, ok := auth.UserID(r.Context()); ok {
			return scope + ":" + id, nil
		}
		return httprate.KeyByRealIP(r)
	}
}

func limitHandler(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.APIRateLimitHits.WithLabelValues(scope).Inc()
		respondError(w, r, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", nil)
	}
}

func passthrough(next http.Handler) http.Handler { return next }

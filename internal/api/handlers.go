// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/shelfwise/internal/blocks"
	"github.com/tomtom215/shelfwise/internal/feed"
	"github.com/tomtom215/shelfwise/internal/graph"
	"github.com/tomtom215/shelfwise/internal/media"
	"github.com/tomtom215/shelfwise/internal/notify"
	"github.com/tomtom215/shelfwise/internal/profile"
	"github.com/tomtom215/shelfwise/internal/search"
	"github.com/tomtom215/shelfwise/internal/store"
	ws "github.com/tomtom215/shelfwise/internal/websocket"
)

// Services are the core components the handlers call. Hub is optional;
// without it /ws answers 503.
type Services struct {
	Store         store.Store
	Profiles      *profile.Service
	Graph         *graph.Service
	Blocks        *blocks.Registry
	Notifications *notify.Fanout
	Search        *search.Indexer
	Feed          *feed.Aggregator
	Media         *media.Service
	Hub           *ws.Hub
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Handler serves the HTTP API. Handler methods are split by area:
//   - handlers_profiles.go: profile lifecycle and views
//   - handlers_graph.go: follow, block and relationship endpoints
//   - handlers_feed.go: recommendation feed and media collections
//   - handlers_search.go, handlers_notifications.go, handlers_admin.go
//   - handlers_health.go, handlers_ws.go
type Handler struct {
	svc       Services
	version   string
	startTime time.Time
	upgrader  websocket.Upgrader

	mu     sync.RWMutex
	checks map[string]HealthCheck
}

// NewHandler creates the API handler. allowedOrigins restricts WebSocket
// upgrades the same way CORS restricts XHR; empty allows same-origin only.
func NewHandler(svc Services, version string, allowedOrigins []string) *Handler {
	h := &Handler{
		svc:       svc,
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]HealthCheck),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// AddHealthCheck registers a readiness check. The store is always checked.
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *Handler) healthChecks() map[string]HealthCheck {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]HealthCheck, len(h.checks))
	for k, v := range h.checks {
		out[k] = v
	}
	return out
}

// originChecker allows requests without an Origin header, same-host
// origins and the configured ones. "*" allows any origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	_, any := set["*"]
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || any {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/authz"
	"github.com/tomtom215/shelfwise/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler        *Handler
	auth           *auth.Middleware
	authz          *authz.Middleware
	chiMiddleware  *ChiMiddleware
	requestTimeout time.Duration
}

// NewRouter creates a Router. authzMW may be nil, which leaves the admin
// routes unmounted.
func NewRouter(handler *Handler, authMW *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware, requestTimeout time.Duration) *Router {
	return &Router{
		handler:        handler,
		auth:           authMW,
		authz:          authzMW,
		chiMiddleware:  chiMW,
		requestTimeout: requestTimeout,
	}
}

// SetupChi builds the HTTP handler.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	// Probes and scraping stay outside auth and rate limiting.
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(router.auth.Authenticate)

		// The WebSocket is long-lived: no request timeout or compression.
		r.With(router.chiMiddleware.RateLimitPerUser("ws", RateLimitWebSocket)).Get("/ws", h.WebSocket)

		r.Group(func(r chi.Router) {
			if router.requestTimeout > 0 {
				r.Use(chimiddleware.Timeout(router.requestTimeout))
			}
			r.Use(chimiddleware.Compress(5, "application/json"))
			router.mountCore(r)
			if router.authz != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Use(router.authz.AuthorizeRequest)
					r.Post("/search/reindex", h.ReindexAll)
					r.Post("/profiles/{userID}/flags", h.SetProfileFlags)
					r.Post("/profiles/{userID}/activity", h.AdjustActivity)
					r.Get("/counters/{userID}", h.AuditCounters)
				})
			}
		})
	})

	return r
}

func (router *Router) mountCore(r chi.Router) {
	h := router.handler
	writes := router.chiMiddleware.RateLimitPerUser("graph_writes", RateLimitGraphWrites)

	r.Route("/profiles", func(r chi.Router) {
		r.Post("/me", h.EnsureProfile)
		r.Get("/me", h.GetOwnProfile)
		r.Patch("/me", h.UpdateOwnProfile)
		r.Delete("/me", h.DisableOwnProfile)
		r.Get("/by-handle/{handle}", h.GetProfileByHandle)
		r.Get("/{userID}", h.GetProfile)
	})

	r.Route("/users/{userID}", func(r chi.Router) {
		r.With(writes).Post("/follow", h.Follow)
		r.With(writes).Delete("/follow", h.Unfollow)
		r.With(writes).Post("/block", h.Block)
		r.With(writes).Delete("/block", h.Unblock)
		r.Get("/relationship", h.Relationship)
		r.Get("/followers", h.Followers)
		r.Get("/following", h.Following)
		r.Get("/media/{category}", h.UserMedia)
	})

	r.Get("/follow-requests", h.FollowRequests)
	r.With(writes).Post("/follow-requests/{userID}/accept", h.AcceptFollowRequest)
	r.With(writes).Post("/follow-requests/{userID}/decline", h.DeclineFollowRequest)
	r.With(writes).Delete("/followers/{userID}", h.RemoveFollower)
	r.Get("/blocks", h.Blocks)

	r.Get("/feed/{category}", h.Feed)
	r.Put("/media/{category}/{externalID}", h.PutMedia)
	r.Delete("/media/{category}/{externalID}", h.DeleteMedia)

	r.Route("/search", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitPerUser("search", RateLimitSearch))
		r.Get("/profiles", h.SearchProfiles)
		r.Get("/suggest", h.Suggest)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.Notifications)
		r.Get("/unread-count", h.UnreadCount)
		r.Post("/read-all", h.MarkAllNotificationsRead)
		r.Post("/{id}/read", h.MarkNotificationRead)
	})
}

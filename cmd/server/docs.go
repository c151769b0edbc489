// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// @title Shelfwise API
// @version 1.0
// @description Social graph, notifications and recommendation feeds for a personal media tracker.
// @description
// @description ## Authentication
// @description
// @description Every /api/v1 endpoint requires a bearer JWT whose subject is the caller's user id.
// @description Admin endpoints additionally require the admin (or, for counter audits, moderator) role.
// @description
// @description ## Rate Limiting
// @description
// @description Per IP on all of /api/v1, plus per user on graph writes, search and WebSocket upgrades.
// @description Exceeding a limit answers 429 with code RATE_LIMITED.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {"code": "BLOCKED", "message": "operation not permitted between these users"},
// @description   "metadata": {"timestamp": "2026-06-01T09:00:00Z"}
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/shelfwise/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description "Bearer <jwt>"
//
// @tag.name Profiles
// @tag.description Profile lifecycle and visibility-filtered views
//
// @tag.name Graph
// @tag.description Follow requests, followers, following and blocks
//
// @tag.name Feed
// @tag.description Recommendation feed and media collections
//
// @tag.name Search
// @tag.description Profile search and handle autocomplete
//
// @tag.name Notifications
// @tag.description Notification tray and live WebSocket stream
//
// @tag.name Admin
// @tag.description Index rebuilds, profile flags and counter audits
//
// @tag.name Health
// @tag.description Liveness and readiness probes
package main

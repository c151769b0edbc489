// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package supervisor runs the long-lived services of Shelfwise under a
suture v4 supervisor tree.

	shelfwise
	├── data-layer
	│   ├── store-maintenance   (badger: counter fold + value log GC)
	│   └── cache-janitor       (in-memory snapshot cache only)
	├── messaging-layer
	│   ├── nats-server         (embedded, when NATS is enabled)
	│   ├── event-router        (notification bus -> WebSocket push)
	│   ├── websocket-hub
	│   └── feed-refresh        (when enabled)
	└── api-layer
	    └── http-server

Each layer restarts its own children with exponential backoff. Supervisor
events go through log/slog to zerolog (see logging.NewSlogLogger) via
sutureslog.

Any type with Serve(ctx) error satisfies suture.Service; the package
services adapts the ones that do not (net/http servers and periodic jobs).

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor

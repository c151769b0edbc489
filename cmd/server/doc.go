// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package main is the Shelfwise server: the social graph, notification and
recommendation backend of a personal media tracker.

# Process Layout

	shelfwise
	├── data-layer
	│   ├── store-maintenance   (badger only)
	│   └── cache-janitor       (without Redis)
	├── messaging-layer
	│   ├── nats-server         (NATS_ENABLED with NATS_EMBEDDED)
	│   ├── websocket-hub
	│   ├── event-router
	│   └── feed-refresh        (FEED_REFRESH_ENABLED)
	└── api-layer
	    └── http-server

Wiring order: configuration, logging, store, snapshot cache, event bus,
core services, HTTP router, supervisor tree.

# Configuration

Defaults, then config.yaml (or CONFIG_PATH), then environment variables:

	HTTP_PORT=8080
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	STORE_BACKEND=badger         # badger or duckdb
	BADGER_PATH=/data/badger
	DUCKDB_PATH=/data/shelfwise.duckdb

	AUTH_MODE=jwt                # jwt or none (trusts X-User-ID, development only)
	JWT_SECRET=<32+ chars>
	ADMIN_USERS=alice,bob
	AUTHZ_POLICY_PATH=/etc/shelfwise/policy.csv

	NATS_ENABLED=true            # otherwise an in-process bus
	NATS_EMBEDDED=true
	REDIS_ENABLED=true           # shared feed snapshots across replicas
	REDIS_ADDR=redis:6379

# Shutdown

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
SHUTDOWN_TIMEOUT, in-flight notification deliveries are flushed, then
the bus, cache and store are closed in that order.
*/
package main

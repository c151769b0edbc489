// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/shelfwise/docs" // swagger document
	"github.com/tomtom215/shelfwise/internal/api"
	"github.com/tomtom215/shelfwise/internal/auth"
	"github.com/tomtom215/shelfwise/internal/authz"
	"github.com/tomtom215/shelfwise/internal/blocks"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/eventbus"
	"github.com/tomtom215/shelfwise/internal/feed"
	"github.com/tomtom215/shelfwise/internal/graph"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/media"
	"github.com/tomtom215/shelfwise/internal/notify"
	"github.com/tomtom215/shelfwise/internal/profile"
	"github.com/tomtom215/shelfwise/internal/search"
	"github.com/tomtom215/shelfwise/internal/supervisor"
	"github.com/tomtom215/shelfwise/internal/supervisor/services"
	ws "github.com/tomtom215/shelfwise/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "shelfwise",
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Shelfwise stopped with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // sequential wiring
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("version", version).
		Str("store_backend", cfg.Store.Backend).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Bool("redis_enabled", cfg.Redis.Enabled).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Shelfwise")

	st, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeWithLog("store", st)

	snapshots, err := openSnapshotCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeWithLog("snapshot cache", snapshots)

	bus, err := openEventBus(ctx, cfg.NATS)
	if err != nil {
		return err
	}
	defer bus.close()

	// Core services. The bus is the only secondary deliverer; WebSocket
	// push consumes from it so every replica sees the same stream.
	hub := ws.NewHub()
	indexer := search.NewIndexer(st, cfg.Search)
	fanout := notify.New(st, cfg.Notify.DeliveryTimeout, bus.Bus)
	followGraph := graph.New(st, fanout, indexer, graph.ConfigFrom(cfg.Graph))
	mediaSvc := media.NewService(st)
	aggregator := feed.NewAggregator(st, followGraph, mediaSvc, snapshots.cacher, feed.ConfigFrom(cfg.Feed))
	mediaSvc.SetInvalidator(aggregator)
	defer fanout.Flush()

	pushRouter := eventbus.NewRouter(eventbus.DefaultRouterConfig(), bus.Logger())
	pushRouter.AddConsumer("websocket-push", eventbus.TopicNotifications, bus.Subscriber(),
		eventbus.PushHandler(hub, bus.Logger()))

	// HTTP surface.
	authMW, err := auth.NewMiddleware(cfg.Security)
	if err != nil {
		return fmt.Errorf("auth middleware: %w", err)
	}
	enforcer, err := authz.NewEnforcer(authz.EnforcerConfig{
		PolicyPath:     cfg.Security.PolicyPath,
		ReloadInterval: cfg.Security.PolicyReloadInterval,
	})
	if err != nil {
		return fmt.Errorf("authorization: %w", err)
	}
	defer enforcer.Close()
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	handler := api.NewHandler(api.Services{
		Store:         st,
		Profiles:      profile.NewService(st, indexer),
		Graph:         followGraph,
		Blocks:        blocks.NewRegistry(st),
		Notifications: fanout,
		Search:        indexer,
		Feed:          aggregator,
		Media:         mediaSvc,
		Hub:           hub,
	}, version, cfg.Security.CORSOrigins)
	if snapshots.ping != nil {
		handler.AddHealthCheck("redis", snapshots.ping)
	}
	if bus.server != nil {
		server := bus.server
		handler.AddHealthCheck("nats", func(context.Context) error {
			if !server.IsRunning() {
				return errors.New("embedded NATS server is not running")
			}
			return nil
		})
	}

	router := api.NewRouter(handler, authMW, authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)), cfg.Server.RequestTimeout)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Supervision.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if maintainer, ok := st.(storeMaintainer); ok {
		tree.AddDataService(services.NewPeriodicService("store-maintenance", cfg.Store.GCInterval, maintainer.Maintain))
	}
	if snapshots.janitor != nil {
		tree.AddDataService(services.NewFuncService("cache-janitor", snapshots.janitor))
	}

	if bus.server != nil {
		tree.AddMessagingService(bus.server)
	}
	tree.AddMessagingService(hub)
	tree.AddMessagingService(pushRouter)
	if cfg.Feed.RefreshEnabled {
		tree.AddMessagingService(feed.NewRefresher(aggregator, cfg.Feed))
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	errCh := tree.ServeBackground(ctx)
	var serveErr error
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			serveErr = err
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	return serveErr
}

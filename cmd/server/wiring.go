// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tomtom215/shelfwise/internal/cache"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/database"
	"github.com/tomtom215/shelfwise/internal/eventbus"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/store"
	"github.com/tomtom215/shelfwise/internal/store/badgerstore"
)

// snapshotCacheCapacity bounds the in-memory feed snapshot cache.
const snapshotCacheCapacity = 10000

// janitorInterval is how often expired in-memory snapshots are swept.
const janitorInterval = time.Minute

// storeMaintainer is implemented by backends that need periodic
// housekeeping (Badger: counter fold and value log GC).
type storeMaintainer interface {
	Maintain(ctx context.Context) error
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", config.BackendBadger:
		s, err := badgerstore.Open(badgerstore.Options{
			Path:        cfg.BadgerPath,
			InMemory:    cfg.InMemory,
			Compression: true,
		})
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return s, nil
	case config.BackendDuckDB:
		db, err := database.New(&cfg)
		if err != nil {
			return nil, fmt.Errorf("open duckdb store: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// snapshotCache is the feed snapshot cache plus what the process needs
// to supervise and probe it.
type snapshotCache struct {
	cacher  cache.Cacher
	ping    func(ctx context.Context) error // nil for the in-memory cache
	janitor func(ctx context.Context) error // nil for Redis, which expires keys itself
	closer  io.Closer
}

func openSnapshotCache(ctx context.Context, cfg config.RedisConfig) (*snapshotCache, error) {
	if !cfg.Enabled {
		mem := cache.NewMemory(snapshotCacheCapacity)
		logging.Info().Int("capacity", snapshotCacheCapacity).Msg("In-memory snapshot cache enabled")
		return &snapshotCache{
			cacher: mem,
			janitor: func(ctx context.Context) error {
				return mem.RunJanitor(ctx, janitorInterval)
			},
		}, nil
	}
	r, err := cache.NewRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &snapshotCache{cacher: r, ping: r.Ping, closer: r}, nil
}

func (c *snapshotCache) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// eventBus is the notification bus and, in embedded mode, the NATS
// server it runs on.
type eventBus struct {
	*eventbus.Bus
	server *eventbus.EmbeddedServer
}

func openEventBus(ctx context.Context, cfg config.NATSConfig) (*eventBus, error) {
	if !cfg.Enabled {
		logging.Info().Msg("NATS disabled, notifications use the in-process bus")
		return &eventBus{Bus: eventbus.NewInProcess(nil)}, nil
	}

	var server *eventbus.EmbeddedServer
	if cfg.EmbeddedServer {
		serverCfg, err := eventbus.ServerConfigFrom(cfg)
		if err != nil {
			return nil, err
		}
		if server, err = eventbus.StartEmbeddedServer(serverCfg); err != nil {
			return nil, err
		}
		cfg.URL = server.ClientURL()
	}

	bus, err := eventbus.NewNATS(ctx, cfg, nil)
	if err != nil {
		if server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}
		return nil, fmt.Errorf("event bus: %w", err)
	}
	return &eventBus{Bus: bus, server: server}, nil
}

func (b *eventBus) close() {
	closeWithLog("event bus", b.Bus)
}

func closeWithLog(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logging.Error().Err(err).Str("resource", name).Msg("Error during close")
	}
}

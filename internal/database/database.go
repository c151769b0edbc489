// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	duckdb "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/store"
)

// Backend is the name reported by DB.Backend.
const Backend = "duckdb"

// DB is a DuckDB-backed store.Store.
type DB struct {
	conn      *sql.DB
	connector *duckdb.Connector
	cfg       *config.StoreConfig
	logger    zerolog.Logger
	closed    atomic.Bool
}

var _ store.Store = (*DB)(nil)

// New opens the database file named by cfg.DuckDBPath (in-memory when
// empty) and creates the schema.
func New(cfg *config.StoreConfig) (*DB, error) {
	numThreads := cfg.DuckDBThreads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.DuckDBPath != "" {
		dbDir := filepath.Dir(cfg.DuckDBPath)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	// Extensions are never used; disabling autoload keeps startup offline.
	dsn := fmt.Sprintf("%s?access_mode=read_write&threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.DuckDBPath, numThreads)

	// A shared connector keeps every pooled connection on the same
	// database instance, which matters for in-memory mode.
	connector, err := duckdb.NewConnector(dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:      sql.OpenDB(connector),
		connector: connector,
		cfg:       cfg,
		logger:    logging.WithComponent("database"),
	}
	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(db.conn)
		closeQuietly(connector)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db.logger.Info().
		Str("path", cfg.DuckDBPath).
		Int("threads", numThreads).
		Int("max_conns", poolSize(cfg)).
		Msg("duckdb store opened")
	return db, nil
}

// minOpenConns is the pool floor on hosts with few CPUs.
const minOpenConns = 4

// poolSize is cfg.DuckDBMaxConns when set, NumCPU with a floor otherwise.
func poolSize(cfg *config.StoreConfig) int {
	if cfg.DuckDBMaxConns > 0 {
		return cfg.DuckDBMaxConns
	}
	return max(minOpenConns, runtime.NumCPU())
}

// configureConnectionPool sets connection pool parameters.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(poolSize(db.cfg))
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Conn returns the underlying SQL connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Backend implements store.Store.
func (db *DB) Backend() string { return Backend }

// View runs fn in a transaction that is always rolled back.
func (db *DB) View(ctx context.Context, fn func(store.ReadTx) error) error {
	if err := db.check(ctx); err != nil {
		return err
	}
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return mapError(fmt.Errorf("begin read transaction: %w", err))
	}
	defer rollbackQuietly(sqlTx)
	return mapError(fn(&tx{ctx: ctx, tx: sqlTx}))
}

// Update runs fn in a transaction and commits when fn returns nil.
func (db *DB) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := db.check(ctx); err != nil {
		return err
	}
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return mapError(fmt.Errorf("begin transaction: %w", err))
	}
	if err := fn(&tx{ctx: ctx, tx: sqlTx, writable: true}); err != nil {
		rollbackQuietly(sqlTx)
		return mapError(err)
	}
	if err := ctx.Err(); err != nil {
		rollbackQuietly(sqlTx)
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		// A key violation at commit means a concurrent writer won the row.
		if err = mapError(fmt.Errorf("commit: %w", err)); errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		}
		return err
	}
	return nil
}

// Ping checks database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.check(ctx); err != nil {
		return err
	}
	if err := db.conn.PingContext(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

// Close closes the pool and the underlying database.
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	if err := db.connector.Close(); err != nil {
		return fmt.Errorf("close connector: %w", err)
	}
	db.logger.Info().Msg("duckdb store closed")
	return nil
}

func (db *DB) check(ctx context.Context) error {
	if db.closed.Load() {
		return store.ErrClosed
	}
	return ctx.Err()
}

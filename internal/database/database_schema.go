// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
database_schema.go - Database Schema Management

Tables:
  - profiles: one row per user, list fields stored as JSON text
  - profile_handles: handle -> user id, the uniqueness point for handles
  - profile_counters: denormalized counters, only changed by additive UPDATEs
  - follow_edges: primary key (follower_id, following_id) serializes
    concurrent follow requests on the same ordered pair
  - blocks, notifications, search_entries, media_items
  - pair_guards: one row per unordered user pair, rewritten by every edge
    insert and block so the two conflict under snapshot isolation

Columns that are updated in place are never part of an index: DuckDB
rewrites indexed rows as delete plus insert, which trips its unique
constraint checking inside a single transaction.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// Migration is a versioned schema change applied once.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// getMigrations returns every migration in order. Append only.
func getMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "profiles", SQL: `
CREATE TABLE IF NOT EXISTS profiles (
	id VARCHAR PRIMARY KEY,
	handle VARCHAR NOT NULL,
	display_name VARCHAR NOT NULL,
	bio VARCHAR NOT NULL DEFAULT '',
	location VARCHAR NOT NULL DEFAULT '',
	tags VARCHAR NOT NULL DEFAULT '[]',
	avatar_url VARCHAR NOT NULL DEFAULT '',
	cover_url VARCHAR NOT NULL DEFAULT '',
	social_links VARCHAR NOT NULL DEFAULT '[]',
	verified BOOLEAN NOT NULL DEFAULT false,
	featured BOOLEAN NOT NULL DEFAULT false,
	privacy VARCHAR NOT NULL,
	disabled BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS profile_handles (
	handle VARCHAR PRIMARY KEY,
	user_id VARCHAR NOT NULL
);
CREATE TABLE IF NOT EXISTS profile_counters (
	user_id VARCHAR PRIMARY KEY,
	followers_count BIGINT NOT NULL DEFAULT 0,
	following_count BIGINT NOT NULL DEFAULT 0,
	posts_count BIGINT NOT NULL DEFAULT 0,
	reviews_count BIGINT NOT NULL DEFAULT 0
);`},
		{Version: 2, Name: "graph", SQL: `
CREATE TABLE IF NOT EXISTS follow_edges (
	follower_id VARCHAR NOT NULL,
	following_id VARCHAR NOT NULL,
	status VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL,
	accepted_at TIMESTAMP,
	follower_party VARCHAR NOT NULL,
	following_party VARCHAR NOT NULL,
	PRIMARY KEY (follower_id, following_id)
);
CREATE TABLE IF NOT EXISTS blocks (
	blocker_id VARCHAR NOT NULL,
	blocked_id VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (blocker_id, blocked_id)
);`},
		{Version: 3, Name: "notifications", SQL: `
CREATE TABLE IF NOT EXISTS notifications (
	id VARCHAR PRIMARY KEY,
	recipient_id VARCHAR NOT NULL,
	notification_type VARCHAR NOT NULL,
	actor_id VARCHAR NOT NULL,
	actor VARCHAR NOT NULL,
	is_read BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMP NOT NULL,
	deep_link VARCHAR NOT NULL DEFAULT ''
);`},
		{Version: 4, Name: "search_and_media", SQL: `
CREATE TABLE IF NOT EXISTS search_entries (
	user_id VARCHAR PRIMARY KEY,
	entry VARCHAR NOT NULL
);
CREATE SEQUENCE IF NOT EXISTS media_seq START 1;
CREATE TABLE IF NOT EXISTS media_items (
	owner_id VARCHAR NOT NULL,
	category VARCHAR NOT NULL,
	external_id VARCHAR NOT NULL,
	seq BIGINT NOT NULL,
	title VARCHAR NOT NULL,
	cover_url VARCHAR NOT NULL DEFAULT '',
	release_year INTEGER NOT NULL DEFAULT 0,
	collections VARCHAR NOT NULL DEFAULT '[]',
	added_at TIMESTAMP NOT NULL,
	PRIMARY KEY (owner_id, category, external_id)
);`},
		{Version: 5, Name: "pair_guards", SQL: `
CREATE TABLE IF NOT EXISTS pair_guards (
	lo VARCHAR NOT NULL,
	hi VARCHAR NOT NULL,
	touched_at TIMESTAMP NOT NULL,
	PRIMARY KEY (lo, hi)
);`},
	}
}

// initialize applies pending migrations.
func (db *DB) initialize() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			closeQuietly(rows)
			return err
		}
		applied[v] = true
	}
	closeQuietly(rows)

	for _, m := range getMigrations() {
		if applied[m.Version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		db.logger.Debug().Int("version", m.Version).Str("name", m.Name).Msg("migration applied")
	}
	return nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := sqlTx.ExecContext(ctx, m.SQL); err != nil {
		rollbackQuietly(sqlTx)
		return err
	}
	if _, err := sqlTx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name); err != nil {
		rollbackQuietly(sqlTx)
		return err
	}
	return sqlTx.Commit()
}

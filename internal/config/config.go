// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package config loads Shelfwise configuration from defaults, an optional
// YAML file and environment variables (in increasing precedence).
//
// A Config is immutable after Load returns and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	NATS     NATSConfig     `koanf:"nats"`
	Redis    RedisConfig    `koanf:"redis"`
	Graph    GraphConfig    `koanf:"graph"`
	Feed     FeedConfig     `koanf:"feed"`
	Search   SearchConfig   `koanf:"search"`
	Notify   NotifyConfig   `koanf:"notify"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Store backends.
const (
	BackendBadger = "badger"
	BackendDuckDB = "duckdb"
)

// StoreConfig selects and configures the storage backend.
type StoreConfig struct {
	// Backend is "badger" (default) or "duckdb".
	Backend string `koanf:"backend"`

	// BadgerPath is the Badger data directory. Ignored when InMemory is set.
	BadgerPath string `koanf:"badger_path"`

	// InMemory runs Badger without disk persistence (tests, demos).
	InMemory bool `koanf:"in_memory"`

	// GCInterval is how often Badger value log GC runs.
	GCInterval time.Duration `koanf:"gc_interval"`

	// DuckDBPath is the DuckDB file. Empty means an in-memory database.
	DuckDBPath string `koanf:"duckdb_path"`

	// DuckDBThreads limits DuckDB worker threads.
	DuckDBThreads int `koanf:"duckdb_threads"`

	// DuckDBMaxConns caps the connection pool. Zero means NumCPU with a
	// floor of 4.
	DuckDBMaxConns int `koanf:"duckdb_max_conns"`
}

// NATSConfig configures the notification event bus. When Enabled is false
// events travel over an in-process channel instead.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	StreamName     string        `koanf:"stream_name"`
	RetentionDays  int           `koanf:"retention_days"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
	DurableName    string        `koanf:"durable_name"`
}

// RedisConfig enables the shared feed snapshot cache.
type RedisConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// GraphConfig tunes retry of conflicting graph transactions.
type GraphConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	BaseBackoff time.Duration `koanf:"base_backoff"`
	MaxBackoff  time.Duration `koanf:"max_backoff"`
}

// FeedConfig tunes recommendation feed aggregation.
type FeedConfig struct {
	MaxFollowed     int           `koanf:"max_followed"`
	MaxItemsPerUser int           `koanf:"max_items_per_user"`
	PerUserTimeout  time.Duration `koanf:"per_user_timeout"`
	Concurrency     int           `koanf:"concurrency"`
	SnapshotTTL     time.Duration `koanf:"snapshot_ttl"`

	RefreshEnabled  bool          `koanf:"refresh_enabled"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	RefreshRate     float64       `koanf:"refresh_rate"` // snapshot reads per second
}

// SearchConfig holds search paging limits and the tunable score weights.
type SearchConfig struct {
	DefaultLimit      int     `koanf:"default_limit"`
	MaxLimit          int     `koanf:"max_limit"`
	VerifiedBonus     float64 `koanf:"verified_bonus"`
	FeaturedBonus     float64 `koanf:"featured_bonus"`
	FollowerLogFactor float64 `koanf:"follower_log_factor"`
}

// NotifyConfig configures secondary notification delivery.
type NotifyConfig struct {
	DeliveryTimeout time.Duration `koanf:"delivery_timeout"`
}

// Auth modes.
const (
	AuthModeJWT  = "jwt"
	AuthModeNone = "none"
)

// SecurityConfig configures the auth context provider and HTTP protections.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTIssuer         string        `koanf:"jwt_issuer"`
	AdminUsers        []string      `koanf:"admin_users"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// PolicyPath is a Casbin CSV policy replacing the built-in one.
	PolicyPath           string        `koanf:"policy_path"`
	PolicyReloadInterval time.Duration `koanf:"policy_reload_interval"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shelfwise/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  20 * time.Second,
		},
		Store: StoreConfig{
			Backend:       BackendBadger,
			BadgerPath:    "/data/badger",
			GCInterval:    10 * time.Minute,
			DuckDBThreads: 4,
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats",
			MaxMemory:      256 * 1024 * 1024,
			MaxStore:       1024 * 1024 * 1024,
			StreamName:     "SHELFWISE_NOTIFICATIONS",
			RetentionDays:  7,
			PublishTimeout: 5 * time.Second,
			DurableName:    "shelfwise-push",
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "shelfwise:feed:",
		},
		Graph: GraphConfig{
			MaxAttempts: 8,
			BaseBackoff: 2 * time.Millisecond,
			MaxBackoff:  100 * time.Millisecond,
		},
		Feed: FeedConfig{
			MaxFollowed:     200,
			MaxItemsPerUser: 50,
			PerUserTimeout:  2 * time.Second,
			Concurrency:     8,
			SnapshotTTL:     5 * time.Minute,
			RefreshInterval: 2 * time.Minute,
			RefreshRate:     20,
		},
		Search: SearchConfig{
			DefaultLimit:      20,
			MaxLimit:          100,
			VerifiedBonus:     50,
			FeaturedBonus:     25,
			FollowerLogFactor: 10,
		},
		Notify: NotifyConfig{
			DeliveryTimeout: 5 * time.Second,
		},
		Security: SecurityConfig{
			AuthMode:          AuthModeJWT,
			JWTIssuer:         "shelfwise",
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the first config file
// found, then environment variables. The result is validated.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.admin_users",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.request_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"store_backend":    "store.backend",
	"badger_path":      "store.badger_path",
	"badger_inmemory":  "store.in_memory",
	"badger_gc":        "store.gc_interval",
	"duckdb_path":      "store.duckdb_path",
	"duckdb_threads":   "store.duckdb_threads",
	"duckdb_max_conns": "store.duckdb_max_conns",

	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_embedded":       "nats.embedded_server",
	"nats_store_dir":      "nats.store_dir",
	"nats_max_memory":     "nats.max_memory",
	"nats_max_store":      "nats.max_store",
	"nats_stream":         "nats.stream_name",
	"nats_retention_days": "nats.retention_days",

	"redis_enabled":  "redis.enabled",
	"redis_addr":     "redis.addr",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",

	"graph_max_attempts": "graph.max_attempts",
	"graph_base_backoff": "graph.base_backoff",
	"graph_max_backoff":  "graph.max_backoff",

	"feed_max_followed":     "feed.max_followed",
	"feed_max_items":        "feed.max_items_per_user",
	"feed_user_timeout":     "feed.per_user_timeout",
	"feed_concurrency":      "feed.concurrency",
	"feed_snapshot_ttl":     "feed.snapshot_ttl",
	"feed_refresh_enabled":  "feed.refresh_enabled",
	"feed_refresh_interval": "feed.refresh_interval",
	"feed_refresh_rate":     "feed.refresh_rate",

	"search_default_limit": "search.default_limit",
	"search_max_limit":     "search.max_limit",

	"notify_delivery_timeout": "notify.delivery_timeout",

	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"jwt_issuer":          "security.jwt_issuer",
	"admin_users":         "security.admin_users",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"authz_policy_path":   "security.policy_path",
	"authz_policy_reload": "security.policy_reload_interval",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

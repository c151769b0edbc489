// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const minJWTSecretLength = 32

// Validate checks cross-field constraints. It is called by Load.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateStore,
		c.validateNATS,
		c.validateRedis,
		c.validateGraph,
		c.validateFeed,
		c.validateSearch,
		c.validateSecurity,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case BackendBadger:
		if !c.Store.InMemory && c.Store.BadgerPath == "" {
			return errors.New("BADGER_PATH is required unless BADGER_INMEMORY is set")
		}
	case BackendDuckDB:
		if c.Store.DuckDBThreads < 1 {
			return errors.New("DUCKDB_THREADS must be at least 1")
		}
		if c.Store.DuckDBMaxConns < 0 {
			return errors.New("DUCKDB_MAX_CONNS must not be negative")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendBadger, BackendDuckDB, c.Store.Backend)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	u, err := url.Parse(c.NATS.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("NATS_URL is invalid: %q", c.NATS.URL)
	}
	if u.Scheme != "nats" && u.Scheme != "tls" {
		return fmt.Errorf("NATS_URL scheme must be nats or tls, got %q", u.Scheme)
	}
	if c.NATS.StreamName == "" {
		return errors.New("NATS_STREAM must not be empty")
	}
	if c.NATS.RetentionDays < 1 {
		return errors.New("NATS_RETENTION_DAYS must be at least 1")
	}
	return nil
}

func (c *Config) validateRedis() error {
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR is required when REDIS_ENABLED is set")
	}
	return nil
}

func (c *Config) validateGraph() error {
	if c.Graph.MaxAttempts < 1 {
		return errors.New("GRAPH_MAX_ATTEMPTS must be at least 1")
	}
	if c.Graph.BaseBackoff <= 0 || c.Graph.MaxBackoff < c.Graph.BaseBackoff {
		return errors.New("GRAPH_BASE_BACKOFF must be positive and not exceed GRAPH_MAX_BACKOFF")
	}
	return nil
}

func (c *Config) validateFeed() error {
	switch {
	case c.Feed.MaxFollowed < 1:
		return errors.New("FEED_MAX_FOLLOWED must be at least 1")
	case c.Feed.MaxItemsPerUser < 1:
		return errors.New("FEED_MAX_ITEMS must be at least 1")
	case c.Feed.Concurrency < 1:
		return errors.New("FEED_CONCURRENCY must be at least 1")
	case c.Feed.PerUserTimeout <= 0:
		return errors.New("FEED_USER_TIMEOUT must be positive")
	case c.Feed.SnapshotTTL < 0:
		return errors.New("FEED_SNAPSHOT_TTL must not be negative")
	case c.Feed.RefreshEnabled && c.Feed.RefreshInterval <= 0:
		return errors.New("FEED_REFRESH_INTERVAL must be positive when refresh is enabled")
	case c.Feed.RefreshEnabled && c.Feed.RefreshRate <= 0:
		return errors.New("FEED_REFRESH_RATE must be positive when refresh is enabled")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.DefaultLimit < 1 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return errors.New("SEARCH_DEFAULT_LIMIT must be at least 1 and not exceed SEARCH_MAX_LIMIT")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch strings.ToLower(c.Security.AuthMode) {
	case AuthModeJWT:
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
		}
	case AuthModeNone:
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeJWT, AuthModeNone, c.Security.AuthMode)
	}
	if !c.Security.RateLimitDisabled && (c.Security.RateLimitRequests < 1 || c.Security.RateLimitWindow <= 0) {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

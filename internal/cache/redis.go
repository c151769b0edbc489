// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
)

// DefaultKeyPrefix namespaces keys when the config leaves it empty.
const DefaultKeyPrefix = "shelfwise:"

// Redis is a Cacher shared between instances.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to cfg.Addr and verifies the connection with PING.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	r := NewRedisFromClient(client, cfg.KeyPrefix)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	logging.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("Redis snapshot cache connected")
	return r, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// Name implements Cacher.
func (r *Redis) Name() string { return "redis" }

func (r *Redis) key(k string) string { return r.prefix + k }

// Get implements Cacher.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheLookup(r.Name(), false)
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheErrors.WithLabelValues(r.Name(), "get").Inc()
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	metrics.RecordCacheLookup(r.Name(), true)
	return val, true, nil
}

// Set implements Cacher.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		metrics.CacheErrors.WithLabelValues(r.Name(), "set").Inc()
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements Cacher.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		metrics.CacheErrors.WithLabelValues(r.Name(), "delete").Inc()
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

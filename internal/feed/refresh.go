// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package feed

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/metrics"
)

// Refresher rewarms recently read snapshots before they expire, so
// popular feeds rarely pay for a cold read. Reads against the media
// source are paced by a token bucket.
type Refresher struct {
	agg      *Aggregator
	interval time.Duration
	limiter  *rate.Limiter
}

// NewRefresher creates a Refresher. cfg.RefreshRate is in snapshot reads
// per second.
func NewRefresher(agg *Aggregator, cfg config.FeedConfig) *Refresher {
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	perSecond := cfg.RefreshRate
	if perSecond <= 0 {
		perSecond = 20
	}
	return &Refresher{
		agg:      agg,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Serve runs refresh passes every interval until ctx is done. It
// implements suture.Service.
func (r *Refresher) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RefreshOnce(ctx); err != nil && ctx.Err() == nil {
				r.agg.logger.Warn().Err(err).Msg("snapshot refresh pass aborted")
			}
		}
	}
}

// String names the service in supervisor logs.
func (r *Refresher) String() string { return "feed-refresh" }

// RefreshOnce reloads every snapshot read within the last SnapshotTTL
// and returns how many were rewritten. Individual failures are counted
// and skipped.
func (r *Refresher) RefreshOnce(ctx context.Context) (int, error) {
	if r.agg.cache == nil {
		return 0, nil
	}
	keys := r.agg.hot.since(r.agg.now().Add(-r.agg.cfg.SnapshotTTL))
	refreshed := 0
	for _, key := range keys {
		if err := r.limiter.Wait(ctx); err != nil {
			return refreshed, err
		}
		items, err := r.agg.load(ctx, key)
		if err != nil {
			metrics.FeedRefreshes.WithLabelValues("error").Inc()
			r.agg.logger.Debug().Err(err).Str("key", key.String()).Msg("snapshot refresh failed")
			continue
		}
		r.agg.storeSnapshot(ctx, key, items)
		metrics.FeedRefreshes.WithLabelValues("success").Inc()
		refreshed++
	}
	if refreshed > 0 {
		r.agg.logger.Debug().Int("refreshed", refreshed).Int("hot", len(keys)).Msg("snapshots refreshed")
	}
	return refreshed, nil
}

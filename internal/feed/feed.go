// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package feed builds the recommendation feed: for a viewer and a
// category, the recent media of every account the viewer follows,
// grouped per account.
//
// A build is a fan-out read. The following list is read once, the
// followed profiles are read in one batch, and then each followed
// user's category collection is read once, concurrently and under a
// per-user timeout. Collections are served from a short-lived snapshot
// cache when warm. A user whose read fails or times out is left out of
// the feed and listed in Feed.Skipped; the build itself only fails when
// the following list or the profiles cannot be read.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/shelfwise/internal/breaker"
	"github.com/tomtom215/shelfwise/internal/cache"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

// MediaSource reads one user's collection for a category in insertion
// order, keeping the newest limit items when limit > 0.
type MediaSource interface {
	List(ctx context.Context, ownerID string, category models.Category, limit int) ([]*models.MediaItem, error)
}

// FollowSource lists the accounts a user follows (accepted edges only),
// reporting whether more than limit exist.
type FollowSource interface {
	FollowingIDs(ctx context.Context, userID string, limit int) ([]string, bool, error)
}

// Group is one followed user's contribution to a feed.
type Group struct {
	UserID      string              `json:"user_id"`
	Handle      string              `json:"handle"`
	DisplayName string              `json:"display_name"`
	AvatarURL   string              `json:"avatar_url,omitempty"`
	Verified    bool                `json:"verified"`
	Items       []*models.MediaItem `json:"items"`
	LatestAt    time.Time           `json:"latest_at"`
}

// Feed is the result of BuildFeed. Groups is never nil.
type Feed struct {
	ViewerID    string          `json:"viewer_id"`
	Category    models.Category `json:"category"`
	Groups      []Group         `json:"groups"`
	Skipped     []string        `json:"skipped,omitempty"`
	Truncated   bool            `json:"truncated"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Config tunes aggregation.
type Config struct {
	MaxFollowed     int
	MaxItemsPerUser int
	PerUserTimeout  time.Duration
	Concurrency     int
	SnapshotTTL     time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		MaxFollowed:     200,
		MaxItemsPerUser: 50,
		PerUserTimeout:  2 * time.Second,
		Concurrency:     8,
		SnapshotTTL:     5 * time.Minute,
	}
}

// ConfigFrom converts the application config. Zero values keep the
// defaults.
func ConfigFrom(c config.FeedConfig) Config {
	cfg := DefaultConfig()
	if c.MaxFollowed > 0 {
		cfg.MaxFollowed = c.MaxFollowed
	}
	if c.MaxItemsPerUser > 0 {
		cfg.MaxItemsPerUser = c.MaxItemsPerUser
	}
	if c.PerUserTimeout > 0 {
		cfg.PerUserTimeout = c.PerUserTimeout
	}
	if c.Concurrency > 0 {
		cfg.Concurrency = c.Concurrency
	}
	if c.SnapshotTTL > 0 {
		cfg.SnapshotTTL = c.SnapshotTTL
	}
	return cfg
}

// Aggregator builds feeds.
type Aggregator struct {
	store   store.Store
	follows FollowSource
	media   MediaSource
	cache   cache.Cacher
	breaker *breaker.Breaker[[]*models.MediaItem]
	hot     *hotKeys
	cfg     Config
	now     func() time.Time
	logger  zerolog.Logger
}

// NewAggregator creates an Aggregator. c may be nil to disable snapshot
// caching.
func NewAggregator(s store.Store, follows FollowSource, media MediaSource, c cache.Cacher, cfg Config) *Aggregator {
	return &Aggregator{
		store:   s,
		follows: follows,
		media:   media,
		cache:   c,
		breaker: breaker.New[[]*models.MediaItem](breaker.Config{
			Name:         "feed-media",
			IsSuccessful: func(err error) bool { return !storeDown(err) },
		}),
		hot:    newHotKeys(),
		cfg:    cfg,
		now:    time.Now,
		logger: logging.WithComponent("feed"),
	}
}

// storeDown reports whether a media read failed because the store itself
// is unreachable. Only these failures count toward the shared breaker; a
// single owner's broken or slow collection just skips that owner.
func storeDown(err error) bool {
	return errors.Is(err, store.ErrUnavailable) || errors.Is(err, store.ErrClosed)
}

type outcome struct {
	items  []*models.MediaItem
	reason string // skip reason, empty on success
}

// BuildFeed returns the viewer's feed for category. A viewer following
// nobody, or whose followed users have no items in category, gets a feed
// with an empty Groups slice.
func (a *Aggregator) BuildFeed(ctx context.Context, viewerID string, category models.Category) (feed *Feed, err error) {
	start := time.Now()
	defer func() {
		label := string(category)
		if label == "" {
			label = "invalid"
		}
		metrics.RecordFeedBuild(label, time.Since(start), err)
	}()

	category, err = models.ParseCategory(string(category))
	if err != nil {
		return nil, err
	}

	ids, truncated, err := a.follows.FollowingIDs(ctx, viewerID, a.cfg.MaxFollowed)
	if err != nil {
		return nil, fmt.Errorf("read following of %s: %w", viewerID, err)
	}
	if truncated {
		metrics.FeedTruncations.Inc()
	}

	profiles, err := a.visibleProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]outcome, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, p := range profiles {
		g.Go(func() error {
			results[i] = a.read(gctx, p.ID, category)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	feed = &Feed{
		ViewerID:    viewerID,
		Category:    category,
		Groups:      []Group{},
		Truncated:   truncated,
		GeneratedAt: a.now().UTC(),
	}
	for i, r := range results {
		p := profiles[i]
		if r.reason != "" {
			feed.Skipped = append(feed.Skipped, p.ID)
			continue
		}
		if len(r.items) == 0 {
			continue
		}
		feed.Groups = append(feed.Groups, Group{
			UserID:      p.ID,
			Handle:      p.Handle,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			Verified:    p.Verified,
			Items:       r.items,
			LatestAt:    latest(r.items),
		})
	}
	sortGroups(feed.Groups)

	if len(feed.Skipped) > 0 {
		logging.Ctx(ctx).Warn().Str("viewer_id", viewerID).Str("category", string(category)).
			Strs("skipped", feed.Skipped).Msg("feed built with skipped users")
	}
	return feed, nil
}

// visibleProfiles reads the followed profiles in one transaction,
// dropping users that are gone, disabled or hide their activity. Order
// follows ids.
func (a *Aggregator) visibleProfiles(ctx context.Context, ids []string) ([]*models.Profile, error) {
	var out []*models.Profile
	err := a.store.View(ctx, func(tx store.ReadTx) error {
		out = out[:0]
		for _, id := range ids {
			p, err := tx.GetProfile(id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if p.Disabled || !p.Privacy.ShowActivity {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read followed profiles: %w", err)
	}
	return out, nil
}

// read fetches one user's snapshot under the per-user timeout. Failures
// become a skip reason.
func (a *Aggregator) read(ctx context.Context, ownerID string, category models.Category) outcome {
	items, err := a.snapshot(ctx, ownerID, category)
	if err == nil {
		return outcome{items: items}
	}

	reason := "error"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case breaker.IsOpen(err):
		reason = "breaker_open"
	}
	metrics.FeedUserSkips.WithLabelValues(reason).Inc()
	a.logger.Warn().Err(err).Str("owner_id", ownerID).Str("category", string(category)).
		Str("reason", reason).Msg("media snapshot read failed, skipping user")
	return outcome{reason: reason}
}

func latest(items []*models.MediaItem) time.Time {
	var t time.Time
	for _, it := range items {
		if it.AddedAt.After(t) {
			t = it.AddedAt
		}
	}
	return t
}

// sortGroups orders by most recent activity, ties by user id.
func sortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if !groups[i].LatestAt.Equal(groups[j].LatestAt) {
			return groups[i].LatestAt.After(groups[j].LatestAt)
		}
		return groups[i].UserID < groups[j].UserID
	})
}

// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package search maintains the profile search index and answers search
// and handle-autocomplete queries.
//
// An entry is rebuilt wholesale from the current profile on every
// Reindex, never patched. Profiles that are disabled, not searchable or
// not public have no entry.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

// reindexPage is the number of profile ids read per ReindexAll page.
const reindexPage = 200

// Indexer owns the search index.
type Indexer struct {
	store        store.Store
	weights      Weights
	defaultLimit int
	maxLimit     int
	now          func() time.Time
	logger       zerolog.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(s store.Store, cfg config.SearchConfig) *Indexer {
	if cfg.DefaultLimit < 1 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	return &Indexer{
		store:        s,
		weights:      WeightsFrom(cfg),
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		now:          time.Now,
		logger:       logging.WithComponent("search"),
	}
}

// Reindex rebuilds userID's entry from the stored profile, or removes it
// when the profile should not be discoverable.
func (ix *Indexer) Reindex(ctx context.Context, userID string) error {
	var removed bool
	err := ix.store.Update(ctx, func(tx store.Tx) error {
		removed = false
		p, err := tx.GetProfile(userID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !p.Indexable()) {
			removed = true
			return tx.DeleteSearchEntry(userID)
		}
		if err != nil {
			return err
		}
		return tx.PutSearchEntry(ix.entry(p))
	})
	if err != nil {
		metrics.SearchReindex.WithLabelValues("error").Inc()
		ix.logger.Warn().Err(err).Str("user_id", userID).Msg("reindex failed")
		return fmt.Errorf("reindex %s: %w", userID, err)
	}
	if removed {
		metrics.SearchReindex.WithLabelValues("removed").Inc()
	} else {
		metrics.SearchReindex.WithLabelValues("indexed").Inc()
	}
	return nil
}

func (ix *Indexer) entry(p *models.Profile) *models.SearchIndexEntry {
	location := ""
	if p.Privacy.ShowLocation {
		location = p.Location
	}
	return &models.SearchIndexEntry{
		UserID:         p.ID,
		Handle:         p.Handle,
		DisplayName:    p.DisplayName,
		Bio:            p.Bio,
		Location:       location,
		Tags:           append([]string(nil), p.Tags...),
		AvatarURL:      p.AvatarURL,
		Terms:          buildTerms(p, location),
		Verified:       p.Verified,
		Featured:       p.Featured,
		FollowersCount: p.FollowersCount,
		SearchScore:    Score(p, ix.weights),
		IndexedAt:      ix.now().UTC(),
	}
}

// ReindexStats summarizes a ReindexAll run.
type ReindexStats struct {
	Profiles int `json:"profiles"`
	Failed   int `json:"failed"`
}

// ReindexAll rebuilds every entry. Individual failures are counted and the
// run continues; only listing errors and cancellation stop it.
func (ix *Indexer) ReindexAll(ctx context.Context) (ReindexStats, error) {
	var stats ReindexStats
	after := ""
	for {
		var ids []string
		err := ix.store.View(ctx, func(tx store.ReadTx) error {
			var err error
			ids, err = tx.ListProfileIDs(after, reindexPage)
			return err
		})
		if err != nil {
			return stats, fmt.Errorf("list profiles: %w", err)
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			stats.Profiles++
			if err := ix.Reindex(ctx, id); err != nil {
				stats.Failed++
			}
		}
		if len(ids) < reindexPage {
			break
		}
		after = ids[len(ids)-1]
	}
	ix.logger.Info().Int("profiles", stats.Profiles).Int("failed", stats.Failed).Msg("search index rebuilt")
	return stats, nil
}

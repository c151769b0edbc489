// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package blocks records which users have blocked which. A block in
// either direction denies follows and profile views between the pair.
package blocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

// Registry answers block queries against a store.
type Registry struct {
	store store.Store
	now   func() time.Time
}

// NewRegistry creates a Registry.
func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s, now: time.Now}
}

// IsBlocked reports whether a has blocked b or b has blocked a.
func (r *Registry) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	var blocked bool
	err := r.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		blocked, err = IsBlockedTx(tx, a, b)
		return err
	})
	return blocked, err
}

// IsBlockedTx is IsBlocked inside the caller's transaction.
func IsBlockedTx(tx store.ReadTx, a, b string) (bool, error) {
	for _, pair := range [2][2]string{{a, b}, {b, a}} {
		_, err := tx.GetBlock(pair[0], pair[1])
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return false, fmt.Errorf("read block %s->%s: %w", pair[0], pair[1], err)
		}
	}
	return false, nil
}

// Direction reports each side of a pair separately.
func Direction(tx store.ReadTx, viewer, other string) (byViewer, byOther bool, err error) {
	if byViewer, err = exists(tx, viewer, other); err != nil {
		return false, false, err
	}
	byOther, err = exists(tx, other, viewer)
	return byViewer, byOther, err
}

func exists(tx store.ReadTx, blocker, blocked string) (bool, error) {
	_, err := tx.GetBlock(blocker, blocked)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// CreateBlock idempotently records blocker -> blocked and reports whether
// a new block was written. It does not touch follow edges; graph.Block
// does both in one transaction.
func (r *Registry) CreateBlock(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var created bool
	err := r.store.Update(ctx, func(tx store.Tx) error {
		var err error
		created, err = CreateBlockTx(tx, blockerID, blockedID, r.now())
		return err
	})
	if err == nil && created {
		logging.Ctx(ctx).Info().Str("blocker_id", blockerID).Str("blocked_id", blockedID).Msg("block created")
	}
	return created, err
}

// CreateBlockTx is CreateBlock inside the caller's transaction.
func CreateBlockTx(tx store.Tx, blockerID, blockedID string, now time.Time) (bool, error) {
	b, err := models.NewBlock(blockerID, blockedID, now)
	if err != nil {
		return false, err
	}
	return tx.PutBlock(b)
}

// ListBlockedBy returns the blocks userID has placed, ordered by blocked id.
func (r *Registry) ListBlockedBy(ctx context.Context, userID string) ([]*models.Block, error) {
	var out []*models.Block
	err := r.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		out, err = tx.ListBlocksBy(userID)
		return err
	})
	if out == nil {
		out = []*models.Block{}
	}
	return out, err
}

// RemoveBlock deletes blocker -> blocked. Missing blocks return
// models.ErrNotFound. Edges removed by the block are not restored.
func (r *Registry) RemoveBlock(ctx context.Context, blockerID, blockedID string) error {
	return r.store.Update(ctx, func(tx store.Tx) error {
		return tx.DeleteBlock(blockerID, blockedID)
	})
}

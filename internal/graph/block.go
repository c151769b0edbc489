// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/shelfwise/internal/blocks"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

// BlockResult reports what Block changed.
type BlockResult struct {
	Created bool `json:"created"`

	// RemovedOutgoing and RemovedIncoming are the statuses of the edges
	// deleted by the block, or "none".
	RemovedOutgoing models.EdgeStatus `json:"removed_outgoing"`
	RemovedIncoming models.EdgeStatus `json:"removed_incoming"`
}

// Block records blockerID -> blockedID and deletes edges between the pair
// in both directions. Blocking an already blocked user succeeds with
// Created false.
func (s *Service) Block(ctx context.Context, blockerID, blockedID string) (*BlockResult, error) {
	if err := validatePair(blockerID, blockedID); err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}

	var res *BlockResult
	err := s.update(ctx, "block", func(tx store.Tx, m *mutation) error {
		res = &BlockResult{RemovedOutgoing: models.EdgeNone, RemovedIncoming: models.EdgeNone}
		for _, id := range []string{blockerID, blockedID} {
			if _, err := tx.GetProfile(id); err != nil {
				return fmt.Errorf("profile %s: %w", id, err)
			}
		}

		created, err := blocks.CreateBlockTx(tx, blockerID, blockedID, s.now())
		if err != nil {
			return err
		}
		res.Created = created

		if res.RemovedOutgoing, err = s.removeIfPresent(tx, m, blockerID, blockedID); err != nil {
			return err
		}
		res.RemovedIncoming, err = s.removeIfPresent(tx, m, blockedID, blockerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("blocker_id", blockerID).Str("blocked_id", blockedID).
		Bool("created", res.Created).Str("removed_outgoing", string(res.RemovedOutgoing)).
		Str("removed_incoming", string(res.RemovedIncoming)).Msg("block applied")
	return res, nil
}

// removeIfPresent deletes followerID -> targetID when it exists and
// returns the status it had.
func (s *Service) removeIfPresent(tx store.Tx, m *mutation, followerID, targetID string) (models.EdgeStatus, error) {
	e, err := tx.GetEdge(followerID, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return models.EdgeNone, nil
	}
	if err != nil {
		return "", err
	}
	if err := s.removeEdge(tx, m, followerID, targetID); err != nil {
		return "", err
	}
	return e.Status, nil
}

// Unblock removes blockerID -> blockedID. Edges deleted by the block are
// not restored.
func (s *Service) Unblock(ctx context.Context, blockerID, blockedID string) error {
	if err := validatePair(blockerID, blockedID); err != nil {
		return fmt.Errorf("unblock: %w", err)
	}
	return s.update(ctx, "unblock", func(tx store.Tx, _ *mutation) error {
		if err := tx.DeleteBlock(blockerID, blockedID); err != nil {
			return fmt.Errorf("block %s -> %s: %w", blockerID, blockedID, err)
		}
		return nil
	})
}

// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package models

import (
	"fmt"
	"time"
)

// Block is keyed by (BlockerID, BlockedID). A block in either direction
// excludes follow edges between the pair.
type Block struct {
	BlockerID string    `json:"blocker_id"`
	BlockedID string    `json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBlock rejects self-blocks and malformed ids.
func NewBlock(blockerID, blockedID string, now time.Time) (*Block, error) {
	if err := ValidateUserID(blockerID); err != nil {
		return nil, err
	}
	if err := ValidateUserID(blockedID); err != nil {
		return nil, err
	}
	if blockerID == blockedID {
		return nil, fmt.Errorf("%w: cannot block yourself", ErrInvalidOperation)
	}
	return &Block{BlockerID: blockerID, BlockedID: blockedID, CreatedAt: now.UTC()}, nil
}

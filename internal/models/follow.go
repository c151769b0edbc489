// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package models

import (
	"fmt"
	"time"
)

// EdgeStatus is the state of a follow edge.
type EdgeStatus string

const (
	EdgePending  EdgeStatus = "pending"
	EdgeAccepted EdgeStatus = "accepted"

	// EdgeNone is used in relationship views when no edge exists. It is
	// never stored.
	EdgeNone EdgeStatus = "none"
)

// Valid reports whether s may be stored.
func (s EdgeStatus) Valid() bool {
	return s == EdgePending || s == EdgeAccepted
}

// EdgeParty is the denormalized snapshot of one side of an edge, taken
// when the edge is created. It may go stale.
type EdgeParty struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Verified    bool   `json:"verified"`
}

// FollowEdge is a directed follow relationship keyed by
// (FollowerID, FollowingID).
type FollowEdge struct {
	FollowerID  string     `json:"follower_id"`
	FollowingID string     `json:"following_id"`
	Status      EdgeStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	Follower    EdgeParty  `json:"follower"`
	Following   EdgeParty  `json:"following"`
}

// NewFollowEdge builds an edge from follower to following. Self-edges are
// rejected.
func NewFollowEdge(follower, following *Profile, status EdgeStatus, now time.Time) (*FollowEdge, error) {
	if follower == nil || following == nil {
		return nil, fmt.Errorf("%w: edge needs both profiles", ErrInvalidOperation)
	}
	if follower.ID == following.ID {
		return nil, fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: edge status %q", ErrInvalidOperation, status)
	}
	e := &FollowEdge{
		FollowerID:  follower.ID,
		FollowingID: following.ID,
		Status:      status,
		CreatedAt:   now.UTC(),
		Follower:    follower.Party(),
		Following:   following.Party(),
	}
	if status == EdgeAccepted {
		t := e.CreatedAt
		e.AcceptedAt = &t
	}
	return e, nil
}

// Accept moves a pending edge to accepted.
func (e *FollowEdge) Accept(now time.Time) error {
	if e.Status != EdgePending {
		return fmt.Errorf("%w: edge is %s, not pending", ErrInvalidOperation, e.Status)
	}
	t := now.UTC()
	e.Status = EdgeAccepted
	e.AcceptedAt = &t
	return nil
}

// RemovalDelta returns the counter deltas for deleting this edge, for the
// follower and the followed user respectively.
func (e *FollowEdge) RemovalDelta() (follower, following CounterDelta) {
	if e.Status != EdgeAccepted {
		return CounterDelta{}, CounterDelta{}
	}
	return CounterDelta{Following: -1}, CounterDelta{Followers: -1}
}

// AcceptanceDelta returns the counter deltas for an edge becoming accepted.
func AcceptanceDelta() (follower, following CounterDelta) {
	return CounterDelta{Following: 1}, CounterDelta{Followers: 1}
}

// Relationship is the viewer-relative state between two users.
type Relationship struct {
	ViewerID       string     `json:"viewer_id"`
	OtherID        string     `json:"other_id"`
	Outgoing       EdgeStatus `json:"outgoing"`
	Incoming       EdgeStatus `json:"incoming"`
	BlockedByMe    bool       `json:"blocked_by_me"`
	BlockedByOther bool       `json:"blocked_by_other"`
}

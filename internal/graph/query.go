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
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

// Listing page sizes.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Page is a cursor over an edge listing. After is the other user's id of
// the last edge on the previous page.
type Page struct {
	After string
	Limit int
}

func (p Page) limit() int {
	switch {
	case p.Limit <= 0:
		return DefaultPageSize
	case p.Limit > MaxPageSize:
		return MaxPageSize
	}
	return p.Limit
}

// GetRelationship describes both directions between viewerID and otherID.
func (s *Service) GetRelationship(ctx context.Context, viewerID, otherID string) (*models.Relationship, error) {
	if err := validatePair(viewerID, otherID); err != nil {
		return nil, fmt.Errorf("relationship: %w", err)
	}
	rel := &models.Relationship{ViewerID: viewerID, OtherID: otherID}
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		if rel.Outgoing, err = edgeStatus(tx, viewerID, otherID); err != nil {
			return err
		}
		if rel.Incoming, err = edgeStatus(tx, otherID, viewerID); err != nil {
			return err
		}
		rel.BlockedByMe, rel.BlockedByOther, err = blocks.Direction(tx, viewerID, otherID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

func edgeStatus(tx store.ReadTx, followerID, followingID string) (models.EdgeStatus, error) {
	e, err := tx.GetEdge(followerID, followingID)
	switch {
	case err == nil:
		return e.Status, nil
	case errors.Is(err, store.ErrNotFound):
		return models.EdgeNone, nil
	default:
		return "", err
	}
}

// ListFollowing returns userID's accepted outgoing edges ordered by
// followed user id.
func (s *Service) ListFollowing(ctx context.Context, userID string, page Page) ([]*models.FollowEdge, error) {
	return s.list(ctx, func(tx store.ReadTx) ([]*models.FollowEdge, error) {
		return tx.ListFollowing(userID, store.ListOptions{Status: models.EdgeAccepted, After: page.After, Limit: page.limit()})
	})
}

// ListFollowers returns userID's accepted incoming edges ordered by
// follower id.
func (s *Service) ListFollowers(ctx context.Context, userID string, page Page) ([]*models.FollowEdge, error) {
	return s.list(ctx, func(tx store.ReadTx) ([]*models.FollowEdge, error) {
		return tx.ListFollowers(userID, store.ListOptions{Status: models.EdgeAccepted, After: page.After, Limit: page.limit()})
	})
}

// ListPendingRequests returns follow requests awaiting userID's approval.
func (s *Service) ListPendingRequests(ctx context.Context, userID string, page Page) ([]*models.FollowEdge, error) {
	return s.list(ctx, func(tx store.ReadTx) ([]*models.FollowEdge, error) {
		return tx.ListFollowers(userID, store.ListOptions{Status: models.EdgePending, After: page.After, Limit: page.limit()})
	})
}

func (s *Service) list(ctx context.Context, fn func(tx store.ReadTx) ([]*models.FollowEdge, error)) ([]*models.FollowEdge, error) {
	var out []*models.FollowEdge
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.FollowEdge{}
	}
	return out, nil
}

// FollowingIDs returns up to limit ids userID follows (accepted) in one read
// and reports whether more exist.
func (s *Service) FollowingIDs(ctx context.Context, userID string, limit int) ([]string, bool, error) {
	var edges []*models.FollowEdge
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		edges, err = tx.ListFollowing(userID, store.ListOptions{Status: models.EdgeAccepted, Limit: limit + 1})
		return err
	})
	if err != nil {
		return nil, false, err
	}
	truncated := len(edges) > limit
	if truncated {
		edges = edges[:limit]
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.FollowingID
	}
	return ids, truncated, nil
}

// CounterAudit compares stored counters with the accepted edges.
type CounterAudit struct {
	UserID          string `json:"user_id"`
	StoredFollowers int64  `json:"stored_followers"`
	ActualFollowers int64  `json:"actual_followers"`
	StoredFollowing int64  `json:"stored_following"`
	ActualFollowing int64  `json:"actual_following"`
}

// Drifted reports whether either counter disagrees with the edges.
func (a *CounterAudit) Drifted() bool {
	return a.StoredFollowers != a.ActualFollowers || a.StoredFollowing != a.ActualFollowing
}

// AuditCounters counts userID's accepted edges and compares them with the
// stored counters in one snapshot. It never writes.
func (s *Service) AuditCounters(ctx context.Context, userID string) (*CounterAudit, error) {
	audit := &CounterAudit{UserID: userID}
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		p, err := tx.GetProfile(userID)
		if err != nil {
			return fmt.Errorf("profile %s: %w", userID, err)
		}
		audit.StoredFollowers = p.FollowersCount
		audit.StoredFollowing = p.FollowingCount

		accepted := store.ListOptions{Status: models.EdgeAccepted}
		followers, err := tx.ListFollowers(userID, accepted)
		if err != nil {
			return err
		}
		following, err := tx.ListFollowing(userID, accepted)
		if err != nil {
			return err
		}
		audit.ActualFollowers = int64(len(followers))
		audit.ActualFollowing = int64(len(following))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if audit.StoredFollowers != audit.ActualFollowers {
		metrics.CounterDrift.WithLabelValues("followers").Inc()
	}
	if audit.StoredFollowing != audit.ActualFollowing {
		metrics.CounterDrift.WithLabelValues("following").Inc()
	}
	if audit.Drifted() {
		s.logger.Warn().Str("user_id", userID).
			Int64("stored_followers", audit.StoredFollowers).Int64("actual_followers", audit.ActualFollowers).
			Int64("stored_following", audit.StoredFollowing).Int64("actual_following", audit.ActualFollowing).
			Msg("counter drift detected")
	}
	return audit, nil
}

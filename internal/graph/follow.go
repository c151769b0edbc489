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
	"github.com/tomtom215/shelfwise/internal/notify"
	"github.com/tomtom215/shelfwise/internal/store"
)

// FollowRequestsLink is the deep link of follow_request notifications.
const FollowRequestsLink = "/follow-requests"

// RequestFollow creates followerID -> targetID. The edge is pending when
// the target approves followers, accepted otherwise.
//
// Errors: models.ErrInvalidOperation for a self-follow,
// models.ErrNotFound when either profile is missing or disabled,
// models.ErrBlocked when a block exists in either direction and
// models.ErrAlreadyExists when the ordered pair already has an edge.
func (s *Service) RequestFollow(ctx context.Context, followerID, targetID string) (*models.FollowEdge, error) {
	if err := validatePair(followerID, targetID); err != nil {
		return nil, fmt.Errorf("follow: %w", err)
	}

	var edge *models.FollowEdge
	err := s.update(ctx, "request_follow", func(tx store.Tx, m *mutation) error {
		follower, err := activeProfile(tx, followerID)
		if err != nil {
			return err
		}
		target, err := activeProfile(tx, targetID)
		if err != nil {
			return err
		}

		blocked, err := blocks.IsBlockedTx(tx, followerID, targetID)
		if err != nil {
			return err
		}
		if blocked {
			return fmt.Errorf("follow %s -> %s: %w", followerID, targetID, models.ErrBlocked)
		}

		_, err = tx.GetEdge(followerID, targetID)
		switch {
		case err == nil:
			return fmt.Errorf("edge %s -> %s: %w", followerID, targetID, models.ErrAlreadyExists)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		status := models.EdgeAccepted
		if target.Privacy.AllowFollowRequests {
			status = models.EdgePending
		}
		edge, err = models.NewFollowEdge(follower, target, status, s.now())
		if err != nil {
			return err
		}
		if err := tx.InsertEdge(edge); err != nil {
			return err
		}

		ev := notify.Event{RecipientID: targetID, Actor: follower}
		if status == models.EdgeAccepted {
			if err := applyDelta(tx, followerID, targetID, models.AcceptanceDelta); err != nil {
				return err
			}
			ev.Type = models.NotificationNewFollower
			ev.DeepLink = models.ProfileDeepLink(follower.Handle)
			m.reindex = append(m.reindex, followerID, targetID)
		} else {
			ev.Type = models.NotificationFollowRequest
			ev.DeepLink = FollowRequestsLink
		}
		return s.record(tx, m, ev)
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("follower_id", followerID).Str("following_id", targetID).
		Str("status", string(edge.Status)).Msg("follow created")
	return edge, nil
}

// AcceptFollow approves the pending edge followerID -> targetID.
func (s *Service) AcceptFollow(ctx context.Context, targetID, followerID string) (*models.FollowEdge, error) {
	if err := validatePair(targetID, followerID); err != nil {
		return nil, fmt.Errorf("accept: %w", err)
	}

	var edge *models.FollowEdge
	err := s.update(ctx, "accept_follow", func(tx store.Tx, m *mutation) error {
		e, err := pendingEdge(tx, followerID, targetID)
		if err != nil {
			return err
		}
		target, err := tx.GetProfile(targetID)
		if err != nil {
			return fmt.Errorf("profile %s: %w", targetID, err)
		}
		if err := e.Accept(s.now()); err != nil {
			return err
		}
		if err := tx.UpdateEdge(e); err != nil {
			return err
		}
		if err := applyDelta(tx, followerID, targetID, models.AcceptanceDelta); err != nil {
			return err
		}
		edge = e
		m.reindex = append(m.reindex, followerID, targetID)
		return s.record(tx, m, notify.Event{
			Type:        models.NotificationFollowAccepted,
			RecipientID: followerID,
			Actor:       target,
			DeepLink:    models.ProfileDeepLink(target.Handle),
		})
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}

// DeclineFollow deletes the pending edge followerID -> targetID. Accepted
// followers are removed with RemoveFollower.
func (s *Service) DeclineFollow(ctx context.Context, targetID, followerID string) error {
	if err := validatePair(targetID, followerID); err != nil {
		return fmt.Errorf("decline: %w", err)
	}
	return s.update(ctx, "decline_follow", func(tx store.Tx, _ *mutation) error {
		if _, err := pendingEdge(tx, followerID, targetID); err != nil {
			return err
		}
		return tx.DeleteEdge(followerID, targetID)
	})
}

// Unfollow deletes followerID -> targetID in any status. A missing edge
// returns models.ErrNotFound.
func (s *Service) Unfollow(ctx context.Context, followerID, targetID string) error {
	if err := validatePair(followerID, targetID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return s.update(ctx, "unfollow", func(tx store.Tx, m *mutation) error {
		return s.removeEdge(tx, m, followerID, targetID)
	})
}

// RemoveFollower is Unfollow initiated by the followed user.
func (s *Service) RemoveFollower(ctx context.Context, targetID, followerID string) error {
	if err := validatePair(targetID, followerID); err != nil {
		return fmt.Errorf("remove follower: %w", err)
	}
	return s.update(ctx, "remove_follower", func(tx store.Tx, m *mutation) error {
		return s.removeEdge(tx, m, followerID, targetID)
	})
}

// removeEdge deletes an edge and reverses its counters. The edge is read
// in the same transaction, so a retried removal never decrements twice.
func (s *Service) removeEdge(tx store.Tx, m *mutation, followerID, targetID string) error {
	e, err := tx.GetEdge(followerID, targetID)
	if err != nil {
		return fmt.Errorf("edge %s -> %s: %w", followerID, targetID, err)
	}
	if err := tx.DeleteEdge(followerID, targetID); err != nil {
		return err
	}
	if e.Status != models.EdgeAccepted {
		return nil
	}
	if err := applyDelta(tx, followerID, targetID, e.RemovalDelta); err != nil {
		return err
	}
	m.reindex = append(m.reindex, followerID, targetID)
	return nil
}

func pendingEdge(tx store.ReadTx, followerID, targetID string) (*models.FollowEdge, error) {
	e, err := tx.GetEdge(followerID, targetID)
	if err != nil {
		return nil, fmt.Errorf("follow request %s -> %s: %w", followerID, targetID, err)
	}
	if e.Status != models.EdgePending {
		return nil, fmt.Errorf("no pending request %s -> %s: %w", followerID, targetID, models.ErrNotFound)
	}
	return e, nil
}

func applyDelta(tx store.Tx, followerID, targetID string, delta func() (models.CounterDelta, models.CounterDelta)) error {
	followerDelta, targetDelta := delta()
	if err := tx.AdjustCounters(followerID, followerDelta); err != nil {
		return fmt.Errorf("adjust %s: %w", followerID, err)
	}
	if err := tx.AdjustCounters(targetID, targetDelta); err != nil {
		return fmt.Errorf("adjust %s: %w", targetID, err)
	}
	return nil
}

func (s *Service) record(tx store.Tx, m *mutation, ev notify.Event) error {
	if s.notifier == nil {
		return nil
	}
	n, err := s.notifier.Record(tx, ev)
	if err != nil {
		return err
	}
	m.notifications = append(m.notifications, n)
	return nil
}

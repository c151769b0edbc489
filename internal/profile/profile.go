// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package profile manages profile lifecycle: creation on first sign-in,
// edits, soft-disable and activity counters. Every committed change is
// followed by a synchronous search reindex of the profile.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/blocks"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
	"github.com/tomtom215/shelfwise/internal/validation"
)

// Reindexer rebuilds a user's search entry.
type Reindexer interface {
	Reindex(ctx context.Context, userID string) error
}

// NewProfileInput creates a profile on first sign-in.
type NewProfileInput struct {
	UserID      string `json:"user_id" validate:"required,userid"`
	Handle      string `json:"handle" validate:"required,handle"`
	DisplayName string `json:"display_name" validate:"max=64"`
}

// ProfileUpdate is a partial edit. Nil fields are left unchanged; empty
// strings and slices clear the field.
type ProfileUpdate struct {
	Handle      *string                 `json:"handle,omitempty" validate:"omitempty,handle"`
	DisplayName *string                 `json:"display_name,omitempty" validate:"omitempty,max=64"`
	Bio         *string                 `json:"bio,omitempty" validate:"omitempty,max=500"`
	Location    *string                 `json:"location,omitempty" validate:"omitempty,max=100"`
	Tags        *[]string               `json:"tags,omitempty" validate:"omitempty,max=16,dive,min=1,max=32"`
	AvatarURL   *string                 `json:"avatar_url,omitempty" validate:"omitempty,http_url"`
	CoverURL    *string                 `json:"cover_url,omitempty" validate:"omitempty,http_url"`
	SocialLinks *[]string               `json:"social_links,omitempty" validate:"omitempty,max=8,dive,http_url"`
	Privacy     *models.PrivacySettings `json:"privacy,omitempty"`
}

// Service is the profile store.
type Service struct {
	store  store.Store
	index  Reindexer
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates a Service. index may be nil.
func NewService(s store.Store, index Reindexer) *Service {
	return &Service{
		store:  s,
		index:  index,
		now:    time.Now,
		logger: logging.WithComponent("profile"),
	}
}

// SetReindexer replaces the reindex hook.
func (s *Service) SetReindexer(index Reindexer) {
	s.index = index
}

// Ensure returns the caller's profile, creating it on first sign-in.
// created reports whether a new profile was written. A handle owned by
// another user returns models.ErrAlreadyExists.
func (s *Service) Ensure(ctx context.Context, in NewProfileInput) (p *models.Profile, created bool, err error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return nil, false, verr
	}
	err = s.update(ctx, func(tx store.Tx) error {
		created = false
		existing, err := tx.GetProfile(in.UserID)
		if err == nil {
			p = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		p, err = models.NewProfile(in.UserID, in.Handle, in.DisplayName, s.now())
		if err != nil {
			return err
		}
		if err := tx.CreateProfile(p); err != nil {
			return fmt.Errorf("create profile %s: %w", in.UserID, err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		logging.Ctx(ctx).Info().Str("user_id", p.ID).Str("handle", p.Handle).Msg("profile created")
		s.reindex(ctx, p.ID)
	}
	return p, created, nil
}

// Get returns a profile as stored, including disabled ones.
func (s *Service) Get(ctx context.Context, id string) (*models.Profile, error) {
	var p *models.Profile
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		p, err = tx.GetProfile(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	return p, nil
}

// GetByHandle resolves a handle, case-insensitively.
func (s *Service) GetByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	var p *models.Profile
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		id, err := tx.GetProfileIDByHandle(models.NormalizeHandle(handle))
		if err != nil {
			return err
		}
		p, err = tx.GetProfile(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("handle %q: %w", handle, err)
	}
	return p, nil
}

// View returns id's profile as viewerID sees it. A block in either
// direction returns models.ErrBlocked; disabled profiles are only visible
// to their owner. viewerID may be empty for anonymous reads.
func (s *Service) View(ctx context.Context, viewerID, id string) (*models.Profile, error) {
	var p *models.Profile
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		if viewerID != "" && viewerID != id {
			blocked, err := blocks.IsBlockedTx(tx, viewerID, id)
			if err != nil {
				return err
			}
			if blocked {
				return fmt.Errorf("view %s: %w", id, models.ErrBlocked)
			}
		}
		var err error
		p, err = tx.GetProfile(id)
		if err != nil {
			return fmt.Errorf("profile %s: %w", id, err)
		}
		if p.Disabled && viewerID != id {
			return fmt.Errorf("profile %s disabled: %w", id, models.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p.VisibleTo(viewerID), nil
}

// Update applies a partial edit and reindexes the profile.
func (s *Service) Update(ctx context.Context, id string, upd ProfileUpdate) (*models.Profile, error) {
	if verr := validation.ValidateStruct(&upd); verr != nil {
		return nil, verr
	}
	p, err := s.mutate(ctx, id, func(p *models.Profile) error {
		if p.Disabled {
			return fmt.Errorf("profile %s disabled: %w", id, models.ErrNotFound)
		}
		upd.apply(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (u ProfileUpdate) apply(p *models.Profile) {
	if u.Handle != nil {
		p.Handle = models.NormalizeHandle(*u.Handle)
	}
	if u.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*u.DisplayName)
		if p.DisplayName == "" {
			p.DisplayName = p.Handle
		}
	}
	if u.Bio != nil {
		p.Bio = strings.TrimSpace(*u.Bio)
	}
	if u.Location != nil {
		p.Location = strings.TrimSpace(*u.Location)
	}
	if u.Tags != nil {
		p.Tags = normalizeTags(*u.Tags)
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
	if u.CoverURL != nil {
		p.CoverURL = *u.CoverURL
	}
	if u.SocialLinks != nil {
		p.SocialLinks = append([]string(nil), *u.SocialLinks...)
	}
	if u.Privacy != nil {
		p.Privacy = *u.Privacy
	}
}

// normalizeTags lowercases, trims and de-duplicates tags, keeping order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Disable soft-disables a profile and removes it from search. Disabling
// twice is not an error. Edges are kept.
func (s *Service) Disable(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, id, func(p *models.Profile) error {
		p.Disabled = true
		return nil
	})
	if err == nil {
		logging.Ctx(ctx).Info().Str("user_id", id).Msg("profile disabled")
	}
	return err
}

// SetFlags sets the admin-controlled flags. Nil leaves a flag unchanged.
func (s *Service) SetFlags(ctx context.Context, id string, verified, featured *bool) (*models.Profile, error) {
	return s.mutate(ctx, id, func(p *models.Profile) error {
		if verified != nil {
			p.Verified = *verified
		}
		if featured != nil {
			p.Featured = *featured
		}
		return nil
	})
}

// AdjustActivity applies post and review count deltas atomically. A delta
// that would make a counter negative returns models.ErrInvalidOperation.
func (s *Service) AdjustActivity(ctx context.Context, id string, posts, reviews int64) error {
	d := models.CounterDelta{Posts: posts, Reviews: reviews}
	if d.IsZero() {
		return nil
	}
	err := s.update(ctx, func(tx store.Tx) error {
		err := tx.AdjustCounters(id, d)
		if errors.Is(err, models.ErrCounterUnderflow) {
			return fmt.Errorf("%w: %w", models.ErrInvalidOperation, err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("adjust activity %s: %w", id, err)
	}
	s.reindex(ctx, id)
	return nil
}

// mutate loads a profile, applies fn, validates and writes it back, then
// reindexes.
func (s *Service) mutate(ctx context.Context, id string, fn func(p *models.Profile) error) (*models.Profile, error) {
	var p *models.Profile
	err := s.update(ctx, func(tx store.Tx) error {
		var err error
		p, err = tx.GetProfile(id)
		if err != nil {
			return fmt.Errorf("profile %s: %w", id, err)
		}
		if err := fn(p); err != nil {
			return err
		}
		p.UpdatedAt = s.now().UTC()
		if err := p.Validate(); err != nil {
			return err
		}
		return tx.UpdateProfile(p)
	})
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, id)
	return p, nil
}

const maxAttempts = 3

// update runs fn, re-running it on store conflicts.
func (s *Service) update(ctx context.Context, fn func(tx store.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.store.Update(ctx, fn)
		if !store.IsRetryable(err) {
			return err
		}
		s.logger.Debug().Err(err).Int("attempt", attempt).Msg("retrying profile transaction")
	}
	return err
}

// reindex never fails the caller; a stale entry is rebuilt on the next
// change.
func (s *Service) reindex(ctx context.Context, id string) {
	if s.index == nil {
		return
	}
	if err := s.index.Reindex(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("user_id", id).Msg("search reindex failed")
	}
}

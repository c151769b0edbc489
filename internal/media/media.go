// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package media is the per-user collection source read by the
// recommendation feed, with the small write path the media tracking
// feature uses to maintain it.
package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
	"github.com/tomtom215/shelfwise/internal/validation"
)

// Invalidator drops cached snapshots of a collection.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID string, category models.Category)
}

// PutInput adds or replaces one collection item.
type PutInput struct {
	Title       string   `json:"title" validate:"required,max=300"`
	CoverURL    string   `json:"cover_url" validate:"omitempty,http_url"`
	Year        int      `json:"year" validate:"gte=0,lte=3000"`
	Collections []string `json:"collections" validate:"max=20,dive,min=1,max=64"`
}

// Service reads and writes collections.
type Service struct {
	store store.Store
	inval Invalidator
	now   func() time.Time
}

// NewService creates a Service.
func NewService(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// SetInvalidator registers the snapshot cache to invalidate on writes.
func (s *Service) SetInvalidator(inv Invalidator) {
	s.inval = inv
}

// List returns ownerID's items in category in insertion order. A positive
// limit keeps only the newest limit items.
func (s *Service) List(ctx context.Context, ownerID string, category models.Category, limit int) ([]*models.MediaItem, error) {
	var items []*models.MediaItem
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		items, err = tx.ListMediaItems(ownerID, category, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", ownerID, category, err)
	}
	if items == nil {
		items = []*models.MediaItem{}
	}
	return items, nil
}

// Put adds an item or replaces the item with the same external id. A
// replaced item keeps its position and its original AddedAt. The stored
// item is returned.
func (s *Service) Put(ctx context.Context, ownerID string, category models.Category, externalID string, in PutInput) (*models.MediaItem, error) {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return nil, verr
	}
	category, err := models.ParseCategory(string(category))
	if err != nil {
		return nil, err
	}
	item := &models.MediaItem{
		OwnerID:     ownerID,
		Category:    category,
		ExternalID:  externalID,
		Title:       strings.TrimSpace(in.Title),
		CoverURL:    in.CoverURL,
		Year:        in.Year,
		Collections: in.Collections,
		AddedAt:     s.now().UTC(),
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetProfile(ownerID); err != nil {
			return fmt.Errorf("owner %s: %w", ownerID, err)
		}
		if err := tx.PutMediaItem(item); err != nil {
			return err
		}
		items, err := tx.ListMediaItems(ownerID, category, 0)
		if err != nil {
			return err
		}
		for _, stored := range items {
			if stored.ExternalID == externalID {
				item = stored
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID, category)
	logging.Ctx(ctx).Debug().Str("owner_id", ownerID).Str("category", string(category)).
		Str("external_id", externalID).Msg("media item stored")
	return item, nil
}

// Remove deletes one item. Missing items return models.ErrNotFound.
func (s *Service) Remove(ctx context.Context, ownerID string, category models.Category, externalID string) error {
	category, err := models.ParseCategory(string(category))
	if err != nil {
		return err
	}
	err = s.store.Update(ctx, func(tx store.Tx) error {
		return tx.DeleteMediaItem(ownerID, category, externalID)
	})
	if err != nil {
		return fmt.Errorf("remove %s/%s/%s: %w", ownerID, category, externalID, err)
	}
	s.invalidate(ctx, ownerID, category)
	return nil
}

func (s *Service) invalidate(ctx context.Context, ownerID string, category models.Category) {
	if s.inval != nil {
		s.inval.Invalidate(ctx, ownerID, category)
	}
}

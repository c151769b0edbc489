// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package models

import (
	"fmt"
	"strings"
	"time"
)

// Category is a media category.
type Category string

const (
	CategoryMovie  Category = "movie"
	CategoryBook   Category = "book"
	CategorySeries Category = "series"
	CategoryMusic  Category = "music"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryMovie, CategoryBook, CategorySeries, CategoryMusic}

// ParseCategory accepts any case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidOperation, s)
}

// MediaItem is one entry of a user's collection for a category. The media
// tracking feature owns these; the graph only reads them.
type MediaItem struct {
	OwnerID     string    `json:"owner_id"`
	Category    Category  `json:"category"`
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Year        int       `json:"year,omitempty"`
	Collections []string  `json:"collections,omitempty"`
	AddedAt     time.Time `json:"added_at"`

	// Seq orders items within (OwnerID, Category) by insertion. Assigned
	// by the store.
	Seq uint64 `json:"seq"`
}

// Validate checks the identifying fields.
func (m *MediaItem) Validate() error {
	if err := ValidateUserID(m.OwnerID); err != nil {
		return err
	}
	if _, err := ParseCategory(string(m.Category)); err != nil {
		return err
	}
	if m.ExternalID == "" || len(m.ExternalID) > 128 || strings.ContainsAny(m.ExternalID, "/\x00") {
		return fmt.Errorf("%w: malformed external id %q", ErrInvalidOperation, m.ExternalID)
	}
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidOperation)
	}
	return nil
}

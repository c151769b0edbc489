// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package models

import "time"

// SearchIndexEntry is the flattened, ranked projection of a public,
// searchable profile. It is always rebuilt whole, never patched.
type SearchIndexEntry struct {
	UserID         string    `json:"user_id"`
	Handle         string    `json:"handle"`
	DisplayName    string    `json:"display_name"`
	Bio            string    `json:"bio,omitempty"`
	Location       string    `json:"location,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Terms          []string  `json:"terms"`
	Verified       bool      `json:"verified"`
	Featured       bool      `json:"featured"`
	FollowersCount int64     `json:"followers_count"`
	SearchScore    float64   `json:"search_score"`
	IndexedAt      time.Time `json:"indexed_at"`
}

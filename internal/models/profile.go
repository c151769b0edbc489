// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package models defines the records of the social graph: profiles, follow
// edges, blocks, notifications, search entries and the consumed media item
// shape, plus the API envelope and the error taxonomy.
//
// Constructors enforce record invariants (no self-edge, non-negative
// counters, valid ids) so that storage and service code can assume them.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// PrivacySettings controls how a profile participates in the graph.
type PrivacySettings struct {
	// AllowFollowRequests makes new followers wait for approval: edges
	// towards this profile start pending.
	AllowFollowRequests bool `json:"allow_follow_requests"`

	// ShowActivity exposes the user's collections in followers' feeds.
	ShowActivity bool `json:"show_activity"`

	// ShowLocation exposes Location to other viewers and to search.
	ShowLocation bool `json:"show_location"`

	// Searchable and Public must both be set for a search entry to exist.
	Searchable bool `json:"searchable"`
	Public     bool `json:"public"`
}

// DefaultPrivacy is applied to profiles created on first sign-in.
func DefaultPrivacy() PrivacySettings {
	return PrivacySettings{
		ShowActivity: true,
		ShowLocation: true,
		Searchable:   true,
		Public:       true,
	}
}

// Counters are the denormalized aggregates of a profile. They only change
// through CounterDelta applied in the same transaction as the records
// they count.
type Counters struct {
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	PostsCount     int64 `json:"posts_count"`
	ReviewsCount   int64 `json:"reviews_count"`
}

// Profile is the per-user record.
type Profile struct {
	ID          string          `json:"id"`
	Handle      string          `json:"handle"`
	DisplayName string          `json:"display_name"`
	Bio         string          `json:"bio,omitempty"`
	Location    string          `json:"location,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	AvatarURL   string          `json:"avatar_url,omitempty"`
	CoverURL    string          `json:"cover_url,omitempty"`
	SocialLinks []string        `json:"social_links,omitempty"`
	Verified    bool            `json:"verified"`
	Featured    bool            `json:"featured"`
	Privacy     PrivacySettings `json:"privacy"`
	Counters
	Disabled  bool      `json:"disabled,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	maxDisplayNameRunes = 64
	maxBioRunes         = 500
	maxTags             = 16
	maxSocialLinks      = 8
)

// NewProfile builds the record created on a user's first sign-in.
func NewProfile(id, handle, displayName string, now time.Time) (*Profile, error) {
	if err := ValidateUserID(id); err != nil {
		return nil, err
	}
	if err := ValidateHandle(handle); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = NormalizeHandle(handle)
	}
	p := &Profile{
		ID:          id,
		Handle:      NormalizeHandle(handle),
		DisplayName: displayName,
		Privacy:     DefaultPrivacy(),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks field limits and counter non-negativity.
func (p *Profile) Validate() error {
	var errs []error
	if err := ValidateUserID(p.ID); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateHandle(p.Handle); err != nil {
		errs = append(errs, err)
	}
	if utf8.RuneCountInString(p.DisplayName) > maxDisplayNameRunes {
		errs = append(errs, fmt.Errorf("%w: display name longer than %d characters", ErrInvalidOperation, maxDisplayNameRunes))
	}
	if utf8.RuneCountInString(p.Bio) > maxBioRunes {
		errs = append(errs, fmt.Errorf("%w: bio longer than %d characters", ErrInvalidOperation, maxBioRunes))
	}
	if len(p.Tags) > maxTags {
		errs = append(errs, fmt.Errorf("%w: at most %d tags", ErrInvalidOperation, maxTags))
	}
	if len(p.SocialLinks) > maxSocialLinks {
		errs = append(errs, fmt.Errorf("%w: at most %d social links", ErrInvalidOperation, maxSocialLinks))
	}
	if err := p.Counters.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Counters) validate() error {
	if c.FollowersCount < 0 || c.FollowingCount < 0 || c.PostsCount < 0 || c.ReviewsCount < 0 {
		return fmt.Errorf("%w: counters must not be negative", ErrInvalidOperation)
	}
	return nil
}

// Active reports whether the profile can take part in new relationships.
func (p *Profile) Active() bool {
	return p != nil && !p.Disabled
}

// Indexable reports whether the profile belongs in the search index.
func (p *Profile) Indexable() bool {
	return p.Active() && p.Privacy.Searchable && p.Privacy.Public
}

// Party returns the snapshot stored on follow edges.
func (p *Profile) Party() EdgeParty {
	return EdgeParty{Handle: p.Handle, DisplayName: p.DisplayName, Verified: p.Verified}
}

// Actor returns the snapshot stored on notifications.
func (p *Profile) Actor() ActorSnapshot {
	return ActorSnapshot{
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Verified:    p.Verified,
	}
}

// VisibleTo returns a copy with fields hidden by privacy settings removed
// for viewers other than the owner.
func (p *Profile) VisibleTo(viewerID string) *Profile {
	cp := *p
	if viewerID != p.ID && !p.Privacy.ShowLocation {
		cp.Location = ""
	}
	return &cp
}

// CounterDelta is a signed change to a profile's counters. It is the only
// way counters change.
type CounterDelta struct {
	Followers int64
	Following int64
	Posts     int64
	Reviews   int64
}

// IsZero reports whether the delta changes nothing.
func (d CounterDelta) IsZero() bool {
	return d == CounterDelta{}
}

// ErrCounterUnderflow is returned when a delta would take a counter below zero.
var ErrCounterUnderflow = errors.New("counter underflow")

// Apply returns c shifted by d, refusing to go negative.
func (c Counters) Apply(d CounterDelta) (Counters, error) {
	out := Counters{
		FollowersCount: c.FollowersCount + d.Followers,
		FollowingCount: c.FollowingCount + d.Following,
		PostsCount:     c.PostsCount + d.Posts,
		ReviewsCount:   c.ReviewsCount + d.Reviews,
	}
	if out.validate() != nil {
		return c, fmt.Errorf("%w: %+v applied to %+v", ErrCounterUnderflow, d, c)
	}
	return out, nil
}

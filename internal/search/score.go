// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package search

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/models"
)

// Weights are the terms of the search score.
type Weights struct {
	Base              float64
	Verified          float64
	Featured          float64
	FollowerLogFactor float64
	ActivityPerPost   float64
	ActivityPerReview float64
	ActivityCap       float64
	BioBonus          float64
	BioMinRunes       int
	AvatarBonus       float64
	CoverBonus        float64
	SocialLinkBonus   float64
}

// DefaultWeights returns the production weights.
func DefaultWeights() Weights {
	return Weights{
		Base:              1,
		Verified:          50,
		Featured:          25,
		FollowerLogFactor: 10,
		ActivityPerPost:   0.05,
		ActivityPerReview: 0.1,
		ActivityCap:       10,
		BioBonus:          2,
		BioMinRunes:       20,
		AvatarBonus:       1,
		CoverBonus:        1,
		SocialLinkBonus:   1,
	}
}

// WeightsFrom overrides the configurable weights. Zero values keep the
// defaults.
func WeightsFrom(c config.SearchConfig) Weights {
	w := DefaultWeights()
	if c.VerifiedBonus > 0 {
		w.Verified = c.VerifiedBonus
	}
	if c.FeaturedBonus > 0 {
		w.Featured = c.FeaturedBonus
	}
	if c.FollowerLogFactor > 0 {
		w.FollowerLogFactor = c.FollowerLogFactor
	}
	return w
}

// Score ranks a profile for search. Followers count logarithmically and
// activity is capped at w.ActivityCap.
func Score(p *models.Profile, w Weights) float64 {
	s := w.Base
	if p.Verified {
		s += w.Verified
	}
	if p.Featured {
		s += w.Featured
	}
	s += w.FollowerLogFactor * math.Log10(1+float64(p.FollowersCount))

	activity := w.ActivityPerPost*float64(p.PostsCount) + w.ActivityPerReview*float64(p.ReviewsCount)
	s += math.Min(activity, w.ActivityCap)

	if utf8.RuneCountInString(strings.TrimSpace(p.Bio)) >= w.BioMinRunes {
		s += w.BioBonus
	}
	if p.AvatarURL != "" {
		s += w.AvatarBonus
	}
	if p.CoverURL != "" {
		s += w.CoverBonus
	}
	if len(p.SocialLinks) > 0 {
		s += w.SocialLinkBonus
	}
	return s
}

// tokenize lowercases s and splits it on anything that is not a letter
// or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// buildTerms flattens the searchable text of a profile into sorted,
// de-duplicated terms. The whole handle is kept as a term so handle
// prefixes containing '_' or '.' still match.
func buildTerms(p *models.Profile, location string) []string {
	set := map[string]struct{}{p.Handle: {}}
	add := func(s string) {
		for _, t := range tokenize(s) {
			set[t] = struct{}{}
		}
	}
	add(p.Handle)
	add(p.DisplayName)
	add(p.Bio)
	add(location)
	for _, tag := range p.Tags {
		add(tag)
	}

	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// matchesAll reports whether every query token prefixes some term. terms
// must be sorted.
func matchesAll(terms, tokens []string) bool {
	for _, tok := range tokens {
		i := sort.SearchStrings(terms, tok)
		if i == len(terms) || !strings.HasPrefix(terms[i], tok) {
			return false
		}
	}
	return true
}

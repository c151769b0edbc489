// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/shelfwise/internal/blocks"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

// Filters narrows a search. Every query token must prefix-match a term of
// the entry.
type Filters struct {
	Query        string   `json:"q" validate:"max=200"`
	Tags         []string `json:"tags" validate:"max=10,dive,min=1,max=32"`
	VerifiedOnly bool     `json:"verified_only"`
	Location     string   `json:"location" validate:"max=100"`
	Limit        int      `json:"limit" validate:"gte=0,lte=1000"`
	Offset       int      `json:"offset" validate:"gte=0"`

	// ViewerID excludes profiles blocked in either direction. Optional.
	ViewerID string `json:"-"`
}

// Relevance levels, highest first.
const (
	RelevanceTerm         = 0
	RelevanceHandlePrefix = 1
	RelevanceHandleExact  = 2
)

// Result is one ranked entry.
type Result struct {
	*models.SearchIndexEntry
	Relevance int `json:"relevance"`
}

// Search returns entries matching f ordered by relevance, then search
// score descending, then handle.
func (ix *Indexer) Search(ctx context.Context, f Filters) ([]Result, error) {
	start := time.Now()
	defer func() {
		metrics.SearchQueries.WithLabelValues("search").Inc()
		metrics.SearchQueryDuration.Observe(time.Since(start).Seconds())
	}()

	query := strings.TrimSpace(f.Query)
	tokens := tokenize(query)
	handleQuery := models.NormalizeHandle(query)
	tags := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	location := strings.ToLower(strings.TrimSpace(f.Location))

	var results []Result
	err := ix.store.View(ctx, func(tx store.ReadTx) error {
		entries, err := tx.ListSearchEntries()
		if err != nil {
			return err
		}
		results = results[:0]
		for _, e := range entries {
			if f.VerifiedOnly && !e.Verified {
				continue
			}
			if location != "" && !strings.Contains(strings.ToLower(e.Location), location) {
				continue
			}
			if !hasAllTags(e.Tags, tags) || !matchesAll(e.Terms, tokens) {
				continue
			}
			if f.ViewerID != "" && f.ViewerID != e.UserID {
				blocked, err := blocks.IsBlockedTx(tx, f.ViewerID, e.UserID)
				if err != nil {
					return err
				}
				if blocked {
					continue
				}
			}
			results = append(results, Result{SearchIndexEntry: e, Relevance: relevance(e.Handle, handleQuery)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		if a.SearchScore != b.SearchScore {
			return a.SearchScore > b.SearchScore
		}
		return a.Handle < b.Handle
	})
	return page(results, f.Offset, ix.clampLimit(f.Limit)), nil
}

func relevance(handle, query string) int {
	switch {
	case query == "":
		return RelevanceTerm
	case handle == query:
		return RelevanceHandleExact
	case strings.HasPrefix(handle, query):
		return RelevanceHandlePrefix
	default:
		return RelevanceTerm
	}
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (ix *Indexer) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return ix.defaultLimit
	case limit > ix.maxLimit:
		return ix.maxLimit
	}
	return limit
}

// page slices items[offset:offset+limit]; a negative offset reads from
// the start.
func page[T any](items []T, offset, limit int) []T {
	offset = max(offset, 0)
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Suggestion is a handle autocomplete entry.
type Suggestion struct {
	UserID      string `json:"user_id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Verified    bool   `json:"verified"`
}

// Suggest returns handles starting with prefix, best scored first.
func (ix *Indexer) Suggest(ctx context.Context, prefix string, limit int) ([]Suggestion, error) {
	metrics.SearchQueries.WithLabelValues("suggest").Inc()
	prefix = models.NormalizeHandle(prefix)
	if prefix == "" {
		return []Suggestion{}, nil
	}

	var matches []*models.SearchIndexEntry
	err := ix.store.View(ctx, func(tx store.ReadTx) error {
		entries, err := tx.ListSearchEntries()
		if err != nil {
			return err
		}
		matches = matches[:0]
		for _, e := range entries {
			if strings.HasPrefix(e.Handle, prefix) {
				matches = append(matches, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].SearchScore != matches[j].SearchScore {
			return matches[i].SearchScore > matches[j].SearchScore
		}
		return matches[i].Handle < matches[j].Handle
	})
	matches = page(matches, 0, ix.clampLimit(limit))

	out := make([]Suggestion, len(matches))
	for i, e := range matches {
		out[i] = Suggestion{
			UserID:      e.UserID,
			Handle:      e.Handle,
			DisplayName: e.DisplayName,
			AvatarURL:   e.AvatarURL,
			Verified:    e.Verified,
		}
	}
	return out, nil
}

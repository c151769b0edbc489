// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package search

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/shelfwise/internal/blocks"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
	"github.com/tomtom215/shelfwise/internal/store/badgerstore"
)

func newIndexer(t *testing.T) (*Indexer, store.Store) {
	t.Helper()
	s, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return NewIndexer(s, config.SearchConfig{DefaultLimit: 10, MaxLimit: 50}), s
}

func put(t *testing.T, s store.Store, p *models.Profile, followers int64) {
	t.Helper()
	err := s.Update(context.Background(), func(tx store.Tx) error {
		if err := tx.CreateProfile(p); err != nil {
			return err
		}
		return tx.AdjustCounters(p.ID, models.CounterDelta{Followers: followers})
	})
	if err != nil {
		t.Fatalf("create %s: %v", p.ID, err)
	}
}

func profile(t *testing.T, id, handle, name string) *models.Profile {
	t.Helper()
	p, err := models.NewProfile(id, handle, name, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestScore(t *testing.T) {
	w := DefaultWeights()
	base := &models.Profile{}
	if got := Score(base, w); got != 1 {
		t.Errorf("empty profile score = %v, want 1", got)
	}

	full := &models.Profile{
		Verified:    true,
		Featured:    true,
		Bio:         "Twenty runes or more, surely.",
		AvatarURL:   "a",
		CoverURL:    "c",
		SocialLinks: []string{"l"},
		Counters:    models.Counters{FollowersCount: 99, PostsCount: 1000, ReviewsCount: 1000},
	}
	want := 1 + 50 + 25 + 10*math.Log10(100) + 10 + 2 + 1 + 1 + 1
	if got := Score(full, w); math.Abs(got-want) > 1e-9 {
		t.Errorf("full score = %v, want %v", got, want)
	}
}

func TestScore_FollowersHaveDiminishingReturns(t *testing.T) {
	w := DefaultWeights()
	score := func(n int64) float64 {
		return Score(&models.Profile{Counters: models.Counters{FollowersCount: n}}, w)
	}
	prev := score(0)
	for _, n := range []int64{1, 10, 100, 1000, 100000} {
		s := score(n)
		if s <= prev {
			t.Errorf("score(%d) = %v not above %v", n, s, prev)
		}
		prev = s
	}
	if gain10, gain1000 := score(10)-score(0), score(1010)-score(1000); gain1000 >= gain10 {
		t.Errorf("ten more followers worth %v at 1000 vs %v at 0", gain1000, gain10)
	}
	if score(1_000_000) >= score(0)+w.Verified+w.Featured {
		t.Error("a million followers should not outrank verified+featured on popularity alone")
	}
}

func TestWeightsFrom(t *testing.T) {
	w := WeightsFrom(config.SearchConfig{VerifiedBonus: 5})
	if w.Verified != 5 || w.Featured != DefaultWeights().Featured {
		t.Errorf("weights = %+v", w)
	}
}

func TestReindex(t *testing.T) {
	ix, s := newIndexer(t)
	ctx := context.Background()
	p := profile(t, "u1", "film_buff", "Film Buff")
	p.Location = "Porto"
	p.Privacy.ShowLocation = false
	p.Tags = []string{"noir"}
	put(t, s, p, 3)

	if err := ix.Reindex(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	var e *models.SearchIndexEntry
	err := s.View(ctx, func(tx store.ReadTx) error {
		var err error
		e, err = tx.GetSearchEntry("u1")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.Location != "" {
		t.Errorf("hidden location indexed: %q", e.Location)
	}
	if e.FollowersCount != 3 || math.Abs(e.SearchScore-(1+10*math.Log10(4))) > 1e-9 {
		t.Errorf("entry = %+v", e)
	}
	for _, term := range []string{"film_buff", "film", "buff", "noir"} {
		if !matchesAll(e.Terms, []string{term}) {
			t.Errorf("term %q missing from %v", term, e.Terms)
		}
	}
	if matchesAll(e.Terms, []string{"porto"}) {
		t.Error("hidden location leaked into terms")
	}
}

func TestReindex_RemovesUndiscoverable(t *testing.T) {
	tests := []struct {
		name string
		edit func(p *models.Profile)
	}{
		{"not searchable", func(p *models.Profile) { p.Privacy.Searchable = false }},
		{"not public", func(p *models.Profile) { p.Privacy.Public = false }},
		{"disabled", func(p *models.Profile) { p.Disabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, s := newIndexer(t)
			ctx := context.Background()
			put(t, s, profile(t, "u1", "someone", ""), 0)
			if err := ix.Reindex(ctx, "u1"); err != nil {
				t.Fatal(err)
			}

			err := s.Update(ctx, func(tx store.Tx) error {
				p, err := tx.GetProfile("u1")
				if err != nil {
					return err
				}
				tt.edit(p)
				return tx.UpdateProfile(p)
			})
			if err != nil {
				t.Fatal(err)
			}
			if err := ix.Reindex(ctx, "u1"); err != nil {
				t.Fatal(err)
			}
			err = s.View(ctx, func(tx store.ReadTx) error {
				_, err := tx.GetSearchEntry("u1")
				return err
			})
			if !errors.Is(err, store.ErrNotFound) {
				t.Errorf("entry still present: %v", err)
			}
		})
	}

	ix, _ := newIndexer(t)
	if err := ix.Reindex(context.Background(), "ghost"); err != nil {
		t.Errorf("reindex of missing profile = %v, want nil", err)
	}
}

func seedSearch(t *testing.T) (*Indexer, store.Store) {
	t.Helper()
	ix, s := newIndexer(t)
	ctx := context.Background()

	star := profile(t, "u1", "moviestar", "Movie Star")
	star.Verified = true
	star.Tags = []string{"noir", "horror"}
	put(t, s, star, 1000)

	fan := profile(t, "u2", "movie", "Just Movies")
	fan.Tags = []string{"noir"}
	fan.Location = "Lisbon"
	put(t, s, fan, 0)

	reader := profile(t, "u3", "bookworm", "Movie Reader")
	reader.Location = "Lisbon"
	put(t, s, reader, 10)

	other := profile(t, "u4", "quiet", "Nobody")
	put(t, s, other, 0)

	if _, err := ix.ReindexAll(ctx); err != nil {
		t.Fatal(err)
	}
	return ix, s
}

func handles(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Handle
	}
	return out
}

func TestSearch(t *testing.T) {
	ix, _ := seedSearch(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		f      Filters
		expect []string
	}{
		{"exact handle first", Filters{Query: "movie"}, []string{"movie", "moviestar", "bookworm"}},
		{"prefix token", Filters{Query: "mov rea"}, []string{"bookworm"}},
		{"tags", Filters{Tags: []string{"NOIR"}}, []string{"moviestar", "movie"}},
		{"verified only", Filters{Query: "movie", VerifiedOnly: true}, []string{"moviestar"}},
		{"location", Filters{Location: "lisbon"}, []string{"bookworm", "movie"}},
		{"no match", Filters{Query: "zzz"}, []string{}},
		{"paged", Filters{Query: "movie", Limit: 1, Offset: 1}, []string{"moviestar"}},
		{"offset past end", Filters{Query: "movie", Offset: 10}, []string{}},
		{"negative offset reads from start", Filters{Query: "movie", Offset: -1}, []string{"movie", "moviestar", "bookworm"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := ix.Search(ctx, tt.f)
			if err != nil {
				t.Fatal(err)
			}
			got := handles(results)
			if len(got) != len(tt.expect) {
				t.Fatalf("got %v, want %v", got, tt.expect)
			}
			for i := range got {
				if got[i] != tt.expect[i] {
					t.Fatalf("got %v, want %v", got, tt.expect)
				}
			}
		})
	}
}

func TestSearch_ExcludesBlockedPairs(t *testing.T) {
	ix, s := seedSearch(t)
	ctx := context.Background()
	if _, err := blocks.NewRegistry(s).CreateBlock(ctx, "u1", "u4"); err != nil {
		t.Fatal(err)
	}

	results, err := ix.Search(ctx, Filters{Query: "movie", ViewerID: "u4"})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.UserID == "u1" {
			t.Error("blocker returned to blocked viewer")
		}
	}
	if len(results) != 2 {
		t.Errorf("results = %v", handles(results))
	}
}

func TestSuggest(t *testing.T) {
	ix, _ := seedSearch(t)
	got, err := ix.Suggest(context.Background(), "@MOV", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Handle != "moviestar" || got[1].Handle != "movie" {
		t.Errorf("Suggest = %+v", got)
	}

	empty, err := ix.Suggest(context.Background(), "  ", 5)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty prefix = %v, %v", empty, err)
	}
}

func TestReindexAll(t *testing.T) {
	ix, s := newIndexer(t)
	for i, id := range []string{"a1", "a2", "a3"} {
		put(t, s, profile(t, id, "user_"+id, ""), int64(i))
	}
	stats, err := ix.ReindexAll(context.Background())
	if err != nil || stats.Profiles != 3 || stats.Failed != 0 {
		t.Errorf("ReindexAll = %+v, %v", stats, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ix.ReindexAll(ctx); err == nil {
		t.Error("cancelled ReindexAll should fail")
	}
}

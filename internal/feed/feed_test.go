// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/shelfwise/internal/cache"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/graph"
	"github.com/tomtom215/shelfwise/internal/media"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
	"github.com/tomtom215/shelfwise/internal/store/badgerstore"
	"github.com/tomtom215/shelfwise/internal/store/storetest"
)

var t0 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

// countingSource wraps a MediaSource, counting reads and optionally
// stalling or failing for chosen owners.
type countingSource struct {
	inner MediaSource
	calls atomic.Int64

	mu    sync.Mutex
	stall map[string]time.Duration
	fail  map[string]error
}

func (c *countingSource) List(ctx context.Context, ownerID string, category models.Category, limit int) ([]*models.MediaItem, error) {
	c.calls.Add(1)
	c.mu.Lock()
	delay, err := c.stall[ownerID], c.fail[ownerID]
	c.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay) // ignores ctx on purpose
	}
	if err != nil {
		return nil, err
	}
	return c.inner.List(ctx, ownerID, category, limit)
}

type fixture struct {
	t      *testing.T
	store  store.Store
	graph  *graph.Service
	media  *media.Service
	source *countingSource
	cache  *cache.Memory
	agg    *Aggregator
}

func newFixture(t *testing.T, cfg Config, users ...string) *fixture {
	t.Helper()
	s, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	for _, id := range users {
		storetest.SeedProfile(t, s, id)
	}
	g := graph.New(s, nil, nil, graph.DefaultConfig())
	m := media.NewService(s)
	src := &countingSource{inner: m, stall: map[string]time.Duration{}, fail: map[string]error{}}
	mem := cache.NewMemory(100)
	agg := NewAggregator(s, g, src, mem, cfg)
	m.SetInvalidator(agg)
	return &fixture{t: t, store: s, graph: g, media: m, source: src, cache: mem, agg: agg}
}

func (f *fixture) follow(follower string, targets ...string) {
	f.t.Helper()
	for _, target := range targets {
		if _, err := f.graph.RequestFollow(context.Background(), follower, target); err != nil {
			f.t.Fatalf("%s follows %s: %v", follower, target, err)
		}
	}
}

// addItems stores titles for owner with AddedAt = t0 + offset + i minutes.
func (f *fixture) addItems(owner string, category models.Category, offset time.Duration, titles ...string) {
	f.t.Helper()
	err := f.store.Update(context.Background(), func(tx store.Tx) error {
		for i, title := range titles {
			item := &models.MediaItem{
				OwnerID:    owner,
				Category:   category,
				ExternalID: fmt.Sprintf("%s-%s-%d", owner, category, i),
				Title:      title,
				AddedAt:    t0.Add(offset + time.Duration(i)*time.Minute),
			}
			if err := tx.PutMediaItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) edit(id string, fn func(p *models.Profile)) {
	f.t.Helper()
	err := f.store.Update(context.Background(), func(tx store.Tx) error {
		p, err := tx.GetProfile(id)
		if err != nil {
			return err
		}
		fn(p)
		return tx.UpdateProfile(p)
	})
	if err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) build(viewer string, category models.Category) *Feed {
	f.t.Helper()
	feed, err := f.agg.BuildFeed(context.Background(), viewer, category)
	if err != nil {
		f.t.Fatalf("BuildFeed(%s, %s): %v", viewer, category, err)
	}
	return feed
}

func groupUsers(feed *Feed) []string {
	out := make([]string, len(feed.Groups))
	for i, g := range feed.Groups {
		out[i] = g.UserID
	}
	return out
}

func titles(items []*models.MediaItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PerUserTimeout = 500 * time.Millisecond
	return cfg
}

func TestBuildFeed_GroupsOnlyUsersWithItems(t *testing.T) {
	f := newFixture(t, testConfig(), "viewer", "ann", "ben", "cat")
	f.follow("viewer", "ann", "ben", "cat")
	f.addItems("ann", models.CategoryMovie, 0, "Alien", "Heat")
	f.addItems("ann", models.CategoryBook, 0, "Dune")
	f.addItems("ben", models.CategoryBook, 0, "Emma")
	f.addItems("cat", models.CategoryMovie, time.Hour, "Ran")

	feed := f.build("viewer", models.CategoryMovie)

	if got := groupUsers(feed); !equal(got, []string{"cat", "ann"}) {
		t.Fatalf("groups = %v, want [cat ann]", got)
	}
	if got := titles(feed.Groups[1].Items); !equal(got, []string{"Alien", "Heat"}) {
		t.Errorf("ann items = %v, want stored order", got)
	}
	for _, g := range feed.Groups {
		for _, it := range g.Items {
			if it.Category != models.CategoryMovie || it.OwnerID != g.UserID {
				t.Errorf("foreign item in %s group: %+v", g.UserID, it)
			}
		}
	}
	if len(feed.Skipped) != 0 || feed.Truncated {
		t.Errorf("feed = %+v", feed)
	}
	if feed.Groups[1].Handle != "h_ann" {
		t.Errorf("group profile not filled: %+v", feed.Groups[1])
	}
}

func TestBuildFeed_EmptyIsNotAnError(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"follows nobody", func(f *fixture) {}},
		{"followed users have no items", func(f *fixture) {
			f.follow("viewer", "ann")
			f.addItems("ann", models.CategoryBook, 0, "Dune")
		}},
		{"unknown viewer", func(f *fixture) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testConfig(), "viewer", "ann")
			tt.setup(f)
			viewer := "viewer"
			if tt.name == "unknown viewer" {
				viewer = "ghost"
			}
			feed := f.build(viewer, models.CategoryMovie)
			if feed.Groups == nil || len(feed.Groups) != 0 {
				t.Errorf("Groups = %#v, want empty non-nil", feed.Groups)
			}
		})
	}
}

func TestBuildFeed_InvalidCategory(t *testing.T) {
	f := newFixture(t, testConfig(), "viewer")
	_, err := f.agg.BuildFeed(context.Background(), "viewer", "podcasts")
	if !errors.Is(err, models.ErrInvalidOperation) {
		t.Errorf("err = %v, want ErrInvalidOperation", err)
	}

	feed, err := f.agg.BuildFeed(context.Background(), "viewer", " MOVIE ")
	if err != nil || feed.Category != models.CategoryMovie {
		t.Errorf("normalized category: %v, %v", feed, err)
	}
}

func TestBuildFeed_OrderByLatestActivityThenID(t *testing.T) {
	f := newFixture(t, testConfig(), "viewer", "u1", "u2", "u3", "u4")
	f.follow("viewer", "u1", "u2", "u3", "u4")
	f.addItems("u1", models.CategorySeries, 0, "Lost")
	f.addItems("u2", models.CategorySeries, 3*time.Hour, "Dark")
	f.addItems("u3", models.CategorySeries, time.Hour, "Fargo", "Atlanta", "Shogun")
	f.addItems("u4", models.CategorySeries, 3*time.Hour, "Severance")

	feed := f.build("viewer", models.CategorySeries)
	if got := groupUsers(feed); !equal(got, []string{"u2", "u4", "u3", "u1"}) {
		t.Errorf("order = %v, want [u2 u4 u3 u1]", got)
	}
	if want := t0.Add(time.Hour + 2*time.Minute); !feed.Groups[2].LatestAt.Equal(want) {
		t.Errorf("u3 LatestAt = %v, want %v", feed.Groups[2].LatestAt, want)
	}
}

func TestBuildFeed_HidesInactiveProfiles(t *testing.T) {
	f := newFixture(t, testConfig(), "viewer", "open", "private", "gone", "pending")
	f.edit("pending", func(p *models.Profile) { p.Privacy.AllowFollowRequests = true })
	f.follow("viewer", "open", "private", "gone", "pending")
	for _, id := range []string{"open", "private", "gone", "pending"} {
		f.addItems(id, models.CategoryMusic, 0, "Track of "+id)
	}
	f.edit("private", func(p *models.Profile) { p.Privacy.ShowActivity = false })
	f.edit("gone", func(p *models.Profile) { p.Disabled = true })

	feed := f.build("viewer", models.CategoryMusic)
	if got := groupUsers(feed); !equal(got, []string{"open"}) {
		t.Errorf("groups = %v, want [open]", got)
	}
	if calls := f.source.calls.Load(); calls != 1 {
		t.Errorf("media reads = %d, want 1", calls)
	}
}

func TestBuildFeed_SlowUserIsSkipped(t *testing.T) {
	cfg := testConfig()
	cfg.PerUserTimeout = 50 * time.Millisecond
	f := newFixture(t, cfg, "viewer", "fast", "slow")
	f.follow("viewer", "fast", "slow")
	f.addItems("fast", models.CategoryMovie, 0, "Alien")
	f.addItems("slow", models.CategoryMovie, time.Hour, "Heat")
	f.source.stall["slow"] = 400 * time.Millisecond

	before := testutil.ToFloat64(metrics.FeedUserSkips.WithLabelValues("timeout"))
	start := time.Now()
	feed := f.build("viewer", models.CategoryMovie)
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("build waited %v for the slow user", elapsed)
	}

	if got := groupUsers(feed); !equal(got, []string{"fast"}) {
		t.Errorf("groups = %v, want [fast]", got)
	}
	if !equal(feed.Skipped, []string{"slow"}) {
		t.Errorf("Skipped = %v, want [slow]", feed.Skipped)
	}
	if got := testutil.ToFloat64(metrics.FeedUserSkips.WithLabelValues("timeout")) - before; got != 1 {
		t.Errorf("timeout skips = %v, want 1", got)
	}
}

func TestBuildFeed_FailingUserIsSkipped(t *testing.T) {
	f := newFixture(t, testConfig(), "viewer", "ok", "broken")
	f.follow("viewer", "ok", "broken")
	f.addItems("ok", models.CategoryBook, 0, "Dune")
	f.source.fail["broken"] = errors.New("collection service down")

	feed := f.build("viewer", models.CategoryBook)
	if !equal(groupUsers(feed), []string{"ok"}) || !equal(feed.Skipped, []string{"broken"}) {
		t.Errorf("feed groups %v skipped %v", groupUsers(feed), feed.Skipped)
	}
}

func TestBuildFeed_BrokenOwnersDoNotAffectOtherViewers(t *testing.T) {
	broken := make([]string, 10)
	for i := range broken {
		broken[i] = fmt.Sprintf("broken%d", i)
	}
	f := newFixture(t, testConfig(), append([]string{"viewerA", "viewerB", "healthy"}, broken...)...)
	f.follow("viewerA", broken...)
	f.follow("viewerB", "healthy")
	f.addItems("healthy", models.CategoryMovie, 0, "Heat")
	for _, id := range broken {
		f.source.fail[id] = errors.New("collection corrupt")
	}

	if feed := f.build("viewerA", models.CategoryMovie); len(feed.Skipped) != len(broken) {
		t.Fatalf("viewerA skipped %v, want all %d broken owners", feed.Skipped, len(broken))
	}
	feed := f.build("viewerB", models.CategoryMovie)
	if !equal(groupUsers(feed), []string{"healthy"}) || len(feed.Skipped) != 0 {
		t.Errorf("viewerB groups %v skipped %v, want [healthy] and none skipped", groupUsers(feed), feed.Skipped)
	}
}

func TestBuildFeed_StoreOutageOpensBreaker(t *testing.T) {
	down := make([]string, 10)
	for i := range down {
		down[i] = fmt.Sprintf("down%d", i)
	}
	f := newFixture(t, testConfig(), append([]string{"viewerA", "viewerB", "healthy"}, down...)...)
	f.follow("viewerA", down...)
	f.follow("viewerB", "healthy")
	f.addItems("healthy", models.CategoryMovie, 0, "Heat")
	for _, id := range down {
		f.source.fail[id] = store.ErrUnavailable
	}

	f.build("viewerA", models.CategoryMovie)
	before := f.source.calls.Load()
	feed := f.build("viewerB", models.CategoryMovie)
	if len(feed.Groups) != 0 || !equal(feed.Skipped, []string{"healthy"}) {
		t.Errorf("groups %v skipped %v, want healthy rejected by the open breaker", groupUsers(feed), feed.Skipped)
	}
	if calls := f.source.calls.Load(); calls != before {
		t.Errorf("media reads while open = %d, want 0", calls-before)
	}
}

func TestBuildFeed_Caps(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFollowed = 2
	cfg.MaxItemsPerUser = 2
	f := newFixture(t, cfg, "viewer", "a", "b", "c")
	f.follow("viewer", "a", "b", "c")
	for _, id := range []string{"a", "b", "c"} {
		f.addItems(id, models.CategoryMovie, 0, "one", "two", "three")
	}

	feed := f.build("viewer", models.CategoryMovie)
	if !feed.Truncated {
		t.Error("expected Truncated")
	}
	if len(feed.Groups) != 2 {
		t.Fatalf("groups = %v, want 2 of the 3 followed", groupUsers(feed))
	}
	if got := titles(feed.Groups[0].Items); !equal(got, []string{"two", "three"}) {
		t.Errorf("items = %v, want newest two in stored order", got)
	}
}

func TestBuildFeed_SnapshotCache(t *testing.T) {
	f := newFixture(t, testConfig(), "viewer", "ann")
	f.follow("viewer", "ann")
	f.addItems("ann", models.CategoryMovie, 0, "Alien")

	f.build("viewer", models.CategoryMovie)
	feed := f.build("viewer", models.CategoryMovie)
	if calls := f.source.calls.Load(); calls != 1 {
		t.Errorf("media reads after warm build = %d, want 1", calls)
	}
	if got := titles(feed.Groups[0].Items); !equal(got, []string{"Alien"}) {
		t.Errorf("cached items = %v", got)
	}

	_, err := f.media.Put(context.Background(), "ann", models.CategoryMovie, "tt-heat", media.PutInput{Title: "Heat"})
	if err != nil {
		t.Fatal(err)
	}
	feed = f.build("viewer", models.CategoryMovie)
	if calls := f.source.calls.Load(); calls != 2 {
		t.Errorf("media reads after invalidation = %d, want 2", calls)
	}
	if got := titles(feed.Groups[0].Items); !equal(got, []string{"Alien", "Heat"}) {
		t.Errorf("items after write = %v", got)
	}
}

func TestBuildFeed_CallerCancelled(t *testing.T) {
	f := newFixture(t, testConfig(), "viewer", "ann")
	f.follow("viewer", "ann")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.agg.BuildFeed(ctx, "viewer", models.CategoryMovie); err == nil {
		t.Error("expected an error for a cancelled build")
	}
}

func TestBuildFeed_Concurrent(t *testing.T) {
	f := newFixture(t, testConfig(), "v1", "v2", "ann", "ben")
	f.follow("v1", "ann", "ben")
	f.follow("v2", "ann")
	f.addItems("ann", models.CategorySeries, 0, "Lost")
	f.addItems("ben", models.CategorySeries, 0, "Dark")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			viewer, want := "v1", 2
			if i%2 == 1 {
				viewer, want = "v2", 1
			}
			feed, err := f.agg.BuildFeed(context.Background(), viewer, models.CategorySeries)
			if err != nil {
				t.Errorf("%s: %v", viewer, err)
				return
			}
			if len(feed.Groups) != want {
				t.Errorf("%s: groups %d, want %d", viewer, len(feed.Groups), want)
			}
		}(i)
	}
	wg.Wait()
}

func TestRefresher_RewarmsHotSnapshots(t *testing.T) {
	f := newFixture(t, testConfig(), "viewer", "ann")
	f.follow("viewer", "ann")
	f.addItems("ann", models.CategoryMovie, 0, "Alien")
	f.build("viewer", models.CategoryMovie)

	// A write that bypasses the media service leaves the snapshot stale.
	f.addItems("ann", models.CategoryMovie, 0, "Alien", "Heat")
	if got := titles(f.build("viewer", models.CategoryMovie).Groups[0].Items); !equal(got, []string{"Alien"}) {
		t.Fatalf("expected stale snapshot, got %v", got)
	}

	r := NewRefresher(f.agg, config.FeedConfig{RefreshRate: 1000})
	n, err := r.RefreshOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("RefreshOnce = %d, %v", n, err)
	}
	if got := titles(f.build("viewer", models.CategoryMovie).Groups[0].Items); !equal(got, []string{"Alien", "Heat"}) {
		t.Errorf("after refresh = %v", got)
	}
}

func TestRefresher_ForgetsColdKeys(t *testing.T) {
	f := newFixture(t, testConfig(), "viewer", "ann")
	f.follow("viewer", "ann")
	f.addItems("ann", models.CategoryMovie, 0, "Alien")
	f.build("viewer", models.CategoryMovie)

	f.agg.now = func() time.Time { return time.Now().Add(time.Hour) }
	r := NewRefresher(f.agg, config.FeedConfig{RefreshRate: 1000})
	if n, err := r.RefreshOnce(context.Background()); err != nil || n != 0 {
		t.Errorf("RefreshOnce = %d, %v, want nothing hot", n, err)
	}
	if len(f.agg.hot.since(time.Time{})) != 0 {
		t.Error("cold key still tracked")
	}
}

func TestRefresher_ServeStops(t *testing.T) {
	f := newFixture(t, testConfig())
	r := NewRefresher(f.agg, config.FeedConfig{RefreshInterval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if r.String() != "feed-refresh" {
		t.Errorf("String = %q", r.String())
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.FeedConfig{MaxFollowed: 10, PerUserTimeout: time.Second})
	if cfg.MaxFollowed != 10 || cfg.PerUserTimeout != time.Second || cfg.Concurrency != DefaultConfig().Concurrency {
		t.Errorf("ConfigFrom = %+v", cfg)
	}
}

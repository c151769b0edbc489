// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package storetest is a conformance suite run by every store.Store
// backend's tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

// Opener returns a fresh, empty store. The suite closes it.
type Opener func(t *testing.T) store.Store

var baseTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// Run executes the suite.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"ProfileLifecycle", testProfileLifecycle},
		{"HandleUniqueness", testHandleUniqueness},
		{"CounterDeltas", testCounterDeltas},
		{"CounterUnderflowAborts", testCounterUnderflowAborts},
		{"EdgeCRUD", testEdgeCRUD},
		{"EdgeListingPagination", testEdgeListing},
		{"Blocks", testBlocks},
		{"Notifications", testNotifications},
		{"SearchEntries", testSearchEntries},
		{"MediaOrdering", testMediaOrdering},
		{"RollbackOnError", testRollbackOnError},
		{"ConcurrentEdgeInsert", testConcurrentEdgeInsert},
		{"ConcurrentCounterDeltas", testConcurrentCounterDeltas},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// SeedProfile creates a profile with default privacy.
func SeedProfile(t *testing.T, s store.Store, id string) *models.Profile {
	t.Helper()
	p, err := models.NewProfile(id, "h_"+id, "User "+id, baseTime)
	if err != nil {
		t.Fatalf("NewProfile(%s): %v", id, err)
	}
	err = s.Update(context.Background(), func(tx store.Tx) error {
		return tx.CreateProfile(p)
	})
	if err != nil {
		t.Fatalf("CreateProfile(%s): %v", id, err)
	}
	return p
}

func getProfile(t *testing.T, s store.Store, id string) *models.Profile {
	t.Helper()
	var p *models.Profile
	err := s.View(context.Background(), func(tx store.ReadTx) error {
		var err error
		p, err = tx.GetProfile(id)
		return err
	})
	if err != nil {
		t.Fatalf("GetProfile(%s): %v", id, err)
	}
	return p
}

func update(t *testing.T, s store.Store, fn func(tx store.Tx) error) {
	t.Helper()
	if err := s.Update(context.Background(), fn); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func testProfileLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := SeedProfile(t, s, "alice")

	got := getProfile(t, s, "alice")
	if got.Handle != p.Handle || got.DisplayName != "User alice" {
		t.Errorf("GetProfile = %+v", got)
	}

	got.Bio = "Reads too many books"
	got.Tags = []string{"books", "scifi"}
	got.FollowersCount = 99 // must be ignored
	update(t, s, func(tx store.Tx) error { return tx.UpdateProfile(got) })

	again := getProfile(t, s, "alice")
	if again.Bio != "Reads too many books" || len(again.Tags) != 2 {
		t.Errorf("update not persisted: %+v", again)
	}
	if again.FollowersCount != 0 {
		t.Errorf("UpdateProfile changed counters: %d", again.FollowersCount)
	}

	err := s.View(ctx, func(tx store.ReadTx) error {
		_, err := tx.GetProfile("nobody")
		return err
	})
	if !errors.Is(err, store.ErrNotFound) || !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing profile error = %v", err)
	}

	SeedProfile(t, s, "bob")
	var ids []string
	err = s.View(ctx, func(tx store.ReadTx) error {
		var err error
		ids, err = tx.ListProfileIDs("alice", 10)
		return err
	})
	if err != nil || len(ids) != 1 || ids[0] != "bob" {
		t.Errorf("ListProfileIDs(after alice) = %v, %v", ids, err)
	}
}

func testHandleUniqueness(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedProfile(t, s, "alice")

	dup, _ := models.NewProfile("other", "H_ALICE", "", baseTime)
	err := s.Update(ctx, func(tx store.Tx) error { return tx.CreateProfile(dup) })
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate handle error = %v", err)
	}

	SeedProfile(t, s, "bob")
	bob := getProfile(t, s, "bob")
	bob.Handle = "h_alice"
	err = s.Update(ctx, func(tx store.Tx) error { return tx.UpdateProfile(bob) })
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("rename onto taken handle error = %v", err)
	}

	bob.Handle = "bobby"
	update(t, s, func(tx store.Tx) error { return tx.UpdateProfile(bob) })
	err = s.View(ctx, func(tx store.ReadTx) error {
		id, err := tx.GetProfileIDByHandle("@Bobby")
		if err != nil {
			return err
		}
		if id != "bob" {
			return fmt.Errorf("handle resolves to %q", id)
		}
		if _, err := tx.GetProfileIDByHandle("h_bob"); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("old handle still resolves: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}
}

func testCounterDeltas(t *testing.T, s store.Store) {
	SeedProfile(t, s, "alice")
	update(t, s, func(tx store.Tx) error {
		if err := tx.AdjustCounters("alice", models.CounterDelta{Followers: 2, Posts: 1}); err != nil {
			return err
		}
		return tx.AdjustCounters("alice", models.CounterDelta{Followers: -1, Reviews: 3})
	})
	got := getProfile(t, s, "alice")
	want := models.Counters{FollowersCount: 1, PostsCount: 1, ReviewsCount: 3}
	if got.Counters != want {
		t.Errorf("counters = %+v, want %+v", got.Counters, want)
	}

	err := s.Update(context.Background(), func(tx store.Tx) error {
		return tx.AdjustCounters("ghost", models.CounterDelta{Followers: 1})
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("adjust missing profile error = %v", err)
	}
}

func testCounterUnderflowAborts(t *testing.T, s store.Store) {
	SeedProfile(t, s, "alice")
	err := s.Update(context.Background(), func(tx store.Tx) error {
		if err := tx.AdjustCounters("alice", models.CounterDelta{Following: 1}); err != nil {
			return err
		}
		return tx.AdjustCounters("alice", models.CounterDelta{Followers: -1})
	})
	if !errors.Is(err, models.ErrCounterUnderflow) {
		t.Fatalf("underflow error = %v", err)
	}
	if got := getProfile(t, s, "alice"); got.FollowingCount != 0 {
		t.Errorf("aborted transaction leaked a delta: %+v", got.Counters)
	}
}

func newEdge(t *testing.T, follower, following *models.Profile, status models.EdgeStatus) *models.FollowEdge {
	t.Helper()
	e, err := models.NewFollowEdge(follower, following, status, baseTime)
	if err != nil {
		t.Fatalf("NewFollowEdge: %v", err)
	}
	return e
}

func testEdgeCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := SeedProfile(t, s, "a")
	b := SeedProfile(t, s, "b")
	e := newEdge(t, a, b, models.EdgePending)

	update(t, s, func(tx store.Tx) error { return tx.InsertEdge(e) })

	err := s.Update(ctx, func(tx store.Tx) error { return tx.InsertEdge(e) })
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("second insert error = %v", err)
	}

	if err := e.Accept(baseTime.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	update(t, s, func(tx store.Tx) error { return tx.UpdateEdge(e) })

	err = s.View(ctx, func(tx store.ReadTx) error {
		got, err := tx.GetEdge("a", "b")
		if err != nil {
			return err
		}
		if got.Status != models.EdgeAccepted || got.AcceptedAt == nil {
			return fmt.Errorf("edge = %+v", got)
		}
		in, err := tx.ListFollowers("b", store.ListOptions{})
		if err != nil {
			return err
		}
		if len(in) != 1 || in[0].Status != models.EdgeAccepted {
			return fmt.Errorf("incoming view not updated: %+v", in)
		}
		_, err = tx.GetEdge("b", "a")
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("reverse edge should not exist: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}

	update(t, s, func(tx store.Tx) error { return tx.DeleteEdge("a", "b") })
	err = s.Update(ctx, func(tx store.Tx) error { return tx.DeleteEdge("a", "b") })
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete error = %v", err)
	}
	err = s.View(ctx, func(tx store.ReadTx) error {
		in, err := tx.ListFollowers("b", store.ListOptions{})
		if err == nil && len(in) != 0 {
			err = fmt.Errorf("incoming view survived delete: %d", len(in))
		}
		return err
	})
	if err != nil {
		t.Error(err)
	}
}

func testEdgeListing(t *testing.T, s store.Store) {
	ctx := context.Background()
	viewer := SeedProfile(t, s, "v")
	ids := []string{"u1", "u2", "u3", "u4", "u5"}
	for i, id := range ids {
		p := SeedProfile(t, s, id)
		status := models.EdgeAccepted
		if i%2 == 1 {
			status = models.EdgePending
		}
		e := newEdge(t, viewer, p, status)
		update(t, s, func(tx store.Tx) error { return tx.InsertEdge(e) })
	}

	err := s.View(ctx, func(tx store.ReadTx) error {
		accepted, err := tx.ListFollowing("v", store.ListOptions{Status: models.EdgeAccepted})
		if err != nil {
			return err
		}
		if len(accepted) != 3 || accepted[0].FollowingID != "u1" || accepted[2].FollowingID != "u5" {
			return fmt.Errorf("accepted listing = %v", edgeTargets(accepted))
		}

		page, err := tx.ListFollowing("v", store.ListOptions{After: "u2", Limit: 2})
		if err != nil {
			return err
		}
		if got := edgeTargets(page); len(got) != 2 || got[0] != "u3" || got[1] != "u4" {
			return fmt.Errorf("page after u2 = %v", got)
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}
}

func edgeTargets(edges []*models.FollowEdge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.FollowingID
	}
	return out
}

func testBlocks(t *testing.T, s store.Store) {
	ctx := context.Background()
	b, _ := models.NewBlock("a", "b", baseTime)

	var created bool
	update(t, s, func(tx store.Tx) error {
		var err error
		created, err = tx.PutBlock(b)
		return err
	})
	if !created {
		t.Error("first PutBlock should report created")
	}
	update(t, s, func(tx store.Tx) error {
		var err error
		created, err = tx.PutBlock(b)
		return err
	})
	if created {
		t.Error("second PutBlock should be a no-op")
	}

	err := s.View(ctx, func(tx store.ReadTx) error {
		if _, err := tx.GetBlock("a", "b"); err != nil {
			return err
		}
		if _, err := tx.GetBlock("b", "a"); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("reverse block lookup = %v", err)
		}
		list, err := tx.ListBlocksBy("a")
		if err == nil && (len(list) != 1 || list[0].BlockedID != "b") {
			err = fmt.Errorf("ListBlocksBy = %+v", list)
		}
		return err
	})
	if err != nil {
		t.Error(err)
	}

	update(t, s, func(tx store.Tx) error { return tx.DeleteBlock("a", "b") })
	err = s.Update(ctx, func(tx store.Tx) error { return tx.DeleteBlock("a", "b") })
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("delete missing block error = %v", err)
	}
}

func testNotifications(t *testing.T, s store.Store) {
	ctx := context.Background()
	var ids []string
	for i := 0; i < 4; i++ {
		n, err := models.NewNotification(models.NotificationNewFollower, "r", fmt.Sprintf("a%d", i),
			models.ActorSnapshot{Handle: fmt.Sprintf("a%d", i)}, "", baseTime.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, n.ID)
		update(t, s, func(tx store.Tx) error { return tx.AppendNotification(n) })
	}

	update(t, s, func(tx store.Tx) error { return tx.MarkNotificationRead("r", ids[3]) })
	update(t, s, func(tx store.Tx) error { return tx.MarkNotificationRead("r", ids[3]) })

	err := s.View(ctx, func(tx store.ReadTx) error {
		all, err := tx.ListNotifications("r", store.NotificationQuery{})
		if err != nil {
			return err
		}
		if len(all) != 4 || all[0].ID != ids[3] || all[3].ID != ids[0] {
			return fmt.Errorf("expected newest first, got %d items", len(all))
		}
		if !all[0].Read {
			return errors.New("read flag not persisted")
		}

		unread, err := tx.ListNotifications("r", store.NotificationQuery{UnreadOnly: true})
		if err != nil {
			return err
		}
		if len(unread) != 3 || unread[0].ID != ids[2] {
			return fmt.Errorf("unread listing has %d items", len(unread))
		}

		page, err := tx.ListNotifications("r", store.NotificationQuery{Before: ids[2], Limit: 1})
		if err != nil {
			return err
		}
		if len(page) != 1 || page[0].ID != ids[1] {
			return fmt.Errorf("page before %s = %v", ids[2], page)
		}

		n, err := tx.CountUnread("r")
		if err == nil && n != 3 {
			err = fmt.Errorf("CountUnread = %d", n)
		}
		return err
	})
	if err != nil {
		t.Error(err)
	}

	err = s.Update(ctx, func(tx store.Tx) error { return tx.MarkNotificationRead("r", "missing") })
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("mark missing error = %v", err)
	}
}

func testSearchEntries(t *testing.T, s store.Store) {
	ctx := context.Background()
	e := &models.SearchIndexEntry{UserID: "a", Handle: "alice", Terms: []string{"alice"}, SearchScore: 3, IndexedAt: baseTime}
	update(t, s, func(tx store.Tx) error { return tx.PutSearchEntry(e) })

	e2 := *e
	e2.SearchScore = 7
	update(t, s, func(tx store.Tx) error { return tx.PutSearchEntry(&e2) })

	err := s.View(ctx, func(tx store.ReadTx) error {
		list, err := tx.ListSearchEntries()
		if err == nil && (len(list) != 1 || list[0].SearchScore != 7) {
			err = fmt.Errorf("entries = %+v", list)
		}
		return err
	})
	if err != nil {
		t.Error(err)
	}

	update(t, s, func(tx store.Tx) error { return tx.DeleteSearchEntry("a") })
	update(t, s, func(tx store.Tx) error { return tx.DeleteSearchEntry("a") })
	err = s.View(ctx, func(tx store.ReadTx) error {
		_, err := tx.GetSearchEntry("a")
		return err
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted entry lookup = %v", err)
	}
}

func testMediaOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	titles := []string{"Zodiac", "Alien", "Memento"}
	for i, title := range titles {
		item := &models.MediaItem{
			OwnerID:    "owner",
			Category:   models.CategoryMovie,
			ExternalID: fmt.Sprintf("tt%d", 100-i),
			Title:      title,
			AddedAt:    baseTime.Add(time.Duration(i) * time.Hour),
		}
		update(t, s, func(tx store.Tx) error { return tx.PutMediaItem(item) })
	}
	book := &models.MediaItem{OwnerID: "owner", Category: models.CategoryBook, ExternalID: "isbn1", Title: "Dune", AddedAt: baseTime}
	update(t, s, func(tx store.Tx) error { return tx.PutMediaItem(book) })

	// Re-putting keeps the original position.
	retitled := &models.MediaItem{OwnerID: "owner", Category: models.CategoryMovie, ExternalID: "tt100", Title: "Zodiac (2007)", AddedAt: baseTime.Add(48 * time.Hour)}
	update(t, s, func(tx store.Tx) error { return tx.PutMediaItem(retitled) })

	err := s.View(ctx, func(tx store.ReadTx) error {
		movies, err := tx.ListMediaItems("owner", models.CategoryMovie, 0)
		if err != nil {
			return err
		}
		if len(movies) != 3 || movies[0].Title != "Zodiac (2007)" || movies[2].Title != "Memento" {
			return fmt.Errorf("movies out of insertion order: %v", mediaTitles(movies))
		}
		if !movies[0].AddedAt.Equal(baseTime) {
			return fmt.Errorf("replacement moved AddedAt to %v", movies[0].AddedAt)
		}

		newest, err := tx.ListMediaItems("owner", models.CategoryMovie, 2)
		if err != nil {
			return err
		}
		if got := mediaTitles(newest); len(got) != 2 || got[0] != "Alien" || got[1] != "Memento" {
			return fmt.Errorf("limit should keep newest in insertion order, got %v", got)
		}

		books, err := tx.ListMediaItems("owner", models.CategoryBook, 0)
		if err == nil && len(books) != 1 {
			err = fmt.Errorf("books = %v", mediaTitles(books))
		}
		return err
	})
	if err != nil {
		t.Error(err)
	}

	update(t, s, func(tx store.Tx) error { return tx.DeleteMediaItem("owner", models.CategoryMovie, "tt99") })
	err = s.Update(ctx, func(tx store.Tx) error { return tx.DeleteMediaItem("owner", models.CategoryMovie, "tt99") })
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("delete missing media error = %v", err)
	}
}

func mediaTitles(items []*models.MediaItem) []string {
	out := make([]string, len(items))
	for i, m := range items {
		out[i] = m.Title
	}
	return out
}

func testRollbackOnError(t *testing.T, s store.Store) {
	a := SeedProfile(t, s, "a")
	b := SeedProfile(t, s, "b")
	boom := errors.New("boom")

	err := s.Update(context.Background(), func(tx store.Tx) error {
		if err := tx.InsertEdge(newEdge(t, a, b, models.EdgeAccepted)); err != nil {
			return err
		}
		if err := tx.AdjustCounters("a", models.CounterDelta{Following: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v", err)
	}

	err = s.View(context.Background(), func(tx store.ReadTx) error {
		if _, err := tx.GetEdge("a", "b"); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("edge survived rollback: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}
	if got := getProfile(t, s, "a"); got.FollowingCount != 0 {
		t.Errorf("counter survived rollback: %d", got.FollowingCount)
	}
}

// testConcurrentEdgeInsert checks that the ordered pair is a
// serialization point: racing inserts never both commit.
func testConcurrentEdgeInsert(t *testing.T, s store.Store) {
	a := SeedProfile(t, s, "a")
	b := SeedProfile(t, s, "b")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(context.Background(), func(tx store.Tx) error {
				if err := tx.InsertEdge(newEdge(t, a, b, models.EdgeAccepted)); err != nil {
					return err
				}
				return tx.AdjustCounters("b", models.CounterDelta{Followers: 1})
			})
			if err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
				return
			}
			if !errors.Is(err, store.ErrDuplicate) && !store.IsRetryable(err) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if committed != 1 {
		t.Errorf("committed = %d, want exactly 1", committed)
	}
	if got := getProfile(t, s, "b"); got.FollowersCount != 1 {
		t.Errorf("followers = %d, want 1", got.FollowersCount)
	}
}

// testConcurrentCounterDeltas checks that deltas commute: every committed
// delta is reflected, none is lost.
func testConcurrentCounterDeltas(t *testing.T, s store.Store) {
	SeedProfile(t, s, "hot")

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 50; attempt++ {
				err := s.Update(context.Background(), func(tx store.Tx) error {
					return tx.AdjustCounters("hot", models.CounterDelta{Followers: 1})
				})
				if err == nil {
					mu.Lock()
					committed++
					mu.Unlock()
					return
				}
				if !store.IsRetryable(err) {
					t.Errorf("unexpected error: %v", err)
					return
				}
				time.Sleep(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if got := getProfile(t, s, "hot"); got.FollowersCount != committed {
		t.Errorf("followers = %d, committed deltas = %d", got.FollowersCount, committed)
	}
}

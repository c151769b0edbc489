// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package badgerstore

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
	"github.com/tomtom215/shelfwise/internal/store/storetest"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTest(t) })
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpen_OnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{Path: dir, Compression: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	storetest.SeedProfile(t, s, "alice")
	if err := s.Maintain(context.Background()); err != nil {
		t.Errorf("Maintain: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(Options{Path: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	err = reopened.View(context.Background(), func(tx store.ReadTx) error {
		_, err := tx.GetProfile("alice")
		return err
	})
	if err != nil {
		t.Errorf("profile lost across reopen: %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	s := openTest(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, store.ErrClosed) {
		t.Errorf("Ping after close = %v", err)
	}
}

func TestUpdate_CancelledContextDoesNotCommit(t *testing.T) {
	s := openTest(t)
	defer s.Close()
	storetest.SeedProfile(t, s, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	err := s.Update(ctx, func(tx store.Tx) error {
		if err := tx.AdjustCounters("alice", models.CounterDelta{Posts: 1}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Update error = %v", err)
	}

	var p *models.Profile
	_ = s.View(context.Background(), func(tx store.ReadTx) error {
		var err error
		p, err = tx.GetProfile("alice")
		return err
	})
	if p.PostsCount != 0 {
		t.Errorf("cancelled update committed: posts = %d", p.PostsCount)
	}
}

func TestView_RejectsWrites(t *testing.T) {
	s := openTest(t)
	defer s.Close()

	err := s.View(context.Background(), func(rtx store.ReadTx) error {
		return rtx.(store.Tx).DeleteSearchEntry("x")
	})
	if err == nil {
		t.Fatal("write inside View should fail")
	}
}

func TestMapError(t *testing.T) {
	err := mapError(badger.ErrConflict)
	if !errors.Is(err, store.ErrConflict) || !errors.Is(err, models.ErrTransient) {
		t.Errorf("mapError(ErrConflict) = %v", err)
	}
	if !store.IsRetryable(err) {
		t.Error("conflict should be retryable")
	}
	if mapError(nil) != nil {
		t.Error("mapError(nil) != nil")
	}
}

func TestCompact_PreservesCounters(t *testing.T) {
	s := openTest(t)
	defer s.Close()
	storetest.SeedProfile(t, s, "alice")
	storetest.SeedProfile(t, s, "bob")

	deltas := []models.CounterDelta{
		{Followers: 1}, {Followers: 1}, {Following: 2}, {Followers: -1}, {Reviews: 4},
	}
	for _, d := range deltas {
		err := s.Update(context.Background(), func(tx store.Tx) error {
			return tx.AdjustCounters("alice", d)
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	before := readCounters(t, s, "alice")
	folded, err := s.Compact(context.Background())
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if folded != 1 {
		t.Errorf("folded = %d, want 1 (bob has no deltas)", folded)
	}
	after := readCounters(t, s, "alice")
	if before != after {
		t.Errorf("counters changed by compaction: %+v -> %+v", before, after)
	}
	want := models.Counters{FollowersCount: 1, FollowingCount: 2, ReviewsCount: 4}
	if after != want {
		t.Errorf("counters = %+v, want %+v", after, want)
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = counterDeltaPrefix("alice")
		it := txn.NewIterator(opts)
		defer it.Close()
		if it.Rewind(); it.Valid() {
			return errors.New("delta key survived compaction")
		}
		return nil
	})
	if err != nil {
		t.Error(err)
	}

	folded, err = s.Compact(context.Background())
	if err != nil || folded != 0 {
		t.Errorf("second Compact = %d, %v", folded, err)
	}
}

func readCounters(t *testing.T, s *Store, id string) models.Counters {
	t.Helper()
	var c models.Counters
	err := s.View(context.Background(), func(tx store.ReadTx) error {
		p, err := tx.GetProfile(id)
		if err != nil {
			return err
		}
		c = p.Counters
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCounterCodec(t *testing.T) {
	in := models.Counters{FollowersCount: 1 << 40, FollowingCount: 7, PostsCount: 0, ReviewsCount: 3}
	out, err := decodeCounters(encodeCounters(in))
	if err != nil {
		t.Fatal(err)
	}
	if in != out {
		t.Errorf("round trip = %+v", out)
	}
	// Negative deltas survive the unsigned encoding.
	neg := deltaAsCounters(models.CounterDelta{Followers: -3})
	back, _ := decodeCounters(encodeCounters(neg))
	if back.FollowersCount != -3 {
		t.Errorf("negative delta decoded as %d", back.FollowersCount)
	}
	if _, err := decodeCounters([]byte{1, 2}); err == nil {
		t.Error("short value should fail")
	}
}

func TestMediaKeysSortBySequence(t *testing.T) {
	a := string(mediaKey("u", models.CategoryBook, 9))
	b := string(mediaKey("u", models.CategoryBook, 10))
	if a >= b {
		t.Errorf("media key for seq 9 should sort before seq 10: %q >= %q", a, b)
	}
}

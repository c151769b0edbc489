// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package graph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/database"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/notify"
	"github.com/tomtom215/shelfwise/internal/store"
	"github.com/tomtom215/shelfwise/internal/store/badgerstore"
	"github.com/tomtom215/shelfwise/internal/store/storetest"
)

type fixture struct {
	t      *testing.T
	store  store.Store
	notify *notify.Fanout
	graph  *Service
	index  *recordingIndex
}

type recordingIndex struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingIndex) Reindex(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, userID)
	return nil
}

func (r *recordingIndex) reset() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.ids
	r.ids = nil
	return out
}

var testRetry = Config{MaxAttempts: 20, BaseBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond}

func badgerOpener(t *testing.T) store.Store {
	t.Helper()
	s, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func duckdbOpener(t *testing.T) store.Store {
	t.Helper()
	db, err := database.New(&config.StoreConfig{DuckDBThreads: 2})
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var backends = []struct {
	name string
	open func(t *testing.T) store.Store
}{
	{"badger", badgerOpener},
	{"duckdb", duckdbOpener},
}

func newFixture(t *testing.T, open func(t *testing.T) store.Store, users ...string) *fixture {
	t.Helper()
	s := open(t)
	fan := notify.New(s, time.Second)
	idx := &recordingIndex{}
	f := &fixture{t: t, store: s, notify: fan, graph: New(s, fan, idx, testRetry), index: idx}
	for _, id := range users {
		storetest.SeedProfile(t, s, id)
	}
	return f
}

func (f *fixture) editProfile(id string, fn func(p *models.Profile)) {
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
		f.t.Fatalf("edit %s: %v", id, err)
	}
}

func (f *fixture) requireApproval(id string) {
	f.editProfile(id, func(p *models.Profile) { p.Privacy.AllowFollowRequests = true })
}

func (f *fixture) counters(id string) models.Counters {
	f.t.Helper()
	var c models.Counters
	err := f.store.View(context.Background(), func(tx store.ReadTx) error {
		p, err := tx.GetProfile(id)
		if err != nil {
			return err
		}
		c = p.Counters
		return nil
	})
	if err != nil {
		f.t.Fatalf("counters %s: %v", id, err)
	}
	return c
}

func (f *fixture) tray(id string) []*models.Notification {
	f.t.Helper()
	list, err := f.notify.List(context.Background(), id, notify.ListOptions{})
	if err != nil {
		f.t.Fatalf("tray %s: %v", id, err)
	}
	return list
}

func (f *fixture) assertCounters(id string, followers, following int64) {
	f.t.Helper()
	c := f.counters(id)
	if c.FollowersCount != followers || c.FollowingCount != following {
		f.t.Errorf("%s counters = followers %d following %d, want %d %d",
			id, c.FollowersCount, c.FollowingCount, followers, following)
	}
}

func (f *fixture) assertNoDrift(ids ...string) {
	f.t.Helper()
	for _, id := range ids {
		audit, err := f.graph.AuditCounters(context.Background(), id)
		if err != nil {
			f.t.Fatalf("audit %s: %v", id, err)
		}
		if audit.Drifted() {
			f.t.Errorf("counter drift for %s: %+v", id, audit)
		}
	}
}

func (f *fixture) edge(follower, following string) models.EdgeStatus {
	f.t.Helper()
	var status models.EdgeStatus
	err := f.store.View(context.Background(), func(tx store.ReadTx) error {
		var err error
		status, err = edgeStatus(tx, follower, following)
		return err
	})
	if err != nil {
		f.t.Fatal(err)
	}
	return status
}

func TestRequestFollow_DirectWhenApprovalNotRequired(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			f := newFixture(t, b.open, "x", "y")
			ctx := context.Background()

			edge, err := f.graph.RequestFollow(ctx, "y", "x")
			if err != nil {
				t.Fatalf("RequestFollow: %v", err)
			}
			if edge.Status != models.EdgeAccepted || edge.AcceptedAt == nil {
				t.Errorf("edge = %+v, want accepted", edge)
			}
			f.assertCounters("x", 1, 0)
			f.assertCounters("y", 0, 1)

			tray := f.tray("x")
			if len(tray) != 1 || tray[0].Type != models.NotificationNewFollower || tray[0].ActorID != "y" {
				t.Errorf("tray(x) = %+v, want one new_follower from y", tray)
			}
			if len(f.tray("y")) != 0 {
				t.Error("follower should not be notified")
			}
			f.assertNoDrift("x", "y")
		})
	}
}

func TestRequestFollow_PendingThenAccept(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			f := newFixture(t, b.open, "x", "y")
			f.requireApproval("x")
			ctx := context.Background()

			edge, err := f.graph.RequestFollow(ctx, "y", "x")
			if err != nil {
				t.Fatalf("RequestFollow: %v", err)
			}
			if edge.Status != models.EdgePending || edge.AcceptedAt != nil {
				t.Errorf("edge = %+v, want pending", edge)
			}
			f.assertCounters("x", 0, 0)
			f.assertCounters("y", 0, 0)
			if tray := f.tray("x"); len(tray) != 1 || tray[0].Type != models.NotificationFollowRequest {
				t.Fatalf("tray(x) = %+v, want one follow_request", tray)
			}

			pending, err := f.graph.ListPendingRequests(ctx, "x", Page{})
			if err != nil || len(pending) != 1 || pending[0].FollowerID != "y" {
				t.Errorf("ListPendingRequests = %v, %v", pending, err)
			}

			accepted, err := f.graph.AcceptFollow(ctx, "x", "y")
			if err != nil {
				t.Fatalf("AcceptFollow: %v", err)
			}
			if accepted.Status != models.EdgeAccepted || accepted.AcceptedAt == nil {
				t.Errorf("accepted edge = %+v", accepted)
			}
			f.assertCounters("x", 1, 0)
			f.assertCounters("y", 0, 1)

			tray := f.tray("y")
			if len(tray) != 1 || tray[0].Type != models.NotificationFollowAccepted || tray[0].ActorID != "x" {
				t.Errorf("tray(y) = %+v, want one follow_accepted from x", tray)
			}
			if _, err := f.graph.AcceptFollow(ctx, "x", "y"); !errors.Is(err, models.ErrNotFound) {
				t.Errorf("second AcceptFollow = %v, want ErrNotFound", err)
			}
			f.assertNoDrift("x", "y")
		})
	}
}

func TestBlock_RemovesFollowerAndPreventsRefollow(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			f := newFixture(t, b.open, "x", "y")
			ctx := context.Background()

			if _, err := f.graph.RequestFollow(ctx, "y", "x"); err != nil {
				t.Fatal(err)
			}
			res, err := f.graph.Block(ctx, "x", "y")
			if err != nil {
				t.Fatalf("Block: %v", err)
			}
			if !res.Created || res.RemovedIncoming != models.EdgeAccepted || res.RemovedOutgoing != models.EdgeNone {
				t.Errorf("BlockResult = %+v", res)
			}
			if f.edge("y", "x") != models.EdgeNone {
				t.Error("edge survived the block")
			}
			f.assertCounters("x", 0, 0)
			f.assertCounters("y", 0, 0)

			if _, err := f.graph.RequestFollow(ctx, "y", "x"); !errors.Is(err, models.ErrBlocked) {
				t.Errorf("follow while blocked = %v, want ErrBlocked", err)
			}
			if _, err := f.graph.RequestFollow(ctx, "x", "y"); !errors.Is(err, models.ErrBlocked) {
				t.Errorf("blocker following blocked = %v, want ErrBlocked", err)
			}
			f.assertNoDrift("x", "y")
		})
	}
}

func TestRequestFollow_ConcurrentSamePair(t *testing.T) {
	f := newFixture(t, badgerOpener, "x", "y")
	ctx := context.Background()

	const callers = 50
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make(chan error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.graph.RequestFollow(ctx, "y", "x")
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var ok, exists int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, models.ErrAlreadyExists):
			exists++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || exists != callers-1 {
		t.Errorf("successes = %d, already exists = %d; want 1 and %d", ok, exists, callers-1)
	}
	f.assertCounters("x", 1, 0)
	f.assertCounters("y", 0, 1)
	if tray := f.tray("x"); len(tray) != 1 {
		t.Errorf("tray(x) has %d notifications, want 1", len(tray))
	}
}

// pausingStore parks the first edge insert inside its transaction until
// release is closed, so another writer can run against the open snapshot.
type pausingStore struct {
	store.Store
	once     sync.Once
	inserted chan struct{}
	release  chan struct{}
}

func newPausingStore(inner store.Store) *pausingStore {
	return &pausingStore{Store: inner, inserted: make(chan struct{}), release: make(chan struct{})}
}

func (p *pausingStore) Update(ctx context.Context, fn func(store.Tx) error) error {
	return p.Store.Update(ctx, func(tx store.Tx) error {
		return fn(&pausingTx{Tx: tx, s: p})
	})
}

type pausingTx struct {
	store.Tx
	s *pausingStore
}

func (t *pausingTx) InsertEdge(e *models.FollowEdge) error {
	if err := t.Tx.InsertEdge(e); err != nil {
		return err
	}
	t.s.once.Do(func() {
		close(t.s.inserted)
		<-t.s.release
	})
	return nil
}

func TestBlock_RacesInFlightFollow(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ps := newPausingStore(b.open(t))
			f := newFixture(t, func(*testing.T) store.Store { return ps }, "x", "y")
			ctx := context.Background()

			followErr := make(chan error, 1)
			go func() {
				_, err := f.graph.RequestFollow(ctx, "y", "x")
				followErr <- err
			}()
			<-ps.inserted

			blockErr := make(chan error, 1)
			go func() {
				_, err := f.graph.Block(ctx, "x", "y")
				blockErr <- err
			}()
			var bErr error
			blockDone := false
			select {
			case bErr = <-blockErr:
				blockDone = true
			case <-time.After(20 * time.Millisecond):
			}
			close(ps.release)

			fErr := <-followErr
			if !blockDone {
				bErr = <-blockErr
			}
			if bErr != nil {
				t.Fatalf("Block: %v", bErr)
			}
			if fErr != nil && !errors.Is(fErr, models.ErrBlocked) {
				t.Fatalf("RequestFollow: %v, want nil or ErrBlocked", fErr)
			}

			if got := f.edge("y", "x"); got != models.EdgeNone {
				t.Errorf("edge y -> x = %s alongside block x -> y", got)
			}
			err := f.store.View(ctx, func(tx store.ReadTx) error {
				_, err := tx.GetBlock("x", "y")
				return err
			})
			if err != nil {
				t.Errorf("block x -> y: %v", err)
			}
			f.assertCounters("x", 0, 0)
			f.assertCounters("y", 0, 0)
			f.assertNoDrift("x", "y")
		})
	}
}

func TestRequestFollow_Errors(t *testing.T) {
	f := newFixture(t, badgerOpener, "a", "b", "c", "d", "off")
	ctx := context.Background()

	f.editProfile("off", func(p *models.Profile) { p.Disabled = true })
	if _, err := f.graph.Block(ctx, "c", "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.graph.RequestFollow(ctx, "a", "d"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		follower string
		target   string
		want     error
	}{
		{"self follow", "a", "a", models.ErrInvalidOperation},
		{"malformed id", "a", "not an id", models.ErrInvalidOperation},
		{"missing target", "a", "ghost", models.ErrNotFound},
		{"missing follower", "ghost", "a", models.ErrNotFound},
		{"disabled target", "a", "off", models.ErrNotFound},
		{"blocked by target", "a", "c", models.ErrBlocked},
		{"blocker follows blocked", "c", "a", models.ErrBlocked},
		{"existing edge", "a", "d", models.ErrAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.graph.RequestFollow(ctx, tt.follower, tt.target)
			if !errors.Is(err, tt.want) {
				t.Errorf("RequestFollow(%s, %s) = %v, want %v", tt.follower, tt.target, err, tt.want)
			}
		})
	}

	if tray := f.tray("d"); len(tray) != 1 {
		t.Errorf("failed requests wrote notifications: %d in tray", len(tray))
	}
	f.assertNoDrift("a", "b", "c", "d")
}

func TestUnfollow_Twice(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			f := newFixture(t, b.open, "x", "y")
			ctx := context.Background()

			if _, err := f.graph.RequestFollow(ctx, "y", "x"); err != nil {
				t.Fatal(err)
			}
			if err := f.graph.Unfollow(ctx, "y", "x"); err != nil {
				t.Fatalf("first Unfollow: %v", err)
			}
			if err := f.graph.Unfollow(ctx, "y", "x"); !errors.Is(err, models.ErrNotFound) {
				t.Errorf("second Unfollow = %v, want ErrNotFound", err)
			}
			f.assertCounters("x", 0, 0)
			f.assertCounters("y", 0, 0)
		})
	}
}

func TestUnfollow_PendingLeavesCounters(t *testing.T) {
	f := newFixture(t, badgerOpener, "x", "y", "z")
	f.requireApproval("x")
	ctx := context.Background()

	if _, err := f.graph.RequestFollow(ctx, "z", "x"); err != nil {
		t.Fatal(err)
	}
	f.editProfile("x", func(p *models.Profile) { p.Privacy.AllowFollowRequests = false })
	if _, err := f.graph.RequestFollow(ctx, "y", "x"); err != nil {
		t.Fatal(err)
	}
	f.assertCounters("x", 1, 0)

	if err := f.graph.Unfollow(ctx, "z", "x"); err != nil {
		t.Fatal(err)
	}
	f.assertCounters("x", 1, 0)
	f.assertCounters("z", 0, 0)
	f.assertNoDrift("x", "y", "z")
}

func TestRoundTrip_ApprovalMatchesDirectFollow(t *testing.T) {
	ctx := context.Background()

	direct := newFixture(t, badgerOpener, "x", "y")
	if _, err := direct.graph.RequestFollow(ctx, "y", "x"); err != nil {
		t.Fatal(err)
	}

	approved := newFixture(t, badgerOpener, "x", "y")
	approved.requireApproval("x")
	if _, err := approved.graph.RequestFollow(ctx, "y", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := approved.graph.AcceptFollow(ctx, "x", "y"); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"x", "y"} {
		if d, a := direct.counters(id), approved.counters(id); d != a {
			t.Errorf("%s: direct %+v, approved %+v", id, d, a)
		}
	}
}

func TestDeclineFollow(t *testing.T) {
	f := newFixture(t, badgerOpener, "x", "y", "z")
	ctx := context.Background()

	if _, err := f.graph.RequestFollow(ctx, "z", "x"); err != nil {
		t.Fatal(err)
	}
	if err := f.graph.DeclineFollow(ctx, "x", "z"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("declining an accepted follower = %v, want ErrNotFound", err)
	}

	f.requireApproval("x")
	if _, err := f.graph.RequestFollow(ctx, "y", "x"); err != nil {
		t.Fatal(err)
	}
	if err := f.graph.DeclineFollow(ctx, "x", "y"); err != nil {
		t.Fatalf("DeclineFollow: %v", err)
	}
	if f.edge("y", "x") != models.EdgeNone {
		t.Error("declined edge still present")
	}
	if err := f.graph.DeclineFollow(ctx, "x", "y"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second DeclineFollow = %v", err)
	}
	f.assertCounters("x", 1, 0)
	f.assertCounters("y", 0, 0)
}

func TestRemoveFollower(t *testing.T) {
	f := newFixture(t, badgerOpener, "x", "y")
	ctx := context.Background()

	if _, err := f.graph.RequestFollow(ctx, "y", "x"); err != nil {
		t.Fatal(err)
	}
	if err := f.graph.RemoveFollower(ctx, "x", "y"); err != nil {
		t.Fatalf("RemoveFollower: %v", err)
	}
	f.assertCounters("x", 0, 0)
	f.assertCounters("y", 0, 0)
	if err := f.graph.RemoveFollower(ctx, "x", "y"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second RemoveFollower = %v", err)
	}
}

func TestBlock_RemovesBothDirections(t *testing.T) {
	f := newFixture(t, badgerOpener, "x", "y")
	f.requireApproval("y")
	ctx := context.Background()

	if _, err := f.graph.RequestFollow(ctx, "y", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.graph.RequestFollow(ctx, "x", "y"); err != nil {
		t.Fatal(err)
	}
	f.assertCounters("x", 1, 0)

	res, err := f.graph.Block(ctx, "x", "y")
	if err != nil {
		t.Fatal(err)
	}
	if res.RemovedOutgoing != models.EdgePending || res.RemovedIncoming != models.EdgeAccepted {
		t.Errorf("BlockResult = %+v", res)
	}
	if f.edge("x", "y") != models.EdgeNone || f.edge("y", "x") != models.EdgeNone {
		t.Error("edges survived the block")
	}
	f.assertCounters("x", 0, 0)
	f.assertCounters("y", 0, 0)

	again, err := f.graph.Block(ctx, "x", "y")
	if err != nil {
		t.Fatalf("repeated Block: %v", err)
	}
	if again.Created || again.RemovedIncoming != models.EdgeNone || again.RemovedOutgoing != models.EdgeNone {
		t.Errorf("repeated BlockResult = %+v", again)
	}
	f.assertCounters("x", 0, 0)
	f.assertNoDrift("x", "y")
}

func TestBlock_Errors(t *testing.T) {
	f := newFixture(t, badgerOpener, "x")
	ctx := context.Background()

	if _, err := f.graph.Block(ctx, "x", "x"); !errors.Is(err, models.ErrInvalidOperation) {
		t.Errorf("self block = %v", err)
	}
	if _, err := f.graph.Block(ctx, "x", "ghost"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("block missing user = %v", err)
	}
}

func TestUnblock(t *testing.T) {
	f := newFixture(t, badgerOpener, "x", "y")
	ctx := context.Background()

	if _, err := f.graph.RequestFollow(ctx, "y", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.graph.Block(ctx, "x", "y"); err != nil {
		t.Fatal(err)
	}
	if err := f.graph.Unblock(ctx, "x", "y"); err != nil {
		t.Fatalf("Unblock: %v", err)
	}
	if f.edge("y", "x") != models.EdgeNone {
		t.Error("unblock restored an edge")
	}
	if err := f.graph.Unblock(ctx, "x", "y"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second Unblock = %v", err)
	}
	if _, err := f.graph.RequestFollow(ctx, "y", "x"); err != nil {
		t.Errorf("follow after unblock: %v", err)
	}
}

func TestGetRelationship(t *testing.T) {
	f := newFixture(t, badgerOpener, "x", "y", "z")
	f.requireApproval("y")
	ctx := context.Background()

	if _, err := f.graph.RequestFollow(ctx, "x", "y"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.graph.RequestFollow(ctx, "y", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.graph.Block(ctx, "z", "x"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		viewer, other string
		want          models.Relationship
	}{
		{"x", "y", models.Relationship{ViewerID: "x", OtherID: "y", Outgoing: models.EdgePending, Incoming: models.EdgeAccepted}},
		{"y", "x", models.Relationship{ViewerID: "y", OtherID: "x", Outgoing: models.EdgeAccepted, Incoming: models.EdgePending}},
		{"x", "z", models.Relationship{ViewerID: "x", OtherID: "z", Outgoing: models.EdgeNone, Incoming: models.EdgeNone, BlockedByOther: true}},
		{"z", "x", models.Relationship{ViewerID: "z", OtherID: "x", Outgoing: models.EdgeNone, Incoming: models.EdgeNone, BlockedByMe: true}},
	}
	for _, tt := range tests {
		t.Run(tt.viewer+"->"+tt.other, func(t *testing.T) {
			rel, err := f.graph.GetRelationship(ctx, tt.viewer, tt.other)
			if err != nil {
				t.Fatal(err)
			}
			if *rel != tt.want {
				t.Errorf("relationship = %+v, want %+v", *rel, tt.want)
			}
		})
	}

	if _, err := f.graph.GetRelationship(ctx, "x", "x"); !errors.Is(err, models.ErrInvalidOperation) {
		t.Errorf("self relationship = %v", err)
	}
}

func TestListings(t *testing.T) {
	f := newFixture(t, badgerOpener, "hub", "u1", "u2", "u3", "u4")
	ctx := context.Background()

	for _, id := range []string{"u1", "u2", "u3"} {
		if _, err := f.graph.RequestFollow(ctx, id, "hub"); err != nil {
			t.Fatal(err)
		}
		if _, err := f.graph.RequestFollow(ctx, "hub", id); err != nil {
			t.Fatal(err)
		}
	}
	f.requireApproval("hub")
	if _, err := f.graph.RequestFollow(ctx, "u4", "hub"); err != nil {
		t.Fatal(err)
	}

	first, err := f.graph.ListFollowers(ctx, "hub", Page{Limit: 2})
	if err != nil || len(first) != 2 || first[0].FollowerID != "u1" || first[1].FollowerID != "u2" {
		t.Fatalf("first page = %v, %v", first, err)
	}
	second, err := f.graph.ListFollowers(ctx, "hub", Page{After: "u2", Limit: 2})
	if err != nil || len(second) != 1 || second[0].FollowerID != "u3" {
		t.Errorf("second page = %v, %v", second, err)
	}

	following, err := f.graph.ListFollowing(ctx, "hub", Page{})
	if err != nil || len(following) != 3 {
		t.Errorf("ListFollowing = %d, %v", len(following), err)
	}

	ids, truncated, err := f.graph.FollowingIDs(ctx, "hub", 2)
	if err != nil || !truncated || len(ids) != 2 || ids[0] != "u1" {
		t.Errorf("FollowingIDs = %v, %v, %v", ids, truncated, err)
	}
	ids, truncated, err = f.graph.FollowingIDs(ctx, "hub", 3)
	if err != nil || truncated || len(ids) != 3 {
		t.Errorf("FollowingIDs(3) = %v, %v, %v", ids, truncated, err)
	}

	empty, err := f.graph.ListFollowing(ctx, "u4", Page{})
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("pending edge listed as following: %v, %v", empty, err)
	}
}

func TestReindexAfterCounterChanges(t *testing.T) {
	f := newFixture(t, badgerOpener, "x", "y")
	ctx := context.Background()

	if _, err := f.graph.RequestFollow(ctx, "y", "x"); err != nil {
		t.Fatal(err)
	}
	got := f.index.reset()
	if len(got) != 2 {
		t.Errorf("reindexed %v after accepted follow, want both users", got)
	}

	f.requireApproval("y")
	if _, err := f.graph.RequestFollow(ctx, "x", "y"); err != nil {
		t.Fatal(err)
	}
	if got := f.index.reset(); len(got) != 0 {
		t.Errorf("pending follow reindexed %v", got)
	}

	if _, err := f.graph.RequestFollow(ctx, "x", "y"); err == nil {
		t.Fatal("duplicate request succeeded")
	}
	if got := f.index.reset(); len(got) != 0 {
		t.Errorf("failed request reindexed %v", got)
	}
}

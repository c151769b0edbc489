// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package models

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustProfile(t *testing.T, id, handle string) *Profile {
	t.Helper()
	p, err := NewProfile(id, handle, "", now)
	if err != nil {
		t.Fatalf("NewProfile(%q): %v", id, err)
	}
	return p
}

func TestNewProfile(t *testing.T) {
	p := mustProfile(t, "u1", "@Reader.One")
	if p.Handle != "reader.one" {
		t.Errorf("handle = %q, want normalized", p.Handle)
	}
	if p.DisplayName != "reader.one" {
		t.Errorf("display name should default to handle, got %q", p.DisplayName)
	}
	if !p.Privacy.Public || !p.Privacy.Searchable || p.Privacy.AllowFollowRequests {
		t.Errorf("unexpected default privacy %+v", p.Privacy)
	}

	badIDs := []string{"", "a/b", "has space", "x:y"}
	for _, id := range badIDs {
		if _, err := NewProfile(id, "valid_handle", "", now); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("NewProfile(id=%q) error = %v, want ErrInvalidOperation", id, err)
		}
	}
	if _, err := NewProfile("u2", "ab", "", now); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("short handle accepted: %v", err)
	}
}

func TestProfileValidateRejectsNegativeCounters(t *testing.T) {
	p := mustProfile(t, "u1", "reader")
	p.FollowersCount = -1
	if err := p.Validate(); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Validate() = %v, want ErrInvalidOperation", err)
	}
}

func TestCountersApply(t *testing.T) {
	c := Counters{FollowersCount: 1}
	got, err := c.Apply(CounterDelta{Followers: -1, Following: 2})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.FollowersCount != 0 || got.FollowingCount != 2 {
		t.Errorf("Apply = %+v", got)
	}

	if _, err := got.Apply(CounterDelta{Followers: -1}); !errors.Is(err, ErrCounterUnderflow) {
		t.Errorf("underflow error = %v", err)
	}
}

func TestNewFollowEdge(t *testing.T) {
	a := mustProfile(t, "a", "alice")
	b := mustProfile(t, "b", "bob")
	b.Verified = true

	e, err := NewFollowEdge(a, b, EdgeAccepted, now)
	if err != nil {
		t.Fatalf("NewFollowEdge: %v", err)
	}
	if e.AcceptedAt == nil || !e.AcceptedAt.Equal(now) {
		t.Errorf("accepted edge should carry AcceptedAt")
	}
	if !e.Following.Verified || e.Follower.Handle != "alice" {
		t.Errorf("snapshots not taken: %+v", e)
	}

	if _, err := NewFollowEdge(a, a, EdgePending, now); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("self edge error = %v", err)
	}
	if _, err := NewFollowEdge(a, b, EdgeNone, now); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("EdgeNone should not be storable: %v", err)
	}
}

func TestEdgeDeltas(t *testing.T) {
	a := mustProfile(t, "a", "alice")
	b := mustProfile(t, "b", "bob")
	pending, _ := NewFollowEdge(a, b, EdgePending, now)

	fd, gd := pending.RemovalDelta()
	if !fd.IsZero() || !gd.IsZero() {
		t.Errorf("removing a pending edge must not change counters")
	}

	if err := pending.Accept(now.Add(time.Minute)); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	fd, gd = pending.RemovalDelta()
	if fd.Following != -1 || gd.Followers != -1 {
		t.Errorf("accepted removal deltas = %+v %+v", fd, gd)
	}
	if err := pending.Accept(now); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("double accept error = %v", err)
	}
}

func TestNewBlock(t *testing.T) {
	if _, err := NewBlock("a", "a", now); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("self block error = %v", err)
	}
	b, err := NewBlock("a", "b", now)
	if err != nil || b.BlockerID != "a" || b.BlockedID != "b" {
		t.Errorf("NewBlock = %+v, %v", b, err)
	}
}

func TestNewNotificationIDsAreOrdered(t *testing.T) {
	first, err := NewNotification(NotificationNewFollower, "r", "a", ActorSnapshot{}, "", now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewNotification(NotificationNewFollower, "r", "a", ActorSnapshot{}, "", now)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID >= second.ID {
		t.Errorf("expected time-ordered ids, got %s then %s", first.ID, second.ID)
	}
	if _, err := NewNotification("poke", "r", "a", ActorSnapshot{}, "", now); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("unknown type error = %v", err)
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory(" Movie "); err != nil || c != CategoryMovie {
		t.Errorf("ParseCategory = %q, %v", c, err)
	}
	if _, err := ParseCategory("podcast"); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("unknown category error = %v", err)
	}
}

func TestVisibleToHidesLocation(t *testing.T) {
	p := mustProfile(t, "a", "alice")
	p.Location = "Lisbon"
	p.Privacy.ShowLocation = false

	if got := p.VisibleTo("b").Location; got != "" {
		t.Errorf("location leaked to other viewer: %q", got)
	}
	if got := p.VisibleTo("a").Location; got != "Lisbon" {
		t.Errorf("owner should see own location, got %q", got)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{fmt.Errorf("follow: %w", ErrBlocked), KindBlocked},
		{fmt.Errorf("x: %w", ErrAlreadyExists), KindAlreadyExists},
		{ErrNotFound, KindNotFound},
		{fmt.Errorf("commit: %w", ErrTransient), KindTransient},
		{ErrInvalidOperation, KindInvalidOperation},
		{errors.New("disk on fire"), KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

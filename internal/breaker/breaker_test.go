// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/shelfwise/internal/metrics"
)

func TestBreaker_TripsAfterFailureRatio(t *testing.T) {
	b := New[int](Config{Name: "test-trip", MinRequests: 4, FailureRatio: 0.5, Timeout: time.Hour})
	boom := errors.New("boom")

	for i := 0; i < 4; i++ {
		if _, err := b.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if b.State() != "open" {
		t.Fatalf("state = %s, want open", b.State())
	}

	_, err := b.Execute(func() (int, error) { return 1, nil })
	if !IsOpen(err) {
		t.Errorf("open breaker should reject, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-trip")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-trip", "rejected")); got != 1 {
		t.Errorf("rejected requests = %v, want 1", got)
	}
}

func TestBreaker_IsSuccessfulExcludesErrors(t *testing.T) {
	b := New[string](Config{
		Name:        "test-cancel",
		MinRequests: 2,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	for i := 0; i < 10; i++ {
		_, _ = b.Execute(func() (string, error) { return "", context.Canceled })
	}
	if b.State() != "closed" {
		t.Errorf("cancellations tripped the breaker: %s", b.State())
	}
}

func TestBreaker_PassesResult(t *testing.T) {
	b := New[string](Config{Name: "test-result"})
	got, err := b.Execute(func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Errorf("Execute = %q, %v", got, err)
	}
}

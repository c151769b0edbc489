// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/shelfwise/internal/cache"
)

func TestPeriodicServiceRunsJob(t *testing.T) {
	var runs atomic.Int32
	svc := NewPeriodicService("store-maintenance", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if runs.Load() < 3 {
		t.Errorf("runs = %d", runs.Load())
	}
}

func TestPeriodicServiceGivesUpAfterRepeatedFailures(t *testing.T) {
	boom := errors.New("value log gc: disk full")
	var runs atomic.Int32
	svc := NewPeriodicService("store-maintenance", 5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return boom
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := svc.Serve(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if runs.Load() != maxConsecutiveFailures {
		t.Errorf("runs = %d, want %d", runs.Load(), maxConsecutiveFailures)
	}
}

func TestPeriodicServiceFailureCountResets(t *testing.T) {
	var runs atomic.Int32
	svc := NewPeriodicService("flaky", 5*time.Millisecond, func(context.Context) error {
		// Fails every other run, never twice in a row.
		if runs.Add(1)%2 == 1 {
			return errors.New("conflict")
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v", err)
	}
}

func TestFuncServiceRunsJanitor(t *testing.T) {
	mem := cache.NewMemory(10)
	if err := mem.Set(context.Background(), "feed:alice:books", []byte("{}"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	svc := NewFuncService("cache-janitor", func(ctx context.Context) error {
		return mem.RunJanitor(ctx, 5*time.Millisecond)
	})
	if svc.String() != "cache-janitor" {
		t.Errorf("name = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for mem.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh
	if mem.Len() != 0 {
		t.Errorf("expired entry not swept, len = %d", mem.Len())
	}
}

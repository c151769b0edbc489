// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/logging"
)

// maxConsecutiveFailures is how many failed runs in a row a PeriodicService
// tolerates before returning, which hands the restart to the supervisor.
const maxConsecutiveFailures = 3

// PeriodicService runs a job on a fixed interval, e.g. Badger maintenance.
// A single failed run is logged; repeated failures end Serve with an error.
type PeriodicService struct {
	name     string
	interval time.Duration
	job      func(ctx context.Context) error
	logger   zerolog.Logger
}

// NewPeriodicService creates a service that runs job every interval. The
// first run happens after one interval.
func NewPeriodicService(name string, interval time.Duration, job func(ctx context.Context) error) *PeriodicService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{
		name:     name,
		interval: interval,
		job:      job,
		logger:   logging.WithComponent(name),
	}
}

// Serve implements suture.Service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		start := time.Now()
		err := p.job(ctx)
		if err == nil {
			failures = 0
			p.logger.Debug().Dur("took", time.Since(start)).Msg("periodic job finished")
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		failures++
		p.logger.Warn().Err(err).Int("consecutive_failures", failures).Msg("periodic job failed")
		if failures >= maxConsecutiveFailures {
			return fmt.Errorf("%s: %d consecutive failures: %w", p.name, failures, err)
		}
	}
}

func (p *PeriodicService) String() string { return p.name }

// FuncService adapts a blocking func(ctx) error to suture.Service, e.g.
// cache.Memory.RunJanitor.
type FuncService struct {
	name string
	run  func(ctx context.Context) error
}

// NewFuncService names run for supervisor logs.
func NewFuncService(name string, run func(ctx context.Context) error) *FuncService {
	return &FuncService{name: name, run: run}
}

// Serve implements suture.Service.
func (f *FuncService) Serve(ctx context.Context) error { return f.run(ctx) }

func (f *FuncService) String() string { return f.name }

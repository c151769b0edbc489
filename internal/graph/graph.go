// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package graph implements the follow graph: follow requests, approvals,
unfollows and blocks.

Every mutation runs as one store transaction that writes the edge, applies
the counter deltas implied by the status transition and appends the
notification. Nothing is written outside that transaction, so a mutation
either fully commits or fully fails:

	none     -> accepted   followers +1, following +1, new_follower
	none     -> pending    no counter change,          follow_request
	pending  -> accepted   followers +1, following +1, follow_accepted
	accepted -> none       followers -1, following -1
	pending  -> none       no counter change

Concurrent requests for the same ordered pair serialize on the edge key.
The loser sees a store conflict, the whole closure is re-run, and the
re-run observes the winner's edge and returns models.ErrAlreadyExists.
Conflicts that persist past Config.MaxAttempts surface as
models.ErrTransient.

After commit, notifications are handed to notify.Fanout.Dispatch and both
affected profiles are reindexed. Neither step can fail the mutation.
*/
package graph

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/notify"
	"github.com/tomtom215/shelfwise/internal/store"
)

// Config controls retry of conflicting transactions.
type Config struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultConfig returns the retry settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseBackoff: 5 * time.Millisecond,
		MaxBackoff:  200 * time.Millisecond,
	}
}

// ConfigFrom converts the loaded configuration section.
func ConfigFrom(c config.GraphConfig) Config {
	return Config{
		MaxAttempts: c.MaxAttempts,
		BaseBackoff: c.BaseBackoff,
		MaxBackoff:  c.MaxBackoff,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts < 1 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = d.BaseBackoff
	}
	if c.MaxBackoff < c.BaseBackoff {
		c.MaxBackoff = c.BaseBackoff
	}
	return c
}

// Reindexer rebuilds a user's search entry after a committed change.
type Reindexer interface {
	Reindex(ctx context.Context, userID string) error
}

// Service is the follow graph.
type Service struct {
	store    store.Store
	notifier *notify.Fanout
	index    Reindexer
	cfg      Config
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a Service. index may be nil.
func New(s store.Store, notifier *notify.Fanout, index Reindexer, cfg Config) *Service {
	return &Service{
		store:    s,
		notifier: notifier,
		index:    index,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		logger:   logging.WithComponent("graph"),
	}
}

// SetReindexer replaces the reindex hook. Used when the indexer is built
// after the graph.
func (s *Service) SetReindexer(index Reindexer) {
	s.index = index
}

// mutation collects what a committed transaction must trigger.
type mutation struct {
	notifications []*models.Notification
	reindex       []string
}

func (m *mutation) reset() {
	m.notifications = m.notifications[:0]
	m.reindex = m.reindex[:0]
}

// update runs fn in a write transaction, re-running it on retryable store
// errors. fn must start from a clean mutation on every attempt.
func (s *Service) update(ctx context.Context, op string, fn func(tx store.Tx, m *mutation) error) error {
	start := time.Now()
	m := &mutation{}

	var err error
	for attempt := 1; ; attempt++ {
		err = s.store.Update(ctx, func(tx store.Tx) error {
			m.reset()
			return fn(tx, m)
		})
		if err == nil || !store.IsRetryable(err) {
			break
		}
		if attempt >= s.cfg.MaxAttempts {
			s.logger.Warn().Err(err).Str("operation", op).Int("attempts", attempt).
				Msg("graph transaction retries exhausted")
			err = fmt.Errorf("%s after %d attempts: %w", op, attempt, err)
			break
		}
		metrics.GraphRetries.WithLabelValues(op).Inc()
		if werr := sleep(ctx, s.backoff(attempt)); werr != nil {
			err = werr
			break
		}
	}
	metrics.RecordGraphOperation(op, kindLabel(err), time.Since(start))
	if err != nil {
		return err
	}

	s.afterCommit(ctx, m)
	return nil
}

func (s *Service) afterCommit(ctx context.Context, m *mutation) {
	if s.notifier != nil && len(m.notifications) > 0 {
		s.notifier.Dispatch(ctx, m.notifications...)
	}
	if s.index == nil {
		return
	}
	for _, id := range m.reindex {
		if err := s.index.Reindex(ctx, id); err != nil {
			s.logger.Debug().Err(err).Str("user_id", id).Msg("reindex after graph change failed")
		}
	}
}

func kindLabel(err error) string {
	if err == nil {
		return ""
	}
	return string(models.KindOf(err))
}

// backoff returns base * 2^(attempt-1), capped, with +/-10% jitter.
func (s *Service) backoff(attempt int) time.Duration {
	d := float64(s.cfg.BaseBackoff) * math.Pow(2, float64(attempt-1))
	if d > float64(s.cfg.MaxBackoff) {
		d = float64(s.cfg.MaxBackoff)
	}
	//nolint:gosec // G404: jitter only
	jitter := d * 0.1 * (rand.Float64()*2 - 1)
	return time.Duration(d + jitter)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// activeProfile loads a profile that can take part in new relationships.
// Disabled profiles read as missing.
func activeProfile(tx store.ReadTx, id string) (*models.Profile, error) {
	p, err := tx.GetProfile(id)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	if !p.Active() {
		return nil, fmt.Errorf("profile %s disabled: %w", id, models.ErrNotFound)
	}
	return p, nil
}

func validatePair(a, b string) error {
	if err := models.ValidateUserID(a); err != nil {
		return err
	}
	if err := models.ValidateUserID(b); err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("%w: both sides are %s", models.ErrInvalidOperation, a)
	}
	return nil
}

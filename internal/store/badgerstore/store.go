// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package badgerstore implements store.Store on BadgerDB.
//
// Badger transactions are serializable with optimistic conflict detection:
// a transaction that read a key later committed by another transaction
// fails at commit with badger.ErrConflict, surfaced as store.ErrConflict.
// Edge keys are therefore the serialization point for concurrent follow
// requests on the same ordered pair.
//
// Counters are never read-modify-written by graph transactions. Each
// change is a blind write of a delta key under cd/{user}/, so concurrent
// follows of the same target do not conflict; Compact folds deltas into
// the base value in the background.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/store"
)

// Backend is the name reported by Store.Backend.
const Backend = "badger"

// Options configures Open.
type Options struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Compression enables Snappy block compression.
	Compression bool

	// GCDiscardRatio is passed to RunValueLogGC. Default 0.5.
	GCDiscardRatio float64
}

// Store is a Badger-backed store.Store.
type Store struct {
	db     *badger.DB
	opts   Options
	logger zerolog.Logger

	seqMu sync.Mutex
	seq   *badger.Sequence

	closed atomic.Bool
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("badgerstore: path is required for on-disk mode")
	}
	if opts.GCDiscardRatio == 0 {
		opts.GCDiscardRatio = 0.5
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.SyncWrites = opts.SyncWrites
	if opts.Compression {
		bopts.Compression = options.Snappy
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(mediaSequenceKey), 128)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open media sequence: %w", err)
	}

	s := &Store{
		db:     db,
		opts:   opts,
		seq:    seq,
		logger: logging.WithComponent("badgerstore"),
	}
	s.logger.Info().
		Str("path", opts.Path).
		Bool("in_memory", opts.InMemory).
		Bool("sync_writes", opts.SyncWrites).
		Msg("badger store opened")
	return s, nil
}

// OpenInMemory is a convenience for tests.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

// Backend implements store.Store.
func (s *Store) Backend() string { return Backend }

// View runs fn in a read-only snapshot.
func (s *Store) View(ctx context.Context, fn func(store.ReadTx) error) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		return fn(&tx{txn: txn, s: s})
	})
	return mapError(err)
}

// Update runs fn in a read-write transaction and commits when fn returns
// nil. A commit that lost a race returns store.ErrConflict.
func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := fn(&tx{txn: txn, s: s, writable: true}); err != nil {
			return err
		}
		// A cancelled caller must not see a commit it will treat as failed.
		return ctx.Err()
	})
	return mapError(err)
}

// Ping reports whether the store accepts transactions.
func (s *Store) Ping(ctx context.Context) error {
	return s.View(ctx, func(store.ReadTx) error { return nil })
}

// Close releases the sequence and closes the database.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.seqMu.Lock()
	if err := s.seq.Release(); err != nil {
		s.logger.Warn().Err(err).Msg("release media sequence")
	}
	s.seqMu.Unlock()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	s.logger.Info().Msg("badger store closed")
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	return ctx.Err()
}

func (s *Store) nextSeq() (uint64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("media sequence: %w", err)
	}
	// Zero is skipped so that an unset Seq is never a valid position.
	return n + 1, nil
}

// Maintain folds counter deltas and runs value log GC once. It is
// intended to be called periodically.
func (s *Store) Maintain(ctx context.Context) error {
	folded, err := s.Compact(ctx)
	if err != nil {
		return err
	}
	if folded > 0 {
		s.logger.Debug().Int("users", folded).Msg("counter deltas folded")
	}
	if s.opts.InMemory {
		return nil
	}
	start := time.Now()
	for {
		// RunValueLogGC rewrites at most one file per call.
		if err := s.db.RunValueLogGC(s.opts.GCDiscardRatio); err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return fmt.Errorf("value log gc: %w", err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	s.logger.Debug().Dur("took", time.Since(start)).Msg("value log gc finished")
	return nil
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	case errors.Is(err, badger.ErrTxnTooBig):
		return fmt.Errorf("badger transaction too big: %w", err)
	default:
		return err
	}
}

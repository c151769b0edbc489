// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package badgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/shelfwise/internal/store"
)

// maxDeltasPerFold bounds the size of one fold transaction.
const maxDeltasPerFold = 1000

// Compact folds counter delta keys into each user's base counter value
// and returns the number of users folded. The observable counter value
// (base plus deltas) is unchanged by a fold. A fold that races with a
// graph transaction reading the same deltas loses with a conflict and is
// retried on the next run.
func (s *Store) Compact(ctx context.Context) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	users, err := s.usersWithDeltas()
	if err != nil {
		return 0, err
	}

	folded := 0
	for _, id := range users {
		if ctx.Err() != nil {
			return folded, ctx.Err()
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			return foldUser(txn, id)
		})
		switch {
		case err == nil:
			folded++
		case errors.Is(err, badger.ErrConflict):
			s.logger.Debug().Str("user_id", id).Msg("counter fold conflicted, will retry")
		default:
			return folded, fmt.Errorf("fold counters for %s: %w", id, err)
		}
	}
	return folded, nil
}

func (s *Store) usersWithDeltas() ([]string, error) {
	var users []string
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixCounterDelta)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var last string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rest := it.Item().Key()[len(prefix):]
			i := bytes.IndexByte(rest, '/')
			if i < 0 {
				continue
			}
			if id := string(rest[:i]); id != last {
				users = append(users, id)
				last = id
			}
		}
		return nil
	})
	return users, err
}

func foldUser(txn *badger.Txn, id string) error {
	item, err := txn.Get(counterKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	total, err := decodeCounters(raw)
	if err != nil {
		return err
	}

	prefix := counterDeltaPrefix(id)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix) && len(keys) < maxDeltasPerFold; it.Next() {
		k := it.Item().KeyCopy(nil)
		if !isPrefix(k, prefix) {
			continue
		}
		v, err := it.Item().ValueCopy(nil)
		if err != nil {
			it.Close()
			return err
		}
		d, err := decodeCounters(v)
		if err != nil {
			it.Close()
			return err
		}
		total = addCounters(total, d)
		keys = append(keys, k)
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return txn.Set(counterKey(id), encodeCounters(total))
}

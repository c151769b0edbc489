// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package feed

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/models"
)

// maxHotKeys bounds the set of snapshots tracked for background refresh.
const maxHotKeys = 10000

type snapshotKey struct {
	owner    string
	category models.Category
}

func (k snapshotKey) String() string {
	return "feed:snap:" + k.owner + ":" + string(k.category)
}

// snapshot returns ownerID's items for category, from the cache when
// warm. The media read runs behind the store breaker and is abandoned
// after PerUserTimeout even if the source ignores ctx.
func (a *Aggregator) snapshot(ctx context.Context, ownerID string, category models.Category) ([]*models.MediaItem, error) {
	key := snapshotKey{owner: ownerID, category: category}
	a.hot.touch(key, a.now())

	if items, ok := a.cached(ctx, key); ok {
		return items, nil
	}
	items, err := a.load(ctx, key)
	if err != nil {
		return nil, err
	}
	a.storeSnapshot(ctx, key, items)
	return items, nil
}

func (a *Aggregator) load(ctx context.Context, key snapshotKey) ([]*models.MediaItem, error) {
	uctx, cancel := context.WithTimeout(ctx, a.cfg.PerUserTimeout)
	defer cancel()

	return a.breaker.Execute(func() ([]*models.MediaItem, error) {
		type result struct {
			items []*models.MediaItem
			err   error
		}
		ch := make(chan result, 1)
		go func() {
			items, err := a.media.List(uctx, key.owner, key.category, a.cfg.MaxItemsPerUser)
			ch <- result{items, err}
		}()
		select {
		case r := <-ch:
			return r.items, r.err
		case <-uctx.Done():
			return nil, uctx.Err()
		}
	})
}

func (a *Aggregator) cached(ctx context.Context, key snapshotKey) ([]*models.MediaItem, bool) {
	if a.cache == nil {
		return nil, false
	}
	data, ok, err := a.cache.Get(ctx, key.String())
	if err != nil {
		a.logger.Debug().Err(err).Str("key", key.String()).Msg("snapshot cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var items []*models.MediaItem
	if err := json.Unmarshal(data, &items); err != nil {
		a.logger.Warn().Err(err).Str("key", key.String()).Msg("dropping undecodable snapshot")
		_ = a.cache.Delete(ctx, key.String())
		return nil, false
	}
	return items, true
}

func (a *Aggregator) storeSnapshot(ctx context.Context, key snapshotKey, items []*models.MediaItem) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		a.logger.Warn().Err(err).Str("key", key.String()).Msg("encode snapshot")
		return
	}
	if err := a.cache.Set(ctx, key.String(), data, a.cfg.SnapshotTTL); err != nil {
		a.logger.Debug().Err(err).Str("key", key.String()).Msg("snapshot cache write failed")
	}
}

// Invalidate drops the cached snapshot of ownerID's category collection.
// The media write path calls it after every commit.
func (a *Aggregator) Invalidate(ctx context.Context, ownerID string, category models.Category) {
	if a.cache == nil {
		return
	}
	key := snapshotKey{owner: ownerID, category: category}
	if err := a.cache.Delete(ctx, key.String()); err != nil {
		a.logger.Warn().Err(err).Str("key", key.String()).Msg("snapshot invalidation failed")
	}
}

// hotKeys remembers which snapshots were read recently so the refresh
// service can rewarm them before they expire.
type hotKeys struct {
	mu   sync.Mutex
	seen map[snapshotKey]time.Time
}

func newHotKeys() *hotKeys {
	return &hotKeys{seen: make(map[snapshotKey]time.Time)}
}

func (h *hotKeys) touch(k snapshotKey, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.seen[k]; !ok && len(h.seen) >= maxHotKeys {
		return
	}
	h.seen[k] = now
}

// since returns keys read at or after cutoff and forgets older ones.
func (h *hotKeys) since(cutoff time.Time) []snapshotKey {
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]snapshotKey, 0, len(h.seen))
	for k, t := range h.seen {
		if t.Before(cutoff) {
			delete(h.seen, k)
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

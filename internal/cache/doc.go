// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package cache provides the byte-oriented caches behind the feed's
// per-user media snapshots.
//
// Two implementations satisfy Cacher:
//
//   - Memory: a bounded LRU with per-entry TTL, local to one process.
//     Expired entries are removed lazily on read and by the janitor.
//   - Redis: a shared cache for multi-instance deployments, backed by
//     go-redis. Keys are namespaced with the configured prefix.
//
// Callers own serialization. Values handed to Set must not be modified
// afterwards; Memory stores the slice as given.
//
// Example:
//
//	var c cache.Cacher = cache.NewMemory(10000)
//	_ = c.Set(ctx, "snap:u1:movie", data, 5*time.Minute)
//	if data, ok, err := c.Get(ctx, "snap:u1:movie"); err == nil && ok {
//	    // decode data
//	}
package cache

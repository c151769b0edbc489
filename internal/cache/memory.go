// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/shelfwise/internal/metrics"
)

// DefaultCapacity bounds a Memory cache created with capacity <= 0.
const DefaultCapacity = 10000

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero means no expiry
	prev      *entry
	next      *entry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Stats is a point-in-time view of a Memory cache.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Keys        int
	LastCleanup time.Time
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Memory is a thread-safe LRU cache with per-entry TTL. Get, Set and
// eviction are O(1); the least recently used entry is evicted at
// capacity.
type Memory struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*entry

	// head.next is the most recently used entry, tail.prev the least.
	head *entry
	tail *entry

	stats Stats
	now   func() time.Time
}

// NewMemory creates an empty cache holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Memory{
		capacity: capacity,
		items:    make(map[string]*entry),
		head:     &entry{},
		tail:     &entry{},
		now:      time.Now,
	}
	m.head.next = m.tail
	m.tail.prev = m.head
	m.stats.LastCleanup = m.now()
	return m
}

// Name implements Cacher.
func (m *Memory) Name() string { return "memory" }

// Get implements Cacher.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	e, ok := m.items[key]
	if ok && e.expired(m.now()) {
		m.remove(e)
		m.stats.Evictions++
		ok = false
	}
	if ok {
		m.moveToFront(e)
		m.stats.Hits++
	} else {
		m.stats.Misses++
	}
	m.mu.Unlock()

	metrics.RecordCacheLookup(m.Name(), ok)
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements Cacher.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		m.moveToFront(e)
		return nil
	}
	if len(m.items) >= m.capacity {
		if oldest := m.tail.prev; oldest != m.head {
			m.remove(oldest)
			m.stats.Evictions++
		}
	}
	e := &entry{key: key, value: value, expiresAt: expiresAt}
	m.items[key] = e
	m.pushFront(e)
	return nil
}

// Delete implements Cacher.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		if e, ok := m.items[key]; ok {
			m.remove(e)
		}
	}
	return nil
}

// Len returns the number of entries, expired ones included until they
// are cleaned up.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Stats returns a copy of the current statistics.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Keys = len(m.items)
	return s
}

// Cleanup removes every expired entry and returns how many it removed.
func (m *Memory) Cleanup() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, e := range m.items {
		if e.expired(now) {
			m.remove(e)
			removed++
		}
	}
	m.stats.Evictions += int64(removed)
	m.stats.LastCleanup = now
	return removed
}

// RunJanitor calls Cleanup every interval until ctx is done.
func (m *Memory) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Cleanup()
		}
	}
}

// List helpers; the lock must be held.

func (m *Memory) pushFront(e *entry) {
	e.prev = m.head
	e.next = m.head.next
	m.head.next.prev = e
	m.head.next = e
}

func (m *Memory) moveToFront(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	m.pushFront(e)
}

func (m *Memory) remove(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(m.items, e.key)
}

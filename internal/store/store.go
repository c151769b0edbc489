// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package store defines the transactional storage contract shared by the
// social graph services. Two backends implement it: badgerstore (default)
// and database (DuckDB).
//
// Every graph mutation runs inside a single Update call, so the edge, the
// counter deltas and the notification record commit or roll back
// together. Backends detect concurrent writes to the same key and report
// them as ErrConflict; callers re-run the whole closure.
package store

import (
	"context"

	"github.com/tomtom215/shelfwise/internal/models"
)

// ListOptions pages edge listings. Results are ordered by the other
// user's id.
type ListOptions struct {
	// Status filters by edge status. Empty means any.
	Status models.EdgeStatus

	// After is an exclusive cursor: the other user's id of the last
	// item on the previous page.
	After string

	// Limit <= 0 means unlimited.
	Limit int
}

// NotificationQuery pages a recipient's notifications, newest first.
type NotificationQuery struct {
	UnreadOnly bool

	// Before is an exclusive cursor: the id of the last notification on
	// the previous page.
	Before string

	Limit int
}

// ReadTx is a consistent read snapshot.
type ReadTx interface {
	GetProfile(id string) (*models.Profile, error)
	GetProfileIDByHandle(handle string) (string, error)
	ListProfileIDs(after string, limit int) ([]string, error)

	GetEdge(followerID, followingID string) (*models.FollowEdge, error)
	ListFollowing(followerID string, opts ListOptions) ([]*models.FollowEdge, error)
	ListFollowers(followingID string, opts ListOptions) ([]*models.FollowEdge, error)

	GetBlock(blockerID, blockedID string) (*models.Block, error)
	ListBlocksBy(blockerID string) ([]*models.Block, error)

	GetNotification(recipientID, id string) (*models.Notification, error)
	ListNotifications(recipientID string, q NotificationQuery) ([]*models.Notification, error)
	CountUnread(recipientID string) (int64, error)

	GetSearchEntry(userID string) (*models.SearchIndexEntry, error)
	ListSearchEntries() ([]*models.SearchIndexEntry, error)

	// ListMediaItems returns items in insertion order. limit <= 0 means all.
	ListMediaItems(ownerID string, category models.Category, limit int) ([]*models.MediaItem, error)
}

// Tx is a read-write transaction.
type Tx interface {
	ReadTx

	// CreateProfile fails with ErrDuplicate when the id or handle is taken.
	CreateProfile(p *models.Profile) error

	// UpdateProfile overwrites every field except the counters, which
	// only change through AdjustCounters. Handle changes are checked for
	// uniqueness.
	UpdateProfile(p *models.Profile) error

	// AdjustCounters applies d atomically without reading the numeric
	// value back into the caller. Concurrent deltas commute.
	AdjustCounters(userID string, d models.CounterDelta) error

	// InsertEdge fails with ErrDuplicate when the ordered pair exists.
	InsertEdge(e *models.FollowEdge) error
	UpdateEdge(e *models.FollowEdge) error
	DeleteEdge(followerID, followingID string) error

	// PutBlock is idempotent and reports whether a new block was written.
	PutBlock(b *models.Block) (bool, error)
	DeleteBlock(blockerID, blockedID string) error

	AppendNotification(n *models.Notification) error
	// MarkNotificationRead is idempotent for already read notifications.
	MarkNotificationRead(recipientID, id string) error

	PutSearchEntry(e *models.SearchIndexEntry) error
	// DeleteSearchEntry succeeds when no entry exists.
	DeleteSearchEntry(userID string) error

	// PutMediaItem inserts or replaces by (owner, category, external id).
	// Replacement keeps the original insertion position.
	PutMediaItem(item *models.MediaItem) error
	DeleteMediaItem(ownerID string, category models.Category, externalID string) error
}

// Store opens transactions.
type Store interface {
	View(ctx context.Context, fn func(ReadTx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Ping(ctx context.Context) error
	Backend() string
	Close() error
}

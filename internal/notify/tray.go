// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package notify

import (
	"context"

	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

// Tray page size limits.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ListOptions pages a tray, newest first. Before is the id of the last
// notification on the previous page.
type ListOptions struct {
	UnreadOnly bool
	Before     string
	Limit      int
}

// List returns recipientID's notifications newest first.
func (f *Fanout) List(ctx context.Context, recipientID string, opts ListOptions) ([]*models.Notification, error) {
	limit := opts.Limit
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	var out []*models.Notification
	err := f.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		out, err = tx.ListNotifications(recipientID, store.NotificationQuery{
			UnreadOnly: opts.UnreadOnly,
			Before:     opts.Before,
			Limit:      limit,
		})
		return err
	})
	if out == nil {
		out = []*models.Notification{}
	}
	return out, err
}

// UnreadCount returns the number of unread notifications.
func (f *Fanout) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := f.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		n, err = tx.CountUnread(recipientID)
		return err
	})
	return n, err
}

// MarkRead marks one notification read. Marking twice is not an error.
func (f *Fanout) MarkRead(ctx context.Context, recipientID, id string) error {
	return f.store.Update(ctx, func(tx store.Tx) error {
		return tx.MarkNotificationRead(recipientID, id)
	})
}

// MarkAllRead marks every unread notification read and returns how many
// changed.
func (f *Fanout) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	var marked int
	err := f.store.Update(ctx, func(tx store.Tx) error {
		marked = 0
		unread, err := tx.ListNotifications(recipientID, store.NotificationQuery{UnreadOnly: true})
		if err != nil {
			return err
		}
		for _, n := range unread {
			if err := tx.MarkNotificationRead(recipientID, n.ID); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	return marked, err
}

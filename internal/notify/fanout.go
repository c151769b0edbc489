// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package notify appends notifications to recipients' trays and pushes
// them to secondary channels.
//
// The tray append is part of the caller's store transaction, so a graph
// change and its notification commit together. Secondary delivery
// (event bus, WebSocket push) happens after commit, asynchronously, and
// its failures are logged and counted but never returned.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

// DefaultDeliveryTimeout bounds one secondary delivery.
const DefaultDeliveryTimeout = 5 * time.Second

// Deliverer is a secondary delivery channel.
type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, n *models.Notification) error
}

// Event describes a notification to record.
type Event struct {
	Type        models.NotificationType
	RecipientID string
	Actor       *models.Profile
	DeepLink    string
}

// Fanout records and delivers notifications.
type Fanout struct {
	store   store.Store
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger

	mu         sync.RWMutex
	deliverers []Deliverer

	inflight sync.WaitGroup
}

// New creates a Fanout. A zero timeout uses DefaultDeliveryTimeout.
func New(s store.Store, deliveryTimeout time.Duration, deliverers ...Deliverer) *Fanout {
	if deliveryTimeout <= 0 {
		deliveryTimeout = DefaultDeliveryTimeout
	}
	return &Fanout{
		store:      s,
		timeout:    deliveryTimeout,
		now:        time.Now,
		logger:     logging.WithComponent("notify"),
		deliverers: deliverers,
	}
}

// AddDeliverer registers another secondary channel.
func (f *Fanout) AddDeliverer(d Deliverer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliverers = append(f.deliverers, d)
}

// Record appends a notification inside tx. An error must abort tx.
func (f *Fanout) Record(tx store.Tx, ev Event) (*models.Notification, error) {
	if ev.Actor == nil {
		return nil, fmt.Errorf("%w: notification without actor", models.ErrInvalidOperation)
	}
	n, err := models.NewNotification(ev.Type, ev.RecipientID, ev.Actor.ID, ev.Actor.Actor(), ev.DeepLink, f.now())
	if err != nil {
		return nil, err
	}
	if err := tx.AppendNotification(n); err != nil {
		return nil, fmt.Errorf("append notification: %w", err)
	}
	return n, nil
}

// Emit records a standalone notification (likes, comments) in its own
// transaction and dispatches it. Notifications to oneself are dropped and
// return nil, nil.
func (f *Fanout) Emit(ctx context.Context, typ models.NotificationType, recipientID, actorID string,
	actor models.ActorSnapshot, deepLink string) (*models.Notification, error) {
	if recipientID == actorID {
		return nil, nil
	}
	n, err := models.NewNotification(typ, recipientID, actorID, actor, deepLink, f.now())
	if err != nil {
		return nil, err
	}
	err = f.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetProfile(recipientID); err != nil {
			return fmt.Errorf("recipient %s: %w", recipientID, err)
		}
		return tx.AppendNotification(n)
	})
	if err != nil {
		return nil, err
	}
	f.Dispatch(ctx, n)
	return n, nil
}

// Dispatch hands committed notifications to every deliverer in the
// background. It never blocks on delivery and never fails.
func (f *Fanout) Dispatch(ctx context.Context, notifications ...*models.Notification) {
	f.mu.RLock()
	deliverers := append([]Deliverer(nil), f.deliverers...)
	f.mu.RUnlock()

	// Deliveries outlive the request that caused them.
	base := context.WithoutCancel(ctx)
	for _, n := range notifications {
		if n == nil {
			continue
		}
		metrics.NotificationsRecorded.WithLabelValues(string(n.Type)).Inc()
		for _, d := range deliverers {
			f.inflight.Add(1)
			go f.deliver(base, d, n)
		}
	}
}

func (f *Fanout) deliver(ctx context.Context, d Deliverer, n *models.Notification) {
	defer f.inflight.Done()
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	err := d.Deliver(ctx, n)
	switch {
	case err == nil:
		metrics.NotificationDeliveries.WithLabelValues(d.Name(), "success").Inc()
	case errors.Is(err, context.DeadlineExceeded):
		metrics.NotificationDeliveries.WithLabelValues(d.Name(), "timeout").Inc()
		f.logger.Warn().Str("deliverer", d.Name()).Str("notification_id", n.ID).Dur("timeout", f.timeout).
			Msg("notification delivery timed out")
	default:
		metrics.NotificationDeliveries.WithLabelValues(d.Name(), "failure").Inc()
		f.logger.Warn().Err(err).Str("deliverer", d.Name()).Str("notification_id", n.ID).
			Msg("notification delivery failed")
	}
}

// Flush waits for in-flight deliveries.
func (f *Fanout) Flush() {
	f.inflight.Wait()
}

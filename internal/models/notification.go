// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType enumerates notification events.
type NotificationType string

const (
	NotificationFollowRequest  NotificationType = "follow_request"
	NotificationNewFollower    NotificationType = "new_follower"
	NotificationFollowAccepted NotificationType = "follow_accepted"
	NotificationLike           NotificationType = "like"
	NotificationComment        NotificationType = "comment"
)

// Valid reports whether t is a known type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationFollowRequest, NotificationNewFollower, NotificationFollowAccepted,
		NotificationLike, NotificationComment:
		return true
	}
	return false
}

// ActorSnapshot is the actor's display data at emit time.
type ActorSnapshot struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Verified    bool   `json:"verified"`
}

// Notification is an append-only event record. Only Read ever changes.
type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	RecipientID string           `json:"recipient_id"`
	ActorID     string           `json:"actor_id"`
	Actor       ActorSnapshot    `json:"actor"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
	DeepLink    string           `json:"deep_link,omitempty"`
}

// NewNotification assigns a time-ordered UUIDv7 id so that ids sort in
// creation order.
func NewNotification(typ NotificationType, recipientID, actorID string, actor ActorSnapshot, deepLink string, now time.Time) (*Notification, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: notification type %q", ErrInvalidOperation, typ)
	}
	if err := ValidateUserID(recipientID); err != nil {
		return nil, err
	}
	if err := ValidateUserID(actorID); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate notification id: %w", err)
	}
	return &Notification{
		ID:          id.String(),
		Type:        typ,
		RecipientID: recipientID,
		ActorID:     actorID,
		Actor:       actor,
		CreatedAt:   now.UTC(),
		DeepLink:    deepLink,
	}, nil
}

// ProfileDeepLink is the deep-link target used by graph notifications.
func ProfileDeepLink(handle string) string {
	return "/u/" + handle
}

// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventbus

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/shelfwise/internal/models"
)

// TopicNotifications carries every committed notification. With
// JetStream it is also the subject, covered by SubjectsWildcard.
const TopicNotifications = "social.notifications"

// SubjectsWildcard is the subject filter of the stream.
const SubjectsWildcard = "social.>"

// Metadata keys set on every notification message.
const (
	MetaRecipient = "recipient_id"
	MetaType      = "notification_type"
)

// ErrMalformedEvent marks a message that can never be processed.
var ErrMalformedEvent = errors.New("eventbus: malformed event")

// EncodeNotification wraps n in a message. The message UUID is the
// notification id, which JetStream uses for duplicate suppression, so a
// retried publish of the same notification is stored once.
func EncodeNotification(n *models.Notification) (*message.Message, error) {
	if n == nil || n.ID == "" || n.RecipientID == "" {
		return nil, fmt.Errorf("%w: notification without id or recipient", ErrMalformedEvent)
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification %s: %w", n.ID, err)
	}
	msg := message.NewMessage(n.ID, payload)
	msg.Metadata.Set(MetaRecipient, n.RecipientID)
	msg.Metadata.Set(MetaType, string(n.Type))
	msg.Metadata.Set(natsgo.MsgIdHdr, n.ID)
	return msg, nil
}

// DecodeNotification is the inverse of EncodeNotification.
func DecodeNotification(msg *message.Message) (*models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if n.ID == "" || n.RecipientID == "" || !n.Type.Valid() {
		return nil, fmt.Errorf("%w: message %s missing id, recipient or type", ErrMalformedEvent, msg.UUID)
	}
	return &n, nil
}

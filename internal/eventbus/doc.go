// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package eventbus carries committed notifications from the write path to
live push delivery.

The notification fan-out records every notification in the store inside
the mutating transaction. After commit it hands the notification to its
secondary deliverers, one of which is the Bus. The Bus publishes it on
TopicNotifications, and a Router consumer decodes it and pushes it to
the recipient's WebSocket connections.

Two transports are supported:

  - NewInProcess: Watermill's gochannel, for single-node deployments
    and tests.
  - NewNATS: NATS JetStream through watermill-nats. The stream is
    provisioned with EnsureStream, message ids double as JetStream
    dedup ids, and replicas share one durable consumer. StartEmbeddedServer
    runs the NATS server in process when no external one is configured.

Delivery is at-least-once at the transport and best effort overall: the
stored tray is authoritative, and a push that fails after retries is
dropped.
*/
package eventbus

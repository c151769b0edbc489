// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package websocket pushes notifications to connected users in real time.

Each authenticated connection becomes a Client owned by the Hub. The hub
indexes clients by user id, so a notification for a recipient reaches
every device the recipient has open and nobody else. Delivery is best
effort: the notification tray in the store remains the source of truth,
and a client that falls behind is disconnected and expected to reconnect
and re-read its tray.

Usage:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	// in the HTTP handler, after authentication and upgrade
	if _, err := hub.Accept(r.Context(), conn, userID); err != nil {
		return
	}

	hub.SendToUser("u_42", websocket.Message{Type: websocket.MessageTypeNotification, Data: n})

Each client runs a read pump (answers "ping" messages, tracks pong
deadlines) and a write pump (serializes queued messages and sends
keepalive pings). The hub implements notify.Deliverer, and under
suture it runs as the "websocket-hub" service.
*/
package websocket

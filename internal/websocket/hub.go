// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeNotification = "notification"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// deliveryBuffer is the number of pending pushes the hub accepts before
// SendToUser starts dropping.
const deliveryBuffer = 256

// ErrQueueFull is returned by Deliver when the hub cannot keep up.
var ErrQueueFull = errors.New("websocket: delivery queue full")

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type delivery struct {
	userID string
	msg    Message
}

// Hub tracks connected clients per user and pushes messages to every
// connection a user has open. A user may be connected from several
// devices at once.
type Hub struct {
	clients    map[*Client]struct{}
	byUser     map[string]map[*Client]struct{}
	deliveries chan delivery
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		byUser:     make(map[string]map[*Client]struct{}),
		deliveries: make(chan delivery, deliveryBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// RunWithContext runs the hub until ctx is done, then closes every
// client and returns ctx.Err(). It is designed for suture supervision.
//
// Events are taken in priority order: shutdown first, then client
// lifecycle, then deliveries, so a client that registers before a push
// is queued always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case d := <-h.deliveries:
			h.deliver(d)
		}
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error { return h.RunWithContext(ctx) }

// String names the service in supervisor logs.
func (h *Hub) String() string { return "websocket-hub" }

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	set, ok := h.byUser[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.byUser[c.userID] = set
	}
	set[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Debug().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	h.dropLocked(c)
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Debug().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client disconnected")
}

// dropLocked forgets c and closes its queue. Safe to call twice.
func (h *Hub) dropLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if set := h.byUser[c.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.userID)
		}
	}
	close(c.gone)
	close(c.send)
}

// deliver pushes to the user's clients in connection order. A client
// whose queue is full is disconnected rather than allowed to stall the
// hub.
func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.byUser[d.userID]
	if len(set) == 0 {
		return
	}
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, c := range clients {
		select {
		case c.send <- d.msg:
			metrics.WSMessagesSent.Inc()
		default:
			metrics.WSErrors.WithLabelValues("slow_client").Inc()
			logging.Warn().Str("user_id", c.userID).Uint64("client_id", c.id).Msg("websocket client too slow, disconnecting")
			h.dropLocked(c)
		}
	}
	metrics.WSConnections.Set(float64(len(h.clients)))
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()
	metrics.WSConnections.Set(0)

	// ctx.Err() is expected here and not logged as an error.
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, c := range clients {
		h.dropLocked(c)
	}
}

// SendToUser queues msg for every connection userID has open. It never
// blocks; it reports false when the queue is full and msg was dropped.
// Sending to a user with no connections is not an error.
func (h *Hub) SendToUser(userID string, msg Message) bool {
	select {
	case h.deliveries <- delivery{userID: userID, msg: msg}:
		return true
	default:
		metrics.WSErrors.WithLabelValues("queue_full").Inc()
		logging.Warn().Str("user_id", userID).Str("message_type", msg.Type).Msg("delivery queue full, dropping message")
		return false
	}
}

// Name implements notify.Deliverer.
func (h *Hub) Name() string { return "websocket" }

// Deliver pushes n to its recipient's open connections. It implements
// notify.Deliverer so the hub can be fed directly when no event bus is
// configured.
func (h *Hub) Deliver(_ context.Context, n *models.Notification) error {
	if !h.SendToUser(n.RecipientID, Message{Type: MessageTypeNotification, Data: n}) {
		return ErrQueueFull
	}
	return nil
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserConnections returns how many connections userID has open.
func (h *Hub) UserConnections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

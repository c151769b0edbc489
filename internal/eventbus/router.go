// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

// RouterConfig tunes message handling.
type RouterConfig struct {
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns the production settings.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
		RetryMultiplier:      2.0,
	}
}

type consumer struct {
	name    string
	topic   string
	sub     message.Subscriber
	handler message.NoPublishHandlerFunc
}

// Router runs consumer handlers. A fresh watermill router is built on
// every Serve, so the supervisor can restart it after a failure.
type Router struct {
	cfg       RouterConfig
	logger    watermill.LoggerAdapter
	consumers []consumer

	startOnce sync.Once
	started   chan struct{}
}

// NewRouter creates a Router.
func NewRouter(cfg RouterConfig, logger watermill.LoggerAdapter) *Router {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Router{cfg: cfg, logger: logger, started: make(chan struct{})}
}

// AddConsumer registers handler for topic. Call before Serve.
func (r *Router) AddConsumer(name, topic string, sub message.Subscriber, handler message.NoPublishHandlerFunc) {
	r.consumers = append(r.consumers, consumer{name: name, topic: topic, sub: sub, handler: handler})
}

// Started is closed once the first router run is subscribed and
// processing.
func (r *Router) Started() <-chan struct{} { return r.started }

// Serve runs the router until ctx is done. It implements suture.Service.
func (r *Router) Serve(ctx context.Context) error {
	wm, err := message.NewRouter(message.RouterConfig{CloseTimeout: r.cfg.CloseTimeout}, r.logger)
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}
	wm.AddMiddleware(
		r.dropExhausted,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      r.cfg.RetryMaxRetries,
			InitialInterval: r.cfg.RetryInitialInterval,
			MaxInterval:     r.cfg.RetryMaxInterval,
			Multiplier:      r.cfg.RetryMultiplier,
			Logger:          r.logger,
		}.Middleware,
	)
	for _, c := range r.consumers {
		wm.AddConsumerHandler(c.name, c.topic, c.sub, c.handler)
	}

	go func() {
		select {
		case <-wm.Running():
			r.startOnce.Do(func() { close(r.started) })
		case <-ctx.Done():
		}
	}()

	if err := wm.Run(ctx); err != nil {
		return fmt.Errorf("run router: %w", err)
	}
	return ctx.Err()
}

func (r *Router) String() string { return "event-router" }

// dropExhausted acknowledges a message whose handler still fails after
// retries. Push is best effort and a nacked message would be redelivered
// forever by the in-process transport.
func (r *Router) dropExhausted(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err == nil {
			return out, nil
		}
		metrics.EventsConsumed.WithLabelValues(message.SubscribeTopicFromCtx(msg.Context()), "dropped").Inc()
		r.logger.Error("dropping event after retries", err, watermill.LogFields{"message_uuid": msg.UUID})
		return nil, nil
	}
}

// Deliverer receives decoded notifications. websocket.Hub implements it.
type Deliverer interface {
	Deliver(ctx context.Context, n *models.Notification) error
}

// PushHandler decodes notification messages and hands them to d.
// Malformed messages are acknowledged and dropped; delivery errors are
// returned so the retry middleware can try again.
func PushHandler(d Deliverer, logger watermill.LoggerAdapter) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		n, err := DecodeNotification(msg)
		if err != nil {
			metrics.EventsConsumed.WithLabelValues(TopicNotifications, "malformed").Inc()
			logger.Error("dropping malformed notification event", err, watermill.LogFields{"message_uuid": msg.UUID})
			return nil
		}
		if err := d.Deliver(msg.Context(), n); err != nil {
			metrics.EventsConsumed.WithLabelValues(TopicNotifications, "error").Inc()
			return fmt.Errorf("push notification %s: %w", n.ID, err)
		}
		metrics.EventsConsumed.WithLabelValues(TopicNotifications, "success").Inc()
		return nil
	}
}

// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/shelfwise/internal/breaker"
	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("eventbus: closed")

// Bus publishes committed notifications and hands out the matching
// subscriber. It implements notify.Deliverer, so the fan-out forwards
// every notification to it after commit.
type Bus struct {
	pub     message.Publisher
	sub     message.Subscriber
	breaker *breaker.Breaker[struct{}]
	logger  watermill.LoggerAdapter
	closers []func() error

	mu     sync.RWMutex
	closed bool
}

func newBus(pub message.Publisher, sub message.Subscriber, logger watermill.LoggerAdapter, closers ...func() error) *Bus {
	return &Bus{
		pub: pub,
		sub: sub,
		breaker: breaker.New[struct{}](breaker.Config{
			Name:    "eventbus-publish",
			Timeout: 15 * time.Second,
		}),
		logger:  logger,
		closers: closers,
	}
}

// NewInProcess returns a bus backed by Go channels. Messages published
// while nobody is subscribed are dropped, which matches best-effort push.
func NewInProcess(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = logging.NewWatermillAdapter(logging.WithComponent("eventbus"))
	}
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
	return newBus(ch, ch, logger, ch.Close)
}

// NewNATS connects to JetStream at cfg.URL, provisions the notification
// stream and returns a bus over it. Consumers share the durable
// cfg.DurableName, so each notification is pushed by one replica.
func NewNATS(ctx context.Context, cfg config.NATSConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter(logging.WithComponent("eventbus"))
	}

	nc, err := natsgo.Connect(cfg.URL, natsgo.Name("shelfwise-provisioner"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	streamCfg := StreamConfigFrom(cfg)
	if _, err := EnsureStream(ctx, js, streamCfg); err != nil {
		nc.Close()
		return nil, err
	}
	nc.Close()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	publishTimeout := cfg.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.AckWait(publishTimeout),
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.DurableName,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(streamCfg.Name),
				natsgo.MaxDeliver(5),
				natsgo.DeliverNew(),
			},
			DurablePrefix: cfg.DurableName,
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create subscriber: %w", err)
	}

	logger.Info("event bus connected", watermill.LogFields{"url": cfg.URL, "stream": streamCfg.Name})
	return newBus(pub, sub, logger, sub.Close, pub.Close), nil
}

// Name implements notify.Deliverer.
func (b *Bus) Name() string { return "eventbus" }

// Deliver publishes n on TopicNotifications. Publishing goes through a
// circuit breaker so an unreachable broker fails fast.
func (b *Bus) Deliver(ctx context.Context, n *models.Notification) error {
	msg, err := EncodeNotification(n)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	return b.Publish(TopicNotifications, msg)
}

// Publish sends msg on topic.
func (b *Bus) Publish(topic string, msg *message.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.pub.Publish(topic, msg)
	})
	result := "success"
	switch {
	case err == nil:
	case breaker.IsOpen(err):
		result = "breaker_open"
	default:
		result = "error"
	}
	metrics.EventsPublished.WithLabelValues(topic, result).Inc()
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", msg.UUID, topic, err)
	}
	return nil
}

// Subscriber is the consuming side of the bus.
func (b *Bus) Subscriber() message.Subscriber { return b.sub }

// Logger is the adapter the bus logs through.
func (b *Bus) Logger() watermill.LoggerAdapter { return b.logger }

// Close releases the publisher and subscriber. It is idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

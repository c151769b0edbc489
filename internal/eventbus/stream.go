// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/shelfwise/internal/config"
)

// StreamManager is the subset of jetstream.JetStream used to provision
// the stream, so tests can substitute it.
type StreamManager interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamConfig describes the notification stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	DuplicateWindow time.Duration
}

// StreamConfigFrom derives the stream from the application config.
func StreamConfigFrom(c config.NATSConfig) StreamConfig {
	days := c.RetentionDays
	if days < 1 {
		days = 7
	}
	return StreamConfig{
		Name:            c.StreamName,
		Subjects:        []string{SubjectsWildcard},
		MaxAge:          time.Duration(days) * 24 * time.Hour,
		MaxBytes:        -1,
		DuplicateWindow: 2 * time.Minute,
	}
}

func (c StreamConfig) jetstream() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:       c.Name,
		Subjects:   c.Subjects,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     c.MaxAge,
		MaxBytes:   c.MaxBytes,
		Duplicates: c.DuplicateWindow,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}
}

// EnsureStream creates the stream, or updates it in place when it
// already exists so that config changes take effect on restart.
func EnsureStream(ctx context.Context, js StreamManager, cfg StreamConfig) (jetstream.Stream, error) {
	if cfg.Name == "" {
		return nil, errors.New("stream name required")
	}
	want := cfg.jetstream()

	_, err := js.Stream(ctx, cfg.Name)
	switch {
	case err == nil:
		stream, err := js.UpdateStream(ctx, want)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", cfg.Name, err)
		}
		return stream, nil
	case errors.Is(err, jetstream.ErrStreamNotFound):
		stream, err := js.CreateStream(ctx, want)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		return stream, nil
	default:
		return nil, fmt.Errorf("check stream %s: %w", cfg.Name, err)
	}
}

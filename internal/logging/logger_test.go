// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Timestamp: true, Service: "shelfwise-test", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("user_id", "u1").Msg("follow accepted")

	out := buf.String()
	if !strings.Contains(out, `"message":"follow accepted"`) {
		t.Errorf("missing message: %s", out)
	}
	if !strings.Contains(out, `"user_id":"u1"`) {
		t.Errorf("missing field: %s", out)
	}
	if !strings.Contains(out, `"service":"shelfwise-test"`) {
		t.Errorf("missing service field: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	defer Init(DefaultConfig())

	Debug().Msg("dropped")
	Info().Msg("dropped too")
	Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("below-threshold lines written: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("warn line missing: %s", out)
	}
}

func TestCtxAddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithUserID(ctx, "alice")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"correlation_id":"corr-1"`, `"user_id":"alice"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestCorrelationIDLength(t *testing.T) {
	if got := len(GenerateCorrelationID()); got != 8 {
		t.Errorf("correlation id length = %d, want 8", got)
	}
	if CorrelationIDFromContext(context.Background()) != "" {
		t.Error("expected empty correlation id for bare context")
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(h).With("service", "feed-refresh").WithGroup("supervisor")

	logger.Warn("service restarted", "attempt", 3, "err", errors.New("boom"))

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("expected warn level: %s", out)
	}
	if !strings.Contains(out, `"service":"feed-refresh"`) {
		t.Errorf("expected pre-bound attr: %s", out)
	}
	if !strings.Contains(out, `"supervisor.attempt":3`) {
		t.Errorf("expected grouped attr: %s", out)
	}
	if !strings.Contains(out, `"supervisor.err":"boom"`) {
		t.Errorf("expected error attr: %s", out)
	}
}

func TestWatermillAdapter(t *testing.T) {
	var buf bytes.Buffer
	a := NewWatermillAdapter(NewTestLogger(&buf)).With(watermill.LogFields{"topic": "notifications"})

	a.Error("publish failed", errors.New("nats down"), watermill.LogFields{"uuid": "m1"})

	out := buf.String()
	for _, want := range []string{`"topic":"notifications"`, `"uuid":"m1"`, `"error":"nats down"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

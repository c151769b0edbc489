// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/shelfwise/internal/config"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/notify"
)

var _ notify.Deliverer = (*Bus)(nil)

func testNotification(id, recipient string) *models.Notification {
	return &models.Notification{
		ID:          id,
		Type:        models.NotificationNewFollower,
		RecipientID: recipient,
		ActorID:     "ann",
		Actor:       models.ActorSnapshot{Handle: "ann", DisplayName: "Ann"},
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// recorder collects delivered notifications, failing the first
// failures calls.
type recorder struct {
	mu       sync.Mutex
	failures int
	calls    int
	got      []*models.Notification
}

func (r *recorder) Deliver(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failures > 0 {
		r.failures--
		return errors.New("recipient offline")
	}
	r.got = append(r.got, n)
	return nil
}

func (r *recorder) snapshot() (calls int, ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.got {
		ids = append(ids, n.ID)
	}
	return r.calls, ids
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func fastRouterConfig() RouterConfig {
	cfg := DefaultRouterConfig()
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	cfg.CloseTimeout = time.Second
	return cfg
}

// startPipeline wires an in-process bus to rec and runs it until the
// test ends.
func startPipeline(t *testing.T, rec *recorder) *Bus {
	t.Helper()
	bus := NewInProcess(nil)
	router := NewRouter(fastRouterConfig(), bus.Logger())
	router.AddConsumer("push", TopicNotifications, bus.Subscriber(), PushHandler(rec, bus.Logger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = router.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = bus.Close()
	})

	select {
	case <-router.Started():
	case <-time.After(3 * time.Second):
		t.Fatal("router did not start")
	}
	return bus
}

func TestEncodeDecodeNotification(t *testing.T) {
	n := testNotification("0192f0a0-0000-7000-8000-000000000001", "bob")
	msg, err := EncodeNotification(n)
	if err != nil {
		t.Fatal(err)
	}
	if msg.UUID != n.ID {
		t.Errorf("UUID = %q, want notification id", msg.UUID)
	}
	if msg.Metadata.Get(MetaRecipient) != "bob" || msg.Metadata.Get(MetaType) != "new_follower" {
		t.Errorf("metadata = %v", msg.Metadata)
	}
	if msg.Metadata.Get("Nats-Msg-Id") != n.ID {
		t.Errorf("dedup id = %q", msg.Metadata.Get("Nats-Msg-Id"))
	}

	got, err := DecodeNotification(msg)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != n.ID || got.Actor.Handle != "ann" || !got.CreatedAt.Equal(n.CreatedAt) {
		t.Errorf("decoded %+v", got)
	}
}

func TestEncodeNotification_RejectsIncomplete(t *testing.T) {
	for _, n := range []*models.Notification{nil, {RecipientID: "bob"}, {ID: "n1"}} {
		if _, err := EncodeNotification(n); !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("EncodeNotification(%+v) = %v", n, err)
		}
	}
}

func TestDecodeNotification_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "{"},
		{"missing recipient", `{"id":"n1","type":"like"}`},
		{"unknown type", `{"id":"n1","type":"poke","recipient_id":"bob"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeNotification(message.NewMessage("m1", []byte(tt.payload)))
			if !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestInProcess_DeliversToConsumer(t *testing.T) {
	rec := &recorder{}
	bus := startPipeline(t, rec)

	for _, id := range []string{"n1", "n2"} {
		if err := bus.Deliver(context.Background(), testNotification(id, "bob")); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool {
		_, ids := rec.snapshot()
		return len(ids) == 2
	})
	if _, ids := rec.snapshot(); ids[0] != "n1" || ids[1] != "n2" {
		t.Errorf("delivered %v", ids)
	}
}

func TestInProcess_RetriesFailedPush(t *testing.T) {
	rec := &recorder{failures: 2}
	bus := startPipeline(t, rec)

	if err := bus.Deliver(context.Background(), testNotification("n1", "bob")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		_, ids := rec.snapshot()
		return len(ids) == 1
	})
	if calls, _ := rec.snapshot(); calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestInProcess_DropsAfterRetries(t *testing.T) {
	rec := &recorder{failures: 4} // initial attempt plus three retries
	bus := startPipeline(t, rec)
	ctx := context.Background()

	if err := bus.Deliver(ctx, testNotification("lost", "bob")); err != nil {
		t.Fatal(err)
	}
	if err := bus.Deliver(ctx, testNotification("next", "bob")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		_, ids := rec.snapshot()
		return len(ids) == 1
	})
	calls, ids := rec.snapshot()
	if ids[0] != "next" || calls != 5 {
		t.Errorf("calls = %d, delivered = %v", calls, ids)
	}
}

func TestInProcess_MalformedIsAcked(t *testing.T) {
	rec := &recorder{}
	bus := startPipeline(t, rec)

	if err := bus.Publish(TopicNotifications, message.NewMessage("junk", []byte("not json"))); err != nil {
		t.Fatal(err)
	}
	if err := bus.Deliver(context.Background(), testNotification("n1", "bob")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		_, ids := rec.snapshot()
		return len(ids) == 1
	})
	if calls, _ := rec.snapshot(); calls != 1 {
		t.Errorf("malformed message reached the deliverer: %d calls", calls)
	}
}

func TestBus_Close(t *testing.T) {
	bus := NewInProcess(nil)
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	err := bus.Deliver(context.Background(), testNotification("n1", "bob"))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Deliver after Close = %v", err)
	}
	if bus.Name() != "eventbus" {
		t.Errorf("Name = %q", bus.Name())
	}
}

type fakeStreams struct {
	lookupErr error
	created   *jetstream.StreamConfig
	updated   *jetstream.StreamConfig
}

func (f *fakeStreams) Stream(context.Context, string) (jetstream.Stream, error) {
	return nil, f.lookupErr
}

func (f *fakeStreams) CreateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.created = &cfg
	return nil, nil
}

func (f *fakeStreams) UpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.updated = &cfg
	return nil, nil
}

func TestEnsureStream(t *testing.T) {
	cfg := StreamConfigFrom(config.NATSConfig{StreamName: "SOCIAL", RetentionDays: 3})
	ctx := context.Background()

	t.Run("creates missing stream", func(t *testing.T) {
		f := &fakeStreams{lookupErr: jetstream.ErrStreamNotFound}
		if _, err := EnsureStream(ctx, f, cfg); err != nil {
			t.Fatal(err)
		}
		if f.created == nil || f.updated != nil {
			t.Fatalf("created=%v updated=%v", f.created, f.updated)
		}
		if f.created.MaxAge != 72*time.Hour || f.created.Subjects[0] != SubjectsWildcard {
			t.Errorf("stream config = %+v", f.created)
		}
	})

	t.Run("updates existing stream", func(t *testing.T) {
		f := &fakeStreams{}
		if _, err := EnsureStream(ctx, f, cfg); err != nil {
			t.Fatal(err)
		}
		if f.updated == nil || f.created != nil {
			t.Fatalf("created=%v updated=%v", f.created, f.updated)
		}
	})

	t.Run("lookup failure", func(t *testing.T) {
		boom := errors.New("no responders")
		f := &fakeStreams{lookupErr: boom}
		if _, err := EnsureStream(ctx, f, cfg); !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("name required", func(t *testing.T) {
		if _, err := EnsureStream(ctx, &fakeStreams{}, StreamConfig{}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestServerConfigFrom(t *testing.T) {
	got, err := ServerConfigFrom(config.NATSConfig{URL: "nats://127.0.0.1:4333", StoreDir: "/tmp/js", MaxStore: 10})
	if err != nil {
		t.Fatal(err)
	}
	if got.Host != "127.0.0.1" || got.Port != 4333 || got.StoreDir != "/tmp/js" || got.MaxStore != 10 {
		t.Errorf("got %+v", got)
	}
	if _, err := ServerConfigFrom(config.NATSConfig{URL: "nats://no-port"}); err == nil {
		t.Error("expected error for url without port")
	}
}

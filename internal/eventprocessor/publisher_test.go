// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	gobreaker "github.com/sony/gobreaker/v2"
)

type failingBackend struct {
	mu    sync.Mutex
	calls int
}

func (f *failingBackend) Publish(string, ...*message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("broker down")
}

func (f *failingBackend) Close() error { return nil }

func TestPublisher_MemoryTransport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pub, err := NewPublisher(ctx, DefaultPublisherConfig(), nil)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer pub.Close()

	messages, err := pub.Subscriber().Subscribe(ctx, pub.Topic())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := pub.PublishReport(ctx, sampleReport()); err != nil {
		t.Fatalf("PublishReport: %v", err)
	}

	select {
	case msg := <-messages:
		defer msg.Ack()
		if msg.UUID != "report-1" {
			t.Errorf("UUID = %q, want report-1", msg.UUID)
		}
		if msg.Metadata.Get("flagged") != "true" || msg.Metadata.Get("session_id") != "sess-1" {
			t.Errorf("unexpected metadata: %v", msg.Metadata)
		}
		if msg.Metadata.Get(natsgo.MsgIdHdr) != "report-1" {
			t.Errorf("Nats-Msg-Id = %q, want report-1", msg.Metadata.Get(natsgo.MsgIdHdr))
		}
		ev, err := DeserializeEvent(msg.Payload)
		if err != nil {
			t.Fatalf("DeserializeEvent: %v", err)
		}
		if !ev.Flagged || ev.RiskLevel != "CRITICAL" {
			t.Errorf("unexpected event summary: flagged=%v risk=%q", ev.Flagged, ev.RiskLevel)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for published report")
	}

	if err := pub.Healthy(ctx); err != nil {
		t.Errorf("Healthy: %v", err)
	}
}

func TestPublisher_NilAndClosed(t *testing.T) {
	ctx := context.Background()
	pub, err := NewPublisher(ctx, DefaultPublisherConfig(), nil)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	if err := pub.PublishReport(ctx, nil); !errors.Is(err, ErrNilReport) {
		t.Errorf("nil report: err = %v, want ErrNilReport", err)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := pub.PublishReport(ctx, sampleReport()); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("after close: err = %v, want ErrPublisherClosed", err)
	}
	if err := pub.Healthy(ctx); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Healthy after close = %v, want ErrPublisherClosed", err)
	}
}

func TestPublisher_BreakerOpens(t *testing.T) {
	backend := &failingBackend{}
	pub, err := NewPublisherWithBackend(backend, "", CircuitBreakerConfig{
		Name:             "publisher-breaker-test",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})
	if err != nil {
		t.Fatalf("NewPublisherWithBackend: %v", err)
	}
	if pub.Topic() != DefaultTopic {
		t.Errorf("Topic = %q, want default", pub.Topic())
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = pub.PublishReport(ctx, sampleReport())
	}
	err = pub.PublishReport(ctx, sampleReport())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if backend.calls != 2 {
		t.Errorf("backend calls = %d, want 2", backend.calls)
	}
	if pub.BreakerState() != "open" {
		t.Errorf("BreakerState = %q, want open", pub.BreakerState())
	}
	if err := pub.Healthy(ctx); err == nil {
		t.Error("Healthy should fail while the breaker is open")
	}

	if _, err := NewPublisherWithBackend(nil, "", DefaultCircuitBreakerConfig("x")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil backend: err = %v, want ErrInvalidConfig", err)
	}
}

func TestPublisher_EmbeddedTransport(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := DefaultPublisherConfig()
	cfg.Transport = TransportEmbedded
	cfg.StoreDir = t.TempDir()
	cfg.MaxReconnects = 0

	pub, err := NewPublisher(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	defer pub.Close()

	if err := pub.Healthy(ctx); err != nil {
		t.Fatalf("Healthy: %v", err)
	}

	if pub.Subscriber() == nil {
		t.Fatal("Subscriber() = nil for embedded transport")
	}
	messages, err := pub.Subscriber().Subscribe(ctx, pub.Topic())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Publishing the same report twice is deduplicated by Nats-Msg-Id.
	for i := 0; i < 2; i++ {
		if err := pub.PublishReport(ctx, sampleReport()); err != nil {
			t.Fatalf("PublishReport %d: %v", i, err)
		}
	}

	select {
	case msg := <-messages:
		msg.Ack()
		if msg.UUID != "report-1" {
			t.Errorf("subscribed UUID = %q, want report-1", msg.UUID)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for subscribed report")
	}

	nc, err := natsgo.Connect(pub.server.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream: %v", err)
	}
	stream, err := js.Stream(ctx, cfg.Stream.Name)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("stream holds %d messages, want 1", info.State.Msgs)
	}

	raw, err := stream.GetLastMsgForSubject(ctx, cfg.Topic)
	if err != nil {
		t.Fatalf("GetLastMsgForSubject: %v", err)
	}
	ev, err := DeserializeEvent(raw.Data)
	if err != nil {
		t.Fatalf("DeserializeEvent: %v", err)
	}
	if ev.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", ev.SessionID)
	}
}

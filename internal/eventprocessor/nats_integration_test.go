// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

//go:build integration

package eventprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/surveyguard/internal/testinfra"
)

func TestPublisher_ExternalNATS_Integration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testinfra.NewNATSContainer(ctx)
	if err != nil {
		t.Fatalf("NewNATSContainer: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, container)

	cfg := DefaultPublisherConfig()
	cfg.Transport = TransportNATS
	cfg.URL = container.URL

	pub, err := NewPublisher(ctx, cfg, NewWatermillLogger())
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
		msg.Ack()
		if msg.UUID != "report-1" {
			t.Errorf("UUID = %q, want report-1", msg.UUID)
		}
		ev, err := DeserializeEvent(msg.Payload)
		if err != nil {
			t.Fatalf("DeserializeEvent: %v", err)
		}
		if ev.SessionID != "sess-1" {
			t.Errorf("SessionID = %q, want sess-1", ev.SessionID)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for report over NATS")
	}

	if err := pub.Healthy(ctx); err != nil {
		t.Errorf("Healthy: %v", err)
	}
}

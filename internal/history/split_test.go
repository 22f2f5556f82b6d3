// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/surveyguard/internal/models"
)

func TestSplitStoreRouting(t *testing.T) {
	counter, _ := newTestCounter(t)
	durable := newFakeStore()
	durable.count = 42
	s := NewSplitStore(durable, counter)
	ctx := context.Background()

	session := models.SessionContext{SessionID: "a", IPAddress: "203.0.113.5", StartedAt: counterNow.Add(-time.Minute)}
	if err := s.RecordSession(ctx, &session); err != nil {
		t.Fatalf("RecordSession() error = %v", err)
	}
	if len(durable.recorded) != 1 {
		t.Fatalf("durable recorded %v, want one session", durable.recorded)
	}

	n, err := s.CountSessionsByIP(ctx, "203.0.113.5", "", time.Hour)
	if err != nil || n != 1 {
		t.Errorf("windowed count = %d, %v; want 1 from redis", n, err)
	}
	if durable.callCount("ip") != 0 {
		t.Error("windowed count reached the durable store")
	}

	n, err = s.CountSessionsByIP(ctx, "203.0.113.5", "a", time.Hour)
	if err != nil || n != 0 {
		t.Errorf("windowed count excluding the recorded session = %d, %v; want 0", n, err)
	}

	n, err = s.CountSessionsByIP(ctx, "203.0.113.5", "", 0)
	if err != nil || n != 42 {
		t.Errorf("all-time count = %d, %v; want 42 from durable", n, err)
	}

	n, _ = s.CountSessionsByRespondent(ctx, "r", "", 48*time.Hour)
	if n != 42 || durable.callCount("resp") != 1 {
		t.Errorf("window beyond retention = %d, want durable answer", n)
	}
}

func TestSplitStoreRedisFallback(t *testing.T) {
	counter, mr := newTestCounter(t)
	durable := newFakeStore()
	durable.count = 7
	s := NewSplitStore(durable, counter)

	mr.SetError("ERR injected failure")
	n, err := s.CountSessionsByFingerprint(context.Background(), "fp", "", time.Hour)
	if err != nil || n != 7 {
		t.Errorf("count = %d, %v; want durable fallback 7", n, err)
	}
	if durable.callCount("fp") != 1 {
		t.Error("durable store not consulted after redis failure")
	}

	// A redis write failure does not fail the durable write.
	if err := s.RecordSession(context.Background(), &models.SessionContext{SessionID: "b", IPAddress: "198.51.100.2"}); err != nil {
		t.Errorf("RecordSession() error = %v", err)
	}
}

func TestSplitStoreWithoutCounter(t *testing.T) {
	durable := newFakeStore()
	durable.count = 3
	durable.countries["203.0.113.5"] = "US"
	s := NewSplitStore(durable, nil)
	ctx := context.Background()

	if n, _ := s.CountSessionsByIP(ctx, "ip", "", time.Hour); n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	if c, _ := s.ResolveCountryFromIP(ctx, "203.0.113.5"); c != "US" {
		t.Errorf("country = %q", c)
	}
	if _, err := s.FetchOtherResponsesInSurvey(ctx, "q", "a"); err != nil {
		t.Errorf("FetchOtherResponsesInSurvey() error = %v", err)
	}
	if _, err := s.FetchRespondentCountries(ctx, "r", "", time.Hour); err != nil {
		t.Errorf("FetchRespondentCountries() error = %v", err)
	}
	if err := s.SetGeolocation(ctx, "198.51.100.1", "DE"); err != nil {
		t.Errorf("SetGeolocation() error = %v", err)
	}
}

func TestSplitStoreReadOnlyDurable(t *testing.T) {
	s := NewSplitStore(readOnlyStore{newFakeStore()}, nil)
	err := s.RecordSession(context.Background(), &models.SessionContext{SessionID: "a"})
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("RecordSession() error = %v, want ErrReadOnly", err)
	}
	if err := s.SetGeolocation(context.Background(), "ip", "US"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("SetGeolocation() error = %v, want ErrReadOnly", err)
	}
}

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestEngine(store HistoryStore) *Engine {
	e := NewEngine(store, DefaultAggregatorConfig())
	e.RegisterDefaults()
	return e
}

func TestEngine_Analyze_CleanSession(t *testing.T) {
	e := newTestEngine(&mockHistoryStore{country: "DE", countries: []string{"DE"}})

	ind, err := e.Analyze(context.Background(), testSession())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ind.OverallFraudScore != 0 || ind.IsDuplicate {
		t.Errorf("clean session scored %v (duplicate=%v)", ind.OverallFraudScore, ind.IsDuplicate)
	}
	if ind.ID == "" || ind.SessionID != "sess-1" {
		t.Errorf("identity not set: %+v", ind)
	}
	if ind.Fingerprint == "" {
		t.Error("expected derived fingerprint")
	}
	if !ind.GeolocationConsistent || ind.Country != "DE" {
		t.Errorf("geolocation = %v/%q", ind.GeolocationConsistent, ind.Country)
	}
}

func TestEngine_Analyze_FarmedSession(t *testing.T) {
	session := testSession()
	session.Responses = []string{"This survey was very helpful and well designed"}

	store := &mockHistoryStore{
		ipTotal:     25,
		ipRecent:    6,
		fingerprint: 7,
		respondent:  4,
		responses:   []ResponseRecord{{SessionID: "sess-9", Text: "this survey was very helpful and well designed"}},
		country:     "US",
		countries:   []string{"VN"},
	}

	ind, err := newTestEngine(store).Analyze(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ind.IsDuplicate {
		t.Errorf("expected duplicate, score %v", ind.OverallFraudScore)
	}
	for _, s := range []string{SignalIPReuse, SignalFingerprintReuse, SignalDuplicate, SignalGeolocation, SignalVelocity} {
		if _, ok := ind.FlagReasons[s]; !ok {
			t.Errorf("missing flag reason for %s", s)
		}
	}
}

func TestEngine_Analyze_SlowStoreDegrades(t *testing.T) {
	store := &mockHistoryStore{ipTotal: 50, delay: 300 * time.Millisecond}
	e := newTestEngine(store)
	for _, s := range AllSignals {
		if err := e.ConfigureAnalyzer(s, []byte(`{"lookup_timeout_ms": 25}`)); err != nil {
			t.Fatalf("ConfigureAnalyzer(%s): %v", s, err)
		}
	}

	session := testSession()
	session.Responses = []string{"some free text with enough tokens"}

	start := time.Now()
	ind, err := e.Analyze(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("Analyze took %v; slow lookups should not serialize", elapsed)
	}
	if len(ind.DegradedSignals) != len(AllSignals) {
		t.Errorf("DegradedSignals = %v, want all signals", ind.DegradedSignals)
	}
	if ind.OverallFraudScore != 0 {
		t.Errorf("OverallFraudScore = %v, want 0 with all signals degraded", ind.OverallFraudScore)
	}
	if got := e.Metrics().DegradedLookups[SignalIPReuse]; got != 1 {
		t.Errorf("DegradedLookups[ip_reuse] = %d, want 1", got)
	}
}

func TestEngine_Analyze_MissingSession(t *testing.T) {
	e := newTestEngine(&mockHistoryStore{})
	if _, err := e.Analyze(context.Background(), nil); !errors.Is(err, ErrMissingSession) {
		t.Errorf("error = %v, want ErrMissingSession", err)
	}
}

func TestEngine_Analyze_Canceled(t *testing.T) {
	e := newTestEngine(&mockHistoryStore{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Analyze(ctx, testSession()); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestEngine_DisabledAnalyzer(t *testing.T) {
	store := &mockHistoryStore{ipTotal: 50, ipRecent: 10}
	e := newTestEngine(store)
	if err := e.SetAnalyzerEnabled(SignalIPReuse, false); err != nil {
		t.Fatalf("SetAnalyzerEnabled: %v", err)
	}

	ind, err := e.Analyze(context.Background(), testSession())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ind.IPRisk != 0 {
		t.Errorf("IPRisk = %v, want 0 when disabled", ind.IPRisk)
	}
	if store.callCount("ip") == 0 {
		t.Error("velocity still counts sessions by IP")
	}
	if err := e.SetAnalyzerEnabled("unknown", true); err == nil {
		t.Error("expected error for unknown analyzer")
	}
}

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package behavior

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/tomtom215/surveyguard/internal/models"
)

func newDefaultEngine() *Engine {
	e := NewEngine(DefaultAggregatorConfig())
	e.RegisterDefaults()
	return e
}

func TestEngine_Analyze_ScriptedKeystrokes(t *testing.T) {
	e := newDefaultEngine()
	events := evenlySpaced(models.EventTypeKeystroke, 10, 10)

	result, err := e.Analyze(context.Background(), "sess-1", events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ks := result.MethodScores["keystroke"]; ks < 0.75 {
		t.Errorf("keystroke score = %v, want >= 0.75", ks)
	}
	// keystroke 0.75, mouse 0.5 (no data), timing 1.0, device 0.5 (no data), network 0.5
	if math.Abs(result.ConfidenceScore-0.65) > 1e-9 {
		t.Errorf("ConfidenceScore = %v, want 0.65", result.ConfidenceScore)
	}
	if result.IsBot {
		t.Error("0.65 is not above the 0.7 bot threshold")
	}
	if result.RiskLevel != models.RiskHigh {
		t.Errorf("RiskLevel = %v, want HIGH", result.RiskLevel)
	}
	if result.EventCount != 10 {
		t.Errorf("EventCount = %d, want 10", result.EventCount)
	}
	if result.SessionID != "sess-1" || result.ID == "" {
		t.Errorf("result identity not set: %+v", result)
	}
	if len(result.MethodScores) != len(AllMethods) {
		t.Errorf("MethodScores has %d entries, want %d", len(result.MethodScores), len(AllMethods))
	}
}

func TestEngine_Analyze_EmptyBatch(t *testing.T) {
	e := newDefaultEngine()

	_, err := e.Analyze(context.Background(), "sess-1", nil)
	if !errors.Is(err, ErrNoBehaviorData) {
		t.Fatalf("error = %v, want ErrNoBehaviorData", err)
	}
	if err.Error() != "no behavior data to analyze" {
		t.Errorf("error message = %q", err.Error())
	}
	if got := e.Metrics().EmptyBatches; got != 1 {
		t.Errorf("EmptyBatches = %d, want 1", got)
	}
}

func TestEngine_Analyze_InsufficientEverywhere(t *testing.T) {
	e := newDefaultEngine()
	events := eventsAt(models.EventTypeFocus, 0)

	result, err := e.Analyze(context.Background(), "sess-1", events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ConfidenceScore != NeutralScore {
		t.Errorf("ConfidenceScore = %v, want %v", result.ConfidenceScore, NeutralScore)
	}
}

func TestEngine_Analyze_Idempotent(t *testing.T) {
	e := newDefaultEngine()
	events := append(
		eventsAt(models.EventTypeKeystroke, 0, 130, 290, 400, 610, 720),
		eventsAt(models.EventTypeClick, 900, 4000, 12000)...,
	)

	first, err := e.Analyze(context.Background(), "sess-1", events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.Analyze(context.Background(), "sess-1", events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ConfidenceScore != second.ConfidenceScore || first.Explanation != second.Explanation {
		t.Errorf("results differ: %v/%q vs %v/%q",
			first.ConfidenceScore, first.Explanation, second.ConfidenceScore, second.Explanation)
	}
	for m, s := range first.MethodScores {
		if second.MethodScores[m] != s {
			t.Errorf("method %s: %v vs %v", m, s, second.MethodScores[m])
		}
	}
}

func TestEngine_DisabledAnalyzer(t *testing.T) {
	e := newDefaultEngine()
	for _, m := range []Method{MethodMouse, MethodDevice, MethodNetwork} {
		if err := e.SetAnalyzerEnabled(m, false); err != nil {
			t.Fatalf("SetAnalyzerEnabled(%s): %v", m, err)
		}
	}

	result, err := e.Analyze(context.Background(), "sess-1", evenlySpaced(models.EventTypeKeystroke, 10, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// keystroke 0.75 and timing 1.0 only
	if math.Abs(result.ConfidenceScore-0.875) > 1e-9 {
		t.Errorf("ConfidenceScore = %v, want 0.875", result.ConfidenceScore)
	}
	if !result.IsBot {
		t.Error("expected bot classification above 0.7")
	}
	if _, ok := result.MethodScores["mouse"]; ok {
		t.Error("disabled analyzer should not report a score")
	}
}

func TestEngine_ConfigureUnknownAnalyzer(t *testing.T) {
	e := NewEngine(DefaultAggregatorConfig())
	if err := e.ConfigureAnalyzer(MethodMouse, []byte(`{}`)); err == nil {
		t.Error("expected error for unregistered analyzer")
	}
	if err := e.SetAnalyzerEnabled(MethodMouse, false); err == nil {
		t.Error("expected error for unregistered analyzer")
	}
}

func TestEngine_CanceledContext(t *testing.T) {
	e := newDefaultEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Analyze(ctx, "sess-1", evenlySpaced(models.EventTypeKeystroke, 10, 10))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestEngine_ConcurrentSessions(t *testing.T) {
	e := newDefaultEngine()
	var wg sync.WaitGroup
	errs := make(chan error, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			events := evenlySpaced(models.EventTypeKeystroke, 5+i, 10+i)
			if _, err := e.Analyze(context.Background(), "sess", events); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	if got := e.Metrics().SessionsAnalyzed; got != 20 {
		t.Errorf("SessionsAnalyzed = %d, want 20", got)
	}
}

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package models

import "testing"

func TestRiskThresholds_Classify(t *testing.T) {
	thresholds := DefaultRiskThresholds()

	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0.0, RiskLow},
		{0.39, RiskLow},
		{0.4, RiskMedium},
		{0.59, RiskMedium},
		{0.6, RiskHigh},
		{0.79, RiskHigh},
		{0.8, RiskCritical},
		{1.0, RiskCritical},
	}

	for _, tt := range tests {
		if got := thresholds.Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestRiskThresholds_Validate(t *testing.T) {
	tests := []struct {
		name        string
		thresholds  RiskThresholds
		expectError bool
	}{
		{"defaults", DefaultRiskThresholds(), false},
		{"equal tiers", RiskThresholds{Medium: 0.5, High: 0.5, Critical: 0.5}, false},
		{"descending", RiskThresholds{Medium: 0.8, High: 0.6, Critical: 0.4}, true},
		{"negative", RiskThresholds{Medium: -0.1, High: 0.6, Critical: 0.8}, true},
		{"above one", RiskThresholds{Medium: 0.4, High: 0.6, Critical: 1.2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.thresholds.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestInteractionEvent_Dimensions(t *testing.T) {
	event := InteractionEvent{ScreenWidth: 1920, ScreenHeight: 1080}
	if got := event.ScreenSize(); got != "1920x1080" {
		t.Errorf("ScreenSize() = %q, want 1920x1080", got)
	}
	if got := event.ViewportSize(); got != "" {
		t.Errorf("ViewportSize() = %q, want empty", got)
	}
	if event.HasPosition() {
		t.Error("HasPosition() should be false without coordinates")
	}

	x, y := 10.0, 20.0
	event.X, event.Y = &x, &y
	if !event.HasPosition() {
		t.Error("HasPosition() should be true with coordinates")
	}
}

func TestPatternType_IsGeometric(t *testing.T) {
	geometric := map[PatternType]bool{
		PatternDiagonal:        true,
		PatternReverseDiagonal: true,
		PatternStraightLine:    true,
		PatternZigzag:          false,
		PatternRandom:          false,
		PatternNone:            false,
	}
	for pattern, want := range geometric {
		if got := pattern.IsGeometric(); got != want {
			t.Errorf("%q.IsGeometric() = %v, want %v", pattern, got, want)
		}
	}
}

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package eventprocessor

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/surveyguard/internal/models"
)

func sampleReport() *models.SessionReport {
	return &models.SessionReport{
		ID:        "report-1",
		SessionID: "sess-1",
		Behavior: &models.DetectionResult{
			ConfidenceScore: 0.82,
			RiskLevel:       models.RiskCritical,
			IsBot:           true,
		},
		Fraud: &models.FraudIndicator{
			OverallFraudScore: 0.1,
			RiskLevel:         models.RiskLow,
		},
		Composite: &models.CompositeScore{
			CompositeScore:  0.82,
			BehavioralScore: 0.82,
			RiskLevel:       models.RiskCritical,
			IsBot:           true,
		},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewSessionScoredEvent(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*models.SessionReport)
		wantScore *float64
		wantRisk  models.RiskLevel
	}{
		{name: "composite preferred", wantScore: ptr(0.82), wantRisk: models.RiskCritical},
		{name: "behavior without composite", modify: func(r *models.SessionReport) {
			r.Composite = nil
			r.Behavior.ConfidenceScore = 0.5
			r.Behavior.RiskLevel = models.RiskMedium
		}, wantScore: ptr(0.5), wantRisk: models.RiskMedium},
		{name: "fraud only", modify: func(r *models.SessionReport) {
			r.Composite = nil
			r.Behavior = nil
		}, wantScore: ptr(0.1), wantRisk: models.RiskLow},
		{name: "no verdicts", modify: func(r *models.SessionReport) {
			r.Composite, r.Behavior, r.Fraud = nil, nil, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleReport()
			if tt.modify != nil {
				tt.modify(r)
			}
			ev := NewSessionScoredEvent(r, true)

			if ev.EventID != "report-1" || ev.SessionID != "sess-1" || ev.Type != EventTypeSessionScored {
				t.Errorf("unexpected envelope: %+v", ev)
			}
			if !ev.Timestamp.Equal(r.CreatedAt) {
				t.Errorf("Timestamp = %v, want %v", ev.Timestamp, r.CreatedAt)
			}
			switch {
			case tt.wantScore == nil && ev.Score != nil:
				t.Errorf("Score = %v, want nil", *ev.Score)
			case tt.wantScore != nil && (ev.Score == nil || *ev.Score != *tt.wantScore):
				t.Errorf("Score = %v, want %v", ev.Score, *tt.wantScore)
			}
			if ev.RiskLevel != tt.wantRisk {
				t.Errorf("RiskLevel = %q, want %q", ev.RiskLevel, tt.wantRisk)
			}
		})
	}
}

func TestSerializer(t *testing.T) {
	ev := NewSessionScoredEvent(sampleReport(), true)

	data, err := SerializeEvent(ev)
	if err != nil {
		t.Fatalf("SerializeEvent: %v", err)
	}
	if !strings.Contains(string(data), `"type":"session_scored"`) {
		t.Errorf("payload missing type: %s", data)
	}

	got, err := DeserializeEvent(data)
	if err != nil {
		t.Fatalf("DeserializeEvent: %v", err)
	}
	if got.Report == nil || got.Report.Composite == nil || !got.Report.Composite.IsBot {
		t.Errorf("report not preserved: %+v", got.Report)
	}

	t.Run("invalid envelope", func(t *testing.T) {
		bad := *ev
		bad.EventID = ""
		if _, err := SerializeEvent(&bad); err == nil {
			t.Error("expected validation error for missing event_id")
		}
		if _, err := DeserializeEvent([]byte(`{"event_id":"x","type":"other","session_id":"s","report":{}}`)); err == nil {
			t.Error("expected validation error for unknown type")
		}
		if _, err := DeserializeEvent([]byte(`not json`)); err == nil {
			t.Error("expected unmarshal error")
		}
	})
}

func ptr(v float64) *float64 { return &v }

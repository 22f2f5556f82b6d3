// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/tomtom215/surveyguard/internal/models"
)

// EventTypeSessionScored identifies scored-session events.
const EventTypeSessionScored = "session_scored"

// SchemaVersion is the current event schema version.
const SchemaVersion = 1

// SessionScoredEvent is the envelope published for every scored session.
// The summary fields let consumers filter without decoding the full report.
type SessionScoredEvent struct {
	EventID   string                `json:"event_id"`
	Type      string                `json:"type"`
	Version   int                   `json:"version"`
	SessionID string                `json:"session_id"`
	Flagged   bool                  `json:"flagged"`
	Score     *float64              `json:"score,omitempty"`
	RiskLevel models.RiskLevel      `json:"risk_level,omitempty"`
	Report    *models.SessionReport `json:"report"`
	Timestamp time.Time             `json:"timestamp"`
}

// NewSessionScoredEvent wraps a report. The event ID is the report ID.
func NewSessionScoredEvent(report *models.SessionReport, flagged bool) *SessionScoredEvent {
	ev := &SessionScoredEvent{
		EventID:   report.ID,
		Type:      EventTypeSessionScored,
		Version:   SchemaVersion,
		SessionID: report.SessionID,
		Flagged:   flagged,
		Report:    report,
		Timestamp: report.CreatedAt,
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	switch {
	case report.Composite != nil:
		score := report.Composite.CompositeScore
		ev.Score = &score
		ev.RiskLevel = report.Composite.RiskLevel
	case report.Behavior != nil:
		score := report.Behavior.ConfidenceScore
		ev.Score = &score
		ev.RiskLevel = report.Behavior.RiskLevel
	case report.Fraud != nil:
		score := report.Fraud.OverallFraudScore
		ev.Score = &score
		ev.RiskLevel = report.Fraud.RiskLevel
	}
	return ev
}

// Validate checks required envelope fields.
func (e *SessionScoredEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if e.Type != EventTypeSessionScored {
		return fmt.Errorf("unexpected event type %q", e.Type)
	}
	if e.Report == nil {
		return fmt.Errorf("report is required")
	}
	return nil
}

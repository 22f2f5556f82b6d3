// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package models

import (
	"fmt"
	"time"
)

// RiskLevel is a four-tier classification derived from a numeric score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskThresholds holds the ascending lower bounds of the MEDIUM, HIGH and
// CRITICAL tiers. Scores below Medium are LOW.
type RiskThresholds struct {
	Medium   float64 `json:"medium" koanf:"medium"`
	High     float64 `json:"high" koanf:"high"`
	Critical float64 `json:"critical" koanf:"critical"`
}

// DefaultRiskThresholds returns the standard 0.4 / 0.6 / 0.8 tiers.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		Medium:   0.4,
		High:     0.6,
		Critical: 0.8,
	}
}

// Validate checks that the thresholds are ascending and within [0,1].
func (t RiskThresholds) Validate() error {
	if t.Medium < 0 || t.Critical > 1 {
		return fmt.Errorf("risk thresholds must be within [0,1]")
	}
	if t.Medium > t.High || t.High > t.Critical {
		return fmt.Errorf("risk thresholds must be ascending (medium <= high <= critical)")
	}
	return nil
}

// Classify maps a score to its risk tier.
func (t RiskThresholds) Classify(score float64) RiskLevel {
	switch {
	case score < t.Medium:
		return RiskLow
	case score < t.High:
		return RiskMedium
	case score < t.Critical:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// DetectionResult is the behavioral verdict for one session.
type DetectionResult struct {
	ID               string              `json:"id"`
	SessionID        string              `json:"session_id"`
	IsBot            bool                `json:"is_bot"`
	ConfidenceScore  float64             `json:"confidence_score"`
	RiskLevel        RiskLevel           `json:"risk_level"`
	MethodScores     map[string]float64  `json:"method_scores"`
	FlaggedPatterns  map[string][]string `json:"flagged_patterns"`
	Explanation      string              `json:"explanation"`
	EventCount       int                 `json:"event_count"`
	ProcessingTimeMs float64             `json:"processing_time_ms"`
	CreatedAt        time.Time           `json:"created_at"`
}

// FlagSeverity ranks a fraud flag reason.
type FlagSeverity string

const (
	SeverityMedium FlagSeverity = "medium"
	SeverityHigh   FlagSeverity = "high"
)

// FlagReason explains why one fraud component was flagged.
type FlagReason struct {
	Score    float64      `json:"score"`
	Severity FlagSeverity `json:"severity"`
	Message  string       `json:"message"`
}

// FraudIndicator is the fraud/duplicate-respondent verdict for one session.
type FraudIndicator struct {
	ID                    string                `json:"id"`
	SessionID             string                `json:"session_id"`
	IPRisk                float64               `json:"ip_risk"`
	FingerprintRisk       float64               `json:"fingerprint_risk"`
	DuplicateSimilarity   float64               `json:"duplicate_similarity"`
	GeolocationRisk       float64               `json:"geolocation_risk"`
	VelocityRisk          float64               `json:"velocity_risk"`
	OverallFraudScore     float64               `json:"overall_fraud_score"`
	IsDuplicate           bool                  `json:"is_duplicate"`
	RiskLevel             RiskLevel             `json:"risk_level"`
	FlagReasons           map[string]FlagReason `json:"flag_reasons"`
	Fingerprint           string                `json:"fingerprint,omitempty"`
	MaxSimilarity         float64               `json:"max_similarity"`
	DuplicateCount        int                   `json:"duplicate_count"`
	GeolocationConsistent bool                  `json:"geolocation_consistent"`
	Country               string                `json:"country,omitempty"`
	DegradedSignals       []string              `json:"degraded_signals,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
}

// PatternType classifies the geometric shape of grid answers.
// The empty value means "not classified" (fewer than three numeric points).
type PatternType string

const (
	PatternNone            PatternType = ""
	PatternDiagonal        PatternType = "diagonal"
	PatternReverseDiagonal PatternType = "reverse_diagonal"
	PatternZigzag          PatternType = "zigzag"
	PatternStraightLine    PatternType = "straight_line"
	PatternRandom          PatternType = "random"
)

// IsGeometric reports whether the pattern counts toward satisficing.
func (p PatternType) IsGeometric() bool {
	return p == PatternStraightLine || p == PatternDiagonal || p == PatternReverseDiagonal
}

// GridResponseAnalysis is the response-quality verdict for one grid question.
type GridResponseAnalysis struct {
	QuestionID             string      `json:"question_id"`
	ResponseCount          int         `json:"response_count"`
	IsStraightLined        bool        `json:"is_straight_lined"`
	StraightLineConfidence float64     `json:"straight_line_confidence"`
	PatternType            PatternType `json:"pattern_type,omitempty"`
	PatternConfidence      float64     `json:"pattern_confidence"`
	VarianceScore          float64     `json:"variance_score"`
	SatisficingScore       float64     `json:"satisficing_score"`
}

// AnomalyType names the direction of a timing anomaly.
type AnomalyType string

const (
	AnomalyNone      AnomalyType = ""
	AnomalySpeeder   AnomalyType = "speeder"
	AnomalyFlatliner AnomalyType = "flatliner"
)

// TimingAnalysis is the speeder/flatliner verdict for one question.
type TimingAnalysis struct {
	QuestionID     string      `json:"question_id"`
	ResponseTimeMs float64     `json:"response_time_ms"`
	IsSpeeder      bool        `json:"is_speeder"`
	IsFlatliner    bool        `json:"is_flatliner"`
	AnomalyScore   float64     `json:"anomaly_score"`
	AnomalyType    AnomalyType `json:"anomaly_type,omitempty"`
	ZScore         *float64    `json:"z_score,omitempty"`
}

// CompositeScore blends behavioral confidence with external text quality.
type CompositeScore struct {
	CompositeScore   float64   `json:"composite_score"`
	BehavioralScore  float64   `json:"behavioral_score"`
	TextQualityScore *float64  `json:"text_quality_score,omitempty"`
	UsedTextQuality  bool      `json:"used_text_quality"`
	RiskLevel        RiskLevel `json:"risk_level"`
	IsBot            bool      `json:"is_bot"`
}

// SessionReport bundles every verdict produced for one session.
type SessionReport struct {
	ID         string                 `json:"id"`
	SessionID  string                 `json:"session_id"`
	Behavior   *DetectionResult       `json:"behavior,omitempty"`
	Fraud      *FraudIndicator        `json:"fraud,omitempty"`
	Grid       []GridResponseAnalysis `json:"grid,omitempty"`
	Timing     []TimingAnalysis       `json:"timing,omitempty"`
	Composite  *CompositeScore        `json:"composite,omitempty"`
	Errors     map[string]string      `json:"errors,omitempty"`
	DurationMs float64                `json:"duration_ms"`
	CreatedAt  time.Time              `json:"created_at"`
}

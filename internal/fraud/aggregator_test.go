// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package fraud

import (
	"math"
	"testing"

	"github.com/tomtom215/surveyguard/internal/models"
)

func uniformFindings(risk float64) []Finding {
	findings := make([]Finding, 0, len(AllSignals))
	for _, s := range AllSignals {
		findings = append(findings, Finding{Signal: s, Risk: risk, Consistent: true})
	}
	return findings
}

func TestAggregator_WeightExtremes(t *testing.T) {
	agg := NewAggregator(DefaultAggregatorConfig())

	high := agg.Aggregate("sess-1", uniformFindings(1))
	if math.Abs(high.OverallFraudScore-1) > 1e-9 {
		t.Errorf("all ones: OverallFraudScore = %v, want 1.0", high.OverallFraudScore)
	}
	if !high.IsDuplicate {
		t.Error("all ones: expected IsDuplicate")
	}
	if high.RiskLevel != models.RiskCritical {
		t.Errorf("all ones: RiskLevel = %v, want CRITICAL", high.RiskLevel)
	}
	if len(high.FlagReasons) != 5 {
		t.Errorf("all ones: %d flag reasons, want 5", len(high.FlagReasons))
	}
	for signal, reason := range high.FlagReasons {
		if reason.Severity != models.SeverityHigh {
			t.Errorf("%s severity = %v, want high", signal, reason.Severity)
		}
	}

	low := agg.Aggregate("sess-1", uniformFindings(0))
	if low.OverallFraudScore != 0 {
		t.Errorf("all zeros: OverallFraudScore = %v, want 0.0", low.OverallFraudScore)
	}
	if low.IsDuplicate || len(low.FlagReasons) != 0 {
		t.Errorf("all zeros: IsDuplicate=%v reasons=%v", low.IsDuplicate, low.FlagReasons)
	}
}

func TestAggregator_Weights(t *testing.T) {
	tests := []struct {
		name      string
		signal    string
		wantScore float64
	}{
		{"ip alone", SignalIPReuse, 0.25},
		{"fingerprint alone", SignalFingerprintReuse, 0.25},
		{"duplicate alone", SignalDuplicate, 0.20},
		{"geolocation alone", SignalGeolocation, 0.15},
		{"velocity alone", SignalVelocity, 0.15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := uniformFindings(0)
			for i := range findings {
				if findings[i].Signal == tt.signal {
					findings[i].Risk = 1
				}
			}
			ind := NewAggregator(DefaultAggregatorConfig()).Aggregate("sess-1", findings)
			if math.Abs(ind.OverallFraudScore-tt.wantScore) > 1e-9 {
				t.Errorf("OverallFraudScore = %v, want %v", ind.OverallFraudScore, tt.wantScore)
			}
		})
	}
}

func TestAggregator_FlagSeverity(t *testing.T) {
	tests := []struct {
		name         string
		signal       string
		risk         float64
		wantFlag     bool
		wantSeverity models.FlagSeverity
	}{
		{"ip below threshold", SignalIPReuse, 0.59, false, ""},
		{"ip medium", SignalIPReuse, 0.6, true, models.SeverityMedium},
		{"ip high", SignalIPReuse, 0.8, true, models.SeverityHigh},
		{"fingerprint medium", SignalFingerprintReuse, 0.5, true, models.SeverityMedium},
		{"duplicate medium below high", SignalDuplicate, 0.89, true, models.SeverityMedium},
		{"duplicate high", SignalDuplicate, 0.9, true, models.SeverityHigh},
		{"geolocation mismatch", SignalGeolocation, 0.9, true, models.SeverityHigh},
		{"geolocation below", SignalGeolocation, 0.69, false, ""},
		{"velocity medium", SignalVelocity, 0.75, true, models.SeverityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := NewAggregator(DefaultAggregatorConfig()).Aggregate("sess-1", []Finding{{Signal: tt.signal, Risk: tt.risk}})
			reason, ok := ind.FlagReasons[tt.signal]
			if ok != tt.wantFlag {
				t.Fatalf("flagged = %v, want %v", ok, tt.wantFlag)
			}
			if ok && reason.Severity != tt.wantSeverity {
				t.Errorf("Severity = %v, want %v", reason.Severity, tt.wantSeverity)
			}
			if ok && reason.Message == "" {
				t.Error("flag reason should carry a message")
			}
		})
	}
}

func TestAggregator_Monotonic(t *testing.T) {
	agg := NewAggregator(DefaultAggregatorConfig())
	for _, signal := range AllSignals {
		prev := -1.0
		for risk := 0.0; risk <= 1.0; risk += 0.05 {
			findings := uniformFindings(0.3)
			for i := range findings {
				if findings[i].Signal == signal {
					findings[i].Risk = risk
				}
			}
			score := agg.Aggregate("sess-1", findings).OverallFraudScore
			if score < prev-1e-12 {
				t.Fatalf("%s: score decreased from %v to %v at risk %v", signal, prev, score, risk)
			}
			prev = score
		}
	}
}

func TestAggregator_DegradedAndDetails(t *testing.T) {
	findings := []Finding{
		{Signal: SignalIPReuse, Degraded: true, Consistent: true},
		{Signal: SignalFingerprintReuse, Risk: 0.5, Fingerprint: "abc"},
		{Signal: SignalDuplicate, Risk: 0.8, MaxSimilarity: 0.8, DuplicateCount: 2},
		{Signal: SignalGeolocation, Risk: 0.9, Consistent: false, Country: "DE", OtherCountries: []string{"BR"}},
		{Signal: SignalVelocity, Degraded: true},
	}
	ind := NewAggregator(DefaultAggregatorConfig()).Aggregate("sess-1", findings)

	if len(ind.DegradedSignals) != 2 || ind.DegradedSignals[0] != SignalIPReuse || ind.DegradedSignals[1] != SignalVelocity {
		t.Errorf("DegradedSignals = %v, want [ip_reuse velocity]", ind.DegradedSignals)
	}
	if ind.Fingerprint != "abc" || ind.DuplicateCount != 2 || ind.MaxSimilarity != 0.8 {
		t.Errorf("details not propagated: %+v", ind)
	}
	if ind.GeolocationConsistent || ind.Country != "DE" {
		t.Errorf("geolocation details = %v/%q", ind.GeolocationConsistent, ind.Country)
	}
	// 0.25*0.5 + 0.20*0.8 + 0.15*0.9
	if want := 0.125 + 0.16 + 0.135; math.Abs(ind.OverallFraudScore-want) > 1e-9 {
		t.Errorf("OverallFraudScore = %v, want %v", ind.OverallFraudScore, want)
	}
}

func TestAggregator_DisabledSignalsExcluded(t *testing.T) {
	findings := []Finding{
		{Signal: SignalIPReuse, Risk: 1},
		{Signal: SignalFingerprintReuse, Risk: 1},
	}
	ind := NewAggregator(DefaultAggregatorConfig()).Aggregate("sess-1", findings)
	if math.Abs(ind.OverallFraudScore-1) > 1e-9 {
		t.Errorf("OverallFraudScore = %v, want 1 over the enabled weights", ind.OverallFraudScore)
	}
	if !ind.GeolocationConsistent {
		t.Error("missing geolocation finding should leave the session consistent")
	}
}

func TestAggregator_Configure(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{"partial weights", `{"weights": {"velocity": 0.3}}`, false},
		{"all zero weights", `{"weights": {"ip_reuse": 0, "fingerprint_reuse": 0, "duplicate_response": 0, "geolocation": 0, "velocity": 0}}`, true},
		{"negative weight", `{"weights": {"ip_reuse": -0.1}}`, true},
		{"inverted flag threshold", `{"flag_thresholds": {"ip_reuse": {"flag": 0.9, "high": 0.5}}}`, true},
		{"duplicate threshold", `{"duplicate_threshold": 0.8}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAggregator(DefaultAggregatorConfig()).Configure([]byte(tt.config))
			if (err != nil) != tt.wantErr {
				t.Errorf("Configure() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package quality

import (
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/surveyguard/internal/models"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func values(vs ...interface{}) []interface{} {
	return vs
}

func TestGridDetector_Patterns(t *testing.T) {
	tests := []struct {
		name    string
		values  []interface{}
		pattern models.PatternType
	}{
		{"increasing", values(1, 2, 3, 4), models.PatternDiagonal},
		{"decreasing", values(4, 3, 2, 1), models.PatternReverseDiagonal},
		{"alternating", values(1, 3, 2, 4), models.PatternZigzag},
		{"identical", values(5, 5, 5, 5), models.PatternStraightLine},
		{"irregular", values(1, 1, 2, 5, 3), models.PatternRandom},
		{"too few points", values(1, 2), models.PatternNone},
		{"three alternating points are random", values(1, 3, 2), models.PatternRandom},
		{"ties break zigzag", values(1, 3, 3, 1), models.PatternRandom},
		{"numeric strings", values("1", "2", "3"), models.PatternDiagonal},
		{"non-numeric skipped", values(1, "n/a", 2, 3), models.PatternDiagonal},
	}

	d := NewGridDetector(DefaultGridConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Analyze(models.GridResponse{QuestionID: "q1", Values: tt.values})
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if got.PatternType != tt.pattern {
				t.Errorf("PatternType = %q, want %q", got.PatternType, tt.pattern)
			}
		})
	}
}

func TestGridDetector_StraightLining(t *testing.T) {
	tests := []struct {
		name       string
		values     []interface{}
		want       bool
		confidence float64
	}{
		{"all same", values(5, 5, 5, 5), true, 0.4},
		{"eighty percent", values(3, 3, 3, 3, 3, 3, 3, 3, 1, 5), true, 0.8},
		{"all distinct", values(1, 2, 3, 4), false, 0.1},
		{"mixed representations", values(5, "5", 5.0, " 5 "), true, 0.4},
		{"text answers", values("agree", "Agree", "agree", "agree", "disagree"), true, 0.4},
		{"nil values ignored", values(2, nil, 2, "", 2), true, 0.3},
	}

	d := NewGridDetector(DefaultGridConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Analyze(models.GridResponse{QuestionID: "q1", Values: tt.values})
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if got.IsStraightLined != tt.want {
				t.Errorf("IsStraightLined = %v, want %v", got.IsStraightLined, tt.want)
			}
			if !approx(got.StraightLineConfidence, tt.confidence) {
				t.Errorf("StraightLineConfidence = %v, want %v", got.StraightLineConfidence, tt.confidence)
			}
		})
	}
}

func TestGridDetector_Scores(t *testing.T) {
	d := NewGridDetector(DefaultGridConfig())

	t.Run("straight line without times", func(t *testing.T) {
		got, err := d.Analyze(models.GridResponse{QuestionID: "q1", Values: values(5, 5, 5, 5)})
		if err != nil {
			t.Fatal(err)
		}
		if got.VarianceScore != 0 {
			t.Errorf("VarianceScore = %v, want 0", got.VarianceScore)
		}
		if !approx(got.PatternConfidence, 0.4) {
			t.Errorf("PatternConfidence = %v, want 0.4", got.PatternConfidence)
		}
		// 0.4*(1-0) + 0 + 0.3*0.4
		if !approx(got.SatisficingScore, 0.52) {
			t.Errorf("SatisficingScore = %v, want 0.52", got.SatisficingScore)
		}
	})

	t.Run("straight line answered fast", func(t *testing.T) {
		got, err := d.Analyze(models.GridResponse{
			QuestionID:      "q1",
			Values:          values(5, 5, 5, 5),
			ResponseTimesMs: []float64{1000, 1000, 1000, 1000},
		})
		if err != nil {
			t.Fatal(err)
		}
		if !approx(got.SatisficingScore, 0.82) {
			t.Errorf("SatisficingScore = %v, want 0.82", got.SatisficingScore)
		}
	})

	t.Run("zigzag does not add pattern term", func(t *testing.T) {
		got, err := d.Analyze(models.GridResponse{
			QuestionID:      "q1",
			Values:          values(-1, 1, -1, 1),
			ResponseTimesMs: []float64{12000, 12000, 12000, 12000},
		})
		if err != nil {
			t.Fatal(err)
		}
		if got.PatternType != models.PatternZigzag {
			t.Fatalf("PatternType = %q, want zigzag", got.PatternType)
		}
		// zero mean: stdev 1 / 10
		if !approx(got.VarianceScore, 0.1) {
			t.Errorf("VarianceScore = %v, want 0.1", got.VarianceScore)
		}
		if !approx(got.SatisficingScore, 0.36) {
			t.Errorf("SatisficingScore = %v, want 0.36", got.SatisficingScore)
		}
	})

	t.Run("coefficient of variation", func(t *testing.T) {
		got, err := d.Analyze(models.GridResponse{QuestionID: "q1", Values: values(1, 2, 3, 4)})
		if err != nil {
			t.Fatal(err)
		}
		want := math.Sqrt(1.25) / 2.5
		if !approx(got.VarianceScore, want) {
			t.Errorf("VarianceScore = %v, want %v", got.VarianceScore, want)
		}
	})

	t.Run("variance capped at one", func(t *testing.T) {
		got, err := d.Analyze(models.GridResponse{QuestionID: "q1", Values: values(1, 100, 1, 100, 1)})
		if err != nil {
			t.Fatal(err)
		}
		if got.VarianceScore > 1 {
			t.Errorf("VarianceScore = %v, want <= 1", got.VarianceScore)
		}
	})

	t.Run("non-numeric only", func(t *testing.T) {
		got, err := d.Analyze(models.GridResponse{QuestionID: "q1", Values: values("yes", "yes", "no")})
		if err != nil {
			t.Fatal(err)
		}
		if got.PatternType != models.PatternNone || got.VarianceScore != 0 || got.SatisficingScore != 0 {
			t.Errorf("got %+v, want no numeric scores", got)
		}
		if got.ResponseCount != 3 {
			t.Errorf("ResponseCount = %d, want 3", got.ResponseCount)
		}
	})
}

func TestGridDetector_Empty(t *testing.T) {
	d := NewGridDetector(DefaultGridConfig())

	for _, vs := range [][]interface{}{nil, {}, {nil, ""}} {
		_, err := d.Analyze(models.GridResponse{QuestionID: "q1", Values: vs})
		if !errors.Is(err, ErrNoResponses) {
			t.Errorf("Analyze(%v) error = %v, want ErrNoResponses", vs, err)
		}
	}
}

func TestGridDetector_AnalyzeAll(t *testing.T) {
	d := NewGridDetector(DefaultGridConfig())

	results, err := d.AnalyzeAll([]models.GridResponse{
		{QuestionID: "q1", Values: values(1, 2, 3)},
		{QuestionID: "q2"},
		{QuestionID: "q3", Values: values(4, 4, 4)},
	})
	if err != nil {
		t.Fatalf("AnalyzeAll() error = %v", err)
	}
	if len(results) != 2 || results[0].QuestionID != "q1" || results[1].QuestionID != "q3" {
		t.Errorf("AnalyzeAll() = %+v, want q1 and q3", results)
	}

	if _, err := d.AnalyzeAll([]models.GridResponse{{QuestionID: "q1"}}); !errors.Is(err, ErrNoResponses) {
		t.Errorf("AnalyzeAll() error = %v, want ErrNoResponses", err)
	}
}

func TestGridDetector_Configure(t *testing.T) {
	d := NewGridDetector(DefaultGridConfig())

	if err := d.Configure([]byte(`{"straight_line_threshold": 0.5}`)); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if d.Config().StraightLineThreshold != 0.5 {
		t.Errorf("StraightLineThreshold = %v, want 0.5", d.Config().StraightLineThreshold)
	}
	if d.Config().SaturationCount != 10 {
		t.Errorf("unset fields should keep defaults, SaturationCount = %d", d.Config().SaturationCount)
	}

	got, err := d.Analyze(models.GridResponse{QuestionID: "q1", Values: values(1, 1, 2, 3)})
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsStraightLined {
		t.Error("expected straight-lining at 50% threshold")
	}

	invalid := []string{
		`{"straight_line_threshold": 0}`,
		`{"saturation_count": 0}`,
		`{"variance_weight": 0.8, "speed_weight": 0.8}`,
		`not json`,
	}
	for _, raw := range invalid {
		if err := d.Configure([]byte(raw)); err == nil {
			t.Errorf("Configure(%s) expected error", raw)
		}
	}
	if d.Config().StraightLineThreshold != 0.5 {
		t.Error("failed Configure must not change configuration")
	}
}

func TestNewGridDetector_InvalidConfigFallsBack(t *testing.T) {
	d := NewGridDetector(GridConfig{})
	if d.Config() != DefaultGridConfig() {
		t.Errorf("Config() = %+v, want defaults", d.Config())
	}
}

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package quality

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/tomtom215/surveyguard/internal/models"
)

func timings(ms ...float64) []models.QuestionTiming {
	out := make([]models.QuestionTiming, len(ms))
	for i, v := range ms {
		out[i] = models.QuestionTiming{QuestionID: fmt.Sprintf("q%d", i+1), ResponseTimeMs: v}
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestTimingDetector_FixedThresholds(t *testing.T) {
	d := NewTimingDetector(DefaultTimingConfig())

	results, err := d.Analyze(timings(500, 400000))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	speeder, flatliner := results[0], results[1]
	if !speeder.IsSpeeder || speeder.IsFlatliner || speeder.AnomalyType != models.AnomalySpeeder || speeder.AnomalyScore != 1 {
		t.Errorf("500ms: got %+v, want speeder with score 1", speeder)
	}
	if !flatliner.IsFlatliner || flatliner.IsSpeeder || flatliner.AnomalyType != models.AnomalyFlatliner || flatliner.AnomalyScore != 1 {
		t.Errorf("400000ms: got %+v, want flatliner with score 1", flatliner)
	}
	if speeder.ZScore != nil {
		t.Error("z-score requires at least three samples")
	}
}

func TestTimingDetector_Boundaries(t *testing.T) {
	d := NewTimingDetector(DefaultTimingConfig())

	tests := []struct {
		ms        float64
		speeder   bool
		flatliner bool
	}{
		{1999, true, false},
		{2000, false, false},
		{300000, false, false},
		{300001, false, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.0fms", tt.ms), func(t *testing.T) {
			results, err := d.Analyze(timings(tt.ms))
			if err != nil {
				t.Fatal(err)
			}
			if results[0].IsSpeeder != tt.speeder || results[0].IsFlatliner != tt.flatliner {
				t.Errorf("got speeder=%v flatliner=%v, want %v/%v",
					results[0].IsSpeeder, results[0].IsFlatliner, tt.speeder, tt.flatliner)
			}
		})
	}
}

func TestTimingDetector_Thresholds(t *testing.T) {
	d := NewTimingDetector(DefaultTimingConfig())

	tests := []struct {
		name      string
		times     []float64
		speeder   float64
		flatliner float64
		adaptive  bool
	}{
		{"too few samples", []float64{100, 200}, 0, 0, false},
		{"normal batch stays at fixed bounds", []float64{10000, 12000, 14000}, 2000, 300000, true},
		{"fast batch lowers speeder threshold", []float64{600, 700, 800, 900, 1000}, 800 - 2*math.Sqrt(20000), 300000, true},
		{"very fast batch clamps to floor", []float64{100, 200, 300}, 500, 300000, true},
		{"slow batch raises flatliner threshold", []float64{250000, 350000, 450000}, 2000, 350000 + 2*math.Sqrt(2e10/3), true},
		{"wide batch clamps both bounds", []float64{100000, 500000, 900000}, 500, 600000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Thresholds(tt.times)
			if got.SpeederMs != 2000 || got.FlatlinerMs != 300000 {
				t.Errorf("fixed cut-offs = %v/%v, want 2000/300000", got.SpeederMs, got.FlatlinerMs)
			}
			if !approx(got.AdaptiveSpeederMs, tt.speeder) {
				t.Errorf("AdaptiveSpeederMs = %v, want %v", got.AdaptiveSpeederMs, tt.speeder)
			}
			if !approx(got.AdaptiveFlatlinerMs, tt.flatliner) {
				t.Errorf("AdaptiveFlatlinerMs = %v, want %v", got.AdaptiveFlatlinerMs, tt.flatliner)
			}
			if got.Adaptive != tt.adaptive {
				t.Errorf("Adaptive = %v, want %v", got.Adaptive, tt.adaptive)
			}
		})
	}
}

func TestTimingDetector_FixedThresholdsHoldInLargeBatches(t *testing.T) {
	d := NewTimingDetector(DefaultTimingConfig())

	tests := []struct {
		name      string
		times     []float64
		speeder   []bool
		flatliner []bool
	}{
		{
			name:      "uniformly fast batch",
			times:     []float64{1500, 1600, 1700},
			speeder:   []bool{true, true, true},
			flatliner: []bool{false, false, false},
		},
		{
			name:      "fast answer at the adaptive floor",
			times:     []float64{500, 20000, 20000},
			speeder:   []bool{true, false, false},
			flatliner: []bool{false, false, false},
		},
		{
			name:      "uniformly slow batch",
			times:     []float64{310000, 320000, 330000},
			speeder:   []bool{false, false, false},
			flatliner: []bool{true, true, true},
		},
		{
			name:      "mixed batch",
			times:     []float64{1000, 30000, 45000, 400000},
			speeder:   []bool{true, false, false, false},
			flatliner: []bool{false, false, false, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := d.Analyze(timings(tt.times...))
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			for i, r := range results {
				if r.IsSpeeder != tt.speeder[i] || r.IsFlatliner != tt.flatliner[i] {
					t.Errorf("%s (%vms): speeder=%v flatliner=%v, want %v/%v",
						r.QuestionID, r.ResponseTimeMs, r.IsSpeeder, r.IsFlatliner, tt.speeder[i], tt.flatliner[i])
				}
				if r.IsSpeeder && r.AnomalyType != models.AnomalySpeeder {
					t.Errorf("%s: AnomalyType = %q, want speeder", r.QuestionID, r.AnomalyType)
				}
				if r.IsFlatliner && r.AnomalyType != models.AnomalyFlatliner {
					t.Errorf("%s: AnomalyType = %q, want flatliner", r.QuestionID, r.AnomalyType)
				}
			}
		})
	}
}

func TestTimingDetector_SkipsInvalidTimes(t *testing.T) {
	d := NewTimingDetector(DefaultTimingConfig())

	results, err := d.Analyze(timings(500, -1, math.NaN(), 20000, math.Inf(1)))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("len(results) = %d, want 5", len(results))
	}
	if !results[0].IsSpeeder {
		t.Error("q1 (500ms) should still be a speeder")
	}
	for _, i := range []int{1, 2, 4} {
		r := results[i]
		if r.IsSpeeder || r.IsFlatliner || r.AnomalyType != models.AnomalyNone || r.AnomalyScore != 0 || r.ZScore != nil {
			t.Errorf("%s: got %+v, want a neutral verdict", r.QuestionID, r)
		}
		if math.IsNaN(r.ResponseTimeMs) || math.IsInf(r.ResponseTimeMs, 0) {
			t.Errorf("%s: non-finite ResponseTimeMs %v must not be echoed", r.QuestionID, r.ResponseTimeMs)
		}
	}
	if results[3].IsSpeeder || results[3].IsFlatliner {
		t.Errorf("q4 (20000ms) flagged: %+v", results[3])
	}
	// Two valid samples are below the adaptive and z-score minimums.
	if results[0].ZScore != nil {
		t.Error("invalid entries must not count toward the z-score sample size")
	}
}

func TestTimingDetector_AdaptiveSpeeder(t *testing.T) {
	d := NewTimingDetector(DefaultTimingConfig())

	results, err := d.Analyze(timings(100, 200, 300))
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if !r.IsSpeeder {
			t.Errorf("%s (%vms) should be a speeder under the 500ms floor", r.QuestionID, r.ResponseTimeMs)
		}
	}
}

func TestTimingDetector_ZScore(t *testing.T) {
	d := NewTimingDetector(DefaultTimingConfig())

	t.Run("slow outlier", func(t *testing.T) {
		results, err := d.Analyze(timings(append(repeat(20000, 9), 100000)...))
		if err != nil {
			t.Fatal(err)
		}
		outlier := results[9]
		if outlier.IsFlatliner {
			t.Fatal("outlier is below the flatliner threshold")
		}
		if outlier.ZScore == nil || !approx(*outlier.ZScore, 3) {
			t.Fatalf("ZScore = %v, want 3", outlier.ZScore)
		}
		if outlier.AnomalyType != models.AnomalyFlatliner || !approx(outlier.AnomalyScore, 0.6) {
			t.Errorf("got type=%q score=%v, want flatliner 0.6", outlier.AnomalyType, outlier.AnomalyScore)
		}
		if results[0].AnomalyType != models.AnomalyNone || results[0].AnomalyScore != 0 {
			t.Errorf("typical answer flagged: %+v", results[0])
		}
	})

	t.Run("fast outlier", func(t *testing.T) {
		results, err := d.Analyze(timings(append(repeat(60000, 9), 6000)...))
		if err != nil {
			t.Fatal(err)
		}
		outlier := results[9]
		if outlier.IsSpeeder {
			t.Fatal("outlier is above the speeder threshold")
		}
		if outlier.ZScore == nil || !approx(*outlier.ZScore, -3) {
			t.Fatalf("ZScore = %v, want -3", outlier.ZScore)
		}
		if outlier.AnomalyType != models.AnomalySpeeder || !approx(outlier.AnomalyScore, 0.6) {
			t.Errorf("got type=%q score=%v, want speeder 0.6", outlier.AnomalyType, outlier.AnomalyScore)
		}
	})

	t.Run("zero deviation", func(t *testing.T) {
		results, err := d.Analyze(timings(30000, 30000, 30000))
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range results {
			if r.ZScore != nil {
				t.Errorf("%s: ZScore set with zero deviation", r.QuestionID)
			}
		}
	})
}

func TestTimingDetector_Errors(t *testing.T) {
	d := NewTimingDetector(DefaultTimingConfig())

	if _, err := d.Analyze(nil); !errors.Is(err, ErrNoResponses) {
		t.Errorf("Analyze(nil) error = %v, want ErrNoResponses", err)
	}
	results, err := d.Analyze(timings(-5))
	if err != nil {
		t.Fatalf("Analyze(-5) error = %v, want neutral verdict", err)
	}
	if results[0].AnomalyType != models.AnomalyNone {
		t.Errorf("negative time flagged: %+v", results[0])
	}
}

func TestTimingDetector_Configure(t *testing.T) {
	d := NewTimingDetector(DefaultTimingConfig())

	if err := d.Configure([]byte(`{"speeder_ms": 3000}`)); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	results, err := d.Analyze(timings(2500))
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].IsSpeeder {
		t.Error("2500ms should be a speeder after raising the threshold")
	}

	for _, raw := range []string{
		`{"speeder_ms": 0}`,
		`{"flatliner_ms": 1000}`,
		`{"adaptive_flatliner_ceiling_ms": 1}`,
		`{"zscore_scale": 0}`,
	} {
		if err := d.Configure([]byte(raw)); err == nil {
			t.Errorf("Configure(%s) expected error", raw)
		}
	}
	if d.Config().SpeederMs != 3000 {
		t.Error("failed Configure must not change configuration")
	}
}

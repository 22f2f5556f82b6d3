// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package behavior

import (
	"time"

	"github.com/tomtom215/surveyguard/internal/models"
)

var testBase = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }

// eventsAt builds events of one type at the given millisecond offsets.
func eventsAt(t models.EventType, offsetsMs ...int) []models.InteractionEvent {
	events := make([]models.InteractionEvent, len(offsetsMs))
	for i, off := range offsetsMs {
		events[i] = models.InteractionEvent{
			Type:      t,
			Timestamp: testBase.Add(time.Duration(off) * time.Millisecond),
			SessionID: "sess-1",
		}
	}
	return events
}

// evenlySpaced builds n events of one type spaced stepMs apart.
func evenlySpaced(t models.EventType, n, stepMs int) []models.InteractionEvent {
	offsets := make([]int, n)
	for i := range offsets {
		offsets[i] = i * stepMs
	}
	return eventsAt(t, offsets...)
}

func containsFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package behavior

import (
	"testing"
	"time"

	"github.com/tomtom215/surveyguard/internal/models"
)

func TestNormalize(t *testing.T) {
	events := []models.InteractionEvent{
		{Type: models.EventTypeMouse, Timestamp: testBase.Add(300 * time.Millisecond), ElementID: "m2"},
		{Type: models.EventTypeKeystroke, Timestamp: testBase.Add(100 * time.Millisecond), Key: "a"},
		{Type: "touch", Timestamp: testBase.Add(50 * time.Millisecond)},
		{Type: models.EventTypeMouse, Timestamp: testBase.Add(200 * time.Millisecond), ElementID: "m1"},
		{Type: models.EventTypeKeystroke, Timestamp: testBase.Add(100 * time.Millisecond), Key: "b"},
	}

	n := Normalize(events)

	if n.Len() != 5 {
		t.Errorf("Len() = %d, want 5", n.Len())
	}
	if n.UnknownCount != 1 {
		t.Errorf("UnknownCount = %d, want 1", n.UnknownCount)
	}

	mouse := n.Of(models.EventTypeMouse)
	if len(mouse) != 2 || mouse[0].ElementID != "m1" || mouse[1].ElementID != "m2" {
		t.Errorf("mouse events not sorted by timestamp: %+v", mouse)
	}

	// Equal timestamps keep input order.
	keys := n.Of(models.EventTypeKeystroke)
	if len(keys) != 2 || keys[0].Key != "a" || keys[1].Key != "b" {
		t.Errorf("keystroke tie order = %+v, want a then b", keys)
	}

	if got := n.Duration(); got != 250*time.Millisecond {
		t.Errorf("Duration() = %v, want 250ms", got)
	}

	// Input must not be reordered.
	if events[0].ElementID != "m2" {
		t.Error("Normalize modified its input slice")
	}
}

func TestNormalize_Empty(t *testing.T) {
	n := Normalize(nil)
	if n.Len() != 0 {
		t.Errorf("Len() = %d, want 0", n.Len())
	}
	if got := n.Of(models.EventTypeClick); len(got) != 0 {
		t.Errorf("Of(click) = %v, want empty", got)
	}
	if n.Duration() != 0 {
		t.Errorf("Duration() = %v, want 0", n.Duration())
	}

	var nilEvents *NormalizedEvents
	if nilEvents.Len() != 0 {
		t.Error("nil NormalizedEvents should have length 0")
	}
}

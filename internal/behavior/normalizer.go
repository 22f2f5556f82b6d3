// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package behavior

import (
	"sort"
	"time"

	"github.com/tomtom215/surveyguard/internal/models"
)

// NormalizedEvents is a session's event batch grouped by type.
// Every slice is ordered by timestamp; ties keep their input order.
type NormalizedEvents struct {
	// All holds every event, including unknown types.
	All []models.InteractionEvent

	// ByType groups known event types.
	ByType map[models.EventType][]models.InteractionEvent

	// UnknownCount is the number of events with an unrecognized type.
	UnknownCount int
}

// Normalize groups a raw event batch by type. The input slice is not modified.
func Normalize(events []models.InteractionEvent) *NormalizedEvents {
	sorted := make([]models.InteractionEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	known := make(map[models.EventType]bool, len(models.KnownEventTypes))
	for _, t := range models.KnownEventTypes {
		known[t] = true
	}

	n := &NormalizedEvents{
		All:    sorted,
		ByType: make(map[models.EventType][]models.InteractionEvent, len(models.KnownEventTypes)),
	}
	for _, e := range sorted {
		if !known[e.Type] {
			n.UnknownCount++
			continue
		}
		n.ByType[e.Type] = append(n.ByType[e.Type], e)
	}
	return n
}

// Len returns the total number of events.
func (n *NormalizedEvents) Len() int {
	if n == nil {
		return 0
	}
	return len(n.All)
}

// Of returns the events of one type.
func (n *NormalizedEvents) Of(t models.EventType) []models.InteractionEvent {
	if n == nil {
		return nil
	}
	return n.ByType[t]
}

// Duration returns the span between the first and last event.
func (n *NormalizedEvents) Duration() time.Duration {
	if n.Len() < 2 {
		return 0
	}
	return n.All[len(n.All)-1].Timestamp.Sub(n.All[0].Timestamp)
}

// timestampsMs converts event timestamps to milliseconds relative to the first event.
func timestampsMs(events []models.InteractionEvent) []float64 {
	if len(events) == 0 {
		return nil
	}
	base := events[0].Timestamp
	out := make([]float64, len(events))
	for i, e := range events {
		out[i] = float64(e.Timestamp.Sub(base)) / float64(time.Millisecond)
	}
	return out
}

// flagSet accumulates flags while keeping distinct names in first-seen order.
type flagSet struct {
	names []string
	seen  map[string]bool
	count float64
}

func newFlagSet() *flagSet {
	return &flagSet{seen: make(map[string]bool)}
}

// add records a flag with the given weight.
func (f *flagSet) add(name string, weight float64) {
	f.count += weight
	if !f.seen[name] {
		f.seen[name] = true
		f.names = append(f.names, name)
	}
}

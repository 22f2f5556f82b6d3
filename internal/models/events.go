// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package models

import (
	"fmt"
	"time"
)

// EventType identifies the kind of interaction event.
type EventType string

const (
	EventTypeKeystroke EventType = "keystroke"
	EventTypeMouse     EventType = "mouse"
	EventTypeScroll    EventType = "scroll"
	EventTypeFocus     EventType = "focus"
	EventTypeClick     EventType = "click"
)

// KnownEventTypes lists the event types the normalizer groups.
var KnownEventTypes = []EventType{
	EventTypeKeystroke,
	EventTypeMouse,
	EventTypeScroll,
	EventTypeFocus,
	EventTypeClick,
}

// MovementTypeLinear is the movement_type tag emitted by collectors for
// perfectly straight pointer paths.
const MovementTypeLinear = "linear"

// InteractionEvent is a single telemetry event captured in the respondent's browser.
// Optional fields use pointers so that "not reported" differs from zero.
type InteractionEvent struct {
	Type      EventType `json:"type" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	SessionID string    `json:"session_id"`

	// Pointer position (mouse, click, scroll)
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// Keystroke key (collectors usually mask the actual character)
	Key string `json:"key,omitempty"`

	// Scroll deltas
	ScrollDeltaX *float64 `json:"scroll_delta_x,omitempty"`
	ScrollDeltaY *float64 `json:"scroll_delta_y,omitempty"`

	// ElementID references the DOM element the event targeted.
	ElementID string `json:"element_id,omitempty"`

	// Screen and viewport dimensions at the time of the event
	ScreenWidth    int `json:"screen_width,omitempty" validate:"gte=0"`
	ScreenHeight   int `json:"screen_height,omitempty" validate:"gte=0"`
	ViewportWidth  int `json:"viewport_width,omitempty" validate:"gte=0"`
	ViewportHeight int `json:"viewport_height,omitempty" validate:"gte=0"`

	// Collector-side mouse movement features
	MovementType string   `json:"movement_type,omitempty"`
	Speed        *float64 `json:"speed,omitempty"`     // px/s
	Precision    *float64 `json:"precision,omitempty"` // 0-1
	Distance     *float64 `json:"distance,omitempty"`  // px since previous mouse event
}

// HasScreen reports whether the event carries screen dimensions.
func (e *InteractionEvent) HasScreen() bool {
	return e.ScreenWidth > 0 && e.ScreenHeight > 0
}

// HasViewport reports whether the event carries viewport dimensions.
func (e *InteractionEvent) HasViewport() bool {
	return e.ViewportWidth > 0 && e.ViewportHeight > 0
}

// HasPosition reports whether the event carries pointer coordinates.
func (e *InteractionEvent) HasPosition() bool {
	return e.X != nil && e.Y != nil
}

// ScreenSize returns the screen size as "WxH", or empty string if unknown.
func (e *InteractionEvent) ScreenSize() string {
	if !e.HasScreen() {
		return ""
	}
	return fmt.Sprintf("%dx%d", e.ScreenWidth, e.ScreenHeight)
}

// ViewportSize returns the viewport size as "WxH", or empty string if unknown.
func (e *InteractionEvent) ViewportSize() string {
	if !e.HasViewport() {
		return ""
	}
	return fmt.Sprintf("%dx%d", e.ViewportWidth, e.ViewportHeight)
}

// SessionContext carries the identity and survey facts fraud analyzers need.
// Historical aggregates are not part of it; analyzers read those through
// a history store.
type SessionContext struct {
	SessionID    string    `json:"session_id" validate:"required"`
	SurveyID     string    `json:"survey_id" validate:"required"`
	RespondentID string    `json:"respondent_id,omitempty"`
	IPAddress    string    `json:"ip_address" validate:"omitempty,ip"`
	StartedAt    time.Time `json:"started_at"`

	// Device attributes used for fingerprint derivation
	UserAgent      string `json:"user_agent,omitempty"`
	ScreenSize     string `json:"screen_size,omitempty"`
	ViewportSize   string `json:"viewport_size,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
	Language       string `json:"language,omitempty"`
	Platform       string `json:"platform,omitempty"`
	ColorDepth     int    `json:"color_depth,omitempty"`
	HardwareConcur int    `json:"hardware_concurrency,omitempty"`

	// Fingerprint may be supplied by the caller; when empty it is derived.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Responses holds the session's free-text answers.
	Responses []string `json:"responses,omitempty"`
}

// GridResponse is the set of answers to one grid/matrix question.
// Values are raw answers; non-numeric values are skipped by numeric computations.
type GridResponse struct {
	QuestionID      string        `json:"question_id" validate:"required"`
	Values          []interface{} `json:"values"`
	ResponseTimesMs []float64     `json:"response_times_ms,omitempty"`
}

// QuestionTiming is the time a respondent spent on one question.
type QuestionTiming struct {
	QuestionID     string  `json:"question_id" validate:"required"`
	ResponseTimeMs float64 `json:"response_time_ms" validate:"finite,gte=0"`
}

// QualityInput is one externally computed text-quality score.
type QualityInput struct {
	ResponseID string   `json:"response_id,omitempty"`
	Score      float64  `json:"score" validate:"finite,gte=0,lte=100"`
	Flags      []string `json:"flags,omitempty"`
}

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package eventprocessor

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer encodes session-scored events as JSON message payloads.
type Serializer struct{}

func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal rejects events that fail Validate.
func (s *Serializer) Marshal(event *SessionScoredEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return data, nil
}

// Unmarshal decodes a payload and validates the result.
func (s *Serializer) Unmarshal(data []byte) (*SessionScoredEvent, error) {
	var event SessionScoredEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	return &event, nil
}

// SerializeEvent marshals with a zero Serializer.
func SerializeEvent(event *SessionScoredEvent) ([]byte, error) {
	return NewSerializer().Marshal(event)
}

// DeserializeEvent unmarshals with a zero Serializer.
func DeserializeEvent(data []byte) (*SessionScoredEvent, error) {
	return NewSerializer().Unmarshal(data)
}

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package eventprocessor

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/surveyguard/internal/config"
)

func TestDefaultPublisherConfig(t *testing.T) {
	cfg := DefaultPublisherConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Transport", cfg.Transport, TransportMemory},
		{"Topic", cfg.Topic, "scoring.session_scored"},
		{"MaxReconnects", cfg.MaxReconnects, -1},
		{"ReconnectWait", cfg.ReconnectWait, 2 * time.Second},
		{"EnableTrackMsgID", cfg.EnableTrackMsgID, true},
		{"StreamName", cfg.Stream.Name, "SURVEYGUARD_SCORES"},
		{"BreakerName", cfg.Breaker.Name, "event-publisher"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultPublisherConfig().%s = %v, expected %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestFromEventsConfig(t *testing.T) {
	t.Run("nil keeps defaults", func(t *testing.T) {
		if got := FromEventsConfig(nil); got.Transport != TransportMemory {
			t.Errorf("Transport = %q, want memory", got.Transport)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		got := FromEventsConfig(&config.EventsConfig{
			Transport:       TransportNATS,
			Topic:           "scoring.custom",
			NATSURL:         "nats://broker:4222",
			StoreDir:        "/tmp/nats",
			MaxReconnects:   10,
			ReconnectWait:   time.Second,
			ReconnectBuffer: 1024,
			TrackMsgID:      false,
		})
		if got.Transport != TransportNATS || got.Topic != "scoring.custom" || got.URL != "nats://broker:4222" {
			t.Errorf("unexpected transport settings: %+v", got)
		}
		if got.MaxReconnects != 10 || got.ReconnectWait != time.Second || got.ReconnectBuffer != 1024 {
			t.Errorf("unexpected reconnect settings: %+v", got)
		}
		if got.StoreDir != "/tmp/nats" || got.EnableTrackMsgID {
			t.Errorf("unexpected store/dedupe settings: %+v", got)
		}
	})
}

func TestPublisherConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*PublisherConfig)
		wantErr bool
	}{
		{"memory default", func(*PublisherConfig) {}, false},
		{"missing topic", func(c *PublisherConfig) { c.Topic = "" }, true},
		{"nats with url", func(c *PublisherConfig) { c.Transport = TransportNATS }, false},
		{"nats without url", func(c *PublisherConfig) { c.Transport = TransportNATS; c.URL = "" }, true},
		{"embedded without store", func(c *PublisherConfig) { c.Transport = TransportEmbedded }, true},
		{"embedded with store", func(c *PublisherConfig) { c.Transport = TransportEmbedded; c.StoreDir = "/tmp/js" }, false},
		{"unknown transport", func(c *PublisherConfig) { c.Transport = "kafka" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPublisherConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestSubjectCovers(t *testing.T) {
	tests := []struct {
		pattern, subject string
		want             bool
	}{
		{"scoring.>", "scoring.session_scored", true},
		{"scoring.>", "scoring", false},
		{"scoring.*", "scoring.session_scored", true},
		{"scoring.*", "scoring.a.b", false},
		{"scoring.session_scored", "scoring.session_scored", true},
		{"audit.>", "scoring.session_scored", false},
	}

	for _, tt := range tests {
		if got := subjectCovers(tt.pattern, tt.subject); got != tt.want {
			t.Errorf("subjectCovers(%q, %q) = %v, want %v", tt.pattern, tt.subject, got, tt.want)
		}
	}

	if got := withSubject([]string{"scoring.>"}, "fraud.flagged"); len(got) != 2 || got[1] != "fraud.flagged" {
		t.Errorf("withSubject appended %v", got)
	}
	if got := withSubject([]string{"scoring.>"}, "scoring.x"); len(got) != 1 {
		t.Errorf("withSubject should keep covered subjects, got %v", got)
	}
}

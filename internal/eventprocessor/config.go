// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/tomtom215/surveyguard/internal/config"
)

// Transport names.
const (
	TransportMemory   = "memory"
	TransportNATS     = "nats"
	TransportEmbedded = "embedded"
)

// DefaultTopic is the topic scored-session reports are published on.
const DefaultTopic = "scoring.session_scored"

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	Transport        string
	Topic            string
	URL              string
	StoreDir         string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
	OutputBuffer     int64
	Breaker          CircuitBreakerConfig
	Stream           StreamConfig
}

// DefaultPublisherConfig returns production defaults for the memory transport.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		Transport:        TransportMemory,
		Topic:            DefaultTopic,
		URL:              "nats://127.0.0.1:4222",
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
		OutputBuffer:     256,
		Breaker:          DefaultCircuitBreakerConfig("event-publisher"),
		Stream:           DefaultStreamConfig(),
	}
}

// FromEventsConfig maps the application events section onto a publisher config.
func FromEventsConfig(cfg *config.EventsConfig) PublisherConfig {
	pc := DefaultPublisherConfig()
	if cfg == nil {
		return pc
	}
	if cfg.Transport != "" {
		pc.Transport = cfg.Transport
	}
	if cfg.Topic != "" {
		pc.Topic = cfg.Topic
	}
	if cfg.NATSURL != "" {
		pc.URL = cfg.NATSURL
	}
	pc.StoreDir = cfg.StoreDir
	if cfg.MaxReconnects != 0 {
		pc.MaxReconnects = cfg.MaxReconnects
	}
	if cfg.ReconnectWait > 0 {
		pc.ReconnectWait = cfg.ReconnectWait
	}
	if cfg.ReconnectBuffer > 0 {
		pc.ReconnectBuffer = cfg.ReconnectBuffer
	}
	pc.EnableTrackMsgID = cfg.TrackMsgID
	return pc
}

// Validate checks the configuration for the selected transport.
func (c PublisherConfig) Validate() error {
	if c.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}
	switch c.Transport {
	case TransportMemory:
	case TransportNATS:
		if c.URL == "" {
			return fmt.Errorf("%w: NATS URL is required", ErrInvalidConfig)
		}
	case TransportEmbedded:
		if c.StoreDir == "" {
			return fmt.Errorf("%w: store directory is required for the embedded server", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	}
	return nil
}

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns defaults for the embedded NATS server.
// Port -1 picks a free port.
func DefaultServerConfig(storeDir string) ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              -1,
		StoreDir:          storeDir,
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 1 << 30,   // 1GB
	}
}

// StreamConfig defines the scored-session stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns the scored-session stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "SURVEYGUARD_SCORES",
		Subjects:        []string{"scoring.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        1 << 30, // 1GB
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

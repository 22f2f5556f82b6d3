// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/surveyguard/internal/history"
	"github.com/tomtom215/surveyguard/internal/scoring"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name string
	// Critical checks gate /health/ready.
	Critical bool
	Check    func(ctx context.Context) error
}

// Handler holds the dependencies of every endpoint.
type Handler struct {
	engine       *scoring.Engine
	geo          history.GeoWriter
	stream       http.Handler
	checks       []HealthCheck
	checkTimeout time.Duration
	version      string
	startTime    time.Time
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithHealthCheck adds a dependency probe to the health endpoints.
func WithHealthCheck(name string, critical bool, check func(ctx context.Context) error) HandlerOption {
	return func(h *Handler) {
		h.checks = append(h.checks, HealthCheck{Name: name, Critical: critical, Check: check})
	}
}

// WithGeoWriter enables PUT /geolocations/{ip}.
func WithGeoWriter(w history.GeoWriter) HandlerOption {
	return func(h *Handler) { h.geo = w }
}

// WithVerdictStream mounts stream at GET /api/v1/stream.
func WithVerdictStream(stream http.Handler) HandlerOption {
	return func(h *Handler) { h.stream = stream }
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) HandlerOption {
	return func(h *Handler) { h.version = version }
}

// WithCheckTimeout bounds each health probe (default 2s).
func WithCheckTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) { h.checkTimeout = d }
}

// NewHandler creates the API handler for engine.
func NewHandler(engine *scoring.Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:       engine,
		checkTimeout: 2 * time.Second,
		version:      "dev",
		startTime:    time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/metrics"
)

// CheckResult is the outcome of one health probe.
type CheckResult struct {
	Healthy   bool    `json:"healthy"`
	Critical  bool    `json:"critical"`
	Error     string  `json:"error,omitempty"`
	LatencyMs float64 `json:"latency_ms"`
}

// HealthStatus is returned by GET /health and /health/ready.
type HealthStatus struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Checks        map[string]CheckResult `json:"checks"`
}

// Health reports every dependency. It always answers 200; the status field
// is "degraded" when any probe fails.
//
// GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, _ := h.runChecks(r.Context())
	NewResponseWriter(w, r).Success(status)
}

// HealthLive reports that the process is serving requests.
//
// GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 503 while any critical dependency is down.
//
// GET /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status, ready := h.runChecks(r.Context())
	rw := NewResponseWriter(w, r)
	if !ready {
		status.Status = "not_ready"
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "A critical dependency is unavailable", status)
		return
	}
	status.Status = "ready"
	rw.Success(status)
}

// runChecks probes every dependency concurrently and reports whether all
// critical probes passed.
func (h *Handler) runChecks(ctx context.Context) (*HealthStatus, bool) {
	results := make(map[string]CheckResult, len(h.checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, h.checkTimeout)
			defer cancel()

			start := time.Now()
			err := c.Check(cctx)
			res := CheckResult{
				Healthy:   err == nil,
				Critical:  c.Critical,
				LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
			}
			if err != nil {
				res.Error = err.Error()
				logging.CtxWarn(ctx).Err(err).Str("check", c.Name).Msg("Health check failed")
			}

			mu.Lock()
			results[c.Name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	uptime := time.Since(h.startTime).Seconds()
	metrics.AppUptime.Set(uptime)

	status := &HealthStatus{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: uptime,
		Checks:        results,
	}
	ready := true
	for _, res := range results {
		if res.Healthy {
			continue
		}
		status.Status = "degraded"
		if res.Critical {
			ready = false
		}
	}
	return status, ready
}

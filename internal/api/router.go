// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/surveyguard/internal/middleware"
)

// Router wires handlers and middleware into a chi.Mux.
type Router struct {
	handler        *Handler
	chiMiddleware  *ChiMiddleware
	maxBodyBytes   int64
	requestTimeout time.Duration
}

// NewRouter creates a router. maxBodyBytes <= 0 disables the body cap and
// requestTimeout <= 0 disables the per-request deadline.
func NewRouter(handler *Handler, mw *ChiMiddleware, maxBodyBytes int64, requestTimeout time.Duration) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:        handler,
		chiMiddleware:  mw,
		maxBodyBytes:   maxBodyBytes,
		requestTimeout: requestTimeout,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Scoring Endpoints
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("api"))
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(MaxBodySize(router.maxBodyBytes))
		if router.requestTimeout > 0 {
			r.Use(chimiddleware.Timeout(router.requestTimeout))
		}

		r.Route("/api/v1/sessions/{id}", func(r chi.Router) {
			r.Post("/behavior", router.handler.AnalyzeBehavior)
			r.Post("/fraud", router.handler.AnalyzeFraud)
			r.Post("/score", router.handler.ScoreSession)
		})
		r.Post("/api/v1/quality/grid", router.handler.AnalyzeGrid)
		r.Post("/api/v1/quality/timing", router.handler.AnalyzeTiming)
		r.Post("/api/v1/composite", router.handler.CalculateComposite)
		r.Put("/api/v1/geolocations/{ip}", router.handler.SetGeolocation)
		r.Get("/api/v1/stats", router.handler.Stats)
	})

	// ========================
	// Live Verdict Stream
	// ========================
	// Long-lived upgrade: no body cap, deadline or response-writer wrapping.
	if router.handler.stream != nil {
		r.With(router.chiMiddleware.RateLimit("stream")).Get("/api/v1/stream", router.handler.stream.ServeHTTP)
	}

	// ========================
	// Runtime Configuration
	// ========================
	r.Route("/api/v1/config", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(MaxBodySize(router.maxBodyBytes))

		r.Get("/", router.handler.GetConfig)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitConfigWrite())
			r.Put("/behavior/aggregator", router.handler.ConfigureBehaviorAggregator)
			r.Put("/behavior/analyzers/{method}", router.handler.ConfigureBehaviorAnalyzer)
			r.Put("/behavior/analyzers/{method}/enabled", router.handler.SetBehaviorAnalyzerEnabled)
			r.Put("/fraud/aggregator", router.handler.ConfigureFraudAggregator)
			r.Put("/fraud/analyzers/{signal}", router.handler.ConfigureFraudAnalyzer)
			r.Put("/fraud/analyzers/{signal}/enabled", router.handler.SetFraudAnalyzerEnabled)
			r.Put("/quality/grid", router.handler.ConfigureGrid)
			r.Put("/quality/timing", router.handler.ConfigureTiming)
			r.Put("/composite", router.handler.ConfigureComposite)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

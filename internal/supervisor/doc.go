// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package supervisor runs the long-lived SurveyGuard services under a suture v4
supervisor tree.

# Tree Layout

	surveyguard (root)
	├── data-layer       cache janitor
	├── messaging-layer  result publisher, WebSocket hub, verdict feed
	└── api-layer        HTTP server

Each layer is its own supervisor, so a publisher that keeps failing backs off
without taking the HTTP server down with it. Services that return an error are
restarted with suture's failure threshold, decay and backoff.

# Logging

Supervisor events (service failures, restarts, backoff) are routed through
sutureslog into the zerolog-backed slog handler from internal/logging:

	logger := logging.NewSlogLogger("supervisor")
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())

# Usage

	tree.AddDataService(services.NewCacheJanitorService(cached, cfg.Cache.JanitorInterval))
	tree.AddMessagingService(services.NewPublisherService(publisher, 30*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh

See the services subpackage for the service wrappers.
*/
package supervisor

// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/surveyguard/internal/api"
	"github.com/tomtom215/surveyguard/internal/config"
	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/supervisor"
	"github.com/tomtom215/surveyguard/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("redis_enabled", cfg.Redis.Enabled).
		Bool("events_enabled", cfg.Events.Enabled).
		Msg("Starting SurveyGuard with supervisor tree")

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildComponents(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer app.close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		app.close()
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	router := api.NewRouter(app.handler,
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
		cfg.Security.MaxBodyBytes,
		cfg.Server.Timeout)

	// The write deadline leaves room to send a timeout envelope after the
	// handler deadline fires.
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	tree.AddDataService(services.NewCacheJanitorService(app.cached, cfg.Cache.JanitorInterval))
	if app.publisher != nil {
		tree.AddMessagingService(services.NewPublisherService(app.publisher, 30*time.Second))
		logging.Info().Str("transport", app.publisher.Transport()).Msg("Result publisher added to supervisor tree")
	}
	if app.hub != nil {
		tree.AddMessagingService(app.hub)
		tree.AddMessagingService(app.feed)
		logging.Info().Msg("Live verdict stream added to supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("SurveyGuard stopped")
}

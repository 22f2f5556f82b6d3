// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/surveyguard/internal/api"
	"github.com/tomtom215/surveyguard/internal/config"
	"github.com/tomtom215/surveyguard/internal/database"
	"github.com/tomtom215/surveyguard/internal/eventprocessor"
	"github.com/tomtom215/surveyguard/internal/history"
	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/scoring"
	"github.com/tomtom215/surveyguard/internal/websocket"
)

// components holds everything main wires together.
type components struct {
	db        *database.DB
	redis     *history.RedisCounter
	cached    *history.CachedStore
	store     *history.GuardedStore
	engine    *scoring.Engine
	publisher *eventprocessor.Publisher
	hub       *websocket.Hub
	feed      *websocket.Feed
	handler   *api.Handler
}

// buildComponents constructs the application graph from cfg. On error every
// resource opened so far is closed.
func buildComponents(ctx context.Context, cfg *config.Config) (c *components, err error) {
	c = &components{}
	defer func() {
		if err != nil {
			c.close()
			c = nil
		}
	}()

	c.db, err = database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	if cfg.Redis.Enabled {
		c.redis, err = history.NewRedisCounter(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("initialize redis: %w", err)
		}
	}

	split := history.NewSplitStore(c.db, c.redis)
	c.cached = history.NewCachedStore(split, cfg.Cache.CountryCapacity, cfg.Cache.CountryTTL)
	c.store = history.NewGuardedStore(c.cached, cfg.Store)

	opts := []scoring.Option{}
	if cfg.Scoring.RecordHistory {
		opts = append(opts, scoring.WithRecorder(c.store))
	}

	if cfg.Events.Enabled {
		c.publisher, err = eventprocessor.NewPublisher(ctx,
			eventprocessor.FromEventsConfig(&cfg.Events),
			eventprocessor.NewWatermillLogger())
		if err != nil {
			return nil, fmt.Errorf("initialize result publisher: %w", err)
		}
		opts = append(opts, scoring.WithPublisher(c.publisher))
	}

	c.engine, err = scoring.NewFromConfig(c.store, cfg.Scoring, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize scoring engine: %w", err)
	}

	handlerOpts := []api.HandlerOption{
		api.WithVersion(version),
		api.WithGeoWriter(c.store),
		api.WithHealthCheck("database", true, c.db.Ping),
		api.WithHealthCheck("history_breaker", false, func(context.Context) error {
			if state := c.store.State(); state == "open" {
				return errors.New("history store circuit breaker is open")
			}
			return nil
		}),
	}
	if c.redis != nil {
		handlerOpts = append(handlerOpts, api.WithHealthCheck("redis", false, c.redis.Ping))
	}
	if c.publisher != nil {
		handlerOpts = append(handlerOpts, api.WithHealthCheck("publisher", false, c.publisher.Healthy))

		if sub := c.publisher.Subscriber(); sub != nil {
			c.hub = websocket.NewHub()
			c.feed = websocket.NewFeed(c.hub, sub, c.publisher.Topic())
			handlerOpts = append(handlerOpts,
				api.WithVerdictStream(websocket.NewHandler(c.hub, cfg.Security.CORSOrigins)))
		}
	}
	c.handler = api.NewHandler(c.engine, handlerOpts...)

	return c, nil
}

// close releases resources in reverse construction order. The publisher is
// normally closed by its supervisor service; Close is idempotent.
func (c *components) close() {
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing result publisher")
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing redis")
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
}

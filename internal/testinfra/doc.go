// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

//go:build integration

// Package testinfra starts throwaway Redis and NATS containers for
// integration tests with testcontainers-go.
//
// Integration tests carry the "integration" build tag and are skipped when
// Docker is unavailable:
//
//	go test -tags integration ./internal/history/... ./internal/eventprocessor/...
//
// Example:
//
//	func TestRedisCounter_Real(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis)
//
//	    counter, err := history.NewRedisCounter(ctx, &config.RedisConfig{Addr: redis.Addr})
//	    // ...
//	}
//
// The first run downloads the images; later runs use the local cache.
package testinfra

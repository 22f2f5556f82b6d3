// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package config provides centralized configuration management for SurveyGuard.

Configuration is loaded in layers with Koanf v2: struct defaults, an optional
.env file (exported with godotenv), an optional YAML file and finally
environment variables. Later layers override earlier ones.

# Configuration Structure

  - ServerConfig: HTTP listener (host, port, timeouts, environment)
  - LoggingConfig: zerolog level, format and caller info
  - DatabaseConfig: DuckDB history store
  - RedisConfig: optional sliding-window session counters
  - CacheConfig: country lookup cache and janitor interval
  - StoreConfig: circuit breaker and rate limit around history lookups
  - ScoringConfig: bot, duplicate, composite and timing thresholds
  - EventsConfig: scored-session publication (memory, NATS or embedded NATS)
  - SecurityConfig: CORS, request rate limiting and body size limit

# Environment Variables

Server:
  - HTTP_HOST (default: 0.0.0.0), HTTP_PORT (default: 8080)
  - HTTP_TIMEOUT (default: 30s), SHUTDOWN_TIMEOUT (default: 15s)
  - ENVIRONMENT: development, staging, production

Database:
  - DUCKDB_PATH (default: data/surveyguard.duckdb)
  - DUCKDB_MAX_MEMORY (default: 1GB)

Redis:
  - REDIS_ENABLED, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_RETENTION

Scoring:
  - SCORING_BOT_THRESHOLD (default: 0.7)
  - SCORING_DUPLICATE_THRESHOLD (default: 0.7)
  - SCORING_LOOKUP_TIMEOUT (default: 250ms)
  - SCORING_COMPOSITE_BEHAVIORAL_WEIGHT (default: 0.6)
  - SCORING_SPEEDER_MS / SCORING_FLATLINER_MS (default: 2000 / 300000)
  - SCORING_RECORD_HISTORY (default: true)

Events:
  - EVENTS_ENABLED, EVENTS_TRANSPORT (memory, nats), EVENTS_TOPIC, NATS_URL

Security:
  - CORS_ORIGINS: comma-separated origins (wildcard rejected in production)
  - RATE_LIMIT_REQS / RATE_LIMIT_WINDOW / DISABLE_RATE_LIMIT
  - MAX_BODY_BYTES (default: 4MiB)

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

The returned Config is validated and safe for concurrent reads.
*/
package config

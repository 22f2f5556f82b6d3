// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

/*
Package main is the entry point for the SurveyGuard server.

SurveyGuard scores survey sessions for automation and fraud. Clients post a
session's interaction events and context; the server runs the behavioral
analyzers, the fraud analyzers and the response-quality detectors
concurrently and returns a composite verdict.

# Application Architecture

	RootSupervisor ("surveyguard")
	├── DataSupervisor ("data-layer")
	│   └── Cache janitor
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Result publisher (optional, EVENTS_ENABLED=true)
	│   ├── WebSocket hub (live verdict stream)
	│   └── Verdict feed (topic subscription into the hub)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB session history
 4. Redis (optional): sliding-window session counters
 5. History store: split, cached and guarded layers over the database
 6. Scoring engine: detectors built from the scoring section
 7. Result publisher (optional): Watermill over memory, NATS or embedded NATS
 8. Supervisor tree and HTTP server

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
  - Environment variables (see .env.example)
  - Config file (config.yaml)
  - Built-in defaults

Frequently used variables:

	HTTP_PORT=8080
	DUCKDB_PATH=/data/surveyguard.duckdb
	REDIS_ENABLED=true REDIS_ADDR=redis:6379
	EVENTS_ENABLED=true EVENTS_TRANSPORT=embedded
	LOG_LEVEL=debug LOG_FORMAT=console

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests within SERVER_SHUTDOWN_TIMEOUT, the publisher flushes and
closes, and the database and Redis connections close last.
*/
package main

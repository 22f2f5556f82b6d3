// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. .env: Variables from a .env file are exported into the environment
//  3. Config File: Optional YAML config file (config.yaml)
//  4. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Infrastructure:
//     - Database: DuckDB history store (sessions, responses, geolocations)
//     - Redis: Optional sliding-window session counters
//     - Cache: Read-through cache in front of the history store
//     - Store: Circuit breaker and rate limiting around history lookups
//     - Events: Publication of scored sessions (in-memory or NATS)
//
//  2. Scoring:
//     - Thresholds and weights for the behavioral, fraud, quality and composite stages
//
//  3. API & Security:
//     - Server: HTTP listener
//     - Security: CORS and rate limiting
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Cache    CacheConfig    `koanf:"cache"`
	Store    StoreConfig    `koanf:"store"`
	Scoring  ScoringConfig  `koanf:"scoring"`
	Events   EventsConfig   `koanf:"events"`
	Security SecurityConfig `koanf:"security"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // "development", "staging", "production" (default: "development")
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// DatabaseConfig holds DuckDB settings for the history store.
//
// Environment Variables:
//   - DUCKDB_PATH: database file, or ":memory:" (default: data/surveyguard.duckdb)
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 1GB)
//   - DUCKDB_THREADS: worker threads, 0 = NumCPU (default: 0)
//   - DUCKDB_MAX_COMPARED_RESPONSES: newest responses compared per survey (default: 5000)
type DatabaseConfig struct {
	Path                 string `koanf:"path"`
	MaxMemory            string `koanf:"max_memory"`
	Threads              int    `koanf:"threads"`
	MaxComparedResponses int    `koanf:"max_compared_responses"`
}

// RedisConfig holds the optional Redis connection used for windowed session counts.
// When disabled, all counts are served by DuckDB.
//
// Environment Variables:
//   - REDIS_ENABLED (default: false)
//   - REDIS_ADDR (default: localhost:6379)
//   - REDIS_PASSWORD, REDIS_DB
//   - REDIS_KEY_PREFIX (default: surveyguard:)
//   - REDIS_RETENTION: how long window members are kept (default: 24h)
type RedisConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"key_prefix"`
	Retention time.Duration `koanf:"retention"`
}

// CacheConfig holds read-through cache settings.
type CacheConfig struct {
	CountryCapacity int           `koanf:"country_capacity"`
	CountryTTL      time.Duration `koanf:"country_ttl"`
	JanitorInterval time.Duration `koanf:"janitor_interval"`
}

// StoreConfig holds resilience settings applied to every history lookup.
//
// Environment Variables:
//   - STORE_BREAKER_FAILURES: consecutive failures before opening (default: 5)
//   - STORE_BREAKER_TIMEOUT: time the breaker stays open (default: 30s)
//   - STORE_RATE_LIMIT: lookups per second, 0 disables (default: 500)
//   - STORE_RATE_BURST (default: 100)
type StoreConfig struct {
	BreakerName        string        `koanf:"breaker_name"`
	BreakerMaxRequests uint32        `koanf:"breaker_max_requests"` // Allowed in half-open state
	BreakerInterval    time.Duration `koanf:"breaker_interval"`     // Reset interval for counts
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`      // Time to stay open
	BreakerFailures    uint32        `koanf:"breaker_failures"`     // Failures before opening
	RateLimit          float64       `koanf:"rate_limit"`
	RateBurst          int           `koanf:"rate_burst"`
}

// ScoringConfig holds the tunable thresholds of the scoring pipeline.
// Analyzer-level settings beyond these are changed at runtime through the
// configure endpoints.
type ScoringConfig struct {
	// BotThreshold is the behavioral confidence above which a session is a bot (default: 0.7).
	BotThreshold float64 `koanf:"bot_threshold"`

	// DuplicateThreshold is the fraud score at which a session is a duplicate (default: 0.7).
	DuplicateThreshold float64 `koanf:"duplicate_threshold"`

	// LookupTimeout bounds each history lookup made by a fraud analyzer (default: 250ms).
	LookupTimeout time.Duration `koanf:"lookup_timeout"`

	// CompositeBehavioralWeight weights behavior in the composite score;
	// text quality takes the remainder (default: 0.6).
	CompositeBehavioralWeight float64 `koanf:"composite_behavioral_weight"`

	// CompositeBotThreshold marks is_bot when composite >= threshold (default: 0.7).
	CompositeBotThreshold float64 `koanf:"composite_bot_threshold"`

	// SpeederMs and FlatlinerMs are the fixed timing thresholds (default: 2000 / 300000).
	SpeederMs   float64 `koanf:"speeder_ms"`
	FlatlinerMs float64 `koanf:"flatliner_ms"`

	// StraightLineThreshold is the modal share marking a straight-lined grid (default: 0.8).
	StraightLineThreshold float64 `koanf:"straight_line_threshold"`

	// RecordHistory persists scored sessions so later sessions see them (default: true).
	RecordHistory bool `koanf:"record_history"`
}

// EventsConfig holds result publication settings.
//
// Environment Variables:
//   - EVENTS_ENABLED (default: true)
//   - EVENTS_TRANSPORT: memory, nats or embedded (default: memory)
//   - EVENTS_TOPIC (default: scoring.session_scored)
//   - NATS_URL (default: nats://127.0.0.1:4222)
//   - NATS_STORE_DIR: JetStream directory for the embedded server (default: data/nats)
type EventsConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Transport       string        `koanf:"transport"`
	Topic           string        `koanf:"topic"`
	NATSURL         string        `koanf:"nats_url"`
	StoreDir        string        `koanf:"store_dir"`
	MaxReconnects   int           `koanf:"max_reconnects"`
	ReconnectWait   time.Duration `koanf:"reconnect_wait"`
	ReconnectBuffer int           `koanf:"reconnect_buffer"`
	TrackMsgID      bool          `koanf:"track_msg_id"`
}

// SecurityConfig holds API protection settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes"`
}

// Load loads configuration using Koanf with layered sources.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

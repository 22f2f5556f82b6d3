// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/surveyguard/config.yaml",
	"/etc/surveyguard/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the .env file location.
const DotEnvPathEnvVar = "DOTENV_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:                 "data/surveyguard.duckdb",
			MaxMemory:            "1GB",
			Threads:              0,
			MaxComparedResponses: 5000,
		},
		Redis: RedisConfig{
			Enabled:   false,
			Addr:      "localhost:6379",
			DB:        0,
			KeyPrefix: "surveyguard:",
			Retention: 24 * time.Hour,
		},
		Cache: CacheConfig{
			CountryCapacity: 10000,
			CountryTTL:      time.Hour,
			JanitorInterval: 5 * time.Minute,
		},
		Store: StoreConfig{
			BreakerName:        "history-store",
			BreakerMaxRequests: 3,
			BreakerInterval:    60 * time.Second,
			BreakerTimeout:     30 * time.Second,
			BreakerFailures:    5,
			RateLimit:          500,
			RateBurst:          100,
		},
		Scoring: ScoringConfig{
			BotThreshold:              0.7,
			DuplicateThreshold:        0.7,
			LookupTimeout:             250 * time.Millisecond,
			CompositeBehavioralWeight: 0.6,
			CompositeBotThreshold:     0.7,
			SpeederMs:                 2000,
			FlatlinerMs:               300000,
			StraightLineThreshold:     0.8,
			RecordHistory:             true,
		},
		Events: EventsConfig{
			Enabled:         true,
			Transport:       "memory",
			Topic:           "scoring.session_scored",
			NATSURL:         "nats://127.0.0.1:4222",
			StoreDir:        "data/nats",
			MaxReconnects:   -1,
			ReconnectWait:   2 * time.Second,
			ReconnectBuffer: 8 * 1024 * 1024,
			TrackMsgID:      true,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			MaxBodyBytes:      4 << 20,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. .env file: exported into the process environment when present
//  3. Config File: Optional YAML config file (if exists)
//  4. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DUCKDB_PATH -> database.path, SCORING_BOT_THRESHOLD -> scoring.bot_threshold
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv exports variables from a .env file without overriding
// variables already set in the environment. A missing file is not an error.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names to koanf config paths.
var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Database
	"duckdb_path":                   "database.path",
	"duckdb_max_memory":             "database.max_memory",
	"duckdb_threads":                "database.threads",
	"duckdb_max_compared_responses": "database.max_compared_responses",

	// Redis
	"redis_enabled":    "redis.enabled",
	"redis_addr":       "redis.addr",
	"redis_password":   "redis.password",
	"redis_db":         "redis.db",
	"redis_key_prefix": "redis.key_prefix",
	"redis_retention":  "redis.retention",

	// Cache
	"cache_country_capacity": "cache.country_capacity",
	"cache_country_ttl":      "cache.country_ttl",
	"cache_janitor_interval": "cache.janitor_interval",

	// Store resilience
	"store_breaker_max_requests": "store.breaker_max_requests",
	"store_breaker_interval":     "store.breaker_interval",
	"store_breaker_timeout":      "store.breaker_timeout",
	"store_breaker_failures":     "store.breaker_failures",
	"store_rate_limit":           "store.rate_limit",
	"store_rate_burst":           "store.rate_burst",

	// Scoring
	"scoring_bot_threshold":               "scoring.bot_threshold",
	"scoring_duplicate_threshold":         "scoring.duplicate_threshold",
	"scoring_lookup_timeout":              "scoring.lookup_timeout",
	"scoring_composite_behavioral_weight": "scoring.composite_behavioral_weight",
	"scoring_composite_bot_threshold":     "scoring.composite_bot_threshold",
	"scoring_speeder_ms":                  "scoring.speeder_ms",
	"scoring_flatliner_ms":                "scoring.flatliner_ms",
	"scoring_straight_line_threshold":     "scoring.straight_line_threshold",
	"scoring_record_history":              "scoring.record_history",

	// Events
	"events_enabled":   "events.enabled",
	"events_transport": "events.transport",
	"events_topic":     "events.topic",
	"nats_url":         "events.nats_url",
	"nats_store_dir":   "events.store_dir",

	// Security
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",
	"cors_origins":       "security.cors_origins",
	"max_body_bytes":     "security.max_body_bytes",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - SCORING_BOT_THRESHOLD -> scoring.bot_threshold
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables
	// cannot pollute the configuration.
	return ""
}

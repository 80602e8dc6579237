// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/courier-tracker/config.yaml",
	"/etc/courier-tracker/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Tracking: TrackingConfig{
			TaskName:              "courier-location",
			MinInterval:           5000 * time.Millisecond,
			MinDisplacementMeters: 10,
			Accuracy:              "high",
			ForegroundIndicator:   true,
			IndicatorTitle:        "Delivery in progress",
			IndicatorBody:         "Your location is being shared with the customer",
		},
		Geocode: GeocodeConfig{
			Enabled:           true,
			BaseURL:           "https://nominatim.openstreetmap.org",
			UserAgent:         "courier-tracker/1.0",
			Language:          "en",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 1, // Nominatim usage policy
			CacheSize:         1000,
			CacheTTL:          24 * time.Hour,
		},
		Database: DatabaseConfig{
			Table:          "deliveries",
			IdentityColumn: "courier_id",
			ActiveStatus:   4,
			MaxConns:       4,
			ConnectTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			StorePath: "/data/session",
		},
		NATS: NATSConfig{
			Enabled:       true,
			Embedded:      true,
			URL:           "nats://127.0.0.1:4222",
			Host:          "127.0.0.1",
			Port:          4222,
			StoreDir:      "/data/nats/jetstream",
			SubjectPrefix: "tracking",
			QueueGroup:    "courier-tracker",
		},
		Permissions: PermissionsConfig{
			DeviceSubject: "device",
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from three layers:
//  1. built-in defaults
//  2. an optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. environment variables listed in envMappings
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

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

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"tracking_task_name":        "tracking.task_name",
	"tracking_min_interval":     "tracking.min_interval",
	"tracking_min_displacement": "tracking.min_displacement_meters",
	"tracking_accuracy":         "tracking.accuracy",
	"tracking_indicator":        "tracking.foreground_indicator",
	"tracking_indicator_title":  "tracking.indicator_title",
	"tracking_indicator_body":   "tracking.indicator_body",

	"geocode_enabled":    "geocode.enabled",
	"geocode_url":        "geocode.base_url",
	"geocode_user_agent": "geocode.user_agent",
	"geocode_language":   "geocode.language",
	"geocode_timeout":    "geocode.timeout",
	"geocode_rate":       "geocode.requests_per_second",
	"geocode_cache_size": "geocode.cache_size",
	"geocode_cache_ttl":  "geocode.cache_ttl",

	"database_url":             "database.url",
	"database_table":           "database.table",
	"database_identity_column": "database.identity_column",
	"database_active_status":   "database.active_status",
	"database_max_conns":       "database.max_conns",

	"session_store_path": "session.store_path",
	"jwt_secret":         "session.jwt_secret",
	"jwt_issuer":         "session.issuer",

	"nats_enabled":        "nats.enabled",
	"nats_embedded":       "nats.embedded",
	"nats_url":            "nats.url",
	"nats_host":           "nats.host",
	"nats_port":           "nats.port",
	"nats_store_dir":      "nats.store_dir",
	"nats_subject_prefix": "nats.subject_prefix",
	"nats_queue_group":    "nats.queue_group",

	"permission_policy_path":    "permissions.policy_path",
	"permission_device_subject": "permissions.device_subject",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps a known environment variable to its koanf path.
// Unknown variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

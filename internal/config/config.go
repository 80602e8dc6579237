// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package config loads the tracker configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence.
package config

import "time"

// Config is the complete process configuration.
type Config struct {
	Tracking    TrackingConfig    `koanf:"tracking"`
	Geocode     GeocodeConfig     `koanf:"geocode"`
	Database    DatabaseConfig    `koanf:"database"`
	Session     SessionConfig     `koanf:"session"`
	NATS        NATSConfig        `koanf:"nats"`
	Permissions PermissionsConfig `koanf:"permissions"`
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// TrackingConfig holds the registration parameters of the background task.
type TrackingConfig struct {
	TaskName              string        `koanf:"task_name"`
	MinInterval           time.Duration `koanf:"min_interval"`
	MinDisplacementMeters float64       `koanf:"min_displacement_meters"`
	Accuracy              string        `koanf:"accuracy"`
	ForegroundIndicator   bool          `koanf:"foreground_indicator"`
	IndicatorTitle        string        `koanf:"indicator_title"`
	IndicatorBody         string        `koanf:"indicator_body"`
}

// GeocodeConfig configures the reverse geocoder.
type GeocodeConfig struct {
	Enabled           bool          `koanf:"enabled"`
	BaseURL           string        `koanf:"base_url"`
	UserAgent         string        `koanf:"user_agent"`
	Language          string        `koanf:"language"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	CacheSize         int           `koanf:"cache_size"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
}

// DatabaseConfig locates the remote delivery records.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	Table          string        `koanf:"table"`
	IdentityColumn string        `koanf:"identity_column"`
	ActiveStatus   int           `koanf:"active_status"`
	MaxConns       int32         `koanf:"max_conns"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// SessionConfig configures the device session store.
type SessionConfig struct {
	StorePath string `koanf:"store_path"`
	JWTSecret string `koanf:"jwt_secret"`
	Issuer    string `koanf:"issuer"`
}

// NATSConfig configures the sample delivery transport.
type NATSConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Embedded      bool   `koanf:"embedded"`
	URL           string `koanf:"url"`
	Host          string `koanf:"host"`
	Port          int    `koanf:"port"`
	StoreDir      string `koanf:"store_dir"`
	SubjectPrefix string `koanf:"subject_prefix"`
	QueueGroup    string `koanf:"queue_group"`
}

// PermissionsConfig configures the positioning permission policy.
type PermissionsConfig struct {
	// PolicyPath is an optional casbin CSV policy. Empty uses the embedded policy.
	PolicyPath    string `koanf:"policy_path"`
	DeviceSubject string `koanf:"device_subject"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig mirrors logging.Config for file/env loading.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

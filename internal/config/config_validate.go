// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package config

import (
	"fmt"
	"regexp"
	"strings"
)

// sqlIdentifier guards the table and column names that are interpolated into
// the persister's UPDATE statement.
var sqlIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Validate checks the configuration for required and consistent values.
func (c *Config) Validate() error {
	if err := c.validateTracking(); err != nil {
		return err
	}
	if err := c.validateGeocode(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validateTracking() error {
	if c.Tracking.TaskName == "" {
		return fmt.Errorf("tracking.task_name is required")
	}
	if strings.ContainsAny(c.Tracking.TaskName, " .*>") {
		return fmt.Errorf("tracking.task_name must not contain spaces or NATS wildcard characters")
	}
	if c.Tracking.MinInterval < 0 {
		return fmt.Errorf("tracking.min_interval must not be negative")
	}
	if c.Tracking.MinDisplacementMeters < 0 {
		return fmt.Errorf("tracking.min_displacement_meters must not be negative")
	}
	switch strings.ToLower(c.Tracking.Accuracy) {
	case "lowest", "low", "balanced", "high", "highest", "navigation":
	default:
		return fmt.Errorf("tracking.accuracy %q is not a known accuracy tier", c.Tracking.Accuracy)
	}
	if c.Tracking.ForegroundIndicator && c.Tracking.IndicatorTitle == "" {
		return fmt.Errorf("tracking.indicator_title is required when the foreground indicator is enabled")
	}
	return nil
}

func (c *Config) validateGeocode() error {
	if !c.Geocode.Enabled {
		return nil
	}
	if c.Geocode.BaseURL == "" {
		return fmt.Errorf("geocode.base_url is required when geocoding is enabled")
	}
	if c.Geocode.UserAgent == "" {
		return fmt.Errorf("geocode.user_agent is required when geocoding is enabled")
	}
	if c.Geocode.RequestsPerSecond <= 0 {
		return fmt.Errorf("geocode.requests_per_second must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if !sqlIdentifier.MatchString(c.Database.Table) {
		return fmt.Errorf("database.table %q is not a valid identifier", c.Database.Table)
	}
	if !sqlIdentifier.MatchString(c.Database.IdentityColumn) {
		return fmt.Errorf("database.identity_column %q is not a valid identifier", c.Database.IdentityColumn)
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.StorePath == "" {
		return fmt.Errorf("session.store_path is required")
	}
	if len(c.Session.JWTSecret) < 32 {
		return fmt.Errorf("session.jwt_secret must be at least 32 characters")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("nats.subject_prefix is required when NATS is enabled")
	}
	if c.NATS.Embedded && c.NATS.StoreDir == "" {
		return fmt.Errorf("nats.store_dir is required when the embedded server is enabled")
	}
	if !c.NATS.Embedded && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when the embedded server is disabled")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}

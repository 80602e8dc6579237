// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package geocode

import "github.com/tomtom215/courier-tracker/internal/config"

// NewResolverFromConfig builds the production resolver. With geocoding
// disabled the resolver only produces coordinate text.
func NewResolverFromConfig(cfg *config.GeocodeConfig) *Resolver {
	if !cfg.Enabled {
		return NewResolver(nil)
	}

	var r Reverser = NewNominatimReverser(NominatimConfig{
		BaseURL:           cfg.BaseURL,
		UserAgent:         cfg.UserAgent,
		Language:          cfg.Language,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	r = NewBreakerReverser(r, BreakerSettings{Name: "nominatim"})
	if cfg.CacheSize > 0 {
		r = NewCachingReverser(r, cfg.CacheSize, cfg.CacheTTL)
	}
	return NewResolver(r)
}

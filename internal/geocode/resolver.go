// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package geocode

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/metrics"
	"github.com/tomtom215/courier-tracker/internal/models"
)

// ErrNoCandidates is returned by a Reverser that found no address.
var ErrNoCandidates = errors.New("geocode: no candidates")

// Reverser looks up ranked address candidates for a coordinate.
type Reverser interface {
	Reverse(ctx context.Context, latitude, longitude float64) ([]models.GeocodeCandidate, error)
}

// ReverserFunc adapts a function to Reverser.
type ReverserFunc func(ctx context.Context, latitude, longitude float64) ([]models.GeocodeCandidate, error)

// Reverse implements Reverser.
func (f ReverserFunc) Reverse(ctx context.Context, latitude, longitude float64) ([]models.GeocodeCandidate, error) {
	return f(ctx, latitude, longitude)
}

// Resolver produces a ResolvedAddress for every sample.
type Resolver struct {
	reverser Reverser
}

// NewResolver creates a resolver. A nil reverser disables geocoding and every
// sample resolves to its coordinates.
func NewResolver(r Reverser) *Resolver {
	return &Resolver{reverser: r}
}

// Resolve performs one reverse lookup and composes the first candidate.
// It always returns a usable address.
func (r *Resolver) Resolve(ctx context.Context, sample models.LocationSample) models.ResolvedAddress {
	fallback := models.ResolvedAddress{
		Text:   sample.CoordinateText(),
		Source: models.AddressRawCoordinates,
	}
	if r.reverser == nil {
		return fallback
	}

	start := time.Now()
	candidates, err := r.reverser.Reverse(ctx, sample.Latitude, sample.Longitude)
	metrics.GeocodeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Float64("lat", sample.Latitude).
			Float64("lng", sample.Longitude).
			Msg("Reverse geocode failed, using coordinates")
		metrics.GeocodeLookups.WithLabelValues("fallback").Inc()
		return fallback
	}
	if len(candidates) == 0 {
		metrics.GeocodeLookups.WithLabelValues("fallback").Inc()
		return fallback
	}

	text := Compose(candidates[0])
	if text == "" {
		logging.Ctx(ctx).Debug().Msg("Geocode candidate had no displayable fields")
		metrics.GeocodeLookups.WithLabelValues("fallback").Inc()
		return fallback
	}

	metrics.GeocodeLookups.WithLabelValues("geocoded").Inc()
	return models.ResolvedAddress{Text: text, Source: models.AddressGeocoded}
}

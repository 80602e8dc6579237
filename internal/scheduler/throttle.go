// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package scheduler

import (
	"math"
	"sync"

	"github.com/tomtom215/courier-tracker/internal/models"
)

const earthRadiusMeters = 6371008.8

// Throttle applies a registration's minimum interval and displacement.
type Throttle struct {
	minInterval     float64 // seconds
	minDisplacement float64 // meters

	mu   sync.Mutex
	last *models.LocationSample
}

// NewThrottle creates a throttle for cfg.
func NewThrottle(cfg Config) *Throttle {
	return &Throttle{
		minInterval:     cfg.MinInterval.Seconds(),
		minDisplacement: cfg.MinDisplacementMeters,
	}
}

// Filter returns the samples that pass, in order. A sample passes when both
// the interval since and the distance from the last passed sample reach
// their minimums. The first sample ever seen always passes. A zero capture
// time is unknown, so only displacement applies to it.
func (t *Throttle) Filter(samples []models.LocationSample) []models.LocationSample {
	t.mu.Lock()
	defer t.mu.Unlock()

	passed := samples[:0:0]
	for i := range samples {
		s := samples[i]
		if t.last != nil {
			moved := Haversine(t.last.Latitude, t.last.Longitude, s.Latitude, s.Longitude)
			if moved < t.minDisplacement {
				continue
			}
			if !s.CapturedAt.IsZero() && !t.last.CapturedAt.IsZero() &&
				s.CapturedAt.Sub(t.last.CapturedAt).Seconds() < t.minInterval {
				continue
			}
		}
		passed = append(passed, s)
		t.last = &s
	}
	return passed
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/courier-tracker/internal/config"
	"github.com/tomtom215/courier-tracker/internal/models"
)

func TestNewResolverFromConfig_Disabled(t *testing.T) {
	r := NewResolverFromConfig(&config.GeocodeConfig{Enabled: false})

	got := r.Resolve(context.Background(), models.LocationSample{Latitude: 14.6, Longitude: 121})
	if got.Text != "14.6,121" || got.Source != models.AddressRawCoordinates {
		t.Errorf("Resolve() = %+v, want raw coordinates", got)
	}
}

func TestNewResolverFromConfig_CachesLookups(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address": {"road": "Main St", "city": "Pasay", "state": "NCR", "country": "PH"}}`))
	}))
	defer server.Close()

	r := NewResolverFromConfig(&config.GeocodeConfig{
		Enabled:           true,
		BaseURL:           server.URL + "/",
		UserAgent:         "courier-tracker-test/1.0",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		CacheSize:         16,
		CacheTTL:          time.Minute,
	})

	sample := models.LocationSample{Latitude: 14.5, Longitude: 121}
	for i := 0; i < 3; i++ {
		got := r.Resolve(context.Background(), sample)
		if got.Text != "Main St, Pasay, NCR, PH" || got.Source != models.AddressGeocoded {
			t.Fatalf("Resolve() #%d = %+v", i, got)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("geocoder called %d times, want 1", calls.Load())
	}
}

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package models

import (
	"testing"
	"time"
)

func TestCoordinateText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		sample LocationSample
		want   string
	}{
		{"integral longitude", LocationSample{Latitude: 14.5, Longitude: 121.0}, "14.5,121"},
		{"negative", LocationSample{Latitude: -33.8688, Longitude: 151.2093}, "-33.8688,151.2093"},
		{"origin", LocationSample{}, "0,0"},
		{"near zero stays decimal", LocationSample{Latitude: 1e-7, Longitude: -2.5e-7}, "0.0000001,-0.00000025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.sample.CoordinateText(); got != tt.want {
				t.Errorf("CoordinateText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLatest(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if _, ok := Latest(nil); ok {
		t.Error("Latest(nil) ok = true, want false")
	}

	samples := []LocationSample{
		{Latitude: 1, CapturedAt: base.Add(10 * time.Second)},
		{Latitude: 2, CapturedAt: base.Add(30 * time.Second)},
		{Latitude: 3, CapturedAt: base.Add(20 * time.Second)},
	}
	got, ok := Latest(samples)
	if !ok || got.Latitude != 2 {
		t.Errorf("Latest() = %v (ok=%v), want latitude 2", got.Latitude, ok)
	}

	tied := []LocationSample{
		{Latitude: 1, CapturedAt: base},
		{Latitude: 2, CapturedAt: base},
	}
	if got, _ := Latest(tied); got.Latitude != 2 {
		t.Errorf("Latest(tied) latitude = %v, want 2", got.Latitude)
	}
}

func TestCapabilityGranted(t *testing.T) {
	t.Parallel()

	if (Capability{Foreground: true}).Granted() {
		t.Error("foreground-only capability should not be granted")
	}
	if !(Capability{Foreground: true, Background: true}).Granted() {
		t.Error("foreground+background capability should be granted")
	}
}

func TestAddressSourceString(t *testing.T) {
	t.Parallel()

	if AddressGeocoded.String() != "geocoded" {
		t.Errorf("AddressGeocoded = %q", AddressGeocoded.String())
	}
	if AddressRawCoordinates.String() != "raw_coordinates" {
		t.Errorf("AddressRawCoordinates = %q", AddressRawCoordinates.String())
	}
}

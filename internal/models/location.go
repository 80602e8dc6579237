// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package models

import (
	"strconv"
	"time"
)

// ActiveDeliveryStatus is the remote status code of a delivery that is in
// transit. Only a record in this state receives position updates.
const ActiveDeliveryStatus = 4

// LocationSample is one position fix delivered by the sample source.
type LocationSample struct {
	Latitude   float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64   `json:"longitude" validate:"gte=-180,lte=180"`
	CapturedAt time.Time `json:"captured_at" validate:"required"`
	Accuracy   *float64  `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
}

// CoordinateText renders the sample as "{lat},{lng}" using the shortest
// decimal representation of each value. Values never use exponent notation,
// even within 1e-6 of zero.
func (s LocationSample) CoordinateText() string {
	return strconv.FormatFloat(s.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(s.Longitude, 'f', -1, 64)
}

// SampleBatch is the payload of one scheduler invocation.
type SampleBatch struct {
	Samples []LocationSample `json:"samples" validate:"required,min=1,dive"`
}

// Latest returns the most recent sample of the batch by capture time. When
// capture times tie, the later position in the batch wins. ok is false for an
// empty batch.
func Latest(samples []LocationSample) (latest LocationSample, ok bool) {
	for i, s := range samples {
		if i == 0 || !s.CapturedAt.Before(latest.CapturedAt) {
			latest = s
			ok = true
		}
	}
	return latest, ok
}

// AddressSource records how a ResolvedAddress was produced.
type AddressSource int

const (
	// AddressGeocoded means the text came from a reverse-geocode candidate.
	AddressGeocoded AddressSource = iota
	// AddressRawCoordinates means geocoding failed and the text is "{lat},{lng}".
	AddressRawCoordinates
)

func (s AddressSource) String() string {
	switch s {
	case AddressGeocoded:
		return "geocoded"
	case AddressRawCoordinates:
		return "raw_coordinates"
	default:
		return "unknown"
	}
}

// ResolvedAddress is the human-readable form of a sample.
type ResolvedAddress struct {
	Text   string        `json:"text"`
	Source AddressSource `json:"source"`
}

// GeocodeCandidate is one reverse-geocode result. Every field is optional.
type GeocodeCandidate struct {
	StreetNumber string `json:"street_number,omitempty"`
	Street       string `json:"street,omitempty"`
	City         string `json:"city,omitempty"`
	Region       string `json:"region,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
	District     string `json:"district,omitempty"`
	Subregion    string `json:"subregion,omitempty"`
}

// SyncTarget identifies the remote record a sample is written to.
type SyncTarget struct {
	IdentityID       string
	ActiveStatusCode int
}

// Capability is proof that both foreground and background positioning were
// granted. The zero value grants nothing.
type Capability struct {
	Foreground bool      `json:"foreground"`
	Background bool      `json:"background"`
	GrantedAt  time.Time `json:"granted_at"`
}

// Granted reports whether the capability allows background registration.
func (c Capability) Granted() bool {
	return c.Foreground && c.Background
}

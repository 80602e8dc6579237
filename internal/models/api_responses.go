// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package models

import "time"

// APIResponse is the envelope for every HTTP response.
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
//	{"status":"error","data":null,"metadata":{...},"error":{"code":"PERMISSION_DENIED","message":"..."}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError is a machine-readable error with optional field details.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// TrackingStatus is returned by the tracking endpoints.
type TrackingStatus struct {
	State      string `json:"state"`
	Active     bool   `json:"active"`
	Registered bool   `json:"registered"`
	Outcome    string `json:"outcome,omitempty"`
}

// SessionStatus is returned by the session endpoints.
type SessionStatus struct {
	Authenticated bool   `json:"authenticated"`
	IdentityID    string `json:"identity_id,omitempty"`
}

// SessionRequest signs a device in with a pre-issued courier token.
type SessionRequest struct {
	Token string `json:"token" validate:"required,jwt"`
}

// FixRequest is the body of POST /api/v1/fixes. Coordinates are pointers so
// an omitted value is rejected instead of decoding as 0.
type FixRequest struct {
	Samples []FixSample `json:"samples" validate:"required,min=1,dive"`
}

// FixSample is one fix as sent by the device.
type FixSample struct {
	Latitude   *float64  `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude  *float64  `json:"longitude" validate:"required,gte=-180,lte=180"`
	CapturedAt time.Time `json:"captured_at" validate:"required"`
	Accuracy   *float64  `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
}

// Batch converts a validated request into the batch handed to the scheduler.
func (r FixRequest) Batch() SampleBatch {
	samples := make([]LocationSample, 0, len(r.Samples))
	for _, s := range r.Samples {
		samples = append(samples, LocationSample{
			Latitude:   *s.Latitude,
			Longitude:  *s.Longitude,
			CapturedAt: s.CapturedAt,
			Accuracy:   s.Accuracy,
		})
	}
	return SampleBatch{Samples: samples}
}

// IngestResult is returned after fixes are handed to the scheduler.
type IngestResult struct {
	Accepted int `json:"accepted"`
}

// HealthStatus is returned by GET /health.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	TrackingState     string  `json:"tracking_state"`
	Uptime            float64 `json:"uptime_seconds"`
}

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package scheduler registers recurring capture tasks and invokes their
// handlers with batches of location samples.
//
// A Scheduler delivers one batch at a time per registration. Handlers run on
// a context detached from the registration, so Deregister stops future
// invocations without cancelling one in flight.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/courier-tracker/internal/models"
)

var (
	// ErrAlreadyRegistered is returned by Register when name is active.
	ErrAlreadyRegistered = errors.New("task already registered")

	// ErrNotRegistered is returned by Deregister for an unknown or stale handle.
	ErrNotRegistered = errors.New("task not registered")
)

// Batch is one delivery. Err is set when the source failed to deliver; the
// samples are then absent.
type Batch struct {
	Samples []models.LocationSample
	Err     error
}

// Handler processes a batch to completion.
type Handler func(ctx context.Context, batch Batch)

// Config holds the registration parameters.
type Config struct {
	MinInterval           time.Duration `json:"min_interval"`
	MinDisplacementMeters float64       `json:"min_displacement_meters"`
	Accuracy              string        `json:"accuracy"`
	ForegroundIndicator   bool          `json:"foreground_indicator"`
	IndicatorTitle        string        `json:"indicator_title,omitempty"`
	IndicatorBody         string        `json:"indicator_body,omitempty"`
}

// DefaultConfig returns 5 s / 10 m at high accuracy with the indicator on.
func DefaultConfig() Config {
	return Config{
		MinInterval:           5 * time.Second,
		MinDisplacementMeters: 10,
		Accuracy:              "high",
		ForegroundIndicator:   true,
		IndicatorTitle:        "Delivery in progress",
		IndicatorBody:         "Sharing your location with the customer",
	}
}

// Handle identifies one registration. A Handle with an empty ID matches
// whatever registration currently holds Name.
type Handle struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Scheduler is the host facility that runs capture tasks.
type Scheduler interface {
	Register(ctx context.Context, name string, handler Handler, cfg Config) (Handle, error)
	Deregister(ctx context.Context, handle Handle) error
	IsRegistered(ctx context.Context, name string) (bool, error)
}

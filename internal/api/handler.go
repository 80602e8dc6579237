// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package api exposes the tracking toggle, the device session and fix
// ingestion over HTTP using the Chi router.
package api

import (
	"context"
	"time"

	"github.com/tomtom215/courier-tracker/internal/models"
	"github.com/tomtom215/courier-tracker/internal/session"
	"github.com/tomtom215/courier-tracker/internal/tracking"
)

// TrackingController is the lifecycle controller as seen by the UI.
type TrackingController interface {
	Start(ctx context.Context) (tracking.Outcome, error)
	Stop(ctx context.Context) (tracking.Outcome, error)
	State() tracking.State
	Registered(ctx context.Context) (bool, error)
}

// SessionManager signs the courier in and out.
type SessionManager interface {
	CurrentIdentity(ctx context.Context) (string, error)
	SignIn(ctx context.Context, token string) (*session.Session, error)
	SignOut(ctx context.Context) error
}

// BatchPublisher hands fixes to the scheduler transport.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, batch models.SampleBatch) error
}

// Pinger reports remote store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the HTTP handlers and their dependencies. Fixes and DB may
// be nil when ingestion or the remote store is not configured.
type Handler struct {
	tracking  TrackingController
	sessions  SessionManager
	fixes     BatchPublisher
	db        Pinger
	startTime time.Time
}

// NewHandler creates a handler.
func NewHandler(tc TrackingController, sm SessionManager, fixes BatchPublisher, db Pinger) *Handler {
	return &Handler{
		tracking:  tc,
		sessions:  sm,
		fixes:     fixes,
		db:        db,
		startTime: time.Now(),
	}
}

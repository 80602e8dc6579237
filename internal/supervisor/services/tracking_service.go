// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package services

import (
	"context"
	"io"
	"time"

	"github.com/tomtom215/courier-tracker/internal/logging"
)

// TrackingTeardown is satisfied by *tracking.Controller.
type TrackingTeardown interface {
	Teardown(ctx context.Context) error
}

// TrackingService stops tracking at shutdown (Active, Stopping, Idle) and
// then closes the scheduler, waiting for the in-flight invocation.
type TrackingService struct {
	controller      TrackingTeardown
	scheduler       io.Closer
	shutdownTimeout time.Duration
}

// NewTrackingService wraps controller. scheduler may be nil.
func NewTrackingService(controller TrackingTeardown, scheduler io.Closer) *TrackingService {
	return &TrackingService{
		controller:      controller,
		scheduler:       scheduler,
		shutdownTimeout: 10 * time.Second,
	}
}

// Serve implements suture.Service.
func (s *TrackingService) Serve(ctx context.Context) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	// Error level when teardown failed, info otherwise.
	logging.Err(s.controller.Teardown(shutdownCtx)).Msg("Tracking teardown finished")
	if s.scheduler != nil {
		if err := s.scheduler.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close scheduler")
		}
	}
	return ctx.Err()
}

func (s *TrackingService) String() string {
	return "tracking"
}

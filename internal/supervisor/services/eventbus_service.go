// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package services

import (
	"context"
	"time"

	"github.com/tomtom215/courier-tracker/internal/logging"
)

// EmbeddedBroker is satisfied by *eventbus.EmbeddedServer.
type EmbeddedBroker interface {
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// EventBusService owns an already started embedded NATS server and shuts it
// down when the supervisor stops. The server is started before the tree so
// the scheduler can subscribe during wiring.
type EventBusService struct {
	broker          EmbeddedBroker
	shutdownTimeout time.Duration
	checkInterval   time.Duration
}

// NewEventBusService wraps broker.
func NewEventBusService(broker EmbeddedBroker) *EventBusService {
	return &EventBusService{
		broker:          broker,
		shutdownTimeout: 10 * time.Second,
		checkInterval:   30 * time.Second,
	}
}

// Serve implements suture.Service. It logs if the server stops on its own.
func (s *EventBusService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.broker.Shutdown(shutdownCtx); err != nil {
				logging.Warn().Err(err).Msg("Embedded NATS server shutdown timed out")
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.broker.IsRunning() {
				logging.Error().Msg("Embedded NATS server is not running")
			}
		}
	}
}

func (s *EventBusService) String() string {
	return "eventbus"
}

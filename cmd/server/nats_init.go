// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/courier-tracker/internal/config"
	"github.com/tomtom215/courier-tracker/internal/eventbus"
	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/supervisor"
	"github.com/tomtom215/courier-tracker/internal/supervisor/services"
)

// EventBusComponents holds the sample transport for lifecycle management.
type EventBusComponents struct {
	server     *eventbus.EmbeddedServer
	publisher  message.Publisher
	subscriber message.Subscriber
}

// InitEventBus connects the sample transport. With NATS disabled fixes stay
// inside the process on a watermill go channel.
func InitEventBus(cfg *config.NATSConfig, logger watermill.LoggerAdapter) (*EventBusComponents, error) {
	if !cfg.Enabled {
		ps := eventbus.NewInProcess(logger)
		logging.Info().Msg("NATS disabled, delivering fixes in-process")
		return &EventBusComponents{publisher: ps, subscriber: ps}, nil
	}

	c := &EventBusComponents{}
	url := cfg.URL

	if cfg.Embedded {
		srv, err := eventbus.NewEmbeddedServer(cfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		c.server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	sub, err := eventbus.NewSubscriber(url, cfg.QueueGroup, logger)
	if err != nil {
		c.shutdownServer()
		return nil, err
	}
	c.subscriber = sub

	pub, err := eventbus.NewPublisher(url, logger)
	if err != nil {
		_ = sub.Close()
		c.shutdownServer()
		return nil, err
	}
	c.publisher = pub

	logging.Info().Str("url", url).Msg("Connected to NATS")
	return c, nil
}

// Publisher returns the fix publisher.
func (c *EventBusComponents) Publisher() message.Publisher {
	return c.publisher
}

// Subscriber returns the scheduler's subscriber.
func (c *EventBusComponents) Subscriber() message.Subscriber {
	return c.subscriber
}

// AddToSupervisor hands the embedded server, if any, to the data layer.
func (c *EventBusComponents) AddToSupervisor(tree *supervisor.SupervisorTree) {
	if c.server == nil {
		return
	}
	tree.AddDataService(services.NewEventBusService(c.server))
	logging.Info().Msg("Embedded NATS server added to supervisor tree")
}

// Close releases the subscriber and publisher. Call it after the scheduler
// has closed. The embedded server is stopped by its supervisor service.
func (c *EventBusComponents) Close() error {
	var errs []error
	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if pub, ok := c.publisher.(message.Subscriber); c.publisher != nil && (!ok || pub != c.subscriber) {
		if err := c.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *EventBusComponents) shutdownServer() {
	if c.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.server.Shutdown(ctx)
}

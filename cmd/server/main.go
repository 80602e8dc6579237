// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package main is the entry point for the courier tracker.
//
// The tracker keeps a courier's current position on their active delivery
// record. Fixes arrive on NATS (or the in-process bus), are throttled by the
// scheduler, reverse geocoded, and written to PostgreSQL/PostGIS.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config.yaml, then environment (Koanf v2)
//  2. Device store: BadgerDB for the session and scheduler registrations
//  3. Remote store: pgx pool and the current-location persister
//  4. Event bus: embedded or external NATS, or an in-process go channel
//  5. Scheduler: task definition and restore of persisted registrations
//  6. Lifecycle: permission gate, task registry, tracking controller
//  7. HTTP Server: tracking, session, fix ingest, health and metrics
//
// # Signal Handling
//
// On SIGINT or SIGTERM the supervisor tree stops the HTTP server, stops
// tracking (deregistering the task), and shuts down the embedded NATS
// server.
//
// # Example Usage
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export DATABASE_URL=postgres://courier:secret@db:5432/deliveries
//	./courier-tracker
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/courier-tracker/internal/api"
	"github.com/tomtom215/courier-tracker/internal/config"
	"github.com/tomtom215/courier-tracker/internal/database"
	"github.com/tomtom215/courier-tracker/internal/eventbus"
	"github.com/tomtom215/courier-tracker/internal/geocode"
	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/permission"
	"github.com/tomtom215/courier-tracker/internal/scheduler"
	"github.com/tomtom215/courier-tracker/internal/session"
	"github.com/tomtom215/courier-tracker/internal/supervisor"
	"github.com/tomtom215/courier-tracker/internal/supervisor/services"
	"github.com/tomtom215/courier-tracker/internal/tracking"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("task", cfg.Tracking.TaskName).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Bool("geocode_enabled", cfg.Geocode.Enabled).
		Msg("Starting courier tracker with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Device store
	store, err := session.OpenBadger(cfg.Session.StorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open device store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing device store")
		}
	}()

	verifier, err := session.NewTokenVerifier(cfg.Session.JWTSecret, cfg.Session.Issuer)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create token verifier")
	}
	authenticator := session.NewAuthenticator(session.NewBadgerStore(store), verifier)

	// Remote store
	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to delivery database")
	}
	defer db.Close()

	persister, err := db.NewPersister()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create persister")
	}

	resolver := geocode.NewResolverFromConfig(&cfg.Geocode)
	processor := tracking.NewProcessor(resolver, authenticator, persister)

	// Event bus and scheduler
	bus, err := InitEventBus(&cfg.NATS, logging.NewWatermillLogger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	sched := scheduler.NewNATSScheduler(bus.Subscriber(), scheduler.NewBadgerRegistry(store), cfg.NATS.SubjectPrefix)
	sched.Define(cfg.Tracking.TaskName, processor.Handle)
	if err := sched.Restore(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to restore task registrations")
	}

	// Lifecycle
	prompter, err := permission.NewPolicyPrompter(&cfg.Permissions)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load permission policy")
	}
	registry := tracking.NewRegistry(sched, cfg.Tracking.TaskName, processor.Handle)
	controller := tracking.NewController(permission.NewGate(prompter), registry, tracking.ConfigFromSettings(&cfg.Tracking))

	registered, err := controller.Registered(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to read task registration")
	}
	logging.Info().Bool("registered", registered).Msg("Tracking controller ready")

	// HTTP
	fixes := eventbus.NewSamplePublisher(bus.Publisher(), eventbus.Subject(cfg.NATS.SubjectPrefix, cfg.Tracking.TaskName))
	handler := api.NewHandler(controller, authenticator, fixes, db)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.MiddlewareConfigFromServer(&cfg.Server)))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	bus.AddToSupervisor(tree)
	tree.AddMessagingService(services.NewTrackingService(controller, sched))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Courier tracker stopped")
}

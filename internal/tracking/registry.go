// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/courier-tracker/internal/config"
	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/models"
	"github.com/tomtom215/courier-tracker/internal/permission"
	"github.com/tomtom215/courier-tracker/internal/scheduler"
)

// Outcome is the non-error result of a registry call.
type Outcome int

const (
	OutcomeNone Outcome = iota
	Registered
	AlreadyRegistered
	Stopped
	NotRegistered
)

func (o Outcome) String() string {
	switch o {
	case Registered:
		return "registered"
	case AlreadyRegistered:
		return "already_registered"
	case Stopped:
		return "stopped"
	case NotRegistered:
		return "not_registered"
	default:
		return ""
	}
}

// ConfigFromSettings converts loaded settings to registration parameters.
func ConfigFromSettings(cfg *config.TrackingConfig) scheduler.Config {
	return scheduler.Config{
		MinInterval:           cfg.MinInterval,
		MinDisplacementMeters: cfg.MinDisplacementMeters,
		Accuracy:              cfg.Accuracy,
		ForegroundIndicator:   cfg.ForegroundIndicator,
		IndicatorTitle:        cfg.IndicatorTitle,
		IndicatorBody:         cfg.IndicatorBody,
	}
}

// Registry is the Task Registry.
type Registry struct {
	scheduler scheduler.Scheduler
	name      string
	handler   scheduler.Handler

	mu     sync.Mutex
	handle scheduler.Handle
}

// NewRegistry manages the registration of task name.
func NewRegistry(s scheduler.Scheduler, name string, handler scheduler.Handler) *Registry {
	return &Registry{scheduler: s, name: name, handler: handler}
}

// Name returns the task name.
func (r *Registry) Name() string {
	return r.name
}

// Start registers the task unless the scheduler already has it.
func (r *Registry) Start(ctx context.Context, capability models.Capability, cfg scheduler.Config) (Outcome, error) {
	if !capability.Granted() {
		return OutcomeNone, permission.ErrPermissionDenied
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	registered, err := r.scheduler.IsRegistered(ctx, r.name)
	if err != nil {
		return OutcomeNone, fmt.Errorf("query registration: %w", err)
	}
	if registered {
		logging.Ctx(ctx).Debug().Str("task", r.name).Msg("Task already registered")
		return AlreadyRegistered, nil
	}

	h, err := r.scheduler.Register(ctx, r.name, r.handler, cfg)
	if errors.Is(err, scheduler.ErrAlreadyRegistered) {
		return AlreadyRegistered, nil
	}
	if err != nil {
		return OutcomeNone, err
	}
	r.handle = h
	return Registered, nil
}

// Stop deregisters the task if the scheduler has it.
func (r *Registry) Stop(ctx context.Context) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	registered, err := r.scheduler.IsRegistered(ctx, r.name)
	if err != nil {
		return OutcomeNone, fmt.Errorf("query registration: %w", err)
	}
	if !registered {
		r.handle = scheduler.Handle{}
		return NotRegistered, nil
	}

	// After a restart the handle is unknown; the name alone identifies it.
	h := r.handle
	if h.Name == "" {
		h = scheduler.Handle{Name: r.name}
	}
	err = r.scheduler.Deregister(ctx, h)
	if errors.Is(err, scheduler.ErrNotRegistered) && h.ID != "" {
		err = r.scheduler.Deregister(ctx, scheduler.Handle{Name: r.name})
	}
	switch {
	case errors.Is(err, scheduler.ErrNotRegistered):
		r.handle = scheduler.Handle{}
		return NotRegistered, nil
	case err != nil:
		return OutcomeNone, err
	}

	r.handle = scheduler.Handle{}
	return Stopped, nil
}

// IsRegistered asks the scheduler.
func (r *Registry) IsRegistered(ctx context.Context) (bool, error) {
	return r.scheduler.IsRegistered(ctx, r.name)
}

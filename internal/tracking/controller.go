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
	"time"

	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/metrics"
	"github.com/tomtom215/courier-tracker/internal/models"
	"github.com/tomtom215/courier-tracker/internal/scheduler"
)

// ErrRegistrationFailed wraps a scheduler failure during start.
var ErrRegistrationFailed = errors.New("tracking: registration failed")

// State is the lifecycle state of the controller.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// TrackingSession records whether the user has tracking switched on.
type TrackingSession struct {
	Active    bool
	StartedAt time.Time
}

// CapabilityChecker is the Permission Gate.
type CapabilityChecker interface {
	EnsureCapability(ctx context.Context) (models.Capability, error)
}

// Controller is the lifecycle state machine. Start and Stop are serialized;
// State and Session may be read at any time.
type Controller struct {
	gate     CapabilityChecker
	registry *Registry
	cfg      scheduler.Config

	op sync.Mutex

	mu      sync.RWMutex
	state   State
	session TrackingSession
}

// NewController creates an idle controller.
func NewController(gate CapabilityChecker, registry *Registry, cfg scheduler.Config) *Controller {
	metrics.TrackingState.Set(float64(StateIdle))
	return &Controller{gate: gate, registry: registry, cfg: cfg}
}

func (c *Controller) setState(ctx context.Context, s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()

	metrics.TrackingState.Set(float64(s))
	logging.Ctx(ctx).Debug().Str("from", prev.String()).Str("to", s.String()).Msg("Tracking state changed")
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Session returns a copy of the tracking session.
func (c *Controller) Session() TrackingSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Registered asks the scheduler whether the task is registered.
func (c *Controller) Registered(ctx context.Context) (bool, error) {
	return c.registry.IsRegistered(ctx)
}

// Start moves Idle to Active through Starting. Starting while Active is a
// no-op that reports AlreadyRegistered. On permission denial or registration
// failure the controller returns to Idle and the error is returned.
func (c *Controller) Start(ctx context.Context) (Outcome, error) {
	c.op.Lock()
	defer c.op.Unlock()

	if c.State() == StateActive {
		return AlreadyRegistered, nil
	}

	c.setState(ctx, StateStarting)

	capability, err := c.gate.EnsureCapability(ctx)
	if err != nil {
		c.setState(ctx, StateIdle)
		logging.Ctx(ctx).Info().Err(err).Msg("Tracking not started")
		return OutcomeNone, err
	}

	outcome, err := c.registry.Start(ctx, capability, c.cfg)
	if err != nil {
		c.setState(ctx, StateIdle)
		logging.Ctx(ctx).Error().Err(err).Str("task", c.registry.Name()).Msg("Failed to register capture task")
		return OutcomeNone, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	c.mu.Lock()
	c.session = TrackingSession{Active: true, StartedAt: time.Now()}
	c.mu.Unlock()
	c.setState(ctx, StateActive)

	logging.Ctx(ctx).Info().
		Str("task", c.registry.Name()).
		Str("outcome", outcome.String()).
		Msg("Tracking started")
	return outcome, nil
}

// Stop moves an Active controller to Idle through Stopping. It deregisters
// even when Idle so a registration left by an earlier process can be
// cleared; that path stays Idle throughout. If deregistration fails the
// previous state is kept.
func (c *Controller) Stop(ctx context.Context) (Outcome, error) {
	c.op.Lock()
	defer c.op.Unlock()

	prev := c.State()
	if prev == StateActive {
		c.setState(ctx, StateStopping)
	}

	outcome, err := c.registry.Stop(ctx)
	if err != nil {
		c.setState(ctx, prev)
		logging.Ctx(ctx).Error().Err(err).Str("task", c.registry.Name()).Msg("Failed to deregister capture task")
		return OutcomeNone, err
	}

	c.mu.Lock()
	c.session = TrackingSession{}
	c.mu.Unlock()
	c.setState(ctx, StateIdle)

	logging.Ctx(ctx).Info().
		Str("task", c.registry.Name()).
		Str("outcome", outcome.String()).
		Msg("Tracking stopped")
	return outcome, nil
}

// Teardown stops tracking if it is on. Used at shutdown.
func (c *Controller) Teardown(ctx context.Context) error {
	if c.State() != StateActive {
		return nil
	}
	_, err := c.Stop(ctx)
	return err
}

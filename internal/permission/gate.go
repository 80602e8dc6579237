// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package permission acquires the capability to read device position in the
// foreground and then in the background.
package permission

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/metrics"
	"github.com/tomtom215/courier-tracker/internal/models"
)

// ErrPermissionDenied is returned when either positioning scope is refused.
var ErrPermissionDenied = errors.New("location permission denied")

// Scope is a positioning permission scope.
type Scope string

const (
	ScopeForeground Scope = "foreground"
	ScopeBackground Scope = "background"
)

// Prompter asks for a single scope. Implementations may block while the user
// decides.
type Prompter interface {
	Request(ctx context.Context, scope Scope) (bool, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, scope Scope) (bool, error)

// Request calls f.
func (f PrompterFunc) Request(ctx context.Context, scope Scope) (bool, error) {
	return f(ctx, scope)
}

// Gate is the Permission Gate.
type Gate struct {
	prompter Prompter
	now      func() time.Time
}

// NewGate creates a gate over prompter.
func NewGate(prompter Prompter) *Gate {
	return &Gate{prompter: prompter, now: time.Now}
}

// EnsureCapability requests the foreground scope and, only if it is granted,
// the background scope. There is no retry; a prompt error counts as denial.
func (g *Gate) EnsureCapability(ctx context.Context) (models.Capability, error) {
	if err := g.request(ctx, ScopeForeground); err != nil {
		return models.Capability{}, err
	}
	if err := g.request(ctx, ScopeBackground); err != nil {
		return models.Capability{}, err
	}

	return models.Capability{
		Foreground: true,
		Background: true,
		GrantedAt:  g.now(),
	}, nil
}

func (g *Gate) request(ctx context.Context, scope Scope) error {
	granted, err := g.prompter.Request(ctx, scope)
	switch {
	case err != nil:
		metrics.PermissionRequests.WithLabelValues(string(scope), "error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("scope", string(scope)).Msg("Permission prompt failed")
		return errors.Join(ErrPermissionDenied, err)
	case !granted:
		metrics.PermissionRequests.WithLabelValues(string(scope), "denied").Inc()
		logging.Ctx(ctx).Info().Str("scope", string(scope)).Msg("Permission denied")
		return ErrPermissionDenied
	}
	metrics.PermissionRequests.WithLabelValues(string(scope), "granted").Inc()
	return nil
}

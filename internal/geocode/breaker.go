// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package geocode

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/metrics"
	"github.com/tomtom215/courier-tracker/internal/models"
)

// BreakerSettings tunes a BreakerReverser. Zero values take the defaults
// used in production.
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32        // probes allowed while half-open (default 3)
	Interval     time.Duration // closed-state count reset (default 1m)
	Timeout      time.Duration // open-state cool down (default 2m)
	MinRequests  uint32        // requests before the ratio is considered (default 10)
	FailureRatio float64       // trip threshold (default 0.6)
}

// BreakerReverser stops calling a failing geocoder for a cool-down period.
// While open every lookup fails immediately with gobreaker.ErrOpenState,
// which the Resolver turns into a coordinate fallback.
type BreakerReverser struct {
	next Reverser
	cb   *gobreaker.CircuitBreaker[[]models.GeocodeCandidate]
	name string
}

// NewBreakerReverser wraps next with a circuit breaker.
func NewBreakerReverser(next Reverser, s BreakerSettings) *BreakerReverser {
	if s.Name == "" {
		s.Name = "geocoder"
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 2 * time.Minute
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.GeocodeCandidate](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("[CIRCUIT BREAKER] Opening geocoder circuit")
				return true
			}
			return false
		},
		// No candidates is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoCandidates)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerReverser{next: next, cb: cb, name: s.Name}
}

// Reverse implements Reverser.
func (b *BreakerReverser) Reverse(ctx context.Context, latitude, longitude float64) ([]models.GeocodeCandidate, error) {
	candidates, err := b.cb.Execute(func() ([]models.GeocodeCandidate, error) {
		return b.next.Reverse(ctx, latitude, longitude)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return candidates, err
}

// State returns the current breaker state.
func (b *BreakerReverser) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

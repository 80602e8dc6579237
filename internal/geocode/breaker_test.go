// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package geocode

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/courier-tracker/internal/models"
)

func TestBreakerReverserOpensAfterFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	failing := ReverserFunc(func(context.Context, float64, float64) ([]models.GeocodeCandidate, error) {
		calls++
		return nil, errors.New("upstream down")
	})
	b := NewBreakerReverser(failing, BreakerSettings{
		Name:        "test-open",
		MinRequests: 3,
		Timeout:     time.Hour,
	})

	for i := 0; i < 3; i++ {
		if _, err := b.Reverse(context.Background(), 1, 1); err == nil {
			t.Fatalf("call %d: error = nil", i)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}

	_, err := b.Reverse(context.Background(), 1, 1)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
	if calls != 3 {
		t.Errorf("upstream calls = %d, want 3", calls)
	}
}

func TestBreakerReverserNoCandidatesIsNotAFailure(t *testing.T) {
	t.Parallel()

	empty := ReverserFunc(func(context.Context, float64, float64) ([]models.GeocodeCandidate, error) {
		return nil, fmt.Errorf("%w: Unable to geocode", ErrNoCandidates)
	})
	b := NewBreakerReverser(empty, BreakerSettings{Name: "test-empty", MinRequests: 2})

	for i := 0; i < 5; i++ {
		_, _ = b.Reverse(context.Background(), 0, 0)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", b.State())
	}
}

func TestBreakerFallbackThroughResolver(t *testing.T) {
	t.Parallel()

	failing := ReverserFunc(func(context.Context, float64, float64) ([]models.GeocodeCandidate, error) {
		return nil, errors.New("timeout")
	})
	r := NewResolver(NewBreakerReverser(failing, BreakerSettings{Name: "test-resolver", MinRequests: 1, Timeout: time.Hour}))

	for i := 0; i < 3; i++ {
		got := r.Resolve(context.Background(), models.LocationSample{Latitude: 14.6, Longitude: 121})
		if got.Text != "14.6,121" {
			t.Errorf("Resolve() text = %q, want 14.6,121", got.Text)
		}
	}
}

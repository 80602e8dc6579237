// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/courier-tracker/internal/models"
	"github.com/tomtom215/courier-tracker/internal/permission"
	"github.com/tomtom215/courier-tracker/internal/tracking"
)

// TrackingStart switches tracking on.
//
// POST /api/v1/tracking/start
func (h *Handler) TrackingStart(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.tracking.Start(r.Context())
	switch {
	case errors.Is(err, permission.ErrPermissionDenied):
		respondError(w, r, http.StatusForbidden, "PERMISSION_DENIED",
			"Location permission is required in the foreground and background", nil)
		return
	case errors.Is(err, tracking.ErrRegistrationFailed):
		respondError(w, r, http.StatusBadGateway, "REGISTRATION_FAILED",
			"The capture task could not be registered", err)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start tracking", err)
		return
	}

	respondSuccess(w, http.StatusOK, models.TrackingStatus{
		State:   h.tracking.State().String(),
		Active:  h.tracking.State() == tracking.StateActive,
		Outcome: outcome.String(),
	})
}

// TrackingStop switches tracking off. Stopping twice is not an error.
//
// POST /api/v1/tracking/stop
func (h *Handler) TrackingStop(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.tracking.Stop(r.Context())
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "DEREGISTRATION_FAILED", "The capture task could not be stopped", err)
		return
	}

	respondSuccess(w, http.StatusOK, models.TrackingStatus{
		State:   h.tracking.State().String(),
		Active:  h.tracking.State() == tracking.StateActive,
		Outcome: outcome.String(),
	})
}

// TrackingStatus reports the controller state and the scheduler's view.
//
// GET /api/v1/tracking/status
func (h *Handler) TrackingStatus(w http.ResponseWriter, r *http.Request) {
	registered, err := h.tracking.Registered(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to query registration", err)
		return
	}

	state := h.tracking.State()
	respondSuccess(w, http.StatusOK, models.TrackingStatus{
		State:      state.String(),
		Active:     state == tracking.StateActive,
		Registered: registered,
	})
}

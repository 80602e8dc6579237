// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/courier-tracker/internal/models"
)

// Health reports liveness plus remote store connectivity. It always
// returns 200; a missing database only degrades the status.
//
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.pingDB(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	respondSuccess(w, http.StatusOK, models.HealthStatus{
		Status:            status,
		DatabaseConnected: dbConnected,
		TrackingState:     h.tracking.State().String(),
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 503 until the remote store answers.
//
// GET /health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.pingDB(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Remote store unavailable", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) pingDB(ctx context.Context) error {
	if h.db == nil {
		return errNoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.db.Ping(ctx)
}

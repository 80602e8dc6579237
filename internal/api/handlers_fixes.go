// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package api

import (
	"net/http"

	"github.com/tomtom215/courier-tracker/internal/models"
)

// FixesPost accepts a batch of position fixes from the device and forwards
// it to the capture task. Throttling and processing happen downstream, so a
// 202 only means the batch was handed over.
//
// POST /api/v1/fixes
func (h *Handler) FixesPost(w http.ResponseWriter, r *http.Request) {
	if h.fixes == nil {
		respondError(w, r, http.StatusServiceUnavailable, "INGEST_DISABLED", "Fix ingestion is not configured", nil)
		return
	}

	var req models.FixRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	batch := req.Batch()

	if err := h.fixes.PublishBatch(r.Context(), batch); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "PUBLISH_FAILED", "Fixes could not be delivered", err)
		return
	}
	respondSuccess(w, http.StatusAccepted, models.IngestResult{Accepted: len(batch.Samples)})
}

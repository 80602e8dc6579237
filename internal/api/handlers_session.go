// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/courier-tracker/internal/models"
	"github.com/tomtom215/courier-tracker/internal/session"
)

// SessionPut signs the courier in with a dispatch-issued token.
//
// PUT /api/v1/session
func (h *Handler) SessionPut(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	s, err := h.sessions.SignIn(r.Context(), req.Token)
	if errors.Is(err, session.ErrInvalidToken) {
		respondError(w, r, http.StatusUnauthorized, "INVALID_TOKEN", "Token is not valid", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store session", err)
		return
	}

	respondSuccess(w, http.StatusOK, models.SessionStatus{Authenticated: true, IdentityID: s.IdentityID})
}

// SessionDelete signs the courier out. Later fixes are discarded.
//
// DELETE /api/v1/session
func (h *Handler) SessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign out", err)
		return
	}
	respondSuccess(w, http.StatusOK, models.SessionStatus{})
}

// SessionGet reports the signed-in identity.
//
// GET /api/v1/session
func (h *Handler) SessionGet(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessions.CurrentIdentity(r.Context())
	if errors.Is(err, session.ErrUnauthenticated) {
		respondSuccess(w, http.StatusOK, models.SessionStatus{})
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read session", err)
		return
	}
	respondSuccess(w, http.StatusOK, models.SessionStatus{Authenticated: true, IdentityID: id})
}

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package models holds the value types shared by the capture pipeline and
// the HTTP API: location samples, resolved addresses, sync targets, and the
// response envelope.
package models

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package api

import "errors"

var errNoDatabase = errors.New("remote store is not configured")

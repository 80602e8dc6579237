// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

/*
Package tracking is the capture-and-sync core.

Three pieces cooperate:

  - Registry keeps exactly one scheduler registration for the capture task,
    deciding idempotency from the scheduler's own state.
  - Processor handles one scheduler invocation: it takes the most recent
    sample, resolves an address, looks up the signed-in identity and writes
    the current location. Nothing it does returns an error to the scheduler.
  - Controller is the Idle/Starting/Active/Stopping state machine behind the
    UI toggle. It acquires permissions before registering and never resumes
    on its own after a restart.

Wiring:

	proc := tracking.NewProcessor(resolver, authenticator, persister)
	reg := tracking.NewRegistry(sched, cfg.Tracking.TaskName, proc.Handle)
	ctrl := tracking.NewController(gate, reg, tracking.ConfigFromSettings(&cfg.Tracking))
*/
package tracking

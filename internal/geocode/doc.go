// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package geocode turns a location sample into a human-readable address.
//
// A Resolver performs one reverse lookup through a Reverser and composes the
// first candidate's fields into a single line. Resolution never fails: when
// the lookup errors, times out, or yields nothing usable, the address is the
// raw "{lat},{lng}" text and is marked as such.
//
// Reversers stack. The production chain is
//
//	CachingReverser -> BreakerReverser -> NominatimReverser
//
// so repeated coordinates skip the network, a failing geocoder is cut off
// instead of slowing every invocation, and Nominatim's one-request-per-second
// policy is respected.
package geocode

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package geocode

import (
	"strings"

	"github.com/tomtom215/courier-tracker/internal/models"
)

const componentSeparator = ", "

// Compose joins the present fields of a candidate in display order:
//
//  1. street, prefixed by the street number
//  2. city, region
//  3. postal code, country
//  4. district
//  5. subregion
//
// Blank fields are skipped. An empty result means the candidate carried
// nothing displayable.
func Compose(c models.GeocodeCandidate) string {
	parts := make([]string, 0, 7)

	if street := strings.TrimSpace(c.Street); street != "" {
		if number := strings.TrimSpace(c.StreetNumber); number != "" {
			street = number + " " + street
		}
		parts = append(parts, street)
	}
	parts = appendPresent(parts, c.City, c.Region)
	parts = appendPresent(parts, c.PostalCode, c.Country)
	parts = appendPresent(parts, c.District)
	parts = appendPresent(parts, c.Subregion)

	return strings.Join(parts, componentSeparator)
}

func appendPresent(parts []string, fields ...string) []string {
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return parts
}

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/courier-tracker/internal/models"
)

// NominatimConfig configures a NominatimReverser.
type NominatimConfig struct {
	BaseURL           string
	UserAgent         string
	Language          string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NominatimReverser queries the Nominatim /reverse endpoint.
// Requests are paced by a token bucket; Nominatim's public instance allows
// one request per second per application.
type NominatimReverser struct {
	client    *http.Client
	baseURL   string
	userAgent string
	language  string
	limiter   *rate.Limiter
}

// nominatimResponse is the subset of the jsonv2 reverse payload we read.
type nominatimResponse struct {
	Error   string           `json:"error"`
	Address nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Pedestrian    string `json:"pedestrian"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Municipality  string `json:"municipality"`
	State         string `json:"state"`
	Region        string `json:"region"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
	Suburb        string `json:"suburb"`
	CityDistrict  string `json:"city_district"`
	Neighbourhood string `json:"neighbourhood"`
	County        string `json:"county"`
	StateDistrict string `json:"state_district"`
}

// NewNominatimReverser creates a reverser against cfg.BaseURL.
func NewNominatimReverser(cfg NominatimConfig) *NominatimReverser {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &NominatimReverser{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		language:  cfg.Language,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Reverse implements Reverser. Nominatim returns a single best match, so the
// result has at most one candidate.
func (n *NominatimReverser) Reverse(ctx context.Context, latitude, longitude float64) ([]models.GeocodeCandidate, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("addressdetails", "1")
	params.Set("zoom", "18")
	if n.language != "" {
		params.Set("accept-language", n.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var result nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoCandidates, result.Error)
	}

	return []models.GeocodeCandidate{result.Address.candidate()}, nil
}

func (a nominatimAddress) candidate() models.GeocodeCandidate {
	return models.GeocodeCandidate{
		StreetNumber: a.HouseNumber,
		Street:       firstNonEmpty(a.Road, a.Pedestrian),
		City:         firstNonEmpty(a.City, a.Town, a.Village, a.Municipality),
		Region:       firstNonEmpty(a.State, a.Region),
		PostalCode:   a.Postcode,
		Country:      a.Country,
		District:     firstNonEmpty(a.Suburb, a.CityDistrict, a.Neighbourhood),
		Subregion:    firstNonEmpty(a.County, a.StateDistrict),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package geocode

import (
	"context"
	"strconv"
	"time"

	"github.com/tomtom215/courier-tracker/internal/cache"
	"github.com/tomtom215/courier-tracker/internal/metrics"
	"github.com/tomtom215/courier-tracker/internal/models"
)

// cachePrecision rounds coordinates to five decimals (about 1.1 m at the
// equator) before they are used as cache keys.
const cachePrecision = 5

// CachingReverser memoizes successful lookups. Failures are never cached so
// the next sample retries the geocoder.
type CachingReverser struct {
	next  Reverser
	cache *cache.LRU[[]models.GeocodeCandidate]
}

// NewCachingReverser wraps next with an LRU of the given size and TTL.
func NewCachingReverser(next Reverser, size int, ttl time.Duration) *CachingReverser {
	return &CachingReverser{
		next:  next,
		cache: cache.NewLRU[[]models.GeocodeCandidate](size, ttl),
	}
}

// Reverse implements Reverser.
func (c *CachingReverser) Reverse(ctx context.Context, latitude, longitude float64) ([]models.GeocodeCandidate, error) {
	key := cacheKey(latitude, longitude)
	if hit, ok := c.cache.Get(key); ok {
		metrics.GeocodeLookups.WithLabelValues("cache_hit").Inc()
		return hit, nil
	}

	candidates, err := c.next.Reverse(ctx, latitude, longitude)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 {
		c.cache.Add(key, candidates)
		metrics.GeocodeCacheEntries.Set(float64(c.cache.Len()))
	}
	return candidates, nil
}

func cacheKey(latitude, longitude float64) string {
	return strconv.FormatFloat(latitude, 'f', cachePrecision, 64) + "," +
		strconv.FormatFloat(longitude, 'f', cachePrecision, 64)
}

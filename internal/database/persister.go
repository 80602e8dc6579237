// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/metrics"
	"github.com/tomtom215/courier-tracker/internal/models"
)

var (
	// ErrNotFound means no record matched the identity in the active status,
	// typically because no delivery is in transit.
	ErrNotFound = errors.New("database: no active delivery record")

	// ErrRemote wraps every transport or server failure of a write.
	ErrRemote = errors.New("database: remote write failed")
)

// SRID is the spatial reference of written points (WGS 84).
const SRID = 4326

// Execer is the subset of pgxpool.Pool the persister needs.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PersisterConfig names the remote table layout.
type PersisterConfig struct {
	Table          string // optionally schema-qualified
	IdentityColumn string
	ActiveStatus   int
}

// Persister overwrites the current location of the active delivery.
type Persister struct {
	db           Execer
	query        string
	activeStatus int
}

// NewPersister prepares the UPDATE for the configured table.
func NewPersister(db Execer, cfg PersisterConfig) (*Persister, error) {
	if cfg.Table == "" || cfg.IdentityColumn == "" {
		return nil, fmt.Errorf("table and identity column are required")
	}

	table := pgx.Identifier(strings.Split(cfg.Table, ".")).Sanitize()
	identity := pgx.Identifier{cfg.IdentityColumn}.Sanitize()

	query := "UPDATE " + table +
		` SET "current_location" = $1, "current_location_geo" = ST_GeomFromEWKT($2)` +
		" WHERE " + identity + ` = $3 AND "status" = $4`

	return &Persister{db: db, query: query, activeStatus: cfg.ActiveStatus}, nil
}

// Target returns the record selector for identityID.
func (p *Persister) Target(identityID string) models.SyncTarget {
	return models.SyncTarget{IdentityID: identityID, ActiveStatusCode: p.activeStatus}
}

// Persist writes address and the sample's point to the record of identityID
// whose status is the active status. The write is an unconditional overwrite.
func (p *Persister) Persist(ctx context.Context, identityID string, address models.ResolvedAddress, sample models.LocationSample) error {
	target := p.Target(identityID)
	start := time.Now()

	tag, err := p.db.Exec(ctx, p.query,
		address.Text,
		GeometryEWKT(sample.Latitude, sample.Longitude),
		target.IdentityID,
		target.ActiveStatusCode,
	)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordPersist("remote_error", duration)
		return fmt.Errorf("%w: %w", ErrRemote, err)
	}

	switch n := tag.RowsAffected(); {
	case n == 0:
		metrics.RecordPersist("not_found", duration)
		return ErrNotFound
	case n > 1:
		logging.Ctx(ctx).Warn().
			Int64("rows", n).
			Str("identity_id", target.IdentityID).
			Msg("More than one active delivery updated for identity")
	}

	metrics.RecordPersist("persisted", duration)
	return nil
}

// GeometryEWKT renders a WGS 84 point as extended WKT. PostGIS points are
// longitude first: (14.6, 121.0) becomes "SRID=4326;POINT(121 14.6)".
func GeometryEWKT(latitude, longitude float64) string {
	return "SRID=" + strconv.Itoa(SRID) + ";POINT(" +
		strconv.FormatFloat(longitude, 'f', -1, 64) + " " +
		strconv.FormatFloat(latitude, 'f', -1, 64) + ")"
}

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/courier-tracker/internal/database"
	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/metrics"
	"github.com/tomtom215/courier-tracker/internal/models"
	"github.com/tomtom215/courier-tracker/internal/scheduler"
	"github.com/tomtom215/courier-tracker/internal/session"
)

// AddressResolver turns a sample into display text. It never fails.
type AddressResolver interface {
	Resolve(ctx context.Context, sample models.LocationSample) models.ResolvedAddress
}

// IdentityResolver returns the signed-in identity or session.ErrUnauthenticated.
type IdentityResolver interface {
	CurrentIdentity(ctx context.Context) (string, error)
}

// RecordWriter writes the current location of an identity.
type RecordWriter interface {
	Persist(ctx context.Context, identityID string, address models.ResolvedAddress, sample models.LocationSample) error
}

// InvocationOutcome labels how an invocation ended.
type InvocationOutcome string

const (
	InvocationBatchError      InvocationOutcome = "batch_error"
	InvocationEmpty           InvocationOutcome = "empty"
	InvocationUnauthenticated InvocationOutcome = "unauthenticated"
	InvocationIdentityError   InvocationOutcome = "identity_error"
	InvocationPersisted       InvocationOutcome = "persisted"
	InvocationNotFound        InvocationOutcome = "not_found"
	InvocationRemoteError     InvocationOutcome = "remote_error"
)

// Processor runs one invocation of the capture task.
type Processor struct {
	resolver AddressResolver
	identity IdentityResolver
	writer   RecordWriter
}

// NewProcessor creates a processor.
func NewProcessor(resolver AddressResolver, identity IdentityResolver, writer RecordWriter) *Processor {
	return &Processor{resolver: resolver, identity: identity, writer: writer}
}

// Handle is the scheduler.Handler for the capture task.
func (p *Processor) Handle(ctx context.Context, batch scheduler.Batch) {
	p.HandleInvocation(ctx, batch)
}

// HandleInvocation resolves, authenticates and persists the most recent
// sample of batch, in that order. Failures are logged and end the
// invocation; the next delivery is the retry.
func (p *Processor) HandleInvocation(ctx context.Context, batch scheduler.Batch) InvocationOutcome {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)
	start := time.Now()

	outcome := p.run(ctx, batch)
	metrics.RecordInvocation(string(outcome), time.Since(start))
	log.Debug().Str("outcome", string(outcome)).Dur("took", time.Since(start)).Msg("Invocation finished")
	return outcome
}

func (p *Processor) run(ctx context.Context, batch scheduler.Batch) InvocationOutcome {
	log := logging.Ctx(ctx)

	if batch.Err != nil {
		log.Warn().Err(batch.Err).Msg("Location delivery failed, dropping batch")
		metrics.SamplesDiscarded.WithLabelValues("batch_error").Inc()
		return InvocationBatchError
	}

	sample, ok := models.Latest(batch.Samples)
	if !ok {
		return InvocationEmpty
	}
	if n := len(batch.Samples) - 1; n > 0 {
		metrics.SamplesDiscarded.WithLabelValues("superseded").Add(float64(n))
	}

	address := p.resolver.Resolve(ctx, sample)

	identityID, err := p.identity.CurrentIdentity(ctx)
	if errors.Is(err, session.ErrUnauthenticated) {
		log.Debug().Msg("No signed-in courier, discarding sample")
		metrics.SamplesDiscarded.WithLabelValues("unauthenticated").Inc()
		return InvocationUnauthenticated
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve current identity")
		metrics.SamplesDiscarded.WithLabelValues("identity_error").Inc()
		return InvocationIdentityError
	}

	err = p.writer.Persist(ctx, identityID, address, sample)
	switch {
	case err == nil:
		log.Debug().
			Str("identity_id", identityID).
			Str("address_source", address.Source.String()).
			Msg("Current location updated")
		return InvocationPersisted
	case errors.Is(err, database.ErrNotFound):
		log.Info().Str("identity_id", identityID).Msg("No active delivery for courier, location not written")
		return InvocationNotFound
	default:
		log.Warn().Err(err).Str("identity_id", identityID).Msg("Remote location write failed")
		return InvocationRemoteError
	}
}

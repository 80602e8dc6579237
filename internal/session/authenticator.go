// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/courier-tracker/internal/logging"
)

// Authenticator answers "who is this device signed in as".
type Authenticator struct {
	store    Store
	verifier *TokenVerifier
}

// NewAuthenticator creates an authenticator over store.
func NewAuthenticator(store Store, verifier *TokenVerifier) *Authenticator {
	return &Authenticator{store: store, verifier: verifier}
}

// CurrentIdentity returns the signed-in identity or ErrUnauthenticated.
// The stored token is re-verified on every call so an expired or revoked
// signing secret ends the session without a separate sweep.
func (a *Authenticator) CurrentIdentity(ctx context.Context) (string, error) {
	s, err := a.store.Load(ctx)
	if errors.Is(err, ErrSessionNotFound) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if s.IsExpired() {
		return "", ErrUnauthenticated
	}

	claims, err := a.verifier.Verify(s.Token)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Stored session token no longer verifies")
		return "", ErrUnauthenticated
	}
	return claims.Subject, nil
}

// SignIn verifies token and stores it as the device session.
func (a *Authenticator) SignIn(ctx context.Context, token string) (*Session, error) {
	claims, err := a.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	s := &Session{
		IdentityID: claims.Subject,
		Token:      token,
		CreatedAt:  time.Now(),
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	if err := a.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	logging.Ctx(ctx).Info().Str("identity_id", s.IdentityID).Msg("Courier signed in")
	return s, nil
}

// SignOut removes the device session.
func (a *Authenticator) SignOut(ctx context.Context) error {
	if err := a.store.Delete(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	logging.Ctx(ctx).Info().Msg("Courier signed out")
	return nil
}

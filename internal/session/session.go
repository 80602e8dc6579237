// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package session resolves the courier identity the device is signed in as.
//
// The device holds at most one session. It is created from a signed courier
// token and kept in a durable store so background invocations can resolve
// the identity after the process has been restarted.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrUnauthenticated means no valid session exists. Location samples
	// taken in this state are discarded.
	ErrUnauthenticated = errors.New("session: unauthenticated")

	// ErrSessionNotFound is returned by a Store with no session.
	ErrSessionNotFound = errors.New("session: not found")

	// ErrInvalidToken is returned when a courier token fails verification.
	ErrInvalidToken = errors.New("session: invalid token")
)

// Session is the signed-in state of the device.
type Session struct {
	IdentityID string    `json:"identity_id"`
	Token      string    `json:"token"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has passed its expiry. A zero
// ExpiresAt never expires.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Store persists the device session.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context) (*Session, error)
	Delete(ctx context.Context) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	current *Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.current = &cp
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, ErrSessionNotFound
	}
	cp := *m.current
	return &cp, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}

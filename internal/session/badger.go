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

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const currentSessionKey = "session:current"

// BadgerStore keeps the device session in BadgerDB so it survives restarts.
// Entries carry a TTL matching the session expiry and disappear on their own.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a store on an open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Save implements Store, replacing any previous session.
func (b *BadgerStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	entry := badger.NewEntry([]byte(currentSessionKey), data)
	if !s.ExpiresAt.IsZero() {
		ttl := time.Until(s.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("session already expired at %s", s.ExpiresAt.Format(time.RFC3339))
		}
		entry = entry.WithTTL(ttl)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		return nil
	})
}

// Load implements Store.
func (b *BadgerStore) Load(_ context.Context) (*Session, error) {
	var s Session
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(currentSessionKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		})
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete implements Store. Deleting a missing session is not an error.
func (b *BadgerStore) Delete(_ context.Context) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(currentSessionKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const registrationKeyPrefix = "registration:"

// Registration is the persisted state of one registered task.
type Registration struct {
	Handle       Handle    `json:"handle"`
	Config       Config    `json:"config"`
	RegisteredAt time.Time `json:"registered_at"`
}

// BadgerRegistry persists registrations so they outlive the process, the way
// an operating system keeps background tasks across app restarts.
type BadgerRegistry struct {
	db *badger.DB
}

// NewBadgerRegistry creates a registry on an open database.
func NewBadgerRegistry(db *badger.DB) *BadgerRegistry {
	return &BadgerRegistry{db: db}
}

func registrationKey(name string) []byte {
	return []byte(registrationKeyPrefix + name)
}

// Put stores reg, replacing any registration with the same name.
func (r *BadgerRegistry) Put(_ context.Context, reg Registration) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(registrationKey(reg.Handle.Name), data)
	})
}

// Get returns the registration for name. ok is false when there is none.
func (r *BadgerRegistry) Get(_ context.Context, name string) (reg Registration, ok bool, err error) {
	err = r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(registrationKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &reg)
		})
	})
	if err != nil {
		return Registration{}, false, fmt.Errorf("get registration %s: %w", name, err)
	}
	return reg, ok, nil
}

// Delete removes name. Deleting a missing registration is not an error.
func (r *BadgerRegistry) Delete(_ context.Context, name string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(registrationKey(name)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete registration %s: %w", name, err)
		}
		return nil
	})
}

// List returns every stored registration.
func (r *BadgerRegistry) List(_ context.Context) ([]Registration, error) {
	var regs []Registration
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(registrationKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var reg Registration
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &reg)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			regs = append(regs, reg)
		}
		return nil
	})
	return regs, err
}

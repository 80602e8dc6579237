// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package schedulertest provides a deterministic in-memory scheduler that
// invokes handlers synchronously.
package schedulertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/courier-tracker/internal/models"
	"github.com/tomtom215/courier-tracker/internal/scheduler"
)

// Fake implements scheduler.Scheduler. The zero value is not usable; call New.
type Fake struct {
	mu       sync.Mutex
	seq      int
	active   map[string]*entry
	register int
	history  []string

	// RegisterErr, when set, is returned by the next Register call.
	RegisterErr error
	// DeregisterErr, when set, is returned by the next Deregister call.
	DeregisterErr error
	// BeforeDeregister, when set, runs at the start of every Deregister call.
	BeforeDeregister func(h scheduler.Handle)
}

type entry struct {
	handle  scheduler.Handle
	handler scheduler.Handler
	config  scheduler.Config
}

var _ scheduler.Scheduler = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{active: make(map[string]*entry)}
}

// Register implements scheduler.Scheduler.
func (f *Fake) Register(_ context.Context, name string, handler scheduler.Handler, cfg scheduler.Config) (scheduler.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.RegisterErr; err != nil {
		f.RegisterErr = nil
		return scheduler.Handle{}, err
	}
	if _, ok := f.active[name]; ok {
		return scheduler.Handle{}, scheduler.ErrAlreadyRegistered
	}

	f.seq++
	h := scheduler.Handle{Name: name, ID: fmt.Sprintf("fake-%d", f.seq)}
	f.active[name] = &entry{handle: h, handler: handler, config: cfg}
	f.register++
	f.history = append(f.history, "register:"+name)
	return h, nil
}

// Deregister implements scheduler.Scheduler.
func (f *Fake) Deregister(_ context.Context, h scheduler.Handle) error {
	if f.BeforeDeregister != nil {
		f.BeforeDeregister(h)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.DeregisterErr; err != nil {
		f.DeregisterErr = nil
		return err
	}
	e, ok := f.active[h.Name]
	if !ok || (h.ID != "" && e.handle.ID != h.ID) {
		return scheduler.ErrNotRegistered
	}
	delete(f.active, h.Name)
	f.history = append(f.history, "deregister:"+h.Name)
	return nil
}

// IsRegistered implements scheduler.Scheduler.
func (f *Fake) IsRegistered(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.active[name]
	return ok, nil
}

// Preregister simulates a registration left behind by a previous process.
func (f *Fake) Preregister(name string, handler scheduler.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.active[name] = &entry{
		handle:  scheduler.Handle{Name: name, ID: fmt.Sprintf("fake-%d", f.seq)},
		handler: handler,
	}
}

// Deliver runs the handler registered under name synchronously. It reports
// false when name is not registered.
func (f *Fake) Deliver(ctx context.Context, name string, batch scheduler.Batch) bool {
	f.mu.Lock()
	e, ok := f.active[name]
	f.mu.Unlock()
	if !ok || e.handler == nil {
		return false
	}
	e.handler(ctx, batch)
	return true
}

// DeliverSamples is Deliver with a successful batch.
func (f *Fake) DeliverSamples(ctx context.Context, name string, samples ...models.LocationSample) bool {
	return f.Deliver(ctx, name, scheduler.Batch{Samples: samples})
}

// ActiveCount returns the number of live registrations.
func (f *Fake) ActiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

// RegisterCount returns how many times Register succeeded.
func (f *Fake) RegisterCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.register
}

// Config returns the config name was registered with.
func (f *Fake) Config(name string) (scheduler.Config, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.active[name]
	if !ok {
		return scheduler.Config{}, false
	}
	return e.config, true
}

// History returns the register/deregister calls in order.
func (f *Fake) History() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.history...)
}

// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/tomtom215/courier-tracker/internal/eventbus"
	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/metrics"
)

// Registry is the durable registration state consulted by IsRegistered.
type Registry interface {
	Put(ctx context.Context, reg Registration) error
	Get(ctx context.Context, name string) (Registration, bool, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Registration, error)
}

// NATSScheduler delivers batches published on eventbus.Subject for each
// registered task.
type NATSScheduler struct {
	subscriber    message.Subscriber
	registry      Registry
	subjectPrefix string

	mu     sync.Mutex
	tasks  map[string]Handler
	active map[string]*subscription
	wg     sync.WaitGroup
}

type subscription struct {
	handle   Handle
	handler  Handler
	throttle *Throttle
	cancel   context.CancelFunc
}

// NewNATSScheduler creates a scheduler. Call Restore after defining tasks to
// resume registrations persisted by a previous process.
func NewNATSScheduler(subscriber message.Subscriber, registry Registry, subjectPrefix string) *NATSScheduler {
	return &NATSScheduler{
		subscriber:    subscriber,
		registry:      registry,
		subjectPrefix: subjectPrefix,
		tasks:         make(map[string]Handler),
		active:        make(map[string]*subscription),
	}
}

// Define binds handler to name without registering it.
func (s *NATSScheduler) Define(name string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = handler
}

// Restore re-subscribes every persisted registration whose task is defined.
func (s *NATSScheduler) Restore(ctx context.Context) error {
	regs, err := s.registry.List(ctx)
	if err != nil {
		return fmt.Errorf("list registrations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, reg := range regs {
		handler, ok := s.tasks[reg.Handle.Name]
		if !ok {
			logging.Warn().Str("task", reg.Handle.Name).Msg("Persisted registration has no task definition")
			continue
		}
		if _, running := s.active[reg.Handle.Name]; running {
			continue
		}
		if err := s.subscribe(ctx, reg.Handle, handler, reg.Config); err != nil {
			return err
		}
		logging.Info().
			Str("task", reg.Handle.Name).
			Str("registration_id", reg.Handle.ID).
			Time("registered_at", reg.RegisteredAt).
			Msg("Restored task registration")
	}
	return nil
}

// Register implements Scheduler.
func (s *NATSScheduler) Register(ctx context.Context, name string, handler Handler, cfg Config) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.active[name]; running {
		return Handle{}, ErrAlreadyRegistered
	}

	handle := Handle{Name: name, ID: uuid.NewString()}
	reg := Registration{Handle: handle, Config: cfg, RegisteredAt: time.Now().UTC()}
	if err := s.registry.Put(ctx, reg); err != nil {
		return Handle{}, fmt.Errorf("persist registration: %w", err)
	}
	if err := s.subscribe(ctx, handle, handler, cfg); err != nil {
		if delErr := s.registry.Delete(ctx, name); delErr != nil {
			logging.Warn().Err(delErr).Str("task", name).Msg("Failed to roll back registration")
		}
		return Handle{}, err
	}
	s.tasks[name] = handler

	logging.Info().
		Str("task", name).
		Str("registration_id", handle.ID).
		Dur("min_interval", cfg.MinInterval).
		Float64("min_displacement_m", cfg.MinDisplacementMeters).
		Str("accuracy", cfg.Accuracy).
		Msg("Task registered")
	return handle, nil
}

// subscribe must be called with s.mu held.
func (s *NATSScheduler) subscribe(ctx context.Context, handle Handle, handler Handler, cfg Config) error {
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	messages, err := s.subscriber.Subscribe(subCtx, eventbus.Subject(s.subjectPrefix, handle.Name))
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe %s: %w", handle.Name, err)
	}

	sub := &subscription{
		handle:   handle,
		handler:  handler,
		throttle: NewThrottle(cfg),
		cancel:   cancel,
	}
	s.active[handle.Name] = sub
	metrics.Registrations.Set(float64(len(s.active)))

	s.wg.Add(1)
	go s.consume(subCtx, sub, messages)
	return nil
}

// Deregister implements Scheduler. The in-flight invocation, if any, runs to
// completion.
func (s *NATSScheduler) Deregister(ctx context.Context, handle Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok, err := s.registry.Get(ctx, handle.Name)
	if err != nil {
		return err
	}
	if !ok || (handle.ID != "" && reg.Handle.ID != handle.ID) {
		return ErrNotRegistered
	}

	if sub, running := s.active[handle.Name]; running {
		sub.cancel()
		delete(s.active, handle.Name)
		metrics.Registrations.Set(float64(len(s.active)))
	}
	if err := s.registry.Delete(ctx, handle.Name); err != nil {
		return err
	}

	logging.Info().Str("task", handle.Name).Str("registration_id", reg.Handle.ID).Msg("Task deregistered")
	return nil
}

// IsRegistered implements Scheduler from the persisted state, so it stays
// true across restarts until Deregister.
func (s *NATSScheduler) IsRegistered(ctx context.Context, name string) (bool, error) {
	_, ok, err := s.registry.Get(ctx, name)
	return ok, err
}

// Close stops every subscription and waits for in-flight invocations.
// Registrations stay persisted.
func (s *NATSScheduler) Close() error {
	s.mu.Lock()
	for name, sub := range s.active {
		sub.cancel()
		delete(s.active, name)
	}
	metrics.Registrations.Set(0)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *NATSScheduler) consume(ctx context.Context, sub *subscription, messages <-chan *message.Message) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				msg.Nack()
				return
			}
			s.deliver(ctx, sub, msg)
			msg.Ack()
		}
	}
}

func (s *NATSScheduler) deliver(ctx context.Context, sub *subscription, msg *message.Message) {
	// Handlers outlive Deregister.
	invokeCtx := context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("task", sub.handle.Name).
				Interface("panic", r).
				Msg("Task handler panicked")
		}
	}()

	samples, err := eventbus.DecodeBatch(msg)
	if err != nil {
		sub.handler(invokeCtx, Batch{Err: err})
		return
	}

	passed := sub.throttle.Filter(samples)
	if dropped := len(samples) - len(passed); dropped > 0 {
		metrics.SamplesDiscarded.WithLabelValues("throttled").Add(float64(dropped))
	}
	if len(samples) > 0 && len(passed) == 0 {
		return
	}
	sub.handler(invokeCtx, Batch{Samples: passed})
}

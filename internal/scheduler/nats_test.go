// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/courier-tracker/internal/config"
	"github.com/tomtom215/courier-tracker/internal/eventbus"
	"github.com/tomtom215/courier-tracker/internal/logging"
	"github.com/tomtom215/courier-tracker/internal/models"
)

const testTask = "courier-location"

type natsFixture struct {
	url       string
	registry  *BadgerRegistry
	publisher *eventbus.SamplePublisher
}

func newNATSFixture(t *testing.T) *natsFixture {
	t.Helper()

	srv, err := eventbus.NewEmbeddedServer(&config.NATSConfig{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	pub, err := eventbus.NewPublisher(srv.ClientURL(), testWatermillLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pub.Close() })

	return &natsFixture{
		url:       srv.ClientURL(),
		registry:  NewBadgerRegistry(createTestBadgerDB(t)),
		publisher: eventbus.NewSamplePublisher(pub, eventbus.Subject("tracking", testTask)),
	}
}

func testWatermillLogger() *logging.WatermillLogger {
	return logging.NewWatermillLoggerWithLogger(logging.NewTestLogger(io.Discard))
}

func (f *natsFixture) newScheduler(t *testing.T) *NATSScheduler {
	t.Helper()
	sub, err := eventbus.NewSubscriber(f.url, "test", testWatermillLogger())
	if err != nil {
		t.Fatal(err)
	}
	s := NewNATSScheduler(sub, f.registry, "tracking")
	t.Cleanup(func() {
		s.Close()
		sub.Close()
	})
	return s
}

func waitBatch(t *testing.T, ch <-chan Batch) Batch {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch")
		return Batch{}
	}
}

func TestNATSScheduler_RegisterDeliverDeregister(t *testing.T) {
	f := newNATSFixture(t)
	s := f.newScheduler(t)
	ctx := context.Background()

	batches := make(chan Batch, 4)
	handler := func(_ context.Context, b Batch) { batches <- b }

	h, err := s.Register(ctx, testTask, handler, DefaultConfig())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := s.Register(ctx, testTask, handler, DefaultConfig()); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("second Register() error = %v, want ErrAlreadyRegistered", err)
	}
	if ok, _ := s.IsRegistered(ctx, testTask); !ok {
		t.Error("IsRegistered() = false after Register")
	}

	time.Sleep(200 * time.Millisecond)

	now := time.Now()
	sample := models.LocationSample{Latitude: 14.6, Longitude: 121, CapturedAt: now}
	if err := f.publisher.PublishBatch(ctx, models.SampleBatch{Samples: []models.LocationSample{sample}}); err != nil {
		t.Fatal(err)
	}
	b := waitBatch(t, batches)
	if b.Err != nil || len(b.Samples) != 1 {
		t.Fatalf("batch = %+v", b)
	}

	// Throttled: one second later, same place. Then a delivery error, which
	// must still reach the handler.
	stale := models.LocationSample{Latitude: 14.6, Longitude: 121, CapturedAt: now.Add(time.Second)}
	if err := f.publisher.PublishBatch(ctx, models.SampleBatch{Samples: []models.LocationSample{stale}}); err != nil {
		t.Fatal(err)
	}
	if err := f.publisher.PublishDeliveryError(ctx, "provider unavailable"); err != nil {
		t.Fatal(err)
	}
	b = waitBatch(t, batches)
	if !errors.Is(b.Err, eventbus.ErrDelivery) {
		t.Errorf("expected the throttled batch to be skipped and the error delivered, got %+v", b)
	}

	if err := s.Deregister(ctx, Handle{Name: testTask, ID: "stale"}); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Deregister(stale handle) error = %v, want ErrNotRegistered", err)
	}
	if err := s.Deregister(ctx, h); err != nil {
		t.Fatalf("Deregister() error = %v", err)
	}
	if ok, _ := s.IsRegistered(ctx, testTask); ok {
		t.Error("IsRegistered() = true after Deregister")
	}
	if err := s.Deregister(ctx, h); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("second Deregister() error = %v, want ErrNotRegistered", err)
	}
}

func TestNATSScheduler_RestoreAfterRestart(t *testing.T) {
	f := newNATSFixture(t)
	ctx := context.Background()

	first := f.newScheduler(t)
	if _, err := first.Register(ctx, testTask, func(context.Context, Batch) {}, DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	first.Close()

	// A new process sees the registration before it resubscribes.
	second := f.newScheduler(t)
	if ok, _ := second.IsRegistered(ctx, testTask); !ok {
		t.Fatal("registration should survive a restart")
	}

	batches := make(chan Batch, 1)
	second.Define(testTask, func(_ context.Context, b Batch) { batches <- b })
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	sample := models.LocationSample{Latitude: 1, Longitude: 1, CapturedAt: time.Now()}
	if err := f.publisher.PublishBatch(ctx, models.SampleBatch{Samples: []models.LocationSample{sample}}); err != nil {
		t.Fatal(err)
	}
	if b := waitBatch(t, batches); len(b.Samples) != 1 {
		t.Errorf("restored handler got %+v", b)
	}

	if err := second.Deregister(ctx, Handle{Name: testTask}); err != nil {
		t.Errorf("Deregister(by name) error = %v", err)
	}
}

func TestNATSScheduler_DeregisterDoesNotCancelInFlight(t *testing.T) {
	f := newNATSFixture(t)
	s := f.newScheduler(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	result := make(chan error, 1)
	handler := func(ctx context.Context, _ Batch) {
		close(started)
		<-release
		result <- ctx.Err()
	}

	h, err := s.Register(ctx, testTask, handler, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	sample := models.LocationSample{Latitude: 1, Longitude: 1, CapturedAt: time.Now()}
	if err := f.publisher.PublishBatch(ctx, models.SampleBatch{Samples: []models.LocationSample{sample}}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not invoked")
	}
	if err := s.Deregister(ctx, h); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-result; err != nil {
		t.Errorf("in-flight handler context error = %v, want nil", err)
	}
}

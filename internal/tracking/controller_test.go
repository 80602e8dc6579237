// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/courier-tracker/internal/models"
	"github.com/tomtom215/courier-tracker/internal/permission"
	"github.com/tomtom215/courier-tracker/internal/scheduler"
	"github.com/tomtom215/courier-tracker/internal/scheduler/schedulertest"
)

const taskName = "courier-location"

type mockGate struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (g *mockGate) EnsureCapability(context.Context) (models.Capability, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return models.Capability{}, g.err
	}
	return models.Capability{Foreground: true, Background: true, GrantedAt: time.Now()}, nil
}

type controllerFixture struct {
	sched *schedulertest.Fake
	gate  *mockGate
	proc  *Processor
	w     *mockWriter
	ctrl  *Controller
}

func newControllerFixture() *controllerFixture {
	f := &controllerFixture{
		sched: schedulertest.New(),
		gate:  &mockGate{},
		w:     &mockWriter{},
	}
	f.proc = NewProcessor(&mockResolver{}, &mockIdentity{id: "courier-42"}, f.w)
	f.ctrl = NewController(f.gate, NewRegistry(f.sched, taskName, f.proc.Handle), scheduler.DefaultConfig())
	return f
}

func TestController_StartStop(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	if f.ctrl.State() != StateIdle || f.ctrl.Session().Active {
		t.Fatalf("new controller state = %s, session = %+v", f.ctrl.State(), f.ctrl.Session())
	}

	outcome, err := f.ctrl.Start(ctx)
	if err != nil || outcome != Registered {
		t.Fatalf("Start() = %s, %v; want registered", outcome, err)
	}
	if f.ctrl.State() != StateActive || !f.ctrl.Session().Active {
		t.Errorf("state = %s, session = %+v", f.ctrl.State(), f.ctrl.Session())
	}
	cfg, ok := f.sched.Config(taskName)
	if !ok || cfg.MinInterval != 5*time.Second || cfg.MinDisplacementMeters != 10 || !cfg.ForegroundIndicator {
		t.Errorf("registered config = %+v", cfg)
	}

	if !f.sched.DeliverSamples(ctx, taskName, sampleAt(0, 14.6, 121)) {
		t.Fatal("task should be registered")
	}
	if len(f.w.calls) != 1 {
		t.Errorf("Persist called %d times, want 1", len(f.w.calls))
	}

	outcome, err = f.ctrl.Stop(ctx)
	if err != nil || outcome != Stopped {
		t.Fatalf("Stop() = %s, %v; want stopped", outcome, err)
	}
	if f.ctrl.State() != StateIdle || f.ctrl.Session().Active {
		t.Errorf("after stop state = %s, session = %+v", f.ctrl.State(), f.ctrl.Session())
	}
	if f.sched.DeliverSamples(ctx, taskName, sampleAt(10, 14.7, 121)) {
		t.Error("no invocations should be delivered after stop")
	}

	outcome, err = f.ctrl.Stop(ctx)
	if err != nil || outcome != NotRegistered {
		t.Errorf("second Stop() = %s, %v; want not_registered", outcome, err)
	}
}

func TestController_RepeatedStartRegistersOnce(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	if _, err := f.ctrl.Start(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		outcome, err := f.ctrl.Start(ctx)
		if err != nil || outcome != AlreadyRegistered {
			t.Errorf("Start() #%d = %s, %v; want already_registered", i+2, outcome, err)
		}
	}
	if f.sched.RegisterCount() != 1 || f.sched.ActiveCount() != 1 {
		t.Errorf("register count = %d, active = %d; want 1, 1", f.sched.RegisterCount(), f.sched.ActiveCount())
	}
	if f.gate.calls != 1 {
		t.Errorf("gate consulted %d times, want 1", f.gate.calls)
	}
}

func TestController_ConcurrentStartsRegisterOnce(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	outcomes := make(chan Outcome, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := f.ctrl.Start(ctx)
			if err != nil {
				t.Errorf("Start() error = %v", err)
			}
			outcomes <- o
		}()
	}
	wg.Wait()
	close(outcomes)

	registered := 0
	for o := range outcomes {
		if o == Registered {
			registered++
		}
	}
	if registered != 1 || f.sched.ActiveCount() != 1 {
		t.Errorf("registered outcomes = %d, active = %d; want 1, 1", registered, f.sched.ActiveCount())
	}
}

func TestController_StopThenStartLeavesOneRegistration(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	if _, err := f.ctrl.Start(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = f.ctrl.Stop(ctx) }()
		go func() { defer wg.Done(); _, _ = f.ctrl.Start(ctx) }()
		wg.Wait()

		if n := f.sched.ActiveCount(); n > 1 {
			t.Fatalf("round %d: %d registrations", i, n)
		}
	}

	if _, err := f.ctrl.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ctrl.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if n := f.sched.ActiveCount(); n != 1 {
		t.Errorf("active registrations = %d, want 1", n)
	}
}

func TestController_PermissionDenied(t *testing.T) {
	f := newControllerFixture()
	f.gate.err = permission.ErrPermissionDenied

	outcome, err := f.ctrl.Start(context.Background())
	if !errors.Is(err, permission.ErrPermissionDenied) {
		t.Errorf("Start() error = %v, want ErrPermissionDenied", err)
	}
	if outcome != OutcomeNone {
		t.Errorf("outcome = %s, want none", outcome)
	}
	if f.ctrl.State() != StateIdle {
		t.Errorf("state = %s, want idle", f.ctrl.State())
	}
	if f.sched.RegisterCount() != 0 {
		t.Error("must not register without permission")
	}
}

func TestController_RegistrationFailure(t *testing.T) {
	f := newControllerFixture()
	f.sched.RegisterErr = errors.New("scheduler unavailable")

	_, err := f.ctrl.Start(context.Background())
	if !errors.Is(err, ErrRegistrationFailed) {
		t.Errorf("Start() error = %v, want ErrRegistrationFailed", err)
	}
	if f.ctrl.State() != StateIdle || f.ctrl.Session().Active {
		t.Errorf("state = %s, want idle", f.ctrl.State())
	}

	// No automatic retry; an explicit start succeeds.
	if outcome, err := f.ctrl.Start(context.Background()); err != nil || outcome != Registered {
		t.Errorf("retry Start() = %s, %v", outcome, err)
	}
}

func TestController_DeregisterFailureKeepsActive(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	if _, err := f.ctrl.Start(ctx); err != nil {
		t.Fatal(err)
	}
	f.sched.DeregisterErr = errors.New("scheduler busy")
	if _, err := f.ctrl.Stop(ctx); err == nil {
		t.Fatal("Stop() should fail")
	}
	if f.ctrl.State() != StateActive {
		t.Errorf("state = %s, want active", f.ctrl.State())
	}
}

func TestController_NoAutoResumeAfterRestart(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	// The scheduler still holds the registration from before the restart.
	f.sched.Preregister(taskName, f.proc.Handle)

	if f.ctrl.State() != StateIdle {
		t.Fatalf("state = %s, want idle after restart", f.ctrl.State())
	}
	registered, _ := f.ctrl.Registered(ctx)
	if !registered {
		t.Fatal("scheduler registration should be visible")
	}

	outcome, err := f.ctrl.Start(ctx)
	if err != nil || outcome != AlreadyRegistered {
		t.Errorf("Start() = %s, %v; want already_registered", outcome, err)
	}
	if f.ctrl.State() != StateActive || f.sched.RegisterCount() != 0 || f.sched.ActiveCount() != 1 {
		t.Errorf("state = %s, registers = %d, active = %d", f.ctrl.State(), f.sched.RegisterCount(), f.sched.ActiveCount())
	}

	if outcome, err := f.ctrl.Stop(ctx); err != nil || outcome != Stopped {
		t.Errorf("Stop() without a known handle = %s, %v", outcome, err)
	}
}

func TestController_StopClearsOrphanWhileIdle(t *testing.T) {
	f := newControllerFixture()
	f.sched.Preregister(taskName, f.proc.Handle)

	var during State
	f.sched.BeforeDeregister = func(scheduler.Handle) { during = f.ctrl.State() }

	outcome, err := f.ctrl.Stop(context.Background())
	if err != nil || outcome != Stopped {
		t.Errorf("Stop() = %s, %v; want stopped", outcome, err)
	}
	if f.sched.ActiveCount() != 0 {
		t.Error("orphaned registration should be removed")
	}
	if during != StateIdle || f.ctrl.State() != StateIdle {
		t.Errorf("state during/after Stop = %s/%s, want idle/idle", during, f.ctrl.State())
	}
}

func TestController_StopFromActivePassesThroughStopping(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	if _, err := f.ctrl.Start(ctx); err != nil {
		t.Fatal(err)
	}

	var during State
	f.sched.BeforeDeregister = func(scheduler.Handle) { during = f.ctrl.State() }
	if _, err := f.ctrl.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if during != StateStopping {
		t.Errorf("state during deregister = %s, want stopping", during)
	}
	if f.ctrl.State() != StateIdle {
		t.Errorf("state = %s, want idle", f.ctrl.State())
	}
}

func TestController_Teardown(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	if err := f.ctrl.Teardown(ctx); err != nil {
		t.Errorf("Teardown() while idle error = %v", err)
	}
	if _, err := f.ctrl.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Teardown(ctx); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}
	if f.ctrl.State() != StateIdle || f.sched.ActiveCount() != 0 {
		t.Errorf("after teardown state = %s, active = %d", f.ctrl.State(), f.sched.ActiveCount())
	}
}

func TestRegistry_RequiresCapability(t *testing.T) {
	sched := schedulertest.New()
	r := NewRegistry(sched, taskName, func(context.Context, scheduler.Batch) {})

	_, err := r.Start(context.Background(), models.Capability{Foreground: true}, scheduler.DefaultConfig())
	if !errors.Is(err, permission.ErrPermissionDenied) {
		t.Errorf("Start() error = %v, want ErrPermissionDenied", err)
	}
	if sched.RegisterCount() != 0 {
		t.Error("registered without background capability")
	}
}

func TestOutcomeAndStateStrings(t *testing.T) {
	tests := map[string]string{
		Registered.String():        "registered",
		AlreadyRegistered.String(): "already_registered",
		Stopped.String():           "stopped",
		NotRegistered.String():     "not_registered",
		OutcomeNone.String():       "",
		StateIdle.String():         "idle",
		StateStarting.String():     "starting",
		StateActive.String():       "active",
		StateStopping.String():     "stopping",
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

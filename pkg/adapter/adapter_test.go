package adapter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// inlineScheduler runs scheduled work synchronously, which makes automatic
// start/stop side effects deterministic in tests.
type inlineScheduler struct {
	mu    sync.Mutex
	count int
}

func (s *inlineScheduler) Schedule(ctx context.Context, work func(context.Context)) error {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	work(ctx)
	return nil
}

func (s *inlineScheduler) scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// routineCounter counts lifecycle routine invocations.
type routineCounter struct {
	starts atomic.Int32
	stops  atomic.Int32
}

func (c *routineCounter) routines() Routines {
	return Routines{
		Start: func(ctx context.Context) error {
			c.starts.Add(1)
			return nil
		},
		Stop: func(ctx context.Context) error {
			c.stops.Add(1)
			return nil
		},
	}
}

func newTestAdapter(t *testing.T, cfg Config, opts ...Option) *Adapter {
	t.Helper()
	if cfg.ID == "" {
		cfg.ID = "adapter-1"
	}
	a, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestNew_RequiresID(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("New() without id = %v, want ErrInvalidArgument", err)
	}
}

func TestNew_InitialState(t *testing.T) {
	a := newTestAdapter(t, Config{ID: "adapter-1"})

	if got := a.State(); got != StateIdle {
		t.Errorf("initial State() = %v, want Idle", got)
	}
	if !a.IsEnabled() {
		t.Error("adapter should be enabled by default")
	}
	if a.IsRunning() {
		t.Error("adapter should not be running before Start")
	}
}

func TestStartStop_Transitions(t *testing.T) {
	ctx := context.Background()
	var counter routineCounter
	a := newTestAdapter(t, Config{ID: "adapter-1", Routines: counter.routines()})

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !a.IsRunning() || a.State() != StateRunning {
		t.Errorf("after Start: running=%v state=%v", a.IsRunning(), a.State())
	}
	if got := counter.starts.Load(); got != 1 {
		t.Errorf("start routine ran %d times, want 1", got)
	}

	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if a.IsRunning() || a.State() != StateIdle {
		t.Errorf("after Stop: running=%v state=%v", a.IsRunning(), a.State())
	}
	if got := counter.stops.Load(); got != 1 {
		t.Errorf("stop routine ran %d times, want 1", got)
	}
}

func TestStart_AlreadyRunningIsNoop(t *testing.T) {
	ctx := context.Background()
	var counter routineCounter
	a := newTestAdapter(t, Config{ID: "adapter-1", Routines: counter.routines()})

	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if got := counter.starts.Load(); got != 1 {
		t.Errorf("start routine ran %d times, want 1", got)
	}
}

func TestStart_ConcurrentCallsRunRoutineOnce(t *testing.T) {
	release := make(chan struct{})
	var starts atomic.Int32
	a := newTestAdapter(t, Config{
		ID: "adapter-1",
		Routines: Routines{
			Start: func(ctx context.Context) error {
				starts.Add(1)
				<-release
				return nil
			},
		},
	})

	const callers = 4
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			errs <- a.Start(context.Background())
		}()
	}

	// Let all callers reach the startup lock, then release the routine.
	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < callers; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent Start() error = %v", err)
		}
	}
	if got := starts.Load(); got != 1 {
		t.Errorf("start routine ran %d times, want exactly 1", got)
	}
	if !a.IsRunning() {
		t.Error("adapter should be running")
	}
}

func TestStop_BeforeStartIsNoop(t *testing.T) {
	var counter routineCounter
	a := newTestAdapter(t, Config{ID: "adapter-1", Routines: counter.routines()})

	if err := a.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() before Start = %v, want nil", err)
	}
	if got := counter.stops.Load(); got != 0 {
		t.Errorf("stop routine ran %d times, want 0", got)
	}
}

func TestStart_FailureRevertsToIdleAndAllowsRetry(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("source offline")
	var attempts atomic.Int32
	a := newTestAdapter(t, Config{
		ID: "adapter-1",
		Routines: Routines{
			Start: func(ctx context.Context) error {
				if attempts.Add(1) == 1 {
					return boom
				}
				return nil
			},
		},
	})

	if err := a.Start(ctx); !errors.Is(err, boom) {
		t.Fatalf("first Start() = %v, want the routine's error", err)
	}
	if a.IsRunning() || a.IsStarting() {
		t.Error("failed start left the adapter running or starting")
	}
	if got := a.State(); got != StateIdle {
		t.Errorf("State() after failed start = %v, want Idle", got)
	}

	if err := a.Start(ctx); err != nil {
		t.Fatalf("retry Start() error = %v", err)
	}
	if !a.IsRunning() {
		t.Error("retry should leave the adapter running")
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("start routine ran %d times, want 2", got)
	}
}

func TestStop_FailureClearsShutdownSignal(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("flush failed")
	fail := atomic.Bool{}
	fail.Store(true)
	a := newTestAdapter(t, Config{
		ID: "adapter-1",
		Routines: Routines{
			Stop: func(ctx context.Context) error {
				if fail.Load() {
					return boom
				}
				return nil
			},
		},
	})

	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := a.Stop(ctx); !errors.Is(err, boom) {
		t.Fatalf("Stop() = %v, want the routine's error", err)
	}

	// The failed stop must not wedge future starts.
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() after failed stop = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() deadlocked after a failed stop")
	}
}

func TestStart_WaitsForInFlightStop(t *testing.T) {
	ctx := context.Background()
	stopEntered := make(chan struct{})
	stopRelease := make(chan struct{})
	var stopOnce sync.Once
	a := newTestAdapter(t, Config{
		ID: "adapter-1",
		Routines: Routines{
			// Re-entrant: the cleanup Close stops the adapter again after
			// the test leaves it running.
			Stop: func(ctx context.Context) error {
				stopOnce.Do(func() { close(stopEntered) })
				<-stopRelease
				return nil
			},
		},
	})

	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}

	stopDone := make(chan error, 1)
	go func() { stopDone <- a.Stop(ctx) }()
	<-stopEntered

	startDone := make(chan error, 1)
	go func() { startDone <- a.Start(ctx) }()

	select {
	case <-startDone:
		t.Fatal("Start() completed while a Stop was still in flight")
	case <-time.After(100 * time.Millisecond):
	}
	if a.IsRunning() {
		t.Error("adapter reported running during shutdown")
	}

	close(stopRelease)
	if err := <-stopDone; err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	select {
	case err := <-startDone:
		if err != nil {
			t.Fatalf("Start() after shutdown = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() never completed after the shutdown cleared")
	}
	if !a.IsRunning() {
		t.Error("adapter should be running after the delayed Start")
	}
}

func TestStart_WhileDisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	var counter routineCounter
	a := newTestAdapter(t, Config{ID: "adapter-1", Routines: counter.routines()})

	if !a.Disable() {
		t.Fatal("Disable() should report a change")
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() while disabled = %v, want nil", err)
	}
	if counter.starts.Load() != 0 {
		t.Error("start routine ran for a disabled adapter")
	}
	if a.State() != StateDisabled {
		t.Errorf("State() = %v, want Disabled", a.State())
	}
}

func TestDisable_WhileRunningSchedulesExactlyOneStop(t *testing.T) {
	ctx := context.Background()
	sched := &inlineScheduler{}
	var counter routineCounter
	a := newTestAdapter(t, Config{ID: "adapter-1", Routines: counter.routines()}, WithScheduler(sched))

	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if !a.Disable() {
		t.Fatal("Disable() should report a change")
	}
	if got := counter.stops.Load(); got != 1 {
		t.Errorf("automatic stop ran %d times, want exactly 1", got)
	}
	if a.IsRunning() {
		t.Error("adapter still running after Disable")
	}
	if got := sched.scheduled(); got != 1 {
		t.Errorf("scheduled %d work items, want 1", got)
	}

	// Disabling again changes nothing.
	if a.Disable() {
		t.Error("second Disable() should be a no-op")
	}
	if got := counter.stops.Load(); got != 1 {
		t.Errorf("stop routine ran %d times after second Disable, want 1", got)
	}
}

func TestEnable_AfterDisableSchedulesExactlyOneStart(t *testing.T) {
	ctx := context.Background()
	sched := &inlineScheduler{}
	var counter routineCounter
	a := newTestAdapter(t, Config{ID: "adapter-1", Routines: counter.routines()}, WithScheduler(sched))

	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	a.Disable()

	if !a.Enable() {
		t.Fatal("Enable() should report a change")
	}
	if got := counter.starts.Load(); got != 2 {
		t.Errorf("start routine ran %d times, want 2 (initial + one automatic)", got)
	}
	if !a.IsRunning() {
		t.Error("adapter should be running after automatic start")
	}

	if a.Enable() {
		t.Error("second Enable() should be a no-op")
	}
}

func TestEnable_NeverStartedDoesNotAutoStart(t *testing.T) {
	sched := &inlineScheduler{}
	var counter routineCounter
	a := newTestAdapter(t, Config{ID: "adapter-1", Routines: counter.routines()}, WithScheduler(sched))

	a.Disable()
	a.Enable()

	if got := counter.starts.Load(); got != 0 {
		t.Errorf("start routine ran %d times, want 0 (adapter never started)", got)
	}
}

func TestClose_DisposesAdapter(t *testing.T) {
	ctx := context.Background()
	var counter routineCounter
	a := newTestAdapter(t, Config{ID: "adapter-1", Routines: counter.routines()})

	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if a.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}
	if a.State() != StateDisposed {
		t.Errorf("State() = %v, want Disposed", a.State())
	}
	if err := a.Start(ctx); !errors.Is(err, ErrDisposed) {
		t.Errorf("Start() after Close = %v, want ErrDisposed", err)
	}
	if err := a.Stop(ctx); !errors.Is(err, ErrDisposed) {
		t.Errorf("Stop() after Close = %v, want ErrDisposed", err)
	}
	if a.Enable() || a.Disable() {
		t.Error("Enable/Disable after Close should be no-ops")
	}

	// Second Close is a no-op.
	if err := a.Close(ctx); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if got := counter.stops.Load(); got != 1 {
		t.Errorf("stop routine ran %d times during close, want 1", got)
	}
}

func TestClose_WaitsForBackgroundStop(t *testing.T) {
	ctx := context.Background()
	stopEntered := make(chan struct{})
	stopRelease := make(chan struct{})
	var stops atomic.Int32
	a := newTestAdapter(t, Config{
		ID: "adapter-1",
		Routines: Routines{
			Stop: func(ctx context.Context) error {
				if stops.Add(1) == 1 {
					close(stopEntered)
					<-stopRelease
				}
				return nil
			},
		},
	})

	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// Disable schedules an automatic stop on the adapter's own queue.
	a.Disable()
	<-stopEntered

	closeDone := make(chan error, 1)
	go func() { closeDone <- a.Close(ctx) }()

	select {
	case <-closeDone:
		t.Fatal("Close() completed while the automatic stop was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(stopRelease)
	select {
	case err := <-closeDone:
		if err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close() never completed after the automatic stop finished")
	}
	if got := stops.Load(); got != 1 {
		t.Errorf("stop routine ran %d times, want exactly 1", got)
	}
}

func TestStopScope_CancellationComposition(t *testing.T) {
	ctx := context.Background()
	var hookCtx context.Context
	hookReady := make(chan struct{})
	sched := &inlineScheduler{}
	a := newTestAdapter(t, Config{
		ID: "adapter-1",
		Routines: Routines{
			OnStarted: func(ctx context.Context) {
				hookCtx = ctx
				close(hookReady)
			},
		},
	}, WithScheduler(sched))

	callerCtx, cancelCaller := context.WithCancel(ctx)
	if err := a.Start(callerCtx); err != nil {
		t.Fatal(err)
	}
	<-hookReady

	// The hook is bound to the stop scope, not the caller's context.
	cancelCaller()
	if hookCtx.Err() != nil {
		t.Error("post-start hook context canceled by the caller's context")
	}

	if err := a.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if hookCtx.Err() == nil {
		t.Error("post-start hook context should be canceled after Stop")
	}
}

func TestStopScope_FreshPerRunningPeriod(t *testing.T) {
	ctx := context.Background()
	var scopes []context.Context
	var mu sync.Mutex
	sched := &inlineScheduler{}
	a := newTestAdapter(t, Config{
		ID: "adapter-1",
		Routines: Routines{
			OnStarted: func(ctx context.Context) {
				mu.Lock()
				scopes = append(scopes, ctx)
				mu.Unlock()
			},
		},
	}, WithScheduler(sched))

	for i := 0; i < 2; i++ {
		if err := a.Start(ctx); err != nil {
			t.Fatal(err)
		}
		if err := a.Stop(ctx); err != nil {
			t.Fatal(err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(scopes) != 2 {
		t.Fatalf("hook ran %d times, want 2", len(scopes))
	}
	if scopes[0] == scopes[1] {
		t.Error("stop scope was reused across running periods")
	}
	for i, sc := range scopes {
		if sc.Err() == nil {
			t.Errorf("scope %d still live after Stop", i)
		}
	}
}

func TestStart_CallerCancellationReachesRoutine(t *testing.T) {
	started := make(chan struct{})
	var routineErr error
	done := make(chan struct{})
	a := newTestAdapter(t, Config{
		ID: "adapter-1",
		Routines: Routines{
			Start: func(ctx context.Context) error {
				close(started)
				<-ctx.Done()
				routineErr = ctx.Err()
				close(done)
				return ctx.Err()
			},
		},
	})

	callerCtx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Start(callerCtx) }()

	<-started
	cancel()
	<-done

	if !errors.Is(routineErr, context.Canceled) {
		t.Errorf("routine context error = %v, want Canceled", routineErr)
	}
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() = %v, want Canceled", err)
	}
	if a.IsRunning() {
		t.Error("canceled start left the adapter running")
	}
}

func TestObservers_NotifiedInOrderBestEffort(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t, Config{ID: "adapter-1"})

	var order []string
	var mu sync.Mutex
	record := func(name string, err error) Observer {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return err
		}
	}

	a.OnStarted(record("first", errors.New("observer failed")))
	a.OnStarted(record("second", nil))
	a.OnStopped(record("stopped", nil))

	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := a.Stop(ctx); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "second", "stopped"}
	if len(order) != len(want) {
		t.Fatalf("observer calls = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("observer call %d = %q, want %q (failure must not skip later observers)", i, order[i], want[i])
		}
	}
}

func TestRegisterFeature_RejectedWhileRunning(t *testing.T) {
	ctx := context.Background()
	a := newTestAdapter(t, Config{ID: "adapter-1"})

	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	err := a.RegisterFeature("urn:adapterkit/features/tags/search", searchStub{})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("RegisterFeature() while running = %v, want ErrInvalidArgument", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisabled, "Disabled"},
		{StateIdle, "Idle"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateDisposed, "Disposed"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

package adapter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/signalfield/adapterkit/pkg/feature"
	"github.com/signalfield/adapterkit/pkg/log"
	"github.com/signalfield/adapterkit/pkg/tasks"
)

// Observer receives a lifecycle notification. Observers run sequentially in
// registration order; see OnStarted and OnStopped.
type Observer func(ctx context.Context) error

// stopScope is the cancellation scope covering one running period. It is
// derived from the disposal scope, so closing the adapter cancels it
// transitively.
type stopScope struct {
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
}

// Adapter is the lifecycle controller and feature registry owner for one
// adapter instance.
type Adapter struct {
	id       string
	typeDesc TypeDescriptor

	mu          sync.RWMutex // guards name, description, properties, observers, scope
	name        string
	description string
	properties  []Property
	started     []Observer
	stopped     []Observer
	scope       *stopScope

	registry *feature.Registry
	routines Routines
	logger   log.Logger

	scheduler    tasks.Scheduler
	ownScheduler *tasks.Queue

	enabled  atomic.Bool
	running  atomic.Bool
	starting atomic.Bool
	ever     atomic.Bool // started at least once
	disposed atomic.Bool

	generation atomic.Uint64

	// startSem serializes Start attempts, stopSem serializes Stop
	// attempts. The two are coupled only through the shutdown signal.
	startSem *semaphore.Weighted
	stopSem  *semaphore.Weighted

	// shutdownDone is closed whenever no shutdown is in progress. Stop
	// replaces it with an open channel before running the stop routine and
	// closes it again on every exit path, so a failed stop never wedges
	// future starts.
	shutdownMu   sync.Mutex
	shutdownDone chan struct{}

	disposeCtx    context.Context
	disposeCancel context.CancelFunc
	closeOnce     sync.Once
	closeErr      error
}

// New creates an adapter in the Idle state: enabled, not yet started.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: adapter id is required", ErrInvalidArgument)
	}
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	a := &Adapter{
		id:          cfg.ID,
		name:        cfg.Name,
		description: cfg.Description,
		typeDesc:    cfg.Type,
		properties:  o.properties,
		routines:    cfg.Routines,
		logger:      o.logger.With(log.String("adapter", cfg.ID)),
		scheduler:   o.scheduler,
		startSem:    semaphore.NewWeighted(1),
		stopSem:     semaphore.NewWeighted(1),
	}
	a.enabled.Store(true)

	if a.scheduler == nil {
		a.ownScheduler = tasks.NewQueue(tasks.QueueOptions{Logger: a.logger})
		a.scheduler = a.ownScheduler
	}

	a.shutdownDone = make(chan struct{})
	close(a.shutdownDone)

	a.disposeCtx, a.disposeCancel = context.WithCancel(context.Background())

	a.registry = feature.NewRegistry(feature.RegistryOptions{
		Adapter: adapterInfo{a},
		Logger:  a.logger,
	})
	return a, nil
}

// adapterInfo is the registry's non-owning view of the adapter.
type adapterInfo struct{ a *Adapter }

func (i adapterInfo) ID() string       { return i.a.id }
func (i adapterInfo) Name() string     { return i.a.Name() }
func (i adapterInfo) IsRunning() bool  { return i.a.IsRunning() }
func (i adapterInfo) IsStarting() bool { return i.a.IsStarting() }

// ID returns the stable adapter instance identifier.
func (a *Adapter) ID() string { return a.id }

// Name returns the adapter's display name.
func (a *Adapter) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

// IsEnabled reports whether the adapter is enabled.
func (a *Adapter) IsEnabled() bool { return a.enabled.Load() }

// IsRunning reports whether the adapter is running. It turns false as soon
// as a stop begins, not when it completes.
func (a *Adapter) IsRunning() bool { return a.running.Load() }

// IsStarting reports whether a start routine is currently executing.
func (a *Adapter) IsStarting() bool { return a.starting.Load() }

// State derives the externally observable lifecycle state.
func (a *Adapter) State() State {
	switch {
	case a.disposed.Load():
		return StateDisposed
	case !a.enabled.Load():
		return StateDisabled
	case a.running.Load():
		return StateRunning
	case a.starting.Load():
		return StateStarting
	case a.shutdownInProgress():
		return StateStopping
	default:
		return StateIdle
	}
}

// RegisterFeature registers a standard feature implementation. Features can
// only be registered before the adapter has first been started.
func (a *Adapter) RegisterFeature(id feature.ID, impl any) error {
	return a.register(id, impl, false)
}

// RegisterExtension registers an adapter-specific extension feature. The
// identifier must live in the extension namespace.
func (a *Adapter) RegisterExtension(id feature.ID, impl any) error {
	return a.register(id, impl, true)
}

func (a *Adapter) register(id feature.ID, impl any, extension bool) error {
	if a.disposed.Load() {
		return ErrDisposed
	}
	if a.running.Load() || a.starting.Load() {
		return fmt.Errorf("%w: features cannot be registered while the adapter is running", ErrInvalidArgument)
	}
	return a.registry.Register(id, impl, extension)
}

// HasFeature reports whether the identifier has a registration.
func (a *Adapter) HasFeature(id feature.ID) bool {
	return a.registry.Contains(id)
}

// Feature returns the raw implementation registered under id. Prefer
// [Resolve] for guarded, typed access.
func (a *Adapter) Feature(id feature.ID) (any, bool) {
	return a.registry.Get(id)
}

// Registry exposes the adapter's feature registry.
func (a *Adapter) Registry() *feature.Registry { return a.registry }

// OnStarted appends an observer notified after each successful start.
// Observers run sequentially; a failing observer is logged and the
// remaining observers still run.
func (a *Adapter) OnStarted(fn Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = append(a.started, fn)
}

// OnStopped appends an observer notified after each successful stop.
func (a *Adapter) OnStopped(fn Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = append(a.stopped, fn)
}

// Start transitions the adapter to Running. It is a no-op when already
// running; concurrent calls are serialized and the start routine runs once.
// A Start racing an in-flight Stop waits for the shutdown to fully complete
// before proceeding. When the adapter is disabled, Start logs and returns
// without starting.
func (a *Adapter) Start(ctx context.Context) error {
	if a.disposed.Load() {
		return ErrDisposed
	}
	if a.running.Load() {
		return nil
	}

	if err := a.startSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer a.startSem.Release(1)

	if a.disposed.Load() {
		return ErrDisposed
	}
	if a.running.Load() {
		// A concurrent Start finished first; adopt its outcome.
		return nil
	}
	if err := a.waitForShutdown(ctx); err != nil {
		return err
	}
	if !a.enabled.Load() {
		a.logger.Info("start skipped, adapter disabled")
		return nil
	}

	scope := a.currentScope()
	if scope == nil || scope.ctx.Err() != nil {
		scope = a.newStopScope()
	}

	a.starting.Store(true)
	runCtx, cancel := linkContexts(ctx, scope.ctx)
	err := a.runStart(runCtx)
	cancel()
	if err != nil {
		a.starting.Store(false)
		a.logger.Error("adapter start failed", log.Err(err))
		return err
	}

	a.running.Store(true)
	a.starting.Store(false)
	a.ever.Store(true)

	if a.routines.OnStarted != nil {
		hook := a.routines.OnStarted
		if serr := a.scheduler.Schedule(scope.ctx, hook); serr != nil {
			a.logger.Warn("failed to schedule post-start hook", log.Err(serr))
		}
	}
	a.notify(scope.ctx, a.startedObservers(), "started")
	a.logger.Info("adapter started", log.Uint64("generation", scope.generation))
	return nil
}

func (a *Adapter) runStart(ctx context.Context) error {
	if a.routines.Start == nil {
		return nil
	}
	return a.routines.Start(ctx)
}

// Stop transitions the adapter out of Running. It is a no-op unless the
// adapter is starting or running. The shutdown-in-progress signal gates
// concurrent Start calls for the duration of the stop routine and is
// cleared on every exit path.
func (a *Adapter) Stop(ctx context.Context) error {
	if a.disposed.Load() {
		return ErrDisposed
	}
	if !a.running.Load() && !a.starting.Load() {
		return nil
	}

	if err := a.stopSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer a.stopSem.Release(1)

	if !a.running.Load() && !a.starting.Load() {
		return nil
	}

	a.beginShutdown()
	defer a.endShutdown()

	// Callers observe not-running as soon as the stop begins.
	a.running.Store(false)

	runCtx, cancel := linkContexts(ctx, a.disposeCtx)
	err := a.runStop(runCtx)
	cancel()
	if err != nil {
		a.starting.Store(false)
		a.logger.Error("adapter stop failed", log.Err(err))
		return err
	}

	a.starting.Store(false)
	a.cancelScope()
	a.notify(a.disposeCtx, a.stoppedObservers(), "stopped")
	a.logger.Info("adapter stopped")
	return nil
}

func (a *Adapter) runStop(ctx context.Context) error {
	if a.routines.Stop == nil {
		return nil
	}
	return a.routines.Stop(ctx)
}

// Enable re-enables a disabled adapter and reports whether the state
// changed. When the adapter has been started before, a background Start is
// scheduled automatically.
func (a *Adapter) Enable() bool {
	if a.disposed.Load() {
		return false
	}
	if !a.enabled.CompareAndSwap(false, true) {
		return false
	}
	a.logger.Info("adapter enabled")
	if a.ever.Load() && !a.running.Load() && !a.starting.Load() {
		a.scheduleBackground("automatic start", a.Start)
	}
	return true
}

// Disable disables the adapter and reports whether the state changed. A
// starting or running adapter is stopped as background work.
func (a *Adapter) Disable() bool {
	if a.disposed.Load() {
		return false
	}
	if !a.enabled.CompareAndSwap(true, false) {
		return false
	}
	a.logger.Info("adapter disabled")
	if a.running.Load() || a.starting.Load() {
		a.scheduleBackground("automatic stop", a.Stop)
	}
	return true
}

func (a *Adapter) scheduleBackground(reason string, op func(context.Context) error) {
	err := a.scheduler.Schedule(a.disposeCtx, func(ctx context.Context) {
		if err := op(ctx); err != nil {
			a.logger.Error(reason+" failed", log.Err(err))
		}
	})
	if err != nil {
		a.logger.Error("failed to schedule "+reason, log.Err(err))
	}
}

// Close disposes the adapter: it cancels the disposal scope (and with it any
// live stop scope), best-effort stops a running adapter, and disposes every
// feature registration. Close is idempotent; the second call is a no-op
// returning the first call's result. All subsequent Start and Stop calls
// fail with ErrDisposed.
func (a *Adapter) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		a.disposed.Store(true)

		if a.running.Load() || a.starting.Load() {
			// Take the stop semaphore so a concurrent Stop, including one
			// scheduled by Disable, never runs the stop routine alongside us.
			if err := a.stopSem.Acquire(ctx, 1); err != nil {
				a.logger.Error("stop during close failed", log.Err(err))
			} else {
				if a.running.Load() || a.starting.Load() {
					if a.routines.Stop != nil {
						if err := a.routines.Stop(ctx); err != nil {
							a.logger.Error("stop during close failed", log.Err(err))
						}
					}
					a.running.Store(false)
					a.starting.Store(false)
				}
				a.stopSem.Release(1)
			}
		}

		a.disposeCancel()
		a.cancelScope()

		if a.ownScheduler != nil {
			a.ownScheduler.Close()
		}
		a.closeErr = a.registry.Close()
		a.logger.Info("adapter closed")
	})
	return a.closeErr
}

// waitForShutdown blocks until no shutdown is in progress, the caller's
// context is canceled, or the adapter is disposed.
func (a *Adapter) waitForShutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	done := a.shutdownDone
	a.shutdownMu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.disposeCtx.Done():
		return ErrDisposed
	}
}

func (a *Adapter) beginShutdown() {
	a.shutdownMu.Lock()
	defer a.shutdownMu.Unlock()
	a.shutdownDone = make(chan struct{})
}

func (a *Adapter) endShutdown() {
	a.shutdownMu.Lock()
	defer a.shutdownMu.Unlock()
	select {
	case <-a.shutdownDone:
	default:
		close(a.shutdownDone)
	}
}

func (a *Adapter) shutdownInProgress() bool {
	a.shutdownMu.Lock()
	defer a.shutdownMu.Unlock()
	select {
	case <-a.shutdownDone:
		return false
	default:
		return true
	}
}

func (a *Adapter) currentScope() *stopScope {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.scope
}

// newStopScope creates the cancellation scope for the next running period,
// linked to the disposal scope.
func (a *Adapter) newStopScope() *stopScope {
	ctx, cancel := context.WithCancel(a.disposeCtx)
	scope := &stopScope{
		ctx:        ctx,
		cancel:     cancel,
		generation: a.generation.Add(1),
	}
	a.mu.Lock()
	a.scope = scope
	a.mu.Unlock()
	return scope
}

func (a *Adapter) cancelScope() {
	a.mu.RLock()
	scope := a.scope
	a.mu.RUnlock()
	if scope != nil {
		scope.cancel()
	}
}

func (a *Adapter) startedObservers() []Observer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Observer(nil), a.started...)
}

func (a *Adapter) stoppedObservers() []Observer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Observer(nil), a.stopped...)
}

// notify invokes observers sequentially. Failures are logged and do not
// prevent the remaining observers from running.
func (a *Adapter) notify(ctx context.Context, observers []Observer, event string) {
	for _, fn := range observers {
		if fn == nil {
			continue
		}
		if err := fn(ctx); err != nil {
			a.logger.Warn("lifecycle observer failed",
				log.String("event", event),
				log.Err(err))
		}
	}
}

// Package configwatch reloads an adapter when its configuration file
// changes. It watches the file's directory and, after a debounce window,
// invokes a change callback; the default callback restarts the adapter so
// the lifecycle routines pick up the new configuration.
package configwatch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/signalfield/adapterkit/pkg/adapter"
	"github.com/signalfield/adapterkit/pkg/log"
)

// Config holds configuration options for the watcher.
type Config struct {
	// Path is the configuration file to watch. Required.
	Path string

	// DebounceDelay is the quiet period after a change before the callback
	// fires. Editors often produce bursts of write events for one save.
	// Default: 100 milliseconds.
	DebounceDelay time.Duration
}

// Watcher monitors one configuration file and invokes a callback when it
// changes.
type Watcher struct {
	path          string
	debounceDelay time.Duration
	logger        log.Logger
	onChange      func(ctx context.Context)

	mu       sync.Mutex
	debounce *time.Timer
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a watcher. onChange runs after each debounced change.
func New(cfg Config, logger log.Logger, onChange func(ctx context.Context)) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	if onChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Watcher{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
		logger:        logger,
		onChange:      onChange,
	}, nil
}

// Restart returns a change callback that restarts the adapter: a stop
// followed by a start, so the lifecycle routines re-read their
// configuration. Failures are logged; the adapter is left in whatever state
// the failing step produced.
func Restart(a *adapter.Adapter, logger log.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		logger.Info("configuration changed, restarting adapter")
		if err := a.Stop(ctx); err != nil {
			logger.Error("restart: stop failed", log.Err(err))
			return
		}
		if err := a.Start(ctx); err != nil {
			logger.Error("restart: start failed", log.Err(err))
		}
	}
}

// Start begins watching. The watch loop runs until ctx is canceled or Close
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory rather than the file: editors that rename-replace
	// would otherwise detach the watch.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.watchLoop(watchCtx, fsw)

	w.logger.Info("watching configuration file", log.String("path", w.path))
	return nil
}

// Close stops the watcher and waits for the watch loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()
	w.wg.Wait()
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fsw.Close()

	target := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceChange(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("configuration watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) debounceChange(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		w.onChange(ctx)
	})
}

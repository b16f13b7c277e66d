// Command adapterd hosts a simulated-source adapter: it loads the host
// configuration, wires the store, tracing and background task queue, builds
// the adapter and runs it until interrupted. Changes to the configuration
// file restart the adapter in place.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/signalfield/adapterkit/internal/host"
	"github.com/signalfield/adapterkit/internal/sim"
	"github.com/signalfield/adapterkit/pkg/kvstore"
	"github.com/signalfield/adapterkit/pkg/log"
	"github.com/signalfield/adapterkit/pkg/tasks"
	"github.com/signalfield/adapterkit/plugins/configwatch"
)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	var (
		cfgPath  string
		logLevel string
		console  bool
	)

	root := &cobra.Command{
		Use:     "adapterd",
		Short:   "Run a simulated-source adapter with lifecycle control and guarded features",
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Example: "  adapterd --config /etc/adapterkit/config.toml\n  ADAPTERKIT_STORE=sqlite ADAPTERKIT_STATE_DIR=/var/lib/adapterkit adapterd",
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit := cfgPath != ""
			path := cfgPath
			if path == "" {
				path = host.DefaultConfigPath()
			}

			cfg, err := host.LoadConfig(path, explicit)
			if err != nil {
				return err
			}

			// Flags override both the file and the environment.
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			if changed["log-level"] {
				cfg.LogLevel = logLevel
			}
			if changed["console"] {
				cfg.LogConsole = console
			}

			return run(cmd.Context(), cfg, path)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.adapterkit/config.toml)")
	root.Flags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	root.Flags().BoolVar(&console, "console", false, "human-readable console logging instead of JSON")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg host.Config, cfgPath string) error {
	logger := log.NewZerolog(log.ZerologOptions{Level: cfg.LogLevel, Console: cfg.LogConsole})

	shutdownTracing, err := host.SetupTracing(ctx, "adapterd", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", log.Err(err))
		}
	}()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("store close failed", log.Err(err))
		}
	}()

	queue := tasks.NewQueue(tasks.QueueOptions{Workers: cfg.Workers, Logger: logger})
	defer queue.Close()

	a, err := sim.BuildAdapter(sim.AdapterConfig{
		ID:          cfg.AdapterID,
		Name:        cfg.Name,
		Description: cfg.Description,
		Source: sim.Config{
			TagCount:       cfg.TagCount,
			SampleInterval: cfg.SampleInterval,
		},
	}, logger, store, queue)
	if err != nil {
		return fmt.Errorf("build adapter: %w", err)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Warn("adapter close failed", log.Err(err))
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfgPath != "" {
		watcher, werr := configwatch.New(configwatch.Config{Path: cfgPath}, logger, configwatch.Restart(a, logger))
		if werr != nil {
			return werr
		}
		if werr := watcher.Start(runCtx); werr != nil {
			logger.Warn("configuration watching disabled", log.Err(werr))
		} else {
			defer watcher.Close()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := a.Start(runCtx); err != nil {
		return fmt.Errorf("start adapter: %w", err)
	}
	logger.Info("adapter running", log.String("state", a.State().String()))

	select {
	case sig := <-sigCh:
		logger.Info("received signal, stopping", log.String("signal", sig.String()))
	case <-runCtx.Done():
	}

	if err := a.Stop(context.Background()); err != nil {
		return fmt.Errorf("stop adapter: %w", err)
	}
	return nil
}

func openStore(cfg host.Config) (kvstore.Store, func() error, error) {
	switch cfg.Store {
	case host.StoreSQLite:
		if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
			return nil, nil, err
		}
		s, err := kvstore.OpenSQLite(cfg.StorePath())
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return kvstore.NewMemory(), func() error { return nil }, nil
	}
}

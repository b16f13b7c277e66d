package sim

import (
	"context"
	"fmt"

	"github.com/signalfield/adapterkit/pkg/adapter"
	"github.com/signalfield/adapterkit/pkg/feature"
	"github.com/signalfield/adapterkit/pkg/kvstore"
	"github.com/signalfield/adapterkit/pkg/log"
	"github.com/signalfield/adapterkit/pkg/tasks"
)

// AdapterConfig identifies the adapter instance built around a simulated
// source.
type AdapterConfig struct {
	ID          string
	Name        string
	Description string
	Source      Config
}

// BuildAdapter assembles an adapter around a simulated source: lifecycle
// routines bound to connect/disconnect, the sampling loop as the post-start
// hook, and the standard features registered against the source.
func BuildAdapter(cfg AdapterConfig, logger log.Logger, store kvstore.Store, scheduler tasks.Scheduler) (*adapter.Adapter, error) {
	src := NewSource(cfg.Source, logger, store)

	opts := []adapter.Option{
		adapter.WithLogger(logger),
		adapter.WithProperty("tag-count", fmt.Sprintf("%d", cfg.Source.TagCount), "Number of simulated tags."),
		adapter.WithProperty("sample-interval", cfg.Source.SampleInterval.String(), "Period between simulated value updates."),
	}
	if scheduler != nil {
		opts = append(opts, adapter.WithScheduler(scheduler))
	}

	a, err := adapter.New(adapter.Config{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Description: cfg.Description,
		Type: adapter.TypeDescriptor{
			ID:      "signalfield/sim",
			Name:    "Simulated Source",
			Version: "1.0.0",
			Vendor:  "Signal Field",
		},
		Routines: adapter.Routines{
			Start:     src.Connect,
			Stop:      src.Disconnect,
			OnStarted: src.Run,
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	for _, reg := range []struct {
		id   feature.ID
		impl any
	}{
		{feature.HealthCheckID, src},
		{feature.TagSearchID, src},
		{feature.SnapshotID, src},
	} {
		if err := a.RegisterFeature(reg.id, reg.impl); err != nil {
			_ = a.Close(context.Background())
			return nil, fmt.Errorf("register %s: %w", reg.id, err)
		}
	}
	return a, nil
}

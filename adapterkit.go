// Package adapterkit builds long-running adapters around external data
// sources: a lifecycle controller that serializes start/stop transitions, a
// registry of capability features resolved by URI, and guarded typed access
// to those features while the adapter runs.
//
// Example usage:
//
//	a, err := adapterkit.New(adapterkit.Config{
//	    ID: "plant-a/line-1",
//	    Routines: adapter.Routines{
//	        Start: source.Connect,
//	        Stop:  source.Disconnect,
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.RegisterFeature(feature.TagSearchID, source); err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package adapterkit

import (
	"github.com/signalfield/adapterkit/pkg/adapter"
)

// Adapter is the lifecycle controller and feature registry owner for one
// adapter instance.
type Adapter = adapter.Adapter

// Config holds the constructor arguments for an Adapter.
type Config = adapter.Config

// Routines bundles the adapter-specific lifecycle callbacks.
type Routines = adapter.Routines

// Option configures optional behavior of an Adapter.
type Option = adapter.Option

// New creates an adapter in the Idle state: enabled, not yet started.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	return adapter.New(cfg, opts...)
}

package adapter

import (
	"context"

	"github.com/signalfield/adapterkit/pkg/log"
	"github.com/signalfield/adapterkit/pkg/tasks"
)

// Routines bundles the adapter-specific lifecycle callbacks. Nil callbacks
// are treated as no-ops.
type Routines struct {
	// Start brings the adapter's underlying source online. The context
	// combines the caller's context, the disposal scope, and the stop
	// scope for the upcoming running period.
	Start func(ctx context.Context) error

	// Stop shuts the underlying source down. The context combines the
	// caller's context and the disposal scope.
	Stop func(ctx context.Context) error

	// OnStarted is a long-running hook scheduled as background work after
	// a successful start, bound to the stop scope: its context is canceled
	// when the adapter stops or is closed.
	OnStarted func(ctx context.Context)
}

// Config holds the constructor arguments for an Adapter. ID is required;
// every other field has a usable zero value.
type Config struct {
	// ID is the stable adapter instance identifier. Required, never
	// changes for the adapter's lifetime.
	ID string

	// Name is the display name. Defaults to ID.
	Name string

	// Description explains what the adapter connects to.
	Description string

	// Type describes the adapter implementation type.
	Type TypeDescriptor

	// Routines supplies the adapter-specific lifecycle behavior.
	Routines Routines
}

// Option configures optional behavior of an Adapter.
type Option func(*options)

type options struct {
	logger     log.Logger
	scheduler  tasks.Scheduler
	properties []Property
}

func defaultOptions() options {
	return options{logger: log.NewNoop()}
}

// WithLogger sets the logger for lifecycle diagnostics. Defaults to a no-op
// logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithScheduler sets the background task service used for automatic
// restarts, automatic stops and the OnStarted hook. When not provided the
// adapter owns a private task queue and closes it on Close.
func WithScheduler(scheduler tasks.Scheduler) Option {
	return func(o *options) {
		o.scheduler = scheduler
	}
}

// WithProperty adds an informational property to the adapter's public
// descriptor.
func WithProperty(key, value, description string) Option {
	return func(o *options) {
		o.properties = append(o.properties, Property{Key: key, Value: value, Description: description})
	}
}

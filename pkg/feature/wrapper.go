package feature

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalfield/adapterkit/pkg/invoke"
)

const tracerName = "github.com/signalfield/adapterkit/pkg/feature"

// AdapterInfo is the wrapper's non-owning view of the adapter that owns a
// registration: identity for span tags and lifecycle state for the
// started-state check.
type AdapterInfo interface {
	ID() string
	Name() string
	IsRunning() bool
	IsStarting() bool
}

// Op describes one intercepted feature operation.
type Op struct {
	// Name is the operation name used in the span "<feature>/<operation>".
	Name string

	// AllowWhileStarting permits the call while the adapter is still
	// starting, for operations the start routine itself depends on.
	AllowWhileStarting bool

	// Requests are the non-context arguments subject to request
	// validation.
	Requests []any
}

// Wrapper decorates a registered feature implementation. Every call goes
// through Do, which enforces the adapter-started invariant, requires a call
// context, optionally validates requests, and wraps the delegated call in an
// OpenTelemetry span.
type Wrapper struct {
	desc    Descriptor
	adapter AdapterInfo
	tracer  trace.Tracer
}

func newWrapper(desc Descriptor, adapter AdapterInfo) *Wrapper {
	return &Wrapper{
		desc:    desc,
		adapter: adapter,
		tracer:  otel.Tracer(tracerName),
	}
}

// Descriptor returns the wrapped feature's descriptor.
func (w *Wrapper) Descriptor() Descriptor { return w.desc }

// Do runs fn under the wrapper's checks. Errors returned by fn are recorded
// on the span and propagated unchanged.
func (w *Wrapper) Do(ctx context.Context, call *invoke.Context, op Op, fn func(context.Context) error) error {
	if !w.adapter.IsRunning() {
		if !op.AllowWhileStarting || !w.adapter.IsStarting() {
			return fmt.Errorf("%s: %w", w.desc.ID, ErrNotStarted)
		}
	}
	if call == nil {
		return fmt.Errorf("%s: %w", w.desc.ID, ErrInvalidContext)
	}
	if call.RequestValidationEnabled() {
		if err := validateRequests(op.Requests); err != nil {
			return err
		}
	}

	ctx, span := w.tracer.Start(ctx, w.desc.DisplayName+"/"+op.Name,
		trace.WithAttributes(
			attribute.String("adapter.id", w.adapter.ID()),
			attribute.String("adapter.name", w.adapter.Name()),
			attribute.String("feature.id", string(w.desc.ID)),
			attribute.String("call.correlation_id", call.CorrelationID()),
		))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return err
}

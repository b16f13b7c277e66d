package adapter

import (
	"context"

	"github.com/signalfield/adapterkit/pkg/feature"
	"github.com/signalfield/adapterkit/pkg/invoke"
)

// Handle is a typed, guarded reference to a registered feature. Calls made
// through Do pass the feature wrapper's checks before reaching the
// implementation.
type Handle[T any] struct {
	impl    T
	wrapper *feature.Wrapper
}

// Descriptor returns the resolved feature's descriptor.
func (h Handle[T]) Descriptor() feature.Descriptor {
	return h.wrapper.Descriptor()
}

// Do runs fn against the typed implementation under the feature wrapper's
// invariants: adapter running, non-nil call context, optional request
// validation, and an observability span around the call.
func (h Handle[T]) Do(ctx context.Context, call *invoke.Context, op feature.Op, fn func(ctx context.Context, impl T) error) error {
	return h.wrapper.Do(ctx, call, op, func(ctx context.Context) error {
		return fn(ctx, h.impl)
	})
}

// Resolve returns a typed handle to the feature registered under id. The
// second result is false when the identifier has no registration or the
// registered implementation does not satisfy T; resolution never panics and
// never returns an untyped value.
func Resolve[T any](a *Adapter, id feature.ID) (Handle[T], bool) {
	reg, ok := a.registry.Registration(id)
	if !ok {
		return Handle[T]{}, false
	}
	impl, ok := reg.Impl().(T)
	if !ok {
		return Handle[T]{}, false
	}
	return Handle[T]{impl: impl, wrapper: reg.Wrapper()}, true
}

// ResolveByType returns a typed handle to the first registered feature, in
// identifier order, whose implementation satisfies T.
func ResolveByType[T any](a *Adapter) (Handle[T], bool) {
	reg, ok := feature.Lookup[T](a.registry)
	if !ok {
		return Handle[T]{}, false
	}
	impl, ok := reg.Impl().(T)
	if !ok {
		return Handle[T]{}, false
	}
	return Handle[T]{impl: impl, wrapper: reg.Wrapper()}, true
}

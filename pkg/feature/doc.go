// Package feature defines the capability model of adapterkit: stable feature
// identifiers, descriptors, the static contract table, the per-adapter
// registry, and the wrapper that guards every feature invocation.
//
// A feature is a named, typed unit of functionality an adapter may implement,
// addressed by an absolute URI identifier with a canonical trailing slash.
// Standard features are declared by the framework in a package-init contract
// table; extension features are adapter-specific and live in a separate
// namespace.
//
// Implementations are never exposed raw. Registering a feature creates a
// [Wrapper] that checks the adapter's lifecycle state, the call context and
// request validity, and opens an OpenTelemetry span before delegating.
package feature

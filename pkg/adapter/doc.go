// Package adapter implements the lifecycle controller at the heart of
// adapterkit.
//
// An [Adapter] owns a feature registry, an identity, and a state machine
// over Disabled, Idle, Starting, Running and Stopping. Start and Stop are
// serialized by independent context-aware mutexes coupled through a
// shutdown-in-progress signal, so a Start issued while a Stop is finishing
// waits for the shutdown to complete before proceeding. Every cancellation
// token handed to adapter-supplied routines composes the caller's context,
// the process-lifetime disposal scope, and the stop scope covering the
// current running period.
//
// Concrete adapters supply their behavior through [Routines] and register
// feature implementations before the first Start. Hosts drive the adapter
// with Start, Stop, Enable, Disable and Close, and resolve features through
// [Resolve] or [ResolveByType].
package adapter

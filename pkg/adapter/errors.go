package adapter

import "errors"

// Lifecycle errors.
var (
	// ErrDisposed is returned by every operation after Close. Fatal: a
	// disposed adapter cannot be revived.
	ErrDisposed = errors.New("adapter: disposed")

	// ErrInvalidArgument indicates malformed input to a framework call.
	ErrInvalidArgument = errors.New("adapter: invalid argument")
)

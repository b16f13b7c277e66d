package feature

import (
	"errors"
	"fmt"
	"strings"
)

// Registration and invocation errors.
var (
	// ErrDuplicateFeature is returned when an identifier is registered twice.
	ErrDuplicateFeature = errors.New("feature: already registered")

	// ErrInvalidFeature is returned when an identifier is malformed or an
	// implementation does not satisfy the declared contract.
	ErrInvalidFeature = errors.New("feature: invalid feature")

	// ErrFeatureNotFound is returned when an identifier has no registration.
	ErrFeatureNotFound = errors.New("feature: not found")

	// ErrNotStarted is returned when a feature is invoked while the owning
	// adapter is not running. The caller may start the adapter and retry.
	ErrNotStarted = errors.New("feature: adapter not started")

	// ErrInvalidContext is returned when a feature is invoked without a
	// call context.
	ErrInvalidContext = errors.New("feature: call context is required")

	// ErrNotAuthorized is the outcome of an authorization collaborator
	// denying a call. It is surfaced to callers unchanged and is distinct
	// from ErrFeatureNotFound.
	ErrNotAuthorized = errors.New("feature: not authorized")
)

// ValidationError reports the structural constraints a request violated.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("feature: request validation failed: %s", strings.Join(e.Violations, "; "))
}

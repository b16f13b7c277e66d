// Package invoke defines the per-call context passed into every feature
// invocation.
//
// A Context identifies the caller and carries a mutable key-value bag used by
// the framework and by feature implementations to exchange call-scoped
// settings, such as the request-validation flag.
package invoke

import (
	"sync"

	"github.com/google/uuid"
)

// ValidationKey is the item key holding the request-validation flag.
const ValidationKey = "adapter:validate-request-objects"

// Context carries the identity and metadata for one feature call.
//
// A nil *Context is rejected by every feature wrapper; use [NewContext] or
// [SystemContext] to obtain one.
type Context struct {
	principal     string
	correlationID string

	mu    sync.RWMutex
	items map[string]any
}

// NewContext creates a call context for the given principal. A fresh
// correlation id is assigned.
func NewContext(principal string) *Context {
	return &Context{
		principal:     principal,
		correlationID: uuid.NewString(),
		items:         make(map[string]any),
	}
}

// SystemContext creates a call context representing the hosting process
// itself, for calls not made on behalf of an external caller.
func SystemContext() *Context {
	return NewContext("system")
}

// Principal returns the identity the call is made on behalf of.
func (c *Context) Principal() string { return c.principal }

// CorrelationID returns the id correlating all telemetry for this call.
func (c *Context) CorrelationID() string { return c.correlationID }

// Set stores a value in the call's item bag, replacing any existing value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// Get reads a value from the call's item bag.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

// UseRequestValidation sets whether request objects are validated before
// being passed to feature implementations. Validation defaults to enabled.
func (c *Context) UseRequestValidation(enabled bool) {
	c.Set(ValidationKey, enabled)
}

// TryUseRequestValidation sets the request-validation flag only when it has
// not been set yet. It reports whether the flag was applied, so an early
// caller can pin the setting against later overrides.
func (c *Context) TryUseRequestValidation(enabled bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[ValidationKey]; ok {
		return false
	}
	c.items[ValidationKey] = enabled
	return true
}

// RequestValidationEnabled reports whether request objects should be
// validated for this call. Unset means enabled.
func (c *Context) RequestValidationEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.items[ValidationKey]; ok {
		if enabled, ok := v.(bool); ok {
			return enabled
		}
	}
	return true
}

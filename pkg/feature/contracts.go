package feature

import (
	"fmt"
	"sync"
)

// Contract binds a feature identifier to its descriptor and to a check that
// an implementation satisfies the feature's compile-time interface.
//
// Contracts form a static registration table: standard contracts are added
// by this package's init, adapter packages add extension contracts from
// their own init functions. The table replaces runtime type scanning; an
// adapter can only register implementations for identifiers the table knows
// about, or extension identifiers carrying their own contract.
type Contract struct {
	Descriptor Descriptor

	// Satisfies reports whether impl implements the feature's interface.
	Satisfies func(impl any) bool
}

var (
	contractsMu sync.RWMutex
	contracts   = make(map[ID]Contract)
)

// RegisterContract adds a contract to the table. Intended to be called from
// init functions; registering the same identifier twice is an error.
func RegisterContract(c Contract) error {
	if c.Descriptor.ID == "" {
		return fmt.Errorf("%w: contract without identifier", ErrInvalidFeature)
	}
	if c.Satisfies == nil {
		return fmt.Errorf("%w: contract %s without satisfaction check", ErrInvalidFeature, c.Descriptor.ID)
	}
	contractsMu.Lock()
	defer contractsMu.Unlock()
	if _, ok := contracts[c.Descriptor.ID]; ok {
		return fmt.Errorf("%w: contract %s", ErrDuplicateFeature, c.Descriptor.ID)
	}
	contracts[c.Descriptor.ID] = c
	return nil
}

// MustRegisterContract is RegisterContract for package-init use; it panics
// on error.
func MustRegisterContract(c Contract) {
	if err := RegisterContract(c); err != nil {
		panic(err)
	}
}

// ContractFor looks up the contract declared for id.
func ContractFor(id ID) (Contract, bool) {
	contractsMu.RLock()
	defer contractsMu.RUnlock()
	c, ok := contracts[id]
	return c, ok
}

// Implements returns a satisfaction check for the interface type T.
func Implements[T any]() func(any) bool {
	return func(impl any) bool {
		_, ok := impl.(T)
		return ok
	}
}

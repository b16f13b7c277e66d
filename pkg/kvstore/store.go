// Package kvstore defines the durable key-value storage contract consumed by
// adapters for persisted state, together with a SQLite-backed implementation
// for hosts and an in-memory implementation for tests.
package kvstore

import (
	"context"
	"errors"
)

// Storage errors.
var (
	ErrKeyNotFound = errors.New("kvstore: key not found")
	ErrEmptyKey    = errors.New("kvstore: empty key")
	ErrClosed      = errors.New("kvstore: store closed")
)

// Store is the durable key-value contract.
//
// Keys are opaque non-empty strings owned by the adapter; the framework
// imposes no structure on them beyond prefix enumeration.
type Store interface {
	// Write persists value under key, replacing any existing value.
	Write(ctx context.Context, key string, value []byte) error

	// Read returns the value stored under key, or ErrKeyNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// ListKeys returns all keys starting with prefix, sorted. An empty
	// prefix lists every key.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

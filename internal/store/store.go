// Package store provides the key-value persistence contract consumed
// by the sensor registry and the alert ledger. Collections are stored
// whole under a single key, so a backend only needs atomic reads and
// writes of one value; it never sees individual records.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
// It is distinct from a storage failure: an absent key is a normal
// state (it triggers first-call seeding upstream).
var ErrNotFound = errors.New("key not found")

// Store is a durable mapping from a string key to an opaque payload.
type Store interface {
	// Get returns the payload stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores the payload under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Close releases backend resources.
	Close() error
}

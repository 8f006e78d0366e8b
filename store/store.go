package store

import (
	"context"
	"time"
)

// Store is the minimal key-value contract the pipeline persists through.
// Any durable store works; the monitor only needs get/set/delete and
// prefix listing.
type Store interface {
	// Get retrieves a value by key. Returns ErrNotFound if missing.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys matching the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// StoreError is a sentinel error type for store failures.
type StoreError string

func (e StoreError) Error() string { return string(e) }

const (
	// ErrNotFound indicates the key does not exist.
	ErrNotFound StoreError = "key not found"
)

package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent from the store.
var ErrNotFound = errors.New("kvstore: key not found")

// PutOptions controls expiry and metadata for a write.
// If both TTL and ExpiresAt are set, ExpiresAt wins.
type PutOptions struct {
	// TTL is the relative expiry. Zero means no expiry.
	TTL time.Duration
	// ExpiresAt is the absolute expiry. Zero value means unset.
	ExpiresAt time.Time
	// Metadata is a small string map stored alongside the value. It is
	// readable without fetching or deserializing the value itself.
	Metadata map[string]string
}

// ListOptions selects a page of keys by prefix.
type ListOptions struct {
	Prefix string
	Cursor string
	// Limit caps the page size. Implementations apply a default when zero.
	Limit int
}

// ListResult is one page of a prefix enumeration.
type ListResult struct {
	Keys []string
	// Cursor resumes the enumeration. Only meaningful when IsComplete is false.
	Cursor     string
	IsComplete bool
}

// Store is an eventually-consistent key-value map accessed over the network.
// Writes may take tens of seconds to propagate to other nodes, and there is
// no compare-and-swap: callers must tolerate read-compute-write races.
type Store interface {
	// Get returns the value for key, or ErrNotFound when absent.
	Get(ctx context.Context, key string) (string, error)

	// GetMetadata returns the metadata map written with the value, or
	// ErrNotFound when the key is absent. A present key written without
	// metadata yields an empty map.
	GetMetadata(ctx context.Context, key string) (map[string]string, error)

	// Put writes the value, replacing any previous value and metadata.
	Put(ctx context.Context, key, value string, opts PutOptions) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List enumerates keys by prefix, one page at a time.
	List(ctx context.Context, opts ListOptions) (ListResult, error)
}

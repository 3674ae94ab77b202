// Package cache stores organization results and rendered artifacts keyed by
// the content hash of their inputs.
//
// Three backends implement [Cache]:
//   - [FileCache]: entries as JSON files under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP API
//   - [NullCache]: stores nothing, for --no-cache and tests
//
// [Instrument] wraps any backend so hits, misses and writes are reported to
// observability hooks. Keys are built by a [Keyer]; every key starts with
// its type ("organize", "artifact") followed by a colon.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	TTLOrganize = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

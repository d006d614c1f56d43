// Package cache stores rendered artifacts between runs.
//
// Layout through Graphviz dominates the cost of a run, and successive
// snapshots of one trace, as well as repeated runs over the same trace,
// produce many identical graphs. Artifacts are therefore cached by the
// SHA-256 of their DOT source plus the output format.
//
// # Backends
//
//   - [FileCache]: one file per entry under the user cache directory (CLI default)
//   - [RedisCache]: a shared Redis instance, for the HTTP API
//   - [NullCache]: never stores anything (--no-cache)
//
// # Keys
//
// A [Keyer] derives cache keys. [ScopedKeyer] prefixes every key, which keeps
// several deployments apart on one Redis.
//
//	c, err := cache.Open(cache.Config{Backend: cache.BackendFile, Dir: dir})
//	key := cache.NewDefaultKeyer().ArtifactKey(cache.Hash([]byte(dot)), cache.ArtifactKeyOpts{Format: "svg"})
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

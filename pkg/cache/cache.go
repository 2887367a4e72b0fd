// Package cache stores the results of scripted edits, validation reports
// and rendered link graphs so repeated runs over an unchanged project are
// served without recomputation.
//
// # Backends
//
//   - [FileCache] keeps entries as JSON files under a directory, for the CLI.
//   - [RedisCache] keeps entries in Redis, for the API server.
//   - [NullCache] stores nothing.
//
// # Keys
//
// A [Keyer] turns content hashes and options into cache keys. Wrap one in a
// [ScopedKeyer] to give a tenant or environment its own namespace.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A miss reports false with a nil error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey identifies the project produced by running a script.
	ResultKey(projectHash, scriptHash string) string

	// ValidationKey identifies a validation report for one mode.
	ValidationKey(projectHash, mode string) string

	// GraphKey identifies a rendered link graph.
	GraphKey(projectHash string, opts GraphKeyOpts) string
}

// GraphKeyOpts are the options that change a rendered link graph.
type GraphKeyOpts struct {
	Mode   string `json:"mode"`
	Format string `json:"format"`
}

// Default TTLs per entry kind.
const (
	ResultTTL     = 24 * time.Hour
	ValidationTTL = 24 * time.Hour
	GraphTTL      = 7 * 24 * time.Hour
)

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ResultKey(projectHash, scriptHash string) string {
	return hashKey("result", projectHash, scriptHash)
}

func (DefaultKeyer) ValidationKey(projectHash, mode string) string {
	return hashKey("validate", projectHash, mode)
}

func (DefaultKeyer) GraphKey(projectHash string, opts GraphKeyOpts) string {
	return hashKey("graph", projectHash, opts)
}

var _ Keyer = DefaultKeyer{}

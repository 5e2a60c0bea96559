// Package cache provides byte-level caching for pipeline stage results with
// pluggable backends (file, redis, null) and deterministic key derivation.
package cache

import (
	"context"
	"time"
)

// Default TTLs per pipeline stage. Graphs and splits are pure functions of
// their keys, so the TTLs only bound storage growth, not staleness.
const (
	TTLGraph    = 24 * time.Hour
	TTLSplit    = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends. Values are opaque
// byte slices; callers serialize their own payloads. A zero ttl means the
// entry never expires.
type Cache interface {
	// Get returns the cached value and whether it was present. A miss is
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key, overwriting any existing entry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys for the pipeline stages. Keys are stable across
// runs: equal inputs and options always produce the same key.
type Keyer interface {
	// GraphKey keys a parsed graph by the hash of its source bytes.
	GraphKey(sourceHash string) string

	// SplitKey keys a split result by the graph it was computed from and
	// the assignment options that shaped it.
	SplitKey(graphHash string, opts SplitKeyOpts) string

	// ArtifactKey keys a rendered artifact by the split it was produced
	// from and the output options.
	ArtifactKey(splitHash string, opts ArtifactKeyOpts) string
}

// SplitKeyOpts carries every assignment option that affects a split result.
type SplitKeyOpts struct {
	Policy     string            // assignment policy name
	Groups     int               // group count for counting policies
	Assignment map[string]string // explicit node-to-group table, if any
}

// ArtifactKeyOpts carries every option that affects a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string // output format: "dot", "svg", "json"
	Detailed bool   // verbose diagram labels
}

// DefaultKeyer is the standard key derivation: a stage prefix plus a SHA-256
// hash of the identifying inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for a parsed graph.
func (k *DefaultKeyer) GraphKey(sourceHash string) string {
	return "graph:" + sourceHash
}

// SplitKey generates a key for a split result.
func (k *DefaultKeyer) SplitKey(graphHash string, opts SplitKeyOpts) string {
	return hashKey("split", graphHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(splitHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", splitHash, opts)
}

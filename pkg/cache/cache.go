// Package cache stores rendered frames so that re-running a subject does not
// re-invoke the scene renderer for scenes whose resolved text, index and
// geometry are unchanged.
//
// Three backends share the [Cache] interface:
//
//   - [FileCache]: raw frame files under a local directory (CLI default)
//   - [RedisCache]: a shared Redis instance, for clusters running many
//     subjects against the same templates
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer]; [ScopedKeyer] adds a prefix so unrelated
// deployments can share one Redis database.
package cache

import (
	"context"
	"time"
)

// TTLFrame is how long a rendered frame stays valid. Frames depend only on
// the resolved scene text, so they can be kept for a long time.
const TTLFrame = 30 * 24 * time.Hour

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored data and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// FrameKeyOpts are the render parameters that change a frame's pixels.
type FrameKeyOpts struct {
	Index  string // scene ordinal or scene name
	Width  int
	Height int
}

// Keyer derives cache keys.
type Keyer interface {
	// FrameKey returns the key for one rendered frame of a resolved scene.
	FrameKey(sceneHash string, opts FrameKeyOpts) string
}

// DefaultKeyer generates unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key generator.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FrameKey hashes the scene hash together with the render options.
func (DefaultKeyer) FrameKey(sceneHash string, opts FrameKeyOpts) string {
	return frameKey(sceneHash, opts)
}

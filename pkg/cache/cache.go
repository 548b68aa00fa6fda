// Package cache provides the key/value caches used by the render pipeline and
// the domain store client.
//
// Two kinds of entries are cached:
//
//   - listings: the last good domain listing per parent, used when the store
//     cannot be reached
//   - artifacts: rendered SVG/PNG/PDF/JSON output keyed by the listing hash,
//     the viewport, and the output options
//
// Backends:
//
//   - [FileCache]: JSON entries under a directory, for CLI usage
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: never stores anything
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with (nil, false, nil). Implementations must be safe
// for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default TTLs for the entry kinds.
const (
	ListingTTL  = 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Keyer derives cache keys. Swapping the Keyer lets a deployment namespace
// its entries without touching the callers.
type Keyer interface {
	// ListingKey keys the last good listing of a parent ("" for the roots).
	ListingKey(baseURL, parentID string) string
	// ArtifactKey keys a rendered artifact.
	ArtifactKey(listingHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Seed   uint64  `json:"seed"`
	Labels bool    `json:"labels"`
	Static bool    `json:"static"`
	Title  string  `json:"title,omitempty"`
}

// DefaultKeyer produces "listing:" and "artifact:" prefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ListingKey implements Keyer.
func (DefaultKeyer) ListingKey(baseURL, parentID string) string {
	return hashKey("listing", baseURL, parentID)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(listingHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", listingHash, opts)
}

package cache

// ScopedKeyer wraps a Keyer with a prefix so several servers can share one
// Redis instance without reading each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer falls back
// to [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ListingKey implements Keyer.
func (k *ScopedKeyer) ListingKey(baseURL, parentID string) string {
	return k.prefix + k.inner.ListingKey(baseURL, parentID)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(listingHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(listingHash, opts)
}

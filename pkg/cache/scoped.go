package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when several sites share one Redis database, or when a
// template revision should not reuse frames rendered from an older one.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "execsummary:v2:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// FrameKey generates a prefixed frame key.
func (k *ScopedKeyer) FrameKey(sceneHash string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(sceneHash, opts)
}

package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, letting
// several projects or users share one backend without key collisions.
//
// Example usage:
//
//	// Project-specific keys
//	projKeyer := NewScopedKeyer(NewDefaultKeyer(), "proj:infra:")
//
//	// Shared keys
//	sharedKeyer := NewDefaultKeyer()
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

// GraphKey generates a prefixed key for a parsed graph.
func (k *ScopedKeyer) GraphKey(sourceHash string) string {
	return k.prefix + k.inner.GraphKey(sourceHash)
}

// SplitKey generates a prefixed key for a split result.
func (k *ScopedKeyer) SplitKey(graphHash string, opts SplitKeyOpts) string {
	return k.prefix + k.inner.SplitKey(graphHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(splitHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(splitHash, opts)
}

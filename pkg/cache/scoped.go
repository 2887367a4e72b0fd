package cache

// ScopedKeyer prefixes every key from an inner Keyer, giving a tenant or
// environment its own namespace in a shared backend:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "team:creative:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with prefix. A nil inner means DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ResultKey(projectHash, scriptHash string) string {
	return k.prefix + k.inner.ResultKey(projectHash, scriptHash)
}

func (k *ScopedKeyer) ValidationKey(projectHash, mode string) string {
	return k.prefix + k.inner.ValidationKey(projectHash, mode)
}

func (k *ScopedKeyer) GraphKey(projectHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(projectHash, opts)
}

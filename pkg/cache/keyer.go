package cache

import "strings"

// Key type prefixes.
const (
	KeyTypeOrganize = "organize"
	KeyTypeArtifact = "artifact"
)

// Keyer builds cache keys. Settings values are JSON-encoded into the hash,
// so any two settings that encode differently produce different keys.
type Keyer interface {
	// OrganizeKey addresses an organization result for the given input.
	OrganizeKey(inputHash string, settings any) string

	// ArtifactKey addresses one rendered format of an organization result.
	ArtifactKey(resultHash, format string, settings any) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) OrganizeKey(inputHash string, settings any) string {
	return hashKey(KeyTypeOrganize, inputHash, settings)
}

func (DefaultKeyer) ArtifactKey(resultHash, format string, settings any) string {
	return hashKey(KeyTypeArtifact, resultHash, format, settings)
}

// ScopedKeyer prefixes every key of an inner Keyer, giving callers that share
// one backend separate namespaces.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a Keyer that prepends prefix to keys built by inner.
// A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) OrganizeKey(inputHash string, settings any) string {
	return k.prefix + k.inner.OrganizeKey(inputHash, settings)
}

func (k *ScopedKeyer) ArtifactKey(resultHash, format string, settings any) string {
	return k.prefix + k.inner.ArtifactKey(resultHash, format, settings)
}

// KeyType returns the type of key: the segment before the hash, after any
// scope prefix. It returns "unknown" for keys without a colon.
func KeyType(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "unknown"
	}
	head := key[:i]
	if j := strings.LastIndexByte(head, ':'); j >= 0 {
		head = head[j+1:]
	}
	return head
}

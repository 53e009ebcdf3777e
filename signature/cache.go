package signature

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wippyai/valuebridge/host"
)

// DefaultCacheSize is the capacity used by NewCache when size <= 0.
const DefaultCacheSize = 1024

// Cache holds probed signatures by foreign name. Entries are never
// refreshed; Forget or Purge after redefining a callable.
type Cache struct {
	entries *lru.Cache[string, *Signature]
}

// NewCache creates a cache holding up to size signatures.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *Signature](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Probe returns the cached signature for name, probing on a miss.
// Failed probes are not cached.
func (c *Cache) Probe(h host.Host, name string) (*Signature, error) {
	name = host.Qualify(name)
	if sig, ok := c.entries.Get(name); ok {
		return sig, nil
	}
	sig, err := Probe(h, name)
	if err != nil {
		return nil, err
	}
	c.entries.Add(name, sig)
	return sig, nil
}

// Forget drops the entry for name.
func (c *Cache) Forget(name string) {
	c.entries.Remove(host.Qualify(name))
}

// Purge drops all entries.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached signatures.
func (c *Cache) Len() int {
	return c.entries.Len()
}

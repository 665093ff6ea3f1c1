package hass

import "sync"

// entityCache holds the last-seen entity list per domain. Discovery
// operations are the only writers; nothing in the client reads it back.
// Derived clients share one cache, so writes are mutex-guarded.
type entityCache struct {
	mu       sync.RWMutex
	byDomain map[string][]Entity
}

func newEntityCache() *entityCache {
	return &entityCache{byDomain: make(map[string][]Entity)}
}

// storeDomain overwrites a single domain's entry.
func (c *entityCache) storeDomain(domain string, entities []Entity) {
	c.mu.Lock()
	c.byDomain[domain] = entities
	c.mu.Unlock()
}

// replaceAll swaps in a freshly grouped mapping, discarding every prior entry.
func (c *entityCache) replaceAll(grouped map[string][]Entity) {
	c.mu.Lock()
	c.byDomain = grouped
	c.mu.Unlock()
}

// snapshot returns a shallow copy of the mapping.
func (c *entityCache) snapshot() map[string][]Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]Entity, len(c.byDomain))
	for domain, entities := range c.byDomain {
		out[domain] = entities
	}
	return out
}

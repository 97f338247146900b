package sqlengine

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/qlibin/event-attendees/eventrepo"
)

const (
	DefaultExistenceCacheSize = 100_000
	DefaultExistenceCacheTTL  = 5 * time.Minute
)

// CacheStats are cumulative lookup statistics of an ExistenceCache.
type CacheStats struct {
	Hits   int64
	Misses int64
	Size   int
}

// ExistenceCache remembers ids of events known to exist. Entries expire ttl after their
// last access and the least recently used entry is evicted once size is reached.
type ExistenceCache struct {
	entries *expirable.LRU[eventrepo.EventID, struct{}]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewExistenceCache creates an ExistenceCache with room for size entries.
func NewExistenceCache(size int, ttl time.Duration) (*ExistenceCache, error) {
	if size < 1 {
		return nil, eventrepo.ErrInvalidExistenceCacheSize
	}

	return &ExistenceCache{
		entries: expirable.NewLRU[eventrepo.EventID, struct{}](size, nil, ttl),
	}, nil
}

// Known reports whether id was remembered and has not expired. A hit restarts the expiry.
func (c *ExistenceCache) Known(id eventrepo.EventID) bool {
	if _, ok := c.entries.Get(id); ok {
		c.entries.Add(id, struct{}{})
		c.hits.Add(1)

		return true
	}

	c.misses.Add(1)

	return false
}

// Remember records that id exists.
func (c *ExistenceCache) Remember(id eventrepo.EventID) {
	c.entries.Add(id, struct{}{})
}

// Forget drops id from the cache.
func (c *ExistenceCache) Forget(id eventrepo.EventID) {
	c.entries.Remove(id)
}

// Purge drops all entries. Statistics are kept.
func (c *ExistenceCache) Purge() {
	c.entries.Purge()
}

// Stats returns the lookup statistics and the current number of entries.
func (c *ExistenceCache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.entries.Len(),
	}
}

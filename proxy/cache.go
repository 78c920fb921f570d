package proxy

import (
	"context"
	"sync/atomic"

	"github.com/golang/snappy"
)

// DefaultMaxObjectSize and DefaultMaxCacheSize are the reference proxy's
// compiled-in limits.
const (
	DefaultMaxObjectSize = 102400
	DefaultMaxCacheSize  = 1049000
)

// Fingerprint identifies a cacheable object by its origin triple. A
// byte-wise, case-sensitive comparison is required, which Go's built-in
// struct equality already gives for string fields.
type Fingerprint struct {
	Host string
	Path string
	Port string
}

// entry is one cached object. data holds the snappy-compressed payload;
// size is the uncompressed length the cache's byte budget is accounted
// against, since the budget is defined over response bytes, not over
// however the implementation happens to store them.
type entry struct {
	key        Fingerprint
	data       []byte
	size       int
	accessedAt int64
}

// CacheStats reports cumulative cache activity, the Go analogue of the
// counters a production proxy would export to a metrics backend; kept as
// plain fields rather than wired to a metrics library, since nothing in
// this pack pulls in prometheus or opencensus for a component this small.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Inserts   int64
}

// Cache is the shared LRU object cache: an unordered slice of
// entries scanned linearly on every operation, exactly as the reference
// does, under the protection of a Gate rather than a single mutex so that
// concurrent lookups never block one another.
type Cache struct {
	gate *Gate

	maxObjectSize int
	maxCacheSize  int

	entries   []*entry
	totalSize int
	tick      int64

	stats CacheStats
}

// NewCache returns an empty Cache with the given limits. A maxObjectSize or
// maxCacheSize of 0 selects the reference defaults.
func NewCache(maxObjectSize, maxCacheSize int) *Cache {
	if maxObjectSize <= 0 {
		maxObjectSize = DefaultMaxObjectSize
	}
	if maxCacheSize <= 0 {
		maxCacheSize = DefaultMaxCacheSize
	}
	return &Cache{
		gate:          NewGate(),
		maxObjectSize: maxObjectSize,
		maxCacheSize:  maxCacheSize,
	}
}

// MaxObjectSize reports the size ceiling above which a response is never
// cached.
func (c *Cache) MaxObjectSize() int { return c.maxObjectSize }

func (c *Cache) nextTick() int64 { return atomic.AddInt64(&c.tick, 1) }

// Lookup performs a shared-read cache probe. On a hit it stamps the entry
// with a fresh access tick before returning a copy of its bytes, so a
// successful lookup counts as a use for LRU purposes.
func (c *Cache) Lookup(ctx context.Context, key Fingerprint) ([]byte, bool, error) {
	if err := c.gate.RLock(ctx); err != nil {
		return nil, false, err
	}
	defer c.gate.RUnlock()

	for _, e := range c.entries {
		if e.key == key {
			atomic.StoreInt64(&e.accessedAt, c.nextTick())
			out, err := snappy.Decode(nil, e.data)
			if err != nil {
				return nil, false, err
			}
			atomic.AddInt64(&c.stats.Hits, 1)
			return out, true, nil
		}
	}
	atomic.AddInt64(&c.stats.Misses, 1)
	return nil, false, nil
}

// Insert adds body under key, exclusively. Bodies larger than
// MaxObjectSize are rejected outright (the caller is expected to have
// already made this check while streaming, but Insert enforces it too so
// the invariant can never be violated by a caller bug). Eviction proceeds
// oldest-access-first until the new entry fits under the byte budget.
func (c *Cache) Insert(ctx context.Context, key Fingerprint, body []byte) error {
	if len(body) > c.maxObjectSize {
		return nil
	}
	if err := c.gate.Lock(ctx); err != nil {
		return err
	}
	defer c.gate.Unlock()

	for i, e := range c.entries {
		if e.key == key {
			c.totalSize -= e.size
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}

	for c.totalSize+len(body) > c.maxCacheSize && len(c.entries) > 0 {
		victim := 0
		for i, e := range c.entries[1:] {
			if e.accessedAt < c.entries[victim].accessedAt {
				victim = i + 1
			}
		}
		c.totalSize -= c.entries[victim].size
		c.entries = append(c.entries[:victim], c.entries[victim+1:]...)
		atomic.AddInt64(&c.stats.Evictions, 1)
	}

	packed := snappy.Encode(nil, body)
	c.entries = append(c.entries, &entry{
		key:        key,
		data:       packed,
		size:       len(body),
		accessedAt: c.nextTick(),
	})
	c.totalSize += len(body)
	atomic.AddInt64(&c.stats.Inserts, 1)
	return nil
}

// Stats returns a snapshot of cumulative cache activity.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:      atomic.LoadInt64(&c.stats.Hits),
		Misses:    atomic.LoadInt64(&c.stats.Misses),
		Evictions: atomic.LoadInt64(&c.stats.Evictions),
		Inserts:   atomic.LoadInt64(&c.stats.Inserts),
	}
}

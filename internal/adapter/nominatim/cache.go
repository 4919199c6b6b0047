package nominatim

import (
	"context"
	"strings"
	"sync"

	"github.com/couchcryptid/carbon-food-print/internal/domain"
	"github.com/couchcryptid/carbon-food-print/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) Resolve(ctx context.Context, placeName string) (domain.Coordinate, error) {
	key := cacheKey(placeName)
	if coord, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return coord, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	coord, err := c.inner.Resolve(ctx, placeName)
	if err != nil {
		// Not-found answers are never cached so a later run retries them.
		return coord, err
	}
	c.cache.put(key, coord)
	return coord, nil
}

func cacheKey(placeName string) string {
	return strings.ToLower(strings.Join(strings.Fields(placeName), " "))
}

// lruCache is a simple thread-safe LRU cache of resolved coordinates.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Coordinate
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Coordinate{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}

package dedupe

import (
	"sync"
	"time"
)

type entry struct {
	url string
	ts  time.Time
}

// SeenCache keeps a fixed-size set of recently ingested article URLs so
// the worker can skip store round-trips for exact repeats within a
// session. It is an optimization only; the store's uniqueness keys remain
// the source of truth.
type SeenCache struct {
	mu       sync.Mutex
	items    map[string]time.Time
	order    []entry
	capacity int
	ttl      time.Duration
}

// NewSeenCache creates a cache with the provided capacity and ttl.
func NewSeenCache(capacity int, ttl time.Duration) *SeenCache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SeenCache{
		items:    make(map[string]time.Time, capacity),
		order:    make([]entry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Seen returns true when the URL has been observed inside the ttl window.
// It does not record the URL; use Mark() for that.
func (c *SeenCache) Seen(url string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ts, ok := c.items[url]; ok {
		if now.Sub(ts) <= c.ttl {
			return true
		}
	}
	return false
}

// Mark records that a URL has been ingested.
func (c *SeenCache) Mark(url string) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[url] = now
	c.order = append(c.order, entry{url: url, ts: now})
	c.compact(now)
}

func (c *SeenCache) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.items) > c.capacity || c.order[0].ts.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		if ts, ok := c.items[oldest.url]; ok {
			if ts == oldest.ts {
				delete(c.items, oldest.url)
			}
		}
	}
}

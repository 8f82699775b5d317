package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the reservation window for a normalized URL.
// 30 seconds matches the debounce behavior users expect from a page reload:
// long enough to absorb the burst of navigation events a single page load
// produces, short enough that a deliberate re-visit gets a fresh scan.
const DefaultTTL = 30 * time.Second

// DebounceCache suppresses duplicate scans of the same normalized URL.
//
// The cache is an optimistic lock, not a memoization table: TryReserve
// writes the reservation *before* the caller starts any asynchronous work,
// so every later trigger for the same URL inside the TTL window observes the
// reservation and drops out. For the length of the window the cache behaves
// as a single-slot mutex per URL.
//
// There is deliberately no unreserve: if the scan later fails, the slot
// stays taken until the TTL elapses, which keeps a failing classifier from
// being hammered on every reload.
//
// Entries are overwritten in place and never physically evicted; the map is
// bounded by the distinct-URL cardinality of the browsing session.
type DebounceCache struct {
	// mu guards entries. The spec's event model is single-threaded, but
	// the serve-mode HTTP handlers invoke TryReserve concurrently, so the
	// write-then-check step must be atomic here as well.
	mu sync.Mutex

	// ttl is the reservation window.
	ttl time.Duration

	// entries maps a normalized URL to the time it was last reserved.
	entries map[string]time.Time
}

// Option configures a DebounceCache.
type Option func(*DebounceCache)

// WithTTL overrides the reservation window. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *DebounceCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// New creates a DebounceCache with the given options.
func New(opts ...Option) *DebounceCache {
	c := &DebounceCache{
		ttl:     DefaultTTL,
		entries: make(map[string]time.Time),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// TryReserve attempts to claim the scan slot for a normalized URL.
//
// If no reservation exists, or the existing one is at least TTL old, the
// slot is re-reserved at now and TryReserve returns true: the caller owns
// the scan. Otherwise it returns false and the caller must skip.
//
// The reserve-or-reject check and the write happen under one lock, so of
// any number of interleaved triggers for the same URL, exactly one wins.
func (c *DebounceCache) TryReserve(normalizedURL string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reservedAt, ok := c.entries[normalizedURL]; ok {
		if now.Sub(reservedAt) < c.ttl {
			return false
		}
	}

	c.entries[normalizedURL] = now
	return true
}

// ReservedAt returns the reservation time for a normalized URL and whether
// a reservation exists. Expired entries are still reported; expiry is
// TryReserve's concern.
func (c *DebounceCache) ReservedAt(normalizedURL string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reservedAt, ok := c.entries[normalizedURL]
	return reservedAt, ok
}

// Len returns the number of distinct URLs ever reserved and not overwritten.
func (c *DebounceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// TTL returns the configured reservation window.
func (c *DebounceCache) TTL() time.Duration {
	return c.ttl
}

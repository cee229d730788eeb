package rtclient

import "sync"

// ActivityCache holds the most recent activity records for a
// subscription. Server events patch it directly (prepend, fixed cap)
// for immediacy, and additionally flip a staleness flag so the next
// natural refetch reconciles anything the patch path missed.
type ActivityCache[T any] struct {
	mu      sync.Mutex
	items   []T
	maxSize int
	stale   bool
}

// NewActivityCache creates a cache holding at most maxSize records.
func NewActivityCache[T any](maxSize int) *ActivityCache[T] {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &ActivityCache[T]{maxSize: maxSize}
}

// Prepend inserts a record at the front, dropping the oldest when the
// cap is exceeded, and marks the cache possibly stale.
func (c *ActivityCache[T]) Prepend(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append([]T{item}, c.items...)
	if len(c.items) > c.maxSize {
		c.items = c.items[:c.maxSize]
	}
	c.stale = true
}

// Items returns a copy of the cached records, newest first.
func (c *ActivityCache[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len reports the number of cached records.
func (c *ActivityCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// MarkStale flags the cache for reconciliation on the next refetch.
func (c *ActivityCache[T]) MarkStale() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
}

// IsStale reports whether a refetch should replace the cache contents.
func (c *ActivityCache[T]) IsStale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Replace swaps in authoritative records from a refetch and clears the
// staleness flag.
func (c *ActivityCache[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make([]T, 0, c.maxSize)
	for i, item := range items {
		if i >= c.maxSize {
			break
		}
		c.items = append(c.items, item)
	}
	c.stale = false
}

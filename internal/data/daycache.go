package data

import "sync"

// maxCachedDays bounds how many parsed days a FlatFileLoader keeps per
// dataset. Convert batches run date by date, so two covers the day being
// converted plus the one before it.
const maxCachedDays = 2

type dayEntry[T any] struct {
	once  sync.Once
	value T
	err   error
}

// dayCache holds the most recently loaded days. Concurrent callers asking
// for the same key share one load. Failed loads are not kept.
type dayCache[T any] struct {
	mu      sync.Mutex
	entries map[string]*dayEntry[T]
	order   []string
	limit   int
}

func newDayCache[T any](limit int) *dayCache[T] {
	return &dayCache[T]{entries: make(map[string]*dayEntry[T]), limit: max(limit, 1)}
}

func (c *dayCache[T]) get(key string, load func() (T, error)) (T, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &dayEntry[T]{}
		c.entries[key] = e
		c.order = append(c.order, key)
		for len(c.order) > c.limit {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
	}
	c.mu.Unlock()

	e.once.Do(func() { e.value, e.err = load() })

	if e.err != nil {
		c.mu.Lock()
		if c.entries[key] == e {
			delete(c.entries, key)
			for i, k := range c.order {
				if k == key {
					c.order = append(c.order[:i], c.order[i+1:]...)
					break
				}
			}
		}
		c.mu.Unlock()
	}
	return e.value, e.err
}

func (c *dayCache[T]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

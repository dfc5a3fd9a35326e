package errorcounter

import "sync"

// New creates and returns a Counter with an initialised internal store ready for use.
func New() *Counter {
	return &Counter{
		store: make(map[string]int),
	}
}

// Counter keeps a central in-mem count of consecutive advance failures per record so
// that repeat offenders can be escalated. A successful advance clears the record's
// count.
type Counter struct {
	mu    sync.Mutex
	store map[string]int
}

// Add increments the record's failure count and returns the new value.
func (c *Counter) Add(recordID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[recordID]++
	return c.store[recordID]
}

// Count returns the record's current failure count.
func (c *Counter) Count(recordID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store[recordID]
}

// Clear resets the record's failure count.
func (c *Counter) Clear(recordID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.store, recordID)
}

// Package quota counts per-user AI calls for the lifetime of the process.
package quota

import "sync"

// Counter is an in-memory per-user call counter. A call takes a slot with
// Reserve before it starts and settles it with Commit on success or Release on
// failure, so concurrent callers can never push a user past the limit. Counts
// are lost on restart.
type Counter struct {
	mu      sync.Mutex
	counts  map[string]int
	pending map[string]int
}

func NewCounter() *Counter {
	return &Counter{
		counts:  make(map[string]int),
		pending: make(map[string]int),
	}
}

// Reserve takes a slot for one call if the user's committed and in-flight
// calls are below limit.
func (c *Counter) Reserve(userID string, limit int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[userID]+c.pending[userID] >= limit {
		return false
	}
	c.pending[userID]++
	return true
}

// Commit turns a reserved slot into a counted call and returns the new count.
func (c *Counter) Commit(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unreserve(userID)
	c.counts[userID]++
	return c.counts[userID]
}

// Release gives back a reserved slot without counting it.
func (c *Counter) Release(userID string) {
	c.mu.Lock()
	c.unreserve(userID)
	c.mu.Unlock()
}

func (c *Counter) unreserve(userID string) {
	if c.pending[userID] <= 1 {
		delete(c.pending, userID)
		return
	}
	c.pending[userID]--
}

func (c *Counter) Get(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[userID]
}

// Reset clears the user's count. Calls already in flight still settle.
func (c *Counter) Reset(userID string) {
	c.mu.Lock()
	delete(c.counts, userID)
	c.mu.Unlock()
}

package quota

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterLifecycle(t *testing.T) {
	c := NewCounter()

	assert.Equal(t, 0, c.Get("u1"))

	for i := 1; i <= 3; i++ {
		assert.True(t, c.Reserve("u1", 10))
		assert.Equal(t, i, c.Commit("u1"))
	}
	assert.Equal(t, 3, c.Get("u1"))
	assert.Equal(t, 0, c.Get("u2"))

	c.Reset("u1")
	assert.Equal(t, 0, c.Get("u1"))

	// resetting an unknown user is harmless
	c.Reset("nobody")
}

func TestCounterReserveCountsInFlightCalls(t *testing.T) {
	c := NewCounter()

	assert.True(t, c.Reserve("u1", 2))
	assert.True(t, c.Reserve("u1", 2))
	assert.False(t, c.Reserve("u1", 2), "both slots are in flight")
	assert.Equal(t, 0, c.Get("u1"), "in-flight calls are not counted yet")

	c.Release("u1")
	assert.True(t, c.Reserve("u1", 2), "a released slot can be taken again")

	c.Commit("u1")
	c.Commit("u1")
	assert.Equal(t, 2, c.Get("u1"))
	assert.False(t, c.Reserve("u1", 2))

	// releasing without a reservation is harmless
	c.Release("u2")
	assert.True(t, c.Reserve("u2", 1))
}

func TestCounterConcurrentReservations(t *testing.T) {
	c := NewCounter()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Reserve("u1", 20) {
				mu.Lock()
				admitted++
				mu.Unlock()
				c.Commit("u1")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, admitted)
	assert.Equal(t, 20, c.Get("u1"))
}

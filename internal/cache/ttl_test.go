package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL_GetSet(t *testing.T) {
	c := New[string](time.Minute, clockwork.NewFakeClock())

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", "A")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A", v)
}

func TestTTL_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New[int](30*time.Minute, clock)

	c.Set("GA0010000", 1)

	clock.Advance(29*time.Minute + 59*time.Second)
	_, ok := c.Get("GA0010000")
	assert.True(t, ok, "still inside the window")

	clock.Advance(time.Second)
	_, ok = c.Get("GA0010000")
	assert.False(t, ok, "expired exactly at ttl")
	assert.Equal(t, 0, c.Len(), "expired entry dropped on read")
}

func TestTTL_SetRestartsWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New[string](time.Hour, clock)

	c.Set("k", "old")
	clock.Advance(50 * time.Minute)
	c.Set("k", "new")
	clock.Advance(50 * time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestTTL_NoExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New[string](0, clock)

	c.Set("k", "v")
	clock.Advance(24 * 365 * time.Hour)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestTTL_Evict(t *testing.T) {
	c := New[string](time.Hour, nil)

	c.Set("k", "v")
	c.Evict("k")
	c.Evict("never-set")

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTL_ConcurrentAccess(t *testing.T) {
	c := New[int](time.Hour, clockwork.NewFakeClock())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%5)
			c.Set(key, n)
			_, _ = c.Get(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := New()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", 42, time.Minute)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestExpiry(t *testing.T) {
	c := New()
	c.Set("k", "v", time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("a", "b"), Key("b", "a"))
}

func TestCleanupDropsExpired(t *testing.T) {
	c := New()
	c.Set("dead", 1, time.Nanosecond)
	c.Set("alive", 2, time.Hour)
	time.Sleep(time.Millisecond)

	c.cleanup()

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.NotContains(t, c.items, "dead")
	assert.Contains(t, c.items, "alive")
}

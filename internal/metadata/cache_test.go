package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGetExpire(t *testing.T) {
	c := NewCache(CacheConfig{TTL: time.Minute})
	defer c.Close()

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, 1, c.Purge())
	assert.Zero(t, c.Len())
}

func TestCache_EvictsWhenFull(t *testing.T) {
	c := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 3})
	defer c.Close()

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(time.Second)
	c.Set("b", 2)
	now = now.Add(time.Second)
	c.Set("c", 3)
	now = now.Add(time.Second)
	c.Set("d", 4)

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := NewCache(DefaultCacheConfig())
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	assert.Zero(t, c.Len())
}

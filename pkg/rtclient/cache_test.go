package rtclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivityCache_PrependOrdersNewestFirst(t *testing.T) {
	cache := NewActivityCache[string](10)

	cache.Prepend("first")
	cache.Prepend("second")
	cache.Prepend("third")

	assert.Equal(t, []string{"third", "second", "first"}, cache.Items())
	assert.Equal(t, 3, cache.Len())
}

func TestActivityCache_CapDropsOldest(t *testing.T) {
	cache := NewActivityCache[int](3)

	for i := 1; i <= 5; i++ {
		cache.Prepend(i)
	}

	assert.Equal(t, []int{5, 4, 3}, cache.Items())
}

func TestActivityCache_PrependMarksStale(t *testing.T) {
	cache := NewActivityCache[string](10)
	assert.False(t, cache.IsStale())

	cache.Prepend("patch")
	assert.True(t, cache.IsStale())
}

func TestActivityCache_MarkStale(t *testing.T) {
	cache := NewActivityCache[string](10)

	cache.MarkStale()
	assert.True(t, cache.IsStale())
}

func TestActivityCache_ReplaceClearsStaleAndCaps(t *testing.T) {
	cache := NewActivityCache[int](3)
	cache.Prepend(99)
	assert.True(t, cache.IsStale())

	cache.Replace([]int{1, 2, 3, 4, 5})

	assert.Equal(t, []int{1, 2, 3}, cache.Items())
	assert.False(t, cache.IsStale())
}

func TestActivityCache_ItemsReturnsCopy(t *testing.T) {
	cache := NewActivityCache[string](10)
	cache.Prepend("only")

	items := cache.Items()
	items[0] = "mutated"

	assert.Equal(t, []string{"only"}, cache.Items())
}

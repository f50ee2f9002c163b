// internal/cache/catalog_test.go
package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := NewCatalogCache(time.Minute)

	_, found := c.Get("list|Phones")
	assert.False(t, found)

	c.Set("list|Phones", 42)
	value, found := c.Get("list|Phones")
	assert.True(t, found)
	assert.Equal(t, 42, value)
}

func TestInvalidateOrphansEveryEntry(t *testing.T) {
	c := NewCatalogCache(time.Minute)

	c.Set("list|Phones", 1)
	c.Set("list|Tablets", 2)
	gen := c.Generation()

	c.Invalidate()

	assert.Equal(t, gen+1, c.Generation())
	_, found := c.Get("list|Phones")
	assert.False(t, found)
	_, found = c.Get("list|Tablets")
	assert.False(t, found)

	// New writes land in the new generation and are visible again.
	c.Set("list|Phones", 3)
	value, found := c.Get("list|Phones")
	assert.True(t, found)
	assert.Equal(t, 3, value)
}

func TestEntriesExpireWithTTL(t *testing.T) {
	c := NewCatalogCache(10 * time.Millisecond)

	c.Set("k", "v")
	time.Sleep(30 * time.Millisecond)

	_, found := c.Get("k")
	assert.False(t, found)
}

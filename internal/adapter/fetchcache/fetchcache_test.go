package fetchcache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCache_PutGet(t *testing.T) {
	cache := openTestCache(t)

	cache.Put("https://example.com/a", []byte("body-a"), time.Minute)

	body, ok := cache.Get("https://example.com/a")
	assert.True(t, ok)
	assert.Equal(t, []byte("body-a"), body)

	_, ok = cache.Get("https://example.com/other")
	assert.False(t, ok)
}

func TestCache_Overwrite(t *testing.T) {
	cache := openTestCache(t)

	cache.Put("https://example.com/a", []byte("old"), time.Minute)
	cache.Put("https://example.com/a", []byte("new"), time.Minute)

	body, ok := cache.Get("https://example.com/a")
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), body)
}

func TestCache_Expiry(t *testing.T) {
	cache := openTestCache(t)

	current := time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	cache.Put("https://example.com/a", []byte("body-a"), 10*time.Minute)

	body, ok := cache.Get("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, []byte("body-a"), body)

	current = current.Add(11 * time.Minute)
	_, ok = cache.Get("https://example.com/a")
	assert.False(t, ok)

	// The expired row was deleted, so a re-put starts a fresh TTL.
	cache.Put("https://example.com/a", []byte("fresh"), 10*time.Minute)
	body, ok = cache.Get("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, []byte("fresh"), body)
}

func TestCache_NonPositiveTTLNotStored(t *testing.T) {
	cache := openTestCache(t)

	cache.Put("https://example.com/a", []byte("body-a"), 0)

	_, ok := cache.Get("https://example.com/a")
	assert.False(t, ok)
}

func TestCache_NilCacheIsDisabled(t *testing.T) {
	var cache *Cache

	cache.Put("https://example.com/a", []byte("body-a"), time.Minute)
	_, ok := cache.Get("https://example.com/a")
	assert.False(t, ok)
	assert.NoError(t, cache.Close())
}

func TestOpen_EmptyPathDisablesCaching(t *testing.T) {
	cache, err := Open("")
	require.NoError(t, err)
	require.Nil(t, cache)

	cache.Put("https://example.com/a", []byte("body-a"), time.Minute)
	_, ok := cache.Get("https://example.com/a")
	assert.False(t, ok)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing-dir", "cache.db"))
	require.Error(t, err)
}

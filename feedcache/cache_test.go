package feedcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	assert := assert.New(t)

	cache, err := New(time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	_, ok := cache.Get("feed:someone")
	assert.False(ok)

	cache.Put("feed:someone", []byte(`{"total_count":0}`))
	payload, ok := cache.Get("feed:someone")
	assert.True(ok)
	assert.Equal(`{"total_count":0}`, string(payload))

	_, ok = cache.Get("feed:someone-else")
	assert.False(ok)
}

func TestCacheExpiry(t *testing.T) {
	assert := assert.New(t)

	cache, err := New(50 * time.Millisecond)
	require.NoError(t, err)
	defer cache.Close()

	cache.Put("key", []byte("payload"))
	_, ok := cache.Get("key")
	assert.True(ok)

	time.Sleep(120 * time.Millisecond)
	_, ok = cache.Get("key")
	assert.False(ok)
}

func TestCacheDisabled(t *testing.T) {
	assert := assert.New(t)

	cache, err := New(0)
	require.NoError(t, err)
	defer cache.Close()

	cache.Put("key", []byte("payload"))
	_, ok := cache.Get("key")
	assert.False(ok)

	var nilCache *Cache
	nilCache.Put("key", []byte("payload"))
	_, ok = nilCache.Get("key")
	assert.False(ok)
	assert.NoError(nilCache.Close())
}

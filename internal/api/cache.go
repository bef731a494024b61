package api

import (
	"log/slog"

	"github.com/coocood/freecache"
)

// Cache stores raw response bodies of cacheable GETs.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Del(key string)
	Clear()
}

type responseCache struct {
	cache *freecache.Cache
	ttl   int
}

// NewCache returns a freecache-backed cache, or a no-op one when the size or
// the TTL is zero.
func NewCache(sizeMB, ttlSeconds int) Cache {
	if sizeMB <= 0 || ttlSeconds <= 0 {
		slog.Debug("Response cache disabled")
		return noopCache{}
	}

	slog.Debug("Response cache initialized", "sizeMB", sizeMB, "ttlSeconds", ttlSeconds)
	return &responseCache{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   ttlSeconds,
	}
}

func (c *responseCache) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *responseCache) Set(key string, value []byte) {
	_ = c.cache.Set([]byte(key), value, c.ttl)
}

func (c *responseCache) Del(key string) {
	c.cache.Del([]byte(key))
}

func (c *responseCache) Clear() {
	c.cache.Clear()
}

type noopCache struct{}

func (noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (noopCache) Set(_ string, _ []byte)      {}
func (noopCache) Del(_ string)                {}
func (noopCache) Clear()                      {}

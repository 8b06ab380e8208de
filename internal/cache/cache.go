// Package cache keeps resolved account references between watch cycles.
package cache

import (
	"time"

	"github.com/coocood/freecache"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	tiktok "github.com/RavensCloud/tiktok-stats"
)

// IdentifierCache is a freecache-backed tiktok.IdentifierCache.
type IdentifierCache struct {
	cache *freecache.Cache
	ttl   int
}

// New returns a cache of sizeMB megabytes whose entries expire after ttl.
// A non-positive size disables caching.
func New(sizeMB int, ttl time.Duration, logger zerolog.Logger) tiktok.IdentifierCache {
	if sizeMB <= 0 {
		logger.Debug().Msg("identifier cache disabled")
		return noopCache{}
	}

	seconds := max(int(ttl.Seconds()), 1)
	logger.Debug().Int("size_mb", sizeMB).Int("ttl_s", seconds).Msg("identifier cache initialized")

	return &IdentifierCache{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   seconds,
	}
}

func (c *IdentifierCache) Get(reference string) (tiktok.Resolved, bool) {
	val, err := c.cache.Get([]byte(reference))
	if err != nil {
		return tiktok.Resolved{}, false
	}
	var r tiktok.Resolved
	if err := json.Unmarshal(val, &r); err != nil {
		return tiktok.Resolved{}, false
	}
	return r, true
}

func (c *IdentifierCache) Set(reference string, r tiktok.Resolved) {
	val, err := json.Marshal(r)
	if err != nil {
		return
	}
	_ = c.cache.Set([]byte(reference), val, c.ttl)
}

type noopCache struct{}

func (noopCache) Get(string) (tiktok.Resolved, bool) { return tiktok.Resolved{}, false }
func (noopCache) Set(string, tiktok.Resolved)        {}

package cache

import (
	"context"
	"time"
)

// FetchCache caches raw connector fetch results for a short TTL so that
// back-to-back ingestion runs do not hammer the same upstream feeds.
type FetchCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewFetchCache creates a fetch cache with the given TTL. A zero TTL
// defaults to 60 seconds.
func NewFetchCache(cache *RedisCache, ttl time.Duration) *FetchCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &FetchCache{cache: cache, ttl: ttl}
}

func (f *FetchCache) key(sourceID string) string {
	return "fetch:" + sourceID
}

// Get loads a cached fetch result for the source. Returns false on miss.
func (f *FetchCache) Get(ctx context.Context, sourceID string, dest interface{}) bool {
	if f == nil || f.cache == nil {
		return false
	}
	ok, err := f.cache.GetJSON(ctx, f.key(sourceID), dest)
	if err != nil {
		return false
	}
	return ok
}

// Put stores a fetch result for the source. Errors are swallowed, a cache
// write failure must never fail an ingestion run.
func (f *FetchCache) Put(ctx context.Context, sourceID string, value interface{}) {
	if f == nil || f.cache == nil {
		return
	}
	_ = f.cache.SetJSON(ctx, f.key(sourceID), value, f.ttl)
}

// Invalidate drops the cached result for the source.
func (f *FetchCache) Invalidate(ctx context.Context, sourceID string) {
	if f == nil || f.cache == nil {
		return
	}
	_ = f.cache.Delete(ctx, f.key(sourceID))
}

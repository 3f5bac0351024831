package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// =============================================================================
// DealListCache - two-level cache for first-page deal lists
// Strategy: only cursorless (first page) queries are cached; cursor pages are
// cheap seeks and change shape per client.
// =============================================================================

// ListCacheConfig holds cache configuration.
type ListCacheConfig struct {
	// L1 (local memory)
	L1MaxSize int
	L1TTL     time.Duration

	// L2 (Redis)
	L2TTL time.Duration
}

// DefaultListCacheConfig returns default cache configuration.
func DefaultListCacheConfig() *ListCacheConfig {
	return &ListCacheConfig{
		L1MaxSize: 1000,
		L1TTL:     30 * time.Second,
		L2TTL:     1 * time.Minute,
	}
}

// DealListCache provides two-level caching for deal list responses.
type DealListCache struct {
	config *ListCacheConfig
	l1     *L1Cache
	redis  *redis.Client
}

// NewDealListCache creates a new deal list cache.
func NewDealListCache(redisClient *redis.Client, config *ListCacheConfig) *DealListCache {
	if config == nil {
		config = DefaultListCacheConfig()
	}

	return &DealListCache{
		config: config,
		l1:     NewL1Cache(config.L1MaxSize, config.L1TTL),
		redis:  redisClient,
	}
}

// ListCacheKey identifies a first-page deal list query.
type ListCacheKey struct {
	Sort    string
	StoreID string
	Query   string
	Limit   int
}

func (k *ListCacheKey) String() string {
	return fmt.Sprintf("deals:list:%s:%s:%s:%d", k.Sort, k.StoreID, k.Query, k.Limit)
}

// Get retrieves a cached list response. Queries with a cursor are never cached.
func (c *DealListCache) Get(ctx context.Context, key *ListCacheKey, cursor string) ([]byte, bool) {
	if cursor != "" {
		return nil, false
	}

	keyStr := key.String()

	if data, ok := c.l1.Get(keyStr); ok {
		return data, true
	}

	if c.redis != nil {
		data, err := c.redis.Get(ctx, keyStr).Bytes()
		if err == nil {
			c.l1.Set(keyStr, data)
			return data, true
		}
	}

	return nil, false
}

// Set stores a list response.
func (c *DealListCache) Set(ctx context.Context, key *ListCacheKey, cursor string, data []byte) {
	if cursor != "" {
		return
	}

	keyStr := key.String()
	c.l1.Set(keyStr, data)

	if c.redis != nil {
		c.redis.Set(ctx, keyStr, data, c.config.L2TTL)
	}
}

// InvalidateAll drops every cached deal list. Called after an ingestion run
// lands new rows.
func (c *DealListCache) InvalidateAll(ctx context.Context) {
	c.l1.InvalidateByPrefix("deals:list:")

	if c.redis != nil {
		keys, _ := c.redis.Keys(ctx, "deals:list:*").Result()
		if len(keys) > 0 {
			c.redis.Del(ctx, keys...)
		}
	}
}

// =============================================================================
// L1Cache - local memory cache (LRU + TTL)
// =============================================================================

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// L1Cache is a simple LRU cache with TTL.
type L1Cache struct {
	maxSize int
	ttl     time.Duration
	items   map[string]*cacheEntry
	order   []string // LRU order
	mu      sync.RWMutex
}

// NewL1Cache creates a new L1 cache.
func NewL1Cache(maxSize int, ttl time.Duration) *L1Cache {
	cache := &L1Cache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
	}

	go cache.cleanupLoop()

	return cache
}

// Get retrieves value from cache.
func (c *L1Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}

	return entry.data, true
}

// Set stores value in cache.
func (c *L1Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// LRU eviction if at capacity
	if len(c.items) >= c.maxSize {
		if len(c.order) > 0 {
			oldest := c.order[0]
			delete(c.items, oldest)
			c.order = c.order[1:]
		}
	}

	c.items[key] = &cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.order = append(c.order, key)
}

// InvalidateByPrefix removes all entries with matching prefix.
func (c *L1Cache) InvalidateByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.items, key)
		}
	}
}

func (c *L1Cache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *L1Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.items {
		if now.After(entry.expiresAt) {
			delete(c.items, key)
		}
	}
}

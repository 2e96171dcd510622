package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/metrics"
)

// Cache stores geocode results by address key. Implementations must be safe
// for concurrent use; a later Set for the same key wins.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, bool, error)
	Set(ctx context.Context, key string, r *Result) error
}

// cacheKey returns SHA-256 hex of the normalized address for cache lookup.
func cacheKey(address string) string {
	h := sha256.Sum256([]byte(strings.ToLower(normalizeAddress(address))))
	return fmt.Sprintf("%x", h)
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Result)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (*Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, r *Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = *r
	return nil
}

// Len returns the number of cached addresses.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisCmdable is the subset of the go-redis client RedisCache uses.
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares geocode results across processes.
type RedisCache struct {
	rdb    RedisCmdable
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a RedisCache. A non-positive ttl keeps entries for
// 30 days.
func NewRedisCache(rdb RedisCmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "geocode:"}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (*Result, bool, error) {
	s, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "geocode: redis get")
	}
	var r Result
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, false, eris.Wrap(err, "geocode: redis decode")
	}
	return &r, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, r *Result) error {
	b, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "geocode: redis encode")
	}
	if err := c.rdb.Set(ctx, c.prefix+key, string(b), c.ttl).Err(); err != nil {
		return eris.Wrap(err, "geocode: redis set")
	}
	return nil
}

// CachedClient is a read-through cache in front of a Client. Matched and
// unmatched answers are cached; errors are not. Cache failures fall through
// to the wrapped client.
type CachedClient struct {
	client Client
	cache  Cache
	log    *zap.Logger
}

// NewCachedClient wraps client with cache.
func NewCachedClient(client Client, cache Cache) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  cache,
		log:    zap.L().With(zap.String("component", "geocode.cache")),
	}
}

// Geocode implements Client.
func (c *CachedClient) Geocode(ctx context.Context, address string) (*Result, error) {
	key := cacheKey(address)

	r, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("geocode cache read failed", zap.Error(err))
	}
	if ok {
		metrics.GeocodeCacheHitsTotal.Inc()
		c.log.Debug("geocode cache hit", zap.String("key", key[:12]), zap.Bool("matched", r.Matched))
		return r, nil
	}
	metrics.GeocodeCacheMissesTotal.Inc()

	r, err = c.client.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, r); err != nil {
		c.log.Warn("geocode cache write failed", zap.Error(err))
	}
	return r, nil
}

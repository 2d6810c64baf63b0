package adaptation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tourwise/persona-engine/internal/personality"
)

const (
	defaultCacheSize = 512
	defaultCacheTTL  = 30 * time.Minute
)

// cacheEntry holds a cached adaptation result with the time it was stored.
type cacheEntry struct {
	result   Result
	storedAt time.Time
}

// resultCache is a bounded LRU over adaptation results. Eviction is always
// safe: a lost entry only means recomputation.
type resultCache struct {
	lru *lru.Cache[string, cacheEntry]
	ttl time.Duration
	now func() time.Time
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		// lru.New only fails on non-positive size, which is guarded above.
		panic(fmt.Sprintf("adaptation: cache init: %v", err))
	}
	return &resultCache{lru: cache, ttl: ttl, now: time.Now}
}

func (c *resultCache) get(key string) (Result, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return Result{}, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.lru.Remove(key)
		return Result{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(key string, result Result) {
	c.lru.Add(key, cacheEntry{result: result, storedAt: c.now()})
}

// Fingerprint derives the deterministic cache key for one (content, profile)
// pair. Confidence participates as a coarse bucket so near-identical profiles
// share entries.
func Fingerprint(content string, profile *personality.Profile) string {
	secondary := ""
	if profile.Secondary != nil {
		secondary = profile.Secondary.Trait.String()
	}
	bucket := int(profile.Confidence * 10)
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", content, profile.Primary.Trait, secondary, bucket)
	return hex.EncodeToString(h.Sum(nil))
}

package behaviors

import (
	"context"
	"fmt"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
	lru "github.com/hashicorp/golang-lru"
)

// CachingName is the declaration name of the caching behaviour
const CachingName = "caching"

// Cacheable is implemented by requests that name their own cache key
type Cacheable interface {
	CacheKey() string
}

// CacheKeyFunc derives a cache key from a request. Returning false bypasses
// the cache for that request.
type CacheKeyFunc func(req any) (string, bool)

// Cache short-circuits queries whose response is already known. Commands and
// failed queries are never cached.
type Cache struct {
	entries *lru.Cache
	key     CacheKeyFunc
}

// NewCache creates a cache holding up to size responses. A nil key function
// caches requests implementing Cacheable only.
func NewCache(size int, key CacheKeyFunc) (*Cache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}
	if key == nil {
		key = cacheableKey
	}
	return &Cache{entries: entries, key: key}, nil
}

// cacheKey identifies a cached response. Types are compared by identity so
// equally named types from different packages never share entries.
type cacheKey struct {
	binding registry.Binding
	key     string
}

func cacheableKey(req any) (string, bool) {
	if c, ok := req.(Cacheable); ok {
		return c.CacheKey(), true
	}
	return "", false
}

// Len returns the number of cached responses
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached response
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Behaviour declares the behaviour reading and filling this cache
func (c *Cache) Behaviour() registry.Declaration {
	return registry.Behaviour(CachingName, nil, func(b registry.Binding) pipeline.Behavior {
		if b.IsCommand() {
			return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
				return next(ctx, req)
			})
		}

		return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
			k, ok := c.key(req)
			if !ok {
				return next(ctx, req)
			}
			key := cacheKey{binding: b, key: k}

			if cached, found := c.entries.Get(key); found {
				return cached, nil
			}

			out, err := next(ctx, req)
			if err != nil {
				return out, err
			}
			c.entries.Add(key, out)
			return out, nil
		})
	})
}

package ownroutedal

import (
	"context"
	"sort"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownroute-app/ownroute"
)

var _ MapDocumentCache = &MemoryCache{}

type MemoryCache struct {
	docs map[string]*ownroute.MapDocument
	mu   *sync.RWMutex
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{make(map[string]*ownroute.MapDocument), new(sync.RWMutex)}
}

func (c *MemoryCache) Name() string {
	return "memory"
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*ownroute.MapDocument, errorsx.Error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[key]
	if !ok {
		return nil, errorsx.Wrap(ErrCacheMiss, "key", key, "cache", c.Name())
	}

	return doc, nil
}

func (c *MemoryCache) Put(ctx context.Context, key string, doc *ownroute.MapDocument) errorsx.Error {
	err := ValidateCacheKey(key)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[key] = doc

	return nil
}

func (c *MemoryCache) Keys(ctx context.Context) ([]string, errorsx.Error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.docs))
	for key := range c.docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys, nil
}

package ownroutedal

import (
	"context"
	"sort"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/paulmach/osm"
)

var _ MapDocumentCache = &CacheSet{}

// CacheSet is an ordered list of caches. Earlier caches are consulted first, and are back-filled on a hit in a later cache.
type CacheSet struct {
	logger *logpkg.Logger
	caches []MapDocumentCache
	mu     *sync.RWMutex
}

func NewCacheSet(logger *logpkg.Logger, caches []MapDocumentCache) *CacheSet {
	return &CacheSet{logger, caches, new(sync.RWMutex)}
}

func (cs *CacheSet) GetCaches() []MapDocumentCache {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.caches
}

func (cs *CacheSet) AddCache(cache MapDocumentCache) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.caches = append(cs.caches, cache)
}

func (cs *CacheSet) Name() string {
	return "cache set"
}

func (cs *CacheSet) Get(ctx context.Context, key string) (*ownroute.MapDocument, errorsx.Error) {
	caches := cs.GetCaches()
	for i, cache := range caches {
		doc, err := cache.Get(ctx, key)
		if err != nil {
			if errorsx.Cause(err) == ErrCacheMiss {
				continue
			}
			return nil, errorsx.Wrap(err, "cache", cache.Name())
		}

		for _, earlierCache := range caches[:i] {
			err = earlierCache.Put(ctx, key, doc)
			if err != nil {
				cs.logger.Warn("failed to back-fill cache %q with key %q. Error: %q", earlierCache.Name(), key, err)
			}
		}

		return doc, nil
	}

	return nil, errorsx.Wrap(ErrCacheMiss, "key", key, "cache", cs.Name())
}

func (cs *CacheSet) Put(ctx context.Context, key string, doc *ownroute.MapDocument) errorsx.Error {
	for _, cache := range cs.GetCaches() {
		err := cache.Put(ctx, key, doc)
		if err != nil {
			return errorsx.Wrap(err, "cache", cache.Name())
		}
	}
	return nil
}

// Keys returns the sorted union of keys across every cache
func (cs *CacheSet) Keys(ctx context.Context) ([]string, errorsx.Error) {
	keySet := make(map[string]struct{})
	for _, cache := range cs.GetCaches() {
		keys, err := cache.Keys(ctx)
		if err != nil {
			return nil, errorsx.Wrap(err, "cache", cache.Name())
		}
		for _, key := range keys {
			keySet[key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys, nil
}

type MatchLevel int

const (
	MatchLevelNone MatchLevel = iota
	MatchLevelPartial
	MatchLevelFull
)

func (m MatchLevel) String() string {
	switch m {
	case MatchLevelPartial:
		return "partial"
	case MatchLevelFull:
		return "full"
	default:
		return "none"
	}
}

type SourceInfo struct {
	Key string `json:"key"`
	ownroute.DocumentSummary
	Bounds     *osm.Bounds `json:"bounds"`
	MatchLevel MatchLevel  `json:"-"`
}

func getMatchLevel(sourceBounds *osm.Bounds, bounds osm.Bounds) MatchLevel {
	if sourceBounds == nil || !ownroute.Overlaps(*sourceBounds, bounds) {
		return MatchLevelNone
	}

	if ownroute.IsTotallyInside(*sourceBounds, bounds) {
		return MatchLevelFull
	}

	return MatchLevelPartial
}

func (cs *CacheSet) GetSourceInfo(ctx context.Context, key string) (*SourceInfo, errorsx.Error) {
	doc, err := cs.Get(ctx, key)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	info := &SourceInfo{
		Key:             key,
		DocumentSummary: doc.Summary(),
	}

	bounds, ok := ownroute.BoundsForDocument(doc)
	if ok {
		info.Bounds = &bounds
	}

	return info, nil
}

// GetSourcesForBounds returns the stored documents that cover at least part of bounds
func (cs *CacheSet) GetSourcesForBounds(ctx context.Context, bounds osm.Bounds) ([]*SourceInfo, errorsx.Error) {
	keys, err := cs.Keys(ctx)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	var chosen []*SourceInfo
	for _, key := range keys {
		info, err := cs.GetSourceInfo(ctx, key)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		info.MatchLevel = getMatchLevel(info.Bounds, bounds)
		cs.logger.Debug("matchlevel: %s, source: %v", info.MatchLevel, key)

		if info.MatchLevel == MatchLevelNone {
			continue
		}

		chosen = append(chosen, info)
	}

	return chosen, nil
}

package ownroutedal

import (
	"context"
	"sync"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
)

type LoadedPlace struct {
	Key      string
	Document *ownroute.MapDocument
	// FromCache is false when the document was fetched for this call
	FromCache bool
}

// MapSourceLoader gets map documents out of the cache, fetching and storing them first if a place hasn't been seen before
type MapSourceLoader struct {
	logger   *logpkg.Logger
	cache    MapDocumentCache
	geocoder Geocoder
	fetcher  MapDataFetcher

	keyLocksMu *sync.Mutex
	keyLocks   map[string]*sync.Mutex
}

func NewMapSourceLoader(logger *logpkg.Logger, cache MapDocumentCache, geocoder Geocoder, fetcher MapDataFetcher) *MapSourceLoader {
	return &MapSourceLoader{
		logger:     logger,
		cache:      cache,
		geocoder:   geocoder,
		fetcher:    fetcher,
		keyLocksMu: new(sync.Mutex),
		keyLocks:   make(map[string]*sync.Mutex),
	}
}

// GetMapDocument returns a stored document. It never fetches.
func (l *MapSourceLoader) GetMapDocument(ctx context.Context, key string) (*ownroute.MapDocument, errorsx.Error) {
	err := ValidateCacheKey(key)
	if err != nil {
		return nil, err
	}

	doc, err := l.cache.Get(ctx, key)
	if err != nil {
		if errorsx.Cause(err) == ErrCacheMiss {
			return nil, errorsx.Wrap(ErrMapSourceNotFound, "key", key)
		}
		return nil, errorsx.Wrap(err)
	}

	return doc, nil
}

func (l *MapSourceLoader) lockKey(key string) func() {
	l.keyLocksMu.Lock()
	keyLock, ok := l.keyLocks[key]
	if !ok {
		keyLock = new(sync.Mutex)
		l.keyLocks[key] = keyLock
	}
	l.keyLocksMu.Unlock()

	keyLock.Lock()
	return keyLock.Unlock
}

// LoadPlace returns the road network for a place name.
// A cached document is returned as-is; otherwise the place is geocoded, its roads fetched and the result stored.
// Concurrent calls for the same place fetch only once.
func (l *MapSourceLoader) LoadPlace(ctx context.Context, place string) (*LoadedPlace, errorsx.Error) {
	key := CacheKeyFromPlaceName(place)
	err := ValidateCacheKey(key)
	if err != nil {
		return nil, errorsx.Wrap(err, "place", place)
	}

	unlock := l.lockKey(key)
	defer unlock()

	doc, err := l.cache.Get(ctx, key)
	if err == nil {
		l.logger.Info("loading map data for %q from cache", place)
		return &LoadedPlace{key, doc, true}, nil
	}
	if errorsx.Cause(err) != ErrCacheMiss {
		return nil, errorsx.Wrap(err, "place", place)
	}

	l.logger.Info("downloading map data for %q", place)
	startTime := time.Now()

	bounds, err := l.geocoder.GeocodeBounds(ctx, place)
	if err != nil {
		return nil, errorsx.Wrap(err, "place", place)
	}

	doc, err = l.fetcher.FetchRoads(ctx, bounds)
	if err != nil {
		return nil, errorsx.Wrap(err, "place", place, "bounds", ownroute.FormatBounds(bounds))
	}

	err = l.cache.Put(ctx, key, doc)
	if err != nil {
		return nil, errorsx.Wrap(err, "place", place)
	}

	l.logger.Info("downloaded %d elements for %q in %s", len(doc.Elements), place, time.Since(startTime))

	return &LoadedPlace{key, doc, false}, nil
}

func (l *MapSourceLoader) GeocodePoint(ctx context.Context, place string) (ownroute.Location, errorsx.Error) {
	return l.geocoder.GeocodePoint(ctx, place)
}

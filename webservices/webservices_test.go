package webservices

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/jamesrr39/ownroute-app/ownroutedal"
	"github.com/jamesrr39/ownroute-app/ownroutedal/nominatim"
	"github.com/jamesrr39/ownroute-app/ownroutedal/testmocks"
	"github.com/jamesrr39/ownroute-app/routing"
	"github.com/jamesrr39/semaphore"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	logger       *logpkg.Logger
	fs           mockfs.MockFs
	cacheSet     *ownroutedal.CacheSet
	loader       *ownroutedal.MapSourceLoader
	fetchQueue   *ownroutedal.FetchQueue
	routeService *routing.RouteService
	pathsConfig  *ownroutedal.PathsConfig
	fetchCount   *int32
	router       chi.Router
}

// equatorDocument has three nodes along the equator, joined by one two-way road
func equatorDocument() *ownroute.MapDocument {
	return &ownroute.MapDocument{Elements: []*ownroute.Element{
		ownroute.NewNode(1, 0, 0, nil),
		ownroute.NewNode(2, 0, 0.001, nil),
		ownroute.NewNode(3, 0, 0.002, nil),
		ownroute.NewWay(100, []int64{1, 2, 3}, ownroute.TagMap{"highway": "residential"}),
	}}
}

// islandsDocument has two roads that don't connect
func islandsDocument() *ownroute.MapDocument {
	return &ownroute.MapDocument{Elements: []*ownroute.Element{
		ownroute.NewNode(1, 10, 10, nil),
		ownroute.NewNode(2, 10, 10.001, nil),
		ownroute.NewNode(3, 11, 11, nil),
		ownroute.NewNode(4, 11, 11.001, nil),
		ownroute.NewWay(100, []int64{1, 2}, ownroute.TagMap{"highway": "residential"}),
		ownroute.NewWay(101, []int64{3, 4}, ownroute.TagMap{"highway": "residential"}),
	}}
}

var testAddresses = map[string]ownroute.Location{
	"Rua A, Testville": {Lat: 0.0001, Lon: 0},
	"Rua B, Testville": {Lat: 0.0001, Lon: 0.002},
}

func newTestEnv(t *testing.T) *testEnv {
	ctx := context.Background()
	logger := logpkg.NewLogger(ioutil.Discard, logpkg.LogLevelDebug)

	memoryCache := ownroutedal.NewMemoryCache()
	require.Nil(t, memoryCache.Put(ctx, "equator", equatorDocument()))
	require.Nil(t, memoryCache.Put(ctx, "islands", islandsDocument()))
	require.Nil(t, memoryCache.Put(ctx, "empty", &ownroute.MapDocument{Elements: []*ownroute.Element{}}))

	cacheSet := ownroutedal.NewCacheSet(logger, []ownroutedal.MapDocumentCache{memoryCache})

	geocoder := &testmocks.MockGeocoder{
		GeocodeBoundsFunc: func(ctx context.Context, place string) (osm.Bounds, errorsx.Error) {
			if place == "Nowhere" {
				return osm.Bounds{}, errorsx.Wrap(nominatim.ErrPlaceNotFound, "place", place)
			}
			return osm.Bounds{MinLat: -0.01, MaxLat: 0.01, MinLon: -0.01, MaxLon: 0.01}, nil
		},
		GeocodePointFunc: func(ctx context.Context, place string) (ownroute.Location, errorsx.Error) {
			location, ok := testAddresses[place]
			if !ok {
				return ownroute.Location{}, errorsx.Wrap(nominatim.ErrPlaceNotFound, "place", place)
			}
			return location, nil
		},
	}

	var fetchCount int32
	fetcher := &testmocks.MockMapDataFetcher{
		FetchRoadsFunc: func(ctx context.Context, bounds osm.Bounds) (*ownroute.MapDocument, errorsx.Error) {
			atomic.AddInt32(&fetchCount, 1)
			return equatorDocument(), nil
		},
	}

	loader := ownroutedal.NewMapSourceLoader(logger, cacheSet, geocoder, fetcher)
	fetchQueue := ownroutedal.NewFetchQueue(logger, loader, time.Minute)
	routeService := routing.NewRouteService(logger, loader)
	sema := semaphore.NewSemaphore(2)

	fs := mockfs.NewMockFs()
	pathsConfig := &ownroutedal.PathsConfig{
		CacheDir:        "/data/cache",
		RawDataFilesDir: "/data/raw",
	}
	require.Nil(t, pathsConfig.EnsurePaths(fs))

	router := chi.NewRouter()
	router.Use(tracing.Middleware(tracing.NewTracer(ioutil.Discard)))
	router.Mount("/api/route", NewRouteWebService(logger, routeService, sema))
	router.Mount("/api/filter", NewFilterWebService(logger, routeService))
	router.Mount("/api/places", NewPlaceWebService(logger, loader, fetchQueue, routeService, sema))
	router.Mount("/api/info", NewInfoService(logger, cacheSet))
	router.Mount("/admin", NewAdminService(logger, fs, pathsConfig, cacheSet, fetchQueue, ownroutedal.DefaultImportOptions(), "admin"))

	return &testEnv{logger, fs, cacheSet, loader, fetchQueue, routeService, pathsConfig, &fetchCount, router}
}

func (env *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func (env *testEnv) fetches() int32 {
	return atomic.LoadInt32(env.fetchCount)
}

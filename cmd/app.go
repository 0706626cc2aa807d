package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroutedal"
	"github.com/jamesrr39/ownroute-app/ownroutedal/nominatim"
	"github.com/jamesrr39/ownroute-app/ownroutedal/overpassfetch"
	"github.com/jamesrr39/ownroute-app/ownroutedal/ownroutepostgresql"
	"github.com/jamesrr39/ownroute-app/routing"
	"github.com/jamesrr39/ownroute-app/webservices"
	"github.com/jamesrr39/semaphore"
)

const (
	adminPath = "admin"
)

// app holds the long-lived components shared by the commands and the web server
type app struct {
	logger       *logpkg.Logger
	fs           gofs.Fs
	config       *ownroutedal.Config
	cacheSet     *ownroutedal.CacheSet
	loader       *ownroutedal.MapSourceLoader
	fetchQueue   *ownroutedal.FetchQueue
	routeService *routing.RouteService
}

func newApp(ctx context.Context, logger *logpkg.Logger, fs gofs.Fs, config *ownroutedal.Config) (*app, errorsx.Error) {
	var caches []ownroutedal.MapDocumentCache
	for _, connString := range config.Caches {
		cache, err := loadCache(ctx, fs, connString)
		if err != nil {
			return nil, errorsx.Wrap(err, "cache", connString)
		}
		logger.Info("using cache %q", cache.Name())
		caches = append(caches, cache)
	}

	if len(caches) == 0 {
		logger.Warn("no caches configured. Map data will be kept in memory only")
		caches = append(caches, ownroutedal.NewMemoryCache())
	}

	cacheSet := ownroutedal.NewCacheSet(logger, caches)

	geocoder := nominatim.NewClient(
		&http.Client{Timeout: config.Nominatim.Timeout},
		config.Nominatim.URL,
		config.Nominatim.UserAgent,
	)
	fetcher := overpassfetch.NewFetcher(
		logger,
		overpassfetch.NewOverpassClient(config.Overpass.URL, config.Overpass.MaxParallel, config.Overpass.Timeout),
	)

	loader := ownroutedal.NewMapSourceLoader(logger, cacheSet, geocoder, fetcher)

	return &app{
		logger:       logger,
		fs:           fs,
		config:       config,
		cacheSet:     cacheSet,
		loader:       loader,
		fetchQueue:   ownroutedal.NewFetchQueue(logger, loader, config.FetchQueueTimeout),
		routeService: routing.NewRouteService(logger, loader),
	}, nil
}

func (a *app) importOptions() ownroutedal.ImportOptions {
	return ownroutedal.ImportOptions{
		RequiredTagKeys: a.config.ImportRequiredTagKeys,
	}
}

func loadCache(ctx context.Context, fs gofs.Fs, connString string) (ownroutedal.MapDocumentCache, errorsx.Error) {
	connURL, err := ownroutedal.ParseCacheConnString(connString)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	switch connURL.Type {
	case ownroutedal.CacheBackendTypeFile:
		fileCache, err := ownroutedal.NewFileCache(fs, connURL.ConnectionPath)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		return fileCache, nil
	case ownroutedal.CacheBackendTypeMemory:
		return ownroutedal.NewMemoryCache(), nil
	case ownroutedal.CacheBackendTypePostgresql:
		postgresCache, err := ownroutepostgresql.NewDBConn(ctx, connURL.ConnectionPath)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		return postgresCache, nil
	default:
		return nil, errorsx.Errorf("unrecognized cache type: %q", connURL.Type)
	}
}

func isLocalhost(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func createLocalhostMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if !isLocalhost(r.RemoteAddr) {
				http.Error(w, "connections only allowed from the same computer the server is running on", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

func createServer(a *app, pathsConfig *ownroutedal.PathsConfig) (chi.Router, errorsx.Error) {
	traceFilePath := filepath.Join(pathsConfig.TraceDir, fmt.Sprintf("trace_%s.pbf", time.Now().Format("2006-01-02__15_04_05")))
	a.logger.Info("tracing at %q", traceFilePath)

	traceFile, err := a.fs.Create(traceFilePath)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	tracer := tracing.NewTracer(traceFile)

	routeSema := semaphore.NewSemaphore(a.config.MaxConcurrentRoutes)

	adminService := webservices.NewAdminService(a.logger, a.fs, pathsConfig, a.cacheSet, a.fetchQueue, a.importOptions(), adminPath)

	router := chi.NewRouter()
	router.Use(middleware.DefaultLogger)
	router.Use(tracing.Middleware(tracer))
	router.Route("/api/", func(r chi.Router) {
		r.Use(httpextra.CorsAllowAnythingMiddleware())
		r.Mount("/info", webservices.NewInfoService(a.logger, a.cacheSet))
		r.Mount("/route", webservices.NewRouteWebService(a.logger, a.routeService, routeSema))
		r.Mount("/filter", webservices.NewFilterWebService(a.logger, a.routeService))
		r.Mount("/places", webservices.NewPlaceWebService(a.logger, a.loader, a.fetchQueue, a.routeService, routeSema))
	})
	router.Route(fmt.Sprintf("/%s/", adminPath), func(r chi.Router) {
		r.Use(createLocalhostMiddleware())
		r.Mount("/", adminService)
	})

	router.Handle("/", http.RedirectHandler(fmt.Sprintf("/%s/", adminPath), http.StatusFound))

	return router, nil
}

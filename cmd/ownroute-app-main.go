package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/goutil/open"
	"github.com/jamesrr39/goutil/userextra"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/jamesrr39/ownroute-app/ownroutedal"
	"github.com/jamesrr39/ownroute-app/routing"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"
)

const (
	MAX_SERVER_RUNNING_ATTEMPTS = 50
	DEFAULT_PORT                = 9000
)

var (
	logger         *logpkg.Logger
	configFilePath *string
)

func main() {
	if len(os.Args) == 1 {
		logger = logpkg.NewLogger(os.Stderr, logpkg.LogLevelInfo)
		// start in desktop "double-click" visual mode
		err := setupDesktopMode()
		if err != nil {
			log.Fatalf("failed to start server: %q\n%s\n", err.Error(), err.Stack())
		}
		return
	}

	verbose := kingpin.Flag("verbose", "verbose logging").Short('v').Bool()
	configFilePath = kingpin.Flag("config", "path to a YAML config file").String()

	kingpin.CommandLine.PreAction(func(*kingpin.ParseContext) error {
		logLevel := logpkg.LogLevelInfo
		if *verbose {
			logLevel = logpkg.LogLevelDebug
		}
		logger = logpkg.NewLogger(os.Stderr, logLevel)
		return nil
	})

	setupServe()
	setupImport()
	setupFetch()
	setupRoute()

	kingpin.Parse()
}

func ensureDefaultPathsConfig(fs gofs.Fs) (*ownroutedal.PathsConfig, errorsx.Error) {
	rootDir, err := userextra.ExpandUser("~/.local/share/github.com/jamesrr39/ownroute/")
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	pathsConfig := &ownroutedal.PathsConfig{
		CacheDir:        filepath.Join(rootDir, "cache"),
		RawDataFilesDir: filepath.Join(rootDir, "raw_data_files"),
		TempDir:         filepath.Join(rootDir, "tmp"),
		TraceDir:        filepath.Join(rootDir, "trace"),
	}

	err = pathsConfig.EnsurePaths(fs)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return pathsConfig, nil
}

// loadConfig reads the --config file, if given. cacheConnStrings from the command line replace the caches in the file.
// With no caches configured anywhere, documents are cached as files in the default cache dir.
func loadConfig(fs gofs.Fs, pathsConfig *ownroutedal.PathsConfig, cacheConnStrings []string) (*ownroutedal.Config, errorsx.Error) {
	config := ownroutedal.DefaultConfig()
	if configFilePath != nil && *configFilePath != "" {
		var err errorsx.Error
		config, err = ownroutedal.ReadConfigFile(fs, *configFilePath)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
	}

	if len(cacheConnStrings) != 0 {
		config.Caches = cacheConnStrings
	}

	if len(config.Caches) == 0 {
		config.Caches = []string{string(ownroutedal.CacheBackendTypeFile) + ownroutedal.ConnectionPathSeparator + pathsConfig.CacheDir}
	}

	err := config.Validate()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return config, nil
}

func setupDesktopMode() errorsx.Error {
	var err error
	fs := gofs.NewOsFs()

	pathsConfig, err := ensureDefaultPathsConfig(fs)
	if err != nil {
		return errorsx.Wrap(err)
	}

	config, err := loadConfig(fs, pathsConfig, nil)
	if err != nil {
		return errorsx.Wrap(err)
	}

	a, err := newApp(context.Background(), logger, fs, config)
	if err != nil {
		return errorsx.Wrap(err)
	}

	router, err := createServer(a, pathsConfig)
	if err != nil {
		return errorsx.Wrap(err)
	}

	server := httpextra.NewServerWithTimeouts()
	server.Addr = fmt.Sprintf("localhost:%d", DEFAULT_PORT)
	server.Handler = router

	errChan := make(chan errorsx.Error)

	go func() {
		err := server.ListenAndServe()
		if err != nil {
			errChan <- errorsx.Wrap(err)
			return
		}
	}()

	go func() {
		// test server is running
		for i := 0; i < MAX_SERVER_RUNNING_ATTEMPTS; i++ {
			r, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s/api/info/", server.Addr), nil)
			if err != nil {
				errChan <- errorsx.Wrap(err)
				return
			}

			client := http.Client{
				Timeout: time.Second * 10,
			}
			resp, err := client.Do(r)
			if err != nil {
				// retry after wait
				time.Sleep(time.Millisecond * 500)
				continue
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				errChan <- errorsx.Errorf("expected response code %d from /api/info call, but got %d", http.StatusOK, resp.StatusCode)
				return
			}

			errChan <- nil
			return
		}

		errChan <- errorsx.Errorf("server did not start after %d attempts", MAX_SERVER_RUNNING_ATTEMPTS)
	}()

	err = <-errChan
	if err != nil {
		return errorsx.Wrap(err)
	}

	err = open.OpenURL(fmt.Sprintf("http://%s/%s/", server.Addr, adminPath))
	if err != nil {
		return errorsx.Wrap(err)
	}

	// blocks until the server stops
	err = <-errChan
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

var addrHelp = fmt.Sprintf(
	`address to serve on. Ex: ':%d' listen on port %d to traffic from anywhere. 'localhost:%d' listen on port %d to traffic from localhost`,
	DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT, DEFAULT_PORT,
)

var cacheHelp = fmt.Sprintf(
	"cache to store map documents in. It should be the type, followed by the separator (%s), followed by the path or URL. For example: %s%smy/cache/dir. Can be given multiple times, the first cache is consulted first",
	ownroutedal.ConnectionPathSeparator,
	string(ownroutedal.CacheBackendTypeFile),
	ownroutedal.ConnectionPathSeparator,
)

// runCommand runs a command, printing the stack trace of a failure
func runCommand(run func() errorsx.Error) error {
	err := run()
	if err != nil {
		return fmt.Errorf("error: %q\nStack trace:\n%s", err.Error(), err.Stack())
	}
	return nil
}

func setupServe() {
	cmd := kingpin.Command("serve", "serve webserver")
	addr := cmd.Flag("addr", addrHelp).Default(fmt.Sprintf(":%d", DEFAULT_PORT)).String()
	cacheConnStrings := cmd.Flag("cache", cacheHelp).Strings()
	maxConcurrentRoutes := cmd.Flag("max-concurrent-routes", "maximum amount of routes computed at the same time (overrides the config file)").Uint()
	shouldProfile := cmd.Flag("profile", "CPU profile the server until it stops").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return runCommand(func() errorsx.Error {
			fs := gofs.NewOsFs()

			pathsConfig, err := ensureDefaultPathsConfig(fs)
			if err != nil {
				return errorsx.Wrap(err)
			}

			if *shouldProfile {
				defer profile.Start(profile.ProfilePath(pathsConfig.TempDir), profile.CPUProfile).Stop()
			}

			config, err := loadConfig(fs, pathsConfig, *cacheConnStrings)
			if err != nil {
				return errorsx.Wrap(err)
			}

			if *maxConcurrentRoutes != 0 {
				config.MaxConcurrentRoutes = *maxConcurrentRoutes
			}

			a, err := newApp(context.Background(), logger, fs, config)
			if err != nil {
				return errorsx.Wrap(err)
			}

			router, err := createServer(a, pathsConfig)
			if err != nil {
				return errorsx.Wrap(err)
			}

			server := httpextra.NewServerWithTimeouts()
			server.Addr = *addr
			server.Handler = router

			logger.Info("about to start serving on %q", *addr)

			serveErr := server.ListenAndServe()
			if serveErr != nil {
				return errorsx.Wrap(serveErr)
			}
			return nil
		})
	})
}

func setupImport() {
	cmd := kingpin.Command("import", "import the roads from an OpenStreetMap extract (.pbf or .osm file) into the cache")
	filePath := cmd.Arg("file", "OpenStreetMap extract to import").Required().String()
	key := cmd.Flag("key", "cache key to store the roads under. Defaults to the file name without its extension").String()
	cacheConnStrings := cmd.Flag("cache", cacheHelp).Strings()
	boundsStr := cmd.Flag("bounds", "only import roads with at least one node inside these bounds, in the format (S,W,N,E)").String()
	requiredTagKeys := cmd.Flag("required-tag-key", "only import ways with (at least one of) these tag keys (overrides the config file)").Strings()
	shouldProfile := cmd.Flag("profile", "profile the import performance").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return runCommand(func() errorsx.Error {
			fs := gofs.NewOsFs()

			pathsConfig, err := ensureDefaultPathsConfig(fs)
			if err != nil {
				return errorsx.Wrap(err)
			}

			if *shouldProfile {
				defer profile.Start(profile.ProfilePath(pathsConfig.TempDir), profile.CPUProfile).Stop()
			}

			config, err := loadConfig(fs, pathsConfig, *cacheConnStrings)
			if err != nil {
				return errorsx.Wrap(err)
			}

			a, err := newApp(context.Background(), logger, fs, config)
			if err != nil {
				return errorsx.Wrap(err)
			}

			opts := a.importOptions()
			if len(*requiredTagKeys) != 0 {
				opts.RequiredTagKeys = *requiredTagKeys
			}

			if *boundsStr != "" {
				bounds, err := ownroute.ParseBoundsString(*boundsStr)
				if err != nil {
					return errorsx.Wrap(err)
				}
				opts.Bounds = &bounds
			}

			cacheKey := *key
			if cacheKey == "" {
				fileName := filepath.Base(*filePath)
				cacheKey = ownroutedal.CacheKeyFromPlaceName(fileName[:len(fileName)-len(filepath.Ext(fileName))])
			}

			err = ownroutedal.ValidateCacheKey(cacheKey)
			if err != nil {
				return errorsx.Wrap(err)
			}

			startTime := time.Now()

			doc, err := ownroutedal.ImportOSMFile(context.Background(), logger, fs, *filePath, opts)
			if err != nil {
				return errorsx.Wrap(err)
			}

			err = a.cacheSet.Put(context.Background(), cacheKey, doc)
			if err != nil {
				return errorsx.Wrap(err)
			}

			logger.Info("imported %d elements as %q in %s", len(doc.Elements), cacheKey, time.Since(startTime))

			return nil
		})
	})
}

func setupFetch() {
	cmd := kingpin.Command("fetch", "download the roads of a place (looked up with Nominatim) from the Overpass API into the cache")
	place := cmd.Arg("place", `place to fetch. Ex: "Belo Horizonte, Minas Gerais, Brazil"`).Required().String()
	cacheConnStrings := cmd.Flag("cache", cacheHelp).Strings()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return runCommand(func() errorsx.Error {
			fs := gofs.NewOsFs()

			pathsConfig, err := ensureDefaultPathsConfig(fs)
			if err != nil {
				return errorsx.Wrap(err)
			}

			config, err := loadConfig(fs, pathsConfig, *cacheConnStrings)
			if err != nil {
				return errorsx.Wrap(err)
			}

			a, err := newApp(context.Background(), logger, fs, config)
			if err != nil {
				return errorsx.Wrap(err)
			}

			fetchCtx, cancel := context.WithTimeout(context.Background(), config.FetchQueueTimeout)
			defer cancel()

			loaded, err := a.loader.LoadPlace(fetchCtx, *place)
			if err != nil {
				return errorsx.Wrap(err)
			}

			summary := loaded.Document.Summary()
			logger.Info("%q is stored as %q: %d nodes and %d ways (from cache: %v)", *place, loaded.Key, summary.NodeCount, summary.WayCount, loaded.FromCache)

			return nil
		})
	})
}

func setupRoute() {
	cmd := kingpin.Command("route", "compute the shortest driving route between two points and print it as JSON")
	origin := cmd.Arg("origin", `origin, as "lat,lon", or an address with --geocode`).Required().String()
	destination := cmd.Arg("destination", `destination, as "lat,lon", or an address with --geocode`).Required().String()
	mapSourceKey := cmd.Flag("map-source", "cache key of the map document to route over").String()
	place := cmd.Flag("place", "place to route in. It is fetched first if it isn't in the cache yet").String()
	documentPath := cmd.Flag("document", "path to a map document JSON file to route over").String()
	geocode := cmd.Flag("geocode", "treat origin and destination as addresses, and look them up with Nominatim").Bool()
	cacheConnStrings := cmd.Flag("cache", cacheHelp).Strings()
	shouldProfile := cmd.Flag("profile", "profile the route computation").Bool()
	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return runCommand(func() errorsx.Error {
			bgCtx := context.Background()
			fs := gofs.NewOsFs()

			pathsConfig, err := ensureDefaultPathsConfig(fs)
			if err != nil {
				return errorsx.Wrap(err)
			}

			if *shouldProfile {
				defer profile.Start(profile.ProfilePath(pathsConfig.TempDir), profile.CPUProfile).Stop()
			}

			config, err := loadConfig(fs, pathsConfig, *cacheConnStrings)
			if err != nil {
				return errorsx.Wrap(err)
			}

			a, err := newApp(bgCtx, logger, fs, config)
			if err != nil {
				return errorsx.Wrap(err)
			}

			var mapSource routing.MapSource
			switch {
			case *documentPath != "":
				mapSource.Document, err = readMapDocumentFile(fs, *documentPath)
				if err != nil {
					return errorsx.Wrap(err)
				}
			case *place != "":
				loaded, err := a.loader.LoadPlace(bgCtx, *place)
				if err != nil {
					return errorsx.Wrap(err)
				}
				mapSource.Document = loaded.Document
			default:
				mapSource.Key = *mapSourceKey
			}

			query := routing.RouteQuery{
				Origin:      ownroute.CoordinateFromString(*origin),
				Destination: ownroute.CoordinateFromString(*destination),
				MapSource:   mapSource,
			}

			if *geocode {
				originLocation, err := a.loader.GeocodePoint(bgCtx, *origin)
				if err != nil {
					return errorsx.Wrap(err, "endpoint", "origin")
				}
				destinationLocation, err := a.loader.GeocodePoint(bgCtx, *destination)
				if err != nil {
					return errorsx.Wrap(err, "endpoint", "destination")
				}
				query.Origin = ownroute.CoordinateFromPair(originLocation.Lat, originLocation.Lon)
				query.Destination = ownroute.CoordinateFromPair(destinationLocation.Lat, destinationLocation.Lon)
			}

			result, err := a.routeService.Route(bgCtx, query)
			if err != nil {
				return errorsx.Wrap(err)
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "\t")
			encodeErr := encoder.Encode(result)
			if encodeErr != nil {
				return errorsx.Wrap(encodeErr)
			}

			return nil
		})
	})
}

func readMapDocumentFile(fs gofs.Fs, filePath string) (*ownroute.MapDocument, errorsx.Error) {
	data, err := fs.ReadFile(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	doc := new(ownroute.MapDocument)
	err = json.Unmarshal(data, doc)
	if err != nil {
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	return doc, nil
}

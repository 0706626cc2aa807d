package webservices

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/jamesrr39/ownroute-app/ownroutedal"
	"github.com/paulmach/osm"
)

func NewInfoService(logger *logpkg.Logger, cacheSet *ownroutedal.CacheSet) *InfoService {
	ws := &InfoService{logger, cacheSet, chi.NewRouter()}
	ws.Get("/", ws.handleGet)

	return ws
}

type InfoService struct {
	logger   *logpkg.Logger
	cacheSet *ownroutedal.CacheSet
	chi.Router
}

type infoResponseType struct {
	Caches  []string                  `json:"caches"`
	Sources []*ownroutedal.SourceInfo `json:"sources"`
}

func (ws *InfoService) handleGet(w http.ResponseWriter, r *http.Request) {
	var sources []*ownroutedal.SourceInfo
	var err errorsx.Error

	boundsParam := r.URL.Query().Get("bounds")
	if boundsParam != "" {
		var bounds osm.Bounds
		bounds, err = ownroute.ParseBoundsString(boundsParam)
		if err != nil {
			errorsx.HTTPJSONError(w, ws.logger, err, http.StatusBadRequest)
			return
		}

		sources, err = ws.cacheSet.GetSourcesForBounds(r.Context(), bounds)
	} else {
		sources, err = ws.getAllSources(r)
	}
	if err != nil {
		writeError(w, ws.logger, err)
		return
	}

	if sources == nil {
		sources = []*ownroutedal.SourceInfo{}
	}

	// make deterministic
	sort.Slice(sources, func(a, b int) bool {
		return sources[a].Key < sources[b].Key
	})

	var cacheNames []string
	for _, cache := range ws.cacheSet.GetCaches() {
		cacheNames = append(cacheNames, cache.Name())
	}

	render.JSON(w, r, infoResponseType{cacheNames, sources})
}

func (ws *InfoService) getAllSources(r *http.Request) ([]*ownroutedal.SourceInfo, errorsx.Error) {
	keys, err := ws.cacheSet.Keys(r.Context())
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	sources := []*ownroutedal.SourceInfo{}
	for _, key := range keys {
		info, err := ws.cacheSet.GetSourceInfo(r.Context(), key)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		sources = append(sources, info)
	}

	return sources, nil
}

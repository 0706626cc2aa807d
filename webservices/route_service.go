package webservices

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/jamesrr39/ownroute-app/routing"
	"github.com/jamesrr39/semaphore"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"
)

const formatGeoJSON = "geojson"

type RouteWebService struct {
	logger       *logpkg.Logger
	routeService *routing.RouteService
	sema         *semaphore.Semaphore
	chi.Router
}

// NewRouteWebService creates the route endpoint. sema bounds the number of routes computed at once, and can be shared with other services that compute routes.
func NewRouteWebService(logger *logpkg.Logger, routeService *routing.RouteService, sema *semaphore.Semaphore) *RouteWebService {
	ws := &RouteWebService{logger, routeService, sema, chi.NewRouter()}

	ws.Post("/", ws.handlePostRoute)

	return ws
}

type routeResponseType struct {
	*routing.RouteResult
	Polyline string `json:"polyline"`
}

func (ws *RouteWebService) handlePostRoute(w http.ResponseWriter, r *http.Request) {
	var query routing.RouteQuery
	err := render.DecodeJSON(r.Body, &query)
	if err != nil {
		errorsx.HTTPJSONError(w, ws.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	ws.sema.Add()
	defer ws.sema.Done()

	span := tracing.StartSpan(r.Context(), "route")
	result, routeErr := ws.routeService.Route(r.Context(), query)
	span.End(r.Context())
	if routeErr != nil {
		writeError(w, ws.logger, routeErr)
		return
	}

	if r.URL.Query().Get("format") == formatGeoJSON {
		render.JSON(w, r, routeToFeatureCollection(result))
		return
	}

	render.JSON(w, r, routeResponseType{result, encodePolyline(result.Locations)})
}

func encodePolyline(locations []ownroute.Location) string {
	coords := make([][]float64, 0, len(locations))
	for _, location := range locations {
		coords = append(coords, []float64{location.Lat, location.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

func routeToFeatureCollection(result *routing.RouteResult) *geojson.FeatureCollection {
	lineString := make(orb.LineString, 0, len(result.Locations))
	for _, location := range result.Locations {
		lineString = append(lineString, orb.Point{location.Lon, location.Lat})
	}

	feature := geojson.NewFeature(lineString)
	feature.Properties["distanceMeters"] = result.DistanceMeters
	feature.Properties["path"] = result.Path

	return geojson.NewFeatureCollection().Append(feature)
}

type FilterWebService struct {
	logger       *logpkg.Logger
	routeService *routing.RouteService
	chi.Router
}

func NewFilterWebService(logger *logpkg.Logger, routeService *routing.RouteService) *FilterWebService {
	ws := &FilterWebService{logger, routeService, chi.NewRouter()}

	ws.Post("/", ws.handlePostFilter)

	return ws
}

func (ws *FilterWebService) handlePostFilter(w http.ResponseWriter, r *http.Request) {
	var query routing.FilterQuery
	err := render.DecodeJSON(r.Body, &query)
	if err != nil {
		errorsx.HTTPJSONError(w, ws.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	doc, filterErr := ws.routeService.Filter(r.Context(), query)
	if filterErr != nil {
		writeError(w, ws.logger, filterErr)
		return
	}

	render.JSON(w, r, doc)
}

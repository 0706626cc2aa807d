package webservices

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/jamesrr39/ownroute-app/ownroutedal"
	"github.com/jamesrr39/ownroute-app/routing"
	"github.com/jamesrr39/semaphore"
	"github.com/paulmach/osm"
)

var errNoPlaceGiven = errors.New("either place or city must be given")

type PlaceWebService struct {
	logger       *logpkg.Logger
	loader       *ownroutedal.MapSourceLoader
	fetchQueue   *ownroutedal.FetchQueue
	routeService *routing.RouteService
	sema         *semaphore.Semaphore
	chi.Router
}

func NewPlaceWebService(
	logger *logpkg.Logger,
	loader *ownroutedal.MapSourceLoader,
	fetchQueue *ownroutedal.FetchQueue,
	routeService *routing.RouteService,
	sema *semaphore.Semaphore,
) *PlaceWebService {
	ws := &PlaceWebService{logger, loader, fetchQueue, routeService, sema, chi.NewRouter()}

	ws.Post("/", ws.handlePostPlace)
	ws.Get("/queue", ws.handleGetQueue)
	ws.Post("/queue", ws.handlePostQueue)
	ws.Post("/route", ws.handlePostRoute)

	return ws
}

// placeRequestType names a place either directly, or as a city and state
type placeRequestType struct {
	Place string `json:"place"`
	City  string `json:"city"`
	State string `json:"state"`
}

func (p placeRequestType) placeName() (string, errorsx.Error) {
	if strings.TrimSpace(p.Place) != "" {
		return p.Place, nil
	}

	if strings.TrimSpace(p.City) == "" {
		return "", errorsx.Wrap(errNoPlaceGiven)
	}

	if strings.TrimSpace(p.State) == "" {
		return p.City, nil
	}

	return p.City + ", " + p.State, nil
}

type placeResponseType struct {
	Key          string      `json:"key"`
	ElementCount int         `json:"elementCount"`
	FromCache    bool        `json:"fromCache"`
	Bounds       *osm.Bounds `json:"bounds"`
}

func (ws *PlaceWebService) handlePostPlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequestType
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		errorsx.HTTPJSONError(w, ws.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	place, placeErr := req.placeName()
	if placeErr != nil {
		writeError(w, ws.logger, placeErr)
		return
	}

	span := tracing.StartSpan(r.Context(), "load place")
	loaded, placeErr := ws.loader.LoadPlace(r.Context(), place)
	span.End(r.Context())
	if placeErr != nil {
		writeError(w, ws.logger, placeErr)
		return
	}

	resp := placeResponseType{
		Key:          loaded.Key,
		ElementCount: len(loaded.Document.Elements),
		FromCache:    loaded.FromCache,
	}

	bounds, ok := ownroute.BoundsForDocument(loaded.Document)
	if ok {
		resp.Bounds = &bounds
	}

	render.JSON(w, r, resp)
}

func (ws *PlaceWebService) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ws.fetchQueue.GetItems())
}

func (ws *PlaceWebService) handlePostQueue(w http.ResponseWriter, r *http.Request) {
	var req placeRequestType
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		errorsx.HTTPJSONError(w, ws.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	place, placeErr := req.placeName()
	if placeErr != nil {
		writeError(w, ws.logger, placeErr)
		return
	}

	item, placeErr := ws.fetchQueue.AddPlaceToQueue(place)
	if placeErr != nil {
		writeError(w, ws.logger, placeErr)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, item)
}

type placeRouteRequestType struct {
	placeRequestType
	// Origin and Destination are addresses, geocoded to coordinates before routing
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// handlePostRoute routes between two addresses in a place, fetching the place's roads first if they aren't cached yet
func (ws *PlaceWebService) handlePostRoute(w http.ResponseWriter, r *http.Request) {
	var req placeRouteRequestType
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		errorsx.HTTPJSONError(w, ws.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	place, placeErr := req.placeName()
	if placeErr != nil {
		writeError(w, ws.logger, placeErr)
		return
	}

	if req.Origin == "" || req.Destination == "" {
		errorsx.HTTPJSONError(w, ws.logger, errorsx.Errorf("origin and destination addresses are required"), http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	span := tracing.StartSpan(ctx, "load place")
	loaded, placeErr := ws.loader.LoadPlace(ctx, place)
	span.End(ctx)
	if placeErr != nil {
		writeError(w, ws.logger, placeErr)
		return
	}

	span = tracing.StartSpan(ctx, "geocode addresses")
	origin, placeErr := ws.loader.GeocodePoint(ctx, req.Origin)
	if placeErr != nil {
		span.End(ctx)
		writeError(w, ws.logger, errorsx.Wrap(placeErr, "endpoint", "origin"))
		return
	}
	destination, placeErr := ws.loader.GeocodePoint(ctx, req.Destination)
	span.End(ctx)
	if placeErr != nil {
		writeError(w, ws.logger, errorsx.Wrap(placeErr, "endpoint", "destination"))
		return
	}

	ws.sema.Add()
	defer ws.sema.Done()

	span = tracing.StartSpan(ctx, "route")
	result, placeErr := ws.routeService.Route(ctx, routing.RouteQuery{
		Origin:      ownroute.CoordinateFromPair(origin.Lat, origin.Lon),
		Destination: ownroute.CoordinateFromPair(destination.Lat, destination.Lon),
		MapSource:   routing.MapSource{Document: loaded.Document},
	})
	span.End(ctx)
	if placeErr != nil {
		writeError(w, ws.logger, placeErr)
		return
	}

	render.JSON(w, r, routeResponseType{result, encodePolyline(result.Locations)})
}

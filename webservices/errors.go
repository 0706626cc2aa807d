package webservices

import (
	"net/http"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/jamesrr39/ownroute-app/ownroutedal"
	"github.com/jamesrr39/ownroute-app/ownroutedal/nominatim"
	"github.com/jamesrr39/ownroute-app/routing"
)

func statusCodeForError(err errorsx.Error) int {
	switch errorsx.Cause(err) {
	case ownroute.ErrInvalidCoordinateFormat, ownroutedal.ErrInvalidCacheKey, routing.ErrNoMapSource, errNoPlaceGiven:
		return http.StatusBadRequest
	case ownroutedal.ErrMapSourceNotFound, routing.ErrRouteNotFound, nominatim.ErrPlaceNotFound:
		return http.StatusNotFound
	case routing.ErrNoNodesAvailable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *logpkg.Logger, err errorsx.Error) {
	errorsx.HTTPJSONError(w, logger, err, statusCodeForError(err))
}

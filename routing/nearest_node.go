package routing

import (
	"errors"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownroute-app/ownroute"
)

var (
	ErrNoNodesAvailable = errors.New("no nodes available")
)

// NearestNode returns the id of the node closest to point, by planar distance.
// When several nodes are equally close, the one added to the table first wins.
func NearestNode(nodeTable *NodeTable, point ownroute.Location) (int64, errorsx.Error) {
	if nodeTable == nil || nodeTable.Len() == 0 {
		return 0, errorsx.Wrap(ErrNoNodesAvailable, "point", point)
	}

	if math.IsNaN(point.Lat) || math.IsNaN(point.Lon) {
		return 0, errorsx.Wrap(ownroute.ErrInvalidCoordinateFormat, "point", point)
	}

	var nearestID int64
	found := false
	var minDistance float64
	for _, id := range nodeTable.IDs() {
		location, _ := nodeTable.Get(id)
		distance := ownroute.PlanarDistance(point, location)
		if !found || distance < minDistance {
			nearestID = id
			minDistance = distance
			found = true
		}
	}

	return nearestID, nil
}

func NearestNodeToCoordinate(nodeTable *NodeTable, coordinate ownroute.Coordinate) (int64, errorsx.Error) {
	point, err := coordinate.Resolve()
	if err != nil {
		return 0, errorsx.Wrap(err)
	}

	return NearestNode(nodeTable, point)
}

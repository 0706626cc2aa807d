package ownroutedal

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/paulmach/osm"
)

// Geocoder resolves place names, such as "Belo Horizonte, Minas Gerais" or a street address
type Geocoder interface {
	GeocodeBounds(ctx context.Context, place string) (osm.Bounds, errorsx.Error)
	GeocodePoint(ctx context.Context, place string) (ownroute.Location, errorsx.Error)
}

// MapDataFetcher downloads the road network inside a bounding box
type MapDataFetcher interface {
	FetchRoads(ctx context.Context, bounds osm.Bounds) (*ownroute.MapDocument, errorsx.Error)
}

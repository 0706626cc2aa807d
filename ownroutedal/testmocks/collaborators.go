package testmocks

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/paulmach/osm"
)

type MockGeocoder struct {
	GeocodeBoundsFunc func(ctx context.Context, place string) (osm.Bounds, errorsx.Error)
	GeocodePointFunc  func(ctx context.Context, place string) (ownroute.Location, errorsx.Error)
}

func (g *MockGeocoder) GeocodeBounds(ctx context.Context, place string) (osm.Bounds, errorsx.Error) {
	return g.GeocodeBoundsFunc(ctx, place)
}

func (g *MockGeocoder) GeocodePoint(ctx context.Context, place string) (ownroute.Location, errorsx.Error) {
	return g.GeocodePointFunc(ctx, place)
}

type MockMapDataFetcher struct {
	FetchRoadsFunc func(ctx context.Context, bounds osm.Bounds) (*ownroute.MapDocument, errorsx.Error)
}

func (f *MockMapDataFetcher) FetchRoads(ctx context.Context, bounds osm.Bounds) (*ownroute.MapDocument, errorsx.Error) {
	return f.FetchRoadsFunc(ctx, bounds)
}

package ownroute

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// Overlaps checks whether an item is at least partially inside a container
func Overlaps(container osm.Bounds, item osm.Bounds) bool {
	if container.MinLat > item.MaxLat {
		// container is wholly above item
		return false
	}

	if container.MaxLat < item.MinLat {
		// container is wholly below item
		return false
	}

	if container.MinLon > item.MaxLon {
		// container is wholly to the right of item
		return false
	}

	if container.MaxLon < item.MinLon {
		// container is wholly to the left of item
		return false
	}

	return true
}

func IsTotallyInside(container osm.Bounds, item osm.Bounds) bool {
	return item.MaxLat <= container.MaxLat && item.MaxLon <= container.MaxLon && item.MinLat >= container.MinLat && item.MinLon >= container.MinLon
}

// IsInBounds tests if a point is inside a container. Points on the edge count as inside.
func IsInBounds(bounds osm.Bounds, point Location) bool {
	return point.Lat <= bounds.MaxLat && point.Lat >= bounds.MinLat &&
		point.Lon <= bounds.MaxLon && point.Lon >= bounds.MinLon
}

// BoundsForDocument returns the smallest bounds containing every node of the document.
// The second return value is false if the document has no located nodes.
func BoundsForDocument(doc *MapDocument) (osm.Bounds, bool) {
	var points orb.MultiPoint
	for _, element := range doc.Elements {
		if element == nil || element.Type != ObjectTypeNode {
			continue
		}

		location, ok := element.Location()
		if !ok {
			continue
		}

		points = append(points, orb.Point{location.Lon, location.Lat})
	}

	if len(points) == 0 {
		return osm.Bounds{}, false
	}

	bound := points.Bound()

	return osm.Bounds{
		MinLat: bound.Min.Lat(),
		MaxLat: bound.Max.Lat(),
		MinLon: bound.Min.Lon(),
		MaxLon: bound.Max.Lon(),
	}, true
}

// ParseBoundsString parses bounds in the format (S,W,N,E), for example (52.533251,-1.394072,52.800548,-0.898208).
// The brackets are optional.
func ParseBoundsString(boundsString string) (osm.Bounds, errorsx.Error) {
	bounds := osm.Bounds{}

	withoutBrackets := strings.TrimPrefix(strings.TrimSuffix(strings.TrimSpace(boundsString), ")"), "(")
	fragments := strings.Split(withoutBrackets, ",")
	if len(fragments) != 4 {
		return bounds, errorsx.Errorf("expected 4 bounds, but got %d. Bounds should be in the format '(S,W,N,E)'", len(fragments))
	}

	for index, fragment := range fragments {
		coordinate, err := strconv.ParseFloat(strings.TrimSpace(fragment), 64)
		if err != nil {
			return bounds, errorsx.Wrap(err, "bounds", boundsString)
		}

		switch index {
		case 0:
			bounds.MinLat = coordinate
		case 1:
			bounds.MinLon = coordinate
		case 2:
			bounds.MaxLat = coordinate
		case 3:
			bounds.MaxLon = coordinate
		}
	}

	if bounds.MinLat > bounds.MaxLat || bounds.MinLon > bounds.MaxLon {
		return bounds, errorsx.Errorf("south/west bounds must not be greater than north/east bounds: %q", boundsString)
	}

	return bounds, nil
}

// FormatBounds writes bounds as S,W,N,E, the order Overpass bounding box filters use
func FormatBounds(bounds osm.Bounds) string {
	return fmt.Sprintf("%v,%v,%v,%v", bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon)
}

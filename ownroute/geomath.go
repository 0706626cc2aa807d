package ownroute

import "math"

const EarthRadiusMeters = 6371000

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}

// DistanceMeters returns the great-circle (haversine) distance between two points, in meters
func DistanceMeters(a, b Location) float64 {
	lat1 := degreesToRadians(a.Lat)
	lat2 := degreesToRadians(b.Lat)
	dLat := lat2 - lat1
	dLon := degreesToRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// PlanarDistance treats degrees as plane coordinates.
// Only good for comparing distances between points close to each other.
func PlanarDistance(a, b Location) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon)
}

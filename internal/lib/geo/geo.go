// Package geo implements the distance checks behind attendance geofencing.
package geo

import "math"

// EarthRadiusM is the mean Earth radius used by Distance.
const EarthRadiusM = 6371008.8

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Distance returns the great-circle distance in metres (haversine formula).
func Distance(a, b Point) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := lat2 - lat1
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Within reports whether p lies within radiusM metres of center, and the distance.
func Within(center, p Point, radiusM float64) (bool, float64) {
	d := Distance(center, p)
	return d <= radiusM, d
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Package geo holds the coordinate types and the geodesic distance math
// shared by the rest of the engine. It has zero external dependencies.
package geo

import (
	"math"
	"time"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Position is a single device fix. It is never mutated, only superseded
// by the next fix.
type Position struct {
	Lat       float64
	Lng       float64
	Accuracy  float64 // horizontal accuracy estimate, meters
	Timestamp time.Time
}

// Valid reports whether the position carries finite, in-range coordinates.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceMeters returns the great-circle distance between two coordinates
// using the haversine formula. NaN inputs propagate NaN; callers must treat
// a NaN distance as "not within radius".
func DistanceMeters(aLat, aLng, bLat, bLng float64) float64 {
	lat1 := aLat * math.Pi / 180
	lat2 := bLat * math.Pi / 180
	dLat := (bLat - aLat) * math.Pi / 180
	dLng := (bLng - aLng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// Between is DistanceMeters over two Positions.
func Between(a, b Position) float64 {
	return DistanceMeters(a.Lat, a.Lng, b.Lat, b.Lng)
}

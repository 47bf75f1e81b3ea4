// Package geo holds the small geodesic helpers the track tools need:
// great-circle distance and initial bearing between two fixes, and a
// longitude based guess of a track's UTC offset.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for distances.
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between two points in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Bearing returns the initial bearing from point 1 to point 2 in degrees
// (0-360, 0 is north).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)

	phi1 := p1.Lat.Radians()
	phi2 := p2.Lat.Radians()
	dLon := p2.Lng.Radians() - p1.Lng.Radians()

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// DistanceBearing returns both the distance in meters and the initial
// bearing in degrees.
func DistanceBearing(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	return Distance(lat1, lon1, lat2, lon2), Bearing(lat1, lon1, lat2, lon2)
}

// DetermineOffset guesses the local UTC offset in minutes from a position by
// slicing the globe into 15 degree wide hour zones. It ignores political
// borders and daylight saving time; callers that know better should pass an
// explicit offset instead.
func DetermineOffset(_, lon float64) int {
	hours := int(math.Round(lon / 15))
	if hours > 12 {
		hours = 12
	}
	if hours < -12 {
		hours = -12
	}
	return hours * 60
}

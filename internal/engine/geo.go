// Package engine is the stateless risk and route synthesis core. Every
// function is pure apart from the *rand.Rand a caller injects, so results are
// reproducible for a fixed seed.
package engine

import (
	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/pkg/utils"
)

// DistanceKm is the great-circle distance between two coordinates in kilometers
func DistanceKm(a, b domain.Coordinate) float64 {
	return utils.Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// DistanceMeters is the great-circle distance between two coordinates in meters
func DistanceMeters(a, b domain.Coordinate) float64 {
	return utils.HaversineMeters(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Interpolate moves linearly from a (ratio 0) to b (ratio 1) on each axis
func Interpolate(a, b domain.Coordinate, ratio float64) domain.Coordinate {
	return domain.Coordinate{
		Lat: utils.Lerp(a.Lat, b.Lat, ratio),
		Lng: utils.Lerp(a.Lng, b.Lng, ratio),
	}
}

// WithinRadius reports whether point lies within radiusKm of center
func WithinRadius(center, point domain.Coordinate, radiusKm float64) bool {
	return DistanceKm(center, point) <= radiusKm
}

// PathDistanceMeters sums the segment lengths of an ordered path
func PathDistanceMeters(points []domain.Coordinate) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += DistanceMeters(points[i-1], points[i])
	}
	return total
}

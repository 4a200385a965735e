package utils

import (
	"math"
)

const (
	// EarthRadiusKm is the mean Earth radius used by every distance helper
	EarthRadiusKm = 6371.0
	// EarthRadiusMeters is EarthRadiusKm * 1000
	EarthRadiusMeters = EarthRadiusKm * 1000
	// KmPerDegree approximates one degree of latitude or longitude
	KmPerDegree = 111.0
)

// Haversine calculates distance between two points in kilometers
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2, EarthRadiusKm)
}

// HaversineMeters calculates distance between two points in meters
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2, EarthRadiusMeters)
}

func haversine(lat1, lon1, lat2, lon2, radius float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return radius * c
}

// Clamp limits a value between min and max
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RoundTo rounds a float to specified decimal places
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// Lerp performs linear interpolation between two values
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// KmToDegrees converts a distance to degrees with the flat 111 km/degree rule
func KmToDegrees(km float64) float64 {
	return km / KmPerDegree
}

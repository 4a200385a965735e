package domain

import "fmt"

// Coordinate is an immutable WGS84 position
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies within the legal lat/lng ranges
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// String formats the coordinate as "lat, lng" with six decimals
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Lat, c.Lng)
}

// JaipurCenter is the default reference coordinate for maps and fallbacks
var JaipurCenter = Coordinate{Lat: 26.9124, Lng: 75.7873}

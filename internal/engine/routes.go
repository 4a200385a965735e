package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/pkg/utils"
)

// SyntheticVariants is the number of distinct synthetic route shapes
const SyntheticVariants = 6

// MinRoutePoints is the smallest geometry that counts as a route
const MinRoutePoints = 2

// cityCoordinates is the offline geocoding table
var cityCoordinates = map[string]domain.Coordinate{
	"mumbai":    {Lat: 19.0760, Lng: 72.8777},
	"delhi":     {Lat: 28.6139, Lng: 77.2090},
	"bangalore": {Lat: 12.9716, Lng: 77.5946},
	"kolkata":   {Lat: 22.5726, Lng: 88.3639},
	"chennai":   {Lat: 13.0827, Lng: 80.2707},
	"hyderabad": {Lat: 17.3850, Lng: 78.4867},
	"pune":      {Lat: 18.5204, Lng: 73.8567},
	"jaipur":    {Lat: 26.9124, Lng: 75.7873},
}

// LookupCity resolves a city name from the offline table, ignoring case and
// surrounding whitespace.
func LookupCity(name string) (domain.Coordinate, bool) {
	c, ok := cityCoordinates[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// FallbackEndpoints resolves both endpoints offline. Unknown origins default
// to Delhi and unknown destinations to Mumbai.
func FallbackEndpoints(origin, destination string) (domain.Coordinate, domain.Coordinate) {
	o, ok := LookupCity(origin)
	if !ok {
		o = cityCoordinates["delhi"]
	}
	d, ok := LookupCity(destination)
	if !ok {
		d = cityCoordinates["mumbai"]
	}
	return o, d
}

// NewRouteCandidate validates a provider geometry and wraps it
func NewRouteCandidate(points []domain.Coordinate, distance, duration *float64, profile, originLabel, destinationLabel string) (domain.RouteCandidate, error) {
	if len(points) < MinRoutePoints {
		return domain.RouteCandidate{}, fmt.Errorf("engine: route %q has %d points: %w", profile, len(points), domain.ErrNoValidRoutePoints)
	}
	for _, p := range points {
		if !p.Valid() {
			return domain.RouteCandidate{}, fmt.Errorf("engine: route %q has invalid point %s: %w", profile, p, domain.ErrNoValidRoutePoints)
		}
	}
	return domain.RouteCandidate{
		Points:           points,
		DistanceMeters:   distance,
		DurationSeconds:  duration,
		OriginLabel:      originLabel,
		DestinationLabel: destinationLabel,
		Profile:          profile,
	}, nil
}

// StraightLineRoute is the last-resort geometry: ten equal segments between
// the endpoints with unknown distance and duration.
func StraightLineRoute(origin, destination domain.Coordinate, originLabel, destinationLabel string) domain.RouteCandidate {
	const segments = 10
	points := make([]domain.Coordinate, 0, segments+1)
	for i := 0; i <= segments; i++ {
		points = append(points, Interpolate(origin, destination, float64(i)/segments))
	}
	return domain.RouteCandidate{
		Points:           points,
		OriginLabel:      originLabel,
		DestinationLabel: destinationLabel,
		Profile:          domain.ProfileStraightLine,
	}
}

type variantOffset func(t float64) (dLat, dLng float64)

var variantOffsets = [SyntheticVariants]variantOffset{
	func(t float64) (float64, float64) { return 0, 0 },
	func(t float64) (float64, float64) { return math.Sin(t*math.Pi) * 0.02, 0 },
	func(t float64) (float64, float64) {
		return -math.Sin(t*math.Pi) * 0.015, math.Cos(2*t*math.Pi) * 0.01
	},
	func(t float64) (float64, float64) {
		return math.Sin(2*t*math.Pi) * 0.03, math.Cos(3*t*math.Pi) * 0.02
	},
	func(t float64) (float64, float64) {
		return -math.Sin(1.5*t*math.Pi) * 0.025, math.Sin(2*t*math.Pi) * 0.015
	},
	func(t float64) (float64, float64) {
		return math.Cos(2*t*math.Pi) * 0.02, math.Sin(2.5*t*math.Pi) * 0.025
	},
}

// SyntheticVariant builds the k-th deterministic synthetic alternative.
// Variants 0-2 are near-direct; 3-5 are wider detours with slower durations.
func SyntheticVariant(origin, destination domain.Coordinate, k int, originLabel, destinationLabel string) (domain.RouteCandidate, error) {
	if k < 0 || k >= SyntheticVariants {
		return domain.RouteCandidate{}, fmt.Errorf("engine: synthetic variant %d out of range: %w", k, domain.ErrInvalidInput)
	}

	segments := 8 + 2*k
	if k >= 3 {
		segments = 10 + 3*(k-3)
	}

	offset := variantOffsets[k]
	points := make([]domain.Coordinate, 0, segments+1)
	for j := 0; j <= segments; j++ {
		t := float64(j) / float64(segments)
		p := Interpolate(origin, destination, t)
		dLat, dLng := offset(t)
		points = append(points, domain.Coordinate{Lat: p.Lat + dLat, Lng: p.Lng + dLng})
	}

	distance := PathDistanceMeters(points)
	duration := distance / 1000 * 60
	if k >= 3 {
		duration *= 1.2 + 0.3*float64(k-3)
	}
	distance = utils.RoundTo(distance, 1)
	duration = utils.RoundTo(duration, 1)

	return domain.RouteCandidate{
		Points:           points,
		DistanceMeters:   &distance,
		DurationSeconds:  &duration,
		OriginLabel:      originLabel,
		DestinationLabel: destinationLabel,
		Profile:          fmt.Sprintf("synthetic-variant-%d", k),
	}, nil
}

// SyntheticRoutes returns variants [from, to)
func SyntheticRoutes(origin, destination domain.Coordinate, from, to int, originLabel, destinationLabel string) []domain.RouteCandidate {
	if from < 0 {
		from = 0
	}
	if to > SyntheticVariants {
		to = SyntheticVariants
	}

	routes := make([]domain.RouteCandidate, 0, max(0, to-from))
	for k := from; k < to; k++ {
		r, err := SyntheticVariant(origin, destination, k, originLabel, destinationLabel)
		if err != nil {
			continue
		}
		routes = append(routes, r)
	}
	return routes
}

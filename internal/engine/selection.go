package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/pkg/utils"
)

// Similarity thresholds
const (
	maxPointCountDelta   = 5
	maxDistanceDeltaM    = 2000
	maxMeanSampleOffsetM = 100
	maxSimilaritySamples = 10
	displayNudgeDegrees  = 0.002
)

func knownOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// AreSimilar reports whether two routes are near-duplicates: comparable point
// counts and distances, and sampled points less than 100 m apart on average.
func AreSimilar(a, b *domain.RouteCandidate) bool {
	if a == nil || b == nil || len(a.Points) == 0 || len(b.Points) == 0 {
		return false
	}

	la, lb := len(a.Points), len(b.Points)
	if la-lb > maxPointCountDelta || lb-la > maxPointCountDelta {
		return false
	}
	if math.Abs(knownOrZero(a.DistanceMeters)-knownOrZero(b.DistanceMeters)) > maxDistanceDeltaM {
		return false
	}

	minLen := min(la, lb)
	samples := min(maxSimilaritySamples, max(1, minLen/3))
	step := max(1, minLen/samples)

	var total float64
	var count int
	for i := 0; i < minLen && count < samples; i += step {
		total += DistanceMeters(a.Points[i], b.Points[i])
		count++
	}
	return total/float64(count) < maxMeanSampleOffsetM
}

// Dedupe keeps each route unless it is similar to one already kept. Order is
// preserved.
func Dedupe(routes []domain.RouteCandidate) []domain.RouteCandidate {
	unique := make([]domain.RouteCandidate, 0, len(routes))
	for i := range routes {
		duplicate := false
		for j := range unique {
			if AreSimilar(&routes[i], &unique[j]) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, routes[i])
		}
	}
	return unique
}

// DisplayVariant returns a copy of route whose interior points are shifted
// sideways so it renders apart from an overlapping route. Predictions and
// summary are shared unchanged.
func DisplayVariant(route domain.RouteCandidate) domain.RouteCandidate {
	n := len(route.Points)
	points := make([]domain.Coordinate, n)
	copy(points, route.Points)

	if n > 2 {
		first, last := points[0], points[n-1]
		dLat, dLng := last.Lat-first.Lat, last.Lng-first.Lng
		norm := math.Hypot(dLat, dLng)
		// unit vector perpendicular to the overall heading; north when degenerate
		pLat, pLng := 1.0, 0.0
		if norm > 0 {
			pLat, pLng = -dLng/norm, dLat/norm
		}
		for i := 1; i < n-1; i++ {
			shift := math.Sin(float64(i)/float64(n-1)*math.Pi) * displayNudgeDegrees
			points[i] = domain.Coordinate{
				Lat: points[i].Lat + pLat*shift,
				Lng: points[i].Lng + pLng*shift,
			}
		}
	}

	out := route
	out.Points = points
	out.Profile = route.Profile + domain.DisplaySuffix
	return out
}

// SelectSafeAndFast picks the lowest-risk and the quickest candidate. Ties go
// to the earliest route. When both picks overlap, the safest alternative not
// similar to the fast route is preferred; failing that the safe pick is
// returned as a display variant.
func SelectSafeAndFast(routes []domain.RouteCandidate) (domain.RouteSelection, error) {
	if len(routes) == 0 {
		return domain.RouteSelection{}, fmt.Errorf("engine: no candidates to select from: %w", domain.ErrNoValidRoutePoints)
	}

	safeIdx, fastIdx := 0, 0
	for i := 1; i < len(routes); i++ {
		if routes[i].AverageRisk() < routes[safeIdx].AverageRisk() {
			safeIdx = i
		}
		if routes[i].TravelMetric() < routes[fastIdx].TravelMetric() {
			fastIdx = i
		}
	}

	fast := routes[fastIdx]
	safe := routes[safeIdx]
	sel := domain.RouteSelection{Fast: &fast}

	if safeIdx == fastIdx || AreSimilar(&safe, &fast) {
		var alternatives []int
		for i := range routes {
			if i == fastIdx || AreSimilar(&routes[i], &fast) {
				continue
			}
			alternatives = append(alternatives, i)
		}
		sort.SliceStable(alternatives, func(x, y int) bool {
			return routes[alternatives[x]].AverageRisk() < routes[alternatives[y]].AverageRisk()
		})

		if len(alternatives) > 0 {
			safe = routes[alternatives[0]]
		} else {
			safe = DisplayVariant(safe)
			sel.SafeIsDisplayVariant = true
		}
	}
	sel.Safe = &safe

	sel.SafetyImprovementPct = utils.RoundTo((fast.AverageRisk()-safe.AverageRisk())*100, 1)

	if sd, fd := knownOrZero(safe.DistanceMeters), knownOrZero(fast.DistanceMeters); sd > 0 && fd > 0 {
		extra := utils.RoundTo((sd-fd)/1000, 1)
		sel.ExtraDistanceKm = &extra
	}
	if st, ft := knownOrZero(safe.DurationSeconds), knownOrZero(fast.DurationSeconds); st > 0 && ft > 0 {
		extra := int(math.Round((st - ft) / 60))
		sel.ExtraTimeMinutes = &extra
	}

	return sel, nil
}

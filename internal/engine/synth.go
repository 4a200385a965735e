package engine

import (
	"math"
	"math/rand"
	"strings"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/pkg/utils"
)

// Score bounds applied to every synthesized risk value
const (
	MinRiskScore = 0.05
	MaxRiskScore = 0.95
)

// NewRand returns a generator seeded for one operation
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// GridCell is a lattice coordinate with its distance from the grid center
type GridCell struct {
	Coordinate domain.Coordinate
	DistanceKm float64
}

type weatherWeight struct {
	condition string
	weight    float64
}

var routeWeather = []weatherWeight{
	{"Clear", 0.4},
	{"Cloudy", 0.3},
	{"Light Rain", 0.15},
	{"Heavy Rain", 0.05},
	{"Mist", 0.08},
	{"Fog", 0.02},
}

type cityBonus struct {
	name          string
	bonus         float64
	maxDistanceKm float64
}

var cityBonuses = []cityBonus{
	{name: "jaipur", bonus: 0.1, maxDistanceKm: 3},
	{name: "mumbai", bonus: 0.15, maxDistanceKm: math.Inf(1)},
	{name: "delhi", bonus: 0.2, maxDistanceKm: math.Inf(1)},
}

// Synthesizer produces plausible pseudo-random risk scores. It is not safe for
// concurrent use because it owns its generator.
type Synthesizer struct {
	rng *rand.Rand
}

// NewSynthesizer creates a synthesizer drawing from rng
func NewSynthesizer(rng *rand.Rand) *Synthesizer {
	return &Synthesizer{rng: rng}
}

// DistanceBonus is the proximity term of grid scoring
func DistanceBonus(distanceKm float64) float64 {
	switch {
	case distanceKm < 2:
		return 0.3
	case distanceKm < 5:
		return 0.2
	case distanceKm < 10:
		return 0.1
	default:
		return 0
	}
}

// RoadPatternBonus is a deterministic pseudo road-density term derived from
// the coordinate alone.
func RoadPatternBonus(c domain.Coordinate) float64 {
	p1 := math.Sin(c.Lat*100) * math.Cos(c.Lng*100)
	p2 := math.Cos(c.Lat*80) * math.Sin(c.Lng*80)

	var bonus float64
	if math.Abs(p1) > 0.8 || math.Abs(p2) > 0.8 {
		bonus += 0.15
	}
	if math.Abs(p1) > 0.9 && math.Abs(p2) > 0.9 {
		bonus += 0.25
	}
	return bonus
}

// CityBonus adds the emphasis for a known high-traffic city, matched on a
// case-insensitive substring of the location query. Only the first city found
// in cityBonuses order counts, even when its distance gate excludes the cell.
func CityBonus(location string, distanceKm float64) float64 {
	lower := strings.ToLower(location)
	for _, cb := range cityBonuses {
		if !strings.Contains(lower, cb.name) {
			continue
		}
		if distanceKm < cb.maxDistanceKm {
			return cb.bonus
		}
		return 0
	}
	return 0
}

// ScoreCell scores one grid cell in heatmap mode
func (s *Synthesizer) ScoreCell(cell GridCell, location string, hour int) domain.RiskPoint {
	risk := 0.3 + DistanceBonus(cell.DistanceKm)
	risk += (s.rng.Float64() - 0.5) * 0.3
	risk *= HeatmapRiskProfile.Time.Multiplier(hour)
	risk += RoadPatternBonus(cell.Coordinate)
	risk += CityBonus(location, cell.DistanceKm)

	score := utils.Clamp(risk, MinRiskScore, MaxRiskScore)
	return domain.RiskPoint{
		Coordinate:           cell.Coordinate,
		DistanceFromCenterKm: utils.RoundTo(cell.DistanceKm, 2),
		RiskScore:            score,
		RiskLabel:            HeatmapRiskProfile.Classify(score),
		RiskPercent:          RiskPercent(score),
	}
}

// ScoreGrid scores every cell in order
func (s *Synthesizer) ScoreGrid(cells []GridCell, location string, hour int) []domain.RiskPoint {
	points := make([]domain.RiskPoint, 0, len(cells))
	for _, cell := range cells {
		points = append(points, s.ScoreCell(cell, location, hour))
	}
	return points
}

func (s *Synthesizer) sampleWeather() string {
	r := s.rng.Float64()
	var cumulative float64
	for _, w := range routeWeather {
		cumulative += w.weight
		if r < cumulative {
			return w.condition
		}
	}
	return routeWeather[0].condition
}

// RoutePointScore synthesizes the risk of the index-th of total route points.
// Segments near the middle of the route run hotter than the endpoints.
func (s *Synthesizer) RoutePointScore(index, total int) (float64, string) {
	var progress float64
	if total > 1 {
		progress = float64(index) / float64(total-1)
	}

	var base float64
	switch {
	case progress < 0.2 || progress > 0.8:
		base = 0.2 + s.rng.Float64()*0.3
	case progress > 0.4 && progress < 0.6:
		base = 0.5 + s.rng.Float64()*0.4
	default:
		base = 0.3 + s.rng.Float64()*0.4
	}

	if s.rng.Float64() < 0.1 {
		base = math.Max(base, 0.7+s.rng.Float64()*0.2)
	}
	if s.rng.Float64() < 0.15 {
		base = math.Min(base, 0.2+s.rng.Float64()*0.2)
	}

	weather := s.sampleWeather()
	switch {
	case strings.Contains(weather, "Rain"):
		base = math.Min(0.95, base+0.1+s.rng.Float64()*0.2)
	case weather == "Fog" || weather == "Mist":
		base = math.Min(0.9, base+0.05+s.rng.Float64()*0.15)
	}

	return utils.Clamp(utils.RoundTo(base, 2), MinRiskScore, MaxRiskScore), weather
}

// ScoreRoute produces one prediction per route point, in order. Distances are
// measured from the route origin.
func (s *Synthesizer) ScoreRoute(points []domain.Coordinate) []domain.RiskPoint {
	if len(points) == 0 {
		return nil
	}

	origin := points[0]
	predictions := make([]domain.RiskPoint, 0, len(points))
	for i, p := range points {
		score, weather := s.RoutePointScore(i, len(points))
		predictions = append(predictions, domain.RiskPoint{
			Coordinate:           p,
			DistanceFromCenterKm: utils.RoundTo(DistanceKm(origin, p), 2),
			RiskScore:            score,
			RiskLabel:            RouteRiskProfile.Classify(score),
			RiskPercent:          RiskPercent(score),
			Weather:              weather,
		})
	}
	return predictions
}

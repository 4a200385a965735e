package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheusmaps/backend/internal/domain"
)

func TestScoreCell_StaysInBounds(t *testing.T) {
	rng := NewRand(42)
	s := NewSynthesizer(rng)
	locations := []string{"Jaipur", "mumbai", "New Delhi", "Zzzqrx", ""}

	for i := 0; i < 10000; i++ {
		cell := GridCell{
			Coordinate: domain.Coordinate{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180},
			DistanceKm: rng.Float64() * 20,
		}
		p := s.ScoreCell(cell, locations[i%len(locations)], rng.Intn(24))

		require.GreaterOrEqual(t, p.RiskScore, MinRiskScore)
		require.LessOrEqual(t, p.RiskScore, MaxRiskScore)
		require.Equal(t, HeatmapRiskProfile.Classify(p.RiskScore), p.RiskLabel)
		require.Equal(t, RiskPercent(p.RiskScore), p.RiskPercent)
	}
}

func TestScoreCell_Deterministic(t *testing.T) {
	cell := GridCell{Coordinate: domain.JaipurCenter, DistanceKm: 1}

	a := NewSynthesizer(NewRand(7)).ScoreCell(cell, "Jaipur", 9)
	b := NewSynthesizer(NewRand(7)).ScoreCell(cell, "Jaipur", 9)

	assert.Equal(t, a, b)
}

func TestDistanceBonus(t *testing.T) {
	assert.Equal(t, 0.3, DistanceBonus(0))
	assert.Equal(t, 0.2, DistanceBonus(2))
	assert.Equal(t, 0.1, DistanceBonus(5))
	assert.Equal(t, 0.0, DistanceBonus(10))
}

func TestCityBonus(t *testing.T) {
	assert.Equal(t, 0.1, CityBonus("Jaipur, Rajasthan", 1))
	assert.Equal(t, 0.0, CityBonus("Jaipur", 3))
	assert.Equal(t, 0.15, CityBonus("MUMBAI", 50))
	assert.Equal(t, 0.2, CityBonus("new delhi", 50))
	assert.Equal(t, 0.0, CityBonus("Pune", 0))
}

func TestCityBonus_FirstCityWins(t *testing.T) {
	tests := []struct {
		location string
		distance float64
		want     float64
	}{
		{"Delhi to Mumbai", 20, 0.15},
		{"Mumbai, near Delhi road", 1, 0.15},
		{"jaipur mumbai", 8, 0},
		{"Jaipur Delhi highway", 1, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, CityBonus(tt.location, tt.distance))
		})
	}
}

func TestRoadPatternBonus_Deterministic(t *testing.T) {
	c := domain.Coordinate{Lat: 26.91, Lng: 75.78}
	assert.Equal(t, RoadPatternBonus(c), RoadPatternBonus(c))
	assert.Equal(t, 0.15, RoadPatternBonus(c))
	assert.Equal(t, 0.0, RoadPatternBonus(domain.Coordinate{Lat: 0, Lng: 0}))
}

func TestRoadPatternBonus_NegativeIntersection(t *testing.T) {
	// both patterns are below -0.9 here
	c := domain.Coordinate{Lat: 26.0, Lng: 75.144}
	assert.InDelta(t, 0.40, RoadPatternBonus(c), 1e-9)
}

func TestScoreRoute(t *testing.T) {
	points := StraightLineRoute(domain.JaipurCenter, domain.Coordinate{Lat: 27.2, Lng: 76.0}, "a", "b").Points

	predictions := NewSynthesizer(NewRand(1)).ScoreRoute(points)

	require.Len(t, predictions, len(points))
	assert.Equal(t, 0.0, predictions[0].DistanceFromCenterKm)
	for i, p := range predictions {
		assert.Equal(t, points[i], p.Coordinate)
		assert.GreaterOrEqual(t, p.RiskScore, MinRiskScore)
		assert.LessOrEqual(t, p.RiskScore, MaxRiskScore)
		assert.Equal(t, RouteRiskProfile.Classify(p.RiskScore), p.RiskLabel)
		assert.NotEmpty(t, p.Weather)
	}
	assert.Nil(t, NewSynthesizer(NewRand(1)).ScoreRoute(nil))
}

func TestRoutePointScore_SinglePoint(t *testing.T) {
	s := NewSynthesizer(NewRand(3))
	score, weather := s.RoutePointScore(0, 1)

	assert.GreaterOrEqual(t, score, MinRiskScore)
	assert.NotEmpty(t, weather)
}

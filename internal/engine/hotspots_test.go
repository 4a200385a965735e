package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheusmaps/backend/internal/domain"
)

func TestHotspots_KnownCities(t *testing.T) {
	for _, city := range []string{"jaipur", "Mumbai", "DELHI", "Bangalore"} {
		for hour := 0; hour < 24; hour++ {
			entries := Hotspots(city, hour, NewRand(1))

			require.Len(t, entries, 10, city)
			for _, e := range entries {
				assert.GreaterOrEqual(t, e.RiskLevel, 0.1)
				assert.LessOrEqual(t, e.RiskLevel, 0.95)
				assert.Greater(t, e.IncidentCount, 0)
				assert.NotEmpty(t, e.Name)
			}
		}
	}
	assert.True(t, KnownHotspotCity(" Jaipur"))
	assert.False(t, KnownHotspotCity("Pune"))
}

func TestHotspots_FormulaAtNoon(t *testing.T) {
	entries := Hotspots("jaipur", 12, NewRand(1))

	// Sanganer, base 0.75, midday multiplier 0.8, phase sin(12π/12) = 0
	assert.InDelta(t, 0.6, entries[0].RiskLevel, 1e-9)
	assert.Equal(t, 12, entries[0].IncidentCount)
	wantSecond := 0.72*0.8 + math.Sin(13*math.Pi/12)*0.1
	assert.InDelta(t, wantSecond, entries[1].RiskLevel, 1e-9)
}

func TestHotspots_UnknownCity(t *testing.T) {
	entries := Hotspots("Zzzqrx", 9, NewRand(77))

	require.Len(t, entries, 2)
	assert.Equal(t, "Zzzqrx - Main Highway", entries[0].Name)
	assert.Equal(t, "Zzzqrx - Ring Road", entries[1].Name)
	for _, e := range entries {
		assert.LessOrEqual(t, math.Abs(e.Coordinate.Lat-domain.JaipurCenter.Lat), 0.1)
		assert.LessOrEqual(t, math.Abs(e.Coordinate.Lng-domain.JaipurCenter.Lng), 0.1)
	}
}

func TestHotspots_National(t *testing.T) {
	entries := Hotspots("", 18, NewRand(1))

	require.Len(t, entries, 8)
	// evening multiplier 1.4 saturates the first entry
	assert.Equal(t, 0.95, entries[0].RiskLevel)
	assert.Equal(t, 34, entries[0].IncidentCount)
	assert.Equal(t, "Jaipur - Delhi Highway (Neemrana)", entries[7].Name)
}

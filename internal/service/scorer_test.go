package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/engine"
)

func TestFallbackScorer_PrefersRemote(t *testing.T) {
	route := engine.StraightLineRoute(jaipur, ajmer, "Jaipur", "Ajmer")
	remote := &fakeScorer{name: "remote", score: 0.42}
	synthetic := NewSyntheticScorer(engine.NewSynthesizer(engine.NewRand(1)))

	chain := NewFallbackScorer(nil, nopLogger(), remote, synthetic)
	predictions, source, err := chain.ScoreRouteWithSource(context.Background(), &route)
	require.NoError(t, err)
	assert.Equal(t, "remote", source)
	assert.Len(t, predictions, len(route.Points))
	assert.Equal(t, 0.42, predictions[0].RiskScore)
}

func TestFallbackScorer_FallsBackToSynthetic(t *testing.T) {
	route := engine.StraightLineRoute(jaipur, ajmer, "Jaipur", "Ajmer")
	remote := &fakeScorer{name: "remote", err: domain.ErrBackendUnavailable}
	synthetic := NewSyntheticScorer(engine.NewSynthesizer(engine.NewRand(1)))

	chain := NewFallbackScorer(nil, nopLogger(), remote, synthetic)
	predictions, source, err := chain.ScoreRouteWithSource(context.Background(), &route)
	require.NoError(t, err)
	assert.Equal(t, sourceSynthetic, source)
	assert.Equal(t, 1, remote.calls)
	require.Len(t, predictions, len(route.Points))
	for _, p := range predictions {
		assert.GreaterOrEqual(t, p.RiskScore, engine.MinRiskScore)
		assert.LessOrEqual(t, p.RiskScore, engine.MaxRiskScore)
	}
}

func TestFallbackScorer_AllFail(t *testing.T) {
	route := engine.StraightLineRoute(jaipur, ajmer, "Jaipur", "Ajmer")
	chain := NewFallbackScorer(nil, nopLogger(),
		&fakeScorer{name: "a", err: errBoom},
		&fakeScorer{name: "b", err: domain.ErrInvalidInput},
	)

	_, err := chain.ScoreRoute(context.Background(), &route)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.ErrorIs(t, err, errBoom)
}

// failingHotspots always errors
type failingHotspots struct{}

func (failingHotspots) Name() string { return "remote" }

func (failingHotspots) Hotspots(context.Context, string, int) ([]domain.HotspotEntry, error) {
	return nil, domain.ErrBackendUnavailable
}

func TestFallbackHotspots_UsesCatalog(t *testing.T) {
	chain := NewFallbackHotspots(nil, nopLogger(), failingHotspots{}, NewCatalogHotspots(engine.NewRand(1)))

	entries, source, err := chain.HotspotsWithSource(context.Background(), "Jaipur", 8)
	require.NoError(t, err)
	assert.Equal(t, "catalog", source)
	assert.NotEmpty(t, entries)
}

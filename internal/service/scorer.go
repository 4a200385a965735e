package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/engine"
	"github.com/morpheusmaps/backend/internal/metrics"
)

// RiskScorer produces per-point predictions for a route
type RiskScorer interface {
	Name() string
	ScoreRoute(ctx context.Context, route *domain.RouteCandidate) ([]domain.RiskPoint, error)
}

// HotspotSource lists named high-risk locations for a city
type HotspotSource interface {
	Name() string
	Hotspots(ctx context.Context, city string, hour int) ([]domain.HotspotEntry, error)
}

const sourceSynthetic = "synthetic"

// SyntheticScorer scores routes locally and never fails
type SyntheticScorer struct {
	synth *engine.Synthesizer
}

// NewSyntheticScorer wraps a synthesizer owned by one operation
func NewSyntheticScorer(synth *engine.Synthesizer) *SyntheticScorer {
	return &SyntheticScorer{synth: synth}
}

func (s *SyntheticScorer) Name() string { return sourceSynthetic }

func (s *SyntheticScorer) ScoreRoute(_ context.Context, route *domain.RouteCandidate) ([]domain.RiskPoint, error) {
	return s.synth.ScoreRoute(route.Points), nil
}

// FallbackScorer tries each scorer in order and returns the first success
type FallbackScorer struct {
	scorers []RiskScorer
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewFallbackScorer chains scorers. The last one should never fail.
func NewFallbackScorer(m *metrics.Metrics, logger *zap.Logger, scorers ...RiskScorer) *FallbackScorer {
	return &FallbackScorer{scorers: scorers, metrics: m, logger: logger}
}

func (f *FallbackScorer) Name() string { return "fallback" }

func (f *FallbackScorer) ScoreRoute(ctx context.Context, route *domain.RouteCandidate) ([]domain.RiskPoint, error) {
	predictions, _, err := f.ScoreRouteWithSource(ctx, route)
	return predictions, err
}

// ScoreRouteWithSource also reports which scorer answered
func (f *FallbackScorer) ScoreRouteWithSource(ctx context.Context, route *domain.RouteCandidate) ([]domain.RiskPoint, string, error) {
	var errs []error
	for i, s := range f.scorers {
		predictions, err := s.ScoreRoute(ctx, route)
		if err == nil && len(predictions) > 0 {
			return predictions, s.Name(), nil
		}
		if err == nil {
			err = fmt.Errorf("%s returned no predictions", s.Name())
		}
		errs = append(errs, err)
		if i < len(f.scorers)-1 {
			f.metrics.Fallback("scorer")
			f.logger.Warn("risk scorer failed, falling back",
				zap.String("scorer", s.Name()),
				zap.String("next", f.scorers[i+1].Name()),
				zap.Error(err),
			)
		}
	}
	return nil, "", fmt.Errorf("scorer: all scorers failed: %w: %w", errors.Join(errs...), domain.ErrBackendUnavailable)
}

// CatalogHotspots serves the static hotspot catalog
type CatalogHotspots struct {
	rng *rand.Rand
}

// NewCatalogHotspots creates a catalog source. rng jitters unknown cities.
func NewCatalogHotspots(rng *rand.Rand) *CatalogHotspots {
	return &CatalogHotspots{rng: rng}
}

func (c *CatalogHotspots) Name() string { return "catalog" }

func (c *CatalogHotspots) Hotspots(_ context.Context, city string, hour int) ([]domain.HotspotEntry, error) {
	return engine.Hotspots(city, hour, c.rng), nil
}

// FallbackHotspots tries each source in order
type FallbackHotspots struct {
	sources []HotspotSource
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewFallbackHotspots chains hotspot sources
func NewFallbackHotspots(m *metrics.Metrics, logger *zap.Logger, sources ...HotspotSource) *FallbackHotspots {
	return &FallbackHotspots{sources: sources, metrics: m, logger: logger}
}

func (f *FallbackHotspots) Name() string { return "fallback" }

func (f *FallbackHotspots) Hotspots(ctx context.Context, city string, hour int) ([]domain.HotspotEntry, error) {
	entries, _, err := f.HotspotsWithSource(ctx, city, hour)
	return entries, err
}

// HotspotsWithSource also reports which source answered
func (f *FallbackHotspots) HotspotsWithSource(ctx context.Context, city string, hour int) ([]domain.HotspotEntry, string, error) {
	var errs []error
	for i, s := range f.sources {
		entries, err := s.Hotspots(ctx, city, hour)
		if err == nil && len(entries) > 0 {
			return entries, s.Name(), nil
		}
		if err == nil {
			err = fmt.Errorf("%s returned no hotspots", s.Name())
		}
		errs = append(errs, err)
		if i < len(f.sources)-1 {
			f.metrics.Fallback("hotspots")
			f.logger.Warn("hotspot source failed, falling back", zap.String("source", s.Name()), zap.Error(err))
		}
	}
	return nil, "", fmt.Errorf("hotspots: all sources failed: %w: %w", errors.Join(errs...), domain.ErrBackendUnavailable)
}

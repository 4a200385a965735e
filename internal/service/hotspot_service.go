package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/clock"
	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/engine"
	"github.com/morpheusmaps/backend/internal/metrics"
)

// HotspotService lists hotspots from the backend, falling back to the catalog
type HotspotService struct {
	remote  HotspotSource
	clock   clock.Clock
	seed    int64
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewHotspotService creates a new hotspot service. remote may be nil.
func NewHotspotService(remote HotspotSource, clk clock.Clock, seed int64, m *metrics.Metrics, logger *zap.Logger) *HotspotService {
	return &HotspotService{remote: remote, clock: clk, seed: seed, metrics: m, logger: logger}
}

// Hotspots returns the hotspots for city at the current hour
func (s *HotspotService) Hotspots(ctx context.Context, city string, seed int64) (domain.HotspotsResponse, error) {
	city = strings.TrimSpace(city)
	hour := s.clock.Now().Hour()

	sources := make([]HotspotSource, 0, 2)
	if s.remote != nil {
		sources = append(sources, s.remote)
	}
	sources = append(sources, NewCatalogHotspots(engine.NewRand(operationSeed(seed, s.seed, s.clock))))

	entries, source, err := NewFallbackHotspots(s.metrics, s.logger, sources...).HotspotsWithSource(ctx, city, hour)
	if err != nil {
		return domain.HotspotsResponse{}, err
	}

	return domain.HotspotsResponse{
		City:     city,
		Hotspots: entries,
		IsMock:   s.remote == nil || source != s.remote.Name(),
	}, nil
}

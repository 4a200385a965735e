package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/clock"
	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/engine"
	"github.com/morpheusmaps/backend/internal/metrics"
	"github.com/morpheusmaps/backend/internal/session"
)

// HeatmapRequest describes one grid heatmap. A nil radius or grid size uses
// the service default; a nil Hour uses the clock.
type HeatmapRequest struct {
	Location   string
	RadiusKm   *float64
	GridSizeKm *float64
	Seed       int64
	Hour       *int
	SessionID  string
}

// HeatmapService generates synthetic risk grids and point assessments
type HeatmapService struct {
	geocoder        Geocoder
	sessions        *session.Store
	clock           clock.Clock
	seed            int64
	defaultRadiusKm float64
	defaultGridKm   float64
	metrics         *metrics.Metrics
	logger          *zap.Logger
}

// NewHeatmapService creates a new heatmap service
func NewHeatmapService(
	geocoder Geocoder,
	sessions *session.Store,
	clk clock.Clock,
	seed int64,
	defaultRadiusKm, defaultGridKm float64,
	m *metrics.Metrics,
	logger *zap.Logger,
) *HeatmapService {
	return &HeatmapService{
		geocoder:        geocoder,
		sessions:        sessions,
		clock:           clk,
		seed:            seed,
		defaultRadiusKm: defaultRadiusKm,
		defaultGridKm:   defaultGridKm,
		metrics:         m,
		logger:          logger,
	}
}

// Generate geocodes the location and scores a grid around it
func (s *HeatmapService) Generate(ctx context.Context, req HeatmapRequest) (domain.HeatmapResult, error) {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return domain.HeatmapResult{}, fmt.Errorf("heatmap: location is required: %w", domain.ErrInvalidInput)
	}

	radius, grid := s.defaultRadiusKm, s.defaultGridKm
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
	}
	if req.GridSizeKm != nil {
		grid = *req.GridSizeKm
	}

	hour := s.clock.Now().Hour()
	if req.Hour != nil {
		hour = *req.Hour
	}

	var (
		sess   *session.MapSession
		ticket session.Ticket
	)
	if req.SessionID != "" && s.sessions != nil {
		sess = s.sessions.Get(req.SessionID)
		ticket = sess.Begin()
	}

	center, isFallback, err := s.locate(ctx, location)
	if err != nil {
		return domain.HeatmapResult{}, err
	}

	cells, err := engine.GenerateGrid(center, radius, grid)
	if err != nil {
		return domain.HeatmapResult{}, fmt.Errorf("heatmap: failed to build grid: %w", err)
	}

	synth := engine.NewSynthesizer(engine.NewRand(operationSeed(req.Seed, s.seed, s.clock)))
	points := synth.ScoreGrid(cells, location, hour)

	if sess != nil {
		if err := sess.Commit(ticket, heatmapLayers(points)); err != nil {
			s.logger.Debug("discarding superseded heatmap", zap.String("session", req.SessionID), zap.Error(err))
		}
	}

	return domain.HeatmapResult{
		Location:   location,
		Center:     center,
		RadiusKm:   radius,
		GridSizeKm: grid,
		Hour:       hour,
		Points:     points,
		IsFallback: isFallback,
	}, nil
}

// locate resolves a location, falling back to the offline city table
func (s *HeatmapService) locate(ctx context.Context, location string) (domain.Coordinate, bool, error) {
	c, err := s.geocoder.Geocode(ctx, location)
	if err == nil {
		return c, false, nil
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return domain.Coordinate{}, false, err
	}

	if c, ok := engine.LookupCity(location); ok {
		s.metrics.Fallback("geocoder")
		s.logger.Warn("geocoding failed, using city table", zap.String("location", location), zap.Error(err))
		return c, true, nil
	}
	return domain.Coordinate{}, false, fmt.Errorf("heatmap: could not find %q: %w", location, domain.ErrGeocodeNotFound)
}

// PointRisk scores a single coordinate as the center of its own grid
func (s *HeatmapService) PointRisk(c domain.Coordinate, seed int64) (domain.PointRisk, error) {
	if !c.Valid() {
		return domain.PointRisk{}, fmt.Errorf("heatmap: invalid coordinate %s: %w", c, domain.ErrInvalidInput)
	}

	synth := engine.NewSynthesizer(engine.NewRand(operationSeed(seed, s.seed, s.clock)))
	p := synth.ScoreCell(engine.GridCell{Coordinate: c}, "", s.clock.Now().Hour())

	return domain.PointRisk{
		RiskPoint:      p,
		Color:          engine.HeatmapRiskProfile.Color(p.RiskScore),
		Recommendation: engine.Recommendation(p.RiskScore),
	}, nil
}

func heatmapLayers(points []domain.RiskPoint) []session.Layer {
	layers := make([]session.Layer, 0, len(points))
	for _, p := range points {
		layers = append(layers, session.Layer{
			Kind:      session.LayerHeatmap,
			Name:      string(p.RiskLabel),
			Points:    []domain.Coordinate{p.Coordinate},
			Color:     engine.HeatmapRiskProfile.Color(p.RiskScore),
			RiskScore: p.RiskScore,
		})
	}
	return layers
}

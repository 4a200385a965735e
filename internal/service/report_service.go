package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/clock"
	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/engine"
	"github.com/morpheusmaps/backend/pkg/utils"
)

const (
	// DefaultReportLimit is the page size used when none is given
	DefaultReportLimit = 100
	// DefaultNearbyRadiusKm is the nearby search radius used when none is given
	DefaultNearbyRadiusKm = 5.0
)

// ReportService stores and queries user risk reports
type ReportService struct {
	repo     DataRepository
	geocoder Geocoder
	clock    clock.Clock
	logger   *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(repo DataRepository, geocoder Geocoder, clk clock.Clock, logger *zap.Logger) *ReportService {
	return &ReportService{repo: repo, geocoder: geocoder, clock: clk, logger: logger}
}

// NearbyQuery selects reports around a coordinate or a geocoded address
type NearbyQuery struct {
	Location *domain.Coordinate
	Address  string
	RadiusKm float64
}

// Add validates, locates and stores a report
func (s *ReportService) Add(ctx context.Context, req domain.ReportRequest) (domain.UserReport, error) {
	level := strings.ToLower(strings.TrimSpace(req.RiskLevel))
	if !validReportLevel(level) {
		return domain.UserReport{}, fmt.Errorf("%w: risk level must be one of %s",
			domain.ErrInvalidInput, strings.Join(domain.ReportRiskLevels, ", "))
	}
	if strings.TrimSpace(req.Description) == "" {
		return domain.UserReport{}, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}

	location, err := s.resolve(ctx, req.Location, req.Address)
	if err != nil {
		return domain.UserReport{}, err
	}

	report := domain.UserReport{
		ID:          uuid.NewString(),
		Location:    location,
		RiskLevel:   level,
		Description: strings.TrimSpace(req.Description),
		ReportType:  req.ReportType,
		Timestamp:   s.clock.Now(),
	}

	if err := s.repo.SaveReport(ctx, report); err != nil {
		return domain.UserReport{}, fmt.Errorf("service: failed to save report: %w", err)
	}

	s.logger.Info("User report stored",
		zap.String("id", report.ID),
		zap.String("level", report.RiskLevel),
	)
	return report, nil
}

// List returns one page of reports in submission order
func (s *ReportService) List(ctx context.Context, limit, offset int) ([]domain.UserReport, error) {
	if limit <= 0 {
		limit = DefaultReportLimit
	}
	if offset < 0 {
		offset = 0
	}

	reports, err := s.repo.ListReports(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list reports: %w", err)
	}
	return reports, nil
}

// Nearby returns reports within the radius, closest first
func (s *ReportService) Nearby(ctx context.Context, q NearbyQuery) ([]domain.UserReport, float64, error) {
	radius := q.RadiusKm
	if radius <= 0 {
		radius = DefaultNearbyRadiusKm
	}

	center, err := s.resolve(ctx, q.Location, q.Address)
	if err != nil {
		return nil, radius, err
	}

	// Bounding box first; the exact great-circle filter runs below. Longitude
	// degrees shrink with latitude, so the box widens accordingly.
	latSpan := utils.KmToDegrees(radius)
	lngSpan := latSpan / math.Max(math.Cos(center.Lat*math.Pi/180), 0.01)
	lo := domain.Coordinate{Lat: center.Lat - latSpan, Lng: center.Lng - lngSpan}
	hi := domain.Coordinate{Lat: center.Lat + latSpan, Lng: center.Lng + lngSpan}

	candidates, err := s.repo.ReportsWithin(ctx, lo, hi)
	if err != nil {
		return nil, radius, fmt.Errorf("service: failed to query nearby reports: %w", err)
	}

	nearby := make([]domain.UserReport, 0, len(candidates))
	for _, r := range candidates {
		d := engine.DistanceKm(center, r.Location)
		if d > radius {
			continue
		}
		rounded := utils.RoundTo(d, 2)
		r.DistanceKm = &rounded
		nearby = append(nearby, r)
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return *nearby[i].DistanceKm < *nearby[j].DistanceKm
	})
	return nearby, radius, nil
}

func (s *ReportService) resolve(ctx context.Context, location *domain.Coordinate, address string) (domain.Coordinate, error) {
	if location != nil {
		if !location.Valid() {
			return domain.Coordinate{}, fmt.Errorf("%w: coordinate out of range", domain.ErrInvalidInput)
		}
		return *location, nil
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Coordinate{}, fmt.Errorf("%w: location or address is required", domain.ErrInvalidInput)
	}
	if s.geocoder == nil {
		return domain.Coordinate{}, domain.ErrGeocodeNotFound
	}

	c, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		s.logger.Warn("Report address geocoding failed", zap.String("address", address), zap.Error(err))
		return domain.Coordinate{}, fmt.Errorf("%w: %s", domain.ErrGeocodeNotFound, address)
	}
	return c, nil
}

func validReportLevel(level string) bool {
	for _, l := range domain.ReportRiskLevels {
		if l == level {
			return true
		}
	}
	return false
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/engine"
	"github.com/morpheusmaps/backend/internal/metrics"
	"github.com/morpheusmaps/backend/pkg/utils"
)

const providerML = "ml-backend"

// MLBridge handles communication with the optional ML risk backend. It
// serves both as a RiskScorer and a HotspotSource.
type MLBridge struct {
	serviceURL string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewMLBridge creates a new ML bridge
func NewMLBridge(serviceURL string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *MLBridge {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MLBridge{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
		logger:  logger,
	}
}

// Name identifies the bridge in fallback logs
func (b *MLBridge) Name() string { return providerML }

type predictRouteRequest struct {
	Origin      string              `json:"origin"`
	Destination string              `json:"destination"`
	RoutePoints []domain.Coordinate `json:"route_points"`
}

type backendPrediction struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Lon       *float64 `json:"lon"`
	RiskScore *float64 `json:"risk_score"`
	Weather   struct {
		Condition string `json:"weather_condition"`
	} `json:"weather"`
}

type predictRouteResponse struct {
	Status string `json:"status"`
	Data   struct {
		Predictions []backendPrediction `json:"predictions"`
	} `json:"data"`
}

// ScoreRoute asks the backend for per-point predictions. Labels are
// reassigned locally so they agree with the route risk profile.
func (b *MLBridge) ScoreRoute(ctx context.Context, route *domain.RouteCandidate) ([]domain.RiskPoint, error) {
	body, err := json.Marshal(predictRouteRequest{
		Origin:      route.OriginLabel,
		Destination: route.DestinationLabel,
		RoutePoints: route.Points,
	})
	if err != nil {
		return nil, fmt.Errorf("ml_bridge: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.serviceURL+"/api/predict_route_risk", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ml_bridge: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp predictRouteResponse
	if err := b.do(httpReq, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data.Predictions) == 0 {
		b.metrics.ExternalCall(providerML, metrics.OutcomeFailure)
		return nil, fmt.Errorf("ml_bridge: empty predictions: %w", domain.ErrBackendUnavailable)
	}

	var origin domain.Coordinate
	if len(route.Points) > 0 {
		origin = route.Points[0]
	}

	predictions := make([]domain.RiskPoint, 0, len(resp.Data.Predictions))
	for i, p := range resp.Data.Predictions {
		if p.RiskScore == nil {
			continue
		}
		c, ok := p.coordinate()
		if !ok {
			if i >= len(route.Points) {
				continue
			}
			c = route.Points[i]
		}
		score := utils.Clamp(*p.RiskScore, engine.MinRiskScore, engine.MaxRiskScore)
		predictions = append(predictions, domain.RiskPoint{
			Coordinate:           c,
			DistanceFromCenterKm: utils.RoundTo(engine.DistanceKm(origin, c), 2),
			RiskScore:            score,
			RiskLabel:            engine.RouteRiskProfile.Classify(score),
			RiskPercent:          engine.RiskPercent(score),
			Weather:              p.Weather.Condition,
		})
	}
	if len(predictions) == 0 {
		b.metrics.ExternalCall(providerML, metrics.OutcomeFailure)
		return nil, fmt.Errorf("ml_bridge: no usable predictions: %w", domain.ErrBackendUnavailable)
	}

	b.metrics.ExternalCall(providerML, metrics.OutcomeSuccess)
	return predictions, nil
}

func (p backendPrediction) coordinate() (domain.Coordinate, bool) {
	if p.Lat == nil {
		return domain.Coordinate{}, false
	}
	lng := p.Lng
	if lng == nil {
		lng = p.Lon
	}
	if lng == nil {
		return domain.Coordinate{}, false
	}
	c := domain.Coordinate{Lat: *p.Lat, Lng: *lng}
	return c, c.Valid()
}

type topHotspotsResponse struct {
	Hotspots []struct {
		Name          string  `json:"location_name"`
		Lat           float64 `json:"lat"`
		Lng           float64 `json:"lng"`
		RiskLevel     float64 `json:"risk_level"`
		IncidentCount int     `json:"incident_count"`
	} `json:"hotspots"`
}

// Hotspots fetches the backend's top hotspots for city. hour is unused; the
// backend applies its own time model.
func (b *MLBridge) Hotspots(ctx context.Context, city string, hour int) ([]domain.HotspotEntry, error) {
	endpoint := b.serviceURL + "/api/hotspots/top_hotspots"
	if city != "" {
		endpoint += "?city=" + url.QueryEscape(city)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ml_bridge: failed to create request: %w", err)
	}

	var resp topHotspotsResponse
	if err := b.do(httpReq, &resp); err != nil {
		return nil, err
	}
	if len(resp.Hotspots) == 0 {
		b.metrics.ExternalCall(providerML, metrics.OutcomeFailure)
		return nil, fmt.Errorf("ml_bridge: no hotspots for %q: %w", city, domain.ErrBackendUnavailable)
	}

	entries := make([]domain.HotspotEntry, 0, len(resp.Hotspots))
	for _, h := range resp.Hotspots {
		entries = append(entries, domain.HotspotEntry{
			Name:          h.Name,
			Coordinate:    domain.Coordinate{Lat: h.Lat, Lng: h.Lng},
			RiskLevel:     utils.Clamp(h.RiskLevel, 0, engine.MaxRiskScore),
			IncidentCount: h.IncidentCount,
		})
	}

	b.metrics.ExternalCall(providerML, metrics.OutcomeSuccess)
	return entries, nil
}

// Health checks ML service connectivity
func (b *MLBridge) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.serviceURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("ml_bridge: failed to create health request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ml_bridge: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml_bridge: health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (b *MLBridge) do(req *http.Request, out interface{}) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.metrics.ExternalCall(providerML, metrics.OutcomeFailure)
		return fmt.Errorf("ml_bridge: request failed: %v: %w", err, domain.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b.metrics.ExternalCall(providerML, metrics.OutcomeFailure)
		return fmt.Errorf("ml_bridge: status %d: %w", resp.StatusCode, domain.ErrBackendUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		b.metrics.ExternalCall(providerML, metrics.OutcomeFailure)
		return fmt.Errorf("ml_bridge: failed to decode response: %v: %w", err, domain.ErrBackendUnavailable)
	}
	return nil
}

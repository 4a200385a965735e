package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/engine"
	"github.com/morpheusmaps/backend/internal/metrics"
)

const providerOSRM = "osrm"

// RouteOption is one OSRM profile plus extra query parameters
type RouteOption struct {
	Profile string
	Params  string
}

// DefaultRouteOption is the single fastest driving route
var DefaultRouteOption = RouteOption{Profile: domain.ProfileDriving}

// AlternativeOptions are queried together to collect diverse candidates
var AlternativeOptions = []RouteOption{
	{Profile: domain.ProfileDriving},
	{Profile: domain.ProfileDriving, Params: "&alternatives=true&steps=true"},
	{Profile: domain.ProfileDriving, Params: "&exclude=motorway"},
	{Profile: domain.ProfileDriving, Params: "&exclude=toll"},
	{Profile: domain.ProfileDriving, Params: "&exclude=ferry"},
	{Profile: domain.ProfileWalking},
	{Profile: domain.ProfileCycling},
}

// Router fetches road geometries between two coordinates
type Router interface {
	Route(ctx context.Context, origin, destination domain.Coordinate, opt RouteOption, originLabel, destinationLabel string) ([]domain.RouteCandidate, error)
	Alternatives(ctx context.Context, origin, destination domain.Coordinate, originLabel, destinationLabel string) []domain.RouteCandidate
}

// OSRMRouter queries an OSRM HTTP server
type OSRMRouter struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewOSRMRouter creates a router. timeout bounds each individual request.
func NewOSRMRouter(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *OSRMRouter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OSRMRouter{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
		logger:  logger,
	}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route returns every route OSRM reports for one option
func (r *OSRMRouter) Route(ctx context.Context, origin, destination domain.Coordinate, opt RouteOption, originLabel, destinationLabel string) ([]domain.RouteCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=polyline%s",
		r.baseURL, opt.Profile, origin.Lng, origin.Lat, destination.Lng, destination.Lat, opt.Params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("router: failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.metrics.ExternalCall(providerOSRM, metrics.OutcomeFailure)
		return nil, fmt.Errorf("router: %s request failed: %v: %w", opt.Profile, err, domain.ErrRouteProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.metrics.ExternalCall(providerOSRM, metrics.OutcomeFailure)
		return nil, fmt.Errorf("router: %s returned status %d: %w", opt.Profile, resp.StatusCode, domain.ErrRouteProviderUnavailable)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		r.metrics.ExternalCall(providerOSRM, metrics.OutcomeFailure)
		return nil, fmt.Errorf("router: failed to decode response: %w", err)
	}

	var routes []domain.RouteCandidate
	for _, osrm := range body.Routes {
		points, err := DecodeGeometry(osrm.Geometry)
		if err != nil {
			r.logger.Debug("skipping undecodable OSRM geometry", zap.String("profile", opt.Profile), zap.Error(err))
			continue
		}
		distance, duration := osrm.Distance, osrm.Duration
		candidate, err := engine.NewRouteCandidate(points, &distance, &duration, opt.Profile, originLabel, destinationLabel)
		if err != nil {
			continue
		}
		routes = append(routes, candidate)
	}

	if len(routes) == 0 {
		r.metrics.ExternalCall(providerOSRM, metrics.OutcomeFailure)
		return nil, fmt.Errorf("router: no %s route (code %q): %w", opt.Profile, body.Code, domain.ErrRouteProviderUnavailable)
	}

	r.metrics.ExternalCall(providerOSRM, metrics.OutcomeSuccess)
	return routes, nil
}

// Alternatives queries every AlternativeOptions entry concurrently and
// collects the ones that succeed, in option order.
func (r *OSRMRouter) Alternatives(ctx context.Context, origin, destination domain.Coordinate, originLabel, destinationLabel string) []domain.RouteCandidate {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make([][]domain.RouteCandidate, len(AlternativeOptions))
	)

	for i, opt := range AlternativeOptions {
		wg.Add(1)
		go func(i int, opt RouteOption) {
			defer wg.Done()
			routes, err := r.Route(ctx, origin, destination, opt, originLabel, destinationLabel)
			if err != nil {
				r.logger.Debug("route option failed",
					zap.String("profile", opt.Profile),
					zap.String("params", opt.Params),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			results[i] = routes
			mu.Unlock()
		}(i, opt)
	}
	wg.Wait()

	var all []domain.RouteCandidate
	for _, routes := range results {
		all = append(all, routes...)
	}
	return all
}

// DecodeGeometry decodes an encoded polyline (precision 5) into coordinates
func DecodeGeometry(encoded string) ([]domain.Coordinate, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("router: failed to decode polyline: %w", err)
	}

	points := make([]domain.Coordinate, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		points = append(points, domain.Coordinate{Lat: c[0], Lng: c[1]})
	}
	return points, nil
}

// EncodeGeometry is the inverse of DecodeGeometry
func EncodeGeometry(points []domain.Coordinate) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

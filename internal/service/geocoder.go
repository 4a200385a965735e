package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/metrics"
)

const providerNominatim = "nominatim"

// Geocoder resolves place names to coordinates and back
type Geocoder interface {
	Geocode(ctx context.Context, query string) (domain.Coordinate, error)
	Reverse(ctx context.Context, c domain.Coordinate) (string, error)
}

// NominatimOptions configures a NominatimGeocoder
type NominatimOptions struct {
	BaseURL   string
	UserAgent string

	// RPS is the request budget; the public instance allows one per second
	RPS      float64
	CacheTTL time.Duration
	Timeout  time.Duration
}

// NominatimGeocoder talks to an OpenStreetMap Nominatim instance
type NominatimGeocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	cache      *cache.Cache
	group      singleflight.Group
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewNominatimGeocoder creates a new geocoder
func NewNominatimGeocoder(opts NominatimOptions, m *metrics.Metrics, logger *zap.Logger) *NominatimGeocoder {
	if opts.RPS <= 0 {
		opts.RPS = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &NominatimGeocoder{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		timeout: opts.Timeout,
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), 1),
		cache:   cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		metrics: m,
		logger:  logger,
	}
}

// ParseCoordinateLiteral accepts "lat,lng" input such as a device location
func ParseCoordinateLiteral(s string) (domain.Coordinate, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	c := domain.Coordinate{Lat: lat, Lng: lng}
	return c, c.Valid()
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves query to its best match. Concurrent lookups of the same
// query share one request, which outlives a cancelled caller.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (domain.Coordinate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Coordinate{}, fmt.Errorf("geocoder: empty query: %w", domain.ErrInvalidInput)
	}
	if c, ok := ParseCoordinateLiteral(query); ok {
		return c, nil
	}

	key := strings.ToLower(query)
	if v, ok := g.cache.Get(key); ok {
		g.metrics.ExternalCall(providerNominatim, metrics.OutcomeCached)
		return v.(domain.Coordinate), nil
	}

	ch := g.group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()

		c, err := g.search(shared, query)
		if err != nil {
			return nil, err
		}
		g.cache.SetDefault(key, c)
		return c, nil
	})

	select {
	case <-ctx.Done():
		return domain.Coordinate{}, fmt.Errorf("geocoder: %q: %w", query, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.Coordinate{}, res.Err
		}
		return res.Val.(domain.Coordinate), nil
	}
}

func (g *NominatimGeocoder) search(ctx context.Context, query string) (domain.Coordinate, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", "1")

	var places []nominatimPlace
	if err := g.get(ctx, "/search", params, &places); err != nil {
		return domain.Coordinate{}, err
	}
	if len(places) == 0 {
		return domain.Coordinate{}, fmt.Errorf("geocoder: %q: %w", query, domain.ErrGeocodeNotFound)
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	c := domain.Coordinate{Lat: lat, Lng: lng}
	if err := errors.Join(errLat, errLng); err != nil || !c.Valid() {
		return domain.Coordinate{}, fmt.Errorf("geocoder: bad coordinates for %q: %w", query, domain.ErrGeocodeNotFound)
	}
	return c, nil
}

// Reverse returns the display address of a coordinate
func (g *NominatimGeocoder) Reverse(ctx context.Context, c domain.Coordinate) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("geocoder: invalid coordinate %s: %w", c, domain.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(c.Lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(c.Lng, 'f', 6, 64))
	params.Set("zoom", "18")
	params.Set("addressdetails", "1")

	var place nominatimPlace
	if err := g.get(ctx, "/reverse", params, &place); err != nil {
		return "", err
	}
	if place.DisplayName == "" {
		return "", fmt.Errorf("geocoder: no address for %s: %w", c, domain.ErrGeocodeNotFound)
	}
	return place.DisplayName, nil
}

func (g *NominatimGeocoder) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("geocoder: rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("geocoder: failed to create request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.metrics.ExternalCall(providerNominatim, metrics.OutcomeFailure)
		return fmt.Errorf("geocoder: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.metrics.ExternalCall(providerNominatim, metrics.OutcomeFailure)
		return fmt.Errorf("geocoder: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		g.metrics.ExternalCall(providerNominatim, metrics.OutcomeFailure)
		return fmt.Errorf("geocoder: failed to decode response: %w", err)
	}

	g.metrics.ExternalCall(providerNominatim, metrics.OutcomeSuccess)
	return nil
}

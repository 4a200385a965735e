package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/clock"
	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/metrics"
)

const providerOpenWeather = "openweather"

// WeatherService handles weather data fetching
type WeatherService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
	clock      clock.Clock
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewWeatherService creates a new weather service. Without an API key every
// lookup returns the default conditions.
func NewWeatherService(baseURL, apiKey string, ttl time.Duration, clk clock.Clock, m *metrics.Metrics, logger *zap.Logger) *WeatherService {
	return &WeatherService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache:   cache.New(ttl, 2*ttl),
		clock:   clk,
		metrics: m,
		logger:  logger,
	}
}

// OpenWeatherResponse represents the OpenWeatherMap API response
type OpenWeatherResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility int    `json:"visibility"`
	Name       string `json:"name"`
}

func weatherKey(c domain.Coordinate) string {
	return fmt.Sprintf("%.2f,%.2f", c.Lat, c.Lng)
}

// GetCurrentWeather returns current conditions at c. Failures are logged and
// answered with the default weather.
func (s *WeatherService) GetCurrentWeather(ctx context.Context, c domain.Coordinate) (domain.Weather, error) {
	if !c.Valid() {
		return domain.Weather{}, fmt.Errorf("weather: invalid coordinate %s: %w", c, domain.ErrInvalidInput)
	}

	// Return mock data if no API key
	if s.apiKey == "" {
		return s.getDefaultWeather(c), nil
	}

	key := weatherKey(c)
	if v, ok := s.cache.Get(key); ok {
		s.metrics.ExternalCall(providerOpenWeather, metrics.OutcomeCached)
		return v.(domain.Weather), nil
	}

	weather, err := s.fetch(ctx, c)
	if err != nil {
		s.metrics.ExternalCall(providerOpenWeather, metrics.OutcomeFailure)
		s.metrics.Fallback("weather")
		s.logger.Warn("weather lookup failed, using default", zap.String("location", key), zap.Error(err))
		return s.getDefaultWeather(c), nil
	}

	s.metrics.ExternalCall(providerOpenWeather, metrics.OutcomeSuccess)
	s.cache.SetDefault(key, weather)
	return weather, nil
}

func (s *WeatherService) fetch(ctx context.Context, c domain.Coordinate) (domain.Weather, error) {
	url := fmt.Sprintf("%s/data/2.5/weather?lat=%f&lon=%f&appid=%s&units=metric", s.baseURL, c.Lat, c.Lng, s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("weather: failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Weather{}, fmt.Errorf("weather: unexpected status %d", resp.StatusCode)
	}

	var owResp OpenWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		return domain.Weather{}, fmt.Errorf("weather: failed to decode response: %w", err)
	}

	weather := domain.Weather{
		Temperature: owResp.Main.Temp,
		FeelsLike:   owResp.Main.FeelsLike,
		Humidity:    owResp.Main.Humidity,
		Pressure:    owResp.Main.Pressure,
		WindSpeed:   owResp.Wind.Speed,
		Visibility:  owResp.Visibility,
		City:        owResp.Name,
		Location:    c,
		Timestamp:   s.clock.Now(),
		IsMock:      false,
	}

	if len(owResp.Weather) > 0 {
		weather.Condition = owResp.Weather[0].Main
		weather.Description = owResp.Weather[0].Description
		weather.Icon = owResp.Weather[0].Icon
	}
	if weather.Condition == "" {
		weather.Condition = "Clear"
	}

	return weather, nil
}

// getDefaultWeather returns the conditions served when OpenWeather is unavailable
func (s *WeatherService) getDefaultWeather(c domain.Coordinate) domain.Weather {
	return domain.Weather{
		Condition:   "Clear",
		Description: "clear sky",
		Temperature: 25,
		FeelsLike:   25,
		Humidity:    50,
		Pressure:    1013,
		WindSpeed:   0,
		Visibility:  10000,
		Location:    c,
		Timestamp:   s.clock.Now(),
		IsMock:      true,
	}
}

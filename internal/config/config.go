// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Server    ServerConfig
	Providers ProviderConfig
	Engine    EngineConfig
	Logging   LoggingConfig

	DatabaseURL string
}

type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  string
}

// ProviderConfig points at the external collaborators
type ProviderConfig struct {
	NominatimURL      string
	OSRMURL           string
	OpenWeatherURL    string
	OpenWeatherAPIKey string
	MLServiceURL      string
	UserAgent         string
	HTTPTimeout       time.Duration
	RouteTimeout      time.Duration
	GeocodeRPS        float64
	GeocodeCacheTTL   time.Duration
	WeatherCacheTTL   time.Duration
}

type EngineConfig struct {
	// Seed fixes the generator for every operation when non-zero
	Seed                 int64
	DefaultRadiusKm      float64
	DefaultGridKm        float64
	SessionTTL           time.Duration
	EmergencyLogCapacity int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads the configuration. Call godotenv.Load first to pick up a .env file.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Env:             getEnv("GO_ENV", "development"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
			AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "*"),
		},
		Providers: ProviderConfig{
			NominatimURL:      getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			OSRMURL:           getEnv("OSRM_URL", "https://router.project-osrm.org"),
			OpenWeatherURL:    getEnv("OPENWEATHER_URL", "https://api.openweathermap.org"),
			OpenWeatherAPIKey: getEnv("OPENWEATHER_API_KEY", ""),
			MLServiceURL:      getEnv("ML_SERVICE_URL", ""),
			UserAgent:         getEnv("HTTP_USER_AGENT", "MorpheusMaps/1.0"),
			HTTPTimeout:       getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
			RouteTimeout:      getEnvAsDuration("ROUTE_TIMEOUT", 5*time.Second),
			GeocodeRPS:        getEnvAsFloat("GEOCODE_RPS", 1),
			GeocodeCacheTTL:   getEnvAsDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
			WeatherCacheTTL:   getEnvAsDuration("WEATHER_CACHE_TTL", time.Hour),
		},
		Engine: EngineConfig{
			Seed:                 getEnvAsInt64("RISK_SEED", 0),
			DefaultRadiusKm:      getEnvAsFloat("HEATMAP_RADIUS_KM", 5),
			DefaultGridKm:        getEnvAsFloat("HEATMAP_GRID_KM", 2),
			SessionTTL:           getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			EmergencyLogCapacity: getEnvAsInt("EMERGENCY_LOG_CAPACITY", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
	}
}

// Validate reports every invalid setting at once. Soft problems are logged.
func (c *Config) Validate(logger *zap.Logger) error {
	var errs []string

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, "server port must be between 1 and 65535")
	}
	if c.Providers.NominatimURL == "" {
		errs = append(errs, "nominatim URL is required")
	}
	if c.Providers.OSRMURL == "" {
		errs = append(errs, "OSRM URL is required")
	}
	if c.Providers.GeocodeRPS <= 0 {
		errs = append(errs, "geocode rate must be positive")
	}
	if c.Providers.RouteTimeout <= 0 {
		errs = append(errs, "route timeout must be positive")
	}
	if c.Engine.DefaultGridKm <= 0 {
		errs = append(errs, "default grid size must be positive")
	}
	if c.Engine.DefaultRadiusKm < 0 {
		errs = append(errs, "default radius must not be negative")
	}
	if c.Engine.EmergencyLogCapacity < 1 {
		errs = append(errs, "emergency log capacity must be at least 1")
	}

	if logger != nil {
		if c.Providers.OpenWeatherAPIKey == "" {
			logger.Warn("OpenWeather API key not set, default weather will be served")
		}
		if c.Providers.MLServiceURL == "" {
			logger.Warn("ML service URL not set, risk scoring is synthetic only")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, ", "))
	}
	return nil
}

// NewLogger builds the zap logger described by the logging settings
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("config: invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if strings.EqualFold(cfg.Format, "console") {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level

	return zc.Build()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/clock"
	"github.com/morpheusmaps/backend/internal/config"
	"github.com/morpheusmaps/backend/internal/delivery/http"
	"github.com/morpheusmaps/backend/internal/metrics"
	"github.com/morpheusmaps/backend/internal/repository/postgres"
	"github.com/morpheusmaps/backend/internal/service"
	"github.com/morpheusmaps/backend/internal/session"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Configuration
	cfg := config.Load()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(logger); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	m := metrics.New(logger)
	defer m.Shutdown()

	// Database connection
	pool := connectDatabase(cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
		m.StartPoolStatsCollector(pool, 15*time.Second)
	}

	// Dependency Injection: Repositories
	var dataRepo service.DataRepository
	if pool != nil {
		dataRepo = postgres.NewPostgresRepository(pool)
	} else {
		dataRepo = postgres.NewMockRepository()
	}

	// Dependency Injection: Services
	clk := clock.RealClock{}
	sessions := session.NewStore(cfg.Engine.SessionTTL)

	geocoder := service.NewNominatimGeocoder(service.NominatimOptions{
		BaseURL:   cfg.Providers.NominatimURL,
		UserAgent: cfg.Providers.UserAgent,
		RPS:       cfg.Providers.GeocodeRPS,
		CacheTTL:  cfg.Providers.GeocodeCacheTTL,
		Timeout:   cfg.Providers.HTTPTimeout,
	}, m, logger)
	router := service.NewOSRMRouter(cfg.Providers.OSRMURL, cfg.Providers.RouteTimeout, m, logger)

	// The risk backend is optional; nil interfaces keep the synthetic path
	var (
		mlBridge      *service.MLBridge
		remoteScorer  service.RiskScorer
		remoteHotspot service.HotspotSource
	)
	if cfg.Providers.MLServiceURL != "" {
		mlBridge = service.NewMLBridge(cfg.Providers.MLServiceURL, cfg.Providers.HTTPTimeout, m, logger)
		remoteScorer = mlBridge
		remoteHotspot = mlBridge
	}

	routeSvc := service.NewRouteService(geocoder, router, remoteScorer, dataRepo, sessions, clk, cfg.Engine.Seed, m, logger)
	heatmapSvc := service.NewHeatmapService(geocoder, sessions, clk, cfg.Engine.Seed,
		cfg.Engine.DefaultRadiusKm, cfg.Engine.DefaultGridKm, m, logger)
	hotspotSvc := service.NewHotspotService(remoteHotspot, clk, cfg.Engine.Seed, m, logger)
	weatherSvc := service.NewWeatherService(cfg.Providers.OpenWeatherURL, cfg.Providers.OpenWeatherAPIKey,
		cfg.Providers.WeatherCacheTTL, clk, m, logger)
	reportSvc := service.NewReportService(dataRepo, geocoder, clk, logger)
	emergencySvc := service.NewEmergencyService(dataRepo, geocoder, clk, cfg.Engine.EmergencyLogCapacity, logger)

	// Fiber App
	app := http.NewApp(cfg.Server, m, logger)

	// Routes
	handler := http.NewHandler(http.Services{
		Routes:    routeSvc,
		Heatmap:   heatmapSvc,
		Hotspots:  hotspotSvc,
		Weather:   weatherSvc,
		Reports:   reportSvc,
		Emergency: emergencySvc,
		Sessions:  sessions,
		Repo:      dataRepo,
		ML:        mlBridge,
	}, logger)
	http.SetupRoutes(app, handler, m)

	// Graceful shutdown
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	routeSvc.WaitBackground()
	logger.Info("Server exited gracefully")
}

// connectDatabase returns a migrated pool, or nil to run in mock mode
func connectDatabase(url string, logger *zap.Logger) *pgxpool.Pool {
	if url == "" {
		logger.Info("DATABASE_URL not set, running with in-memory storage")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err == nil {
		err = pool.Ping(ctx)
	}
	if err == nil {
		err = postgres.NewPostgresRepository(pool).Migrate(ctx)
	}
	if err != nil {
		logger.Warn("Could not connect to database, running with in-memory storage", zap.Error(err))
		if pool != nil {
			pool.Close()
		}
		return nil
	}

	logger.Info("Connected to PostgreSQL")
	return pool
}

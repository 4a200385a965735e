package http

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/config"
	"github.com/morpheusmaps/backend/internal/metrics"
)

// NewApp creates the Fiber app with the shared middleware stack
func NewApp(cfg config.ServerConfig, m *metrics.Metrics, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Morpheus Maps API v1.0",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: ErrorHandler(log),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(MetricsMiddleware(m))
	if cfg.Env != "test" {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(compress.New())

	return app
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler, m *metrics.Metrics) {
	// Health check
	app.Get("/health", handler.HealthCheck)

	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Routing and risk
		api.Post("/routes/analyze", handler.AnalyzeRoute)
		api.Get("/heatmap", handler.GetHeatmap)
		api.Get("/risk", handler.GetPointRisk)
		api.Get("/hotspots", handler.GetHotspots)
		api.Get("/weather", handler.GetWeather)

		// User reports
		api.Post("/reports", handler.AddReport)
		api.Get("/reports", handler.ListReports)
		api.Get("/reports/nearby", handler.NearbyReports)

		// Emergency
		api.Post("/emergency/alert", handler.EmergencyAlert)
		api.Post("/emergency/log", handler.EmergencyLog)
		api.Get("/emergency/logs", handler.EmergencyLogs)

		// Map sessions
		api.Get("/sessions/:id", handler.GetSession)
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": message,
		})
	}
}

// MetricsMiddleware records request counts and latency by route pattern.
// A nil m returns a pass-through handler.
func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	if m == nil {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Render errors here so the recorded status is the final one
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				return herr
			}
		}

		m.ObserveRequest(strings.Clone(c.Method()), c.Route().Path, strconv.Itoa(c.Response().StatusCode()), time.Since(start))
		return nil
	}
}

package http

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/service"
	"github.com/morpheusmaps/backend/internal/session"
)

// Services groups the dependencies of Handler. ML may be nil when no risk
// backend is configured.
type Services struct {
	Routes    *service.RouteService
	Heatmap   *service.HeatmapService
	Hotspots  *service.HotspotService
	Weather   *service.WeatherService
	Reports   *service.ReportService
	Emergency *service.EmergencyService
	Sessions  *session.Store
	Repo      service.DataRepository
	ML        *service.MLBridge
}

// Handler contains all HTTP handlers
type Handler struct {
	svc    Services
	logger *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(svc Services, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	ctx := c.Context()

	database := "ok"
	if err := h.svc.Repo.Health(ctx); err != nil {
		database = "unavailable"
	}

	backend := "disabled"
	if h.svc.ML != nil {
		backend = "ok"
		if err := h.svc.ML.Health(ctx); err != nil {
			backend = "unavailable"
		}
	}

	return c.JSON(fiber.Map{
		"status":     "ok",
		"service":    "morpheus-maps",
		"version":    "1.0.0",
		"database":   database,
		"ml_backend": backend,
	})
}

// AnalyzeRoute runs a single or safe/fast route analysis
func (h *Handler) AnalyzeRoute(c *fiber.Ctx) error {
	var req domain.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	analysis, err := h.svc.Routes.Analyze(c.Context(), req)
	if err != nil {
		return h.apiError(err, "Failed to analyze route")
	}

	if wantsGeoJSON(c) {
		return sendGeoJSON(c, RouteFeatureCollection(analysis))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    analysis,
	})
}

// GetHeatmap returns a scored grid around a location
func (h *Handler) GetHeatmap(c *fiber.Ctx) error {
	radius, err := queryFloat(c, "radius")
	if err != nil {
		return err
	}
	grid, err := queryFloat(c, "grid")
	if err != nil {
		return err
	}
	seed, err := querySeed(c)
	if err != nil {
		return err
	}

	var hour *int
	if v := c.Query("hour"); v != "" {
		hv, err := strconv.Atoi(v)
		if err != nil || hv < 0 || hv > 23 {
			return fiber.NewError(fiber.StatusBadRequest, "hour must be between 0 and 23")
		}
		hour = &hv
	}

	result, err := h.svc.Heatmap.Generate(c.Context(), service.HeatmapRequest{
		Location:   query(c, "location"),
		RadiusKm:   radius,
		GridSizeKm: grid,
		Seed:       seed,
		Hour:       hour,
		SessionID:  query(c, "session_id"),
	})
	if err != nil {
		return h.apiError(err, "Failed to generate heatmap")
	}

	if wantsGeoJSON(c) {
		return sendGeoJSON(c, HeatmapFeatureCollection(result))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// GetPointRisk scores a single coordinate
func (h *Handler) GetPointRisk(c *fiber.Ctx) error {
	coord, ok, err := queryCoordinate(c)
	if err != nil {
		return err
	}
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "lat and lng are required")
	}
	seed, err := querySeed(c)
	if err != nil {
		return err
	}

	risk, err := h.svc.Heatmap.PointRisk(coord, seed)
	if err != nil {
		return h.apiError(err, "Failed to score location")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    risk,
	})
}

// GetHotspots returns the hotspot list for a city
func (h *Handler) GetHotspots(c *fiber.Ctx) error {
	seed, err := querySeed(c)
	if err != nil {
		return err
	}

	hotspots, err := h.svc.Hotspots.Hotspots(c.Context(), query(c, "city"), seed)
	if err != nil {
		return h.apiError(err, "Failed to fetch hotspots")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    hotspots,
	})
}

// GetWeather returns current weather data
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	coord, ok, err := queryCoordinate(c)
	if err != nil {
		return err
	}
	if !ok {
		coord = domain.JaipurCenter
	}

	weather, err := h.svc.Weather.GetCurrentWeather(c.Context(), coord)
	if err != nil {
		return h.apiError(err, "Failed to fetch weather data")
	}

	return c.JSON(domain.WeatherResponse{
		Data:    weather,
		Success: true,
	})
}

// AddReport stores a user risk report
func (h *Handler) AddReport(c *fiber.Ctx) error {
	var req domain.ReportRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	report, err := h.svc.Reports.Add(c.Context(), req)
	if err != nil {
		return h.apiError(err, "Failed to save report")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    report,
	})
}

// ListReports returns a page of user reports
func (h *Handler) ListReports(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultReportLimit)
	offset := c.QueryInt("offset", 0)

	reports, err := h.svc.Reports.List(c.Context(), limit, offset)
	if err != nil {
		return h.apiError(err, "Failed to fetch reports")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    reports,
		"meta": fiber.Map{
			"total":  len(reports),
			"limit":  limit,
			"offset": offset,
		},
	})
}

// NearbyReports returns reports around a coordinate or address
func (h *Handler) NearbyReports(c *fiber.Ctx) error {
	coord, ok, err := queryCoordinate(c)
	if err != nil {
		return err
	}
	address := query(c, "address")
	if !ok && address == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Either lat/lng or address is required")
	}

	radius, err := queryFloat(c, "radius")
	if err != nil {
		return err
	}

	q := service.NearbyQuery{Address: address}
	if ok {
		q.Location = &coord
	}
	if radius != nil {
		q.RadiusKm = *radius
	}

	reports, usedRadius, err := h.svc.Reports.Nearby(c.Context(), q)
	if err != nil {
		return h.apiError(err, "Failed to fetch nearby reports")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    reports,
		"meta": fiber.Map{
			"total":     len(reports),
			"radius_km": usedRadius,
		},
	})
}

// EmergencyAlert logs an alert and returns the share payload
func (h *Handler) EmergencyAlert(c *fiber.Ctx) error {
	var req service.AlertRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	alert, err := h.svc.Emergency.Alert(c.Context(), req)
	if err != nil {
		return h.apiError(err, "Failed to send emergency alert")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    alert,
	})
}

// EmergencyLog records a call or location share
func (h *Handler) EmergencyLog(c *fiber.Ctx) error {
	var req service.LogRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	entry, err := h.svc.Emergency.Log(c.Context(), req)
	if err != nil {
		return h.apiError(err, "Failed to log emergency action")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    entry,
	})
}

// EmergencyLogs returns the retained emergency log entries
func (h *Handler) EmergencyLogs(c *fiber.Ctx) error {
	logs, err := h.svc.Emergency.Logs(c.Context())
	if err != nil {
		return h.apiError(err, "Failed to fetch emergency logs")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    logs,
		"count":   len(logs),
	})
}

// GetSession returns the current layers of a map session
func (h *Handler) GetSession(c *fiber.Ctx) error {
	sess, ok := h.svc.Sessions.Lookup(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    sess.Snapshot(),
	})
}

// apiError maps service errors onto HTTP status codes. Unclassified errors
// are logged and reported with the generic message.
func (h *Handler) apiError(err error, message string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrGeocodeNotFound):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoValidRoutePoints):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error(message, zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, message)
	}
}

// query copies a query value; fasthttp reuses the underlying buffer
func query(c *fiber.Ctx, key string) string {
	return strings.Clone(strings.TrimSpace(c.Query(key)))
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+" must be a number")
	}
	return &f, nil
}

func querySeed(c *fiber.Ctx) (int64, error) {
	v := c.Query("seed")
	if v == "" {
		return 0, nil
	}
	seed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "seed must be an integer")
	}
	return seed, nil
}

// queryCoordinate reads lat and lng (or lon). ok is false when both are absent.
func queryCoordinate(c *fiber.Ctx) (domain.Coordinate, bool, error) {
	latRaw, lngRaw := c.Query("lat"), c.Query("lng")
	if lngRaw == "" {
		lngRaw = c.Query("lon")
	}
	if latRaw == "" && lngRaw == "" {
		return domain.Coordinate{}, false, nil
	}

	lat, errLat := strconv.ParseFloat(latRaw, 64)
	lng, errLng := strconv.ParseFloat(lngRaw, 64)
	coord := domain.Coordinate{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !coord.Valid() {
		return domain.Coordinate{}, false, fiber.NewError(fiber.StatusBadRequest, "lat and lng must be valid coordinates")
	}
	return coord, true, nil
}

func wantsGeoJSON(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Query("format"), "geojson")
}

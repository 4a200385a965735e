package http

import (
	"github.com/gofiber/fiber/v2"
	geojson "github.com/paulmach/go.geojson"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/engine"
)

const geoJSONContentType = "application/geo+json"

// RouteFeatureCollection exports the rendered routes of an analysis as line
// features followed by their scored points
func RouteFeatureCollection(a domain.RouteAnalysis) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if a.Route != nil {
		addRoute(fc, "route", a.Route)
	}
	if a.Selection != nil {
		addRoute(fc, "safe", a.Selection.Safe)
		addRoute(fc, "fast", a.Selection.Fast)
	}
	return fc
}

func addRoute(fc *geojson.FeatureCollection, role string, r *domain.RouteCandidate) {
	if r == nil {
		return
	}

	line := geojson.NewLineStringFeature(lngLat(r.Points))
	line.SetProperty("role", role)
	line.SetProperty("profile", r.Profile)
	line.SetProperty("origin", r.OriginLabel)
	line.SetProperty("destination", r.DestinationLabel)
	line.SetProperty("average_risk", r.AverageRisk())
	line.SetProperty("color", engine.RouteRiskProfile.Color(r.AverageRisk()))
	if r.DistanceMeters != nil {
		line.SetProperty("distance", *r.DistanceMeters)
	}
	if r.DurationSeconds != nil {
		line.SetProperty("duration", *r.DurationSeconds)
	}
	fc.AddFeature(line)

	for _, p := range r.Predictions {
		fc.AddFeature(riskPointFeature(p, role, engine.RouteRiskProfile))
	}
}

// HeatmapFeatureCollection exports every scored cell as a point feature
func HeatmapFeatureCollection(h domain.HeatmapResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range h.Points {
		fc.AddFeature(riskPointFeature(p, "heatmap", engine.HeatmapRiskProfile))
	}
	return fc
}

func riskPointFeature(p domain.RiskPoint, role string, profile engine.RiskProfile) *geojson.Feature {
	f := geojson.NewPointFeature([]float64{p.Coordinate.Lng, p.Coordinate.Lat})
	f.SetProperty("role", role)
	f.SetProperty("risk_score", p.RiskScore)
	f.SetProperty("risk_label", string(p.RiskLabel))
	f.SetProperty("risk_percent", p.RiskPercent)
	f.SetProperty("color", profile.Color(p.RiskScore))
	if p.Weather != "" {
		f.SetProperty("weather", p.Weather)
	}
	return f
}

// lngLat converts to GeoJSON [lng, lat] order
func lngLat(points []domain.Coordinate) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = []float64{p.Lng, p.Lat}
	}
	return out
}

func sendGeoJSON(c *fiber.Ctx, fc *geojson.FeatureCollection) error {
	body, err := fc.MarshalJSON()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to encode GeoJSON")
	}
	c.Set(fiber.HeaderContentType, geoJSONContentType)
	return c.Send(body)
}

package domain

// RiskLabel is the categorical band a risk score falls into
type RiskLabel string

const (
	RiskVeryLow  RiskLabel = "Very Low"
	RiskLow      RiskLabel = "Low"
	RiskModerate RiskLabel = "Moderate"
	RiskHigh     RiskLabel = "High"
	RiskVeryHigh RiskLabel = "Very High"
	RiskSevere   RiskLabel = "Severe"
)

// RiskPoint is a scored coordinate. Never mutated after creation.
type RiskPoint struct {
	Coordinate           Coordinate `json:"coordinate"`
	DistanceFromCenterKm float64    `json:"distance_from_center_km"`
	RiskScore            float64    `json:"risk_score"`
	RiskLabel            RiskLabel  `json:"risk_label"`
	RiskPercent          int        `json:"risk_percent"`
	Weather              string     `json:"weather,omitempty"`
}

// RouteSummary aggregates the predictions of one route.
// Sum of RiskDistribution values always equals TotalPoints.
type RouteSummary struct {
	AverageRisk       float64           `json:"average_risk"`
	MaxRisk           float64           `json:"max_risk"`
	DominantRiskLabel RiskLabel         `json:"dominant_risk_level"`
	TotalPoints       int               `json:"total_points"`
	RiskDistribution  map[RiskLabel]int `json:"risk_distribution"`
}

// HeatmapResult is the scored grid around a geocoded location
type HeatmapResult struct {
	Location   string      `json:"location"`
	Center     Coordinate  `json:"center"`
	RadiusKm   float64     `json:"radius_km"`
	GridSizeKm float64     `json:"grid_size_km"`
	Hour       int         `json:"hour"`
	Points     []RiskPoint `json:"points"`
	IsFallback bool        `json:"is_fallback"`
}

// PointRisk is the risk assessment for a single coordinate
type PointRisk struct {
	RiskPoint
	Color          string `json:"color"`
	Recommendation string `json:"recommendation"`
}

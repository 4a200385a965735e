package domain

// Route profile tags
const (
	ProfileDriving      = "driving"
	ProfileWalking      = "walking"
	ProfileCycling      = "cycling"
	ProfileStraightLine = "straight-line"
	DisplaySuffix       = "-display"
)

// RouteCandidate is one complete path option between two endpoints.
// DistanceMeters and DurationSeconds are nil when unknown.
type RouteCandidate struct {
	Points           []Coordinate  `json:"route_points"`
	DistanceMeters   *float64      `json:"distance,omitempty"`
	DurationSeconds  *float64      `json:"duration,omitempty"`
	OriginLabel      string        `json:"origin"`
	DestinationLabel string        `json:"destination"`
	Profile          string        `json:"profile"`
	Predictions      []RiskPoint   `json:"predictions,omitempty"`
	Summary          *RouteSummary `json:"summary,omitempty"`
}

// AverageRisk returns the summary average, or 0 before scoring
func (r *RouteCandidate) AverageRisk() float64 {
	if r.Summary == nil {
		return 0
	}
	return r.Summary.AverageRisk
}

// TravelMetric is the value minimized when picking the fast route:
// duration when known and positive, else distance, else 0.
func (r *RouteCandidate) TravelMetric() float64 {
	if r.DurationSeconds != nil && *r.DurationSeconds > 0 {
		return *r.DurationSeconds
	}
	if r.DistanceMeters != nil && *r.DistanceMeters > 0 {
		return *r.DistanceMeters
	}
	return 0
}

// RouteSelection is the safe/fast pair chosen among deduplicated candidates.
// SafeIsDisplayVariant marks a nudged copy of the safe route whose geometry
// was shifted for rendering only.
type RouteSelection struct {
	Safe                 *RouteCandidate `json:"safe_route"`
	Fast                 *RouteCandidate `json:"fast_route"`
	SafeIsDisplayVariant bool            `json:"safe_is_display_variant"`
	SafetyImprovementPct float64         `json:"safety_improvement_pct"`
	ExtraDistanceKm      *float64        `json:"extra_distance_km,omitempty"`
	ExtraTimeMinutes     *int            `json:"extra_time_minutes,omitempty"`
}

// AnalysisState is a step of the analyze-route state machine
type AnalysisState string

const (
	StateIdle                AnalysisState = "idle"
	StateGeocoding           AnalysisState = "geocoding"
	StateRouteFetching       AnalysisState = "route_fetching"
	StateFallbackSynthetic   AnalysisState = "fallback_synthetic"
	StateRiskScoring         AnalysisState = "risk_scoring"
	StateSingleDisplay       AnalysisState = "single_display"
	StateComparisonSelection AnalysisState = "comparison_selection"
	StateRendered            AnalysisState = "rendered"
)

// AnalyzeRequest is the input of a route analysis
type AnalyzeRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	SafeRoute   bool   `json:"safe_route"`
	Seed        int64  `json:"seed,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

// RouteAnalysis is the result of one analyze-route operation
type RouteAnalysis struct {
	ID         string           `json:"id"`
	States     []AnalysisState  `json:"states"`
	Route      *RouteCandidate  `json:"route,omitempty"`
	Selection  *RouteSelection  `json:"selection,omitempty"`
	Candidates []RouteCandidate `json:"candidates,omitempty"`
	Notices    []string         `json:"notices,omitempty"`
	IsFallback bool             `json:"is_fallback"`
}

package domain

// HotspotEntry is a named high-risk location
type HotspotEntry struct {
	Name          string     `json:"location_name"`
	Coordinate    Coordinate `json:"coordinate"`
	RiskLevel     float64    `json:"risk_level"`
	IncidentCount int        `json:"incident_count"`
}

// HotspotsResponse wraps hotspot data with metadata
type HotspotsResponse struct {
	City     string         `json:"city,omitempty"`
	Hotspots []HotspotEntry `json:"hotspots"`
	IsMock   bool           `json:"is_mock"`
}

package domain

import "time"

// Valid user report levels
var ReportRiskLevels = []string{"low", "moderate", "high", "severe"}

// UserReport is a user-submitted risk observation
type UserReport struct {
	ID          string     `json:"id"`
	Location    Coordinate `json:"location"`
	RiskLevel   string     `json:"risk_level"`
	Description string     `json:"description"`
	ReportType  string     `json:"report_type,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	DistanceKm  *float64   `json:"distance_km,omitempty"`
}

// ReportRequest is the input for submitting a report. Address is geocoded
// when Location is absent.
type ReportRequest struct {
	Location    *Coordinate `json:"location,omitempty"`
	Address     string      `json:"address,omitempty"`
	RiskLevel   string      `json:"risk_level"`
	Description string      `json:"description"`
	ReportType  string      `json:"report_type,omitempty"`
}

// Emergency log actions
const (
	ActionEmergencyAlert = "emergency_alert"
	ActionCall           = "call"
	ActionLocationShare  = "location_share"
)

// EmergencyLog is one entry of the capped emergency action log
type EmergencyLog struct {
	ID        string            `json:"id"`
	Action    string            `json:"action"`
	Location  *Coordinate       `json:"location,omitempty"`
	Message   string            `json:"message,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	SessionID string            `json:"session_id"`
	Timestamp time.Time         `json:"timestamp"`
}

// EmergencyAlert is returned after an alert has been logged
type EmergencyAlert struct {
	Log       EmergencyLog      `json:"log"`
	Address   string            `json:"address"`
	ShareText string            `json:"share_text"`
	MapsLink  string            `json:"maps_link"`
	Contacts  map[string]string `json:"emergency_contacts"`
}

// EmergencyContacts is the national emergency number directory
var EmergencyContacts = map[string]string{
	"police":    "100",
	"ambulance": "108",
	"fire":      "101",
	"traffic":   "1073",
	"disaster":  "108",
	"helpline":  "1912",
}

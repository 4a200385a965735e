package domain

import (
	"context"
	"time"
)

// AnalysisLog is the persisted trace of one route analysis
type AnalysisLog struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	SafeRoute   bool      `json:"safe_route"`
	AverageRisk float64   `json:"average_risk"`
	Candidates  int       `json:"candidates"`
	IsFallback  bool      `json:"is_fallback"`
	CreatedAt   time.Time `json:"created_at"`
}

// DataRepository defines the interface for data persistence
// This follows the Dependency Inversion Principle - domain defines the interface
type DataRepository interface {
	// SaveAnalysisLog persists the outcome of a route analysis
	SaveAnalysisLog(ctx context.Context, entry AnalysisLog) error

	// SaveReport persists a user report
	SaveReport(ctx context.Context, report UserReport) error

	// ListReports returns reports in submission order
	ListReports(ctx context.Context, limit, offset int) ([]UserReport, error)

	// ReportsWithin returns reports inside the bounding box, unordered
	ReportsWithin(ctx context.Context, min, max Coordinate) ([]UserReport, error)

	// AppendEmergencyLog stores an entry, keeping only the newest capacity entries
	AppendEmergencyLog(ctx context.Context, entry EmergencyLog, capacity int) error

	// ListEmergencyLogs returns the retained entries oldest first
	ListEmergencyLogs(ctx context.Context) ([]EmergencyLog, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}

package postgres

import (
	"context"
	"sync"

	"github.com/tidwall/rtree"

	"github.com/morpheusmaps/backend/internal/domain"
)

// MockRepository implements domain.DataRepository in memory for demo mode
// and tests. Reports are indexed spatially for nearby queries.
type MockRepository struct {
	mu        sync.RWMutex
	analyses  []domain.AnalysisLog
	reports   []domain.UserReport
	index     rtree.RTreeG[int] // report position in reports
	emergency []domain.EmergencyLog
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SaveAnalysisLog keeps the entry in memory
func (r *MockRepository) SaveAnalysisLog(ctx context.Context, entry domain.AnalysisLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses = append(r.analyses, entry)
	return nil
}

// AnalysisLogs returns a copy of the stored analysis logs
func (r *MockRepository) AnalysisLogs() []domain.AnalysisLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.AnalysisLog(nil), r.analyses...)
}

// SaveReport stores and indexes a report
func (r *MockRepository) SaveReport(ctx context.Context, report domain.UserReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report.DistanceKm = nil
	pos := [2]float64{report.Location.Lng, report.Location.Lat}
	r.index.Insert(pos, pos, len(r.reports))
	r.reports = append(r.reports, report)
	return nil
}

// ListReports returns reports in submission order
func (r *MockRepository) ListReports(ctx context.Context, limit, offset int) ([]domain.UserReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset >= len(r.reports) {
		return []domain.UserReport{}, nil
	}
	end := len(r.reports)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]domain.UserReport(nil), r.reports[offset:end]...), nil
}

// ReportsWithin returns the reports inside the bounding box
func (r *MockRepository) ReportsWithin(ctx context.Context, min, max domain.Coordinate) ([]domain.UserReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.UserReport
	r.index.Search(
		[2]float64{min.Lng, min.Lat},
		[2]float64{max.Lng, max.Lat},
		func(_, _ [2]float64, i int) bool {
			out = append(out, r.reports[i])
			return true
		},
	)
	return out, nil
}

// AppendEmergencyLog stores the entry and drops the oldest beyond capacity
func (r *MockRepository) AppendEmergencyLog(ctx context.Context, entry domain.EmergencyLog, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.emergency = append(r.emergency, entry)
	if capacity > 0 && len(r.emergency) > capacity {
		r.emergency = append([]domain.EmergencyLog(nil), r.emergency[len(r.emergency)-capacity:]...)
	}
	return nil
}

// ListEmergencyLogs returns the retained entries oldest first
func (r *MockRepository) ListEmergencyLogs(ctx context.Context) ([]domain.EmergencyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.EmergencyLog{}, r.emergency...), nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheusmaps/backend/internal/domain"
)

func report(id string, lat, lng float64) domain.UserReport {
	return domain.UserReport{
		ID:          id,
		Location:    domain.Coordinate{Lat: lat, Lng: lng},
		RiskLevel:   "high",
		Description: "pothole",
		Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMockRepository_ListReportsPaginates(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SaveReport(ctx, report(fmt.Sprint(i), 26.9, 75.8)))
	}

	page, err := repo.ListReports(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "1", page[0].ID)
	assert.Equal(t, "2", page[1].ID)

	empty, err := repo.ListReports(ctx, 10, 50)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMockRepository_ReportsWithinBoundingBox(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	require.NoError(t, repo.SaveReport(ctx, report("inside", 26.91, 75.79)))
	require.NoError(t, repo.SaveReport(ctx, report("edge", 27.0, 75.9)))
	require.NoError(t, repo.SaveReport(ctx, report("outside", 28.6, 77.2)))

	found, err := repo.ReportsWithin(ctx,
		domain.Coordinate{Lat: 26.8, Lng: 75.7},
		domain.Coordinate{Lat: 27.0, Lng: 75.9},
	)
	require.NoError(t, err)

	ids := make([]string, 0, len(found))
	for _, r := range found {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"inside", "edge"}, ids)
}

func TestMockRepository_EmergencyLogCapacity(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()

	for i := 0; i < 13; i++ {
		entry := domain.EmergencyLog{ID: fmt.Sprint(i), Action: domain.ActionCall}
		require.NoError(t, repo.AppendEmergencyLog(ctx, entry, 10))
	}

	logs, err := repo.ListEmergencyLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 10)
	assert.Equal(t, "3", logs[0].ID)
	assert.Equal(t, "12", logs[9].ID)
}

func TestMockRepository_AnalysisLogsAndHealth(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()

	require.NoError(t, repo.SaveAnalysisLog(ctx, domain.AnalysisLog{ID: "a1"}))
	require.Len(t, repo.AnalysisLogs(), 1)
	assert.NoError(t, repo.Health(ctx))
}

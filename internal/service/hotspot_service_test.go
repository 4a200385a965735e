package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheusmaps/backend/internal/domain"
)

// staticHotspots answers with a fixed list
type staticHotspots struct{ entries []domain.HotspotEntry }

func (staticHotspots) Name() string { return "remote" }

func (s staticHotspots) Hotspots(context.Context, string, int) ([]domain.HotspotEntry, error) {
	return s.entries, nil
}

func TestHotspotService_CatalogWithoutRemote(t *testing.T) {
	svc := NewHotspotService(nil, testClock(), 0, nil, nopLogger())

	resp, err := svc.Hotspots(context.Background(), " Jaipur ", 1)
	require.NoError(t, err)
	assert.Equal(t, "Jaipur", resp.City)
	assert.True(t, resp.IsMock)
	assert.NotEmpty(t, resp.Hotspots)
}

func TestHotspotService_RemoteAnswers(t *testing.T) {
	remote := staticHotspots{entries: []domain.HotspotEntry{{Name: "Tonk Road", RiskLevel: 0.9}}}
	svc := NewHotspotService(remote, testClock(), 0, nil, nopLogger())

	resp, err := svc.Hotspots(context.Background(), "Jaipur", 1)
	require.NoError(t, err)
	assert.False(t, resp.IsMock)
	assert.Equal(t, remote.entries, resp.Hotspots)
}

func TestHotspotService_RemoteFailureUsesCatalog(t *testing.T) {
	svc := NewHotspotService(failingHotspots{}, testClock(), 0, nil, nopLogger())

	resp, err := svc.Hotspots(context.Background(), "Udaipur", 1)
	require.NoError(t, err)
	assert.True(t, resp.IsMock)
	require.Len(t, resp.Hotspots, 2)
	assert.Equal(t, "Udaipur - Main Highway", resp.Hotspots[0].Name)
}

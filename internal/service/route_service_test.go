package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/repository/postgres"
	"github.com/morpheusmaps/backend/internal/session"
)

type routeFixture struct {
	geocoder *fakeGeocoder
	router   *fakeRouter
	repo     *postgres.MockRepository
	sessions *session.Store
}

func newRouteFixture() *routeFixture {
	return &routeFixture{
		geocoder: newFakeGeocoder(),
		router:   &fakeRouter{},
		repo:     postgres.NewMockRepository(),
		sessions: session.NewStore(time.Minute),
	}
}

func (f *routeFixture) service(remote RiskScorer) *RouteService {
	return NewRouteService(f.geocoder, f.router, remote, f.repo, f.sessions, testClock(), 0, nil, nopLogger())
}

func TestRouteService_SingleRoute(t *testing.T) {
	f := newRouteFixture()
	svc := f.service(nil)

	result, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{
		Origin:      "Jaipur",
		Destination: "Ajmer",
		Seed:        42,
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.AnalysisState{
		domain.StateIdle,
		domain.StateGeocoding,
		domain.StateRouteFetching,
		domain.StateRiskScoring,
		domain.StateSingleDisplay,
		domain.StateRendered,
	}, result.States)
	assert.False(t, result.IsFallback)
	assert.Nil(t, result.Selection)

	require.NotNil(t, result.Route)
	assert.Equal(t, domain.ProfileDriving, result.Route.Profile)
	require.NotNil(t, result.Route.Summary)
	assert.Equal(t, len(result.Route.Points), result.Route.Summary.TotalPoints)
	assert.Len(t, result.Route.Predictions, len(result.Route.Points))

	svc.WaitBackground()
	logs := f.repo.AnalysisLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, result.ID, logs[0].ID)
	assert.False(t, logs[0].SafeRoute)
}

func TestRouteService_SameSeedSameResult(t *testing.T) {
	f := newRouteFixture()
	svc := f.service(nil)
	req := domain.AnalyzeRequest{Origin: "Jaipur", Destination: "Ajmer", Seed: 99}

	a, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	b, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a.Route.Predictions, b.Route.Predictions)
	svc.WaitBackground()
}

func TestRouteService_GeocodeFailureUsesStraightLine(t *testing.T) {
	f := newRouteFixture()
	f.geocoder.err = errBoom
	svc := f.service(nil)

	result, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{
		Origin:      "Delhi",
		Destination: "Mumbai",
		Seed:        1,
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.AnalysisState{
		domain.StateIdle,
		domain.StateGeocoding,
		domain.StateFallbackSynthetic,
		domain.StateRiskScoring,
		domain.StateSingleDisplay,
		domain.StateRendered,
	}, result.States)
	assert.True(t, result.IsFallback)
	assert.NotEmpty(t, result.Notices)
	assert.Zero(t, f.router.requests)

	require.NotNil(t, result.Route)
	assert.Equal(t, domain.ProfileStraightLine, result.Route.Profile)
	assert.Len(t, result.Route.Points, 11)
	svc.WaitBackground()
}

func TestRouteService_RouteFailureUsesStraightLine(t *testing.T) {
	f := newRouteFixture()
	f.router.err = domain.ErrRouteProviderUnavailable
	svc := f.service(nil)

	result, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{
		Origin:      "Jaipur",
		Destination: "Ajmer",
		Seed:        1,
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.AnalysisState{
		domain.StateIdle,
		domain.StateGeocoding,
		domain.StateRouteFetching,
		domain.StateFallbackSynthetic,
		domain.StateRiskScoring,
		domain.StateSingleDisplay,
		domain.StateRendered,
	}, result.States)
	assert.True(t, result.IsFallback)
	assert.Equal(t, jaipur, result.Route.Points[0])
	assert.Equal(t, ajmer, result.Route.Points[len(result.Route.Points)-1])
	svc.WaitBackground()
}

func TestRouteService_ComparisonWithSyntheticPool(t *testing.T) {
	f := newRouteFixture()
	svc := f.service(nil)

	result, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{
		Origin:      "Jaipur",
		Destination: "Ajmer",
		SafeRoute:   true,
		Seed:        7,
		SessionID:   "tab-1",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StateComparisonSelection, result.States[len(result.States)-2])
	assert.Contains(t, result.States, domain.StateFallbackSynthetic)
	require.NotNil(t, result.Selection)
	require.NotNil(t, result.Selection.Safe)
	require.NotNil(t, result.Selection.Fast)
	assert.NotEmpty(t, result.Candidates)

	found := false
	for _, n := range result.Notices {
		if strings.HasPrefix(n, "Safer route found!") {
			found = true
		}
	}
	assert.True(t, found, "missing selection notice in %v", result.Notices)

	snap := f.sessions.Get("tab-1").Snapshot()
	assert.Equal(t, session.Ticket(1), snap.Generation)
	assert.NotEmpty(t, snap.Layers)
	svc.WaitBackground()
}

func TestRouteService_ComparisonWithProviderRoutes(t *testing.T) {
	f := newRouteFixture()
	f.router.alts = []domain.RouteCandidate{
		road(jaipur, ajmer, 30, 135000, 7200, domain.ProfileDriving, "Jaipur", "Ajmer"),
		road(jaipur, ajmer, 30, 150000, 9000, domain.ProfileWalking, "Jaipur", "Ajmer"),
	}
	svc := f.service(&fakeScorer{name: "remote", score: 0.4})

	result, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{
		Origin:      "Jaipur",
		Destination: "Ajmer",
		SafeRoute:   true,
		Seed:        7,
	})
	require.NoError(t, err)

	assert.NotContains(t, result.States, domain.StateFallbackSynthetic)
	assert.False(t, result.IsFallback)
	require.NotNil(t, result.Selection)
	assert.Equal(t, domain.ProfileDriving, result.Selection.Fast.Profile)
	svc.WaitBackground()
}

func TestRouteService_RemoteFailureDegrades(t *testing.T) {
	f := newRouteFixture()
	remote := &fakeScorer{name: "remote", err: domain.ErrBackendUnavailable}
	svc := f.service(remote)

	result, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{
		Origin:      "Jaipur",
		Destination: "Ajmer",
		Seed:        3,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, remote.calls)
	assert.True(t, result.IsFallback)
	assert.Contains(t, result.Notices, "Risk backend unavailable, using estimated risk data")
	assert.NotContains(t, result.States, domain.StateFallbackSynthetic)
	svc.WaitBackground()
}

func TestRouteService_SameOriginAndDestination(t *testing.T) {
	tests := []struct {
		name      string
		safeRoute bool
		routerErr error
	}{
		{"single provider route", false, nil},
		{"single straight line", false, domain.ErrRouteProviderUnavailable},
		{"comparison provider routes", true, nil},
		{"comparison synthetic pool", true, domain.ErrRouteProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouteFixture()
			f.router.err = tt.routerErr
			if tt.safeRoute && tt.routerErr == nil {
				f.router.alts = []domain.RouteCandidate{
					road(jaipur, jaipur, 20, 0, 0, domain.ProfileDriving, "Jaipur", "Jaipur"),
				}
			}
			svc := f.service(nil)

			result, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{
				Origin:      "Jaipur",
				Destination: "Jaipur",
				SafeRoute:   tt.safeRoute,
				Seed:        11,
			})
			require.NoError(t, err)
			assert.Equal(t, domain.StateRendered, result.States[len(result.States)-1])

			if tt.safeRoute {
				require.NotNil(t, result.Selection)
				assert.NotNil(t, result.Selection.Safe)
				assert.NotNil(t, result.Selection.Fast)
			} else {
				require.NotNil(t, result.Route)
				assert.Equal(t, jaipur, result.Route.Points[0])
				assert.Equal(t, jaipur, result.Route.Points[len(result.Route.Points)-1])
			}
			svc.WaitBackground()
		})
	}
}

func TestRouteService_MissingInput(t *testing.T) {
	svc := newRouteFixture().service(nil)

	result, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Origin: "Jaipur", Destination: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, []domain.AnalysisState{domain.StateIdle}, result.States)
}

func TestSelectionNotice(t *testing.T) {
	km := 2.5
	mins := 4
	notice := selectionNotice(domain.RouteSelection{
		SafetyImprovementPct: 12.3,
		ExtraDistanceKm:      &km,
		ExtraTimeMinutes:     &mins,
	})
	assert.Equal(t, "Safer route found! 12.3% less risky. Extra distance: 2.5km, Extra time: 4 min", notice)

	assert.Equal(t, "Safer route found! 0.0% less risky. Extra distance: N/Akm, Extra time: N/A min",
		selectionNotice(domain.RouteSelection{}))
}

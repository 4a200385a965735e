package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/clock"
	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/engine"
)

var (
	jaipur = domain.Coordinate{Lat: 26.9124, Lng: 75.7873}
	ajmer  = domain.Coordinate{Lat: 26.4499, Lng: 74.6399}

	// 08:30 falls in the morning rush window
	testNow = time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
)

func testClock() *clock.MockClock {
	return clock.NewMockClock(testNow)
}

// fakeGeocoder resolves from a fixed table
type fakeGeocoder struct {
	mu      sync.Mutex
	places  map[string]domain.Coordinate
	address string
	err     error
	calls   int
}

func (g *fakeGeocoder) Geocode(_ context.Context, query string) (domain.Coordinate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return domain.Coordinate{}, g.err
	}
	if c, ok := g.places[strings.ToLower(query)]; ok {
		return c, nil
	}
	return domain.Coordinate{}, domain.ErrGeocodeNotFound
}

func (g *fakeGeocoder) Reverse(_ context.Context, _ domain.Coordinate) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.address, nil
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		places: map[string]domain.Coordinate{
			"jaipur": jaipur,
			"ajmer":  ajmer,
		},
		address: "MI Road, Jaipur, Rajasthan, India",
	}
}

// fakeRouter returns a straight road for every option unless failing
type fakeRouter struct {
	err      error
	alts     []domain.RouteCandidate
	requests int
}

func (r *fakeRouter) Route(_ context.Context, o, d domain.Coordinate, opt RouteOption, oLabel, dLabel string) ([]domain.RouteCandidate, error) {
	r.requests++
	if r.err != nil {
		return nil, r.err
	}
	return []domain.RouteCandidate{road(o, d, 20, 32000, 2400, opt.Profile, oLabel, dLabel)}, nil
}

func (r *fakeRouter) Alternatives(_ context.Context, o, d domain.Coordinate, oLabel, dLabel string) []domain.RouteCandidate {
	r.requests++
	return r.alts
}

func road(o, d domain.Coordinate, n int, distance, duration float64, profile, oLabel, dLabel string) domain.RouteCandidate {
	points := make([]domain.Coordinate, n)
	for i := range points {
		points[i] = engine.Interpolate(o, d, float64(i)/float64(n-1))
	}
	return domain.RouteCandidate{
		Points:           points,
		DistanceMeters:   &distance,
		DurationSeconds:  &duration,
		OriginLabel:      oLabel,
		DestinationLabel: dLabel,
		Profile:          profile,
	}
}

// fakeScorer returns a constant risk per point, or an error
type fakeScorer struct {
	name  string
	score float64
	err   error
	calls int
}

func (s *fakeScorer) Name() string { return s.name }

func (s *fakeScorer) ScoreRoute(_ context.Context, route *domain.RouteCandidate) ([]domain.RiskPoint, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.RiskPoint, len(route.Points))
	for i, p := range route.Points {
		out[i] = domain.RiskPoint{
			Coordinate: p,
			RiskScore:  s.score,
			RiskLabel:  engine.RouteRiskProfile.Classify(s.score),
		}
	}
	return out, nil
}

func TestOperationSeed(t *testing.T) {
	clk := testClock()

	assert.Equal(t, int64(7), operationSeed(7, 3, clk))
	assert.Equal(t, int64(3), operationSeed(0, 3, clk))
	assert.Equal(t, testNow.UnixNano(), operationSeed(0, 0, clk))
}

var errBoom = errors.New("boom")

func nopLogger() *zap.Logger { return zap.NewNop() }

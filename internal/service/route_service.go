package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/morpheusmaps/backend/internal/clock"
	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/internal/engine"
	"github.com/morpheusmaps/backend/internal/metrics"
	"github.com/morpheusmaps/backend/internal/session"
)

// minComparisonCandidates is the pool size below which synthetic detours
// are added in comparison mode
const minComparisonCandidates = 5

// RouteService runs the analyze-route state machine
type RouteService struct {
	geocoder Geocoder
	router   Router
	remote   RiskScorer
	repo     DataRepository
	sessions *session.Store
	clock    clock.Clock
	seed     int64
	metrics  *metrics.Metrics
	logger   *zap.Logger

	wgBg sync.WaitGroup // tracks background goroutines for graceful shutdown
}

// NewRouteService creates a new route service. remote and sessions may be nil.
func NewRouteService(
	geocoder Geocoder,
	router Router,
	remote RiskScorer,
	repo DataRepository,
	sessions *session.Store,
	clk clock.Clock,
	seed int64,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RouteService {
	return &RouteService{
		geocoder: geocoder,
		router:   router,
		remote:   remote,
		repo:     repo,
		sessions: sessions,
		clock:    clk,
		seed:     seed,
		metrics:  m,
		logger:   logger,
	}
}

// WaitBackground blocks until all background save goroutines complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *RouteService) WaitBackground() {
	s.wgBg.Wait()
}

// analysisTrace accumulates the state transitions and notices of one run
type analysisTrace struct {
	states     []domain.AnalysisState
	notices    []string
	isFallback bool
}

func (t *analysisTrace) enter(state domain.AnalysisState) {
	t.states = append(t.states, state)
}

func (t *analysisTrace) fallback(notice string) {
	t.enter(domain.StateFallbackSynthetic)
	t.notices = append(t.notices, notice)
	t.isFallback = true
}

// Analyze geocodes both endpoints, fetches candidates, scores them and either
// returns the single route or the safe/fast pair. Collaborator failures are
// replaced with synthetic results; only missing input or an empty candidate
// set fail the call.
func (s *RouteService) Analyze(ctx context.Context, req domain.AnalyzeRequest) (domain.RouteAnalysis, error) {
	trace := &analysisTrace{states: []domain.AnalysisState{domain.StateIdle}}

	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" || destination == "" {
		return domain.RouteAnalysis{States: trace.states}, fmt.Errorf("route: origin and destination are required: %w", domain.ErrInvalidInput)
	}

	var (
		sess   *session.MapSession
		ticket session.Ticket
	)
	if req.SessionID != "" && s.sessions != nil {
		sess = s.sessions.Get(req.SessionID)
		ticket = sess.Begin()
	}

	rng := engine.NewRand(operationSeed(req.Seed, s.seed, s.clock))

	trace.enter(domain.StateGeocoding)
	originCoord, destCoord, err := s.geocodePair(ctx, origin, destination)

	var candidates []domain.RouteCandidate
	if err != nil {
		s.logger.Warn("geocoding failed, using city table", zap.String("origin", origin), zap.String("destination", destination), zap.Error(err))
		s.metrics.Fallback("geocoder")
		trace.fallback("Could not geocode locations, using approximate city coordinates")
		originCoord, destCoord = engine.FallbackEndpoints(origin, destination)
		candidates = s.syntheticCandidates(req.SafeRoute, originCoord, destCoord, origin, destination)
	} else {
		trace.enter(domain.StateRouteFetching)
		candidates = s.fetchCandidates(ctx, req.SafeRoute, originCoord, destCoord, origin, destination)
		if len(candidates) == 0 {
			s.metrics.Fallback("router")
			trace.fallback("Route service unavailable, showing an estimated route")
			candidates = s.syntheticCandidates(req.SafeRoute, originCoord, destCoord, origin, destination)
		}
	}

	if req.SafeRoute {
		if len(candidates) < minComparisonCandidates {
			candidates = append(candidates, engine.SyntheticRoutes(originCoord, destCoord, 3, engine.SyntheticVariants, origin, destination)...)
		}
		candidates = engine.Dedupe(candidates)
	}

	candidates = usableRoutes(candidates)
	if len(candidates) == 0 {
		return domain.RouteAnalysis{States: trace.states, Notices: trace.notices}, fmt.Errorf("route: no candidate from %q to %q: %w", origin, destination, domain.ErrNoValidRoutePoints)
	}

	trace.enter(domain.StateRiskScoring)
	if err := s.scoreAll(ctx, candidates, rng, trace); err != nil {
		return domain.RouteAnalysis{States: trace.states, Notices: trace.notices}, err
	}

	result := domain.RouteAnalysis{ID: uuid.NewString()}
	var (
		layers    []session.Layer
		displayed *domain.RouteCandidate
		mode      string
	)

	if !req.SafeRoute {
		trace.enter(domain.StateSingleDisplay)
		route := candidates[0]
		result.Route = &route
		displayed = &route
		layers = routeLayers("route", &route)
		mode = "single"
	} else {
		trace.enter(domain.StateComparisonSelection)
		sel, err := engine.SelectSafeAndFast(candidates)
		if err != nil {
			return domain.RouteAnalysis{States: trace.states, Notices: trace.notices}, err
		}
		result.Selection = &sel
		result.Candidates = candidates
		displayed = sel.Safe
		layers = append(routeLayers("safe", sel.Safe), routeLayers("fast", sel.Fast)...)
		trace.notices = append(trace.notices, selectionNotice(sel))
		mode = "comparison"
	}

	trace.enter(domain.StateRendered)
	result.States = trace.states
	result.Notices = trace.notices
	result.IsFallback = trace.isFallback

	if sess != nil {
		if err := sess.Commit(ticket, layers); err != nil {
			s.logger.Debug("discarding superseded render", zap.String("session", req.SessionID), zap.Error(err))
		}
	}

	s.metrics.Analysis(mode)
	s.persist(domain.AnalysisLog{
		ID:          result.ID,
		Origin:      origin,
		Destination: destination,
		SafeRoute:   req.SafeRoute,
		AverageRisk: displayed.AverageRisk(),
		Candidates:  len(candidates),
		IsFallback:  result.IsFallback,
		CreatedAt:   s.clock.Now(),
	})

	return result, nil
}

// geocodePair resolves both endpoints concurrently
func (s *RouteService) geocodePair(ctx context.Context, origin, destination string) (domain.Coordinate, domain.Coordinate, error) {
	var (
		o, d domain.Coordinate
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	resolve := func(query string, out *domain.Coordinate) {
		defer wg.Done()
		c, err := s.geocoder.Geocode(ctx, query)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		*out = c
	}

	wg.Add(2)
	go resolve(origin, &o)
	go resolve(destination, &d)
	wg.Wait()

	if len(errs) > 0 {
		return domain.Coordinate{}, domain.Coordinate{}, fmt.Errorf("route: failed to geocode endpoints: %w", errs[0])
	}
	return o, d, nil
}

func (s *RouteService) fetchCandidates(ctx context.Context, comparison bool, o, d domain.Coordinate, originLabel, destLabel string) []domain.RouteCandidate {
	if comparison {
		return s.router.Alternatives(ctx, o, d, originLabel, destLabel)
	}

	routes, err := s.router.Route(ctx, o, d, DefaultRouteOption, originLabel, destLabel)
	if err != nil {
		s.logger.Warn("route fetch failed", zap.Error(err))
		return nil
	}
	return routes[:1]
}

func (s *RouteService) syntheticCandidates(comparison bool, o, d domain.Coordinate, originLabel, destLabel string) []domain.RouteCandidate {
	if comparison {
		return engine.SyntheticRoutes(o, d, 0, 3, originLabel, destLabel)
	}
	return []domain.RouteCandidate{engine.StraightLineRoute(o, d, originLabel, destLabel)}
}

// scoreAll attaches predictions and a locally computed summary to every
// candidate
func (s *RouteService) scoreAll(ctx context.Context, candidates []domain.RouteCandidate, rng *rand.Rand, trace *analysisTrace) error {
	scorers := make([]RiskScorer, 0, 2)
	if s.remote != nil {
		scorers = append(scorers, s.remote)
	}
	scorers = append(scorers, NewSyntheticScorer(engine.NewSynthesizer(rng)))
	chain := NewFallbackScorer(s.metrics, s.logger, scorers...)

	var degraded bool
	for i := range candidates {
		predictions, source, err := chain.ScoreRouteWithSource(ctx, &candidates[i])
		if err != nil {
			return fmt.Errorf("route: failed to score candidate %d: %w", i, err)
		}
		if s.remote != nil && source != s.remote.Name() {
			degraded = true
		}
		engine.Attach(&candidates[i], predictions)
	}

	if degraded {
		trace.notices = append(trace.notices, "Risk backend unavailable, using estimated risk data")
		trace.isFallback = true
	}
	return nil
}

func usableRoutes(routes []domain.RouteCandidate) []domain.RouteCandidate {
	out := routes[:0]
	for _, r := range routes {
		if len(r.Points) >= engine.MinRoutePoints {
			out = append(out, r)
		}
	}
	return out
}

func routeLayers(name string, r *domain.RouteCandidate) []session.Layer {
	avg := r.AverageRisk()
	layers := []session.Layer{{
		Kind:      session.LayerRoute,
		Name:      name,
		Points:    r.Points,
		Color:     engine.RouteRiskProfile.Color(avg),
		RiskScore: avg,
	}}
	if n := len(r.Points); n > 0 {
		layers = append(layers,
			session.Layer{Kind: session.LayerMarker, Name: name + ":origin", Points: r.Points[:1]},
			session.Layer{Kind: session.LayerMarker, Name: name + ":destination", Points: r.Points[n-1:]},
		)
	}
	return layers
}

func selectionNotice(sel domain.RouteSelection) string {
	distance, minutes := "N/A", "N/A"
	if sel.ExtraDistanceKm != nil {
		distance = fmt.Sprintf("%.1f", *sel.ExtraDistanceKm)
	}
	if sel.ExtraTimeMinutes != nil {
		minutes = fmt.Sprintf("%d", *sel.ExtraTimeMinutes)
	}
	return fmt.Sprintf("Safer route found! %.1f%% less risky. Extra distance: %skm, Extra time: %s min",
		sel.SafetyImprovementPct, distance, minutes)
}

// persist saves the analysis log asynchronously (tracked for graceful shutdown)
func (s *RouteService) persist(entry domain.AnalysisLog) {
	if s.repo == nil {
		return
	}
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SaveAnalysisLog(bgCtx, entry); err != nil {
			s.logger.Warn("failed to save analysis log", zap.String("id", entry.ID), zap.Error(err))
		}
	}()
}

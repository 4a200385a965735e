package engine

import (
	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/pkg/utils"
)

// Summarize aggregates predictions under a profile. Every label of the
// profile appears in the distribution; the dominant label prefers the more
// severe one on ties.
func Summarize(predictions []domain.RiskPoint, profile RiskProfile) domain.RouteSummary {
	labels := profile.Labels()
	dist := make(map[domain.RiskLabel]int, len(labels))
	for _, l := range labels {
		dist[l] = 0
	}

	var total, maxRisk float64
	for _, p := range predictions {
		total += p.RiskScore
		if p.RiskScore > maxRisk {
			maxRisk = p.RiskScore
		}
		dist[profile.Classify(p.RiskScore)]++
	}

	dominant := labels[0]
	for _, l := range labels[1:] {
		if len(predictions) == 0 {
			break
		}
		if dist[l] >= dist[dominant] {
			dominant = l
		}
	}

	var avg float64
	if len(predictions) > 0 {
		avg = utils.RoundTo(total/float64(len(predictions)), 2)
	}

	return domain.RouteSummary{
		AverageRisk:       avg,
		MaxRisk:           maxRisk,
		DominantRiskLabel: dominant,
		TotalPoints:       len(predictions),
		RiskDistribution:  dist,
	}
}

// Attach stores predictions on the route and recomputes its summary
func Attach(route *domain.RouteCandidate, predictions []domain.RiskPoint) {
	summary := Summarize(predictions, RouteRiskProfile)
	route.Predictions = predictions
	route.Summary = &summary
}

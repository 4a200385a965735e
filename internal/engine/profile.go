package engine

import (
	"math"

	"github.com/morpheusmaps/backend/internal/domain"
)

// TimeTable maps hour-of-day ranges to risk multipliers
type TimeTable struct {
	MorningRush float64 // 07-10
	EveningRush float64 // 17-20
	Night       float64 // 22-04
	Midday      float64 // 11-16
	Normal      float64
}

// Multiplier returns the factor for an hour. Hours outside 0-23 wrap.
func (t TimeTable) Multiplier(hour int) float64 {
	hour = ((hour % 24) + 24) % 24

	switch {
	case hour >= 7 && hour <= 10:
		return t.MorningRush
	case hour >= 17 && hour <= 20:
		return t.EveningRush
	case hour >= 22 || hour <= 4:
		return t.Night
	case hour >= 11 && hour <= 16:
		return t.Midday
	default:
		return t.Normal
	}
}

// RiskBand is one classification bucket: scores below Upper (and at or above
// the previous band's Upper) carry Label.
type RiskBand struct {
	Upper float64
	Label domain.RiskLabel
	Color string
}

// RiskProfile bundles the threshold and time tables used by one mode
type RiskProfile struct {
	Name  string
	Time  TimeTable
	Bands []RiskBand
}

// HeatmapRiskProfile drives the grid heatmap
var HeatmapRiskProfile = RiskProfile{
	Name: "heatmap",
	Time: TimeTable{MorningRush: 1.4, EveningRush: 1.5, Night: 1.2, Midday: 0.8, Normal: 1.0},
	Bands: []RiskBand{
		{Upper: 0.2, Label: domain.RiskVeryLow, Color: "navy"},
		{Upper: 0.4, Label: domain.RiskLow, Color: "blue"},
		{Upper: 0.6, Label: domain.RiskModerate, Color: "cyan"},
		{Upper: 0.8, Label: domain.RiskHigh, Color: "lime"},
		{Upper: 0.9, Label: domain.RiskVeryHigh, Color: "yellow"},
		{Upper: math.Inf(1), Label: domain.RiskSevere, Color: "red"},
	},
}

// RouteRiskProfile drives route predictions, summaries and the hotspot catalog
var RouteRiskProfile = RiskProfile{
	Name: "route",
	Time: TimeTable{MorningRush: 1.3, EveningRush: 1.4, Night: 1.2, Midday: 0.8, Normal: 1.0},
	Bands: []RiskBand{
		{Upper: 0.3, Label: domain.RiskLow, Color: "#2ecc71"},
		{Upper: 0.6, Label: domain.RiskModerate, Color: "#f39c12"},
		{Upper: 0.8, Label: domain.RiskHigh, Color: "#e74c3c"},
		{Upper: math.Inf(1), Label: domain.RiskSevere, Color: "#c0392b"},
	},
}

func (p RiskProfile) band(score float64) RiskBand {
	for _, b := range p.Bands {
		if score < b.Upper {
			return b
		}
	}
	return p.Bands[len(p.Bands)-1]
}

// Classify returns the label for a score
func (p RiskProfile) Classify(score float64) domain.RiskLabel {
	return p.band(score).Label
}

// Color returns the display color key for a score
func (p RiskProfile) Color(score float64) string {
	return p.band(score).Color
}

// Labels lists the profile's labels in ascending order
func (p RiskProfile) Labels() []domain.RiskLabel {
	labels := make([]domain.RiskLabel, len(p.Bands))
	for i, b := range p.Bands {
		labels[i] = b.Label
	}
	return labels
}

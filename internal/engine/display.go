package engine

import (
	"fmt"
	"math"
)

// RiskPercent is the score as a rounded whole percentage
func RiskPercent(score float64) int {
	return int(math.Round(score * 100))
}

// FormatPercent renders a score like "57%"
func FormatPercent(score float64) string {
	return fmt.Sprintf("%d%%", RiskPercent(score))
}

// Recommendation returns the travel advice for a point score
func Recommendation(score float64) string {
	switch {
	case score < 0.3:
		return "Safe to travel. Normal precautions advised."
	case score < 0.5:
		return "Exercise caution. Avoid peak hours if possible."
	case score < 0.7:
		return "High caution advised. Consider alternate routes."
	case score < 0.8:
		return "Travel not recommended. High accident risk."
	default:
		return "Extreme caution required. Avoid this area if possible."
	}
}

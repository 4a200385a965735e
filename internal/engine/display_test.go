package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "57%", FormatPercent(0.57))
	assert.Equal(t, "5%", FormatPercent(0.05))
	assert.Equal(t, 95, RiskPercent(0.95))
}

func TestRecommendation(t *testing.T) {
	assert.Equal(t, "Safe to travel. Normal precautions advised.", Recommendation(0.1))
	assert.Equal(t, "Exercise caution. Avoid peak hours if possible.", Recommendation(0.3))
	assert.Equal(t, "High caution advised. Consider alternate routes.", Recommendation(0.5))
	assert.Equal(t, "Travel not recommended. High accident risk.", Recommendation(0.7))
	assert.Equal(t, "Extreme caution required. Avoid this area if possible.", Recommendation(0.8))
}

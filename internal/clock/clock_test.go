package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_Now(t *testing.T) {
	before := time.Now()
	got := RealClock{}.Now()

	assert.False(t, got.Before(before))
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	c := NewMockClock(start)

	assert.Equal(t, start, c.Now())

	c.Advance(10 * time.Hour)
	assert.Equal(t, 18, c.Now().Hour())

	c.Set(start)
	assert.Equal(t, 8, c.Now().Hour())
}

// Package clock abstracts the wall clock so hour-dependent risk synthesis can
// be tested deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

// RealClock reads the system time
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a controllable, thread-safe clock for tests
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
}

// NewMockClock creates a MockClock set to t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mock clock's current time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// Set changes the mock clock's current time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Advance moves the mock clock by d
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

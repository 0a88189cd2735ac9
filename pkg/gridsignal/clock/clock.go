// Package clock abstracts wall-clock time so token expiry, cache freshness
// and window-direction checks can be driven deterministically in tests.
package clock

import "time"

// Clock provides the time operations the engine depends on
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock reads the system clock
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock is a settable clock for tests
type MockClock struct {
	now time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (m *MockClock) Now() time.Time {
	return m.now
}

func (m *MockClock) Since(t time.Time) time.Duration {
	return m.now.Sub(t)
}

func (m *MockClock) Set(t time.Time) {
	m.now = t
}

// Advance moves the mock clock forward by d
func (m *MockClock) Advance(d time.Duration) {
	m.now = m.now.Add(d)
}

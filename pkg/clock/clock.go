// Package clock supplies the time written into journal entries for time parameters.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

// Real reads the system clock
type Real struct{}

// Now returns the current system time
func (Real) Now() time.Time { return time.Now() }

// Mock is a controllable clock for tests
type Mock struct {
	mu      sync.Mutex
	current time.Time
}

// NewMock creates a Mock set to t, or to 2024-01-01 UTC when t is zero
func NewMock(t time.Time) *Mock {
	if t.IsZero() {
		t = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Mock{current: t}
}

// Now returns the mock's current time
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Set moves the mock to an absolute time
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
}

// Advance moves the mock forward by d
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.current = m.current.Add(d)
	m.mu.Unlock()
}

// Millis reads c once and returns milliseconds since the Unix epoch
func Millis(c Clock) int64 {
	return c.Now().UnixMilli()
}

// FromMillis converts epoch milliseconds back to a UTC time
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

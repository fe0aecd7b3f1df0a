// Package clockutil adapts github.com/benbjohnson/clock to the
// internal/hal.Clock capability: a monotonic millisecond counter for
// production use, and a controllable mock for hosting-layer tests that
// need to advance time without sleeping (the core's own tests drive time
// directly via plain uint64 arguments and don't need this).
package clockutil

import (
	"time"

	"github.com/benbjohnson/clock"
)

func msToDuration(ms uint64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// System wraps clock.Clock (the real wall-clock implementation) and
// exposes its monotonic time as milliseconds since the wrapper was
// created, satisfying hal.Clock.
type System struct {
	inner clock.Clock
	start time.Time
}

// NewSystem returns a Clock backed by the real system clock, with its
// epoch pinned to the moment of construction.
func NewSystem() *System {
	c := clock.New()
	return &System{inner: c, start: c.Now()}
}

// NowMS implements hal.Clock. The elapsed time is taken from the monotonic
// clock reading, so wall-clock adjustments do not move it.
func (s *System) NowMS() uint64 {
	elapsed := s.inner.Now().Sub(s.start).Milliseconds()
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed)
}

// Mock wraps clock.Mock for deterministic hosting-layer tests (e.g. the
// daemon tick loop) that want to advance time without sleeping.
type Mock struct {
	inner *clock.Mock
	epoch int64
}

// NewMock returns a Mock clock pinned to epoch zero.
func NewMock() *Mock {
	m := clock.NewMock()
	return &Mock{inner: m, epoch: m.Now().UnixMilli()}
}

// NowMS implements hal.Clock.
func (m *Mock) NowMS() uint64 {
	elapsed := m.inner.Now().UnixMilli() - m.epoch
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed)
}

// Advance moves the mock clock forward by durationMS milliseconds,
// firing any timers/tickers scheduled in that window.
func (m *Mock) Advance(durationMS uint64) {
	m.inner.Add(msToDuration(durationMS))
}

// Underlying exposes the wrapped clock.Mock for callers that need to hand
// a clock.Clock to a third-party component (e.g. a rate limiter).
func (m *Mock) Underlying() *clock.Mock {
	return m.inner
}

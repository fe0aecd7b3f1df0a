package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trainctl/throttle/internal/strategy"
)

const epsilon = 1e-6

func TestImmediate(t *testing.T) {
	s := strategy.NewImmediate()
	assert.Equal(t, uint64(0), s.DurationMS())
	assert.InDelta(t, 1.0, s.Interpolate(0), epsilon)
	assert.Equal(t, strategy.LockNone, s.Lock())
	assert.Equal(t, strategy.InterruptReplace, s.OnInterrupt())
}

func TestLinearInterpolatesLinearly(t *testing.T) {
	s := strategy.NewLinear(1000)
	assert.InDelta(t, 0.0, s.Interpolate(0), epsilon)
	assert.InDelta(t, 0.5, s.Interpolate(500), epsilon)
	assert.InDelta(t, 1.0, s.Interpolate(1000), epsilon)
	assert.InDelta(t, 1.0, s.Interpolate(1500), epsilon)
}

func TestLinearBeforeZeroTreatedAsZero(t *testing.T) {
	s := strategy.NewLinear(1000)
	// elapsed can't be negative (unsigned), but 0 must map to exactly 0.
	assert.InDelta(t, 0.0, s.Interpolate(0), epsilon)
}

func TestEaseInOutBoundaryValues(t *testing.T) {
	s := strategy.NewEaseInOut(1000)
	assert.InDelta(t, 0.5, s.Interpolate(500), epsilon)
	assert.InDelta(t, 0.15625, s.Interpolate(250), epsilon)
	assert.InDelta(t, 0.84375, s.Interpolate(750), epsilon)
	assert.InDelta(t, 0.0, s.Interpolate(0), epsilon)
	assert.InDelta(t, 1.0, s.Interpolate(1000), epsilon)
}

func TestEaseInOutMonotone(t *testing.T) {
	s := strategy.NewEaseInOut(1000)
	prev := -1.0
	for e := uint64(0); e <= 1000; e += 10 {
		v := s.Interpolate(e)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestDepartureIsHardLockedReject(t *testing.T) {
	d := strategy.Departure(3000)
	assert.Equal(t, strategy.LockHard, d.Lock())
	assert.Equal(t, strategy.InterruptReject, d.OnInterrupt())
	assert.Equal(t, strategy.RoleDeparture, d.Role)
}

func TestArrivalIsSourceLockedQueue(t *testing.T) {
	a := strategy.Arrival(2000)
	assert.Equal(t, strategy.LockSource, a.Lock())
	assert.Equal(t, strategy.InterruptQueue, a.OnInterrupt())
	assert.Equal(t, strategy.RoleArrival, a.Role)
}

func TestMomentumMonotoneAndEndpoints(t *testing.T) {
	for _, stiffness := range []float64{0, 0.15, 0.5, 0.85, 1} {
		m := strategy.NewMomentum(1000, stiffness)
		assert.InDelta(t, 0.0, m.Interpolate(0), epsilon)
		assert.InDelta(t, 1.0, m.Interpolate(1000), epsilon)
		assert.InDelta(t, 1.0, m.Interpolate(5000), epsilon)

		prev := -1.0
		for e := uint64(0); e <= 1000; e += 25 {
			v := m.Interpolate(e)
			assert.GreaterOrEqual(t, v, prev-epsilon)
			prev = v
		}
	}
}

func TestMomentumStiffnessClamped(t *testing.T) {
	low := strategy.NewMomentum(1000, -5)
	high := strategy.NewMomentum(1000, 5)
	assert.Equal(t, 0.0, low.Stiffness)
	assert.Equal(t, 1.0, high.Stiffness)
}

func TestGentleAndResponsiveAreUnlocked(t *testing.T) {
	g := strategy.Gentle(500)
	r := strategy.Responsive(500)
	assert.Equal(t, strategy.LockNone, g.Lock())
	assert.Equal(t, strategy.LockNone, r.Lock())
	assert.Less(t, g.Stiffness, r.Stiffness)
}

func TestValueInterpolatesBetweenStartAndTarget(t *testing.T) {
	s := strategy.NewLinear(1000)
	got := strategy.Value(s, -0.5, 0.5, 500)
	assert.InDelta(t, 0.0, got, epsilon)
}

func TestZeroDurationStrategyCompletesImmediately(t *testing.T) {
	s := strategy.NewLinear(0)
	assert.InDelta(t, 1.0, s.Interpolate(0), epsilon)
}

package throttle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainctl/throttle/internal/command"
	"github.com/trainctl/throttle/internal/hal/mock"
	"github.com/trainctl/throttle/internal/strategy"
	"github.com/trainctl/throttle/internal/throttle"
)

func TestScenarioS1PhysicalImmediateThenLockout(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetSpeed(0.5, strategy.NewImmediate()), command.Physical, 0)
	require.True(t, res.Accepted)

	require.NoError(t, c.Update(0))
	st := c.State(0)
	assert.InDelta(t, 0.5, st.CurrentSpeed, 1e-9)
	assert.Equal(t, command.Forward, st.Direction)

	rejected := c.ApplyCommand(command.SetSpeed(0.1, strategy.NewImmediate()), command.Mqtt, 1000)
	assert.False(t, rejected.Accepted)
}

func TestScenarioS2LinearRampTiming(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetSpeed(0.8, strategy.NewLinear(1000)), command.Mqtt, 0)
	require.True(t, res.Accepted)

	assert.InDelta(t, 0.4, c.State(500).CurrentSpeed, 1e-6)
	assert.InDelta(t, 0.8, c.State(1000).CurrentSpeed, 1e-6)

	require.NoError(t, c.Update(1500))
	st := c.State(1500)
	assert.InDelta(t, 0.8, st.CurrentSpeed, 1e-6)
	assert.False(t, st.IsTransitioning)
}

func TestScenarioS3HardLockedDepartureThenEmergency(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetSpeed(0.8, strategy.Departure(3000)), command.Mqtt, 0)
	require.True(t, res.Accepted)

	before := c.State(1000)
	rejected := c.ApplyCommand(command.SetSpeed(0.2, strategy.NewLinear(500)), command.WebApi, 1000)
	assert.False(t, rejected.Accepted)
	assert.Equal(t, throttle.RejectLockedTransition, rejected.Reject)

	after := c.State(1000)
	assert.Equal(t, before.CurrentSpeed, after.CurrentSpeed)

	res = c.ApplyCommand(command.EStop(), command.WebApi, 1000)
	assert.True(t, res.Accepted)

	require.NoError(t, c.Update(1001))
	assert.Equal(t, 0.0, c.State(1001).CurrentSpeed)
}

func TestScenarioS4EqualPriorityReplacesArrival(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetSpeed(1.0, strategy.Arrival(4000)), command.Physical, 0)
	require.True(t, res.Accepted)

	res = c.ApplyCommand(command.SetSpeed(0.0, strategy.NewImmediate()), command.Physical, 500)
	assert.True(t, res.Accepted)

	require.NoError(t, c.Update(500))
	assert.Equal(t, 0.0, c.State(500).CurrentSpeed)
}

func TestScenarioS4LowerPriorityQueuesUntilArrivalCompletes(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetSpeed(1.0, strategy.Arrival(4000)), command.Physical, 0)
	require.True(t, res.Accepted)

	res = c.ApplyCommand(command.SetSpeed(0.5, strategy.NewLinear(500)), command.Mqtt, 500)
	assert.True(t, res.Accepted)

	// Still owned by the arrival transition; the queued command hasn't installed yet.
	assert.InDelta(t, 1.0, c.State(3999).TargetSpeed, 1e-9)

	require.NoError(t, c.Update(4000))
	st := c.State(4000)
	assert.True(t, st.IsTransitioning)
	assert.InDelta(t, 0.5, st.TargetSpeed, 1e-9)
}

func TestScenarioS4QueueFullRejects(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetSpeed(1.0, strategy.Arrival(4000)), command.Physical, 0)
	require.True(t, res.Accepted)

	// After the Physical lockout (3000 ms) has lapsed, while the arrival still runs.
	for i := 0; i < 4; i++ {
		res = c.ApplyCommand(command.SetSpeed(0.1, strategy.NewLinear(100)), command.Mqtt, 3500)
		require.True(t, res.Accepted)
	}

	res = c.ApplyCommand(command.SetSpeed(0.9, strategy.NewLinear(100)), command.Mqtt, 3500)
	assert.False(t, res.Accepted)
	assert.Equal(t, throttle.RejectQueueFull, res.Reject)
}

func TestScenarioS5MaxSpeedRetargetsCurrentSpeed(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetSpeed(0.8, strategy.NewImmediate()), command.Mqtt, 0)
	require.True(t, res.Accepted)
	require.NoError(t, c.Update(0))

	res = c.ApplyCommand(command.SetMaxSpeed(0.5), command.WebApi, 0)
	assert.True(t, res.Accepted)

	require.NoError(t, c.Update(0))
	assert.InDelta(t, 0.5, c.State(0).CurrentSpeed, 1e-9)
	assert.Equal(t, 0.5, motor.Speed)
}

func TestSetMaxSpeedClampsDuringHardLockedDeparture(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetSpeed(0.8, strategy.Departure(3000)), command.Mqtt, 0)
	require.True(t, res.Accepted)

	res = c.ApplyCommand(command.SetMaxSpeed(0.5), command.WebApi, 1000)
	assert.True(t, res.Accepted)

	require.NoError(t, c.Update(1000))
	st := c.State(1000)
	assert.InDelta(t, 0.5, st.CurrentSpeed, 1e-9)
	assert.Equal(t, 0.5, motor.Speed)

	// The ceiling holds on later ticks too: nothing revives the cancelled departure.
	require.NoError(t, c.Update(2000))
	assert.InDelta(t, 0.5, c.State(2000).CurrentSpeed, 1e-9)
}

func TestQueuedFollowUpDoesNotRefreshLockout(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	// A Fault-owned arrival: Physical is the only lockout-installing source
	// that ranks below its owner, so a Physical follow-up queues rather than
	// replacing it (an equal-priority Physical owner would be replaced).
	res := c.ApplyCommand(command.SetSpeed(1.0, strategy.Arrival(4000)), command.Fault, 0)
	require.True(t, res.Accepted)
	firstLockoutMS := c.State(0).LockoutRemainingMS
	require.Greater(t, firstLockoutMS, uint64(0))

	// After the Fault lockout has lapsed at 3000, while the arrival still runs.
	res = c.ApplyCommand(command.SetSpeed(0.5, strategy.NewLinear(500)), command.Physical, 3500)
	assert.True(t, res.Accepted)

	// Only queued, not installed: the lockout window is exactly what the
	// first command set (now expired), unextended by the second.
	assert.Equal(t, uint64(0), c.State(3500).LockoutRemainingMS)
}

func TestEmergencyClearsLockoutAndZeroesSpeed(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	c.ApplyCommand(command.SetSpeed(0.8, strategy.NewImmediate()), command.Physical, 0)
	require.NoError(t, c.Update(0))

	res := c.ApplyCommand(command.EStop(), command.WebApi, 100)
	assert.True(t, res.Accepted)

	st := c.State(100)
	assert.Equal(t, uint64(0), st.LockoutRemainingMS)
	assert.Equal(t, command.Stopped, st.Direction)

	// The lockout no longer blocks a low-priority source.
	res = c.ApplyCommand(command.SetSpeed(0.1, strategy.NewImmediate()), command.Mqtt, 101)
	assert.True(t, res.Accepted)
}

func TestLockoutBlocksLowerPriorityAfterPhysicalCommand(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetSpeed(0.3, strategy.NewImmediate()), command.Physical, 0)
	require.True(t, res.Accepted)

	res = c.ApplyCommand(command.SetSpeed(0.9, strategy.NewImmediate()), command.Mqtt, 100)
	assert.False(t, res.Accepted)
	assert.Equal(t, throttle.RejectLockout, res.Reject)
	assert.Greater(t, res.LockoutMS, uint64(0))
}

func TestSetSpeedClampsOutOfRangeTarget(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetSpeed(1.5, strategy.NewImmediate()), command.Mqtt, 0)
	assert.True(t, res.Accepted)
	assert.True(t, res.ClampedToRange)

	require.NoError(t, c.Update(0))
	assert.Equal(t, 1.0, c.State(0).CurrentSpeed)
}

func TestSetDirectionMapsToSignedSpeedTarget(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)

	res := c.ApplyCommand(command.SetDirection(command.Reverse, strategy.NewImmediate()), command.Mqtt, 0)
	require.True(t, res.Accepted)

	require.NoError(t, c.Update(0))
	assert.Equal(t, -1.0, c.State(0).CurrentSpeed)
	assert.Equal(t, command.Reverse, c.State(0).Direction)
}

func TestUpdateTwiceWithSameNowIsIdempotent(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)
	c.ApplyCommand(command.SetSpeed(0.8, strategy.NewLinear(1000)), command.Mqtt, 0)

	require.NoError(t, c.Update(500))
	first := c.State(500)
	require.NoError(t, c.Update(500))
	second := c.State(500)

	assert.Equal(t, first, second)
}

func TestSetMaxSpeedAtCurrentLimitLeavesStateUnchanged(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)
	before := c.State(0)

	res := c.ApplyCommand(command.SetMaxSpeed(1.0), command.WebApi, 0)
	assert.True(t, res.Accepted)
	assert.False(t, res.ClampedToRange)

	after := c.State(0)
	assert.Equal(t, before, after)
}

func TestMotorErrorPropagatesButNextApplyCommandStillRuns(t *testing.T) {
	motor := mock.NewMotor()
	c := throttle.New(motor)
	c.ApplyCommand(command.SetSpeed(0.5, strategy.NewImmediate()), command.Mqtt, 0)

	motor.FailWith("bridge fault")
	err := c.Update(0)
	assert.Error(t, err)

	res := c.ApplyCommand(command.SetSpeed(0.2, strategy.NewImmediate()), command.Mqtt, 1)
	assert.True(t, res.Accepted)
}

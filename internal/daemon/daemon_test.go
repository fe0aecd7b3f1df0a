package daemon_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainctl/throttle/internal/command"
	"github.com/trainctl/throttle/internal/daemon"
	"github.com/trainctl/throttle/internal/hal/clockutil"
	"github.com/trainctl/throttle/internal/hal/mock"
	"github.com/trainctl/throttle/internal/strategy"
	"github.com/trainctl/throttle/internal/throttle"
)

func TestTickWithNoFaultUpdatesMotor(t *testing.T) {
	motor := mock.NewMotor()
	clk := clockutil.NewMock()
	faults := mock.NewFault()
	controller := throttle.New(motor)

	controller.ApplyCommand(command.SetSpeed(0.5, strategy.NewImmediate()), command.Physical, clk.NowMS())

	l := daemon.New(controller, clk, faults, 50*time.Millisecond)
	l.Tick()

	assert.Equal(t, 0.5, motor.Speed)
}

func TestTickWithShortCircuitSynthesizesEStop(t *testing.T) {
	motor := mock.NewMotor()
	clk := clockutil.NewMock()
	faults := mock.NewFault()
	controller := throttle.New(motor)

	controller.ApplyCommand(command.SetSpeed(0.8, strategy.NewImmediate()), command.Physical, clk.NowMS())
	faults.TriggerShortCircuit()

	l := daemon.New(controller, clk, faults, 50*time.Millisecond)
	l.Tick()

	assert.Equal(t, 0.0, motor.Speed)
}

func TestOnTickCallbackReceivesState(t *testing.T) {
	motor := mock.NewMotor()
	clk := clockutil.NewMock()
	faults := mock.NewFault()
	controller := throttle.New(motor)

	var gotState throttle.State
	var calls int
	l := daemon.New(controller, clk, faults, 10*time.Millisecond, daemon.WithOnTick(func(now uint64, st throttle.State) {
		calls++
		gotState = st
	}))

	l.Tick()

	require.Equal(t, 1, calls)
	assert.Equal(t, command.Stopped, gotState.Direction)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	motor := mock.NewMotor()
	clk := clockutil.NewMock()
	faults := mock.NewFault()
	controller := throttle.New(motor)

	l := daemon.New(controller, clk, faults, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

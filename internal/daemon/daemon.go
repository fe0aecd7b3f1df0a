// Package daemon runs the throttle core's tick loop: poll the fault
// detector, synthesize an emergency stop on a positive reading, tick the
// controller, and publish the resulting state. It is the host program's
// only direct caller of throttle.Controller.Update.
//
// Grounded on original_source/src/services/physical.rs's poll-then-submit
// pattern and spec.md §9's "Fault integration" (the host polls the
// detector and submits a synthesized EStop through the same apply_command
// entry point — never a special code path inside the core).
package daemon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trainctl/throttle/internal/command"
	"github.com/trainctl/throttle/internal/hal"
	"github.com/trainctl/throttle/internal/log"
	"github.com/trainctl/throttle/internal/metrics"
	"github.com/trainctl/throttle/internal/throttle"
)

// Loop owns the tick cadence: poll fault detector, apply synthesized
// faults, tick the controller, publish state.
type Loop struct {
	controller *throttle.Controller
	clock      hal.Clock
	faults     hal.FaultDetector
	interval   time.Duration
	logger     zerolog.Logger
	onTick     func(now uint64, st throttle.State)
}

// Option customizes a Loop at construction time.
type Option func(*Loop)

// WithLogger overrides the loop's logger (defaults to log.Base()).
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithOnTick registers a callback invoked with the post-tick state after
// every iteration — the daemon's hook for publishing to the message bus
// without this package depending on internal/bus directly.
func WithOnTick(fn func(now uint64, st throttle.State)) Option {
	return func(l *Loop) { l.onTick = fn }
}

// New returns a Loop driving controller at the given tick interval, using
// clock for timestamps and faults for per-tick fault polling.
func New(controller *throttle.Controller, clock hal.Clock, faults hal.FaultDetector, interval time.Duration, opts ...Option) *Loop {
	l := &Loop{
		controller: controller,
		clock:      clock,
		faults:     faults,
		interval:   interval,
		logger:     log.Base(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run blocks, ticking at the configured interval until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.tick()
		}
	}
}

// tick runs exactly one iteration: fault poll, controller update, publish
// hook. Exported as a method (rather than inlined in Run) so tests can
// drive individual ticks against a mock clock without a real ticker.
func (l *Loop) Tick() {
	l.tick()
}

func (l *Loop) tick() {
	now := l.clock.NowMS()

	if l.faults.IsShortCircuit() || l.faults.IsOvercurrent() {
		commandID := uuid.New().String()
		res := l.controller.ApplyCommand(command.EStop(), command.Fault, now)
		logger := log.WithCommand(l.logger, commandID)
		logger.Warn().
			Str(log.FieldSource, command.Fault.String()).
			Bool("accepted", res.Accepted).
			Msg("fault detected, synthesized e_stop")
		metrics.RecordCommand(command.Fault.String(), "accepted")
	}

	if err := l.controller.Update(now); err != nil {
		l.logger.Error().Err(err).Msg("motor update failed")
		metrics.RecordMotorError()
		return
	}

	st := l.controller.State(now)
	metrics.RecordSpeed(st.CurrentSpeed)
	metrics.RecordLockoutRemaining(st.LockoutRemainingMS)

	if completed, ok := l.controller.LastCompleted(); ok {
		metrics.RecordTransitionCompleted(completed.StrategyKind)
	}

	if l.onTick != nil {
		l.onTick(now, st)
	}
}

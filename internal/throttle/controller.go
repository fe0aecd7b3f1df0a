// Package throttle implements the top-level throttle controller: the
// object that owns the motor handle, the transition manager, and the
// source lockout, and exposes the command-reconciliation entry points the
// hosting layer drives.
//
// Grounded on original_source/src/throttle.rs's ThrottleController.
package throttle

import (
	"math"

	"github.com/trainctl/throttle/internal/command"
	"github.com/trainctl/throttle/internal/hal"
	"github.com/trainctl/throttle/internal/lockout"
	"github.com/trainctl/throttle/internal/strategy"
	"github.com/trainctl/throttle/internal/transition"
)

// RejectKind enumerates why apply_command refused a command, per spec.md §7.
type RejectKind int

const (
	RejectNone RejectKind = iota
	RejectLockout
	RejectLockedTransition
	RejectQueueFull
)

func (k RejectKind) String() string {
	switch k {
	case RejectLockout:
		return "lockout"
	case RejectLockedTransition:
		return "locked_transition"
	case RejectQueueFull:
		return "queue_full"
	default:
		return "none"
	}
}

// Result is returned by ApplyCommand.
type Result struct {
	Accepted       bool
	Reject         RejectKind
	LockoutMS      uint64        // valid when Reject == RejectLockout
	Lock           strategy.Lock // valid when Reject == RejectLockedTransition
	ClampedToRange bool          // true if Accepted but the target was clamped
}

// State is a read-only snapshot of the controller, per spec.md §3.
type State struct {
	CurrentSpeed       float64
	TargetSpeed        float64
	Direction          command.Direction
	IsTransitioning    bool
	TransitionProgress float64
	MaxSpeed           float64
	LockoutRemainingMS uint64
	CurrentSource      command.Source
}

// Controller owns the motor handle, the transition manager, and the
// source lockout. It is single-owner: the hosting layer is responsible
// for serializing calls into it (spec.md §5).
type Controller struct {
	motor      hal.MotorController
	manager    *transition.Manager
	lockout    *lockout.Arbiter
	maxSpeed   float64
	direction  command.Direction
	lastSource command.Source
	lockoutMS  uint64

	lastCompleted *transition.Completed
}

// New returns a controller driving motor, with max speed 1.0 and no active
// transition or lockout.
func New(motor hal.MotorController) *Controller {
	return &Controller{
		motor:     motor,
		manager:   transition.New(0),
		lockout:   lockout.New(),
		maxSpeed:  1.0,
		direction: command.Stopped,
		lockoutMS: lockout.DefaultDurationMS,
	}
}

// SetLockoutDurationMS overrides the default lockout window installed on
// an accepted Physical-or-higher command.
func (c *Controller) SetLockoutDurationMS(ms uint64) {
	c.lockoutMS = ms
}

// ApplyCommand reconciles cmd, submitted by source at now, against the
// lockout and transition state, per spec.md §4.5.
func (c *Controller) ApplyCommand(cmd command.ThrottleCommand, source command.Source, now uint64) Result {
	pc := command.New(cmd, source, now)
	effectiveSource := pc.Source

	if effectiveSource == command.Emergency {
		c.lockout.Clear()
		c.manager.Cancel()
		c.manager.Install(0.0, strategy.NewImmediate(), command.Emergency, now)
		if err := c.motor.SetSpeed(0.0); err != nil {
			_ = err // motor errors surface through Update; apply_command never masks but also never retries here
		}
		_ = c.motor.SetDirection(command.Stopped)
		c.direction = command.Stopped
		c.lastSource = command.Emergency
		return Result{Accepted: true}
	}

	if c.lockout.IsBlocked(effectiveSource, now) {
		return Result{Accepted: false, Reject: RejectLockout, LockoutMS: c.lockout.Remaining(now)}
	}

	switch pc.Command.Kind {
	case command.KindSetSpeed:
		return c.applySetSpeed(pc.Command.SpeedTarget, pc.Command.Strategy, effectiveSource, now)
	case command.KindSetDirection:
		return c.applySetDirection(pc.Command.Direction, pc.Command.Strategy, effectiveSource, now)
	case command.KindSetMaxSpeed:
		return c.applySetMaxSpeed(pc.Command.MaxSpeedLimit, effectiveSource, now)
	default:
		return Result{Accepted: false, Reject: RejectLockedTransition}
	}
}

func (c *Controller) applySetSpeed(target float64, strat strategy.Strategy, source command.Source, now uint64) Result {
	clamped := clamp(target, -c.maxSpeed, c.maxSpeed)
	wasClamped := clamped != target

	res := c.manager.Install(clamped, strat, source, now)
	if !res.Accepted {
		return translateRejection(res)
	}

	// Only a transition that actually starts or replaces the active one
	// refreshes the lockout; a merely-queued follow-up hasn't taken control
	// of the motor yet and shouldn't extend the window other sources are
	// locked out of (see DESIGN.md's Open Question decision on this).
	if source.AtLeastPhysical() && res.Outcome != transition.OutcomeQueued {
		c.lockout.Install(source, now, c.lockoutMS)
	}
	c.lastSource = source
	return Result{Accepted: true, ClampedToRange: wasClamped}
}

func (c *Controller) applySetDirection(direction command.Direction, strat strategy.Strategy, source command.Source, now uint64) Result {
	var target float64
	switch direction {
	case command.Forward:
		target = c.maxSpeed
	case command.Reverse:
		target = -c.maxSpeed
	default:
		target = 0
	}
	return c.applySetSpeed(target, strat, source, now)
}

func (c *Controller) applySetMaxSpeed(limit float64, source command.Source, now uint64) Result {
	clamped := clamp(limit, 0, 1)
	wasClamped := clamped != limit
	c.maxSpeed = clamped

	if target, active := c.manager.Target(); active && math.Abs(target) > c.maxSpeed {
		retarget := clamp(target, -c.maxSpeed, c.maxSpeed)
		c.forceRetarget(retarget, source, now)
	} else if !active {
		current := c.manager.CurrentSpeed(now)
		if math.Abs(current) > c.maxSpeed {
			retarget := clamp(current, -c.maxSpeed, c.maxSpeed)
			c.forceRetarget(retarget, source, now)
		}
	}

	return Result{Accepted: true, ClampedToRange: wasClamped}
}

// forceRetarget installs an immediate transition to target unconditionally,
// discarding whatever is active first. SetMaxSpeed's retarget is an
// unconditional safety clamp (spec.md §4.5), not a command subject to the
// lock dispatch table: a Hard-locked transition in flight must not be
// allowed to keep ramping past the new ceiling just because it would reject
// an ordinary Install. Cancel first so the manager's nil-active branch
// always accepts, the same bypass the Emergency path above uses.
func (c *Controller) forceRetarget(target float64, source command.Source, now uint64) {
	c.manager.Cancel()
	c.manager.Install(target, strategy.NewImmediate(), source, now)
}

// Cancel discards the active transition and any queued follow-ups, freezing
// the committed speed at its last ticked value. The lockout, if any, is left
// untouched: cancel is a transition-layer operation, not a priority override.
func (c *Controller) Cancel() {
	c.manager.Cancel()
}

// Update ticks the transition manager, pushes the resulting speed and
// direction to the motor, and reconciles the committed direction. It is
// the core's only progression point (spec.md GLOSSARY "Tick").
func (c *Controller) Update(now uint64) error {
	c.lastCompleted = c.manager.Tick(now)
	speed := c.manager.CurrentSpeed(now)

	if err := c.motor.SetSpeed(speed); err != nil {
		return err
	}

	dir := command.DirectionFromSpeed(speed)
	if dir != c.direction {
		if err := c.motor.SetDirection(dir); err != nil {
			return err
		}
		c.direction = dir
	}
	return nil
}

// LastCompleted returns the transition that finished on the most recent
// Update call, if any. The hosting layer uses this to record completion
// metrics by strategy kind without the core importing a metrics library.
func (c *Controller) LastCompleted() (transition.Completed, bool) {
	if c.lastCompleted == nil {
		return transition.Completed{}, false
	}
	return *c.lastCompleted, true
}

// State returns a read-only snapshot at now without mutating anything.
func (c *Controller) State(now uint64) State {
	target := c.manager.CurrentSpeed(now)
	if t, active := c.manager.Target(); active {
		target = t
	}

	source := c.lastSource
	if lock := c.manager.LockStatus(); lock != nil {
		source = lock.Source
	}

	return State{
		CurrentSpeed:       c.manager.CurrentSpeed(now),
		TargetSpeed:        target,
		Direction:          c.direction,
		IsTransitioning:    c.manager.IsActive(),
		TransitionProgress: c.manager.Progress(now),
		MaxSpeed:           c.maxSpeed,
		LockoutRemainingMS: c.lockout.Remaining(now),
		CurrentSource:      source,
	}
}

func translateRejection(res transition.Result) Result {
	switch res.RejectReason {
	case transition.RejectQueueFull:
		return Result{Accepted: false, Reject: RejectQueueFull}
	default:
		return Result{Accepted: false, Reject: RejectLockedTransition, Lock: res.Lock}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

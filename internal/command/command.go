package command

import "github.com/trainctl/throttle/internal/strategy"

// Direction is the external, human-facing drive direction. The signed speed
// carried in ThrottleState is the authoritative numeric drive; Direction is
// derived from its sign for display purposes (spec.md §3).
type Direction int

const (
	Stopped Direction = iota
	Forward
	Reverse
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "stopped"
	}
}

// DirectionFromSpeed derives a Direction from a signed speed, per spec.md §4.5:
// sign = 0 => Stopped.
func DirectionFromSpeed(speed float64) Direction {
	switch {
	case speed > 0:
		return Forward
	case speed < 0:
		return Reverse
	default:
		return Stopped
	}
}

// Kind discriminates the ThrottleCommand union for logging/metrics/wire use.
type Kind int

const (
	KindSetSpeed Kind = iota
	KindSetDirection
	KindSetMaxSpeed
	KindEStop
)

func (k Kind) String() string {
	switch k {
	case KindSetSpeed:
		return "set_speed"
	case KindSetDirection:
		return "set_direction"
	case KindSetMaxSpeed:
		return "set_max_speed"
	case KindEStop:
		return "e_stop"
	default:
		return "unknown"
	}
}

// ThrottleCommand is the type-erased command envelope the core operates on.
// Only one of the payload fields is meaningful, selected by Kind — this is
// Go's stand-in for the original's tagged union / type-erased strategy
// object (spec.md §3, "type-erased form").
type ThrottleCommand struct {
	Kind Kind

	// SetSpeed / SetDirection payload.
	SpeedTarget float64 // valid for KindSetSpeed, in [-1,1] before clamping
	Direction   Direction
	Strategy    strategy.Strategy

	// SetMaxSpeed payload.
	MaxSpeedLimit float64 // valid for KindSetMaxSpeed, in [0,1] before clamping
}

// SetSpeed constructs a SetSpeed command.
func SetSpeed(target float64, strat strategy.Strategy) ThrottleCommand {
	return ThrottleCommand{Kind: KindSetSpeed, SpeedTarget: target, Strategy: strat}
}

// SetDirection constructs a SetDirection command.
func SetDirection(dir Direction, strat strategy.Strategy) ThrottleCommand {
	return ThrottleCommand{Kind: KindSetDirection, Direction: dir, Strategy: strat}
}

// SetMaxSpeed constructs a SetMaxSpeed command.
func SetMaxSpeed(limit float64) ThrottleCommand {
	return ThrottleCommand{Kind: KindSetMaxSpeed, MaxSpeedLimit: limit}
}

// EStop constructs an emergency-stop command.
func EStop() ThrottleCommand {
	return ThrottleCommand{Kind: KindEStop}
}

// IsEStop reports whether the command is an emergency stop.
func (c ThrottleCommand) IsEStop() bool { return c.Kind == KindEStop }

// PrioritizedCommand is an immutable {command, source, submitted_at_ms}
// triple. Constructing one performs the one fixed promotion rule: an EStop
// is always tagged Emergency regardless of the submitter (spec.md §4.2).
type PrioritizedCommand struct {
	Command     ThrottleCommand
	Source      Source
	SubmittedAt uint64
}

// New builds a PrioritizedCommand, applying EStop promotion.
func New(cmd ThrottleCommand, source Source, nowMS uint64) PrioritizedCommand {
	if cmd.IsEStop() {
		source = Emergency
	}
	return PrioritizedCommand{Command: cmd, Source: source, SubmittedAt: nowMS}
}

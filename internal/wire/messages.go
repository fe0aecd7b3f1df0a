// Package wire defines the JSON representations the REST and message-bus
// collaborators use to talk to the core, per spec.md §6. Encoding and
// decoding here never touches the core's decision logic directly — a
// collaborator decodes a wire message, builds a command.ThrottleCommand
// from it, and calls the controller.
//
// Grounded on original_source/src/messages.rs's request/response shapes,
// adapted to the spec's explicit discriminated-strategy wire format.
package wire

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/trainctl/throttle/internal/command"
	"github.com/trainctl/throttle/internal/strategy"
)

// Strategy is the wire representation of an ExecutionStrategy, a
// discriminated object keyed on "kind" (spec.md §6).
type Strategy struct {
	Kind       string  `json:"kind"`
	DurationMS uint64  `json:"duration_ms,omitempty"`
	Role       *string `json:"role,omitempty"`
	Stiffness  float64 `json:"stiffness,omitempty"`
}

// StrategyFromDomain converts a strategy.Strategy into its wire form.
func StrategyFromDomain(s strategy.Strategy) Strategy {
	switch v := s.(type) {
	case strategy.Immediate:
		return Strategy{Kind: "immediate"}
	case strategy.Linear:
		return Strategy{Kind: "linear", DurationMS: v.Duration}
	case strategy.EaseInOut:
		w := Strategy{Kind: "ease_in_out", DurationMS: v.Duration}
		if v.Role != strategy.RoleNone {
			role := string(v.Role)
			w.Role = &role
		}
		return w
	case strategy.Momentum:
		return Strategy{Kind: "momentum", DurationMS: v.Duration, Stiffness: v.Stiffness}
	default:
		return Strategy{Kind: "immediate"}
	}
}

// ToDomain converts a wire Strategy back into a strategy.Strategy.
func (s Strategy) ToDomain() (strategy.Strategy, error) {
	switch s.Kind {
	case "immediate":
		return strategy.NewImmediate(), nil
	case "linear":
		return strategy.NewLinear(s.DurationMS), nil
	case "ease_in_out":
		if s.Role == nil {
			return strategy.NewEaseInOut(s.DurationMS), nil
		}
		switch *s.Role {
		case "departure":
			return strategy.Departure(s.DurationMS), nil
		case "arrival":
			return strategy.Arrival(s.DurationMS), nil
		default:
			return nil, fmt.Errorf("wire: unknown ease_in_out role %q", *s.Role)
		}
	case "momentum":
		return strategy.NewMomentum(s.DurationMS, s.Stiffness), nil
	default:
		return nil, fmt.Errorf("wire: unknown strategy kind %q", s.Kind)
	}
}

// Direction is the wire representation of command.Direction: the strings
// "forward" | "reverse" | "stopped".
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
	DirectionStopped Direction = "stopped"
)

// DirectionFromDomain converts a command.Direction into its wire string.
func DirectionFromDomain(d command.Direction) Direction {
	switch d {
	case command.Forward:
		return DirectionForward
	case command.Reverse:
		return DirectionReverse
	default:
		return DirectionStopped
	}
}

// ToDomain converts a wire Direction back into a command.Direction.
func (d Direction) ToDomain() (command.Direction, error) {
	switch d {
	case DirectionForward:
		return command.Forward, nil
	case DirectionReverse:
		return command.Reverse, nil
	case DirectionStopped:
		return command.Stopped, nil
	default:
		return command.Stopped, fmt.Errorf("wire: unknown direction %q", d)
	}
}

// SetSpeedRequest is the wire body for a SetSpeed command.
type SetSpeedRequest struct {
	Speed    float64  `json:"speed"`
	Strategy Strategy `json:"strategy"`
}

// ToDomain builds the corresponding command.ThrottleCommand.
func (r SetSpeedRequest) ToDomain() (command.ThrottleCommand, error) {
	strat, err := r.Strategy.ToDomain()
	if err != nil {
		return command.ThrottleCommand{}, err
	}
	return command.SetSpeed(r.Speed, strat), nil
}

// SetDirectionRequest is the wire body for a SetDirection command.
type SetDirectionRequest struct {
	Direction Direction `json:"direction"`
	Strategy  Strategy  `json:"strategy"`
}

// ToDomain builds the corresponding command.ThrottleCommand.
func (r SetDirectionRequest) ToDomain() (command.ThrottleCommand, error) {
	dir, err := r.Direction.ToDomain()
	if err != nil {
		return command.ThrottleCommand{}, err
	}
	strat, err := r.Strategy.ToDomain()
	if err != nil {
		return command.ThrottleCommand{}, err
	}
	return command.SetDirection(dir, strat), nil
}

// SetMaxSpeedRequest is the wire body for a SetMaxSpeed command.
type SetMaxSpeedRequest struct {
	MaxSpeed float64 `json:"max_speed"`
}

// ToDomain builds the corresponding command.ThrottleCommand.
func (r SetMaxSpeedRequest) ToDomain() command.ThrottleCommand {
	return command.SetMaxSpeed(r.MaxSpeed)
}

// CommandEnvelope is the flat, kind-discriminated JSON document the
// message-bus collaborator decodes a CommandTopic publication into, one
// level up from SetSpeedRequest/SetDirectionRequest/SetMaxSpeedRequest: a
// bus message carries one of those three shapes (or a bare e_stop) plus a
// "kind" tag identifying which. Grounded on the flat command/state
// document shape used by the pack's MQTT/IoT examples (a single topic
// carrying a small tagged JSON object, rather than per-field subtopics).
type CommandEnvelope struct {
	Kind      string   `json:"kind"`
	Speed     *float64 `json:"speed,omitempty"`
	Direction *string  `json:"direction,omitempty"`
	MaxSpeed  *float64 `json:"max_speed,omitempty"`
	Strategy  Strategy `json:"strategy,omitempty"`
}

// ToDomain decodes the envelope into a command.ThrottleCommand based on
// its Kind tag.
func (e CommandEnvelope) ToDomain() (command.ThrottleCommand, error) {
	switch e.Kind {
	case "set_speed":
		if e.Speed == nil {
			return command.ThrottleCommand{}, fmt.Errorf("wire: set_speed envelope missing speed")
		}
		return SetSpeedRequest{Speed: *e.Speed, Strategy: e.Strategy}.ToDomain()
	case "set_direction":
		if e.Direction == nil {
			return command.ThrottleCommand{}, fmt.Errorf("wire: set_direction envelope missing direction")
		}
		return SetDirectionRequest{Direction: Direction(*e.Direction), Strategy: e.Strategy}.ToDomain()
	case "set_max_speed":
		if e.MaxSpeed == nil {
			return command.ThrottleCommand{}, fmt.Errorf("wire: set_max_speed envelope missing max_speed")
		}
		return SetMaxSpeedRequest{MaxSpeed: *e.MaxSpeed}.ToDomain(), nil
	case "e_stop":
		return command.EStop(), nil
	default:
		return command.ThrottleCommand{}, fmt.Errorf("wire: unknown command envelope kind %q", e.Kind)
	}
}

// StateResponse is the wire representation of a throttle.State snapshot.
type StateResponse struct {
	CurrentSpeed       float64   `json:"current_speed"`
	TargetSpeed        float64   `json:"target_speed"`
	Direction          Direction `json:"direction"`
	IsTransitioning    bool      `json:"is_transitioning"`
	TransitionProgress float64   `json:"transition_progress"`
	MaxSpeed           float64   `json:"max_speed"`
	LockoutRemainingMS uint64    `json:"lockout_remaining_ms"`
	CurrentSource      string    `json:"current_source"`
}

// RejectResponse is the wire representation of a rejected apply_command
// result, per spec.md §7's error taxonomy.
type RejectResponse struct {
	Reason         string  `json:"reason"`
	LockoutMS      *uint64 `json:"lockout_remaining_ms,omitempty"`
	Lock           *string `json:"lock,omitempty"`
	ClampedToRange bool    `json:"clamped_to_range,omitempty"`
}

// StateFromDomain converts a throttle.State snapshot into its wire form.
// Speeds are rounded per spec.md §6.
func StateFromDomain(currentSpeed, targetSpeed float64, direction command.Direction, isTransitioning bool, transitionProgress, maxSpeed float64, lockoutRemainingMS uint64, currentSource command.Source) StateResponse {
	return StateResponse{
		CurrentSpeed:       RoundSpeed(currentSpeed),
		TargetSpeed:        RoundSpeed(targetSpeed),
		Direction:          DirectionFromDomain(direction),
		IsTransitioning:    isTransitioning,
		TransitionProgress: RoundSpeed(transitionProgress),
		MaxSpeed:           RoundSpeed(maxSpeed),
		LockoutRemainingMS: lockoutRemainingMS,
		CurrentSource:      currentSource.String(),
	}
}

// RoundSpeed rounds a speed value to at most 3 decimal digits, per spec.md
// §6's wire format ("speeds are JSON numbers ... with at most 3 decimal
// digits").
func RoundSpeed(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// MarshalSpeed renders v as a JSON number rounded to 3 decimals.
func MarshalSpeed(v float64) (json.RawMessage, error) {
	return json.Marshal(RoundSpeed(v))
}

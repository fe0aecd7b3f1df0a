// Package hal defines the capability interfaces the throttle controller
// consumes from the hosting layer: the motor bridge, the monotonic clock,
// the rotary encoder, and the fault detector. Concrete implementations
// live outside this module (device drivers) or under internal/hal/mock and
// internal/hal/clockutil for tests and hosting respectively.
package hal

import "github.com/trainctl/throttle/internal/command"

// MotorController drives the physical motor bridge. Speed is signed in
// [-1,1]; direction is carried separately for hosts whose bridge wants an
// explicit sign line in addition to a PWM magnitude.
type MotorController interface {
	SetSpeed(speed float64) error
	SetDirection(direction command.Direction) error
	ReadCurrentMA() (uint16, error)
}

// Clock exposes a monotonic millisecond counter. Implementations must never
// go backwards.
type Clock interface {
	NowMS() uint64
}

// EncoderInput reads the physical rotary encoder used as a Physical-source
// command input.
type EncoderInput interface {
	ReadDelta() int16
	ButtonPressed() bool
}

// FaultDetector reports hardware fault conditions. The host polls this
// before each Update call and, if faulted, synthesizes an EStop tagged
// Fault (spec.md §9 "Fault integration") — the core itself never reads it.
type FaultDetector interface {
	IsShortCircuit() bool
	IsOvercurrent() bool
}

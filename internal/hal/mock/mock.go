// Package mock provides in-memory test doubles for the internal/hal
// capability interfaces. They never sleep or block and record every
// invocation for tests to assert against, per spec.md §4.6.
//
// Grounded on original_source/src/hal/mock.rs's MockMotor/MockEncoder/
// MockFault, translated from queue+call-count fields to a recorded
// invocation history.
package mock

import "github.com/trainctl/throttle/internal/command"

// MotorCall records one SetSpeed or SetDirection invocation.
type MotorCall struct {
	Speed     float64
	Direction command.Direction
	IsSpeed   bool // true if this call was SetSpeed, false if SetDirection
}

// Motor is an in-memory MotorController. It never errs unless FailNext is
// set, letting tests exercise the controller's motor-error propagation.
type Motor struct {
	Speed       float64
	Direction   command.Direction
	CurrentMA   uint16
	Calls       []MotorCall
	FailNext    bool
	failMessage string
}

// NewMotor returns a stopped motor at zero speed.
func NewMotor() *Motor {
	return &Motor{Direction: command.Stopped}
}

// SetSpeed implements hal.MotorController.
func (m *Motor) SetSpeed(speed float64) error {
	if m.FailNext {
		m.FailNext = false
		return &Error{Op: "set_speed", Msg: m.failMessage}
	}
	m.Speed = speed
	m.Calls = append(m.Calls, MotorCall{Speed: speed, IsSpeed: true})
	return nil
}

// SetDirection implements hal.MotorController.
func (m *Motor) SetDirection(direction command.Direction) error {
	if m.FailNext {
		m.FailNext = false
		return &Error{Op: "set_direction", Msg: m.failMessage}
	}
	m.Direction = direction
	m.Calls = append(m.Calls, MotorCall{Direction: direction})
	return nil
}

// ReadCurrentMA implements hal.MotorController.
func (m *Motor) ReadCurrentMA() (uint16, error) {
	return m.CurrentMA, nil
}

// FailWith arms the next mutating call to fail with msg.
func (m *Motor) FailWith(msg string) {
	m.FailNext = true
	m.failMessage = msg
}

// SpeedCallCount returns how many times SetSpeed was called.
func (m *Motor) SpeedCallCount() int {
	n := 0
	for _, c := range m.Calls {
		if c.IsSpeed {
			n++
		}
	}
	return n
}

// Error is the opaque error type mock collaborators return.
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string { return e.Op + ": " + e.Msg }

// Encoder is an in-memory EncoderInput. Deltas queued with QueueDelta are
// returned in FIFO order.
type Encoder struct {
	deltas      []int16
	buttonState bool
}

// NewEncoder returns an encoder with no pending deltas and the button
// released.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// QueueDelta appends a delta to be returned by a future ReadDelta call.
func (e *Encoder) QueueDelta(delta int16) {
	e.deltas = append(e.deltas, delta)
}

// ReadDelta implements hal.EncoderInput.
func (e *Encoder) ReadDelta() int16 {
	if len(e.deltas) == 0 {
		return 0
	}
	d := e.deltas[0]
	e.deltas = e.deltas[1:]
	return d
}

// SetButton sets the button's held state.
func (e *Encoder) SetButton(pressed bool) {
	e.buttonState = pressed
}

// ButtonPressed implements hal.EncoderInput.
func (e *Encoder) ButtonPressed() bool {
	return e.buttonState
}

// Fault is an in-memory FaultDetector.
type Fault struct {
	shortCircuit bool
	overcurrent  bool
}

// NewFault returns a fault detector with no active faults.
func NewFault() *Fault {
	return &Fault{}
}

// TriggerShortCircuit arms the short-circuit condition.
func (f *Fault) TriggerShortCircuit() { f.shortCircuit = true }

// TriggerOvercurrent arms the overcurrent condition.
func (f *Fault) TriggerOvercurrent() { f.overcurrent = true }

// Clear removes all active fault conditions.
func (f *Fault) Clear() {
	f.shortCircuit = false
	f.overcurrent = false
}

// IsShortCircuit implements hal.FaultDetector.
func (f *Fault) IsShortCircuit() bool { return f.shortCircuit }

// IsOvercurrent implements hal.FaultDetector.
func (f *Fault) IsOvercurrent() bool { return f.overcurrent }

// Package command defines the command envelopes the throttle core accepts:
// typed and type-erased ThrottleCommand variants, source tagging, and the
// fixed EStop-to-Emergency promotion rule.
package command

// Source identifies where a command originated. Sources are totally
// ordered; the ordering drives the lockout arbiter (internal/lockout) and
// the transition manager's interrupt policy (internal/transition).
//
// Mqtt < WebApi < WebLocal < Physical < Fault < Emergency.
type Source int

const (
	// Mqtt is a remote command via the home-automation message bus. Lowest priority.
	Mqtt Source = iota
	// WebApi is a command via the REST API.
	WebApi
	// WebLocal is a command from the local-network web UI.
	WebLocal
	// Physical is a command from the rotary encoder or onboard buttons.
	Physical
	// Fault is a command synthesized by the host's fault-detector polling loop.
	Fault
	// Emergency is an e-stop, from any submitter. Never blocked, always wins.
	Emergency
)

func (s Source) String() string {
	switch s {
	case Mqtt:
		return "mqtt"
	case WebApi:
		return "web_api"
	case WebLocal:
		return "web_local"
	case Physical:
		return "physical"
	case Fault:
		return "fault"
	case Emergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// AtLeastPhysical reports whether a source's priority is high enough to
// install a source lockout when its command is accepted (spec.md §4.3).
func (s Source) AtLeastPhysical() bool {
	return s >= Physical
}

// Package lockout implements the source-lockout arbiter: a time-bounded
// right of a source to reject commands from lower-priority sources.
// Grounded on original_source/src/priority.rs's SourceLockout, adapted to
// spec.md §4.3's exact policy.
package lockout

import "github.com/trainctl/throttle/internal/command"

// DefaultDurationMS is the lockout window installed when the caller doesn't
// override it (spec.md §4.3: "typical: 3000 ms").
const DefaultDurationMS = 3000

// state holds an owner source and the time its lockout expires.
type state struct {
	owner     command.Source
	expiresAt uint64
}

// Arbiter is the source-lockout arbiter. Zero value is a valid, unlocked
// arbiter.
type Arbiter struct {
	current *state
}

// New returns an unlocked arbiter.
func New() *Arbiter {
	return &Arbiter{}
}

// IsBlocked reports whether a command from source would be blocked at now.
// A command is blocked iff a lockout is active (now < expiresAt) and
// source's priority is strictly less than the owner's. Emergency is never
// blocked. Expiration is lazy: this only reads state, it never mutates it.
func (a *Arbiter) IsBlocked(source command.Source, now uint64) bool {
	if source == command.Emergency {
		return false
	}
	if a.current == nil {
		return false
	}
	if now >= a.current.expiresAt {
		return false
	}
	return source < a.current.owner
}

// Remaining returns the milliseconds left on the active lockout at now, or 0
// if none is active or it has expired.
func (a *Arbiter) Remaining(now uint64) uint64 {
	if a.current == nil || now >= a.current.expiresAt {
		return 0
	}
	return a.current.expiresAt - now
}

// Install installs (or replaces) a lockout owned by source, expiring
// durationMS after now. now+durationMS must exceed now: a durationMS of 0
// is coerced to 1ms so the invariant "expires_at is strictly greater than
// install time" (spec.md §3) always holds.
func (a *Arbiter) Install(source command.Source, now uint64, durationMS uint64) {
	if source == command.Emergency {
		a.Clear()
		return
	}
	if durationMS == 0 {
		durationMS = 1
	}
	a.current = &state{owner: source, expiresAt: now + durationMS}
}

// Clear removes any active lockout.
func (a *Arbiter) Clear() {
	a.current = nil
}

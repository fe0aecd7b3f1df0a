// Package transition implements the transition manager: it owns the
// in-flight speed transition, decides accept/replace/queue/reject for new
// installs per the active transition's lock level and interrupt behavior,
// and advances the interpolated value on each tick.
//
// Grounded on original_source/src/transition.rs, generalized from a
// single optional queue slot to spec.md §3's bounded capacity-4 FIFO.
package transition

import (
	"github.com/trainctl/throttle/internal/command"
	"github.com/trainctl/throttle/internal/strategy"
)

// Strategy is the interpolation capability a transition is installed with.
type Strategy = strategy.Strategy

// Active is a snapshot of the in-flight transition, exposed read-only.
type Active struct {
	Start     float64
	Target    float64
	StartedAt uint64
	Strategy  Strategy
	Source    command.Source
	Lock      strategy.Lock
}

// RejectReason enumerates why Install refused a command.
type RejectReason int

const (
	// RejectNone is the zero value; only meaningful when Result.Accepted is true.
	RejectNone RejectReason = iota
	// RejectLockedTransition means the active transition's lock forbade the interrupt.
	RejectLockedTransition
	// RejectQueueFull means the follow-up queue had no room.
	RejectQueueFull
)

func (r RejectReason) String() string {
	switch r {
	case RejectLockedTransition:
		return "locked_transition"
	case RejectQueueFull:
		return "queue_full"
	default:
		return "none"
	}
}

// Outcome enumerates how an accepted Install was applied, for observability
// (spec_full.md "Command outcome/result taxonomy").
type Outcome int

const (
	OutcomeStarted Outcome = iota
	OutcomeReplaced
	OutcomeQueued
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStarted:
		return "started"
	case OutcomeReplaced:
		return "replaced"
	case OutcomeQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// Result is returned by Install.
type Result struct {
	Accepted     bool
	Outcome      Outcome      // valid when Accepted
	RejectReason RejectReason // valid when !Accepted
	Lock         strategy.Lock
}

// Completed describes a transition that finished during a Tick call.
type Completed struct {
	Target       float64
	Source       command.Source
	StrategyKind string
}

// LockInfo summarizes the active transition's lock for a state snapshot.
type LockInfo struct {
	Lock      strategy.Lock
	Source    command.Source
	Target    float64
	HasQueued bool
}

// Manager owns the in-flight transition, the bounded follow-up queue, and
// the last-committed value. The zero value is an idle manager at speed 0;
// New sets a different initial value.
type Manager struct {
	active       *Active
	queue        followUpQueue
	currentValue float64
}

// New returns a Manager holding initial as its committed value with no
// active transition.
func New(initial float64) *Manager {
	return &Manager{currentValue: initial}
}

// Install attempts to start a new transition toward target using strat, on
// behalf of source, submitted at now. See spec.md §4.4 for the full
// decision table this implements.
func (m *Manager) Install(target float64, strat Strategy, source command.Source, now uint64) Result {
	if m.active == nil {
		m.start(target, strat, source, now)
		return Result{Accepted: true, Outcome: OutcomeStarted}
	}

	// Emergency always replaces, regardless of lock level, and drops any
	// queued follow-up (spec.md §4.5 step 2 routes EStop through the
	// controller before this point, but the manager itself must also honor
	// it directly for callers, e.g. tests, that drive it below the
	// controller layer).
	if source == command.Emergency {
		m.queue.clear()
		m.start(target, strat, source, now)
		return Result{Accepted: true, Outcome: OutcomeReplaced}
	}

	switch m.active.Lock {
	case strategy.LockNone:
		m.start(target, strat, source, now)
		return Result{Accepted: true, Outcome: OutcomeReplaced}

	case strategy.LockSource:
		if source >= m.active.Source || m.active.Strategy.OnInterrupt() == strategy.InterruptReplace {
			m.start(target, strat, source, now)
			return Result{Accepted: true, Outcome: OutcomeReplaced}
		}
		return m.handleBlocked(target, strat, source)

	case strategy.LockHard:
		return m.handleBlocked(target, strat, source)

	default:
		return m.handleBlocked(target, strat, source)
	}
}

// handleBlocked applies the active transition's interrupt behavior to a
// command that isn't allowed to replace it outright.
func (m *Manager) handleBlocked(target float64, strat Strategy, source command.Source) Result {
	lock := m.active.Lock
	switch m.active.Strategy.OnInterrupt() {
	case strategy.InterruptQueue:
		if m.queue.full() {
			return Result{Accepted: false, RejectReason: RejectQueueFull, Lock: lock}
		}
		m.queue.push(pending{target: target, strategy: strat, source: source})
		return Result{Accepted: true, Outcome: OutcomeQueued}
	case strategy.InterruptReject:
		return Result{Accepted: false, RejectReason: RejectLockedTransition, Lock: lock}
	default: // InterruptReplace reaches here only under a Hard lock, which it does not override.
		return Result{Accepted: false, RejectReason: RejectLockedTransition, Lock: lock}
	}
}

// start installs a fresh Active transition rooted at the manager's current
// interpolated value.
func (m *Manager) start(target float64, strat Strategy, source command.Source, now uint64) {
	begin := m.CurrentSpeed(now)
	m.active = &Active{
		Start:     begin,
		Target:    target,
		StartedAt: now,
		Strategy:  strat,
		Source:    source,
		Lock:      strat.Lock(),
	}
}

// CurrentSpeed returns the interpolated value at now using the stored
// strategy. It is a pure read: it does not advance internal state.
func (m *Manager) CurrentSpeed(now uint64) float64 {
	if m.active == nil {
		return m.currentValue
	}
	elapsed := satSub(now, m.active.StartedAt)
	return strategy.Value(m.active.Strategy, m.active.Start, m.active.Target, elapsed)
}

// IsActive reports whether a transition is currently installed.
func (m *Manager) IsActive() bool {
	return m.active != nil
}

// Progress returns the active transition's completion fraction in [0,1], or
// 0 if none is active.
func (m *Manager) Progress(now uint64) float64 {
	if m.active == nil {
		return 0
	}
	d := m.active.Strategy.DurationMS()
	if d == 0 {
		return 1
	}
	elapsed := satSub(now, m.active.StartedAt)
	if elapsed >= d {
		return 1
	}
	return float64(elapsed) / float64(d)
}

// Target returns the active transition's target and true, or (0, false) if
// none is active.
func (m *Manager) Target() (float64, bool) {
	if m.active == nil {
		return 0, false
	}
	return m.active.Target, true
}

// LockStatus returns the active transition's lock summary, or nil if none
// is active.
func (m *Manager) LockStatus() *LockInfo {
	if m.active == nil {
		return nil
	}
	return &LockInfo{
		Lock:      m.active.Lock,
		Source:    m.active.Source,
		Target:    m.active.Target,
		HasQueued: !m.queue.empty(),
	}
}

// Cancel discards the active transition and any queued follow-up, freezing
// the current value at its last-known point (the value as of the most
// recent Tick, or the initial value if Tick was never called).
func (m *Manager) Cancel() {
	m.active = nil
	m.queue.clear()
}

// Tick advances the manager by one step. If the active transition has
// reached its duration, it is pinned to target, cleared, and one queued
// follow-up (if any) is dequeued and installed — recursively once, to
// bound per-tick work, so a zero-duration follow-up completes within the
// same Tick call without chaining further.
func (m *Manager) Tick(now uint64) *Completed {
	return m.tick(now, true)
}

func (m *Manager) tick(now uint64, allowDrain bool) *Completed {
	if m.active == nil {
		return nil
	}

	elapsed := satSub(now, m.active.StartedAt)
	value := strategy.Value(m.active.Strategy, m.active.Start, m.active.Target, elapsed)
	m.currentValue = value

	if elapsed < m.active.Strategy.DurationMS() {
		return nil
	}

	completed := &Completed{
		Target:       m.active.Target,
		Source:       m.active.Source,
		StrategyKind: m.active.Strategy.Kind(),
	}
	m.currentValue = m.active.Target
	m.active = nil

	if allowDrain {
		if p, ok := m.queue.pop(); ok {
			m.start(p.target, p.strategy, p.source, now)
			m.tick(now, false)
		}
	}

	return completed
}

func satSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

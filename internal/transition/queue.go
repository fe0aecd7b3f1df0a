package transition

import "github.com/trainctl/throttle/internal/command"

// queueCapacity bounds the follow-up queue attached to the manager
// (spec.md §3: "capacity small, e.g. 4"). Overflow is an error, never a
// stall (spec.md §9).
const queueCapacity = 4

// pending is a follow-up command waiting for the active transition to
// finish.
type pending struct {
	target   float64
	strategy Strategy
	source   command.Source
}

// followUpQueue is a small fixed-capacity FIFO. It never allocates once
// constructed.
type followUpQueue struct {
	items [queueCapacity]pending
	len   int
}

func (q *followUpQueue) push(p pending) bool {
	if q.len == queueCapacity {
		return false
	}
	q.items[q.len] = p
	q.len++
	return true
}

func (q *followUpQueue) pop() (pending, bool) {
	if q.len == 0 {
		return pending{}, false
	}
	p := q.items[0]
	for i := 1; i < q.len; i++ {
		q.items[i-1] = q.items[i]
	}
	q.len--
	return p, true
}

func (q *followUpQueue) full() bool  { return q.len == queueCapacity }
func (q *followUpQueue) empty() bool { return q.len == 0 }
func (q *followUpQueue) clear()      { q.len = 0 }

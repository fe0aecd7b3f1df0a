package api

import (
	"github.com/trainctl/throttle/internal/command"
	"github.com/trainctl/throttle/internal/metrics"
	"github.com/trainctl/throttle/internal/throttle"
)

// recordOutcome feeds the Prometheus command-outcome counter, then the
// gauges reflecting the controller's post-command state.
func (s *Server) recordOutcome(source command.Source, res throttle.Result) {
	outcome := "accepted"
	if !res.Accepted {
		outcome = res.Reject.String()
	}
	metrics.RecordCommand(source.String(), outcome)

	now := s.clock.NowMS()
	st := s.controller.State(now)
	metrics.RecordSpeed(st.CurrentSpeed)
	metrics.RecordLockoutRemaining(st.LockoutRemainingMS)
}

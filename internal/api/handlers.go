package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/trainctl/throttle/internal/command"
	"github.com/trainctl/throttle/internal/log"
	"github.com/trainctl/throttle/internal/throttle"
	"github.com/trainctl/throttle/internal/wire"
)

func (s *Server) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	var req wire.SetSpeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	cmd, err := req.ToDomain()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	s.dispatch(w, r, cmd)
}

func (s *Server) handleSetDirection(w http.ResponseWriter, r *http.Request) {
	var req wire.SetDirectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	cmd, err := req.ToDomain()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	s.dispatch(w, r, cmd)
}

func (s *Server) handleSetMaxSpeed(w http.ResponseWriter, r *http.Request) {
	var req wire.SetMaxSpeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	s.dispatch(w, r, req.ToDomain())
}

func (s *Server) handleEStop(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, command.EStop())
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.controller.Cancel()
	s.respondState(w)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respondState(w)
}

// dispatch runs the incoming command through ApplyCommand, attributing it
// to WebApi or WebLocal depending on the request's origin, and writes
// either the resulting state or a rejection response.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, cmd command.ThrottleCommand) {
	source := classifySource(r)
	now := s.clock.NowMS()
	commandID := uuid.New().String()
	r = r.WithContext(log.ContextWithCommandID(r.Context(), commandID))

	res := s.controller.ApplyCommand(cmd, source, now)

	logger := log.WithContext(r.Context(), s.logger)
	logger.Info().
		Str(log.FieldSource, source.String()).
		Str(log.FieldEvent, cmd.Kind.String()).
		Bool("accepted", res.Accepted).
		Msg("apply_command")

	s.recordOutcome(source, res)

	if !res.Accepted {
		s.respondRejection(w, res)
		return
	}
	s.respondState(w)
}

func (s *Server) respondState(w http.ResponseWriter) {
	now := s.clock.NowMS()
	st := s.controller.State(now)
	writeJSON(w, http.StatusOK, wire.StateFromDomain(
		st.CurrentSpeed, st.TargetSpeed, st.Direction, st.IsTransitioning,
		st.TransitionProgress, st.MaxSpeed, st.LockoutRemainingMS, st.CurrentSource,
	))
}

func (s *Server) respondRejection(w http.ResponseWriter, res throttle.Result) {
	resp := wire.RejectResponse{Reason: res.Reject.String(), ClampedToRange: res.ClampedToRange}
	if res.Reject == throttle.RejectLockout {
		ms := res.LockoutMS
		resp.LockoutMS = &ms
	}
	if res.Reject == throttle.RejectLockedTransition {
		lock := res.Lock.String()
		resp.Lock = &lock
	}
	writeJSON(w, statusForReject(res.Reject), resp)
}

func statusForReject(reject throttle.RejectKind) int {
	switch reject {
	case throttle.RejectLockout:
		return http.StatusLocked
	case throttle.RejectLockedTransition:
		return http.StatusLocked
	case throttle.RejectQueueFull:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/larsks/switchd/internal/switchentity"
)

type switchRequest struct {
	Action string `json:"action"`
}

// APIResponse is the envelope of every response.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// SwitchResponse describes one switch.
type SwitchResponse struct {
	Name         string `json:"name"`
	ObjectID     string `json:"object_id"`
	State        bool   `json:"state"`
	HasState     bool   `json:"has_state"`
	Inverted     bool   `json:"inverted"`
	RestoreMode  string `json:"restore_mode"`
	DeviceClass  string `json:"device_class"`
	AssumedState bool   `json:"assumed_state"`
}

func describeSwitch(sw *switchentity.Switch) SwitchResponse {
	return SwitchResponse{
		Name:         sw.Name(),
		ObjectID:     sw.ObjectID(),
		State:        sw.State(),
		HasState:     sw.HasState(),
		Inverted:     sw.IsInverted(),
		RestoreMode:  sw.RestoreMode().String(),
		DeviceClass:  sw.DeviceClass(),
		AssumedState: sw.AssumedState(),
	}
}

func (s *Server) sendResponse(w http.ResponseWriter, resp APIResponse, httpCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, httpCode int) {
	s.sendResponse(w, APIResponse{Status: "error", Message: message}, httpCode)
}

func (s *Server) sendLoopError(w http.ResponseWriter, err error) {
	log.Warn().Err(err).Msg("switch operation did not complete")
	code := http.StatusServiceUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		code = http.StatusGatewayTimeout
	}
	s.sendError(w, ErrUnavailable.Error(), code)
}

// run executes fn on the event loop, bounded by the request context and the
// configured timeout.
func (s *Server) run(r *http.Request, fn func()) error {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	return s.loop.Do(ctx, fn)
}

func (s *Server) listSwitchesHandler(w http.ResponseWriter, r *http.Request) {
	var switches []SwitchResponse
	err := s.run(r, func() {
		switches = make([]SwitchResponse, 0, len(s.order))
		for _, objectID := range s.order {
			switches = append(switches, describeSwitch(s.switches[objectID]))
		}
	})
	if err != nil {
		s.sendLoopError(w, err)
		return
	}

	s.sendResponse(w, APIResponse{Status: "ok", Data: switches}, http.StatusOK)
}

func (s *Server) switchStatusHandler(w http.ResponseWriter, r *http.Request) {
	sw, _ := switchFromContext(r.Context())

	var resp SwitchResponse
	if err := s.run(r, func() { resp = describeSwitch(sw) }); err != nil {
		s.sendLoopError(w, err)
		return
	}

	s.sendResponse(w, APIResponse{Status: "ok", Data: resp}, http.StatusOK)
}

func (s *Server) switchActionHandler(w http.ResponseWriter, r *http.Request) {
	sw, _ := switchFromContext(r.Context())
	action, _ := actionFromContext(r.Context())

	var resp SwitchResponse
	err := s.run(r, func() {
		action.Apply(sw)
		resp = describeSwitch(sw)
	})
	if err != nil {
		s.sendLoopError(w, err)
		return
	}

	log.Info().Str("switch", sw.ObjectID()).Stringer("action", action).Msg("switch action applied")
	s.sendResponse(w, APIResponse{Status: "ok", Data: resp}, http.StatusOK)
}

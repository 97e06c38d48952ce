package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/larsks/switchd/internal/entity"
	"github.com/larsks/switchd/internal/switchentity"
)

type (
	contextKey string
)

const (
	switchKey        contextKey = "switch"
	switchRequestKey contextKey = "switchRequest"
)

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// validateSwitch resolves the {name} parameter to a switch. The parameter may
// be either the object id or the display name of the switch.
func (s *Server) validateSwitch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			s.sendError(w, ErrSwitchRequired.Error(), http.StatusBadRequest)
			return
		}

		sw, exists := s.switches[entity.ObjectID(name)]
		if !exists {
			s.sendError(w, fmt.Sprintf("%s: %s", ErrUnknownSwitch, name), http.StatusNotFound)
			return
		}

		ctx := context.WithValue(r.Context(), switchKey, sw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateJSONRequest validates that the request has proper JSON content type
func (s *Server) validateJSONRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")
		if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
			s.sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// validateSwitchRequest parses the action in the request body.
func (s *Server) validateSwitchRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req switchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.sendError(w, "Invalid JSON format", http.StatusBadRequest)
			return
		}

		action, err := switchentity.ParseAction(req.Action)
		if err != nil {
			s.sendError(w, "Action must be 'on', 'off', or 'toggle'", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), switchRequestKey, action)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func switchFromContext(ctx context.Context) (*switchentity.Switch, bool) {
	sw, ok := ctx.Value(switchKey).(*switchentity.Switch)
	return sw, ok
}

func actionFromContext(ctx context.Context) (switchentity.Action, bool) {
	action, ok := ctx.Value(switchRequestKey).(switchentity.Action)
	return action, ok
}

// Package api exposes switches over HTTP.
package api

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/larsks/switchd/internal/eventloop"
	"github.com/larsks/switchd/internal/switchentity"
)

// DefaultRequestTimeout bounds how long a handler waits for the event loop.
const DefaultRequestTimeout = 10 * time.Second

// Config holds the API server settings.
type Config struct {
	AllowedOrigins []string      `mapstructure:"allowed-origins"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
}

// Server routes HTTP requests to switches. Every switch operation, including
// reads, runs on the event loop.
type Server struct {
	loop           *eventloop.Loop
	switches       map[string]*switchentity.Switch
	order          []string
	requestTimeout time.Duration
	router         *chi.Mux
}

// NewServer creates a server for the given switches, keyed by object id.
func NewServer(loop *eventloop.Loop, switches []*switchentity.Switch, cfg Config) (*Server, error) {
	s := &Server{
		loop:           loop,
		switches:       make(map[string]*switchentity.Switch, len(switches)),
		requestTimeout: cfg.RequestTimeout,
		router:         chi.NewRouter(),
	}

	if s.requestTimeout <= 0 {
		s.requestTimeout = DefaultRequestTimeout
	}

	for _, sw := range switches {
		objectID := sw.ObjectID()
		if _, exists := s.switches[objectID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSwitch, objectID)
		}
		s.switches[objectID] = sw
		s.order = append(s.order, objectID)
	}
	sort.Strings(s.order)

	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)
	if len(cfg.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Get("/switch", s.listSwitchesHandler)
	s.router.Route("/switch/{name}", func(r chi.Router) {
		r.Use(s.validateSwitch)
		r.Get("/", s.switchStatusHandler)
		r.With(s.validateJSONRequest, s.validateSwitchRequest).Post("/", s.switchActionHandler)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SwitchNames returns the object ids of all switches in sorted order.
func (s *Server) SwitchNames() []string {
	return append([]string(nil), s.order...)
}

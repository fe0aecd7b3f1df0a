// Package api exposes the throttle core over HTTP: a chi router wrapping
// internal/throttle.Controller with the encoding/json request/response
// types from internal/wire, rate-limited per internal/api/middleware, and
// instrumented via internal/metrics.
//
// Grounded on the teacher's internal/api server construction idiom
// (New(cfg, opts...) returning *Server, writeJSON response helpers) and
// its chi-based router wiring.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/trainctl/throttle/internal/api/middleware"
	"github.com/trainctl/throttle/internal/hal"
	"github.com/trainctl/throttle/internal/log"
	"github.com/trainctl/throttle/internal/throttle"
)

// Server wraps a throttle.Controller with an HTTP surface.
type Server struct {
	controller *throttle.Controller
	clock      hal.Clock
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
}

// Option customizes a Server at construction time.
type Option func(*Server)

// WithLogger overrides the server's logger (defaults to log.Base()).
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New builds a Server wrapping controller, using clock to timestamp
// commands and state reads.
func New(controller *throttle.Controller, clock hal.Clock, opts ...Option) *Server {
	s := &Server{
		controller: controller,
		clock:      clock,
		logger:     log.Base(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/throttle", func(r chi.Router) {
		r.Get("/state", s.handleState)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CommandRateLimit())
			r.Post("/speed", s.handleSetSpeed)
			r.Post("/direction", s.handleSetDirection)
			r.Post("/max-speed", s.handleSetMaxSpeed)
			r.Post("/estop", s.handleEStop)
			r.Post("/cancel", s.handleCancel)
		})
	})

	return r
}

// requestLogger logs each request's method, path, status, and duration at
// info level once it completes, tagged with the chi request ID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx := log.ContextWithRequestID(r.Context(), chimiddleware.GetReqID(r.Context()))
		r = r.WithContext(ctx)
		next.ServeHTTP(ww, r)

		logger := log.WithContext(r.Context(), s.logger)
		logger.Info().
			Str(log.FieldPath, r.URL.Path).
			Str("method", r.Method).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("handled request")
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Handler returns the server's http.Handler, for use with httptest or a
// custom http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts serving on addr, blocking until ctx is canceled or
// an unrecoverable error occurs.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

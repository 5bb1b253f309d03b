// Package api serves the archviz pipeline over HTTP.
//
// Routes:
//
//	POST /v1/diagrams             analysis → rendered diagram
//	POST /v1/plans                analysis → command plan
//	POST /v1/plans/execute        plan → rendered diagram
//	GET  /v1/diagrams/{id}        stored build record
//	GET  /v1/diagrams/{id}/image  stored image bytes
//	GET  /v1/commands             registered commands and their schemas
//	GET  /v1/patterns             built-in cluster patterns
//	GET  /health                  version, command count, discovery errors
//
// Every build runs in its own session, so requests never share diagram
// state.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/archviz/pkg/pipeline"
	"github.com/matzehuels/archviz/pkg/session"
)

// DefaultMaxBodyBytes caps request bodies when Deps.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 1 << 20

// Deps holds the dependencies of the API server.
type Deps struct {
	Runner *pipeline.Runner
	Store  session.Store // optional; GET /v1/diagrams/{id} needs it
	Logger *log.Logger

	// Defaults seed options a request leaves unset.
	Defaults pipeline.Options

	MaxBodyBytes int64
	Timeout      time.Duration
}

// Server serves the HTTP API.
type Server struct {
	deps   Deps
	logger *log.Logger
}

// New creates a server. The runner's store is used when deps.Store is nil.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Runner == nil {
		deps.Runner = pipeline.NewRunner(nil, nil, nil, deps.Logger)
	}
	if deps.Store == nil {
		deps.Store = deps.Runner.Store
	}
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{deps: deps, logger: deps.Logger.WithPrefix("api")}
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.deps.Timeout > 0 {
		r.Use(middleware.Timeout(s.deps.Timeout))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/commands", s.handleCommands)
		r.Get("/patterns", s.handlePatterns)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Use(s.limitBody)
			r.Post("/diagrams", s.handleCreateDiagram)
			r.Post("/plans", s.handleCreatePlan)
			r.Post("/plans/execute", s.handleExecutePlan)
		})

		r.Get("/diagrams/{id}", s.handleGetDiagram)
		r.Get("/diagrams/{id}/image", s.handleGetImage)
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

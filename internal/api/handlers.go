package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/archviz/pkg/buildinfo"
	"github.com/matzehuels/archviz/pkg/dispatch"
	aerrors "github.com/matzehuels/archviz/pkg/errors"
	"github.com/matzehuels/archviz/pkg/observability"
	"github.com/matzehuels/archviz/pkg/pipeline"
	"github.com/matzehuels/archviz/pkg/plan"
	"github.com/matzehuels/archviz/pkg/session"
)

// =============================================================================
// Request / Response Types
// =============================================================================

// DiagramRequest is the body of POST /v1/diagrams and POST /v1/plans.
type DiagramRequest struct {
	Analysis *plan.Analysis  `json:"analysis"`
	Options  pipeline.Options `json:"options"`
}

// ExecuteRequest is the body of POST /v1/plans/execute.
type ExecuteRequest struct {
	Plan    *plan.Plan       `json:"plan"`
	Options pipeline.Options `json:"options"`
}

// DiagramResponse wraps a build result with its record and cache details.
type DiagramResponse struct {
	ID       string `json:"id,omitempty"`
	PlanHash string `json:"plan_hash"`
	Cached   bool   `json:"cached"`
	*dispatch.Result
}

// CommandInfo describes one registered command.
type CommandInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string            `json:"status"`
	Version         string            `json:"version"`
	Commit          string            `json:"commit"`
	Commands        int               `json:"commands"`
	DiscoveryErrors map[string]string `json:"discovery_errors,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reg := s.deps.Runner.Registry
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		Version:         buildinfo.Version,
		Commit:          buildinfo.Commit,
		Commands:        reg.Len(),
		DiscoveryErrors: reg.DiscoveryErrors(),
	})
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	reg := s.deps.Runner.Registry
	out := make([]CommandInfo, 0, reg.Len())
	for _, name := range reg.Names() {
		cmd, err := reg.Get(name)
		if err != nil {
			continue
		}
		out = append(out, CommandInfo{
			Name:        name,
			Description: cmd.Description(),
			Schema:      json.RawMessage(cmd.Schema()),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, plan.Patterns())
}

func (s *Server) handleCreateDiagram(w http.ResponseWriter, r *http.Request) {
	var req DiagramRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Analysis == nil {
		s.writeError(w, r, aerrors.New(aerrors.ErrCodeInvalidInput, "analysis is required"))
		return
	}

	opts := s.withDefaults(req.Options, true)
	res, err := s.deps.Runner.Execute(r.Context(), req.Analysis, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBuild(w, res)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req DiagramRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Analysis == nil {
		s.writeError(w, r, aerrors.New(aerrors.ErrCodeInvalidInput, "analysis is required"))
		return
	}

	p, err := s.deps.Runner.Plan(r.Context(), req.Analysis, s.withDefaults(req.Options, true))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleExecutePlan(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Plan == nil || len(req.Plan.Steps) == 0 {
		s.writeError(w, r, aerrors.New(aerrors.ErrCodeInvalidPlan, "plan has no steps"))
		return
	}

	// An imported plan keeps its own output format unless the request
	// overrides it.
	res, err := s.deps.Runner.Build(r.Context(), req.Plan, s.withDefaults(req.Options, false))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeBuild(w, res)
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	res := rec.Result()
	if !res.Success || res.DryRun {
		s.writeError(w, r, aerrors.New(aerrors.ErrCodeNotFound, "build %s has no image", rec.ID))
		return
	}
	img, err := res.DecodeImage()
	if err != nil {
		s.writeError(w, r, aerrors.Wrap(aerrors.ErrCodeInternal, err, "decode stored image"))
		return
	}
	w.Header().Set("Content-Type", contentType(res.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// =============================================================================
// Helpers
// =============================================================================

// lookup loads the record named by the {id} URL parameter.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Record, bool) {
	if s.deps.Store == nil {
		s.writeError(w, r, aerrors.New(aerrors.ErrCodeUnsupported, "no build store configured"))
		return nil, false
	}
	id := chi.URLParam(r, "id")
	rec, err := s.deps.Store.Get(r.Context(), id)
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
		s.writeError(w, r, aerrors.Wrap(aerrors.ErrCodeNotFound, err, "build %s", id))
		return nil, false
	case err != nil:
		s.writeError(w, r, err)
		return nil, false
	}
	return rec, true
}

// withDefaults fills unset request options from the server defaults. The
// default format is applied only when withFormat is set.
func (s *Server) withDefaults(opts pipeline.Options, withFormat bool) pipeline.Options {
	d := s.deps.Defaults
	if opts.Layout == "" {
		opts.Layout = d.Layout
	}
	if opts.Scale == 0 {
		opts.Scale = d.Scale
	}
	if withFormat && opts.Format == "" {
		opts.Format = d.Format
	}
	if opts.GraphAttrs == nil {
		opts.GraphAttrs = d.GraphAttrs
	}
	opts.Renderer = d.Renderer
	opts.Logger = d.Logger
	opts.OnStep = nil
	return opts
}

// decode reads a JSON body, rejecting unknown fields.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Code:  string(aerrors.ErrCodeInvalidInput),
			})
			return false
		}
		s.writeError(w, r, aerrors.Wrap(aerrors.ErrCodeInvalidInput, err, "invalid request body"))
		return false
	}
	return true
}

// writeBuild writes a pipeline result. A failed build is reported with
// 422 and the full result body so callers can see which step failed.
func (s *Server) writeBuild(w http.ResponseWriter, res *pipeline.Result) {
	status := http.StatusOK
	if !res.Build.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, DiagramResponse{
		ID:       res.RecordID,
		PlanHash: res.PlanHash,
		Cached:   res.CacheInfo.ArtifactHit,
		Result:   res.Build,
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := aerrors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, ErrorResponse{Error: aerrors.UserMessage(err), Code: string(code)})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code aerrors.Code) int {
	switch code {
	case aerrors.ErrCodeInvalidInput, aerrors.ErrCodeInvalidParameter, aerrors.ErrCodeInvalidFormat,
		aerrors.ErrCodeInvalidAnalysis, aerrors.ErrCodeInvalidPlan, aerrors.ErrCodeCommandNotFound:
		return http.StatusBadRequest
	case aerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case aerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

var imageTypes = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
	"pdf": "application/pdf",
}

func contentType(format string) string {
	if ct, ok := imageTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

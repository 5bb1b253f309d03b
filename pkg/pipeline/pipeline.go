// Package pipeline provides the analysis → plan → diagram pipeline shared by
// the CLI and the API server.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Plan: turn an analysis into a command plan ([plan.Build])
//  2. Build: dispatch the plan in a fresh session and render the diagram
//
// Both stages are cached. Plans are keyed by the analysis content and the
// plan options; build results are keyed by the plan hash and the render
// options. Dry runs and failed builds are never cached. When a record store
// is configured, every build is stored as a [session.Record].
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, registry, logger)
//	res, err := runner.Execute(ctx, analysis, pipeline.Options{Format: "svg"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !res.Build.Success {
//	    log.Fatal(res.Build.Errors)
//	}
//	os.WriteFile("out.svg", res.Build.Image, 0o644)
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archviz/pkg/cache"
	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/dispatch"
	"github.com/matzehuels/archviz/pkg/errors"
	"github.com/matzehuels/archviz/pkg/plan"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultScale is the PNG rasterization scale.
	DefaultScale = 2.0

	// MaxScale bounds the PNG scale so a request cannot ask for a huge
	// raster.
	MaxScale = 8.0
)

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. It supports JSON for API requests.
type Options struct {
	// Plan options
	Title   string `json:"title,omitempty"`
	Layout  string `json:"layout,omitempty"`
	Pattern string `json:"pattern,omitempty"`

	// GraphAttrs are extra Graphviz graph attributes (for example dpi).
	GraphAttrs map[string]string `json:"graph_attrs,omitempty"`

	// Build options. An empty Format keeps the plan's own format.
	Format  string  `json:"format,omitempty"`
	Scale   float64 `json:"scale,omitempty"`
	DryRun  bool    `json:"dry_run,omitempty"`
	Refresh bool    `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger       `json:"-"`
	Renderer diagram.Renderer  `json:"-"` // replaces the Graphviz renderer
	OnStep   dispatch.StepFunc `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Plan is the plan that was dispatched.
	Plan *plan.Plan

	// PlanHash is the content hash of Plan.
	PlanHash string

	// Build is the dispatch outcome. Build.Success reports whether the
	// diagram was produced.
	Build *dispatch.Result

	// RecordID identifies the stored build record, if a store is
	// configured.
	RecordID string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Steps      int
	Components int
	Warnings   int
	PlanTime   time.Duration
	BuildTime  time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	PlanHit     bool
	ArtifactHit bool
}

// ValidateAndSetDefaults normalizes the options and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	if o.Format != "" {
		if err := errors.ValidateFormat(o.Format); err != nil {
			return err
		}
	}

	o.Layout = strings.ToUpper(strings.TrimSpace(o.Layout))
	if o.Layout == "" {
		o.Layout = plan.DefaultLayout
	}
	if err := plan.ValidateLayout(o.Layout); err != nil {
		return err
	}

	o.Pattern = strings.ToLower(strings.TrimSpace(o.Pattern))
	if o.Pattern != "" {
		if _, err := plan.LookupPattern(o.Pattern); err != nil {
			return err
		}
	}

	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 || o.Scale > MaxScale {
		return errors.New(errors.ErrCodeInvalidInput, "invalid scale %g: must be in (0, %g]", o.Scale, MaxScale)
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// PlanOptions returns the options for [plan.Build]. The plan itself is
// never a dry run; DryRun is applied at dispatch so cached plans serve
// both.
func (o *Options) PlanOptions() plan.Options {
	return plan.Options{
		Title:      o.Title,
		Layout:     o.Layout,
		Pattern:    o.Pattern,
		Format:     o.Format,
		GraphAttrs: o.GraphAttrs,
	}
}

// DispatchOptions returns the per-build overrides for the dispatcher.
func (o *Options) DispatchOptions() dispatch.Options {
	return dispatch.Options{Format: o.Format, DryRun: o.DryRun}
}

// PlanKeyOpts returns cache key options for plan generation.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	return cache.PlanKeyOpts{
		Title:      o.Title,
		Layout:     o.Layout,
		Pattern:    o.Pattern,
		Format:     o.Format,
		GraphAttrs: o.GraphAttrs,
	}
}

// ArtifactKeyOpts returns cache key options for build results.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: o.Format, Scale: o.Scale}
}

package dispatch

import (
	"cmp"
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archviz/pkg/command"
	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/errors"
	"github.com/matzehuels/archviz/pkg/observability"
	"github.com/matzehuels/archviz/pkg/plan"
)

// materializeCommands are the command names that finish a build.
var materializeCommands = []string{"materialize", "render_diagram"}

// StepFunc is called after every step with its 1-based position among the
// plan's steps.
type StepFunc func(index, total int, step Step)

// Options adjusts how a plan is dispatched.
type Options struct {
	// Format overrides the output format of materialize steps when set.
	Format string

	// DryRun forces every materialize step to skip rendering.
	DryRun bool
}

// Option configures a [Dispatcher].
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithStepFunc registers a callback invoked after every step.
func WithStepFunc(fn StepFunc) Option {
	return func(d *Dispatcher) { d.onStep = fn }
}

// Dispatcher executes plans against an engine using a shared registry.
//
// A Dispatcher holds no per-build state and may be shared; each concurrent
// build must use its own engine.
type Dispatcher struct {
	registry *command.Registry
	logger   *log.Logger
	onStep   StepFunc
}

// New creates a dispatcher resolving commands through registry.
func New(registry *command.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: registry, logger: log.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher resolves commands from.
func (d *Dispatcher) Registry() *command.Registry {
	return d.registry
}

// Run executes the plan's steps in execution order against engine.
//
// Steps naming an unknown command, and declaring steps whose parameters do
// not validate, are skipped with a warning. Any other failing step stops
// the build; the result then carries its error and the nodes declared or
// realized so far, and the engine is reset. If the plan has no materialize
// step, one is run at the end with opts. Run never returns an error: every
// outcome is described by the result.
func (d *Dispatcher) Run(ctx context.Context, engine *diagram.Engine, p *plan.Plan, opts Options) *Result {
	start := time.Now()
	hooks := observability.Build()
	steps := slices.Clone(p.Steps)
	slices.SortStableFunc(steps, func(a, b plan.ToolCall) int { return cmp.Compare(a.Order, b.Order) })

	b := &build{
		d:      d,
		ctx:    command.WithLogger(ctx, d.logger),
		engine: engine,
		total:  len(steps),
		result: &Result{
			Title:  p.Title,
			DryRun: opts.DryRun,
		},
	}

	d.logger.Info("dispatching plan", "title", p.Title, "steps", len(steps))
	hooks.OnBuildStart(ctx, p.Title, len(steps))

	err := b.run(steps, opts)

	r := b.result
	r.GenerationTimeMS = time.Since(start).Milliseconds()
	r.Success = err == nil
	if err != nil {
		engine.Reset()
		r.Errors = append(r.Errors, err.Error())
		r.Components = b.declared
		d.logger.Error("build failed", "title", p.Title, "err", err, "duration", time.Since(start))
	} else {
		d.logger.Info("build complete",
			"title", p.Title,
			"components", len(r.Components),
			"warnings", len(r.Warnings),
			"duration", time.Since(start))
	}
	if r.Components == nil {
		r.Components = []string{}
	}
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}

	hooks.OnBuildComplete(ctx, p.Title, len(r.Components), time.Since(start), err)
	return r
}

// build holds the state of one Run.
type build struct {
	d      *Dispatcher
	ctx    context.Context
	engine *diagram.Engine
	total  int
	index  int
	result *Result

	// declared lists nodes whose declaration succeeded, for failure reports.
	declared     []string
	materialized bool
}

func (b *build) run(steps []plan.ToolCall, opts Options) error {
	for _, tc := range steps {
		b.index++
		if err := b.ctx.Err(); err != nil {
			return fmt.Errorf("build canceled before %s: %w", tc.Command, err)
		}

		cmd, err := b.d.registry.Get(tc.Command)
		if err != nil {
			b.skip(tc, err)
			continue
		}

		params := tc.Parameters
		if slices.Contains(materializeCommands, cmd.Name()) {
			params = materializeParams(params, opts)
		}
		if err := b.exec(cmd, tc.Order, params); err != nil {
			return err
		}
	}

	if b.materialized {
		return nil
	}

	// Plans without a final materialize step are finished with the defaults.
	cmd, err := b.d.registry.Get("materialize")
	if err != nil {
		return fmt.Errorf("failed to render diagram: %w", err)
	}
	b.total++
	b.index++
	return b.exec(cmd, b.index, materializeParams(nil, opts))
}

func (b *build) skip(tc plan.ToolCall, err error) {
	b.d.logger.Warn("command not found in registry, skipping", "command", tc.Command, "available", b.d.registry.Names())
	observability.Command().OnCommandSkipped(b.ctx, tc.Command, tc.Order)

	b.result.Warnings = append(b.result.Warnings, fmt.Sprintf("command %q not found; step %d skipped", tc.Command, tc.Order))
	b.report(Step{
		Order:       tc.Order,
		Command:     tc.Command,
		Description: Describe(tc.Command, tc.Parameters),
		Status:      StatusSkipped,
		Error:       err.Error(),
		ErrorType:   string(errors.GetCode(err)),
	})
}

func (b *build) exec(cmd command.Command, order int, params command.Params) error {
	hooks := observability.Command()
	name := cmd.Name()
	hooks.OnCommandStart(b.ctx, name, order)

	res := command.SafeExecute(b.ctx, cmd, b.engine, params)
	hooks.OnCommandComplete(b.ctx, name, order, res.Duration, res.Err())

	step := Step{
		Order:       order,
		Command:     name,
		Description: Describe(name, params),
		Status:      StatusOK,
		Duration:    res.Duration,
	}
	if !res.Success {
		step.Status = StatusFailed
		step.Error = res.Error
		step.ErrorType = res.ErrorType
		step.Context = res.Context
		b.report(step)

		invalid := res.ErrorType == string(errors.ErrCodeInvalidParameter)
		if !slices.Contains(materializeCommands, name) {
			if invalid {
				b.d.logger.Warn("invalid parameters, skipping command", "command", name, "order", order, "err", res.Error)
				b.result.Warnings = append(b.result.Warnings, fmt.Sprintf("step %d (%s) skipped: %s", order, name, res.Error))
				return nil
			}
			return fmt.Errorf("failed to execute command %s: %s", name, res.Error)
		}

		if dr, ok := res.Value.(*diagram.Result); ok && dr != nil {
			b.declared = dr.Components
			b.addWarnings(dr)
		} else if !invalid {
			// The recording was consumed without being realized.
			b.declared = nil
		}
		return fmt.Errorf("failed to render diagram: %s", res.Error)
	}
	b.report(step)

	switch v := res.Value.(type) {
	case command.Declared:
		if v.Kind == "node" && !slices.Contains(b.declared, v.Name) {
			b.declared = append(b.declared, v.Name)
		}
	case *diagram.Result:
		b.finish(v)
	}
	return nil
}

func (b *build) finish(dr *diagram.Result) {
	b.materialized = true
	r := b.result
	r.Title = dr.Title
	r.Format = dr.Format
	r.DryRun = dr.DryRun
	r.Components = dr.Components
	b.addWarnings(dr)
	if dr.DryRun {
		r.ImageData = diagram.DryRunPlaceholder
		return
	}
	r.Image = dr.Image
	r.ImageData = base64.StdEncoding.EncodeToString(dr.Image)
}

func (b *build) addWarnings(dr *diagram.Result) {
	for _, w := range dr.Warnings {
		b.result.Warnings = append(b.result.Warnings, w.String())
	}
}

func (b *build) report(s Step) {
	b.result.Steps = append(b.result.Steps, s)
	if b.d.onStep != nil {
		b.d.onStep(b.index, b.total, s)
	}
}

// materializeParams applies the dispatch options to a materialize step's
// parameters without modifying the plan.
func materializeParams(p command.Params, opts Options) command.Params {
	out := p.Clone()
	if opts.Format != "" {
		out[command.KeyFormat] = opts.Format
	}
	if opts.DryRun {
		out[command.KeyDryRun] = true
	}
	return out
}

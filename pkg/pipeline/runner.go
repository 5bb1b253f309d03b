package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/archviz/pkg/cache"
	"github.com/matzehuels/archviz/pkg/command"
	"github.com/matzehuels/archviz/pkg/dispatch"
	"github.com/matzehuels/archviz/pkg/observability"
	"github.com/matzehuels/archviz/pkg/plan"
	"github.com/matzehuels/archviz/pkg/session"
)

// Runner executes the pipeline with caching.
//
// The Runner holds no per-build state: every build gets its own session
// and engine, so one Runner can serve concurrent requests.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Registry *command.Registry
	Store    session.Store // optional
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil keyer means [cache.DefaultKeyer], a nil
// cache disables caching and a nil registry means the built-in commands.
func NewRunner(c cache.Cache, keyer cache.Keyer, registry *command.Registry, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if registry == nil {
		registry = command.NewRegistry(command.Builtins(), logger)
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Registry: registry,
		Logger:   logger,
	}
}

// Execute runs the complete analysis → plan → build pipeline.
func (r *Runner) Execute(ctx context.Context, a *plan.Analysis, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	planStart := time.Now()
	p, planHit, err := r.PlanWithCacheInfo(ctx, a, opts)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	planTime := time.Since(planStart)

	r.Logger.Info("planned diagram",
		"title", p.Title,
		"steps", len(p.Steps),
		"unresolved", len(p.Unresolved),
		"duration", planTime)

	res, err := r.Build(ctx, p, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.PlanTime = planTime
	res.CacheInfo.PlanHit = planHit
	return res, nil
}

// PlanWithCacheInfo builds the plan for an analysis, using the cache, and
// reports whether it was a cache hit.
func (r *Runner) PlanWithCacheInfo(ctx context.Context, a *plan.Analysis, opts Options) (*plan.Plan, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	if err := a.Validate(); err != nil {
		return nil, false, err
	}

	data, err := json.Marshal(a)
	if err != nil {
		return nil, false, fmt.Errorf("serialize analysis for cache key: %w", err)
	}
	key := r.Keyer.PlanKey(cache.Hash(data), opts.PlanKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var p plan.Plan
			if err := json.Unmarshal(cached, &p); err == nil {
				hooks.OnCacheHit(ctx, "plan")
				return &p, true, nil
			}
		}
		hooks.OnCacheMiss(ctx, "plan")
	}

	p, err := plan.Build(a, opts.PlanOptions())
	if err != nil {
		return nil, false, err
	}
	if encoded, err := json.Marshal(p); err == nil {
		if err := r.Cache.Set(ctx, key, encoded, cache.TTLPlan); err == nil {
			hooks.OnCacheSet(ctx, "plan", len(encoded))
		}
	}
	observability.Build().OnPlanBuilt(ctx, p.Title, len(p.Steps), len(p.Unresolved))
	return p, false, nil
}

// Plan is PlanWithCacheInfo without the cache hit info.
func (r *Runner) Plan(ctx context.Context, a *plan.Analysis, opts Options) (*plan.Plan, error) {
	p, _, err := r.PlanWithCacheInfo(ctx, a, opts)
	return p, err
}

// Build dispatches a plan in a new session. Successful non-dry-run results
// are cached by plan hash. A failed build is not an error: it is reported
// through Result.Build.
func (r *Runner) Build(ctx context.Context, p *plan.Plan, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	planData, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("serialize plan for cache key: %w", err)
	}
	out := &Result{Plan: p, PlanHash: cache.Hash(planData)}
	key := r.Keyer.ArtifactKey(out.PlanHash, opts.ArtifactKeyOpts())
	hooks := observability.Cache()
	start := time.Now()

	cacheable := !opts.DryRun
	if cacheable && !opts.Refresh {
		if res, ok := r.cachedBuild(ctx, key); ok {
			hooks.OnCacheHit(ctx, "artifact")
			out.Build = res
			out.CacheInfo.ArtifactHit = true
			out.RecordID = r.store(ctx, uuid.NewString(), out)
			out.fillStats(time.Since(start))
			return out, nil
		}
		hooks.OnCacheMiss(ctx, "artifact")
	}

	dispatcher := dispatch.New(r.Registry, dispatch.WithLogger(opts.Logger), dispatch.WithStepFunc(opts.OnStep))
	sess := session.New(dispatcher, NewRenderer(opts), opts.Logger)
	out.Build = sess.Run(ctx, p, opts.DispatchOptions())
	out.RecordID = r.store(ctx, sess.ID, out)
	out.fillStats(time.Since(start))

	if cacheable && out.Build.Success {
		if encoded, err := json.Marshal(out.Build); err == nil {
			if err := r.Cache.Set(ctx, key, encoded, cache.TTLArtifact); err == nil {
				hooks.OnCacheSet(ctx, "artifact", len(encoded))
			} else {
				r.Logger.Warn("could not cache build result", "err", err)
			}
		}
	}
	return out, nil
}

// cachedBuild loads a build result from the cache and restores its image.
func (r *Runner) cachedBuild(ctx context.Context, key string) (*dispatch.Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	var res dispatch.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	img, err := res.DecodeImage()
	if err != nil {
		return nil, false
	}
	res.Image = img
	return &res, true
}

// store saves the build record and returns its ID, or "" without a store.
func (r *Runner) store(ctx context.Context, id string, out *Result) string {
	if r.Store == nil {
		return ""
	}
	rec := session.NewRecord(id, out.Build, session.DefaultTTL)
	rec.PlanHash = out.PlanHash
	if err := r.Store.Put(ctx, rec); err != nil {
		r.Logger.Warn("could not store build record", "id", id, "err", err)
		return ""
	}
	return id
}

func (out *Result) fillStats(d time.Duration) {
	out.Stats.BuildTime = d
	out.Stats.Steps = len(out.Build.Steps)
	out.Stats.Components = len(out.Build.Components)
	out.Stats.Warnings = len(out.Build.Warnings)
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archviz/internal/config"
	"github.com/matzehuels/archviz/pkg/cache"
	"github.com/matzehuels/archviz/pkg/pipeline"
	"github.com/matzehuels/archviz/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by --config; empty means the default location.
	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = &cfg
	return c.cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects the backends for a command's runner.
type runnerOpts struct {
	noCache bool
	noStore bool
}

// newRunner creates a pipeline runner wired to the configured cache and
// record store.
func (c *CLI) newRunner(ctx context.Context, ro runnerOpts) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	ch, keyer, err := c.newCache(ctx, cfg, ro.noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(ch, keyer, nil, c.Logger)

	if !ro.noStore {
		store, err := c.newStore(ctx, cfg)
		if err != nil {
			_ = runner.Close()
			return nil, err
		}
		runner.Store = store
	}
	return runner, nil
}

// newCache opens the configured cache. An unreachable Redis degrades to no
// cache with a warning rather than failing the command.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, cache.Keyer, error) {
	if noCache {
		return cache.NewNullCache(), nil, nil
	}
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil, nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   cfg.Cache.RedisPrefix,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, continuing without cache", "addr", cfg.Cache.RedisAddr, "err", err)
			return cache.NewNullCache(), nil, nil
		}
		return rc, cache.NewScopedKeyer(cache.NewDefaultKeyer(), "v1"), nil
	default:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache: %w", err)
		}
		return fc, nil, nil
	}
}

// newStore opens the configured record store, or returns nil for none.
func (c *CLI) newStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendMongo:
		s, err := session.NewMongoStore(ctx, session.MongoConfig{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.MongoDatabase,
			Collection: cfg.Store.MongoCollection,
		})
		if err != nil {
			return nil, fmt.Errorf("open build store: %w", err)
		}
		return s, nil
	default:
		s, err := session.NewFileStore(cfg.Store.Dir)
		if err != nil {
			return nil, fmt.Errorf("open build store: %w", err)
		}
		return s, nil
	}
}

// cacheDir returns the configured cache directory.
func (c *CLI) cacheDir() (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	return cfg.Cache.Dir, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// buildFlags are the pipeline flags shared by build, plan and exec.
type buildFlags struct {
	title   string
	layout  string
	pattern string
	format  string
	scale   float64
	dryRun  bool
	refresh bool
	noCache bool
}

// pipelineOptions merges flags over the configured render defaults. When
// keepPlanFormat is set an unset --format leaves the plan's own format.
func (c *CLI) pipelineOptions(f buildFlags, keepPlanFormat bool) (pipeline.Options, error) {
	cfg, err := c.config()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := cfg.PipelineOptions()
	opts.Logger = c.Logger
	opts.Title = f.title
	opts.DryRun = f.dryRun
	opts.Refresh = f.refresh
	if f.layout != "" {
		opts.Layout = f.layout
	}
	if f.pattern != "" {
		opts.Pattern = f.pattern
	}
	if f.scale != 0 {
		opts.Scale = f.scale
	}
	switch {
	case f.format != "":
		opts.Format = f.format
	case keepPlanFormat:
		opts.Format = ""
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

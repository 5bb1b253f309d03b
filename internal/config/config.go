// Package config loads archviz settings from a TOML file and ARCHVIZ_*
// environment variables.
//
// The file lives at $XDG_CONFIG_HOME/archviz/config.toml (falling back to
// ~/.config/archviz/config.toml). A missing file is not an error: every
// setting has a default. Environment variables override the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/archviz/pkg/errors"
	"github.com/matzehuels/archviz/pkg/pipeline"
	"github.com/matzehuels/archviz/pkg/plan"
)

// AppName is the directory name used under the XDG config and cache roots.
const AppName = "archviz"

// Backend names shared by the cache and store sections.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the complete archviz configuration.
type Config struct {
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// RenderConfig holds build defaults.
type RenderConfig struct {
	Format string  `toml:"format"`
	Layout string  `toml:"layout"`
	Scale  float64 `toml:"scale"`
	DPI    int     `toml:"dpi"`
}

// CacheConfig selects the build cache.
type CacheConfig struct {
	Backend string `toml:"backend"` // file, redis or none
	Dir     string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
}

// StoreConfig selects where build records are kept.
type StoreConfig struct {
	Backend string `toml:"backend"` // file, mongo or none
	Dir     string `toml:"dir"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// ServerConfig configures `archviz serve`.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	Timeout      Duration `toml:"timeout"`
}

// Duration is a time.Duration that decodes from TOML strings like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Render: RenderConfig{
			Format: "png",
			Layout: "LR",
			Scale:  pipeline.DefaultScale,
		},
		Cache: CacheConfig{
			Backend:     BackendFile,
			Dir:         defaultDir("XDG_CACHE_HOME", ".cache"),
			RedisAddr:   "localhost:6379",
			RedisPrefix: AppName + ":",
		},
		Store: StoreConfig{
			Backend:         BackendFile,
			Dir:             filepath.Join(defaultDir("XDG_CONFIG_HOME", ".config"), "builds"),
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   AppName,
			MongoCollection: "builds",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 1 << 20,
			Timeout:      Duration{2 * time.Minute},
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(defaultDir("XDG_CONFIG_HOME", ".config"), "config.toml")
}

// defaultDir resolves $<env>/archviz, falling back to ~/<home>/archviz.
func defaultDir(env, home string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName)
	}
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, home, AppName)
	}
	return filepath.Join(os.TempDir(), AppName)
}

// Load reads the config file at path (DefaultPath when empty), applies
// environment overrides and validates the result. A missing file at the
// default path is ignored; a missing file at an explicit path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, errors.New(errors.ErrCodeInvalidInput, "%s: unknown keys %v", path, undecoded)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides settings from ARCHVIZ_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup("ARCHVIZ_" + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup("ARCHVIZ_" + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "ARCHVIZ_%s: not an integer", key)
		}
		*dst = n
		return nil
	}

	str("FORMAT", &c.Render.Format)
	str("LAYOUT", &c.Render.Layout)
	if v, ok := lookup("ARCHVIZ_SCALE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "ARCHVIZ_SCALE: not a number")
		}
		c.Render.Scale = f
	}
	if err := num("DPI", &c.Render.DPI); err != nil {
		return err
	}

	str("CACHE_BACKEND", &c.Cache.Backend)
	str("CACHE_DIR", &c.Cache.Dir)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	if err := num("REDIS_DB", &c.Cache.RedisDB); err != nil {
		return err
	}

	str("STORE_BACKEND", &c.Store.Backend)
	str("STORE_DIR", &c.Store.Dir)
	str("MONGO_URI", &c.Store.MongoURI)
	str("MONGO_DATABASE", &c.Store.MongoDatabase)

	str("SERVER_ADDR", &c.Server.Addr)
	return nil
}

// Validate checks backend names and render defaults.
func (c *Config) Validate() error {
	c.Render.Format = strings.ToLower(c.Render.Format)
	c.Render.Layout = strings.ToUpper(c.Render.Layout)
	if err := errors.ValidateFormat(c.Render.Format); err != nil {
		return err
	}
	if err := plan.ValidateLayout(c.Render.Layout); err != nil {
		return err
	}
	if c.Render.DPI < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render.dpi must not be negative")
	}

	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	switch c.Cache.Backend {
	case BackendNone, BackendFile, BackendRedis:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend %q: must be file, redis or none", c.Cache.Backend)
	}

	c.Store.Backend = strings.ToLower(c.Store.Backend)
	switch c.Store.Backend {
	case BackendNone, BackendFile, BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "store.backend %q: must be file, mongo or none", c.Store.Backend)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server.max_body_bytes must be positive")
	}
	return nil
}

// PipelineOptions returns build options seeded from the render section.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := pipeline.Options{
		Format: c.Render.Format,
		Layout: c.Render.Layout,
		Scale:  c.Render.Scale,
	}
	if c.Render.DPI > 0 {
		opts.GraphAttrs = map[string]string{"dpi": strconv.Itoa(c.Render.DPI)}
	}
	return opts
}

// Write saves the config as TOML, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/archviz/pkg/errors"
)

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Default()
	if cfg.Render != want.Render || cfg.Cache.Backend != BackendFile || cfg.Server.Addr != ":8080" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("an explicit missing config should be an error")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	src := `
[render]
format = "SVG"
layout = "tb"
dpi = 150

[cache]
backend = "redis"
redis_addr = "cache:6379"
redis_db = 2

[store]
backend = "mongo"
mongo_uri = "mongodb://db:27017"

[server]
addr = ":9000"
timeout = "45s"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Render.Format != "svg" || cfg.Render.Layout != "TB" || cfg.Render.DPI != 150 {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisAddr != "cache:6379" || cfg.Cache.RedisDB != 2 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Store.Backend != BackendMongo || cfg.Store.MongoDatabase != AppName {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.Timeout.Duration != 45*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.MaxBodyBytes != Default().Server.MaxBodyBytes {
		t.Error("unset keys should keep their defaults")
	}

	opts := cfg.PipelineOptions()
	if opts.Format != "svg" || opts.GraphAttrs["dpi"] != "150" {
		t.Errorf("PipelineOptions() = %+v", opts)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[render]\ncolour = \"red\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load() error = %v, want INVALID_INPUT", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ARCHVIZ_FORMAT":        "pdf",
		"ARCHVIZ_CACHE_BACKEND": "none",
		"ARCHVIZ_REDIS_DB":      "5",
		"ARCHVIZ_SCALE":         "1.5",
		"ARCHVIZ_SERVER_ADDR":   "127.0.0.1:0",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.Render.Format != "pdf" || cfg.Cache.Backend != BackendNone || cfg.Cache.RedisDB != 5 ||
		cfg.Render.Scale != 1.5 || cfg.Server.Addr != "127.0.0.1:0" {
		t.Errorf("cfg = %+v", cfg)
	}

	env["ARCHVIZ_REDIS_DB"] = "two"
	if err := cfg.applyEnv(lookup); err == nil {
		t.Error("a non-numeric ARCHVIZ_REDIS_DB should be rejected")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"format", func(c *Config) { c.Render.Format = "gif" }},
		{"layout", func(c *Config) { c.Render.Layout = "up" }},
		{"dpi", func(c *Config) { c.Render.DPI = -1 }},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"store backend", func(c *Config) { c.Store.Backend = "redis" }},
		{"body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Render.Format = "svg"
	cfg.Server.Timeout = Duration{10 * time.Second}
	if err := cfg.Write(path); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Render.Format != "svg" || got.Server.Timeout.Duration != 10*time.Second {
		t.Errorf("round trip = %+v", got)
	}
}

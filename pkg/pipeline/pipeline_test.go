package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archviz/pkg/cache"
	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/errors"
	"github.com/matzehuels/archviz/pkg/plan"
	"github.com/matzehuels/archviz/pkg/session"
)

type countingRenderer struct {
	calls atomic.Int32
	err   error
}

func (r *countingRenderer) Render(_ context.Context, g *diagram.Graph, format string, w io.Writer) error {
	r.calls.Add(1)
	if r.err != nil {
		return r.err
	}
	_, err := fmt.Fprintf(w, "%s:%d", format, g.NodeCount())
	return err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func shopAnalysis() *plan.Analysis {
	return &plan.Analysis{
		Title: "Shop",
		Services: []plan.Service{
			{Name: "api", Kind: "lambda"},
			{Name: "db", Kind: "rds"},
		},
		Clusters: []plan.Cluster{
			{Name: "backend", Label: "Backend", Members: []string{"api", "db"}},
		},
		Connections: []plan.Connection{{Source: "api", Target: "db"}},
	}
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil, quietLogger())
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantErr    bool
		wantLayout string
		wantScale  float64
		wantFormat string
	}{
		{name: "defaults", opts: Options{}, wantLayout: "LR", wantScale: DefaultScale},
		{name: "normalized", opts: Options{Layout: " tb ", Format: "SVG", Scale: 1}, wantLayout: "TB", wantScale: 1, wantFormat: "svg"},
		{name: "bad layout", opts: Options{Layout: "diagonal"}, wantErr: true},
		{name: "bad format", opts: Options{Format: "gif"}, wantErr: true},
		{name: "negative scale", opts: Options{Scale: -1}, wantErr: true},
		{name: "huge scale", opts: Options{Scale: 100}, wantErr: true},
		{name: "unknown pattern", opts: Options{Pattern: "monolith"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateAndSetDefaults()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateAndSetDefaults() error: %v", err)
			}
			if opts.Layout != tt.wantLayout || opts.Scale != tt.wantScale || opts.Format != tt.wantFormat {
				t.Errorf("opts = %+v", opts)
			}
			if opts.Logger == nil {
				t.Error("Logger should default to a discard logger")
			}
		})
	}
}

func TestPlan_Pattern(t *testing.T) {
	r := newFileRunner(t)
	ctx := context.Background()

	plain, err := r.Plan(ctx, shopAnalysis(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	layered, hit, err := r.PlanWithCacheInfo(ctx, shopAnalysis(), Options{Pattern: "Layered_Architecture"})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("a different pattern must not reuse the cached plan")
	}
	if len(layered.Steps) != len(plain.Steps)+3 {
		t.Errorf("steps = %d, want the pattern's 3 clusters added to %d", len(layered.Steps), len(plain.Steps))
	}
	if got := layered.Steps[1].Parameters.String("name"); got != "presentation" {
		t.Errorf("first cluster = %q, want presentation", got)
	}
}

func TestExecute_DryRun(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())
	res, err := r.Execute(context.Background(), shopAnalysis(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !res.Build.Success || !res.Build.DryRun {
		t.Fatalf("Build = %+v", res.Build)
	}
	if res.Build.ImageData != diagram.DryRunPlaceholder {
		t.Errorf("ImageData = %q", res.Build.ImageData)
	}
	if res.Stats.Components != 2 || res.Stats.Steps != len(res.Plan.Steps) {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.PlanHash == "" {
		t.Error("PlanHash should be set")
	}
}

func TestExecute_InvalidAnalysis(t *testing.T) {
	r := NewRunner(nil, nil, nil, quietLogger())
	a := shopAnalysis()
	a.Services = append(a.Services, plan.Service{Name: "api"})
	_, err := r.Execute(context.Background(), a, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidAnalysis) {
		t.Fatalf("Execute() error = %v, want INVALID_ANALYSIS", err)
	}
}

func TestExecute_Caching(t *testing.T) {
	r := newFileRunner(t)
	rend := &countingRenderer{}
	ctx := context.Background()

	first, err := r.Execute(ctx, shopAnalysis(), Options{Format: "svg", Renderer: rend})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.PlanHit || first.CacheInfo.ArtifactHit {
		t.Errorf("first run CacheInfo = %+v, want misses", first.CacheInfo)
	}
	if string(first.Build.Image) != "svg:2" {
		t.Fatalf("Image = %q", first.Build.Image)
	}

	second, err := r.Execute(ctx, shopAnalysis(), Options{Format: "svg", Renderer: rend})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.PlanHit || !second.CacheInfo.ArtifactHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if string(second.Build.Image) != "svg:2" {
		t.Errorf("cached Image = %q", second.Build.Image)
	}
	if second.PlanHash != first.PlanHash {
		t.Error("identical inputs should produce the same plan hash")
	}
	if n := rend.calls.Load(); n != 1 {
		t.Errorf("renderer called %d times, want 1", n)
	}

	third, err := r.Execute(ctx, shopAnalysis(), Options{Format: "svg", Renderer: rend, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.PlanHit || third.CacheInfo.ArtifactHit {
		t.Errorf("Refresh should bypass the cache, got %+v", third.CacheInfo)
	}
	if n := rend.calls.Load(); n != 2 {
		t.Errorf("renderer called %d times, want 2", n)
	}
}

func TestBuild_DryRunNotCached(t *testing.T) {
	r := newFileRunner(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := r.Execute(ctx, shopAnalysis(), Options{DryRun: true})
		if err != nil {
			t.Fatal(err)
		}
		if res.CacheInfo.ArtifactHit {
			t.Errorf("run %d: dry runs must not be served from the cache", i)
		}
	}
}

func TestBuild_FailureNotCached(t *testing.T) {
	r := newFileRunner(t)
	rend := &countingRenderer{err: fmt.Errorf("dot crashed")}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := r.Execute(ctx, shopAnalysis(), Options{Renderer: rend})
		if err != nil {
			t.Fatalf("a failed build is reported in the result, got error %v", err)
		}
		if res.Build.Success || res.CacheInfo.ArtifactHit {
			t.Errorf("run %d: Build = %+v, CacheInfo = %+v", i, res.Build, res.CacheInfo)
		}
	}
	if n := rend.calls.Load(); n != 2 {
		t.Errorf("renderer called %d times, want 2", n)
	}
}

func TestBuild_StoresRecords(t *testing.T) {
	store := session.NewMemoryStore()
	r := NewRunner(nil, nil, nil, quietLogger())
	r.Store = store
	ctx := context.Background()

	res, err := r.Execute(ctx, shopAnalysis(), Options{Renderer: &countingRenderer{}})
	if err != nil {
		t.Fatal(err)
	}
	if res.RecordID == "" {
		t.Fatal("RecordID should be set when a store is configured")
	}
	rec, err := store.Get(ctx, res.RecordID)
	if err != nil {
		t.Fatalf("store.Get() error: %v", err)
	}
	if !rec.Success || rec.PlanHash != res.PlanHash || rec.Title != "Shop" {
		t.Errorf("record = %+v", rec)
	}
	img, err := rec.Result().DecodeImage()
	if err != nil || len(img) == 0 {
		t.Errorf("stored record should carry the image, err = %v", err)
	}
}

func TestBuild_ImportedPlanKeepsFormat(t *testing.T) {
	p, err := plan.Build(shopAnalysis(), plan.Options{Format: "pdf"})
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(nil, nil, nil, quietLogger())
	res, err := r.Build(context.Background(), p, Options{Renderer: &countingRenderer{}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Build.Format != "pdf" || string(res.Build.Image) != "pdf:2" {
		t.Errorf("Format = %q, Image = %q", res.Build.Format, res.Build.Image)
	}
}

func TestRunner_ConcurrentBuilds(t *testing.T) {
	r := newFileRunner(t)
	rend := &countingRenderer{}
	done := make(chan *Result, 4)
	for i := 0; i < 4; i++ {
		go func(i int) {
			a := shopAnalysis()
			a.Title = fmt.Sprintf("Shop %d", i)
			res, err := r.Execute(context.Background(), a, Options{Renderer: rend, Format: "svg"})
			if err != nil {
				done <- nil
				return
			}
			done <- res
		}(i)
	}
	for i := 0; i < 4; i++ {
		res := <-done
		if res == nil || !res.Build.Success {
			t.Errorf("concurrent build failed: %+v", res)
		}
	}
}

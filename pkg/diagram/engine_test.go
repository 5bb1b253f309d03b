package diagram

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archviz/pkg/errors"
)

// fakeRenderer writes a deterministic payload and records what it was given.
type fakeRenderer struct {
	calls  int
	graph  *Graph
	format string
	err    error
	empty  bool
}

func (r *fakeRenderer) Render(_ context.Context, g *Graph, format string, w io.Writer) error {
	r.calls++
	r.graph = g
	r.format = format
	if r.err != nil {
		return r.err
	}
	if r.empty {
		return nil
	}
	_, err := fmt.Fprintf(w, "%s:%s:%d", format, g.Title, g.NodeCount())
	return err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestEngine(t *testing.T, r Renderer) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	return New(r, WithLogger(quietLogger()), WithTempDir(dir)), dir
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned up: %d entries left", len(entries))
	}
}

func TestEngine_DeclareBeforeInitialize(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRenderer{})

	tests := []struct {
		name string
		fn   func() error
	}{
		{"cluster", func() error { return e.DeclareCluster("c", "C", nil, "") }},
		{"node", func() error { return e.DeclareNode("n", "ec2", "", "N", nil) }},
		{"connection", func() error { return e.DeclareConnection("a", "b", "", nil) }},
		{"materialize", func() error {
			_, err := e.Materialize(context.Background(), "png", false)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if !errors.Is(err, errors.ErrCodeNotInitialized) {
				t.Errorf("got %v, want NOT_INITIALIZED", err)
			}
		})
	}

	if !e.Pending().Empty() {
		t.Error("failed declarations should not record anything")
	}
}

func TestEngine_InitializeDefaults(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Initialize("  ", nil)

	p := e.Pending()
	if !p.Initialized {
		t.Fatal("Initialize() should open a build")
	}
	if p.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", p.Title, DefaultTitle)
	}
}

func TestEngine_InitializeDiscardsOpenBuild(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Initialize("first", nil)
	_ = e.DeclareNode("a", "ec2", "", "", nil)

	e.Initialize("second", nil)
	p := e.Pending()
	if p.Title != "second" || p.Nodes != 0 {
		t.Errorf("Pending() = %+v, want fresh build titled second", p)
	}
}

func TestEngine_DryRun(t *testing.T) {
	r := &fakeRenderer{}
	e, dir := newTestEngine(t, r)

	e.Initialize("Dry", nil)
	_ = e.DeclareNode("web", "ec2", "", "Web", nil)
	_ = e.DeclareNode("db", "rds", "", "DB", nil)
	_ = e.DeclareConnection("web", "db", "", nil)

	res, err := e.Materialize(context.Background(), "png", true)
	if err != nil {
		t.Fatalf("Materialize() error: %v", err)
	}
	if r.calls != 0 {
		t.Error("dry run should not invoke the renderer")
	}
	if res.Image != nil {
		t.Error("dry run should not produce image data")
	}
	if !res.DryRun {
		t.Error("Result.DryRun should be set")
	}
	if !slices.Equal(res.Components, []string{"web", "db"}) {
		t.Errorf("Components = %v", res.Components)
	}
	if res.Edges != 1 {
		t.Errorf("Edges = %d, want 1", res.Edges)
	}
	if !e.Pending().Empty() {
		t.Error("engine should be idle after materialize")
	}
	assertDirEmpty(t, dir)
}

func TestEngine_Render(t *testing.T) {
	r := &fakeRenderer{}
	e, dir := newTestEngine(t, r)

	e.Initialize("Shop", nil)
	_ = e.DeclareNode("web", "ec2", "", "Web", nil)

	res, err := e.Materialize(context.Background(), "", false)
	if err != nil {
		t.Fatalf("Materialize() error: %v", err)
	}
	if r.format != DefaultFormat {
		t.Errorf("format = %q, want default %q", r.format, DefaultFormat)
	}
	if string(res.Image) != "png:Shop:1" {
		t.Errorf("Image = %q", res.Image)
	}
	assertDirEmpty(t, dir)
}

func TestEngine_RenderFailure(t *testing.T) {
	tests := []struct {
		name string
		r    *fakeRenderer
	}{
		{"renderer error", &fakeRenderer{err: fmt.Errorf("dot crashed")}},
		{"empty artifact", &fakeRenderer{empty: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, dir := newTestEngine(t, tt.r)
			e.Initialize("Broken", nil)
			_ = e.DeclareNode("a", "ec2", "", "", nil)

			res, err := e.Materialize(context.Background(), "svg", false)
			if !errors.Is(err, errors.ErrCodeRendering) {
				t.Errorf("err = %v, want RENDERING_FAILED", err)
			}
			if res == nil || !slices.Equal(res.Components, []string{"a"}) || res.Image != nil {
				t.Errorf("failed render should return the realized components without an image, got %+v", res)
			}
			if !e.Pending().Empty() {
				t.Error("engine should be idle after a failed render")
			}
			assertDirEmpty(t, dir)
		})
	}
}

func TestEngine_Reset(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Reset()

	e.Initialize("x", nil)
	_ = e.DeclareNode("a", "ec2", "", "", nil)
	e.Reset()
	if e.Pending().Initialized || !e.Pending().Empty() {
		t.Errorf("Pending() = %+v, want idle", e.Pending())
	}
	if err := e.DeclareNode("b", "ec2", "", "", nil); !errors.Is(err, errors.ErrCodeNotInitialized) {
		t.Errorf("err = %v, want NOT_INITIALIZED", err)
	}
}

func TestEngine_NoRenderer(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Initialize("x", nil)
	if _, err := e.Materialize(context.Background(), "png", false); !errors.Is(err, errors.ErrCodeRendering) {
		t.Errorf("err = %v, want RENDERING_FAILED", err)
	}
}

func TestEngine_InvalidFormat(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRenderer{})
	e.Initialize("x", nil)
	if _, err := e.Materialize(context.Background(), "gif", false); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
	if !e.Pending().Empty() {
		t.Error("engine should be idle after a rejected materialize")
	}
}

func TestEngine_CanceledContext(t *testing.T) {
	r := &fakeRenderer{}
	e, _ := newTestEngine(t, r)
	e.Initialize("x", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Materialize(ctx, "png", false); err == nil {
		t.Error("Materialize() should fail on a canceled context")
	}
	if r.calls != 0 {
		t.Error("renderer should not run after cancellation")
	}
}

func TestEngine_Reuse(t *testing.T) {
	e, _ := newTestEngine(t, &fakeRenderer{})

	e.Initialize("one", nil)
	_ = e.DeclareNode("a", "ec2", "", "", nil)
	if _, err := e.Materialize(context.Background(), "png", true); err != nil {
		t.Fatal(err)
	}

	if err := e.DeclareNode("late", "ec2", "", "", nil); !errors.Is(err, errors.ErrCodeNotInitialized) {
		t.Errorf("declaration after materialize: err = %v, want NOT_INITIALIZED", err)
	}

	e.Initialize("two", nil)
	_ = e.DeclareNode("b", "ec2", "", "", nil)
	res, err := e.Materialize(context.Background(), "png", true)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Components, []string{"b"}) {
		t.Errorf("second build leaked state: Components = %v", res.Components)
	}
	if res.Title != "two" {
		t.Errorf("Title = %q, want two", res.Title)
	}
}

func TestEngine_Redeclare(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Initialize("x", nil)
	_ = e.DeclareNode("a", "ec2", "", "First", nil)
	_ = e.DeclareNode("a", "rds", "", "Second", nil)

	if n := e.Pending().Nodes; n != 1 {
		t.Errorf("Nodes = %d, want 1", n)
	}

	res, err := e.Materialize(context.Background(), "png", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.WarningsOf(WarnRedeclared)) != 1 {
		t.Errorf("warnings = %v, want one redeclared", res.Warnings)
	}
	n := res.Graph.Root.Nodes[0]
	if n.Kind != "rds" || n.Label != "Second" {
		t.Errorf("last declaration should win, got %+v", n)
	}
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"My Diagram", "my_diagram"},
		{"  E-Commerce / Platform!  ", "e_commerce_platform"},
		{"***", "diagram"},
		{"", "diagram"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := artifactName(tt.title); got != tt.want {
				t.Errorf("artifactName(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

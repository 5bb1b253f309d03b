package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/archviz/pkg/diagram"
)

func sampleGraph() *diagram.Graph {
	api := &diagram.Node{Name: "api", Label: "API", Kind: "apigateway"}
	db := &diagram.Node{Name: "db", Label: "Orders DB", Kind: "rds"}
	worker := &diagram.Node{Name: "worker", Label: "Worker", Kind: "lambda", Attrs: diagram.Attrs{"fillcolor": "#ffffff"}}

	inner := &diagram.Group{Name: "data", Label: "Data Tier", Nodes: []*diagram.Node{db}}
	outer := &diagram.Group{Name: "vpc", Label: "VPC", Nodes: []*diagram.Node{worker}, Groups: []*diagram.Group{inner}}
	root := &diagram.Group{Nodes: []*diagram.Node{api}, Groups: []*diagram.Group{outer}}

	return &diagram.Graph{
		Title: "Shop",
		Attrs: diagram.Attrs{"rankdir": "TB"},
		Root:  root,
		Edges: []*diagram.Edge{
			{From: api, To: worker},
			{From: worker, To: db, Label: "writes", Attrs: diagram.Attrs{"style": "dashed"}},
		},
	}
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(sampleGraph())

	for _, want := range []string{
		"digraph G",
		`label="Shop"`,
		`"api" [`,
		`"api" -> "worker";`,
		`"worker" -> "db" [label="writes", style="dashed"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q\n%s", want, dot)
		}
	}
}

func TestToDOT_GraphAttrsOverrideDefaults(t *testing.T) {
	dot := ToDOT(sampleGraph())

	if !strings.Contains(dot, `rankdir="TB"`) {
		t.Error("ToDOT() should use the diagram's rankdir")
	}
	if strings.Contains(dot, `rankdir="LR"`) {
		t.Error("ToDOT() should not keep the default rankdir when overridden")
	}
	if !strings.Contains(dot, `splines="ortho"`) {
		t.Error("ToDOT() missing default splines")
	}
}

func TestToDOT_NestedClusters(t *testing.T) {
	dot := ToDOT(sampleGraph())

	outer := strings.Index(dot, `subgraph "cluster_vpc"`)
	inner := strings.Index(dot, `subgraph "cluster_data"`)
	if outer < 0 || inner < 0 {
		t.Fatalf("ToDOT() missing cluster subgraphs\n%s", dot)
	}
	if inner < outer {
		t.Error("inner cluster should be written inside the outer one")
	}
	if !strings.Contains(dot, `label="Data Tier"`) {
		t.Error("ToDOT() missing cluster label")
	}
	if !strings.Contains(dot, `fillcolor="#e3f2fd"`) {
		t.Error("ToDOT() missing default cluster fill")
	}
}

func TestNodeAttrs(t *testing.T) {
	tests := []struct {
		name      string
		node      *diagram.Node
		wantShape string
		wantFill  string
		wantLabel string
	}{
		{
			name:      "kind representation",
			node:      &diagram.Node{Name: "db", Label: "DB", Kind: "rds"},
			wantShape: "cylinder",
			wantFill:  "#e8eaf6",
			wantLabel: "DB\nRDS",
		},
		{
			name:      "style overrides kind",
			node:      &diagram.Node{Name: "fn", Label: "Fn", Kind: "lambda", Attrs: diagram.Attrs{"fillcolor": "#000000"}},
			wantShape: "hexagon",
			wantFill:  "#000000",
			wantLabel: "Fn\nLambda",
		},
		{
			name:      "unknown kind falls back",
			node:      &diagram.Node{Name: "x", Kind: "mainframe"},
			wantShape: "box3d",
			wantFill:  "#fff3e0",
			wantLabel: "x\nEC2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := nodeAttrs(tt.node)
			if attrs["shape"] != tt.wantShape {
				t.Errorf("shape = %q, want %q", attrs["shape"], tt.wantShape)
			}
			if attrs["fillcolor"] != tt.wantFill {
				t.Errorf("fillcolor = %q, want %q", attrs["fillcolor"], tt.wantFill)
			}
			if attrs["label"] != tt.wantLabel {
				t.Errorf("label = %q, want %q", attrs["label"], tt.wantLabel)
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), `digraph G { a -> b; }`)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}

func TestRenderer_SVG(t *testing.T) {
	var buf bytes.Buffer
	if err := New().Render(context.Background(), sampleGraph(), "svg", &buf); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("Render() svg output missing <svg> tag")
	}
}

func TestRenderer_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := New().Render(context.Background(), sampleGraph(), "gif", &buf); err == nil {
		t.Error("Render() should reject unsupported formats")
	}
}

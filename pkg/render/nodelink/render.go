package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/render"
)

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) Option {
	return func(r *Renderer) { r.scale = s }
}

// WithLogger sets the renderer's logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// Renderer draws realized diagrams with Graphviz. It implements
// [diagram.Renderer].
//
// SVG is produced in-process. PNG and PDF are converted from the SVG and
// require rsvg-convert.
type Renderer struct {
	scale  float64
	logger *log.Logger
}

// New creates a Graphviz renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{scale: 2.0, logger: log.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ diagram.Renderer = (*Renderer)(nil)

// Render writes g to w in format.
func (r *Renderer) Render(ctx context.Context, g *diagram.Graph, format string, w io.Writer) error {
	dot := ToDOT(g)
	r.logger.Debug("generated DOT", "bytes", len(dot), "nodes", g.NodeCount(), "edges", len(g.Edges))

	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return err
	}

	var out []byte
	switch format {
	case "svg":
		out = svg
	case "png":
		out, err = render.ToPNG(ctx, svg, r.scale)
	case "pdf":
		out, err = render.ToPDF(ctx, svg)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return err
	}

	_, err = w.Write(out)
	return err
}

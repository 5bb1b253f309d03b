// Package render provides output conversion for rendered diagrams.
//
// # Overview
//
// Diagrams are laid out and drawn as SVG by the [nodelink] subpackage.
// This package converts that SVG into the other supported formats using the
// external rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// Use [Available] to check for rsvg-convert before requesting PNG or PDF
// output.
//
// [nodelink]: github.com/matzehuels/archviz/pkg/render/nodelink
package render

// Package nodelink renders realized architecture diagrams with Graphviz.
//
// # Overview
//
// A [diagram.Graph] is converted to DOT source by [ToDOT]: clusters become
// nested "cluster_" subgraphs, nodes take their shape and colours from
// their kind, and connections become styled edges. [RenderSVG] lays the
// DOT out in-process; PNG and PDF are converted from the SVG.
//
//	dot := nodelink.ToDOT(g)
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Most callers use [Renderer], which plugs into the diagram engine:
//
//	engine := diagram.New(nodelink.New(nodelink.WithScale(2)))
//
// # Styling
//
// [DefaultGraphAttrs], [DefaultClusterAttrs] and [DefaultEdgeAttrs] are
// written first; attributes carried by the diagram override them.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink

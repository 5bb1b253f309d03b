package nodelink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/archviz/pkg/diagram"
)

// Default attributes applied before the diagram's own attributes, so a
// diagram only needs to carry what it overrides.
var (
	DefaultGraphAttrs = diagram.Attrs{
		"rankdir":   "LR",
		"splines":   "ortho",
		"nodesep":   "1.8",
		"ranksep":   "3.0",
		"compound":  "true",
		"bgcolor":   "#f8f9fa",
		"fontname":  "Arial",
		"fontsize":  "14",
		"fontcolor": "#2c3e50",
		"pad":       "1.2",
		"dpi":       "150",
		"labelloc":  "t",
	}

	DefaultClusterAttrs = diagram.Attrs{
		"style":     "rounded,filled",
		"fillcolor": "#e3f2fd",
		"color":     "#1976d2",
		"penwidth":  "2",
		"fontname":  "Arial Bold",
		"fontsize":  "16",
		"fontcolor": "#1976d2",
		"margin":    "30",
	}

	DefaultEdgeAttrs = diagram.Attrs{
		"color":     "#1976d2",
		"penwidth":  "2.0",
		"arrowsize": "1.1",
	}

	defaultNodeAttrs = diagram.Attrs{
		"style":    "filled",
		"fontname": "Arial",
		"fontsize": "13",
		"margin":   "0.3,0.2",
	}
)

// ToDOT converts a realized diagram to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Each group becomes a "cluster_" subgraph nested the same way the groups
// are. Node kinds select shape and colours from [diagram.RepresentationOf];
// explicit node style attributes win over the kind's representation.
func ToDOT(g *diagram.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")

	attrs := DefaultGraphAttrs.Clone().Merge(g.Attrs)
	if g.Title != "" {
		attrs["label"] = g.Title
	}
	for _, k := range attrs.Keys() {
		fmt.Fprintf(&buf, "  %s=%q;\n", k, attrs[k])
	}
	fmt.Fprintf(&buf, "  node [%s];\n", fmtAttrs(defaultNodeAttrs))
	fmt.Fprintf(&buf, "  edge [%s];\n", fmtAttrs(DefaultEdgeAttrs))
	buf.WriteString("\n")

	if g.Root != nil {
		writeGroup(&buf, g.Root, 1)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q", e.From.Name, e.To.Name)
		ea := e.Attrs.Clone()
		if e.Label != "" {
			ea["label"] = e.Label
		}
		if len(ea) > 0 {
			fmt.Fprintf(&buf, " [%s]", fmtAttrs(ea))
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeGroup(buf *bytes.Buffer, grp *diagram.Group, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range grp.Nodes {
		fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.Name, fmtAttrs(nodeAttrs(n)))
	}
	for _, child := range grp.Groups {
		fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+child.Name)
		ca := DefaultClusterAttrs.Clone().Merge(child.Attrs)
		label := child.Label
		if label == "" {
			label = child.Name
		}
		ca["label"] = label
		for _, k := range ca.Keys() {
			fmt.Fprintf(buf, "%s  %s=%q;\n", indent, k, ca[k])
		}
		writeGroup(buf, child, depth+1)
		fmt.Fprintf(buf, "%s}\n", indent)
	}
}

func nodeAttrs(n *diagram.Node) diagram.Attrs {
	rep := diagram.RepresentationOf(n.Kind)
	attrs := diagram.Attrs{
		"label":     fmtLabel(n, rep),
		"shape":     rep.Shape,
		"fillcolor": rep.FillColor,
		"color":     rep.Color,
	}
	return attrs.Merge(n.Attrs)
}

func fmtLabel(n *diagram.Node, rep diagram.Representation) string {
	label := n.Label
	if label == "" {
		label = n.Name
	}
	if rep.Caption == "" {
		return label
	}
	return label + "\n" + rep.Caption
}

func fmtAttrs(a diagram.Attrs) string {
	parts := make([]string, 0, len(a))
	for _, k := range a.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%q", k, a[k]))
	}
	return strings.Join(parts, ", ")
}

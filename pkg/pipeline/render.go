package pipeline

import (
	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/render/nodelink"
)

// NewRenderer returns the renderer a build uses: opts.Renderer when set,
// otherwise the Graphviz renderer at opts.Scale.
func NewRenderer(opts Options) diagram.Renderer {
	if opts.Renderer != nil {
		return opts.Renderer
	}
	return nodelink.New(nodelink.WithScale(opts.Scale), nodelink.WithLogger(opts.Logger))
}

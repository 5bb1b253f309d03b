package command

import (
	"context"
	"maps"

	"github.com/matzehuels/archviz/pkg/diagram"
)

// Initialize parameter keys.
const (
	KeyTitle      = "title"
	KeyAttributes = "attributes"
)

const initializeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "attributes": ` + attrsSchema + `
  },
  "additionalProperties": ` + scalar + `
}`

var initializeKeys = []string{KeyTitle, KeyAttributes}

type initializeCmd struct{ definition }

// NewInitialize returns the command that opens a new build. Scalar keys
// other than title and attributes are graph attributes; entries in
// attributes take precedence over them.
func NewInitialize() (Command, error) {
	d, err := newDefinition("initialize",
		"Opens a new diagram build with a title and optional graph attributes",
		initializeSchema, KeyTitle)
	if err != nil {
		return nil, err
	}
	return &initializeCmd{d}, nil
}

// newInitializeDiagram is the legacy alias that accepted graph_attr and an
// omitted title.
func newInitializeDiagram() (Command, error) {
	c, err := NewInitialize()
	if err != nil {
		return nil, err
	}
	d := c.(*initializeCmd).alias("initialize_diagram",
		map[string]string{"graph_attr": KeyAttributes},
		Params{KeyTitle: diagram.DefaultTitle})
	return &initializeCmd{d}, nil
}

func (c *initializeCmd) Validate(raw Params) (Params, error) {
	p, err := c.check(raw)
	if err != nil {
		return nil, err
	}
	attrs := p.Extra(initializeKeys...)
	maps.Copy(attrs, p.Attrs(KeyAttributes))
	return Params{
		KeyTitle:      p.String(KeyTitle),
		KeyAttributes: attrs,
	}, nil
}

func (c *initializeCmd) Execute(ctx context.Context, engine *diagram.Engine, p Params) (any, error) {
	title := p.String(KeyTitle)
	LoggerFrom(ctx).Info("initializing diagram", "title", title)
	engine.Initialize(title, p.Attrs(KeyAttributes))
	if title == "" {
		title = diagram.DefaultTitle
	}
	return Declared{Kind: "diagram", Name: title}, nil
}

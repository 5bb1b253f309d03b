package command

import (
	"context"

	"github.com/matzehuels/archviz/pkg/diagram"
)

// Materialize parameter keys.
const (
	KeyFormat = "output_format"
	KeyDryRun = "dry_run"
)

const materializeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "output_format": {"enum": ["png", "svg", "pdf"]},
    "dry_run": {"type": "boolean"}
  }
}`

type materializeCmd struct{ definition }

// NewMaterialize returns the command that realizes and renders the build.
// Its result value is a *diagram.Result. Unknown keys are ignored.
func NewMaterialize() (Command, error) {
	d, err := newDefinition("materialize",
		"Realizes every pending declaration and renders the diagram to PNG, SVG or PDF",
		materializeSchema)
	if err != nil {
		return nil, err
	}
	return &materializeCmd{d}, nil
}

func newRenderDiagram() (Command, error) {
	c, err := NewMaterialize()
	if err != nil {
		return nil, err
	}
	d := c.(*materializeCmd).alias("render_diagram", nil, nil)
	return &materializeCmd{d}, nil
}

func (c *materializeCmd) Validate(raw Params) (Params, error) {
	p, err := c.check(raw)
	if err != nil {
		return nil, err
	}
	format := p.String(KeyFormat)
	if format == "" {
		format = diagram.DefaultFormat
	}
	return Params{KeyFormat: format, KeyDryRun: p.Bool(KeyDryRun)}, nil
}

func (c *materializeCmd) Execute(ctx context.Context, engine *diagram.Engine, p Params) (any, error) {
	format, dryRun := p.String(KeyFormat), p.Bool(KeyDryRun)
	logger := LoggerFrom(ctx)
	logger.Info("materializing diagram", "format", format, "dry_run", dryRun)
	res, err := engine.Materialize(ctx, format, dryRun)
	if err != nil {
		if res != nil {
			// A render failure still reports what was realized.
			return res, err
		}
		return nil, err
	}
	logger.Info("diagram materialized", "components", len(res.Components), "warnings", len(res.Warnings))
	return res, nil
}

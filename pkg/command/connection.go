package command

import (
	"context"

	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/errors"
)

// Connection parameter keys.
const (
	KeySource = "source"
	KeyTarget = "target"

	// KeyStyle holds the collected style attributes in validated parameters.
	KeyStyle = "_style"
)

const declareConnectionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "source": {"type": "string"},
    "target": {"type": "string"},
    "label": {"type": ["string", "null"]}
  },
  "additionalProperties": ` + scalar + `
}`

var connectionKeys = []string{KeySource, KeyTarget, KeyLabel}

type declareConnectionCmd struct{ definition }

// NewDeclareConnection returns the command that records an edge between
// two nodes. Keys other than source, target and label are edge styling.
func NewDeclareConnection() (Command, error) {
	d, err := newDefinition("declare_connection",
		"Records a directed connection between two nodes with optional styling",
		declareConnectionSchema, KeySource, KeyTarget)
	if err != nil {
		return nil, err
	}
	return &declareConnectionCmd{d}, nil
}

func newConnectNodes() (Command, error) {
	c, err := NewDeclareConnection()
	if err != nil {
		return nil, err
	}
	d := c.(*declareConnectionCmd).alias("connect_nodes", nil, nil)
	return &declareConnectionCmd{d}, nil
}

func (c *declareConnectionCmd) Validate(raw Params) (Params, error) {
	p, err := c.check(raw)
	if err != nil {
		return nil, err
	}
	source, target := p.String(KeySource), p.String(KeyTarget)
	if source == "" {
		return nil, errors.Parameter("source node name must be a non-empty string")
	}
	if target == "" {
		return nil, errors.Parameter("target node name must be a non-empty string")
	}
	if source == target {
		return nil, errors.Parameter("source and target nodes must be different")
	}
	label, _ := p[KeyLabel].(string)
	return Params{
		KeySource: source,
		KeyTarget: target,
		KeyLabel:  label,
		KeyStyle:  p.Extra(connectionKeys...),
	}, nil
}

func (c *declareConnectionCmd) Execute(ctx context.Context, engine *diagram.Engine, p Params) (any, error) {
	source, target := p.String(KeySource), p.String(KeyTarget)
	LoggerFrom(ctx).Info("declaring connection", "source", source, "target", target, "label", p.String(KeyLabel))
	if err := engine.DeclareConnection(source, target, p.String(KeyLabel), p.Attrs(KeyStyle)); err != nil {
		return nil, err
	}
	return Declared{Kind: "connection", Name: source + "->" + target}, nil
}

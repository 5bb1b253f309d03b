package command

import (
	"context"

	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/errors"
)

// Node parameter keys.
const (
	KeyKind    = "kind"
	KeyCluster = "cluster_name"
)

const declareNodeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "kind": {"type": "string"},
    "cluster_name": {"type": ["string", "null"]},
    "label": {"type": ["string", "null"]}
  },
  "additionalProperties": ` + scalar + `
}`

var nodeKeys = []string{KeyName, KeyKind, KeyCluster, KeyLabel}

type declareNodeCmd struct{ definition }

// NewDeclareNode returns the command that records a node. Keys other than
// name, kind, cluster_name and label are node style attributes.
func NewDeclareNode() (Command, error) {
	d, err := newDefinition("declare_node",
		"Records a service node of a given kind, optionally inside a cluster",
		declareNodeSchema, KeyName, KeyKind)
	if err != nil {
		return nil, err
	}
	return &declareNodeCmd{d}, nil
}

func newCreateNode(name string) func() (Command, error) {
	return func() (Command, error) {
		c, err := NewDeclareNode()
		if err != nil {
			return nil, err
		}
		d := c.(*declareNodeCmd).alias(name, map[string]string{"aws_service": KeyKind}, nil)
		return &declareNodeCmd{d}, nil
	}
}

func (c *declareNodeCmd) Validate(raw Params) (Params, error) {
	p, err := c.check(raw)
	if err != nil {
		return nil, err
	}
	name := p.String(KeyName)
	if err := errors.ValidateName("node", name); err != nil {
		return nil, err
	}
	kind := diagram.NormalizeKind(p.String(KeyKind))
	if kind == "" {
		return nil, errors.Parameter("node kind must be a non-empty string")
	}
	cluster := p.String(KeyCluster)
	if p.Has(KeyCluster) && cluster == "" {
		return nil, errors.Parameter("cluster name must be a non-empty string if provided")
	}
	label := p.String(KeyLabel)
	if label == "" {
		label = name
	}
	return Params{
		KeyName:    name,
		KeyKind:    kind,
		KeyCluster: cluster,
		KeyLabel:   label,
		KeyStyle:   p.Extra(nodeKeys...),
	}, nil
}

func (c *declareNodeCmd) Execute(ctx context.Context, engine *diagram.Engine, p Params) (any, error) {
	name := p.String(KeyName)
	LoggerFrom(ctx).Info("declaring node", "name", name, "kind", p.String(KeyKind), "cluster", p.String(KeyCluster))
	if err := engine.DeclareNode(name, p.String(KeyKind), p.String(KeyCluster), p.String(KeyLabel), p.Attrs(KeyStyle)); err != nil {
		return nil, err
	}
	return Declared{Kind: "node", Name: name}, nil
}

package command

import (
	"context"
	"maps"

	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/errors"
)

// Cluster parameter keys.
const (
	KeyName   = "name"
	KeyLabel  = "label"
	KeyParent = "parent_name"
)

const declareClusterSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "label": {"type": "string"},
    "parent_name": {"type": ["string", "null"]},
    "attributes": ` + attrsSchema + `
  },
  "additionalProperties": ` + scalar + `
}`

var clusterKeys = []string{KeyName, KeyLabel, KeyParent, KeyAttributes}

type declareClusterCmd struct{ definition }

// NewDeclareCluster returns the command that records a cluster. Unknown
// scalar keys are merged into its attributes.
func NewDeclareCluster() (Command, error) {
	d, err := newDefinition("declare_cluster",
		"Records a cluster that groups related components, optionally nested in a parent",
		declareClusterSchema, KeyName, KeyLabel)
	if err != nil {
		return nil, err
	}
	return &declareClusterCmd{d}, nil
}

func newCreateCluster() (Command, error) {
	c, err := NewDeclareCluster()
	if err != nil {
		return nil, err
	}
	d := c.(*declareClusterCmd).alias("create_cluster",
		map[string]string{"graph_attr": KeyAttributes}, nil)
	return &declareClusterCmd{d}, nil
}

func (c *declareClusterCmd) Validate(raw Params) (Params, error) {
	p, err := c.check(raw)
	if err != nil {
		return nil, err
	}
	name := p.String(KeyName)
	if err := errors.ValidateName("cluster", name); err != nil {
		return nil, err
	}
	label := p.String(KeyLabel)
	if label == "" {
		return nil, errors.Parameter("cluster label must be a non-empty string")
	}
	parent := p.String(KeyParent)
	if p.Has(KeyParent) && parent == "" {
		return nil, errors.Parameter("parent cluster name must be a non-empty string if provided")
	}
	if parent == name {
		return nil, errors.Parameter("cluster %q cannot be its own parent", name)
	}
	attrs := p.Extra(clusterKeys...)
	maps.Copy(attrs, p.Attrs(KeyAttributes))
	return Params{
		KeyName:       name,
		KeyLabel:      label,
		KeyParent:     parent,
		KeyAttributes: attrs,
	}, nil
}

func (c *declareClusterCmd) Execute(ctx context.Context, engine *diagram.Engine, p Params) (any, error) {
	name := p.String(KeyName)
	LoggerFrom(ctx).Info("declaring cluster", "name", name, "label", p.String(KeyLabel), "parent", p.String(KeyParent))
	if err := engine.DeclareCluster(name, p.String(KeyLabel), p.Attrs(KeyAttributes), p.String(KeyParent)); err != nil {
		return nil, err
	}
	return Declared{Kind: "cluster", Name: name}, nil
}

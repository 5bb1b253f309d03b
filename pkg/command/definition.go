package command

import (
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// definition carries the parts every command shares: identity, the
// parameter schema and the legacy-key mapping used by alias entries.
type definition struct {
	name        string
	description string
	schemaSrc   string
	schema      *jsonschema.Schema
	required    []string

	// renames maps a legacy parameter key to its current name.
	renames map[string]string
	// defaults fill keys that legacy plans were allowed to omit.
	defaults Params
}

func newDefinition(name, description, schemaSrc string, required ...string) (definition, error) {
	s, err := compileSchema(name, schemaSrc)
	if err != nil {
		return definition{}, err
	}
	return definition{
		name:        name,
		description: description,
		schemaSrc:   schemaSrc,
		schema:      s,
		required:    required,
	}, nil
}

// alias returns a copy of d registered under a legacy name.
func (d definition) alias(name string, renames map[string]string, defaults Params) definition {
	d.name = name
	d.renames = renames
	d.defaults = defaults
	return d
}

func (d definition) Name() string        { return d.name }
func (d definition) Description() string { return d.description }
func (d definition) Schema() string      { return d.schemaSrc }

// check applies legacy renames and defaults, verifies required keys and
// validates against the schema. raw is never modified.
func (d definition) check(raw Params) (Params, error) {
	p := make(Params, len(raw))
	for k, v := range raw {
		if to, ok := d.renames[k]; ok {
			k = to
		}
		p[k] = v
	}
	for k, v := range d.defaults {
		if !p.Has(k) {
			p[k] = v
		}
	}

	for _, key := range d.required {
		if _, ok := p[key]; !ok {
			return nil, &MissingError{Command: d.name, Key: key}
		}
	}

	if err := validateSchema(d.name, d.schema, p); err != nil {
		return nil, err
	}
	return p, nil
}

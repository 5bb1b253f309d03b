package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/archviz/pkg/errors"
	"github.com/matzehuels/archviz/pkg/plan"
)

// ReadAnalysis decodes an analysis from r and validates its structure.
//
// The input is an object with a required "services" array and optional
// "clusters" and "connections" arrays:
//
//	{
//	  "title": "Shop",
//	  "services": [{"name": "api"}, {"name": "db", "kind": "rds"}],
//	  "clusters": [{"name": "data", "services": ["db"]}],
//	  "connections": [{"source": "api", "target": "db"}]
//	}
//
// ReadAnalysis does not close r.
func ReadAnalysis(r io.Reader, format Format) (*plan.Analysis, error) {
	var a plan.Analysis
	if err := decode(r, format, &a); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidAnalysis, err, "decode analysis")
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ImportAnalysis reads an analysis from a file, choosing the format from
// the file extension.
func ImportAnalysis(path string) (*plan.Analysis, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadAnalysis(f, format)
}

// ReadPlan decodes a previously exported plan from r. Steps are not
// validated here; the dispatcher validates each step against its command.
func ReadPlan(r io.Reader, format Format) (*plan.Plan, error) {
	var p plan.Plan
	if err := decode(r, format, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPlan, err, "decode plan")
	}
	if len(p.Steps) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPlan, "plan has no steps")
	}
	for i, s := range p.Steps {
		if s.Command == "" {
			return nil, errors.New(errors.ErrCodeInvalidPlan, "steps[%d]: command_name is required", i)
		}
	}
	return &p, nil
}

// ImportPlan reads a plan from a file, choosing the format from the file
// extension.
func ImportPlan(path string) (*plan.Plan, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPlan(f, format)
}

func decode(r io.Reader, format Format, v any) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		return dec.Decode(v)
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(v)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown key %q", undecoded[0].String())
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}

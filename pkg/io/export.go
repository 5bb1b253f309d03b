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

// WritePlan encodes a plan in the given format and writes it to w.
// The output can be read back with [ReadPlan] and dispatched later.
func WritePlan(p *plan.Plan, w io.Writer, format Format) error {
	if err := encode(w, format, p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportPlan writes a plan to a file, choosing the format from the file
// extension.
func ExportPlan(p *plan.Plan, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WritePlan(p, f, format)
}

// WriteAnalysis encodes an analysis in the given format.
func WriteAnalysis(a *plan.Analysis, w io.Writer, format Format) error {
	if err := encode(w, format, a); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(v)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}

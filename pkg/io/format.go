package io

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/archviz/pkg/errors"
)

// Format names a serialization format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat maps a format name or file extension ("yml", ".toml", ...)
// to a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported input format %q: must be json, yaml or toml", s)
}

// FormatOf returns the format implied by a file's extension. Files without
// an extension are treated as JSON.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

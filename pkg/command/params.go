package command

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/errors"
)

// Params holds command parameters as decoded from a plan.
type Params map[string]any

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Has reports whether key is present with a non-nil value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns the trimmed string value of key, or "" if absent.
func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return strings.TrimSpace(s)
}

// Bool returns the boolean value of key, or false if absent.
func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Attrs returns the object value of key as string attributes.
func (p Params) Attrs(key string) diagram.Attrs {
	return toAttrs(p[key])
}

// Extra collects every scalar parameter not named in known as attributes.
// This is how unknown keys pass through as styling.
func (p Params) Extra(known ...string) diagram.Attrs {
	out := diagram.Attrs{}
	for k, v := range p {
		if slices.Contains(known, k) || v == nil {
			continue
		}
		if s, ok := scalarString(v); ok {
			out[k] = s
		}
	}
	return out
}

func toAttrs(v any) diagram.Attrs {
	out := diagram.Attrs{}
	switch m := v.(type) {
	case diagram.Attrs:
		maps.Copy(out, m)
	case map[string]string:
		maps.Copy(out, m)
	case map[string]any:
		for k, val := range m {
			if s, ok := scalarString(val); ok {
				out[k] = s
			}
		}
	case Params:
		for k, val := range m {
			if s, ok := scalarString(val); ok {
				out[k] = s
			}
		}
	}
	return out
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), true
	case fmt.Stringer:
		return x.String(), true
	}
	return "", false
}

// =============================================================================
// Parameter Errors
// =============================================================================

// MissingError reports a required parameter that was not supplied.
type MissingError struct {
	Command string
	Key     string
}

// Error implements the error interface.
func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: missing required parameter: %s", e.Command, e.Key)
}

// Code returns the error code for this error type.
func (e *MissingError) Code() errors.Code {
	return errors.ErrCodeInvalidParameter
}

// ValidationError reports parameters that do not match a command's schema.
type ValidationError struct {
	Command    string
	Violations []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s: invalid parameters: %s", e.Command, e.Violations[0])
	}
	return fmt.Sprintf("%s: invalid parameters (%d violations): %s",
		e.Command, len(e.Violations), strings.Join(e.Violations, "; "))
}

// Code returns the error code for this error type.
func (e *ValidationError) Code() errors.Code {
	return errors.ErrCodeInvalidParameter
}

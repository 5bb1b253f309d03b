package command

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// scalar is the schema fragment for a style value.
const scalar = `{"type": ["string", "number", "boolean"]}`

// attrsSchema is the schema fragment for an attribute object.
const attrsSchema = `{"type": "object", "additionalProperties": ` + scalar + `}`

// compileSchema compiles a command's parameter schema. Each command gets its
// own compiler so resource URLs never collide.
func compileSchema(command, src string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s schema: %w", command, err)
	}

	url := "archviz://commands/" + command + ".json"
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add %s schema resource: %w", command, err)
	}

	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", command, err)
	}
	return s, nil
}

// validateSchema checks p against s and converts failures into a
// [ValidationError].
func validateSchema(command string, s *jsonschema.Schema, p Params) error {
	doc, err := toJSONValue(p)
	if err != nil {
		return &ValidationError{Command: command, Violations: []string{"parameters are not JSON-encodable: " + err.Error()}}
	}
	if err := s.Validate(doc); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return &ValidationError{Command: command, Violations: []string{err.Error()}}
		}
		violations := collectViolations(verr)
		if len(violations) == 0 {
			violations = []string{verr.Error()}
		}
		return &ValidationError{Command: command, Violations: violations}
	}
	return nil
}

// toJSONValue round-trips a Go value through JSON so numbers become
// json.Number, as the validator expects.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// collectViolations walks a ValidationError tree and returns the leaf
// messages prefixed with their instance location.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}

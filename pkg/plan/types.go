package plan

import (
	"github.com/matzehuels/archviz/pkg/command"
)

// =============================================================================
// Analysis
// =============================================================================

// Analysis is the structural description a plan is built from: services,
// clusters grouping them and connections between them.
type Analysis struct {
	Title       string       `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Services    []Service    `json:"services" yaml:"services" toml:"services"`
	Clusters    []Cluster    `json:"clusters,omitempty" yaml:"clusters,omitempty" toml:"clusters,omitempty"`
	Connections []Connection `json:"connections,omitempty" yaml:"connections,omitempty" toml:"connections,omitempty"`
}

// Service is one component of the system.
type Service struct {
	Name          string            `json:"name" yaml:"name" toml:"name"`
	Label         string            `json:"display_label,omitempty" yaml:"display_label,omitempty" toml:"display_label,omitempty"`
	Kind          string            `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	ComponentType string            `json:"component_type,omitempty" yaml:"component_type,omitempty" toml:"component_type,omitempty"`
	Cluster       string            `json:"cluster,omitempty" yaml:"cluster,omitempty" toml:"cluster,omitempty"`
	Style         map[string]string `json:"style,omitempty" yaml:"style,omitempty" toml:"style,omitempty"`
}

// Cluster groups services. Members lists direct members only; Parent names
// the enclosing cluster, or is empty at the top level.
type Cluster struct {
	Name    string            `json:"name" yaml:"name" toml:"name"`
	Label   string            `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Members []string          `json:"services,omitempty" yaml:"services,omitempty" toml:"services,omitempty"`
	Parent  string            `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty"`
	Style   map[string]string `json:"style,omitempty" yaml:"style,omitempty" toml:"style,omitempty"`
}

// Connection is a directed edge between two services.
type Connection struct {
	Source string            `json:"source" yaml:"source" toml:"source"`
	Target string            `json:"target" yaml:"target" toml:"target"`
	Label  string            `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Style  map[string]string `json:"style,omitempty" yaml:"style,omitempty" toml:"style,omitempty"`
}

// =============================================================================
// Plan
// =============================================================================

// ToolCall is one command invocation in a plan.
type ToolCall struct {
	Command    string         `json:"command_name" yaml:"command_name" toml:"command_name"`
	Parameters command.Params `json:"parameters" yaml:"parameters" toml:"parameters"`
	Order      int            `json:"execution_order" yaml:"execution_order" toml:"execution_order"`
}

// Plan is an ordered sequence of command invocations that builds one
// diagram.
type Plan struct {
	Title               string     `json:"title" yaml:"title" toml:"title"`
	Steps               []ToolCall `json:"steps" yaml:"steps" toml:"steps"`
	LayoutPreference    string     `json:"layout_preference" yaml:"layout_preference" toml:"layout_preference"`
	EstimatedOperations int        `json:"estimated_operations" yaml:"estimated_operations" toml:"estimated_operations"`

	// Unresolved lists clusters whose parent chain could not be ordered.
	// They are still emitted so that materialization reports them.
	Unresolved []string `json:"unresolved,omitempty" yaml:"unresolved,omitempty" toml:"unresolved,omitempty"`

	// Warnings lists analysis entries the builder dropped.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty" toml:"warnings,omitempty"`
}

// Commands returns the command names of the plan's steps in order.
func (p *Plan) Commands() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Command
	}
	return out
}

// HasCommand reports whether any step invokes one of names.
func (p *Plan) HasCommand(names ...string) bool {
	for _, s := range p.Steps {
		for _, n := range names {
			if s.Command == n {
				return true
			}
		}
	}
	return false
}

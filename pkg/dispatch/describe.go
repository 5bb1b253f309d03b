package dispatch

import (
	"fmt"
	"strings"

	"github.com/matzehuels/archviz/pkg/command"
)

// Describe returns a human-readable summary of what a step will do, for
// progress output.
func Describe(name string, p command.Params) string {
	str := func(keys ...string) string {
		for _, k := range keys {
			if s := p.String(k); s != "" {
				return s
			}
		}
		return ""
	}

	switch name {
	case "initialize", "initialize_diagram":
		title := str(command.KeyTitle)
		if title == "" {
			title = "Diagram"
		}
		return fmt.Sprintf("Initializing %q with layout settings", title)
	case "declare_cluster", "create_cluster":
		desc := fmt.Sprintf("Declaring cluster %q", str(command.KeyName))
		if label := str(command.KeyLabel); label != "" {
			desc += fmt.Sprintf(" labelled %q", label)
		}
		if parent := str(command.KeyParent); parent != "" {
			desc += fmt.Sprintf(" in %q", parent)
		}
		return desc
	case "declare_node", "create_node", "create_aws_node":
		kind := strings.ToUpper(str(command.KeyKind, "aws_service"))
		label := str(command.KeyLabel, command.KeyName)
		desc := fmt.Sprintf("Declaring %s node %q", kind, label)
		if cluster := str(command.KeyCluster); cluster != "" {
			desc += fmt.Sprintf(" in cluster %q", cluster)
		}
		return desc
	case "declare_connection", "connect_nodes":
		return fmt.Sprintf("Connecting %q → %q", str(command.KeySource), str(command.KeyTarget))
	case "materialize", "render_diagram":
		format := str(command.KeyFormat)
		if format == "" {
			format = "png"
		}
		if p.Bool(command.KeyDryRun) {
			return "Materializing diagram (dry run)"
		}
		return fmt.Sprintf("Rendering final %s image", strings.ToUpper(format))
	}
	return fmt.Sprintf("Executing %s with %d parameters", name, len(p))
}

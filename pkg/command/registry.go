package command

import (
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/archviz/pkg/errors"
)

// Factory creates a command instance.
type Factory func() (Command, error)

// Entry is one row of a registration table. Label identifies the entry in
// discovery errors when the factory cannot produce a usable command.
type Entry struct {
	Label string
	New   Factory
}

// Builtins returns the registration table of every built-in command,
// followed by the legacy aliases older plans still use.
func Builtins() []Entry {
	return []Entry{
		{"initialize", NewInitialize},
		{"declare_cluster", NewDeclareCluster},
		{"declare_node", NewDeclareNode},
		{"declare_connection", NewDeclareConnection},
		{"materialize", NewMaterialize},

		{"initialize_diagram", newInitializeDiagram},
		{"create_cluster", newCreateCluster},
		{"create_aws_node", newCreateNode("create_aws_node")},
		{"create_node", newCreateNode("create_node")},
		{"connect_nodes", newConnectNodes},
		{"render_diagram", newRenderDiagram},
	}
}

// Registry indexes commands by name.
//
// A Registry is populated once by [NewRegistry] and is read-only afterwards,
// so it is safe to share across concurrent builds.
type Registry struct {
	commands map[string]Command
	errs     map[string]string
}

// NewRegistry instantiates and checks every entry. Entries that fail are
// left out and recorded in [Registry.DiscoveryErrors]; one broken entry
// never prevents the others from registering. When two entries produce the
// same name the later one wins.
func NewRegistry(entries []Entry, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	r := &Registry{
		commands: make(map[string]Command, len(entries)),
		errs:     make(map[string]string),
	}

	for _, e := range entries {
		cmd, err := instantiate(e)
		if err != nil {
			r.errs[e.Label] = err.Error()
			logger.Error("failed to register command", "entry", e.Label, "err", err)
			continue
		}
		name := cmd.Name()
		if _, exists := r.commands[name]; exists {
			logger.Warn("command name conflict, overwriting", "name", name)
		}
		r.commands[name] = cmd
		logger.Debug("registered command", "name", name)
	}

	logger.Debug("command registry initialized", "commands", len(r.commands))
	if len(r.errs) > 0 {
		logger.Warn("command discovery encountered errors", "count", len(r.errs), "entries", slices.Sorted(maps.Keys(r.errs)))
	}
	return r
}

// instantiate runs a factory and checks the structural contract.
func instantiate(e Entry) (cmd Command, err error) {
	defer func() {
		if r := recover(); r != nil {
			cmd, err = nil, fmt.Errorf("factory panicked: %v", r)
		}
	}()

	if e.New == nil {
		return nil, fmt.Errorf("no factory")
	}
	cmd, err = e.New()
	if err != nil {
		return nil, fmt.Errorf("instantiate: %w", err)
	}
	if cmd == nil {
		return nil, fmt.Errorf("factory returned no command")
	}
	if cmd.Name() == "" {
		return nil, fmt.Errorf("command has an empty name")
	}
	if cmd.Description() == "" {
		return nil, fmt.Errorf("command %q has an empty description", cmd.Name())
	}
	if cmd.Schema() == "" {
		return nil, fmt.Errorf("command %q has no parameter schema", cmd.Name())
	}
	return cmd, nil
}

// Get returns the command registered under name, or a
// *errors.CommandNotFoundError listing the available names.
func (r *Registry) Get(name string) (Command, error) {
	if cmd, ok := r.commands[name]; ok {
		return cmd, nil
	}
	return nil, &errors.CommandNotFoundError{Name: name, Available: r.Names()}
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.commands))
}

// List returns name → description for every registered command.
func (r *Registry) List() map[string]string {
	out := make(map[string]string, len(r.commands))
	for name, cmd := range r.commands {
		out[name] = cmd.Description()
	}
	return out
}

// DiscoveryErrors returns a copy of the entries that failed to register,
// keyed by entry label.
func (r *Registry) DiscoveryErrors() map[string]string {
	return maps.Clone(r.errs)
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.commands)
}

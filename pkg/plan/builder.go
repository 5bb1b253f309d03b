package plan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/archviz/pkg/command"
	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/errors"
)

// DefaultLayout is the rank direction used when none is requested.
const DefaultLayout = "LR"

var validLayouts = []string{"LR", "RL", "TB", "BT"}

// Command names emitted by the builder.
const (
	CmdInitialize        = "initialize"
	CmdDeclareCluster    = "declare_cluster"
	CmdDeclareNode       = "declare_node"
	CmdDeclareConnection = "declare_connection"
	CmdMaterialize       = "materialize"
)

// Options configures plan generation.
type Options struct {
	// Title overrides the analysis title and the title extracted from its
	// description.
	Title string

	// Layout is the Graphviz rank direction (LR, RL, TB or BT).
	Layout string

	// Format is the output format of the final materialize step.
	Format string

	// DryRun makes the final materialize step skip rendering.
	DryRun bool

	// GraphAttrs are extra Graphviz graph attributes for the initialize
	// step, such as dpi. Layout always sets rankdir.
	GraphAttrs map[string]string

	// Pattern names a built-in [Pattern] whose clusters are declared ahead
	// of the analysis' own.
	Pattern string
}

// ValidateAndSetDefaults normalizes the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	o.Title = strings.TrimSpace(o.Title)

	o.Layout = strings.ToUpper(strings.TrimSpace(o.Layout))
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
	if err := ValidateLayout(o.Layout); err != nil {
		return err
	}

	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	if o.Format == "" {
		o.Format = diagram.DefaultFormat
	}
	if err := errors.ValidateFormat(o.Format); err != nil {
		return err
	}

	o.Pattern = strings.ToLower(strings.TrimSpace(o.Pattern))
	if o.Pattern != "" {
		if _, err := LookupPattern(o.Pattern); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLayout checks a Graphviz rank direction.
func ValidateLayout(layout string) error {
	if !slices.Contains(validLayouts, layout) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid layout %q: must be one of %s", layout, strings.Join(validLayouts, ", "))
	}
	return nil
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks that the analysis is structurally usable: every service
// and cluster has a unique identifier and every connection names both
// endpoints. It does not check that connections or memberships refer to
// declared services; materialization reports those.
func (a *Analysis) Validate() error {
	if a == nil {
		return errors.New(errors.ErrCodeInvalidAnalysis, "analysis is nil")
	}

	services := make(map[string]bool, len(a.Services))
	for i, s := range a.Services {
		if err := errors.ValidateSlug("service", s.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidAnalysis, err, "services[%d]", i)
		}
		if services[s.Name] {
			return errors.New(errors.ErrCodeInvalidAnalysis, "duplicate service %q", s.Name)
		}
		services[s.Name] = true
	}

	clusters := make(map[string]bool, len(a.Clusters))
	for i, c := range a.Clusters {
		if err := errors.ValidateSlug("cluster", c.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidAnalysis, err, "clusters[%d]", i)
		}
		if clusters[c.Name] {
			return errors.New(errors.ErrCodeInvalidAnalysis, "duplicate cluster %q", c.Name)
		}
		clusters[c.Name] = true
	}

	for i, c := range a.Connections {
		if strings.TrimSpace(c.Source) == "" || strings.TrimSpace(c.Target) == "" {
			return errors.New(errors.ErrCodeInvalidAnalysis, "connections[%d]: source and target are required", i)
		}
	}
	return nil
}

// =============================================================================
// Cluster Ordering
// =============================================================================

// OrderClusters orders clusters so every parent precedes its children.
//
// Each scan places the clusters whose parent is absent or already placed.
// Scanning stops after len(clusters) passes or when a pass places nothing;
// whatever is left (missing parents, cycles) is returned as unresolved in
// its input order. The relative input order is preserved within each pass.
func OrderClusters(clusters []Cluster) (ordered, unresolved []Cluster) {
	placed := make(map[string]bool, len(clusters))
	remaining := slices.Clone(clusters)

	for pass := 0; pass < len(clusters) && len(remaining) > 0; pass++ {
		var next []Cluster
		for _, c := range remaining {
			if c.Parent == "" || placed[c.Parent] {
				ordered = append(ordered, c)
				placed[c.Name] = true
				continue
			}
			next = append(next, c)
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return ordered, remaining
}

// =============================================================================
// Plan Generation
// =============================================================================

// Build turns an analysis into a plan: initialize, the clusters parents
// first, the nodes, the connections and one final materialize step.
//
// Clusters that cannot be ordered are still emitted, after the ordered ones,
// and listed in Plan.Unresolved; materialization decides what to exclude.
// With opts.Pattern set, the pattern's clusters are declared first.
func Build(a *Analysis, opts Options) (*Plan, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if opts.Pattern != "" {
		pattern, err := LookupPattern(opts.Pattern)
		if err != nil {
			return nil, err
		}
		a = pattern.Apply(a)
	}

	b := &stepBuilder{}
	p := &Plan{
		Title:            resolveTitle(a, opts),
		LayoutPreference: opts.Layout,
	}

	b.add(CmdInitialize, command.Params{
		command.KeyTitle:      p.Title,
		command.KeyAttributes: graphAttrs(opts),
	})

	ordered, unresolved := OrderClusters(a.Clusters)
	for _, c := range ordered {
		b.add(CmdDeclareCluster, clusterParams(c))
	}
	for _, c := range unresolved {
		p.Unresolved = append(p.Unresolved, c.Name)
		if c.Parent == c.Name {
			p.Warnings = append(p.Warnings, fmt.Sprintf("cluster %q names itself as parent; not declared", c.Name))
			continue
		}
		b.add(CmdDeclareCluster, clusterParams(c))
	}

	membership, warnings := memberships(a)
	p.Warnings = append(p.Warnings, warnings...)
	for _, s := range a.Services {
		b.add(CmdDeclareNode, nodeParams(s, membership[s.Name]))
	}

	for _, c := range a.Connections {
		if c.Source == c.Target {
			p.Warnings = append(p.Warnings, fmt.Sprintf("connection %s->%s is a self-loop; dropped", c.Source, c.Target))
			continue
		}
		b.add(CmdDeclareConnection, connectionParams(c))
	}

	b.add(CmdMaterialize, command.Params{
		command.KeyFormat: opts.Format,
		command.KeyDryRun: opts.DryRun,
	})

	p.Steps = b.steps
	p.EstimatedOperations = len(p.Steps)
	return p, nil
}

type stepBuilder struct {
	steps []ToolCall
}

func (b *stepBuilder) add(name string, params command.Params) {
	b.steps = append(b.steps, ToolCall{
		Command:    name,
		Parameters: params,
		Order:      len(b.steps) + 1,
	})
}

func graphAttrs(opts Options) map[string]any {
	attrs := make(map[string]any, len(opts.GraphAttrs)+1)
	for k, v := range opts.GraphAttrs {
		attrs[k] = v
	}
	attrs["rankdir"] = opts.Layout
	return attrs
}

func resolveTitle(a *Analysis, opts Options) string {
	if opts.Title != "" {
		return opts.Title
	}
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return ExtractTitle(a.Description)
}

// memberships maps each service to its cluster. A cluster's member list
// takes precedence over the service's own cluster field; the first cluster
// to list a service wins.
func memberships(a *Analysis) (map[string]string, []string) {
	known := make(map[string]bool, len(a.Services))
	for _, s := range a.Services {
		known[s.Name] = true
	}

	var warnings []string
	out := make(map[string]string, len(a.Services))
	for _, c := range a.Clusters {
		for _, m := range c.Members {
			switch {
			case !known[m]:
				warnings = append(warnings, fmt.Sprintf("cluster %q lists unknown service %q", c.Name, m))
			case out[m] != "" && out[m] != c.Name:
				warnings = append(warnings, fmt.Sprintf("service %q is listed by clusters %q and %q; keeping %q", m, out[m], c.Name, out[m]))
			default:
				out[m] = c.Name
			}
		}
	}
	for _, s := range a.Services {
		if out[s.Name] == "" && s.Cluster != "" {
			out[s.Name] = s.Cluster
		}
	}
	return out, warnings
}

func clusterParams(c Cluster) command.Params {
	label := strings.TrimSpace(c.Label)
	if label == "" {
		label = displayLabel(c.Name)
	}
	p := command.Params{
		command.KeyName:  c.Name,
		command.KeyLabel: label,
	}
	if c.Parent != "" {
		p[command.KeyParent] = c.Parent
	}
	if len(c.Style) > 0 {
		p[command.KeyAttributes] = styleMap(c.Style, nil)
	}
	return p
}

var reservedNodeKeys = []string{command.KeyName, command.KeyKind, command.KeyCluster, command.KeyLabel}

func nodeParams(s Service, cluster string) command.Params {
	label := strings.TrimSpace(s.Label)
	if label == "" {
		label = displayLabel(s.Name)
	}
	kind := diagram.NormalizeKind(s.Kind)
	if kind == "" {
		kind = InferKind(s.Name, s.Label, s.ComponentType)
	}

	p := command.Params{
		command.KeyName:  s.Name,
		command.KeyKind:  kind,
		command.KeyLabel: label,
	}
	if cluster != "" {
		p[command.KeyCluster] = cluster
	}
	for k, v := range styleMap(s.Style, reservedNodeKeys) {
		p[k] = v
	}
	return p
}

var reservedConnectionKeys = []string{command.KeySource, command.KeyTarget, command.KeyLabel}

func connectionParams(c Connection) command.Params {
	p := command.Params{
		command.KeySource: c.Source,
		command.KeyTarget: c.Target,
	}
	if c.Label != "" {
		p[command.KeyLabel] = c.Label
	}
	for k, v := range styleMap(c.Style, reservedConnectionKeys) {
		p[k] = v
	}
	return p
}

// styleMap copies style into a plain map, dropping reserved keys so styling
// can never shadow a structural parameter.
func styleMap(style map[string]string, reserved []string) map[string]any {
	out := make(map[string]any, len(style))
	for k, v := range style {
		if slices.Contains(reserved, k) {
			continue
		}
		out[k] = v
	}
	return out
}

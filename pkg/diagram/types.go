package diagram

import (
	"fmt"
	"maps"
	"slices"
)

// Attrs holds Graphviz attributes for a graph, cluster, node or edge.
type Attrs map[string]string

// Clone returns a copy of a. A nil map clones to an empty one.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	maps.Copy(out, a)
	return out
}

// Keys returns the attribute names in sorted order.
func (a Attrs) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// Merge copies every entry of other into a, overwriting existing keys.
func (a Attrs) Merge(other Attrs) Attrs {
	if a == nil {
		a = make(Attrs, len(other))
	}
	maps.Copy(a, other)
	return a
}

// =============================================================================
// Pending Records
// =============================================================================

// PendingNode is a recorded node declaration awaiting materialization.
type PendingNode struct {
	Name    string
	Kind    string
	Cluster string // immediate cluster; empty for top level
	Label   string
	Style   Attrs
}

// PendingCluster is a recorded cluster declaration awaiting materialization.
type PendingCluster struct {
	Name   string
	Label  string
	Parent string // empty for top level
	Attrs  Attrs
}

// PendingConnection is a recorded edge declaration awaiting materialization.
type PendingConnection struct {
	Source string
	Target string
	Label  string
	Style  Attrs
}

// Pending summarizes the engine's unmaterialized state.
type Pending struct {
	Initialized bool
	Title       string
	Nodes       int
	Clusters    int
	Connections int
}

// Empty reports whether nothing is recorded and no build is open.
func (p Pending) Empty() bool {
	return !p.Initialized && p.Nodes == 0 && p.Clusters == 0 && p.Connections == 0
}

// =============================================================================
// Warnings
// =============================================================================

// WarningCode classifies a non-fatal materialization problem.
type WarningCode string

// Warning codes reported by Materialize.
const (
	// WarnOrphanedCluster: the cluster's parent chain never reaches the top level.
	WarnOrphanedCluster WarningCode = "orphaned_cluster"
	// WarnUnresolvedEndpoint: a connection names a node with no realized handle.
	WarnUnresolvedEndpoint WarningCode = "unresolved_endpoint"
	// WarnUnplacedNode: a node's cluster was never declared or was excluded.
	WarnUnplacedNode WarningCode = "unplaced_node"
	// WarnEmptyCluster: a realized cluster contains no realized node.
	WarnEmptyCluster WarningCode = "empty_cluster"
	// WarnUnknownKind: a node kind has no visual representation.
	WarnUnknownKind WarningCode = "unknown_kind"
	// WarnRedeclared: a node or cluster name was declared more than once.
	WarnRedeclared WarningCode = "redeclared"
)

// Warning is a problem that was recovered from during materialization.
type Warning struct {
	Code    WarningCode `json:"code"`
	Subject string      `json:"subject"`
	Message string      `json:"message"`
}

// String returns the human-readable form used in build results.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// =============================================================================
// Result
// =============================================================================

// Result describes one completed materialization.
type Result struct {
	Title      string
	Format     string
	DryRun     bool
	Image      []byte    // rendered artifact; nil for dry runs
	Components []string  // realized node names, in declaration order
	Clusters   []string  // realized cluster names, in realization order
	Edges      int       // wired connections
	Warnings   []Warning // recovered problems, in detection order
	Graph      *Graph    // the realized visual graph
}

// WarningsOf returns the warnings with the given code.
func (r *Result) WarningsOf(code WarningCode) []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		if w.Code == code {
			out = append(out, w)
		}
	}
	return out
}

// DryRunPlaceholder stands in for image data when rendering is skipped.
const DryRunPlaceholder = "dry_run_placeholder"

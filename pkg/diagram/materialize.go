package diagram

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
)

// topLevel is the grouping key for declarations without a cluster or parent.
const topLevel = ""

// Connection style keys that map onto edge attributes.
var edgeStyleKeys = []string{"color", "penwidth", "arrowsize", "style", "fontcolor", "fontsize"}

// materializer converts one detached recording into a visual graph. It owns
// the realized-handle table for the duration of a single pass.
type materializer struct {
	rec    *recording
	logger *log.Logger
	b      *graphBuilder

	nodesByCluster   map[string][]PendingNode
	clustersByParent map[string][]PendingCluster
	excluded         map[string]bool // clusters that are orphaned or unreachable
	visited          map[string]bool
	handles          map[string]*Node

	components       []string
	realizedClusters []string
	warnings         []Warning
}

func newMaterializer(rec *recording, logger *log.Logger) *materializer {
	return &materializer{
		rec:              rec,
		logger:           logger,
		nodesByCluster:   make(map[string][]PendingNode),
		clustersByParent: make(map[string][]PendingCluster),
		excluded:         make(map[string]bool),
		visited:          make(map[string]bool),
		handles:          make(map[string]*Node),
	}
}

// release drops the realized-handle table. Handles are valid only during one
// materialization pass.
func (m *materializer) release() {
	clear(m.handles)
	clear(m.visited)
}

func (m *materializer) warn(code WarningCode, subject, format string, args ...any) {
	m.warnings = append(m.warnings, Warning{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// build realizes clusters, nodes and connections in that order.
func (m *materializer) build() *Graph {
	m.warnings = append(m.warnings, m.rec.redeclared...)
	m.b = newGraphBuilder(m.rec.title, m.rec.attrs)

	// 1. Nodes by immediate cluster.
	for _, n := range m.rec.nodes {
		m.nodesByCluster[n.Cluster] = append(m.nodesByCluster[n.Cluster], n)
	}

	// 2. Clusters by parent.
	for _, c := range m.rec.clusters {
		m.clustersByParent[c.Parent] = append(m.clustersByParent[c.Parent], c)
	}

	m.detectOrphans()

	// 3. Depth-first realization from the top level.
	m.logger.Info("creating clusters and nodes",
		"nodes", len(m.rec.nodes),
		"clusters", len(m.rec.clusters)-len(m.excluded))
	m.realizeScope(topLevel)
	for _, n := range m.rec.nodes {
		if _, ok := m.handles[n.Name]; ok {
			m.components = append(m.components, n.Name)
		}
	}
	m.reportUnplacedNodes()
	m.reportEmptyClusters()

	// 4. Connections in declaration order.
	m.logger.Info("creating connections", "count", len(m.rec.connections))
	for _, c := range m.rec.connections {
		m.connect(c)
	}

	return m.b.graph
}

// detectOrphans marks every declared cluster that cannot be reached from the
// top level. Such a cluster either names a parent that was never declared, or
// sits on (or below) a parent cycle.
func (m *materializer) detectOrphans() {
	reachable := make(map[string]bool, len(m.rec.clusters))
	queue := []string{topLevel}
	for len(queue) > 0 {
		scope := queue[0]
		queue = queue[1:]
		for _, c := range m.clustersByParent[scope] {
			if reachable[c.Name] {
				continue
			}
			reachable[c.Name] = true
			queue = append(queue, c.Name)
		}
	}

	for _, c := range m.rec.clusters {
		if reachable[c.Name] {
			continue
		}
		m.excluded[c.Name] = true
		if _, declared := m.rec.clusterIdx[c.Parent]; !declared {
			m.warn(WarnOrphanedCluster, c.Name,
				"orphaned cluster %q: parent %q was never declared", c.Name, c.Parent)
			continue
		}
		m.warn(WarnOrphanedCluster, c.Name,
			"orphaned cluster %q: parent chain via %q never reaches the top level", c.Name, c.Parent)
	}
}

// realizeScope realizes the nodes declared directly in scope, then each child
// cluster inside its own grouping boundary.
func (m *materializer) realizeScope(scope string) {
	for _, n := range m.nodesByCluster[scope] {
		m.realizeNode(n)
	}
	for _, c := range m.clustersByParent[scope] {
		if m.excluded[c.Name] || m.visited[c.Name] {
			continue
		}
		m.visited[c.Name] = true
		m.b.open(c.Name, c.Label, c.Attrs)
		m.realizedClusters = append(m.realizedClusters, c.Name)
		m.realizeScope(c.Name)
		m.b.close()
	}
}

func (m *materializer) realizeNode(p PendingNode) {
	kind := p.Kind
	if !IsKnownKind(kind) {
		m.warn(WarnUnknownKind, p.Name, "node %q has unknown kind %q; drawn as %s", p.Name, p.Kind, DefaultKind)
		kind = DefaultKind
	}
	n := &Node{Name: p.Name, Label: p.Label, Kind: kind, Attrs: p.Style.Clone()}
	m.b.addNode(n)
	m.handles[p.Name] = n
	m.logger.Debug("created node", "name", p.Name, "kind", kind, "cluster", p.Cluster)
}

// reportUnplacedNodes warns about nodes whose cluster was never realized.
func (m *materializer) reportUnplacedNodes() {
	for _, n := range m.rec.nodes {
		if _, ok := m.handles[n.Name]; ok || n.Cluster == topLevel {
			continue
		}
		if m.excluded[n.Cluster] {
			m.warn(WarnUnplacedNode, n.Name, "node %q not created: cluster %q is orphaned", n.Name, n.Cluster)
			continue
		}
		m.warn(WarnUnplacedNode, n.Name, "node %q not created: cluster %q was never declared", n.Name, n.Cluster)
	}
}

// reportEmptyClusters warns about realized clusters without any node in
// their subtree.
func (m *materializer) reportEmptyClusters() {
	m.b.graph.Root.Walk(func(grp *Group, depth int) {
		if depth == 0 || grp.NodeCount() > 0 {
			return
		}
		m.warn(WarnEmptyCluster, grp.Name, "cluster %q contains no nodes", grp.Name)
	})
}

func (m *materializer) connect(c PendingConnection) {
	from, okFrom := m.handles[c.Source]
	to, okTo := m.handles[c.Target]
	if !okFrom || !okTo {
		var missing []string
		if !okFrom {
			missing = append(missing, c.Source)
		}
		if !okTo && c.Target != c.Source {
			missing = append(missing, c.Target)
		}
		m.warn(WarnUnresolvedEndpoint, c.Source+"->"+c.Target,
			"could not connect %q -> %q: %q not found", c.Source, c.Target, missing)
		return
	}

	attrs := make(Attrs, len(c.Style))
	for k, v := range c.Style {
		if !slices.Contains(edgeStyleKeys, k) {
			m.logger.Warn("unknown edge style passed through", "key", k, "source", c.Source, "target", c.Target)
		}
		attrs[k] = v
	}
	m.b.addEdge(&Edge{From: from, To: to, Label: c.Label, Attrs: attrs})
	m.logger.Debug("connected", "source", c.Source, "target", c.Target, "styled", len(attrs) > 0 || c.Label != "")
}

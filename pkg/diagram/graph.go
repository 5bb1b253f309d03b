package diagram

// Graph is a fully realized visual graph, ready for a [Renderer].
//
// The root group holds top-level nodes and clusters. Clusters nest through
// [Group.Groups]; every node belongs to exactly one group.
type Graph struct {
	Title string
	Attrs Attrs
	Root  *Group
	Edges []*Edge
}

// Group is a visual grouping boundary. The root group has an empty Name.
type Group struct {
	Name   string
	Label  string
	Attrs  Attrs
	Nodes  []*Node
	Groups []*Group
}

// Node is a realized node. A *Node is the handle used to wire edges.
type Node struct {
	Name  string
	Label string
	Kind  string // resolved kind; always has a representation
	Attrs Attrs
}

// Edge connects two realized nodes.
type Edge struct {
	From  *Node
	To    *Node
	Label string
	Attrs Attrs
}

// Walk calls fn for g and every nested group, depth-first, parents before
// children. depth is 0 for g itself.
func (g *Group) Walk(fn func(grp *Group, depth int)) {
	g.walk(fn, 0)
}

func (g *Group) walk(fn func(*Group, int), depth int) {
	fn(g, depth)
	for _, child := range g.Groups {
		child.walk(fn, depth+1)
	}
}

// NodeCount returns the number of nodes in g and all nested groups.
func (g *Group) NodeCount() int {
	n := 0
	g.Walk(func(grp *Group, _ int) { n += len(grp.Nodes) })
	return n
}

// NodeCount returns the number of realized nodes.
func (g *Graph) NodeCount() int {
	if g.Root == nil {
		return 0
	}
	return g.Root.NodeCount()
}

// graphBuilder realizes groups and nodes while tracking the currently open
// grouping boundary.
type graphBuilder struct {
	graph *Graph
	stack []*Group
}

func newGraphBuilder(title string, attrs Attrs) *graphBuilder {
	root := &Group{}
	return &graphBuilder{
		graph: &Graph{Title: title, Attrs: attrs.Clone(), Root: root},
		stack: []*Group{root},
	}
}

func (b *graphBuilder) current() *Group {
	return b.stack[len(b.stack)-1]
}

// open starts a nested group inside the current one.
func (b *graphBuilder) open(name, label string, attrs Attrs) *Group {
	grp := &Group{Name: name, Label: label, Attrs: attrs.Clone()}
	parent := b.current()
	parent.Groups = append(parent.Groups, grp)
	b.stack = append(b.stack, grp)
	return grp
}

// close ends the innermost open group. The root is never closed.
func (b *graphBuilder) close() {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

func (b *graphBuilder) addNode(n *Node) {
	grp := b.current()
	grp.Nodes = append(grp.Nodes, n)
}

func (b *graphBuilder) addEdge(e *Edge) {
	b.graph.Edges = append(b.graph.Edges, e)
}

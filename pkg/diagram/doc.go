// Package diagram records architecture-diagram declarations and realizes
// them into a visual graph in a single pass.
//
// # Overview
//
// Construction happens in two phases. While recording, callers declare
// clusters, nodes and connections in any order; references to clusters or
// nodes that have not been declared yet are allowed. [Engine.Materialize]
// then detaches the recording and realizes it:
//
//  1. nodes are grouped by their immediate cluster
//  2. clusters are grouped by their parent
//  3. clusters are realized depth-first from the top level, each node
//     placed inside its cluster
//  4. connections are wired in declaration order
//
// Problems found along the way are reported as [Warning]s rather than
// failing the build: orphaned clusters, nodes placed in a missing cluster,
// connections with an unknown endpoint, clusters left without nodes and
// unknown node kinds.
//
// # Usage
//
//	engine := diagram.New(nodelink.New())
//	engine.Initialize("Shop", nil)
//	_ = engine.DeclareCluster("vpc", "VPC", nil, "")
//	_ = engine.DeclareNode("api", "apigateway", "vpc", "API", nil)
//	_ = engine.DeclareNode("db", "rds", "vpc", "Orders", nil)
//	_ = engine.DeclareConnection("api", "db", "", nil)
//	res, err := engine.Materialize(ctx, "svg", false)
//
// An [Engine] returns to the idle state after every Materialize call,
// whether it succeeded or not, and can serve the next build.
//
// # Kinds
//
// A node kind selects its visual representation. [Kinds] lists the
// supported tags; anything else is drawn as [DefaultKind].
package diagram

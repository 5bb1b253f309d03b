package diagram_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/archviz/pkg/diagram"
)

func ExampleEngine() {
	engine := diagram.New(nil)

	engine.Initialize("Shop", nil)
	// Declarations may reference clusters that come later.
	_ = engine.DeclareNode("db", "rds", "data", "Orders DB", nil)
	_ = engine.DeclareCluster("data", "Data Tier", nil, "")
	_ = engine.DeclareNode("api", "apigateway", "", "API", nil)
	_ = engine.DeclareConnection("api", "db", "", nil)

	res, err := engine.Materialize(context.Background(), "png", true)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Components)
	fmt.Println(res.Clusters, res.Edges)
	// Output:
	// [db api]
	// [data] 1
}

func ExampleEngine_Materialize_warnings() {
	engine := diagram.New(nil)

	engine.Initialize("Broken", nil)
	_ = engine.DeclareCluster("lost", "Lost", nil, "missing")
	_ = engine.DeclareNode("web", "ec2", "", "Web", nil)
	_ = engine.DeclareConnection("web", "nowhere", "", nil)

	res, _ := engine.Materialize(context.Background(), "png", true)
	for _, w := range res.Warnings {
		fmt.Println(w.Code, w.Subject)
	}
	// Output:
	// orphaned_cluster lost
	// unresolved_endpoint web->nowhere
}

func ExampleKinds() {
	fmt.Println(len(diagram.Kinds()), diagram.RepresentationOf("unknown").Caption)
	// Output:
	// 13 EC2
}

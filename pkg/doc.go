// Package pkg provides the core libraries for archviz architecture diagrams.
//
// # Overview
//
// archviz turns a structured description of a system (services, clusters
// and connections) into a Graphviz diagram. The work is split into a plan
// of small diagram commands that are validated and executed one at a time
// against a per-build engine, which records declarations and assembles the
// graph only when the diagram is materialized.
//
// # Architecture
//
//	Analysis (JSON / YAML / TOML)
//	         ↓
//	    [plan] package (analysis → ordered command plan)
//	         ↓
//	    [dispatch] package (plan → command executions)
//	         ↓
//	    [command] package (validated parameters → engine calls)
//	         ↓
//	    [diagram] package (declarations → realized graph)
//	         ↓
//	    [render/nodelink] package (graph → SVG / PNG / PDF)
//
// # Quick Start
//
//	registry := command.NewRegistry(command.Builtins(), logger)
//	p, _ := plan.Build(analysis, plan.Options{Format: "svg"})
//
//	engine := diagram.New(nodelink.New())
//	res := dispatch.New(registry).Run(ctx, engine, p, dispatch.Options{})
//	if !res.Success {
//	    log.Fatal(res.Errors)
//	}
//	os.WriteFile("out.svg", res.Image, 0o644)
//
// [pipeline] wraps these steps with caching, sessions and build records
// and is what the CLI and the HTTP API use.
//
// # Main Packages
//
// ## Diagram Domain
//
// [command] - The command contract, the built-in commands with their JSON
// schemas, and the registry that indexes them by name.
//
// [diagram] - The assembly engine. Declarations are recorded in any order;
// materialize builds cluster scopes top-down, places nodes, draws edges and
// reports warnings for anything that cannot be realized.
//
// [plan] - Analysis types and the plan builder (cluster ordering, kind
// inference, title extraction).
//
// [dispatch] - Executes plans step by step and assembles build results.
//
// [render/nodelink] - Graphviz rendering; [render] converts SVG to PDF/PNG.
//
// ## Infrastructure
//
// [pipeline] - analysis → plan → build with caching, used by CLI and API.
//
// [session] - One session per build; build records in memory, file or
// MongoDB stores.
//
// [cache] - Plan and artifact caching over file, Redis or null backends.
//
// [io] - Reading and writing analyses and plans.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for metrics and tracing.
//
// # Testing
//
//	go test ./...                  # All tests
//	go test ./pkg/diagram/...      # Specific package
//	go test -run Example ./pkg/... # Examples only
//
// Redis and MongoDB tests run when ARCHVIZ_TEST_REDIS_ADDR and
// ARCHVIZ_TEST_MONGO_URI are set.
//
// [command]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/command
// [diagram]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/diagram
// [plan]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/plan
// [dispatch]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/dispatch
// [render]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/pipeline
// [session]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/session
// [cache]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/cache
// [io]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/io
// [errors]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/archviz/pkg/observability
package pkg

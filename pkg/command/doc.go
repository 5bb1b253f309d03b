// Package command defines the construction commands that drive a
// [diagram.Engine] and the registry that resolves them by name.
//
// # Commands
//
// Every command validates its parameters against a JSON Schema before it
// runs and performs exactly one engine mutation:
//
//   - initialize: open a build (title, attributes)
//   - declare_cluster: record a cluster (name, label, parent_name, attributes)
//   - declare_node: record a node (name, kind, cluster_name, label, style keys)
//   - declare_connection: record an edge (source, target, label, style keys)
//   - materialize: realize and render (output_format, dry_run)
//
// The older names initialize_diagram, create_cluster, create_aws_node,
// create_node, connect_nodes and render_diagram are registered as aliases
// and accept the parameter names those plans used (graph_attr,
// aws_service).
//
// # Safe Execution
//
// [SafeExecute] runs validation and execution and always returns a
// [Result]; errors and panics are reported in it, never propagated:
//
//	res := command.SafeExecute(ctx, cmd, engine, command.Params{"name": "db", "kind": "rds"})
//	if !res.Success {
//	    log.Warn(res.Error, "type", res.ErrorType)
//	}
//
// # Registry
//
// [NewRegistry] builds a [Registry] from an explicit table such as
// [Builtins]. Entries that fail to instantiate are recorded in
// [Registry.DiscoveryErrors] instead of aborting startup.
package command

// Package plan turns an analysis of a system into a plan: the ordered list
// of command invocations that builds its diagram.
//
// # Ordering
//
// A plan always has the same shape:
//
//	initialize
//	declare_cluster ...     parents before children
//	declare_node ...        in analysis order
//	declare_connection ...  in analysis order
//	materialize
//
// [OrderClusters] places parents first with a bounded number of scans.
// Clusters it cannot place, because their parent is missing or they form a
// cycle, are still emitted after the others and listed in
// [Plan.Unresolved]; the engine reports them when the plan is
// materialized.
//
// # Inference
//
// Services without an explicit kind get one from [InferKind], which looks
// for keywords such as "queue" or "database" in the service name. Plans
// without a title get one from [ExtractTitle] applied to the analysis
// description.
//
// Plans only reference commands by name; dispatching them is the job of
// package dispatch.
package plan

// Package io reads analyses and reads and writes plans in JSON, YAML or
// TOML.
//
// # Analysis Input
//
// An analysis describes the system to draw:
//
//	services:
//	  - name: api
//	    display_label: Public API
//	  - name: db
//	    kind: rds
//	clusters:
//	  - name: data
//	    label: Data Tier
//	    services: [db]
//	connections:
//	  - source: api
//	    target: db
//	    label: queries
//
// Services need a unique name. The kind is inferred from the name when
// omitted (see [plan.InferKind]). Clusters may name a parent cluster.
//
// Use [ImportAnalysis] to read from a file or [ReadAnalysis] for any
// io.Reader. Both reject unknown keys and duplicate identifiers.
//
// # Plans
//
// A plan is the ordered command sequence produced by [plan.Build]. Plans
// can be exported with [ExportPlan], edited by hand, and dispatched later
// after [ImportPlan]. The file extension selects the format.
package io

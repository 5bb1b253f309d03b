// Package dispatch executes plans.
//
// A [Dispatcher] resolves each step of a [plan.Plan] through a shared
// [command.Registry] and runs it against a caller-owned [diagram.Engine]
// with [command.SafeExecute]. Steps run in execution order. Unknown
// commands and steps with invalid parameters are skipped with a warning,
// any other failing step ends the build and resets the engine, and a plan
// that never materializes is materialized at the end.
//
// The outcome is always a [Result]; Run has no error return. Each step is
// recorded in Result.Steps, reported to the observability hooks and passed
// to the optional [StepFunc].
package dispatch

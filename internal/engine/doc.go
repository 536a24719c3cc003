// Package engine runs processes: ordered command pipelines against a Store.
//
// A Process is an ordered list of units. A unit is either a single command
// or a group of commands started together. Each command reads the store,
// receives the execution payload, and returns a batch of operations; it
// never writes the store itself.
//
// EXECUTION:
//
//  1. The optional payload transformer runs once.
//  2. Units run in declaration order. A group starts every command before
//     waiting on any, then concatenates the batches in declaration order.
//  3. After each unit the engine commits its batch as one atomic Apply,
//     prepends the inverse to the undo batch, and invalidates the store.
//  4. The first failure (command error, panic, or rejected batch) stops
//     the execution. The undo batch for the units already committed is kept.
//  5. The process callback runs exactly once with the result and error.
//
// Suspension happens only at unit boundaries, so writers never interleave
// within one execution. Nested executions started through Result.Execute
// run to completion before the outer unit resumes and are depth-limited.
//
// Failures are returned as *ProcessError values; nothing panics across
// the Executor boundary.
package engine

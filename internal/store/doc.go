// Package store owns the canonical state tree.
//
// A Store holds one immutable snapshot and replaces it atomically on every
// committed batch. Readers never lock: Get and Snapshot load the current
// snapshot pointer and walk it. Writers are serialized by a mutex so two
// batches never interleave.
//
// # Change notification
//
// Apply does not notify. Callers decide when state is observable and call
// Invalidate, which signals every subscriber with no payload; subscribers
// re-read through Get. Watch adapts a subscription to a coalescing channel
// for goroutine-based consumers.
//
// # Critical Patterns
//
//   - Snapshots are never mutated after they are published
//   - Version is a logical clock bumped once per commit, never wall time
//   - The store depends on nothing above patch; processes and history
//     build on it, not the other way around
package store

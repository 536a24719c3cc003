// Package patch applies reversible operation batches to state trees.
//
// A batch is an ordered list of add, remove, replace and test operations.
// Apply processes it against an immutable snapshot and returns the new
// snapshot together with the inverse batch that restores the original
// exactly. Only the containers along each written path are copied; every
// other subtree is shared with the input snapshot.
//
// A batch is atomic: the first failing operation aborts it and the input
// snapshot is returned to nobody, untouched.
//
// Diff computes a batch turning one snapshot into another.
package patch

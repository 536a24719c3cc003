// Package loader reads state documents and patch batches from disk.
//
// Three formats are accepted, chosen by file extension: JSON (.json),
// YAML (.yaml, .yml) and CUE (.cue). CUE documents are evaluated first and
// must be concrete; the result is exported to JSON and decoded like any
// other document. Every format goes through the same value model, so
// floats are rejected no matter where they come from.
package loader

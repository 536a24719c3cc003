// Package history records process executions for undo and redo.
//
// UndoManager is a single stack of undo closures shared by every process
// whose callback it collects. Manager keeps one linear history per store
// with a cursor, supporting undo, redo and serialization.
//
// Both are plain values owned by the caller; nothing here is global, so
// independent undo scopes can coexist.
package history

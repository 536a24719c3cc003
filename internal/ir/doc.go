// Package ir provides the value model for state trees.
//
// This package contains the value types only. All other internal packages
// import ir; ir imports nothing internal, which keeps it the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - numbers are int64
//   - Containers are treated as immutable once reachable from a snapshot;
//     writers go through the copy-on-write helpers in persistent.go
//   - Object iteration that affects output always uses SortedKeys
package ir

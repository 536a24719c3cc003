// Package pointer addresses locations inside a state tree.
//
// A Pointer is an immutable, non-empty list of segments. Its string form
// follows RFC 6901: segments are joined with "/" and the two significant
// characters are escaped ("~" as "~0", "/" as "~1"). The segment "-"
// addresses the last element of an array when reading and the position
// after it when adding.
//
// The root of a tree is never addressable; constructing a pointer to it
// fails with ErrInvalidPointer.
package pointer

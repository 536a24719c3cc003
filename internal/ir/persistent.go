package ir

import "maps"

// Copy-on-write helpers. Each returns a new container that shares every
// untouched child with the receiver; the receiver is never modified. The
// patch package builds new snapshots exclusively through these, so a write
// costs one shallow copy per container on the written path.

// Get returns the value stored under key.
func (obj Object) Get(key string) (Value, bool) {
	v, ok := obj[key]
	return v, ok
}

// With returns a copy of obj with key set to v.
func (obj Object) With(key string, v Value) Object {
	out := make(Object, len(obj)+1)
	maps.Copy(out, obj)
	out[key] = v
	return out
}

// Without returns a copy of obj with key removed.
func (obj Object) Without(key string) Object {
	out := make(Object, len(obj))
	maps.Copy(out, obj)
	delete(out, key)
	return out
}

// Insert returns a copy of arr with v inserted at index i (0 <= i <= len).
func (arr Array) Insert(i int, v Value) Array {
	out := make(Array, 0, len(arr)+1)
	out = append(out, arr[:i]...)
	out = append(out, v)
	return append(out, arr[i:]...)
}

// Set returns a copy of arr with index i (0 <= i < len) replaced by v.
func (arr Array) Set(i int, v Value) Array {
	out := make(Array, len(arr))
	copy(out, arr)
	out[i] = v
	return out
}

// Delete returns a copy of arr without index i (0 <= i < len).
func (arr Array) Delete(i int) Array {
	out := make(Array, 0, len(arr)-1)
	out = append(out, arr[:i]...)
	return append(out, arr[i+1:]...)
}

// IsContainer reports whether v is an Array or an Object.
func IsContainer(v Value) bool {
	switch v.(type) {
	case Array, Object:
		return true
	}
	return false
}

// SameContainer reports whether a and b are both Arrays or both Objects,
// i.e. whether a structural comparison may recurse into them.
func SameContainer(a, b Value) bool {
	switch a.(type) {
	case Array:
		_, ok := b.(Array)
		return ok
	case Object:
		_, ok := b.(Object)
		return ok
	}
	return false
}

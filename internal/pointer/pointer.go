package pointer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/patchstore/internal/ir"
)

// End is the segment addressing the end of an array.
const End = "-"

const rootReason = "access to the root is not supported"

// Pointer is an immutable path into a state tree.
// The zero Pointer is invalid and only useful as a "not set" marker.
type Pointer struct {
	segments []string
	path     string
}

// Parse builds a Pointer from its encoded string form.
// A leading "/" is optional; "" and "/" are rejected.
func Parse(s string) (Pointer, error) {
	trimmed := strings.TrimPrefix(s, "/")
	if trimmed == "" {
		return Pointer{}, &InvalidError{Input: s, Reason: rootReason}
	}

	raw := strings.Split(trimmed, "/")
	segments := make([]string, len(raw))
	for i, seg := range raw {
		decoded, err := decode(seg)
		if err != nil {
			return Pointer{}, &InvalidError{Input: s, Reason: err.Error()}
		}
		segments[i] = decoded
	}
	return newPointer(segments), nil
}

// FromSegments builds a Pointer from decoded segments.
// An empty list, or a list holding a single empty segment, is rejected.
func FromSegments(segments []string) (Pointer, error) {
	if len(segments) == 0 || (len(segments) == 1 && segments[0] == "") {
		return Pointer{}, &InvalidError{Input: strings.Join(segments, "/"), Reason: rootReason}
	}
	return newPointer(append([]string(nil), segments...)), nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or with literal paths.
func MustParse(s string) Pointer {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// MustFromSegments is like FromSegments but panics on error.
func MustFromSegments(segments ...string) Pointer {
	p, err := FromSegments(segments)
	if err != nil {
		panic(err)
	}
	return p
}

func newPointer(segments []string) Pointer {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(encode(seg))
	}
	return Pointer{segments: segments, path: b.String()}
}

// Segments returns a copy of the decoded segments.
func (p Pointer) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Len returns the number of segments.
func (p Pointer) Len() int {
	return len(p.segments)
}

// Segment returns the i-th decoded segment.
func (p Pointer) Segment(i int) string {
	return p.segments[i]
}

// Last returns the final segment.
func (p Pointer) Last() string {
	return p.segments[len(p.segments)-1]
}

// Path returns the canonical encoded form, e.g. "/todos/0/title".
func (p Pointer) Path() string {
	return p.path
}

// String implements fmt.Stringer.
func (p Pointer) String() string {
	return p.path
}

// IsZero reports whether p is the zero Pointer.
func (p Pointer) IsZero() bool {
	return len(p.segments) == 0
}

// Equal reports whether two pointers address the same location.
func (p Pointer) Equal(other Pointer) bool {
	return p.path == other.path
}

// Prefix returns the pointer made of the first n segments (1 <= n <= Len).
func (p Pointer) Prefix(n int) Pointer {
	return newPointer(append([]string(nil), p.segments[:n]...))
}

// Append returns a new pointer with segs added after p's segments.
func (p Pointer) Append(segs ...string) Pointer {
	out := make([]string, 0, len(p.segments)+len(segs))
	out = append(out, p.segments...)
	return newPointer(append(out, segs...))
}

// Index returns a new pointer addressing element i of the array at p.
func (p Pointer) Index(i int) Pointer {
	return p.Append(strconv.Itoa(i))
}

// Resolve walks root and returns the value at p.
// The boolean is false when any location along the way is absent; Resolve
// never fails and never modifies root.
func (p Pointer) Resolve(root ir.Value) (ir.Value, bool) {
	if p.IsZero() {
		return nil, false
	}
	cur := root
	for _, seg := range p.segments {
		next, ok := Child(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Child returns the direct child of container addressed by seg.
// For arrays, seg must be a decimal index or End (the last element).
func Child(container ir.Value, seg string) (ir.Value, bool) {
	switch c := container.(type) {
	case ir.Object:
		v, ok := c[seg]
		return v, ok
	case ir.Array:
		i, ok := ArrayIndex(seg, len(c), false)
		if !ok || i >= len(c) {
			return nil, false
		}
		return c[i], true
	default:
		return nil, false
	}
}

// ArrayIndex converts seg into an index for an array of length n.
// End maps to n when forInsert is set and to n-1 otherwise. Indices must
// be canonical decimals: no sign and no leading zeros.
func ArrayIndex(seg string, n int, forInsert bool) (int, bool) {
	if seg == End {
		if forInsert {
			return n, true
		}
		if n == 0 {
			return 0, false
		}
		return n - 1, true
	}
	if !IsIndex(seg) {
		return 0, false
	}
	i, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return i, true
}

// IsIndex reports whether seg is a canonical non-negative decimal.
func IsIndex(seg string) bool {
	if seg == "" || (len(seg) > 1 && seg[0] == '0') {
		return false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the pointer as its canonical string.
func (p Pointer) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.path)
}

// UnmarshalJSON decodes a pointer from its string form.
func (p *Pointer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("pointer must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalYAML encodes the pointer as its canonical string.
func (p Pointer) MarshalYAML() (any, error) {
	return p.path, nil
}

// UnmarshalYAML decodes a pointer from a YAML scalar.
func (p *Pointer) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func encode(seg string) string {
	if !strings.ContainsAny(seg, "~/") {
		return seg
	}
	seg = strings.ReplaceAll(seg, "~", "~0")
	return strings.ReplaceAll(seg, "/", "~1")
}

func decode(seg string) (string, error) {
	if !strings.Contains(seg, "~") {
		return seg, nil
	}
	var b strings.Builder
	for i := 0; i < len(seg); i++ {
		if seg[i] != '~' {
			b.WriteByte(seg[i])
			continue
		}
		if i+1 >= len(seg) {
			return "", fmt.Errorf("dangling escape in segment %q", seg)
		}
		switch seg[i+1] {
		case '0':
			b.WriteByte('~')
		case '1':
			b.WriteByte('/')
		default:
			return "", fmt.Errorf("invalid escape ~%c in segment %q", seg[i+1], seg)
		}
		i++
	}
	return b.String(), nil
}

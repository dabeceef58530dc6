package msc

import (
	"strings"
)

// nameSeparator joins the segments of a hierarchical service name.
const nameSeparator = "."

// ServiceName is a hierarchical service identifier. Names are built from
// ordered segments joined by dots ("app.db.pool"), compare lexically, and
// are usable directly as map keys and dependency-graph node keys.
//
// Segments conventionally avoid the dot separator; NewServiceName does not
// reject it, but a segment containing a dot is indistinguishable from two
// segments in the canonical form.
type ServiceName string

// NewServiceName creates a service name from the given segments. Empty
// segments are dropped.
func NewServiceName(segments ...string) ServiceName {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return ServiceName(strings.Join(parts, nameSeparator))
}

// ParseServiceName parses a canonical dotted name back into a ServiceName.
func ParseServiceName(s string) ServiceName {
	return NewServiceName(strings.Split(s, nameSeparator)...)
}

// Append returns a new name with the given segments appended under this one.
// The receiver is not modified.
func (n ServiceName) Append(segments ...string) ServiceName {
	child := NewServiceName(segments...)
	if n == "" {
		return child
	}
	if child == "" {
		return n
	}
	return n + nameSeparator + child
}

// Segments returns the ordered segments of the name.
func (n ServiceName) Segments() []string {
	if n == "" {
		return nil
	}
	return strings.Split(string(n), nameSeparator)
}

// Parent returns the name with its last segment removed, and false if the
// name has no parent.
func (n ServiceName) Parent() (ServiceName, bool) {
	idx := strings.LastIndex(string(n), nameSeparator)
	if idx < 0 {
		return "", false
	}
	return n[:idx], true
}

// Length returns the number of segments.
func (n ServiceName) Length() int {
	return len(n.Segments())
}

// IsParentOf reports whether child is strictly beneath this name in the
// hierarchy.
func (n ServiceName) IsParentOf(child ServiceName) bool {
	if n == "" || child == n {
		return false
	}
	return strings.HasPrefix(string(child), string(n)+nameSeparator)
}

// Compare orders names lexically by their canonical form. It returns a
// negative value if n sorts before other, zero if equal, positive otherwise.
func (n ServiceName) Compare(other ServiceName) int {
	return strings.Compare(string(n), string(other))
}

// String returns the canonical dotted form.
func (n ServiceName) String() string {
	return string(n)
}

package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// A NodePath addresses a statement by the child indices leading to it from
// the root. The root itself has the empty path.
type NodePath []int

// A NodeID is the canonical string form of a NodePath: "/" for the root,
// "/0/1" for child 1 of child 0.
type NodeID string

// RootID is the NodeID of the root statement.
const RootID NodeID = "/"

// ID returns the canonical NodeID of p.
func (p NodePath) ID() NodeID {
	if len(p) == 0 {
		return RootID
	}
	var b strings.Builder
	for _, index := range p {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(index))
	}
	return NodeID(b.String())
}

func (p NodePath) String() string {
	return string(p.ID())
}

// Child returns a new path extending p with index. p is never aliased.
func (p NodePath) Child(index int) NodePath {
	child := make(NodePath, len(p), len(p)+1)
	copy(child, p)
	return append(child, index)
}

// Prefix returns the first n components of p as a new path.
func (p NodePath) Prefix(n int) NodePath {
	if n > len(p) {
		n = len(p)
	}
	prefix := make(NodePath, n)
	copy(prefix, p[:n])
	return prefix
}

// HasPrefix reports whether prefix is an ancestor of, or equal to, p.
func (p NodePath) HasPrefix(prefix NodePath) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Path parses id back into a NodePath.
func (id NodeID) Path() (NodePath, error) {
	s := string(id)
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("node id %q must start with /", s)
	}
	if s == "/" {
		return NodePath{}, nil
	}
	parts := strings.Split(s[1:], "/")
	path := make(NodePath, 0, len(parts))
	for _, part := range parts {
		index, err := strconv.Atoi(part)
		if err != nil || index < 0 {
			return nil, fmt.Errorf("node id %q has invalid component %q", s, part)
		}
		path = append(path, index)
	}
	return path, nil
}

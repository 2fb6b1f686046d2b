// Package rewrite applies positional edits to an IR tree.
//
// Edits are keyed by statement identity. The engine knows nothing about
// variables or scopes; the passes decide what to edit and this package only
// rebuilds the tree around those edits.
package rewrite

import (
	"fmt"

	"loadscript/internal/engine/ir"
)

type Kind int

const (
	InsertBefore Kind = iota + 1
	InsertAfter
	Replace
	Remove
)

func (k Kind) String() string {
	switch k {
	case InsertBefore:
		return "InsertBefore"
	case InsertAfter:
		return "InsertAfter"
	case Replace:
		return "Replace"
	case Remove:
		return "Remove"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// A Rewrite is one edit applied at a target statement. Statement is unused
// for Remove.
type Rewrite struct {
	Kind      Kind
	Statement ir.Statement
}

// Map holds at most one Rewrite per target statement.
type Map map[ir.Statement]Rewrite

// Tree returns a copy of s with edits applied to every statement below it.
// Composite statements are copied; leaves and statements without edits are
// shared with the input. s itself is never the target of an edit.
func Tree(s ir.Statement, edits Map) ir.Statement {
	switch s := s.(type) {
	case *ir.BlockStatement:
		return Apply(s, edits)
	case *ir.GroupStatement:
		out := &ir.GroupStatement{Name: s.Name}
		if s.Body != nil {
			out.Body = Apply(s.Body, edits)
		}
		return out
	case *ir.Fragment:
		return &ir.Fragment{Statements: statements(s.Statements, edits)}
	}
	return s
}

// Apply rewrites the statements of block and returns the new block.
func Apply(block *ir.BlockStatement, edits Map) *ir.BlockStatement {
	return &ir.BlockStatement{Statements: statements(block.Statements, edits)}
}

func statements(in []ir.Statement, edits Map) []ir.Statement {
	var out []ir.Statement
	for _, s := range in {
		edit, ok := edits[s]
		if !ok {
			out = append(out, Tree(s, edits))
			continue
		}
		switch edit.Kind {
		case InsertBefore:
			out = append(out, edit.Statement, Tree(s, edits))
		case InsertAfter:
			out = append(out, Tree(s, edits), edit.Statement)
		case Replace:
			out = append(out, edit.Statement)
		case Remove:
		default:
			panic(fmt.Sprintf("rewrite: unknown edit kind %v", edit.Kind))
		}
	}
	return out
}

// Package analysis resolves variable bindings across the nested groups of an
// IR tree.
//
// Resolution is flow-sensitive: a name always refers to the most recent
// declaration of that name in document order, whether or not that
// declaration lives in an enclosing group. The binding table is never reset
// on entering or leaving a group, which lets the hoisting pass see one
// logical variable whose lifetime spans several emitted scopes.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"loadscript/internal/engine/ir"
)

// A Scope is a region that introduces bindings in the emitted script: the
// root block or the body of a group. Node is the statement that owns it, so
// inserting before Node places a statement in the parent scope.
type Scope struct {
	ID   ir.NodeID
	Path ir.NodePath
	Node ir.Statement
}

// StatementInfo locates a statement in the tree.
type StatementInfo struct {
	ID     ir.NodeID
	Path   ir.NodePath
	Scope  *Scope // nearest enclosing scope
	Parent *StatementInfo
	Node   ir.Statement
}

// ReferenceInfo is a use of a declared name. ID and Path locate the
// statement containing the use. Node is the *ir.Identifier read, or the
// *ir.AssignStatement whose target is the name.
type ReferenceInfo struct {
	ID    ir.NodeID
	Path  ir.NodePath
	Scope *Scope
	Node  ir.Node
}

// DeclarationInfo is a variable declaration and every reference resolved
// to it.
type DeclarationInfo struct {
	StatementInfo
	Declaration *ir.VariableDeclaration
	References  []ReferenceInfo
}

func (d *DeclarationInfo) Name() string {
	return d.Declaration.Name
}

type IssueKind string

const (
	UndeclaredVariable           IssueKind = "UndeclaredVariable"
	DuplicateVariableDeclaration IssueKind = "DuplicateVariableDeclaration"
)

// An Issue is a non-fatal diagnostic. For UndeclaredVariable, Node is the
// offending *ir.Identifier or *ir.AssignStatement. For
// DuplicateVariableDeclaration, Node is the re-declaration and Others lists
// every earlier declaration of the same name in document order.
type Issue struct {
	Kind   IssueKind
	Name   string
	ID     ir.NodeID
	Path   ir.NodePath
	Node   ir.Node
	Others []*DeclarationInfo
}

func (i Issue) Message() string {
	switch i.Kind {
	case UndeclaredVariable:
		return fmt.Sprintf("variable %q is used at %s but never declared", i.Name, i.ID)
	case DuplicateVariableDeclaration:
		ids := make([]string, 0, len(i.Others))
		for _, other := range i.Others {
			ids = append(ids, string(other.ID))
		}
		return fmt.Sprintf("variable %q declared at %s was already declared at %s", i.Name, i.ID, strings.Join(ids, ", "))
	}
	return fmt.Sprintf("%s: %s at %s", i.Kind, i.Name, i.ID)
}

// Analysis is the result of a single Analyze run.
type Analysis struct {
	Statements   map[ir.NodeID]*StatementInfo
	Scopes       map[ir.NodeID]*Scope
	Declarations []*DeclarationInfo // document order
	Issues       []Issue
}

// Root returns the root statement's info.
func (a *Analysis) Root() *StatementInfo {
	return a.Statements[ir.RootID]
}

// Ancestors returns the scopes enclosing s from the root down to s itself.
// Every prefix of a scope path that is registered is a scope ancestor.
func (a *Analysis) Ancestors(s *Scope) []*Scope {
	out := make([]*Scope, 0, len(s.Path)+1)
	for n := 0; n <= len(s.Path); n++ {
		if scope, ok := a.Scopes[s.Path.Prefix(n).ID()]; ok {
			out = append(out, scope)
		}
	}
	return out
}

// DeclarationsByScope groups declarations by the ID of their enclosing
// scope. Within a group, document order is kept.
func (a *Analysis) DeclarationsByScope() map[ir.NodeID][]*DeclarationInfo {
	out := make(map[ir.NodeID][]*DeclarationInfo)
	for _, d := range a.Declarations {
		out[d.Scope.ID] = append(out[d.Scope.ID], d)
	}
	return out
}

// ScopeIDs returns the IDs of every registered scope in document order.
func (a *Analysis) ScopeIDs() []ir.NodeID {
	scopes := make([]*Scope, 0, len(a.Scopes))
	for _, s := range a.Scopes {
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool {
		return comparePaths(scopes[i].Path, scopes[j].Path) < 0
	})
	ids := make([]ir.NodeID, len(scopes))
	for i, s := range scopes {
		ids[i] = s.ID
	}
	return ids
}

// comparePaths orders paths in document (pre-order) order.
func comparePaths(a, b ir.NodePath) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] - b[i]
		}
	}
	return len(a) - len(b)
}

// CountIssues returns the number of issues of each kind.
func (a *Analysis) CountIssues() map[IssueKind]int {
	out := make(map[IssueKind]int, 2)
	for _, issue := range a.Issues {
		out[issue.Kind]++
	}
	return out
}

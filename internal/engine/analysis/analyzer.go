package analysis

import (
	"loadscript/internal/engine/ir"
)

// analyzer carries the mutable state of one Analyze run. frame maps each
// name to its latest declaration and is threaded through the whole walk.
type analyzer struct {
	result *Analysis
	frame  map[string]*DeclarationInfo
	byName map[string][]*DeclarationInfo
}

// Analyze indexes every statement under root, registers scopes, resolves
// references and collects issues. It never fails; problems with the input
// are reported in Analysis.Issues.
func Analyze(root *ir.BlockStatement) *Analysis {
	a := &analyzer{
		result: &Analysis{
			Statements: make(map[ir.NodeID]*StatementInfo),
			Scopes:     make(map[ir.NodeID]*Scope),
		},
		frame:  make(map[string]*DeclarationInfo),
		byName: make(map[string][]*DeclarationInfo),
	}

	scope := &Scope{ID: ir.RootID, Path: ir.NodePath{}, Node: root}
	self := &StatementInfo{ID: ir.RootID, Path: ir.NodePath{}, Scope: scope, Node: root}
	a.result.Scopes[scope.ID] = scope
	a.result.Statements[self.ID] = self

	a.children(self, scope, root.Statements)
	return a.result
}

func (a *analyzer) children(parent *StatementInfo, scope *Scope, statements []ir.Statement) {
	for i, s := range statements {
		path := parent.Path.Child(i)
		info := &StatementInfo{
			ID:     path.ID(),
			Path:   path,
			Scope:  scope,
			Parent: parent,
			Node:   s,
		}
		a.result.Statements[info.ID] = info
		a.statement(info)
	}
}

func (a *analyzer) statement(info *StatementInfo) {
	switch s := info.Node.(type) {
	case *ir.GroupStatement:
		inner := a.scope(info)
		if s.Body != nil {
			a.children(info, inner, s.Body.Statements)
		}
	case *ir.BlockStatement:
		a.children(info, a.scope(info), s.Statements)
	case *ir.Fragment:
		a.children(info, info.Scope, s.Statements)
	case *ir.VariableDeclaration:
		a.declaration(info, s)
	case *ir.AssignStatement:
		a.expression(info, s.Expression)
		a.reference(info, s.Name, s)
	case *ir.LogStatement:
		a.expression(info, s.Expression)
	case *ir.ExpressionStatement:
		a.expression(info, s.Expression)
	case *ir.SleepStatement:
	}
}

func (a *analyzer) scope(info *StatementInfo) *Scope {
	scope := &Scope{ID: info.ID, Path: info.Path, Node: info.Node}
	a.result.Scopes[scope.ID] = scope
	return scope
}

// declaration binds s.Name after its initializer is analyzed, so
// `let a = a` reads the previous binding.
func (a *analyzer) declaration(info *StatementInfo, s *ir.VariableDeclaration) {
	a.expression(info, s.Expression)

	if prior := a.byName[s.Name]; len(prior) > 0 {
		others := make([]*DeclarationInfo, len(prior))
		copy(others, prior)
		a.result.Issues = append(a.result.Issues, Issue{
			Kind:   DuplicateVariableDeclaration,
			Name:   s.Name,
			ID:     info.ID,
			Path:   info.Path,
			Node:   s,
			Others: others,
		})
	}

	decl := &DeclarationInfo{StatementInfo: *info, Declaration: s}
	a.result.Declarations = append(a.result.Declarations, decl)
	a.byName[s.Name] = append(a.byName[s.Name], decl)
	a.frame[s.Name] = decl
}

func (a *analyzer) reference(info *StatementInfo, name string, node ir.Node) {
	decl, ok := a.frame[name]
	if !ok {
		a.result.Issues = append(a.result.Issues, Issue{
			Kind: UndeclaredVariable,
			Name: name,
			ID:   info.ID,
			Path: info.Path,
			Node: node,
		})
		return
	}
	decl.References = append(decl.References, ReferenceInfo{
		ID:    info.ID,
		Path:  info.Path,
		Scope: info.Scope,
		Node:  node,
	})
}

// expression resolves every identifier read by e. The property of a
// non-computed member access is a name, not a read.
func (a *analyzer) expression(info *StatementInfo, e ir.Expression) {
	switch e := e.(type) {
	case nil:
	case *ir.Identifier:
		a.reference(info, e.Name, e)
	case *ir.MemberExpression:
		a.expression(info, e.Object)
		if e.Computed {
			a.expression(info, e.Property)
		}
	default:
		for _, operand := range ir.Operands(e) {
			a.expression(info, operand)
		}
	}
}

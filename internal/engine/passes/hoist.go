package passes

import (
	"loadscript/internal/core/errors"
	"loadscript/internal/engine/analysis"
	"loadscript/internal/engine/ir"
	"loadscript/internal/engine/rewrite"
)

// sharedScope returns the scope whose owning statement the declaration must
// be hoisted in front of. ok is false when every reference already lies in
// the declaration's scope or below it.
func sharedScope(d *analysis.DeclarationInfo) (id ir.NodeID, ok bool) {
	scopePath := d.Scope.Path
	for i, index := range scopePath {
		for _, ref := range d.References {
			if i >= len(ref.Path) || ref.Path[i] != index {
				return scopePath.Prefix(i + 1).ID(), true
			}
		}
	}
	return "", false
}

// owner returns the statement to insert a hoisted binding before. A
// fragment on the path is transparent, so inserting before it lands in the
// same scope as inserting before the group inside it.
func owner(a *analysis.Analysis, id ir.NodeID) (ir.Statement, *errors.DomainError) {
	if scope, ok := a.Scopes[id]; ok {
		return scope.Node, nil
	}
	if info, ok := a.Statements[id]; ok {
		if frag, isFrag := info.Node.(*ir.Fragment); isFrag {
			return frag, nil
		}
	}
	return nil, errors.Internal("shared scope missing from analysis").
		WithContext(errors.CtxScope, id)
}

// planHoist declares each cross-scope variable as `let name = null` before
// the group it escapes from and turns the original declaration into an
// assignment. Several hoists to one group are inserted in document order.
func planHoist(a *analysis.Analysis, r *rewrite.Rewriter) error {
	for _, d := range a.Declarations {
		id, ok := sharedScope(d)
		if !ok {
			continue
		}
		target, err := owner(a, id)
		if err != nil {
			return err.WithContext(errors.CtxVariable, d.Name())
		}

		r.InsertBefore(target, ir.Declare(ir.Let, d.Name(), ir.Null()))
		r.Replace(d.Declaration, ir.Assign(d.Name(), d.Declaration.Expression))
	}
	return nil
}

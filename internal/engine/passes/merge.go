package passes

import (
	"loadscript/internal/engine/analysis"
	"loadscript/internal/engine/ir"
	"loadscript/internal/engine/rewrite"
)

// planMerge rewrites every name declared more than once in one scope: the
// first declaration becomes a let with its own initializer and the rest
// become assignments. Same-named declarations in different scopes shadow
// each other and are left alone.
func planMerge(a *analysis.Analysis, r *rewrite.Rewriter) error {
	byScope := a.DeclarationsByScope()
	for _, scopeID := range a.ScopeIDs() {
		decls := byScope[scopeID]
		if len(decls) < 2 {
			continue
		}

		byName := make(map[string][]*analysis.DeclarationInfo)
		var order []string
		for _, d := range decls {
			if _, seen := byName[d.Name()]; !seen {
				order = append(order, d.Name())
			}
			byName[d.Name()] = append(byName[d.Name()], d)
		}

		for _, name := range order {
			group := byName[name]
			if len(group) < 2 {
				continue
			}
			first := group[0].Declaration
			r.Replace(first, ir.Declare(ir.Let, first.Name, first.Expression))
			for _, dup := range group[1:] {
				r.Replace(dup.Declaration, ir.Assign(dup.Declaration.Name, dup.Declaration.Expression))
			}
		}
	}
	return nil
}

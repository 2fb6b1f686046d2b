// Package passes implements the tree normalisations run between the front
// end and code generation. Each pass analyses a tree, plans edits with a
// rewrite.Rewriter and applies them, returning the new tree together with
// the issues found in the input.
package passes

import (
	"fmt"
	"sort"

	"loadscript/internal/core/errors"
	"loadscript/internal/engine/analysis"
	"loadscript/internal/engine/ir"
	"loadscript/internal/engine/rewrite"
)

// Result is the outcome of running a pass over one tree.
type Result struct {
	Tree     *ir.BlockStatement
	Analysis *analysis.Analysis // analysis of the input tree
	Issues   []analysis.Issue
	Rewrites int
}

// A Pass plans edits from an analysis. Plan must not modify the analysed
// tree.
type Pass struct {
	Name string
	Plan func(a *analysis.Analysis, r *rewrite.Rewriter) error
}

// Run analyses tree, plans edits and applies them. Issues never stop a
// pass; the error return is reserved for broken internal invariants.
func (p Pass) Run(tree *ir.BlockStatement) (*Result, error) {
	a := analysis.Analyze(tree)
	r := rewrite.NewRewriter()
	if err := p.Plan(a, r); err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, p.Name)
	}
	return &Result{
		Tree:     rewrite.Apply(tree, r.Done()),
		Analysis: a,
		Issues:   a.Issues,
		Rewrites: r.Count(),
	}, nil
}

const (
	MergeDeclarationsName = "merge-declarations"
	HoistVariablesName    = "hoist-variables"
)

var registry = map[string]Pass{
	MergeDeclarationsName: {Name: MergeDeclarationsName, Plan: planMerge},
	HoistVariablesName:    {Name: HoistVariablesName, Plan: planHoist},
}

// DefaultOrder merges before hoisting, so every escaping binding is a
// single let whose later values are plain assignments. The second merge
// folds a hoisted binding that lands next to a same-named declaration.
var DefaultOrder = []string{MergeDeclarationsName, HoistVariablesName, MergeDeclarationsName}

// Lookup returns the pass registered under name.
func Lookup(name string) (Pass, error) {
	p, ok := registry[name]
	if !ok {
		return Pass{}, errors.New(errors.CodeNotFound, fmt.Sprintf("unknown pass %q", name))
	}
	return p, nil
}

// Names lists the registered passes in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MergeDeclarations turns same-scope re-declarations into assignments.
func MergeDeclarations(tree *ir.BlockStatement) (*Result, error) {
	return registry[MergeDeclarationsName].Run(tree)
}

// HoistVariables moves bindings up to the lowest scope shared by the
// declaration and all of its references.
func HoistVariables(tree *ir.BlockStatement) (*Result, error) {
	return registry[HoistVariablesName].Run(tree)
}

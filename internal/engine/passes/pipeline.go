package passes

import (
	"loadscript/internal/engine/analysis"
	"loadscript/internal/engine/ir"
)

// Pipeline runs passes in order, re-analysing the tree before each one.
type Pipeline struct {
	Passes []Pass
}

// NewPipeline resolves names against the registered passes. An empty list
// selects DefaultOrder. A name may appear more than once.
func NewPipeline(names []string) (*Pipeline, error) {
	if len(names) == 0 {
		names = DefaultOrder
	}
	p := &Pipeline{}
	for _, name := range names {
		pass, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		p.Passes = append(p.Passes, pass)
	}
	return p, nil
}

// Names returns the pass names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Passes))
	for i, pass := range p.Passes {
		names[i] = pass.Name
	}
	return names
}

// Run applies every pass to tree. Issues and Analysis describe the input
// tree; issues in trees produced by earlier passes are not reported.
// Rewrites is the total over all passes.
func (p *Pipeline) Run(tree *ir.BlockStatement) (*Result, error) {
	if len(p.Passes) == 0 {
		a := analysis.Analyze(tree)
		return &Result{Tree: tree, Analysis: a, Issues: a.Issues}, nil
	}

	var out *Result
	for _, pass := range p.Passes {
		res, err := pass.Run(tree)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = res
		} else {
			out.Tree = res.Tree
			out.Rewrites += res.Rewrites
		}
		tree = res.Tree
	}
	return out, nil
}

package rewrite

import "loadscript/internal/engine/ir"

// Rewriter accumulates edits into a Map.
//
// Inserting twice on the same side of a target does not drop the first
// statement: both are merged into one Fragment in call order. Any other
// pair of edits on one target keeps the later edit.
type Rewriter struct {
	edits  Map
	merged map[*ir.Fragment]bool
	count  int
}

func NewRewriter() *Rewriter {
	return &Rewriter{
		edits:  make(Map),
		merged: make(map[*ir.Fragment]bool),
	}
}

func (r *Rewriter) InsertBefore(target, s ir.Statement) *Rewriter {
	return r.insert(InsertBefore, target, s)
}

func (r *Rewriter) InsertAfter(target, s ir.Statement) *Rewriter {
	return r.insert(InsertAfter, target, s)
}

func (r *Rewriter) Replace(target, s ir.Statement) *Rewriter {
	return r.set(target, Rewrite{Kind: Replace, Statement: s})
}

func (r *Rewriter) Remove(target ir.Statement) *Rewriter {
	return r.set(target, Rewrite{Kind: Remove})
}

func (r *Rewriter) insert(kind Kind, target, s ir.Statement) *Rewriter {
	prev, ok := r.edits[target]
	if !ok || prev.Kind != kind {
		return r.set(target, Rewrite{Kind: kind, Statement: s})
	}

	frag, isFrag := prev.Statement.(*ir.Fragment)
	if !isFrag || !r.merged[frag] {
		frag = ir.NewFragment(prev.Statement)
		r.merged[frag] = true
	}
	frag.Statements = append(frag.Statements, s)
	r.count++
	r.edits[target] = Rewrite{Kind: kind, Statement: frag}
	return r
}

func (r *Rewriter) set(target ir.Statement, edit Rewrite) *Rewriter {
	r.edits[target] = edit
	r.count++
	return r
}

// Count returns the number of edit calls made, including merged inserts.
func (r *Rewriter) Count() int {
	return r.count
}

// Done returns the accumulated edits. The Rewriter must not be used after.
func (r *Rewriter) Done() Map {
	return r.edits
}

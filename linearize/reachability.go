// Copyright (C) 2024 The Isla Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package linearize

import "github.com/islavm/isla/ir"

// reachability is a boolean formula over edges describing how control
// can reach a node (spec section 4.7 point 3): a disjunction, over
// incoming edges, of (predecessor's reachability AND that edge's
// condition).
type reachability interface {
	isReachability()
}

type rTrue struct{}
type rFalse struct{}
type rEdge struct{ e edge }
type rAnd struct{ lhs, rhs reachability }
type rOr struct{ lhs, rhs reachability }

func (rTrue) isReachability()  {}
func (rFalse) isReachability() {}
func (rEdge) isReachability()  {}
func (rAnd) isReachability()   {}
func (rOr) isReachability()    {}

// and combines two reachability formulas, applying the same True/False
// identities the source's BitAnd impl does.
func and(a, b reachability) reachability {
	switch a.(type) {
	case rTrue:
		return b
	case rFalse:
		return rFalse{}
	}
	switch b.(type) {
	case rTrue:
		return a
	case rFalse:
		return rFalse{}
	}
	return rAnd{lhs: a, rhs: b}
}

// or combines two reachability formulas, applying the source's BitOr
// identities.
func or(a, b reachability) reachability {
	switch a.(type) {
	case rTrue:
		return rTrue{}
	}
	switch b.(type) {
	case rTrue:
		return rTrue{}
	}
	if _, ok := a.(rFalse); ok {
		return b
	}
	if _, ok := b.(rFalse); ok {
		return a
	}
	return rOr{lhs: a, rhs: b}
}

// computeReachability computes the reachability formula for every
// node in topo order (spec section 4.7 point 3).
func computeReachability(g *cfg, order []int) map[int]reachability {
	r := make(map[int]reachability, len(g.blocks))
	for _, n := range order {
		var cur reachability = rFalse{}
		if n == g.root {
			cur = rTrue{}
		}
		for _, e := range g.preds(n) {
			cur = or(cur, and(r[e.from], rEdge{e: e}))
		}
		r[n] = cur
	}
	return r
}

// lowerCtx accumulates the instructions a reachability/ite lowering
// emits along with a source of fresh names. exitDefs holds, for every
// block already processed in topological order, the SSA substitution
// live at that block's exit; an edge's cond was captured from the
// original (un-renamed) instruction stream in buildCFG, so it must be
// routed through its source block's exitDefs before use, or it would
// reference a name that SSA renaming retargeted to a fresh temp and
// never actually reassigned.
type lowerCtx struct {
	gensym   func() ir.Name
	emit     func(ir.Instr)
	exitDefs map[int]map[ir.Name]ir.Exp
}

// lower renders a reachability formula as an ir.Exp, emitting
// "and_bool"/"or_bool" primop instructions for the non-trivial
// conjunctions/disjunctions the engine's fixed expression-level Op
// table (spec section 4.2) has no direct connective for.
func (lx *lowerCtx) lower(r reachability) ir.Exp {
	switch r := r.(type) {
	case rTrue:
		return ir.ExpLit{Val: ir.Bool(true)}
	case rFalse:
		return ir.ExpLit{Val: ir.Bool(false)}
	case rEdge:
		return substExp(r.e.cond, lx.exitDefs[r.e.from])
	case rAnd:
		l := lx.lower(r.lhs)
		rr := lx.lower(r.rhs)
		tmp := lx.gensym()
		lx.emit(ir.InstrPrimopBinary{Loc: ir.LocId{Name: tmp}, Op: "and_bool", Arg1: l, Arg2: rr})
		return ir.ExpId{Name: tmp}
	case rOr:
		l := lx.lower(r.lhs)
		rr := lx.lower(r.rhs)
		tmp := lx.gensym()
		lx.emit(ir.InstrPrimopBinary{Loc: ir.LocId{Name: tmp}, Op: "or_bool", Arg1: l, Arg2: rr})
		return ir.ExpId{Name: tmp}
	default:
		panic("linearize: unhandled reachability node")
	}
}

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

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/islavm/isla/ir"
)

// Linearize implements spec section 4.7: it builds a CFG from instrs,
// converts it to SSA, and — when the graph is acyclic — emits an
// equivalent straight-line sequence with phi merges lowered to ite
// chains keyed by reachability conditions, materializing the merged
// RETURN value as the final assignment before End. A cyclic CFG
// passes instrs through unchanged (point 2, SPEC_FULL.md section C.5).
//
// Only simple (non-field) l-values are SSA-renamed; a write through a
// struct-field or other nested l-value is left executing in place on
// its original name rather than being merged via ite, which remains
// correct (if less aggressively linearized) since field writes mutate
// the existing binding rather than replacing it wholesale.
func Linearize(instrs []ir.Instr) []ir.Instr {
	g := buildCFG(instrs)
	order, acyclic := topoOrder(g)
	if !acyclic {
		return instrs
	}
	reach := computeReachability(g, order)

	next := maxName(instrs) + 1
	gensym := func() ir.Name {
		n := next
		next++
		return n
	}

	var out []ir.Instr
	emit := func(ins ir.Instr) { out = append(out, ins) }

	entryDefs := make(map[int]map[ir.Name]ir.Exp, len(g.blocks))
	exitDefs := make(map[int]map[ir.Name]ir.Exp, len(g.blocks))
	lx := &lowerCtx{gensym: gensym, emit: emit, exitDefs: exitDefs}

	for _, n := range order {
		entry := mergeEntry(n, g.root, g.preds(n), reach, exitDefs, lx)
		entryDefs[n] = entry

		cur := make(map[ir.Name]ir.Exp, len(entry))
		for k, v := range entry {
			cur[k] = v
		}

		if !g.blocks[n].isExit {
			for _, ins := range g.blocks[n].body {
				emitRenamed(ins, cur, gensym, emit)
			}
		}
		exitDefs[n] = cur
	}

	if retExp, ok := entryDefs[g.exit][ir.RETURN]; ok {
		out = append(out, ir.InstrCopy{Loc: ir.LocId{Name: ir.RETURN}, Exp: retExp})
	}
	out = append(out, ir.InstrEnd{})
	return out
}

type condVal struct{ cond, val ir.Exp }

// mergeEntry computes the value every previously-defined variable
// holds entering block n (spec section 4.7 point 4's phi lowering),
// skipping the ite chain entirely (a minimal-SSA "trivial phi") when
// every predecessor agrees on the same value expression already.
func mergeEntry(n, root int, preds []edge, reach map[int]reachability, exitDefs map[int]map[ir.Name]ir.Exp, lx *lowerCtx) map[ir.Name]ir.Exp {
	if n == root || len(preds) == 0 {
		return map[ir.Name]ir.Exp{}
	}

	nameSet := map[ir.Name]bool{}
	for _, e := range preds {
		for name := range exitDefs[e.from] {
			nameSet[name] = true
		}
	}
	names := maps.Keys(nameSet)
	slices.Sort(names)

	result := make(map[ir.Name]ir.Exp, len(names))
	for _, name := range names {
		var pairs []condVal
		var first ir.Exp
		firstSet, allSame := false, true

		for _, e := range preds {
			val, ok := exitDefs[e.from][name]
			if !ok {
				continue
			}
			if !firstSet {
				first, firstSet = val, true
			} else if !exprEqual(val, first) {
				allSame = false
			}
			cond := and(reach[e.from], rEdge{e: e})
			pairs = append(pairs, condVal{cond: lx.lower(cond), val: val})
		}
		if len(pairs) == 0 {
			continue
		}
		if allSame {
			result[name] = first
			continue
		}
		result[name] = buildIteChain(pairs, lx)
	}
	return result
}

// buildIteChain right-associates a sequence of (condition, value)
// pairs into nested ite calls (spec section 4.7 point 4, "lower
// phi-nodes to right-associated ite chains"): the last pair's value is
// used as the final fallback with no guard of its own, since having
// reached the merge at all means some predecessor's edge held.
func buildIteChain(pairs []condVal, lx *lowerCtx) ir.Exp {
	if len(pairs) == 1 {
		return pairs[0].val
	}
	rest := buildIteChain(pairs[1:], lx)
	tmp := lx.gensym()
	lx.emit(ir.InstrPrimopVariadic{Loc: ir.LocId{Name: tmp}, Op: "ite", Args: []ir.Exp{pairs[0].cond, pairs[0].val, rest}})
	return ir.ExpId{Name: tmp}
}

// exprEqual reports whether a and b are structurally identical,
// special-casing ExpId (compared by Name alone, since two distinct SSA
// temps are never "the same value" even if Go's %#v would print them
// identically) and otherwise falling back to a formatted-representation
// comparison rather than hand-rolling a recursive equality check over
// every Exp variant.
func exprEqual(a, b ir.Exp) bool {
	if ai, ok := a.(ir.ExpId); ok {
		if bi, ok := b.(ir.ExpId); ok {
			return ai.Name == bi.Name
		}
		return false
	}
	return fmt.Sprintf("%#v", a) == fmt.Sprintf("%#v", b)
}

func rootName(l ir.Loc) ir.Name {
	switch l := l.(type) {
	case ir.LocId:
		return l.Name
	case ir.LocField:
		return rootName(l.Loc)
	default:
		return 0
	}
}

// emitRenamed rewrites one original instruction's expression operands
// through cur's current SSA substitution and, for a simple LocId
// destination, allocates a fresh name for the result (spec section 4.7
// point 4, "translating SSA names back to flat names via a freshly
// gensymmed map" — inverted here, since we gensym forward as we go
// rather than unssa-ing afterward).
func emitRenamed(ins ir.Instr, cur map[ir.Name]ir.Exp, gensym func() ir.Name, emit func(ir.Instr)) {
	switch t := ins.(type) {
	case ir.InstrDecl:
		emit(t)

	case ir.InstrInit:
		e := substExp(t.Exp, cur)
		tmp := gensym()
		cur[t.Var] = ir.ExpId{Name: tmp}
		emit(ir.InstrInit{Var: tmp, Ty: t.Ty, Exp: e})

	case ir.InstrCopy:
		e := substExp(t.Exp, cur)
		if id, ok := t.Loc.(ir.LocId); ok {
			tmp := gensym()
			cur[id.Name] = ir.ExpId{Name: tmp}
			emit(ir.InstrInit{Var: tmp, Exp: e})
			return
		}
		delete(cur, rootName(t.Loc))
		emit(ir.InstrCopy{Loc: t.Loc, Exp: e})

	case ir.InstrPrimopUnary:
		a := substExp(t.Arg, cur)
		if id, ok := t.Loc.(ir.LocId); ok {
			tmp := gensym()
			cur[id.Name] = ir.ExpId{Name: tmp}
			emit(ir.InstrPrimopUnary{Loc: ir.LocId{Name: tmp}, Op: t.Op, Arg: a})
			return
		}
		delete(cur, rootName(t.Loc))
		emit(ir.InstrPrimopUnary{Loc: t.Loc, Op: t.Op, Arg: a})

	case ir.InstrPrimopBinary:
		a1 := substExp(t.Arg1, cur)
		a2 := substExp(t.Arg2, cur)
		if id, ok := t.Loc.(ir.LocId); ok {
			tmp := gensym()
			cur[id.Name] = ir.ExpId{Name: tmp}
			emit(ir.InstrPrimopBinary{Loc: ir.LocId{Name: tmp}, Op: t.Op, Arg1: a1, Arg2: a2})
			return
		}
		delete(cur, rootName(t.Loc))
		emit(ir.InstrPrimopBinary{Loc: t.Loc, Op: t.Op, Arg1: a1, Arg2: a2})

	case ir.InstrPrimopVariadic:
		args := make([]ir.Exp, len(t.Args))
		for i, a := range t.Args {
			args[i] = substExp(a, cur)
		}
		if id, ok := t.Loc.(ir.LocId); ok {
			tmp := gensym()
			cur[id.Name] = ir.ExpId{Name: tmp}
			emit(ir.InstrPrimopVariadic{Loc: ir.LocId{Name: tmp}, Op: t.Op, Args: args})
			return
		}
		delete(cur, rootName(t.Loc))
		emit(ir.InstrPrimopVariadic{Loc: t.Loc, Op: t.Op, Args: args})

	case ir.InstrCall:
		args := make([]ir.Exp, len(t.Args))
		for i, a := range t.Args {
			args[i] = substExp(a, cur)
		}
		if id, ok := t.Loc.(ir.LocId); ok {
			tmp := gensym()
			cur[id.Name] = ir.ExpId{Name: tmp}
			emit(ir.InstrCall{Loc: ir.LocId{Name: tmp}, Ext: t.Ext, Func: t.Func, Args: args})
			return
		}
		delete(cur, rootName(t.Loc))
		emit(ir.InstrCall{Loc: t.Loc, Ext: t.Ext, Func: t.Func, Args: args})

	default:
		emit(ins)
	}
}

// substExp replaces every ExpId this block's current SSA map has a
// substitution for, recursively.
func substExp(e ir.Exp, cur map[ir.Name]ir.Exp) ir.Exp {
	switch e := e.(type) {
	case ir.ExpId:
		if v, ok := cur[e.Name]; ok {
			return v
		}
		return e
	case ir.ExpCall:
		args := make([]ir.Exp, len(e.Args))
		for i, a := range e.Args {
			args[i] = substExp(a, cur)
		}
		return ir.ExpCall{Op: e.Op, Args: args}
	case ir.ExpKind:
		return ir.ExpKind{Ctor: e.Ctor, Exp: substExp(e.Exp, cur)}
	case ir.ExpUnwrap:
		return ir.ExpUnwrap{Ctor: e.Ctor, Exp: substExp(e.Exp, cur)}
	case ir.ExpField:
		return ir.ExpField{Exp: substExp(e.Exp, cur), Field: e.Field}
	default:
		return e
	}
}

// maxName scans instrs for the highest ir.Name referenced anywhere, so
// Linearize's gensym counter can start strictly above it and never
// collide with a name the original program already used.
func maxName(instrs []ir.Instr) ir.Name {
	var max ir.Name
	bump := func(n ir.Name) {
		if n > max {
			max = n
		}
	}
	var visitExp func(e ir.Exp)
	visitExp = func(e ir.Exp) {
		switch e := e.(type) {
		case ir.ExpId:
			bump(e.Name)
		case ir.ExpCall:
			for _, a := range e.Args {
				visitExp(a)
			}
		case ir.ExpKind:
			visitExp(e.Exp)
		case ir.ExpUnwrap:
			visitExp(e.Exp)
		case ir.ExpField:
			visitExp(e.Exp)
			bump(e.Field)
		}
	}
	var visitLoc func(l ir.Loc)
	visitLoc = func(l ir.Loc) {
		switch l := l.(type) {
		case ir.LocId:
			bump(l.Name)
		case ir.LocField:
			visitLoc(l.Loc)
			bump(l.Field)
		}
	}
	for _, ins := range instrs {
		switch t := ins.(type) {
		case ir.InstrDecl:
			bump(t.Var)
		case ir.InstrInit:
			bump(t.Var)
			visitExp(t.Exp)
		case ir.InstrCopy:
			visitLoc(t.Loc)
			visitExp(t.Exp)
		case ir.InstrJump:
			visitExp(t.Cond)
		case ir.InstrPrimopUnary:
			visitLoc(t.Loc)
			visitExp(t.Arg)
		case ir.InstrPrimopBinary:
			visitLoc(t.Loc)
			visitExp(t.Arg1)
			visitExp(t.Arg2)
		case ir.InstrPrimopVariadic:
			visitLoc(t.Loc)
			for _, a := range t.Args {
				visitExp(a)
			}
		case ir.InstrCall:
			visitLoc(t.Loc)
			for _, a := range t.Args {
				visitExp(a)
			}
		}
	}
	return max
}

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

// Package linearize implements the optional CFG/SSA linearizer
// pre-pass (spec section 4.7): it builds a control-flow graph from a
// flat instruction stream, converts it to SSA, and — when the graph is
// acyclic — emits an equivalent straight-line instruction sequence
// with no dynamic branching, lowering merge points to ite chains keyed
// by reachability conditions. A cyclic graph passes through the
// original labeled form unchanged (SPEC_FULL.md section C.5).
package linearize

import (
	"sort"

	"github.com/islavm/isla/ir"
)

// edge is one CFG edge, labeled with the boolean expression (still in
// terms of the original, un-renamed instruction stream) under which
// control actually flows along it. cond is a literal ir.Bool(true) for
// an unconditional Continue/Goto edge. Consumers in linearize.go route
// cond through the source block's exitDefs before use, since SSA
// renaming may have retargeted any name cond references to a fresh
// temp (see lowerCtx.lower's rEdge case).
type edge struct {
	from, to int
	cond     ir.Exp
}

// block is one maximal run of non-control-transfer instructions
// (spec section 4.7 point 1, "labels all instructions, builds a CFG").
type block struct {
	body []ir.Instr // Decl/Init/Copy/PrimopX/Call only, no terminator
	// isExit marks the synthetic sink node every End-terminated block
	// flows into unconditionally, giving the graph a single exit the
	// same way a real dominance-based SSA construction would (see
	// Linearize's final RETURN materialization in linearize.go).
	isExit bool
}

// cfg is the graph built from one flat instruction stream.
type cfg struct {
	blocks []block
	edges  []edge // all outgoing edges, in construction order
	root   int
	exit   int
}

// blockOf finds the block index whose instruction range contains pc,
// given the sorted leaders list.
func blockOf(leaders []int, pc int) int {
	i := sort.SearchInts(leaders, pc+1) - 1
	if i < 0 {
		i = 0
	}
	return i
}

// buildCFG splits instrs into basic blocks at Jump/Goto targets and
// the instructions immediately following a Jump or Goto, then links
// them with edges. Every End-terminated block additionally gets a
// Continue edge to a synthetic single exit node.
func buildCFG(instrs []ir.Instr) *cfg {
	leaderSet := map[int]bool{0: true}
	for i, ins := range instrs {
		switch t := ins.(type) {
		case ir.InstrGoto:
			leaderSet[t.Target] = true
			if i+1 < len(instrs) {
				leaderSet[i+1] = true
			}
		case ir.InstrJump:
			leaderSet[t.Target] = true
			if i+1 < len(instrs) {
				leaderSet[i+1] = true
			}
		}
	}
	leaders := make([]int, 0, len(leaderSet))
	for i := range leaderSet {
		leaders = append(leaders, i)
	}
	sort.Ints(leaders)

	g := &cfg{root: 0}
	for bi, start := range leaders {
		end := len(instrs)
		if bi+1 < len(leaders) {
			end = leaders[bi+1]
		}
		seg := instrs[start:end]

		// Only a genuine control-transfer instruction (Goto/Jump/End) is
		// a terminator and gets excluded from body; anything else is
		// plain body that happens to end the segment because the next
		// leader begins right after it.
		body := seg
		var last ir.Instr
		if len(seg) > 0 {
			switch seg[len(seg)-1].(type) {
			case ir.InstrGoto, ir.InstrJump, ir.InstrEnd:
				last = seg[len(seg)-1]
				body = seg[:len(seg)-1]
			}
		}

		g.blocks = append(g.blocks, block{body: append([]ir.Instr(nil), body...)})

		switch t := last.(type) {
		case ir.InstrGoto:
			to := blockOf(leaders, t.Target)
			g.edges = append(g.edges, edge{from: bi, to: to, cond: ir.ExpLit{Val: ir.Bool(true)}})
		case ir.InstrJump:
			trueTo := blockOf(leaders, t.Target)
			falseTo := bi + 1
			g.edges = append(g.edges, edge{from: bi, to: trueTo, cond: t.Cond})
			if falseTo < len(leaders) {
				g.edges = append(g.edges, edge{from: bi, to: falseTo, cond: ir.ExpCall{Op: ir.Op{Tag: ir.OpNot}, Args: []ir.Exp{t.Cond}}})
			}
		case ir.InstrEnd:
			// linked to the synthetic exit once its index is known, below.
		default:
			// block fell through into the next leader with no explicit
			// terminator of its own (reached only via some other edge).
			if bi+1 < len(leaders) {
				g.edges = append(g.edges, edge{from: bi, to: bi + 1, cond: ir.ExpLit{Val: ir.Bool(true)}})
			}
		}
	}

	exitID := len(g.blocks)
	g.blocks = append(g.blocks, block{isExit: true})
	g.exit = exitID
	for bi, start := range leaders {
		end := len(instrs)
		if bi+1 < len(leaders) {
			end = leaders[bi+1]
		}
		if end > start {
			if _, ok := instrs[end-1].(ir.InstrEnd); ok {
				g.edges = append(g.edges, edge{from: bi, to: exitID, cond: ir.ExpLit{Val: ir.Bool(true)}})
			}
		}
	}
	return g
}

func (g *cfg) preds(n int) []edge {
	var out []edge
	for _, e := range g.edges {
		if e.to == n {
			out = append(out, e)
		}
	}
	return out
}

// topoOrder returns a topological order of the graph's nodes, or ok ==
// false if the graph contains a cycle (spec section 4.7 point 2,
// "requires the CFG to be acyclic").
func topoOrder(g *cfg) (order []int, ok bool) {
	indeg := make([]int, len(g.blocks))
	adj := make([][]int, len(g.blocks))
	for _, e := range g.edges {
		adj[e.from] = append(adj[e.from], e.to)
		indeg[e.to]++
	}
	var queue []int
	for n := 0; n < len(g.blocks); n++ {
		if indeg[n] == 0 {
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, m := range adj[n] {
			indeg[m]--
			if indeg[m] == 0 {
				queue = append(queue, m)
			}
		}
	}
	return order, len(order) == len(g.blocks)
}

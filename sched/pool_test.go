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

package sched

import (
	"fmt"
	"sync"
	"testing"

	"github.com/islavm/isla/collect"
	"github.com/islavm/isla/exec"
	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/primop"
	"github.com/islavm/isla/smt"
)

var schedBoolTy = ir.Ty{Kind: ir.TyBool}

// buildForkChain returns a program with n consecutive unconstrained
// boolean forks that converge back to a single instruction stream
// after each one, so the forking tree has exactly 2^n leaves and
// exactly n Branch events along every root-to-leaf path.
func buildForkChain(n int) []ir.Instr {
	var instrs []ir.Instr
	for i := 0; i < n; i++ {
		v := ir.Name(100 + i)
		base := len(instrs)
		instrs = append(instrs,
			ir.InstrDecl{Var: v, Ty: schedBoolTy},
			ir.InstrJump{Cond: ir.ExpId{Name: v}, Target: base + 3, SrcLoc: fmt.Sprintf("level%d", i)},
			ir.InstrGoto{Target: base + 3},
		)
	}
	instrs = append(instrs,
		ir.InstrInit{Var: ir.RETURN, Ty: schedBoolTy, Exp: ir.ExpLit{Val: ir.Bool(true)}},
		ir.InstrEnd{},
	)
	return instrs
}

// countingCollector counts invocations and sums Branch events across
// every delivered path's solver trace.
type countingCollector struct {
	mu       sync.Mutex
	paths    int
	branches int
}

func (c *countingCollector) Collect(tid int, res collect.Result, shared *ir.SharedState, solver smt.Solver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths++
	for _, ev := range solver.Trace() {
		if _, ok := ev.(smt.Branch); ok {
			c.branches++
		}
	}
}

// TestParallelQuiescence is spec section 8's scenario 6: 4 workers on
// a workload whose forking tree has 2^6 = 64 leaves. Every leaf is
// delivered to the collector exactly once, and the total Branch event
// count across all delivered paths is 6*64.
func TestParallelQuiescence(t *testing.T) {
	const levels = 6
	const wantPaths = 1 << levels

	instrs := buildForkChain(levels)
	initial := []exec.Task{{Frame: exec.NewFrame(instrs, ir.NewMemory())}}

	params := RunParams{
		Shared: &ir.SharedState{},
		Ctx:    smt.NewContext(smt.Config{}),
		Reg:    primop.Default(),
	}
	collector := &countingCollector{}

	Run(4, initial, params, collector)

	if collector.paths != wantPaths {
		t.Fatalf("want %d delivered paths, got %d", wantPaths, collector.paths)
	}
	wantBranches := levels * wantPaths
	if collector.branches != wantBranches {
		t.Fatalf("want %d total Branch events, got %d", wantBranches, collector.branches)
	}
}

func TestRunAssignsADistinctRunID(t *testing.T) {
	instrs := []ir.Instr{
		ir.InstrInit{Var: ir.RETURN, Ty: schedBoolTy, Exp: ir.ExpLit{Val: ir.Bool(true)}},
		ir.InstrEnd{},
	}
	initial := []exec.Task{{Frame: exec.NewFrame(instrs, ir.NewMemory())}}
	params := RunParams{
		Shared: &ir.SharedState{},
		Ctx:    smt.NewContext(smt.Config{}),
		Reg:    primop.Default(),
	}

	id1 := Run(2, initial, params, &countingCollector{})
	id2 := Run(2, initial, params, &countingCollector{})
	if id1 == id2 {
		t.Fatalf("want distinct run IDs across runs, got the same %s twice", id1)
	}
}

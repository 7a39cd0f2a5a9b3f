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

package primop

import (
	"errors"
	"math/big"
	"testing"

	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

func newSolver() smt.Solver {
	return smt.NewRef(smt.NewContext(smt.Config{}))
}

func TestApplyEqOnBits(t *testing.T) {
	s := newSolver()
	a := ir.NewBits(big.NewInt(3), 8)
	b := ir.NewBits(big.NewInt(3), 8)
	got, err := Apply(ir.Op{Tag: ir.OpEq}, []ir.Value{a, b}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ir.Bool(true) {
		t.Fatalf("want true, got %v", got)
	}
}

func TestApplyEqOnBool(t *testing.T) {
	s := newSolver()
	got, err := Apply(ir.Op{Tag: ir.OpEq}, []ir.Value{ir.Bool(true), ir.Bool(false)}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ir.Bool(false) {
		t.Fatalf("want false, got %v", got)
	}

	got, err = Apply(ir.Op{Tag: ir.OpNeq}, []ir.Value{ir.Bool(true), ir.Bool(false)}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ir.Bool(true) {
		t.Fatalf("want true, got %v", got)
	}
}

func TestApplyLtOnI64(t *testing.T) {
	s := newSolver()
	got, err := Apply(ir.Op{Tag: ir.OpLt}, []ir.Value{ir.I64(1), ir.I64(2)}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ir.Bool(true) {
		t.Fatalf("want true, got %v", got)
	}
}

func TestApplySymbolicFallsBackToFreshBool(t *testing.T) {
	s := newSolver()
	sym := s.Fresh()
	s.Add(smt.DeclareConst{Sym: sym, Sort: smt.BoolSort()})
	got, err := Apply(ir.Op{Tag: ir.OpEq}, []ir.Value{ir.Symbolic(sym), ir.I64(1)}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Tag() != ir.TSymbolic {
		t.Fatalf("want a fresh symbolic result, got %v", got)
	}
}

func TestApplyBitwiseAnd(t *testing.T) {
	s := newSolver()
	a := ir.NewBits(big.NewInt(0b1100), 4)
	b := ir.NewBits(big.NewInt(0b1010), 4)
	got, err := Apply(ir.Op{Tag: ir.OpBvAnd}, []ir.Value{a, b}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bits, ok := got.(ir.Bits)
	if !ok || bits.V.Uint64() != 0b1000 {
		t.Fatalf("want 0b1000, got %v", got)
	}
}

func TestApplySlice(t *testing.T) {
	s := newSolver()
	bits := ir.NewBits(big.NewInt(0b11110000), 8)
	got, err := Apply(ir.Op{Tag: ir.OpSlice, Len: 4}, []ir.Value{bits, ir.I64(4)}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok := got.(ir.Bits)
	if !ok || out.V.Uint64() != 0b1111 || out.Width != 4 {
		t.Fatalf("want 0b1111 width 4, got %v", got)
	}
}

func TestApplyHeadTailList(t *testing.T) {
	s := newSolver()
	list := ir.List{ir.I64(1), ir.I64(2), ir.I64(3)}
	head, err := Apply(ir.Op{Tag: ir.OpHead}, []ir.Value{list}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if head != ir.I64(1) {
		t.Fatalf("want 1, got %v", head)
	}

	tail, err := Apply(ir.Op{Tag: ir.OpTail}, []ir.Value{list}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tl, ok := tail.(ir.List)
	if !ok || len(tl) != 2 || tl[0] != ir.I64(2) {
		t.Fatalf("want [2 3], got %v", tail)
	}
}

func TestApplyHeadOfEmptyIsUnreachable(t *testing.T) {
	s := newSolver()
	_, err := Apply(ir.Op{Tag: ir.OpHead}, []ir.Value{ir.List{}}, s)
	if !errors.Is(err, ir.ErrUnreachable) {
		t.Fatalf("want an unreachable error, got %v", err)
	}
}

func TestDefaultRegistryIte(t *testing.T) {
	s := newSolver()
	reg := Default()
	f, ok := reg.Variadic("ite")
	if !ok {
		t.Fatalf("expected ite to be registered")
	}
	got, err := f([]ir.Value{ir.Bool(true), ir.I64(1), ir.I64(2)}, s, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ir.I64(1) {
		t.Fatalf("want 1, got %v", got)
	}

	got, err = f([]ir.Value{ir.Bool(false), ir.I64(1), ir.I64(2)}, s, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ir.I64(2) {
		t.Fatalf("want 2, got %v", got)
	}
}

func TestDefaultRegistryVectorUpdate(t *testing.T) {
	s := newSolver()
	reg := Default()
	f, ok := reg.Variadic("vector_update")
	if !ok {
		t.Fatalf("expected vector_update to be registered")
	}
	vec := ir.Vector{ir.I64(1), ir.I64(2), ir.I64(3)}
	got, err := f([]ir.Value{vec, ir.I64(1), ir.I64(9)}, s, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok := got.(ir.Vector)
	if !ok || out[1] != ir.I64(9) {
		t.Fatalf("want [1 9 3], got %v", got)
	}
	// original vector must be untouched (functional update)
	if vec[1] != ir.I64(2) {
		t.Fatalf("vector_update mutated its input: %v", vec)
	}
}

func TestVectorUpdateOutOfRangeIsUnreachable(t *testing.T) {
	s := newSolver()
	reg := Default()
	f, _ := reg.Variadic("vector_update")
	vec := ir.Vector{ir.I64(1)}
	_, err := f([]ir.Value{vec, ir.I64(5), ir.I64(9)}, s, nil)
	if !errors.Is(err, ir.ErrUnreachable) {
		t.Fatalf("want an unreachable error, got %v", err)
	}
}

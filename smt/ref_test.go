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

package smt

import "testing"

func TestFreshSymbolBothFeasible(t *testing.T) {
	ctx := NewContext(Config{})
	s := NewRef(ctx)
	v := s.Fresh()
	s.Add(DeclareConst{Sym: v, Sort: BoolSort()})

	if got := s.CheckSatWith(Var{Sym: v}); got != Sat {
		t.Fatalf("true branch: want Sat, got %v", got)
	}
	if got := s.CheckSatWith(Not{X: Var{Sym: v}}); got != Sat {
		t.Fatalf("false branch: want Sat, got %v", got)
	}
}

func TestAssertPinsSingleBranch(t *testing.T) {
	ctx := NewContext(Config{})
	s := NewRef(ctx)
	v := s.Fresh()
	s.Add(DeclareConst{Sym: v, Sort: BoolSort()})
	s.Add(Assert{Exp: Var{Sym: v}})

	if got := s.CheckSatWith(Var{Sym: v}); got != Sat {
		t.Fatalf("want Sat for the asserted side, got %v", got)
	}
	if got := s.CheckSatWith(Not{X: Var{Sym: v}}); got != Unsat {
		t.Fatalf("want Unsat for the negated side, got %v", got)
	}
}

func TestEnumBoundCardinalityOne(t *testing.T) {
	ctx := NewContext(Config{})
	s := NewRef(ctx)
	v := s.Fresh()
	s.Add(DeclareConst{Sym: v, Sort: BitVecSort(8)})
	s.Add(Assert{Exp: Bvult{X: Var{Sym: v}, Y: BitsLitFromUint64(1, 8)}})

	if got := s.CheckSat(); got != Sat {
		t.Fatalf("want Sat, got %v", got)
	}
	// A query for v < 0 leaves no room below the bound and must be
	// unsatisfiable.
	if got := s.CheckSatWith(Bvult{X: Var{Sym: v}, Y: BitsLitFromUint64(0, 8)}); got != Unsat {
		t.Fatalf("want Unsat (no room below 0), got %v", got)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	ctx := NewContext(Config{})
	s := NewRef(ctx)
	v := s.Fresh()
	s.Add(DeclareConst{Sym: v, Sort: BoolSort()})
	s.Add(Assert{Exp: Var{Sym: v}})
	s.AddEvent(Branch{ID: 0, SrcLoc: "test"})

	cp := s.Checkpoint()
	restored := ctx.FromCheckpoint(cp)

	if got := restored.CheckSatWith(Not{X: Var{Sym: v}}); got != Unsat {
		t.Fatalf("restored solver lost its assertion: got %v", got)
	}
	if next := restored.Fresh(); next != v+1 {
		t.Fatalf("restored solver did not preserve symbol counter: got %v want %v", next, v+1)
	}
}

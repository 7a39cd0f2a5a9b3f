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

package exec

import (
	"testing"

	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

func newTestSolver() smt.Solver {
	return smt.NewRef(smt.NewContext(smt.Config{}))
}

func TestMaterializeUnit(t *testing.T) {
	s := newTestSolver()
	shared := &ir.SharedState{}
	v, err := Materialize(ir.Ty{Kind: ir.TyUnit}, shared, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := v.(ir.Unit); !ok {
		t.Fatalf("want ir.Unit, got %v", v)
	}
}

func TestMaterializeZeroWidthBits(t *testing.T) {
	s := newTestSolver()
	shared := &ir.SharedState{}
	v, err := Materialize(ir.Ty{Kind: ir.TyBits, Width: 0}, shared, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bits, ok := v.(ir.Bits)
	if !ok || bits.Width != 0 {
		t.Fatalf("want concrete zero-width Bits, got %v", v)
	}
}

func TestMaterializeBoolIsFreshSymbolic(t *testing.T) {
	s := newTestSolver()
	shared := &ir.SharedState{}
	v, err := Materialize(ir.Ty{Kind: ir.TyBool}, shared, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Tag() != ir.TSymbolic {
		t.Fatalf("want a fresh symbolic value, got %v", v)
	}
}

// FixedVector of size 1 materializes an empty vector: the `size-1` rule
// (spec section 4.1, section 8 "Boundary behaviors").
func TestMaterializeFixedVectorSizeOneIsEmpty(t *testing.T) {
	s := newTestSolver()
	shared := &ir.SharedState{}
	elem := ir.Ty{Kind: ir.TyBool}
	v, err := Materialize(ir.Ty{Kind: ir.TyFixedVector, Size: 1, Elem: &elem}, shared, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vec, ok := v.(ir.Vector)
	if !ok || len(vec) != 0 {
		t.Fatalf("want an empty Vector, got %v", v)
	}
}

func TestMaterializeFixedVectorSizeThreeHasTwoElements(t *testing.T) {
	s := newTestSolver()
	shared := &ir.SharedState{}
	elem := ir.Ty{Kind: ir.TyBool}
	v, err := Materialize(ir.Ty{Kind: ir.TyFixedVector, Size: 3, Elem: &elem}, shared, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vec, ok := v.(ir.Vector)
	if !ok || len(vec) != 2 {
		t.Fatalf("want a 2-element Vector, got %v", v)
	}
}

// Enum materialization constrains the value strictly below the enum
// cardinality; cardinality 1 yields a value always equal to 0 under the
// assertions (spec section 8, "Boundary behaviors").
func TestMaterializeEnumCardinalityOne(t *testing.T) {
	s := newTestSolver()
	const enumName ir.Name = 42
	shared := &ir.SharedState{Enums: map[ir.Name][]ir.Name{enumName: {1}}}
	v, err := Materialize(ir.Ty{Kind: ir.TyEnum, Name: enumName}, shared, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := v.(ir.Symbolic); !ok {
		t.Fatalf("want a symbolic enum value, got %v", v)
	}
	if got := s.CheckSat(); got != smt.Sat {
		t.Fatalf("materializing a cardinality-1 enum should not itself be contradictory, got %v", got)
	}
}

func TestMaterializeStructRecursesIntoFields(t *testing.T) {
	s := newTestSolver()
	const structName, fieldA, fieldB ir.Name = 100, 101, 102
	shared := &ir.SharedState{
		Structs: map[ir.Name][]ir.Field{
			structName: {
				{Name: fieldA, Ty: ir.Ty{Kind: ir.TyUnit}},
				{Name: fieldB, Ty: ir.Ty{Kind: ir.TyBool}},
			},
		},
	}
	v, err := Materialize(ir.Ty{Kind: ir.TyStruct, Name: structName}, shared, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, ok := v.(ir.Struct)
	if !ok {
		t.Fatalf("want ir.Struct, got %v", v)
	}
	if _, ok := st[fieldA].(ir.Unit); !ok {
		t.Fatalf("field a: want Unit, got %v", st[fieldA])
	}
	if st[fieldB].Tag() != ir.TSymbolic {
		t.Fatalf("field b: want a fresh symbolic Bool, got %v", st[fieldB])
	}
}

func TestMaterializeUnknownStructIsUnreachable(t *testing.T) {
	s := newTestSolver()
	shared := &ir.SharedState{Structs: map[ir.Name][]ir.Field{}}
	_, err := Materialize(ir.Ty{Kind: ir.TyStruct, Name: 999}, shared, s)
	if err == nil {
		t.Fatalf("want an error for an unknown struct name")
	}
}

func TestMaterializeOtherIsPoison(t *testing.T) {
	s := newTestSolver()
	shared := &ir.SharedState{}
	v, err := Materialize(ir.Ty{Kind: ir.TyVector}, shared, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := v.(ir.Poison); !ok {
		t.Fatalf("want Poison, got %v", v)
	}
}

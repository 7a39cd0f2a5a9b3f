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
	"math/big"

	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

// Materialize converts an IR type into a Value: a concrete value when
// the type has a unique inhabitant, otherwise a fresh SMT variable of
// the equivalent sort, recursively for aggregates (spec section 4.1).
// The exact rules, including the deliberate FixedVector size-1 quirk,
// are matched bit-for-bit pending upstream confirmation (spec section 9,
// "FixedVector size-1 quirk").
func Materialize(ty ir.Ty, shared *ir.SharedState, s smt.Solver) (ir.Value, error) {
	switch ty.Kind {
	case ir.TyUnit:
		return ir.Unit{}, nil
	case ir.TyBits:
		if ty.Width == 0 {
			return ir.Bits{V: big.NewInt(0), Width: 0}, nil
		}
		return freshBitvec(s, ty.Width), nil
	case ir.TyI64:
		return freshBitvec(s, 64), nil
	case ir.TyI128:
		return freshBitvec(s, 128), nil
	case ir.TyBool:
		return freshBool(s), nil
	case ir.TyBit:
		return freshBitvec(s, 1), nil
	case ir.TyStruct:
		fields, ok := shared.Structs[ty.Name]
		if !ok {
			return nil, ir.Unreachable("exec: materializing unknown struct %d", ty.Name)
		}
		st := ir.Struct{}
		for _, f := range fields {
			v, err := Materialize(f.Ty, shared, s)
			if err != nil {
				return nil, err
			}
			st[f.Name] = v
		}
		return st, nil
	case ir.TyEnum:
		members, ok := shared.Enums[ty.Name]
		if !ok {
			return nil, ir.Unreachable("exec: materializing unknown enum %d", ty.Name)
		}
		sym := s.Fresh()
		s.Add(smt.DeclareConst{Sym: sym, Sort: smt.BitVecSort(8)})
		s.Add(smt.Assert{Exp: smt.Bvult{
			X: smt.Var{Sym: sym},
			Y: smt.BitsLitFromUint64(uint64(len(members)), 8),
		}})
		return ir.Symbolic(sym), nil
	case ir.TyFixedVector:
		n := int(ty.Size) - 1
		if n < 0 {
			n = 0
		}
		vec := make(ir.Vector, n)
		for i := 0; i < n; i++ {
			v, err := Materialize(*ty.Elem, shared, s)
			if err != nil {
				return nil, err
			}
			vec[i] = v
		}
		return vec, nil
	default:
		// TyVector, TyList, TyUnion, TyOther: outside the SMT fragment.
		return ir.Poison{}, nil
	}
}

func freshBitvec(s smt.Solver, width uint32) ir.Value {
	sym := s.Fresh()
	s.Add(smt.DeclareConst{Sym: sym, Sort: smt.BitVecSort(width)})
	return ir.Symbolic(sym)
}

func freshBool(s smt.Solver) ir.Value {
	sym := s.Fresh()
	s.Add(smt.DeclareConst{Sym: sym, Sort: smt.BoolSort()})
	return ir.Symbolic(sym)
}

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
	"math/big"

	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

// Apply routes an expression-level Op to its concrete semantics (spec
// section 4.2). It implements the fixed set of tags the evaluator
// recognizes directly: eq/neq/lt/gt/add, bitwise and/or/xor, boolean
// not, and the bitvector slice/set-slice/unsigned/head/tail family.
//
// Concrete operands are handled precisely. For eq/neq/lt/gt, add,
// bitwise and/or/xor, and not, an operand carrying a Symbolic handle
// falls back to allocating a fresh symbolic result instead of building
// the corresponding SMT term: comparisons and not give a Bool-sorted
// symbol; add takes its bitvector width from a concrete operand, and
// the bitwise ops from a concrete first operand. When no such width is
// available the result is a Bool-sorted symbol. Slice, set-slice,
// unsigned, head, and tail have no symbolic fallback and return a type
// error on a Symbolic operand. Precise symbolic semantics are this
// engine's primitive-operator collaborator's job, out of scope here
// (spec section 1).
func Apply(op ir.Op, args []ir.Value, s smt.Solver) (ir.Value, error) {
	switch op.Tag {
	case ir.OpEq:
		return cmpOp(args[0], args[1], s, func(c int) bool { return c == 0 }, true)
	case ir.OpNeq:
		return cmpOp(args[0], args[1], s, func(c int) bool { return c != 0 }, true)
	case ir.OpLt:
		return cmpOp(args[0], args[1], s, func(c int) bool { return c < 0 }, false)
	case ir.OpGt:
		return cmpOp(args[0], args[1], s, func(c int) bool { return c > 0 }, false)
	case ir.OpAdd:
		return addOp(args[0], args[1], s)
	case ir.OpBvAnd:
		return bitwiseOp(args[0], args[1], s, (*big.Int).And)
	case ir.OpBvOr:
		return bitwiseOp(args[0], args[1], s, (*big.Int).Or)
	case ir.OpBvXor:
		return bitwiseOp(args[0], args[1], s, (*big.Int).Xor)
	case ir.OpNot:
		return notOp(args[0], s)
	case ir.OpSlice:
		return sliceOp(args[0], args[1], op.Len)
	case ir.OpSetSlice:
		return setSliceOp(args[0], args[1], args[2])
	case ir.OpUnsigned:
		return unsignedOp(args[0])
	case ir.OpHead:
		return headOp(args[0])
	case ir.OpTail:
		return tailOp(args[0])
	default:
		return nil, ir.Unimplemented("primop: unrecognized op tag %v", op.Tag)
	}
}

func freshBool(s smt.Solver) ir.Value {
	sym := s.Fresh()
	s.Add(smt.DeclareConst{Sym: sym, Sort: smt.BoolSort()})
	return ir.Symbolic(sym)
}

func isSymbolic(v ir.Value) bool { return v.Tag() == ir.TSymbolic }

func intOf(v ir.Value) (*big.Int, uint32, bool) {
	switch v := v.(type) {
	case ir.I64:
		return big.NewInt(int64(v)), 64, true
	case ir.I128:
		return v.V, 128, true
	case ir.Bits:
		return v.V, v.Width, true
	default:
		return nil, 0, false
	}
}

func cmpOp(a, b ir.Value, s smt.Solver, pred func(int) bool, allowBool bool) (ir.Value, error) {
	if isSymbolic(a) || isSymbolic(b) {
		return freshBool(s), nil
	}
	if allowBool {
		if ab, ok := a.(ir.Bool); ok {
			if bb, ok := b.(ir.Bool); ok {
				c := 0
				if ab != bb {
					c = 1
				}
				return ir.Bool(pred(c)), nil
			}
		}
		if as, ok := a.(ir.Str); ok {
			if bs, ok := b.(ir.Str); ok {
				c := 0
				switch {
				case as < bs:
					c = -1
				case as > bs:
					c = 1
				}
				return ir.Bool(pred(c)), nil
			}
		}
	}
	ai, _, ok1 := intOf(a)
	bi, _, ok2 := intOf(b)
	if !ok1 || !ok2 {
		return nil, ir.TypeError("primop: comparison on incomparable values %v, %v", a.Tag(), b.Tag())
	}
	return ir.Bool(pred(ai.Cmp(bi))), nil
}

func addOp(a, b ir.Value, s smt.Solver) (ir.Value, error) {
	if isSymbolic(a) || isSymbolic(b) {
		// Prefer to preserve a concrete width if one operand carries one.
		if _, w, ok := intOf(a); ok {
			sym := s.Fresh()
			s.Add(smt.DeclareConst{Sym: sym, Sort: smt.BitVecSort(w)})
			return ir.Symbolic(sym), nil
		}
		if _, w, ok := intOf(b); ok {
			sym := s.Fresh()
			s.Add(smt.DeclareConst{Sym: sym, Sort: smt.BitVecSort(w)})
			return ir.Symbolic(sym), nil
		}
		return freshBool(s), nil // width unknown; reference stand-in
	}
	switch av := a.(type) {
	case ir.I64:
		if bv, ok := b.(ir.I64); ok {
			return av + bv, nil
		}
	case ir.I128:
		if bv, ok := b.(ir.I128); ok {
			return ir.NewI128(new(big.Int).Add(av.V, bv.V)), nil
		}
	case ir.Bits:
		if bv, ok := b.(ir.Bits); ok && av.Width == bv.Width {
			return ir.NewBits(new(big.Int).Add(av.V, bv.V), av.Width), nil
		}
	}
	return nil, ir.TypeError("primop: add on incompatible values %v, %v", a.Tag(), b.Tag())
}

func bitwiseOp(a, b ir.Value, s smt.Solver, f func(z, x, y *big.Int) *big.Int) (ir.Value, error) {
	if isSymbolic(a) || isSymbolic(b) {
		if _, w, ok := intOf(a); ok {
			sym := s.Fresh()
			s.Add(smt.DeclareConst{Sym: sym, Sort: smt.BitVecSort(w)})
			return ir.Symbolic(sym), nil
		}
		return freshBool(s), nil
	}
	ai, aw, ok1 := intOf(a)
	bi, _, ok2 := intOf(b)
	if !ok1 || !ok2 {
		return nil, ir.TypeError("primop: bitwise op on non-bitvector values %v, %v", a.Tag(), b.Tag())
	}
	z := new(big.Int)
	f(z, ai, bi)
	return ir.NewBits(z, aw), nil
}

func notOp(a ir.Value, s smt.Solver) (ir.Value, error) {
	if isSymbolic(a) {
		return freshBool(s), nil
	}
	b, ok := a.(ir.Bool)
	if !ok {
		return nil, ir.TypeError("primop: not on non-boolean value %v", a.Tag())
	}
	return !b, nil
}

func sliceOp(a, loVal ir.Value, length int) (ir.Value, error) {
	bits, ok := a.(ir.Bits)
	if !ok {
		return nil, ir.TypeError("primop: slice on non-bitvector value %v", a.Tag())
	}
	lo, _, ok := intOf(loVal)
	if !ok {
		return nil, ir.TypeError("primop: slice offset is not an integer (%v)", loVal.Tag())
	}
	shifted := new(big.Int).Rsh(bits.V, uint(lo.Int64()))
	return ir.NewBits(shifted, uint32(length)), nil
}

func setSliceOp(dst, loVal, replacement ir.Value) (ir.Value, error) {
	bits, ok := dst.(ir.Bits)
	if !ok {
		return nil, ir.TypeError("primop: set_slice on non-bitvector value %v", dst.Tag())
	}
	rep, ok := replacement.(ir.Bits)
	if !ok {
		return nil, ir.TypeError("primop: set_slice replacement is not a bitvector (%v)", replacement.Tag())
	}
	lo, _, ok := intOf(loVal)
	if !ok {
		return nil, ir.TypeError("primop: set_slice offset is not an integer (%v)", loVal.Tag())
	}
	shift := uint(lo.Int64())
	mask := new(big.Int).Lsh(big.NewInt(1), uint(rep.Width))
	mask.Sub(mask, big.NewInt(1))
	mask.Lsh(mask, shift)
	cleared := new(big.Int).AndNot(bits.V, mask)
	inserted := new(big.Int).Lsh(rep.V, shift)
	return ir.NewBits(new(big.Int).Or(cleared, inserted), bits.Width), nil
}

func unsignedOp(a ir.Value) (ir.Value, error) {
	i, _, ok := intOf(a)
	if !ok {
		return nil, ir.TypeError("primop: unsigned on non-integer value %v", a.Tag())
	}
	return ir.I128{V: new(big.Int).Set(i)}, nil
}

func headOp(a ir.Value) (ir.Value, error) {
	switch v := a.(type) {
	case ir.List:
		if len(v) == 0 {
			return nil, ir.Unreachable("primop: head of empty list")
		}
		return v[0], nil
	case ir.Vector:
		if len(v) == 0 {
			return nil, ir.Unreachable("primop: head of empty vector")
		}
		return v[0], nil
	default:
		return nil, ir.TypeError("primop: head on non-sequence value %v", a.Tag())
	}
}

func tailOp(a ir.Value) (ir.Value, error) {
	switch v := a.(type) {
	case ir.List:
		if len(v) == 0 {
			return nil, ir.Unreachable("primop: tail of empty list")
		}
		return append(ir.List{}, v[1:]...), nil
	case ir.Vector:
		if len(v) == 0 {
			return nil, ir.Unreachable("primop: tail of empty vector")
		}
		return append(ir.Vector{}, v[1:]...), nil
	default:
		return nil, ir.TypeError("primop: tail on non-sequence value %v", a.Tag())
	}
}

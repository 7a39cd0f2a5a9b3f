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
	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

// iteFunc implements the three-argument if-then-else the linearizer's
// phi lowering relies on (spec section 4.7, "ite chain"): ite(cond, t,
// e) picks t or e when cond is concrete, and otherwise falls back to a
// fresh symbolic result of the same sort as the branches since this
// repository does not carry an ite SMT term constructor (spec section
// 1, out of scope for the primitive-operator collaborator).
func iteFunc(args []ir.Value, s smt.Solver, _ Frame) (ir.Value, error) {
	if len(args) != 3 {
		return nil, ir.TypeError("primop: ite expects 3 arguments, got %d", len(args))
	}
	cond, t, e := args[0], args[1], args[2]

	if b, ok := cond.(ir.Bool); ok {
		if b {
			return t, nil
		}
		return e, nil
	}
	if !isSymbolic(cond) {
		return nil, ir.TypeError("primop: ite condition is not a boolean (%v)", cond.Tag())
	}

	if _, w, ok := intOf(t); ok {
		sym := s.Fresh()
		s.Add(smt.DeclareConst{Sym: sym, Sort: smt.BitVecSort(w)})
		return ir.Symbolic(sym), nil
	}
	return freshBool(s), nil
}

// vectorUpdateFunc implements Sail's vector_update(vec, i, v): a
// functional (copying) update of the element at index i, the real work
// behind the interpreter's INTERNAL_VECTOR_UPDATE call handling, which
// is a no-op that only advances pc (spec section 4.4).
func vectorUpdateFunc(args []ir.Value, _ smt.Solver, _ Frame) (ir.Value, error) {
	if len(args) != 3 {
		return nil, ir.TypeError("primop: vector_update expects 3 arguments, got %d", len(args))
	}
	vec, idxVal, val := args[0], args[1], args[2]

	v, ok := vec.(ir.Vector)
	if !ok {
		return nil, ir.TypeError("primop: vector_update on non-vector value %v", vec.Tag())
	}
	idx, _, ok := intOf(idxVal)
	if !ok {
		return nil, ir.TypeError("primop: vector_update index is not an integer (%v)", idxVal.Tag())
	}
	i := idx.Int64()
	if i < 0 || i >= int64(len(v)) {
		return nil, ir.Unreachable("primop: vector_update index %d out of range (len %d)", i, len(v))
	}

	out := append(ir.Vector{}, v...)
	out[i] = val
	return out, nil
}

// andBoolFunc implements Sail's and_bool(a, b), short-circuiting on a
// concrete false: the linearizer's reachability-formula lowering (spec
// section 4.7) uses this to combine a predecessor's reachability
// condition with the edge condition leading out of it, since the
// engine's fixed expression-level Op table (spec section 4.2) has no
// boolean conjunction of its own.
func andBoolFunc(a, b ir.Value, s smt.Solver) (ir.Value, error) {
	if ab, ok := a.(ir.Bool); ok && !bool(ab) {
		return ir.Bool(false), nil
	}
	if bb, ok := b.(ir.Bool); ok && !bool(bb) {
		return ir.Bool(false), nil
	}
	if ab, ok := a.(ir.Bool); ok {
		if bb, ok := b.(ir.Bool); ok {
			return ir.Bool(bool(ab) && bool(bb)), nil
		}
	}
	if !isSymbolic(a) && a.Tag() != ir.TBool {
		return nil, ir.TypeError("primop: and_bool on non-boolean value %v", a.Tag())
	}
	if !isSymbolic(b) && b.Tag() != ir.TBool {
		return nil, ir.TypeError("primop: and_bool on non-boolean value %v", b.Tag())
	}
	return freshBool(s), nil
}

// orBoolFunc implements Sail's or_bool(a, b), short-circuiting on a
// concrete true; see andBoolFunc.
func orBoolFunc(a, b ir.Value, s smt.Solver) (ir.Value, error) {
	if ab, ok := a.(ir.Bool); ok && bool(ab) {
		return ir.Bool(true), nil
	}
	if bb, ok := b.(ir.Bool); ok && bool(bb) {
		return ir.Bool(true), nil
	}
	if ab, ok := a.(ir.Bool); ok {
		if bb, ok := b.(ir.Bool); ok {
			return ir.Bool(bool(ab) || bool(bb)), nil
		}
	}
	if !isSymbolic(a) && a.Tag() != ir.TBool {
		return nil, ir.TypeError("primop: or_bool on non-boolean value %v", a.Tag())
	}
	if !isSymbolic(b) && b.Tag() != ir.TBool {
		return nil, ir.TypeError("primop: or_bool on non-boolean value %v", b.Tag())
	}
	return freshBool(s), nil
}

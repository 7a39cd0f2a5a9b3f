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
	"fmt"

	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

// Assign writes v through an l-value location (spec section 4.3).
func (lf *LocalFrame) Assign(loc ir.Loc, v ir.Value) error {
	return lf.assign(loc, v, v, nil)
}

// assign recurses toward the base identifier of loc. v is the value to
// store at the current layer (for a Field l-value this is the
// progressively reconstructed parent struct); leaf is the original
// value passed to the top-level Assign call, the one a WriteReg event
// reports; path accumulates the field chain leaf-first, matching
// fieldChain's convention in eval.go (the first loc visited, the
// leaf field, is pushed first).
func (lf *LocalFrame) assign(loc ir.Loc, v, leaf ir.Value, path ir.AccessorPath) error {
	switch loc := loc.(type) {
	case ir.LocId:
		return lf.assignID(loc.Name, v, leaf, path)
	case ir.LocField:
		cur, err := lf.fetchForUpdate(loc.Loc)
		if err != nil {
			return err
		}
		st, ok := cur.(ir.Struct)
		if !ok {
			panic(fmt.Sprintf("exec: assigning through field %d of a non-struct value (%v)", loc.Field, cur.Tag()))
		}
		updated := st.With(loc.Field, v)
		newPath := append(path, ir.Accessor{Field: loc.Field})
		return lf.assign(loc.Loc, updated, leaf, newPath)
	default:
		return ir.Unreachable("exec: unrecognized l-value node %T", loc)
	}
}

// assignID writes the top-level identifier case: a declared local (or
// the distinguished RETURN name) writes the local slot with no event;
// anything else is treated as a register and emits WriteReg(reg, path,
// leaf) (spec section 4.3).
func (lf *LocalFrame) assignID(name ir.Name, v, leaf ir.Value, path ir.AccessorPath) error {
	if name == ir.RETURN {
		lf.locals.vars[name] = ir.Init(v)
		return nil
	}
	if _, ok := lf.locals.vars[name]; ok {
		lf.locals.vars[name] = ir.Init(v)
		return nil
	}
	lf.locals.regs[name] = ir.Init(v)
	lf.solver.AddEvent(smt.WriteReg{Reg: name, Path: path, Val: leaf})
	return nil
}

// fetchForUpdate reads the current value through loc without emitting
// any event: it exists only to obtain the struct a Field l-value
// updates in place, materializing an Uninit slot along the way per the
// usual Uninit-or-Init transition.
func (lf *LocalFrame) fetchForUpdate(loc ir.Loc) (ir.Value, error) {
	switch loc := loc.(type) {
	case ir.LocId:
		if slot, ok := lf.locals.vars[loc.Name]; ok {
			return lf.resolveSlot(lf.locals.vars, loc.Name, slot)
		}
		if slot, ok := lf.locals.regs[loc.Name]; ok {
			return lf.resolveSlot(lf.locals.regs, loc.Name, slot)
		}
		panic(fmt.Sprintf("exec: unbound name %d in l-value fetch", loc.Name))
	case ir.LocField:
		cur, err := lf.fetchForUpdate(loc.Loc)
		if err != nil {
			return nil, err
		}
		st, ok := cur.(ir.Struct)
		if !ok {
			panic(fmt.Sprintf("exec: reading field %d of a non-struct value (%v)", loc.Field, cur.Tag()))
		}
		fv, ok := st[loc.Field]
		if !ok {
			return nil, ir.TypeError("exec: struct has no field %d", loc.Field)
		}
		return fv, nil
	default:
		return nil, ir.Unreachable("exec: unrecognized l-value node %T", loc)
	}
}

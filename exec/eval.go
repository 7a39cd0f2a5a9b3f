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
	"github.com/islavm/isla/primop"
	"github.com/islavm/isla/smt"
)

// Eval recursively interprets an IR expression, side-effecting on the
// local state and solver (spec section 4.2).
func (lf *LocalFrame) Eval(e ir.Exp) (ir.Value, error) {
	switch e := e.(type) {
	case ir.ExpId:
		return lf.readName(e.Name, nil)
	case ir.ExpLit:
		return e.Val, nil
	case ir.ExpUndefined:
		return Materialize(e.Ty, lf.shared, lf.solver)
	case ir.ExpCall:
		args := make([]ir.Value, len(e.Args))
		for i, a := range e.Args {
			v, err := lf.Eval(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return primop.Apply(e.Op, args, lf.solver)
	case ir.ExpKind:
		v, err := lf.Eval(e.Exp)
		if err != nil {
			return nil, err
		}
		ctor, ok := v.(ir.Ctor)
		if !ok {
			return nil, ir.TypeError("exec: Kind test on a non-constructor value (%v)", v.Tag())
		}
		return ir.Bool(ctor.Ctor != e.Ctor), nil
	case ir.ExpUnwrap:
		v, err := lf.Eval(e.Exp)
		if err != nil {
			return nil, err
		}
		ctor, ok := v.(ir.Ctor)
		if !ok || ctor.Ctor != e.Ctor {
			return nil, ir.TypeError("exec: Unwrap(%d) on a mismatched or non-constructor value", e.Ctor)
		}
		return ctor.Val, nil
	case ir.ExpField:
		base, path := fieldChain(e)
		if id, ok := base.(ir.ExpId); ok {
			return lf.readName(id.Name, path)
		}
		v, err := lf.Eval(base)
		if err != nil {
			return nil, err
		}
		return projectPath(v, path)
	default:
		return nil, ir.Unreachable("exec: unrecognized expression node %T", e)
	}
}

// fieldChain unwraps a (possibly nested) ExpField into its root
// expression and the chain of field selectors applied to it, leaf
// field first: for a.b.c this returns (a, [c, b]), the accessor-path
// order a register event carries (projectPath walks it back to front
// to apply the fields root-first).
func fieldChain(e ir.ExpField) (ir.Exp, ir.AccessorPath) {
	var path ir.AccessorPath
	var cur ir.Exp = e
	for {
		fe, ok := cur.(ir.ExpField)
		if !ok {
			break
		}
		path = append(path, ir.Accessor{Field: fe.Field})
		cur = fe.Exp
	}
	return cur, path
}

// readName resolves a name through the lookup order {locals, registers,
// lets, enum-members} (spec section 4.2), then projects path through
// the resulting value. A register read emits a ReadReg event carrying
// path and the final leaf value; locals, lets, and enum-members never
// emit events. An unbound name is a compiler bug, not a runtime error,
// and is fatal (spec section 7).
func (lf *LocalFrame) readName(name ir.Name, path ir.AccessorPath) (ir.Value, error) {
	if slot, ok := lf.locals.vars[name]; ok {
		base, err := lf.resolveSlot(lf.locals.vars, name, slot)
		if err != nil {
			return nil, err
		}
		return projectPath(base, path)
	}
	if slot, ok := lf.locals.regs[name]; ok {
		base, err := lf.resolveSlot(lf.locals.regs, name, slot)
		if err != nil {
			return nil, err
		}
		leaf, err := projectPath(base, path)
		if err != nil {
			return nil, err
		}
		lf.solver.AddEvent(smt.ReadReg{Reg: name, Path: path, Val: leaf})
		return leaf, nil
	}
	if slot, ok := lf.locals.lets[name]; ok {
		base, err := lf.resolveSlot(lf.locals.lets, name, slot)
		if err != nil {
			return nil, err
		}
		return projectPath(base, path)
	}
	if ord, ok := lf.shared.EnumMembers[name]; ok {
		return ir.BitsFromUint64(uint64(ord), 8), nil
	}
	panic(fmt.Sprintf("exec: unbound name %d in lookup order {locals, registers, lets, enum-members}", name))
}

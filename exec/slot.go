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

import "github.com/islavm/isla/ir"

// resolveSlot returns slot's value, materializing it in place if it is
// still Uninit (spec section 3, "the first read of an Uninit slot ...
// materializes a fresh symbolic value ..., writes Init back, and
// returns it"). m and name identify where to write the materialized
// Init slot back.
func (lf *LocalFrame) resolveSlot(m map[ir.Name]ir.UVal, name ir.Name, slot ir.UVal) (ir.Value, error) {
	if slot.IsInit() {
		return slot.Value(), nil
	}
	v, err := Materialize(slot.Type(), lf.shared, lf.solver)
	if err != nil {
		return nil, err
	}
	m[name] = ir.Init(v)
	return v, nil
}

// projectPath walks v through a chain of struct field accessors,
// returning the final leaf value. path is leaf-first (ir.AccessorPath's
// convention), so it is applied back to front: the outermost struct
// layer first, down to the leaf field last.
func projectPath(v ir.Value, path ir.AccessorPath) (ir.Value, error) {
	for i := len(path) - 1; i >= 0; i-- {
		a := path[i]
		st, ok := v.(ir.Struct)
		if !ok {
			return nil, ir.TypeError("exec: field access on non-struct value (%v)", v.Tag())
		}
		fv, ok := st[a.Field]
		if !ok {
			return nil, ir.TypeError("exec: struct has no field %d", a.Field)
		}
		v = fv
	}
	return v, nil
}

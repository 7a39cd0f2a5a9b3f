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

// Package exec is the interpreter: local state, Frame/LocalFrame, the
// expression evaluator and l-value assigner, the interpreter loop, and
// the explicit call stack (spec sections 3 and 4). It is the
// executor.rs analogue, parameterized over the ir data contract, an
// smt.Solver, and a primop.Registry rather than owning any of those
// concerns itself.
package exec

import (
	"golang.org/x/exp/maps"

	"github.com/islavm/isla/ir"
)

// LocalState holds the three disjoint name->slot maps spec section 3
// names: function locals, architectural registers, and top-level lets.
// Locals and lets are read and written without emitting solver events;
// registers always do (see eval.go and assign.go).
type LocalState struct {
	vars map[ir.Name]ir.UVal
	regs map[ir.Name]ir.UVal
	lets map[ir.Name]ir.UVal
}

// NewLocalState returns an empty LocalState.
func NewLocalState() *LocalState {
	return &LocalState{
		vars: make(map[ir.Name]ir.UVal),
		regs: make(map[ir.Name]ir.UVal),
		lets: make(map[ir.Name]ir.UVal),
	}
}

// Clone returns an independent copy: each of the three maps is copied,
// so mutating the clone's slots never affects the original. Value
// contents (Struct, Vector, ...) are themselves copy-on-write (see
// ir.Struct.With), so a shallow per-map copy is sufficient.
func (s *LocalState) Clone() *LocalState {
	return &LocalState{
		vars: maps.Clone(s.vars),
		regs: maps.Clone(s.regs),
		lets: maps.Clone(s.lets),
	}
}

// SetLet installs a top-level let binding, used by callers constructing
// an initial Frame before a run starts.
func (s *LocalState) SetLet(name ir.Name, v ir.Value) {
	s.lets[name] = ir.Init(v)
}

// DeclVar installs a var binding directly (bypassing Decl/Init
// instructions), used by callers constructing an initial Frame.
func (s *LocalState) DeclVar(name ir.Name, v ir.UVal) {
	s.vars[name] = v
}

// SetReg installs a register binding directly, used by callers
// constructing an initial Frame (architectural register reset state).
func (s *LocalState) SetReg(name ir.Name, v ir.UVal) {
	s.regs[name] = v
}

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

// Package primop provides the primitive-operator contract the
// interpreter dispatches to (spec sections 4.2 and 6) plus a small,
// named registry of reference implementations sufficient to drive this
// repository's own tests. Real primitive-operator math over the full
// Sail standard library is an external collaborator (spec section 1);
// see SPEC_FULL.md and DESIGN.md for the exact boundary.
package primop

import (
	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

// Frame is the minimal view of a LocalFrame a variadic primitive needs:
// enough to allocate vectors or touch memory (spec section 6, "Variadic
// primitives additionally receive a mutable reference to the
// LocalFrame"). exec.LocalFrame implements this interface; primop does
// not import exec, which would otherwise create an import cycle.
type Frame interface {
	Memory() *ir.Memory
}

// UnaryFunc is a registered unary primitive.
type UnaryFunc func(arg ir.Value, s smt.Solver) (ir.Value, error)

// BinaryFunc is a registered binary primitive.
type BinaryFunc func(a, b ir.Value, s smt.Solver) (ir.Value, error)

// VariadicFunc is a registered variadic primitive.
type VariadicFunc func(args []ir.Value, s smt.Solver, frame Frame) (ir.Value, error)

// Registry maps ir.PrimName to concrete host functions, the table an
// InstrPrimopUnary/Binary/Variadic instruction's Op field is resolved
// against (spec section 4.4).
type Registry struct {
	unary    map[ir.PrimName]UnaryFunc
	binary   map[ir.PrimName]BinaryFunc
	variadic map[ir.PrimName]VariadicFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		unary:    make(map[ir.PrimName]UnaryFunc),
		binary:   make(map[ir.PrimName]BinaryFunc),
		variadic: make(map[ir.PrimName]VariadicFunc),
	}
}

func (r *Registry) RegisterUnary(name ir.PrimName, f UnaryFunc)       { r.unary[name] = f }
func (r *Registry) RegisterBinary(name ir.PrimName, f BinaryFunc)     { r.binary[name] = f }
func (r *Registry) RegisterVariadic(name ir.PrimName, f VariadicFunc) { r.variadic[name] = f }

func (r *Registry) Unary(name ir.PrimName) (UnaryFunc, bool)       { f, ok := r.unary[name]; return f, ok }
func (r *Registry) Binary(name ir.PrimName) (BinaryFunc, bool)     { f, ok := r.binary[name]; return f, ok }
func (r *Registry) Variadic(name ir.PrimName) (VariadicFunc, bool) { f, ok := r.variadic[name]; return f, ok }

// Default returns a Registry pre-populated with the small set of named
// primitives this repository's own code relies on: "ite" (used by the
// linearizer's phi lowering, spec section 4.7), "and_bool"/"or_bool"
// (used by the linearizer's reachability-formula lowering, since the
// fixed expression-level Op table has no boolean connectives), and
// "vector_update" (the real implementation behind Sail's vector_update
// builtin, which the interpreter's INTERNAL_VECTOR_UPDATE call handling
// treats as a no-op per spec section 4.4, delegating the actual work
// here).
func Default() *Registry {
	r := NewRegistry()
	r.RegisterVariadic("ite", iteFunc)
	r.RegisterBinary("and_bool", andBoolFunc)
	r.RegisterBinary("or_bool", orBoolFunc)
	r.RegisterVariadic("vector_update", vectorUpdateFunc)
	return r
}

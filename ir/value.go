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

// Package ir defines the data contract the symbolic execution engine
// consumes: the Value universe, the instruction/expression/l-value IR,
// and the shared static context. It is a data contract only; loading an
// actual instruction stream from a Sail-like source is an external
// collaborator's job (see SPEC_FULL.md section A.1).
package ir

import (
	"fmt"
	"math/big"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Name identifies a register, local variable, function, struct/enum/union,
// or field by its interned symbol-table id. The symbol table itself
// (id <-> string decoding) is an external collaborator.
type Name uint32

// RETURN is the distinguished local variable name through which a
// function communicates its return value (spec section 3, "Invariants").
const RETURN Name = 0

// Tag discriminates the Value sum type.
type Tag uint8

const (
	TUnit Tag = iota
	TBool
	TI64
	TI128
	TBits
	TSymbolic
	TString
	TCtor
	TStruct
	TVector
	TList
	TPoison
)

func (t Tag) String() string {
	switch t {
	case TUnit:
		return "unit"
	case TBool:
		return "bool"
	case TI64:
		return "i64"
	case TI128:
		return "i128"
	case TBits:
		return "bits"
	case TSymbolic:
		return "symbolic"
	case TString:
		return "string"
	case TCtor:
		return "ctor"
	case TStruct:
		return "struct"
	case TVector:
		return "vector"
	case TList:
		return "list"
	case TPoison:
		return "poison"
	default:
		return "?"
	}
}

// Value is the universe of runtime values the interpreter manipulates:
// concrete scalars, bitvectors, compound structs/vectors/unions, and
// opaque SMT variables (spec section 3, "Value").
type Value interface {
	Tag() Tag
	fmt.Stringer
}

// Unit is the sole inhabitant of the unit type.
type Unit struct{}

func (Unit) Tag() Tag      { return TUnit }
func (Unit) String() string { return "()" }

// Bool is a concrete boolean.
type Bool bool

func (Bool) Tag() Tag        { return TBool }
func (b Bool) String() string { return fmt.Sprintf("%v", bool(b)) }

// I64 is a concrete 64-bit machine integer.
type I64 int64

func (I64) Tag() Tag        { return TI64 }
func (i I64) String() string { return fmt.Sprintf("%d", int64(i)) }

// I128 is a concrete 128-bit machine integer, backed by math/big since
// Go has no native int128 and no third-party bigint library appears
// anywhere in the example pack (see DESIGN.md).
type I128 struct{ V *big.Int }

func NewI128(v *big.Int) I128 { return I128{V: new(big.Int).Set(v)} }

func (I128) Tag() Tag        { return TI128 }
func (i I128) String() string { return i.V.String() }

// Bits is a bitvector value of a given width, carried in-band per spec
// section 3 ("bitvector of width <= W with width carried in-band").
// The backing big.Int is always kept normalized modulo 2^Width.
type Bits struct {
	V     *big.Int
	Width uint32
}

// NewBits constructs a Bits value, masking v to the given width.
func NewBits(v *big.Int, width uint32) Bits {
	m := new(big.Int).Set(v)
	mask := new(big.Int).Lsh(big.NewInt(1), uint(width))
	mask.Sub(mask, big.NewInt(1))
	m.And(m, mask)
	return Bits{V: m, Width: width}
}

// BitsFromUint64 constructs a Bits value from a uint64 payload.
func BitsFromUint64(v uint64, width uint32) Bits {
	return NewBits(new(big.Int).SetUint64(v), width)
}

func (Bits) Tag() Tag { return TBits }
func (b Bits) String() string {
	if b.Width == 0 {
		return "[]"
	}
	return fmt.Sprintf("0x%x<%d>", b.V, b.Width)
}

// Symbolic is an opaque handle identifying an SMT variable of known sort;
// the sort itself lives in the solver's declaration, not in the handle.
type Symbolic uint32

func (Symbolic) Tag() Tag        { return TSymbolic }
func (s Symbolic) String() string { return fmt.Sprintf("v%d", uint32(s)) }

// String is a concrete string value. Named Str to avoid colliding with
// the fmt.Stringer method and the builtin string type.
type Str string

func (Str) Tag() Tag        { return TString }
func (s Str) String() string { return string(s) }

// Ctor is a constructor-tagged union value: (tag, boxed value).
type Ctor struct {
	Ctor Name
	Val  Value
}

func (Ctor) Tag() Tag { return TCtor }
func (c Ctor) String() string {
	return fmt.Sprintf("ctor(%d, %s)", c.Ctor, c.Val)
}

// Struct is an ordered mapping field-id -> Value. Iteration order is not
// semantically meaningful (field ids are unique keys); FieldNames returns
// a deterministic (sorted) order for printing and tracing.
type Struct map[Name]Value

func (Struct) Tag() Tag { return TStruct }

// FieldNames returns the struct's field ids in ascending order.
func (s Struct) FieldNames() []Name {
	names := make([]Name, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// With returns a shallow copy of s with field set to v, leaving s
// untouched (the assigner copy-inserts rather than mutates in place,
// spec section 4.3).
func (s Struct) With(field Name, v Value) Struct {
	out := maps.Clone(s)
	if out == nil {
		out = Struct{}
	}
	out[field] = v
	return out
}

func (s Struct) String() string {
	out := "{"
	for i, n := range s.FieldNames() {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d: %s", n, s[n])
	}
	return out + "}"
}

// Vector is a fixed-length sequence of values.
type Vector []Value

func (Vector) Tag() Tag { return TVector }
func (v Vector) String() string {
	out := "["
	for i, e := range v {
		if i > 0 {
			out += ", "
		}
		out += e.String()
	}
	return out + "]"
}

// List is a variable-length sequence of values (Sail's cons lists).
type List []Value

func (List) Tag() Tag { return TList }
func (l List) String() string {
	out := "("
	for i, e := range l {
		if i > 0 {
			out += " "
		}
		out += e.String()
	}
	return out + ")"
}

// Poison is a placeholder for a value whose type cannot be represented
// in SMT. Using a Poison value in an operation must be trapped (surfaced
// as a KindType/KindUnreachable error), never silently propagated, except
// where it is legitimately threaded through as an as-yet-unused vector
// element (spec section 4.1, INTERNAL_VECTOR_INIT).
type Poison struct{}

func (Poison) Tag() Tag        { return TPoison }
func (Poison) String() string { return "<poison>" }

// UVal is a binding slot: either Uninit(type) or Init(Value), per spec
// section 3 "Uninit-or-Init".
type UVal struct {
	init bool
	ty   Ty
	val  Value
}

// Uninit constructs an uninitialized slot of the given type.
func Uninit(ty Ty) UVal { return UVal{ty: ty} }

// Init constructs an initialized slot holding v.
func Init(v Value) UVal { return UVal{init: true, val: v} }

// IsInit reports whether the slot holds a value already.
func (u UVal) IsInit() bool { return u.init }

// Value returns the slot's value. It panics if the slot is Uninit;
// callers must materialize first (see exec.Materialize).
func (u UVal) Value() Value {
	if !u.init {
		panic("ir: read of UVal.Value on an Uninit slot")
	}
	return u.val
}

// Type returns the slot's declared type. Only meaningful for an Uninit
// slot: Init stores no type, so an Init slot reports the zero Ty.
func (u UVal) Type() Ty { return u.ty }

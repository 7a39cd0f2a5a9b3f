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

// Package smt defines the SMT solver contract the engine depends on
// (spec section 6, "To the SMT solver") and a reference in-memory
// implementation good enough to drive this repository's own tests. A
// production backend (a pipe to z3/cvc5 speaking SMT-LIB2) is an
// external collaborator; see SPEC_FULL.md section A.1.
package smt

import (
	"math/big"

	"github.com/islavm/isla/ir"
)

// Sym is the handle identifying an SMT variable of a known sort. It is
// the same representation as ir.Symbolic so that a Value carrying a
// Symbolic handle can be used directly as a solver Var.
type Sym = ir.Symbolic

// SortKind discriminates the handful of sorts the engine ever declares
// (spec section 4.1): the theory is kept entirely within QF_BV plus Bool.
type SortKind uint8

const (
	SortBool SortKind = iota
	SortBV
)

// Sort is an SMT sort: Bool, or BitVec(Width).
type Sort struct {
	Kind  SortKind
	Width uint32
}

// BoolSort is the Bool sort.
func BoolSort() Sort { return Sort{Kind: SortBool} }

// BitVecSort is the BitVec(width) sort.
func BitVecSort(width uint32) Sort { return Sort{Kind: SortBV, Width: width} }

// Def is a solver-level definition, per spec section 6: DeclareConst or
// Assert.
type Def interface{ defNode() }

// DeclareConst declares a fresh constant of the given sort.
type DeclareConst struct {
	Sym  Sym
	Sort Sort
}

// Assert adds a boolean constraint to the solver's assertion stack.
type Assert struct{ Exp Exp }

func (DeclareConst) defNode() {}
func (Assert) defNode()       {}

// Exp is a solver-level (SMT-LIB-ish) expression, distinct from the
// IR-level ir.Exp: it speaks only of declared constants and a small
// fixed vocabulary of boolean/bitvector connectives.
type Exp interface{ smtExpNode() }

// Var references a declared constant.
type Var struct{ Sym Sym }

// BoolLit is a concrete boolean literal.
type BoolLit struct{ V bool }

// BitsLit is a concrete bitvector literal.
type BitsLit struct {
	V     *big.Int
	Width uint32
}

// Not negates a boolean expression.
type Not struct{ X Exp }

// And is the conjunction of two boolean expressions.
type And struct{ X, Y Exp }

// Or is the disjunction of two boolean expressions.
type Or struct{ X, Y Exp }

// Eq is equality between two expressions of the same sort.
type Eq struct{ X, Y Exp }

// Bvult is unsigned bitvector less-than.
type Bvult struct{ X, Y Exp }

func (Var) smtExpNode()     {}
func (BoolLit) smtExpNode() {}
func (BitsLit) smtExpNode() {}
func (Not) smtExpNode()     {}
func (And) smtExpNode()     {}
func (Or) smtExpNode()      {}
func (Eq) smtExpNode()      {}
func (Bvult) smtExpNode()   {}

// BitsLitFromUint64 is a convenience constructor for a BitsLit.
func BitsLitFromUint64(v uint64, width uint32) BitsLit {
	return BitsLit{V: new(big.Int).SetUint64(v), Width: width}
}

// Event is an entry in the solver's append-only per-worker event log
// (spec section 3, "Events").
type Event interface{ eventNode() }

// ReadReg records a register read, carrying the accessor path describing
// which sub-field of a structured register was read.
type ReadReg struct {
	Reg  ir.Name
	Path ir.AccessorPath
	Val  ir.Value
}

// WriteReg records a register write.
type WriteReg struct {
	Reg  ir.Name
	Path ir.AccessorPath
	Val  ir.Value
}

// Branch marks the point of a symbolic fork, carrying a monotonically
// increasing per-path branch id and a diagnostic source location.
type Branch struct {
	ID     uint32
	SrcLoc string
}

func (ReadReg) eventNode()  {}
func (WriteReg) eventNode() {}
func (Branch) eventNode()   {}

// SatResult is the result of a satisfiability query.
type SatResult uint8

const (
	Sat SatResult = iota
	Unsat
	Unknown
)

func (r SatResult) IsSat() bool { return r == Sat }

// Config configures how a Solver is constructed (timeouts, backend
// selection, ...). The reference solver ignores it; it exists so the
// contract matches a real backend's Config/Context split (spec section
// 6; mirrors the source's Config::new()/Context::new(cfg)).
type Config struct {
	Timeout int // milliseconds; 0 means no timeout
}

// Context is a solver factory bound to a Config.
type Context struct {
	Cfg Config
}

// NewContext returns a Context for the given Config.
func NewContext(cfg Config) *Context { return &Context{Cfg: cfg} }

// Solver is the engine's view of an SMT solver instance (spec section 6).
type Solver interface {
	// Fresh allocates a new, as-yet-undeclared symbol.
	Fresh() Sym
	// Add pushes a definition (DeclareConst or Assert) onto the solver.
	Add(Def)
	// AddEvent appends an event to this worker's event log.
	AddEvent(Event)
	// CheckSat checks the current assertion stack for satisfiability.
	CheckSat() SatResult
	// CheckSatWith checks satisfiability of the current assertion stack
	// conjoined with exp, without committing exp to the stack.
	CheckSatWith(exp Exp) SatResult
	// Checkpoint captures an opaque, restorable snapshot of solver state.
	Checkpoint() Checkpoint
	// Trace returns the event log accumulated so far.
	Trace() []Event
}

// Checkpoint is an opaque solver state serialization that can be
// restored into a fresh solver context (spec GLOSSARY "Checkpoint").
// Checkpoints are immutable and freely shareable (spec section 5).
type Checkpoint struct {
	decls   []DeclareConst
	asserts []Exp
	events  []Event
	nextSym uint32
}

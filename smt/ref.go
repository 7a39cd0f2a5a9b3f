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

package smt

import "math/big"

// boolState is the three-valued domain a Bool-sorted symbol can be
// pinned to by an Assert.
type boolState uint8

const (
	boolFree boolState = iota
	boolTrue
	boolFalse
)

// Ref is a reference Solver good enough to drive this repository's own
// tests and the worked scenarios in spec section 8. It is not a general
// decision procedure: it precisely tracks the two constraint shapes this
// engine itself ever asserts (a Bool symbol pinned by Jump forking, and a
// bitvector symbol bounded above by Bvult, as the enum materializer
// emits) and degrades to an optimistic "assume satisfiable" default for
// any other boolean shape, which is sound for every path this engine's
// own code can construct. A production backend replaces this wholesale;
// see SPEC_FULL.md section A.1.
type Ref struct {
	cfg *Context

	nextSym uint32
	decls   []DeclareConst
	asserts []Exp
	events  []Event

	bools  map[Sym]boolState
	bounds map[Sym]*big.Int // exclusive upper bound from Bvult(Var(s), lit)

	contradiction bool
}

// NewRef constructs an empty reference solver bound to ctx.
func NewRef(ctx *Context) *Ref {
	return &Ref{
		cfg:    ctx,
		bools:  make(map[Sym]boolState),
		bounds: make(map[Sym]*big.Int),
	}
}

// FromCheckpoint restores a Solver from a Checkpoint (spec section 6,
// "from_checkpoint(ctx, Checkpoint) -> Solver").
func (ctx *Context) FromCheckpoint(cp Checkpoint) Solver {
	r := NewRef(ctx)
	r.nextSym = cp.nextSym
	r.decls = append([]DeclareConst(nil), cp.decls...)
	r.events = append([]Event(nil), cp.events...)
	for _, d := range cp.asserts {
		r.Add(Assert{Exp: d})
	}
	return r
}

func (r *Ref) Fresh() Sym {
	s := Sym(r.nextSym)
	r.nextSym++
	return s
}

func (r *Ref) Add(d Def) {
	switch d := d.(type) {
	case DeclareConst:
		r.decls = append(r.decls, d)
	case Assert:
		r.asserts = append(r.asserts, d.Exp)
		r.apply(d.Exp)
	}
}

// apply folds a newly-asserted expression into the domain trackers. It
// recurses through And so `Assert(a); Assert(b)` and `Assert(And(a,b))`
// behave identically.
func (r *Ref) apply(e Exp) {
	switch e := e.(type) {
	case And:
		r.apply(e.X)
		r.apply(e.Y)
	case Var:
		r.pinBool(e.Sym, boolTrue)
	case Not:
		if v, ok := e.X.(Var); ok {
			r.pinBool(v.Sym, boolFalse)
		}
	case Bvult:
		v, okV := e.X.(Var)
		lit, okLit := e.Y.(BitsLit)
		if okV && okLit {
			r.boundAbove(v.Sym, lit.V)
		}
	}
}

func (r *Ref) pinBool(s Sym, want boolState) {
	cur, ok := r.bools[s]
	if ok && cur != boolFree && cur != want {
		r.contradiction = true
		return
	}
	r.bools[s] = want
}

func (r *Ref) boundAbove(s Sym, lit *big.Int) {
	cur, ok := r.bounds[s]
	if !ok || lit.Cmp(cur) < 0 {
		r.bounds[s] = new(big.Int).Set(lit)
	}
	if r.bounds[s].Sign() <= 0 {
		r.contradiction = true
	}
}

func (r *Ref) AddEvent(ev Event) { r.events = append(r.events, ev) }

func (r *Ref) CheckSat() SatResult {
	if r.contradiction {
		return Unsat
	}
	return Sat
}

func (r *Ref) CheckSatWith(exp Exp) SatResult {
	if r.contradiction {
		return Unsat
	}
	switch e := exp.(type) {
	case Var:
		if r.bools[e.Sym] == boolFalse {
			return Unsat
		}
		return Sat
	case Not:
		if v, ok := e.X.(Var); ok {
			if r.bools[v.Sym] == boolTrue {
				return Unsat
			}
			return Sat
		}
		return Sat
	case Bvult:
		v, okV := e.X.(Var)
		lit, okLit := e.Y.(BitsLit)
		if okV && okLit {
			bound, hasBound := r.bounds[v.Sym]
			if lit.V.Sign() <= 0 {
				return Unsat
			}
			if hasBound && bound.Sign() <= 0 {
				return Unsat
			}
			return Sat
		}
		return Sat
	default:
		// No tracked shape matches; this engine never asserts any
		// other boolean form itself, so assume satisfiable.
		return Sat
	}
}

func (r *Ref) Checkpoint() Checkpoint {
	return Checkpoint{
		decls:   append([]DeclareConst(nil), r.decls...),
		asserts: append([]Exp(nil), r.asserts...),
		events:  append([]Event(nil), r.events...),
		nextSym: r.nextSym,
	}
}

func (r *Ref) Trace() []Event { return r.events }

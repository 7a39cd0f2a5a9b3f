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

package collect

import (
	"sync"

	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

// AllUnsat is a collector that checks a universal boolean property: it
// reports Holds() == true only if every delivered, non-Dead path ended
// with Value == ir.Bool(true). A single counterexample (a reachable
// path ending false, or a non-Dead, non-bool return) latches Holds()
// to false for the rest of the run.
type AllUnsat struct {
	mu             sync.Mutex
	holds          bool
	checked        int
	counterexample *Result
}

// NewAllUnsat returns an AllUnsat collector that starts out holding
// (vacuously true until a path proves otherwise).
func NewAllUnsat() *AllUnsat {
	return &AllUnsat{holds: true}
}

// Collect implements Collector. A Dead path (infeasible) is a no-op: it
// never speaks to the property. Any other error — a genuine engine
// failure such as ir.Unreachable or ir.TypeError — counts against the
// property exactly like a false return, rather than being silently
// ignored (executor.rs's all_unsat_collector: `Err(Error::Dead) => ()`,
// `_ => { ...; *b &= false }`).
func (a *AllUnsat) Collect(tid int, res Result, shared *ir.SharedState, solver smt.Solver) {
	if ir.IsDead(res.Err) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.checked++

	ok := res.Err == nil
	if ok {
		b, isBool := res.Value.(ir.Bool)
		ok = isBool && bool(b)
	}
	if !ok {
		if a.holds {
			r := res
			a.counterexample = &r
		}
		a.holds = false
	}
}

// Holds reports whether every path checked so far returned true.
func (a *AllUnsat) Holds() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holds
}

// Checked returns the number of completed (non-Dead) paths seen.
func (a *AllUnsat) Checked() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.checked
}

// Counterexample returns the first path that broke the property, if
// any.
func (a *AllUnsat) Counterexample() (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.counterexample == nil {
		return Result{}, false
	}
	return *a.counterexample, true
}

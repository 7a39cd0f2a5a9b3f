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
	"testing"

	"github.com/google/uuid"

	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

// solverWithTrace returns a solver whose event log is exactly the
// given ReadReg/WriteReg events, for building paths with a known,
// repeatable trace.
func solverWithTrace(reg ir.Name, val ir.Value) smt.Solver {
	s := newCollectTestSolver()
	s.AddEvent(smt.WriteReg{Reg: reg, Val: val})
	s.AddEvent(smt.ReadReg{Reg: reg, Val: val})
	return s
}

func TestDedupForwardsOnlyFirstOccurrenceOfEachTrace(t *testing.T) {
	calls := 0
	inner := collectorFunc(func(tid int, res Result, shared *ir.SharedState, solver smt.Solver) {
		calls++
	})
	d := NewDedup(inner)

	a := solverWithTrace(1, ir.I64(5))
	b := solverWithTrace(1, ir.I64(5)) // identical trace to a
	c := solverWithTrace(2, ir.I64(9)) // distinct trace

	d.Collect(0, Result{Value: ir.I64(5)}, &ir.SharedState{}, a)
	d.Collect(1, Result{Value: ir.I64(5)}, &ir.SharedState{}, b)
	d.Collect(2, Result{Value: ir.I64(9)}, &ir.SharedState{}, c)

	if calls != 2 {
		t.Fatalf("want the inner collector invoked twice (one per distinct trace), got %d", calls)
	}
	if d.Distinct() != 2 {
		t.Fatalf("want 2 distinct digests, got %d", d.Distinct())
	}
	if d.Total() != 3 {
		t.Fatalf("want 3 total paths counted, got %d", d.Total())
	}
}

// TestDedupAndTraceAgreeOnDistinctPaths cross-checks Dedup's blake2b
// digesting against Trace's siphash bucketing: both hash the same
// simplifyTrace bytes, so Trace, fed only the paths Dedup forwards,
// must record exactly as many paths as Dedup has distinct digests,
// and Trace's siphash bucket counts must sum to that record count.
func TestDedupAndTraceAgreeOnDistinctPaths(t *testing.T) {
	tr := NewTrace(uuid.New())
	d := NewDedup(tr)

	a := solverWithTrace(1, ir.I64(5))
	b := solverWithTrace(1, ir.I64(5))
	c := solverWithTrace(2, ir.I64(9))

	d.Collect(0, Result{Value: ir.I64(5)}, &ir.SharedState{}, a)
	d.Collect(1, Result{Value: ir.I64(5)}, &ir.SharedState{}, b)
	d.Collect(2, Result{Value: ir.I64(9)}, &ir.SharedState{}, c)

	records := tr.Records()
	if len(records) != d.Distinct() {
		t.Fatalf("want Trace to have recorded exactly the %d distinct paths Dedup forwarded, got %d", d.Distinct(), len(records))
	}

	decoded := make([][]byte, len(records))
	for i, r := range records {
		raw, err := Decompress(r)
		if err != nil {
			t.Fatalf("unexpected decompress error: %v", err)
		}
		decoded[i] = raw
	}
	if len(decoded) == len(records) && len(decoded) > 0 {
		if string(decoded[0]) == string(simplifyTrace(c.Trace())) && len(decoded) != 2 {
			t.Fatalf("expected exactly two forwarded distinct traces")
		}
	}

	buckets := tr.BucketCounts()
	total := 0
	for _, n := range buckets {
		total += n
	}
	if total != len(records) {
		t.Fatalf("want Trace's bucket counts to sum to its record count %d, got %d", len(records), total)
	}
}

type collectorFunc func(tid int, res Result, shared *ir.SharedState, solver smt.Solver)

func (f collectorFunc) Collect(tid int, res Result, shared *ir.SharedState, solver smt.Solver) {
	f(tid, res, shared, solver)
}

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
)

func TestTraceRecordsCompletedPaths(t *testing.T) {
	tr := NewTrace(uuid.New())
	s := solverWithTrace(1, ir.I64(5))

	tr.Collect(0, Result{Value: ir.I64(5)}, &ir.SharedState{}, s)

	if len(tr.Records()) != 1 {
		t.Fatalf("want 1 recorded trace, got %d", len(tr.Records()))
	}
	total := 0
	for _, n := range tr.BucketCounts() {
		total += n
	}
	if total != 1 {
		t.Fatalf("want bucket counts to sum to 1, got %d", total)
	}
}

// A Dead path never reaches a real assertion or exit, so it carries no
// trace worth keeping: Collect must be a no-op (spec section 9, "Dead";
// executor.rs's trace_collector: `Err(Error::Dead) => ()`).
func TestTraceIgnoresDeadPaths(t *testing.T) {
	tr := NewTrace(uuid.New())
	s := solverWithTrace(1, ir.I64(5))

	tr.Collect(0, Result{Err: ir.Dead()}, &ir.SharedState{}, s)

	if len(tr.Records()) != 0 {
		t.Fatalf("want Dead paths to not be recorded, got %d records", len(tr.Records()))
	}
	total := 0
	for _, n := range tr.BucketCounts() {
		total += n
	}
	if total != 0 {
		t.Fatalf("want Dead paths to not bump any bucket, got total %d", total)
	}
}

// A non-Dead engine error still completed a path (it just ended badly)
// and is recorded like any other result, distinguishing it from Dead.
func TestTraceRecordsNonDeadErrors(t *testing.T) {
	tr := NewTrace(uuid.New())
	s := solverWithTrace(1, ir.I64(5))

	tr.Collect(0, Result{Err: ir.Unreachable("broken invariant")}, &ir.SharedState{}, s)

	records := tr.Records()
	if len(records) != 1 {
		t.Fatalf("want 1 recorded trace, got %d", len(records))
	}
	if records[0].Err == nil {
		t.Fatalf("want the record to carry the original error")
	}
}

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

// Package collect provides the pluggable per-path observers a scheduler
// invokes once per finished path (spec section 4.6): Trace (a
// compressed, deduplicatable event-log recorder) and AllUnsat (a
// universal-boolean-property checker), plus the Dedup wrapper
// supplementing both (SPEC_FULL.md section C.2).
package collect

import (
	"fmt"

	"github.com/islavm/isla/exec"
	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

// Result is a finished path's outcome, the Go shape of spec section
// 4.6's Result<(value,frame), Error>: Frame is non-nil exactly when Err
// is nil.
type Result struct {
	Value ir.Value
	Frame *exec.Frame
	Err   error
}

// Collector is a pluggable observer invoked once per finished path
// (spec section 4.6).
type Collector interface {
	Collect(tid int, res Result, shared *ir.SharedState, solver smt.Solver)
}

// simplifyTrace renders a path's event log as a deterministic textual
// trace, the "simplified SMT event log" spec section 4.6 describes the
// trace collector producing. It is shared by Trace and Dedup so both
// compute digests and bucket keys over identical bytes.
func simplifyTrace(events []smt.Event) []byte {
	var buf []byte
	for _, ev := range events {
		buf = append(buf, formatEvent(ev)...)
		buf = append(buf, '\n')
	}
	return buf
}

func formatEvent(ev smt.Event) string {
	switch e := ev.(type) {
	case smt.ReadReg:
		return fmt.Sprintf("read reg=%d path=%v val=%s", e.Reg, e.Path, e.Val)
	case smt.WriteReg:
		return fmt.Sprintf("write reg=%d path=%v val=%s", e.Reg, e.Path, e.Val)
	case smt.Branch:
		return fmt.Sprintf("branch id=%d src=%s", e.ID, e.SrcLoc)
	default:
		return fmt.Sprintf("event %T", ev)
	}
}

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

package sched

import (
	"github.com/islavm/isla/collect"
	"github.com/islavm/isla/exec"
)

// RunSingle drains a LIFO queue of tasks on the calling goroutine with
// no pool machinery at all (SPEC_FULL.md section C.1, the source's
// start_single): useful for deterministic unit tests of the
// interpreter loop in isolation from scheduling nondeterminism.
func RunSingle(initial []exec.Task, params RunParams, collector collect.Collector) {
	queue := append([]exec.Task(nil), initial...)
	push := func(t exec.Task) { queue = append(queue, t) }

	for len(queue) > 0 {
		n := len(queue)
		task := queue[n-1]
		queue = queue[:n-1]

		val, frame, solver, err := exec.Run(task, params.Shared, params.Ctx, params.Reg, push)
		collector.Collect(0, collect.Result{Value: val, Frame: frame, Err: err}, params.Shared, solver)
	}
}

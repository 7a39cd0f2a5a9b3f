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
	"sync"

	"github.com/islavm/isla/exec"
)

// injector is the global queue initially-pushed tasks land in (spec
// section 4.5, "The global injector holds initially-pushed tasks").
// The source specifies a lock-free MPMC queue; as with deque, this
// pack carries no such library, so injector is a mutex-protected
// slice (see DESIGN.md).
type injector struct {
	mu    sync.Mutex
	tasks []exec.Task
}

func newInjector(initial []exec.Task) *injector {
	tasks := make([]exec.Task, len(initial))
	copy(tasks, initial)
	return &injector{tasks: tasks}
}

func (inj *injector) push(t exec.Task) {
	inj.mu.Lock()
	inj.tasks = append(inj.tasks, t)
	inj.mu.Unlock()
}

// batchSteal removes up to n tasks from the injector for a worker to
// adopt into its own deque in one trip, spec section 4.5's "(3)
// otherwise batch-steal from the global injector".
func (inj *injector) batchSteal(n int) []exec.Task {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	if n > len(inj.tasks) {
		n = len(inj.tasks)
	}
	if n == 0 {
		return nil
	}
	out := make([]exec.Task, n)
	copy(out, inj.tasks[:n])
	inj.tasks = inj.tasks[n:]
	return out
}

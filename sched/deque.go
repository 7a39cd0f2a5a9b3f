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

// deque is a worker's own task queue (spec section 4.5, "Each worker
// owns a LIFO deque"). The owner pushes and pops from the tail; a
// thief steals from the head, the usual split that keeps an owner's
// most recently forked (and most cache-hot) task for itself while
// handing older tasks to idle peers.
//
// The source specifies a lock-free SPMC queue here; no such library
// is available (see DESIGN.md), so this is a mutex-protected slice
// rather than a hand-rolled lock-free structure.
type deque struct {
	mu    sync.Mutex
	tasks []exec.Task
}

func (d *deque) push(t exec.Task) {
	d.mu.Lock()
	d.tasks = append(d.tasks, t)
	d.mu.Unlock()
}

// pop removes and returns the owner's next task, LIFO (tail-first).
func (d *deque) pop() (exec.Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.tasks)
	if n == 0 {
		return exec.Task{}, false
	}
	t := d.tasks[n-1]
	d.tasks = d.tasks[:n-1]
	return t, true
}

// steal removes and returns one task from the head, the oldest task
// still queued, for a thief to run.
func (d *deque) steal() (exec.Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.tasks) == 0 {
		return exec.Task{}, false
	}
	t := d.tasks[0]
	d.tasks = d.tasks[1:]
	return t, true
}

func (d *deque) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks)
}

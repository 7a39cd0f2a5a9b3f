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

// registry is the shared stealer registry (spec section 5, "The
// stealers registry is protected by a reader-writer lock; workers
// take the read lock during each steal attempt and the write lock
// once at start to publish their own stealer").
type registry struct {
	mu      sync.RWMutex
	deques  map[int]*deque
	tidList []int
}

func newRegistry() *registry {
	return &registry{deques: make(map[int]*deque)}
}

// publish registers tid's own deque for others to steal from.
func (r *registry) publish(tid int, d *deque) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deques[tid] = d
	r.tidList = append(r.tidList, tid)
}

// stealFrom attempts one round of stealing from every registered
// worker other than self, spec section 4.5 step (2): "steal from each
// other worker's stealer in a single round".
func (r *registry) stealFrom(self int) (exec.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tid := range r.tidList {
		if tid == self {
			continue
		}
		if t, ok := r.deques[tid].steal(); ok {
			return t, true
		}
	}
	return exec.Task{}, false
}

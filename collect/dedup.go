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

	"golang.org/x/crypto/blake2b"

	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

// digestSize is the truncated blake2b digest width Dedup keys its
// dedup map by: 128 bits, plenty to make accidental collisions
// vanishingly unlikely for the path counts this engine deals with,
// while keeping the map's keys small (mirrors fsenv.go's use of a
// truncated blake2b sum as a content key).
const digestSize = 16

type digest [digestSize]byte

// Dedup wraps another Collector and forwards only the first path seen
// for each distinct event-log digest, counting the rest as duplicates
// (SPEC_FULL.md section C.2). Trace and Dedup both digest/hash the
// same simplifyTrace bytes, so the two can be cross-checked against
// each other: see dedup_test.go.
type Dedup struct {
	inner Collector

	mu   sync.Mutex
	seen map[digest]int
}

// NewDedup returns a Dedup collector forwarding first-seen paths to
// inner.
func NewDedup(inner Collector) *Dedup {
	return &Dedup{
		inner: inner,
		seen:  make(map[digest]int),
	}
}

// Collect implements Collector.
func (d *Dedup) Collect(tid int, res Result, shared *ir.SharedState, solver smt.Solver) {
	trace := simplifyTrace(solver.Trace())
	sum := blake2b.Sum256(trace)
	var key digest
	copy(key[:], sum[:digestSize])

	d.mu.Lock()
	n := d.seen[key]
	d.seen[key] = n + 1
	d.mu.Unlock()

	if n == 0 {
		d.inner.Collect(tid, res, shared, solver)
	}
}

// DuplicateCounts returns, for each distinct digest seen, how many
// times (including the first) a path with that digest was collected.
func (d *Dedup) DuplicateCounts() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]int, len(d.seen))
	for k, v := range d.seen {
		out[string(k[:])] = v
	}
	return out
}

// Distinct returns the number of distinct event-log digests seen.
func (d *Dedup) Distinct() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Total returns the total number of paths collected, duplicates
// included.
func (d *Dedup) Total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, n := range d.seen {
		total += n
	}
	return total
}

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

	"github.com/dchest/siphash"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/smt"
)

// traceBucketCount is the number of siphash-keyed buckets Trace spreads
// its path counter across, mirroring expr/redact.go's use of a fixed
// siphash key pair for deterministic content hashing.
const traceBucketCount = 16

const (
	traceSipK0, traceSipK1 = 0, 1
)

// Record is one compressed, recorded trace.
type Record struct {
	RunID      uuid.UUID
	Tid        int
	Compressed []byte
	Err        error
}

// Trace is a collector that renders each path's event log into a
// deterministic textual trace, zstd-compresses it (mirroring
// compr/compression.go's zstdCompressor wrapper), and appends it to an
// in-memory queue. A real deployment would hand Compressed off to a
// lock-free queue or a sink; this engine's own tests only need the
// records to be retrievable afterward.
type Trace struct {
	RunID uuid.UUID

	mu      sync.Mutex
	enc     *zstd.Encoder
	records []Record
	buckets [traceBucketCount]int
}

// NewTrace returns a Trace collector tagged with runID (mirrors
// cmd/snellerd/handler_execute_query.go's queryID := uuid.New()
// pattern, threaded through every record this collector produces).
func NewTrace(runID uuid.UUID) *Trace {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		// zstd.NewWriter(nil) with no options cannot fail in practice;
		// a panic here would indicate a broken zstd build.
		panic(err)
	}
	return &Trace{RunID: runID, enc: enc}
}

// Collect implements Collector. A Dead path (neither branch of some
// Jump was feasible) is a no-op: it never reaches Sail's own exit or
// assertion code, so there is no trace worth keeping (spec section 9,
// "Dead"; executor.rs's trace_collector: `Err(Error::Dead) => ()`).
func (t *Trace) Collect(tid int, res Result, shared *ir.SharedState, solver smt.Solver) {
	if ir.IsDead(res.Err) {
		return
	}
	trace := simplifyTrace(solver.Trace())
	bucket := siphash.Hash(traceSipK0, traceSipK1, trace) % traceBucketCount

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buckets[bucket]++
	t.records = append(t.records, Record{
		RunID:      t.RunID,
		Tid:        tid,
		Compressed: t.enc.EncodeAll(trace, nil),
		Err:        res.Err,
	})
}

// Records returns a copy of the recorded traces so far.
func (t *Trace) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// BucketCounts returns the siphash-keyed path-counter buckets, an
// internal diagnostic cross-checked against Dedup's blake2b digest
// counts in dedup_test.go.
func (t *Trace) BucketCounts() [traceBucketCount]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buckets
}

// Decompress restores a Record's original trace bytes, for tests and
// diagnostics that need to read the text back.
func Decompress(rec Record) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(rec.Compressed, nil)
}

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

// Package sched implements the parallel task pool (spec section 4.5):
// per-worker work-stealing deques registered with a shared registry, a
// global injector for initially-pushed tasks, an activity-reporting
// channel, and a coordinator that detects quiescence and shuts every
// worker down cleanly.
package sched

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/cpu"

	"github.com/islavm/isla/collect"
	"github.com/islavm/isla/exec"
	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/primop"
	"github.com/islavm/isla/smt"
)

// idlePollInterval is the coordinator's poll/sleep cadence (spec
// section 4.5: "sleeps ~1 ms between cycles").
const idlePollInterval = time.Millisecond

// activityKind distinguishes the two messages a worker reports to the
// coordinator.
type activityKind int

const (
	busy activityKind = iota
	idle
)

// activityMsg is what a worker sends on the shared activity channel.
type activityMsg struct {
	kind activityKind
	tid  int
	poke chan struct{} // non-nil only for idle
}

// idleCounter is cache-line padded (spec section 4.5's quiescence
// counters, one per worker) so workers reporting activity on separate
// cores don't thrash a shared cache line, the same concern
// vm/avx512level.go's CPU-topology checks exist for.
type idleCounter struct {
	n int
	_ cpu.CacheLinePad
}

// RunParams bundles the read-only collaborators every worker needs:
// the shared static IR context, the SMT solver factory, and the
// primitive-operator registry (spec section 6, "external interfaces").
type RunParams struct {
	Shared *ir.SharedState
	Ctx    *smt.Context
	Reg    *primop.Registry
}

// Run runs num_threads workers over an initial task set to
// completion (spec section 4.5's "start_multi"), delivering every
// finished path to collector, then returns once every worker has
// received exactly one Kill.
//
// Run returns a fresh uuid.New() run ID (mirrors
// cmd/snellerd/handler_execute_query.go's queryID := uuid.New()). The
// ID is only returned to the caller; it is not passed to the workers,
// the collector, or any logger.
func Run(numWorkers int, initial []exec.Task, params RunParams, collector collect.Collector) uuid.UUID {
	runID := uuid.New()
	if numWorkers < 1 {
		numWorkers = 1
	}

	reg := newRegistry()
	inj := newInjector(initial)
	activityCh := make(chan activityMsg, numWorkers*2)

	deques := make([]*deque, numWorkers)
	kills := make([]chan struct{}, numWorkers)
	for i := 0; i < numWorkers; i++ {
		deques[i] = &deque{}
		kills[i] = make(chan struct{})
		reg.publish(i, deques[i])
	}

	for i := 0; i < numWorkers; i++ {
		go runWorker(i, deques[i], reg, inj, numWorkers, activityCh, kills[i], params, collector)
	}

	coordinate(numWorkers, activityCh, kills)
	return runID
}

// runWorker implements spec section 4.5's worker loop: while there is
// work, pop and run one full path to completion, pushing any forked
// sibling tasks onto its own deque and delivering the outcome to
// collector; when no work is found, report idle and block on the
// poke channel until poked or killed.
func runWorker(tid int, own *deque, reg *registry, inj *injector, numWorkers int, activityCh chan<- activityMsg, kill <-chan struct{}, params RunParams, collector collect.Collector) {
	for {
		task, ok := own.pop()
		if !ok {
			task, ok = reg.stealFrom(tid)
		}
		if !ok {
			stolen := inj.batchSteal(numWorkers)
			for _, t := range stolen {
				own.push(t)
			}
			task, ok = own.pop()
		}

		if !ok {
			poke := make(chan struct{})
			activityCh <- activityMsg{kind: idle, tid: tid, poke: poke}
			select {
			case <-poke:
				continue
			case <-kill:
				return
			}
		}

		activityCh <- activityMsg{kind: busy, tid: tid}
		val, frame, solver, err := exec.Run(task, params.Shared, params.Ctx, params.Reg, own.push)
		collector.Collect(tid, collect.Result{Value: val, Frame: frame, Err: err}, params.Shared, solver)
	}
}

// coordinate implements spec section 4.5's quiescence detector: two
// consecutive idle reports from every worker, with no intervening
// busy report from any of them, proves there is no work left anywhere
// (own deques, peers' deques, and the injector all empty).
func coordinate(numWorkers int, activityCh <-chan activityMsg, kills []chan struct{}) {
	counters := make([]idleCounter, numWorkers)
	pending := make([]chan struct{}, numWorkers) // the poke channel of a currently-idle worker

	for {
		drained := false
		for !drained {
			select {
			case msg := <-activityCh:
				switch msg.kind {
				case busy:
					counters[msg.tid].n = 0
					pending[msg.tid] = nil
				case idle:
					counters[msg.tid].n++
					pending[msg.tid] = msg.poke
				}
			default:
				drained = true
			}
		}

		if allQuiescent(counters) {
			for _, k := range kills {
				close(k)
			}
			return
		}

		for tid, poke := range pending {
			if poke != nil {
				close(poke)
				pending[tid] = nil
			}
		}

		time.Sleep(idlePollInterval)
	}
}

func allQuiescent(counters []idleCounter) bool {
	for i := range counters {
		if counters[i].n < 2 {
			return false
		}
	}
	return true
}

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

package exec

import (
	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/primop"
	"github.com/islavm/isla/smt"
)

// Frame is the immutable snapshot pushed into a task queue: pc, the two
// fork counters, shared local-state and memory, the instruction slice,
// and the call stack (spec section 3, "Frame (immutable snapshot)").
type Frame struct {
	pc            int
	branchesTaken uint32
	backjumps     int
	locals        *LocalState
	mem           *ir.Memory
	instrs        []ir.Instr
	stack         CallStack
}

// NewFrame starts a fresh top-level Frame at pc 0 running instrs, with
// empty local state and the given memory.
func NewFrame(instrs []ir.Instr, mem *ir.Memory) *Frame {
	return &Frame{instrs: instrs, locals: NewLocalState(), mem: mem}
}

// Locals exposes the Frame's local state for callers assembling an
// initial Frame (e.g. presetting register reset values).
func (f *Frame) Locals() *LocalState { return f.locals }

// Unfreeze produces an owned, mutable LocalFrame by deep-copying the
// Frame's local-state, memory, and call stack (spec section 3,
// "LocalFrame ... produced by unfreezing a Frame at dequeue time").
func (f *Frame) Unfreeze(shared *ir.SharedState) *LocalFrame {
	return &LocalFrame{
		pc:            f.pc,
		branchesTaken: f.branchesTaken,
		backjumps:     f.backjumps,
		locals:        f.locals.Clone(),
		mem:           f.mem.Clone(),
		instrs:        f.instrs,
		stack:         f.stack.Clone(),
		shared:        shared,
	}
}

// LocalFrame is the mutable working copy of one continuous (non-forked)
// execution segment (spec section 3, "LocalFrame"). It satisfies
// primop.Frame via Memory so variadic primitives can reach it.
type LocalFrame struct {
	pc            int
	branchesTaken uint32
	backjumps     int
	locals        *LocalState
	mem           *ir.Memory
	instrs        []ir.Instr
	stack         CallStack
	shared        *ir.SharedState
	solver        smt.Solver
	registry      *primop.Registry
}

// Memory implements primop.Frame.
func (lf *LocalFrame) Memory() *ir.Memory { return lf.mem }

// PC reports the current program counter, mostly for tests.
func (lf *LocalFrame) PC() int { return lf.pc }

// BranchesTaken reports the fork counter, mostly for tests.
func (lf *LocalFrame) BranchesTaken() uint32 { return lf.branchesTaken }

// StackDepth reports the current call depth, mostly for tests.
func (lf *LocalFrame) StackDepth() int { return lf.stack.Len() }

// Freeze wraps the LocalFrame's current state back into an immutable
// Frame snapshot. It always deep-copies (via LocalState.Clone,
// ir.Memory.Clone, and CallStack.Clone) rather than relying on the
// working copy being abandoned: a forked LocalFrame keeps running after
// pushing the sibling Task, so the pushed Frame must never alias the
// continuing LocalFrame's mutable state.
func (lf *LocalFrame) Freeze() *Frame {
	return &Frame{
		pc:            lf.pc,
		branchesTaken: lf.branchesTaken,
		backjumps:     lf.backjumps,
		locals:        lf.locals.Clone(),
		mem:           lf.mem.Clone(),
		instrs:        lf.instrs,
		stack:         lf.stack.Clone(),
	}
}

// freezeAt freezes the current state but overrides pc, used to snapshot
// the fall-through side of a fork at target pc+1 while the continuing
// side keeps executing at the jump target.
func (lf *LocalFrame) freezeAt(pc int) *Frame {
	f := lf.Freeze()
	f.pc = pc
	return f
}

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

import "github.com/islavm/isla/ir"

// CallFrame is one entry of an explicit call-frame stack: everything
// needed to resume the caller once the callee returns. This is the
// typed alternative to a boxed return continuation (spec section 9,
// Design Notes): each Call pushes one, each End pops one.
type CallFrame struct {
	CallerPC     int
	CallerLocals *LocalState
	CallerInstrs []ir.Instr
	Dest         ir.Loc
}

// CallStack is an explicit stack of CallFrame records, the engine's
// stand-in for the source's captured return continuation.
type CallStack struct {
	frames []CallFrame
}

// Push appends a new CallFrame.
func (s *CallStack) Push(f CallFrame) {
	s.frames = append(s.frames, f)
}

// Pop removes and returns the top CallFrame. ok is false for an empty
// stack (the top-level function has no caller to return to).
func (s *CallStack) Pop() (f CallFrame, ok bool) {
	if len(s.frames) == 0 {
		return CallFrame{}, false
	}
	f = s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// Len reports the current call depth.
func (s CallStack) Len() int { return len(s.frames) }

// Clone returns an independent copy: every entry's CallerLocals is
// itself cloned, so two CallStacks produced by forking the same task
// never alias a mutable LocalState (spec section 5, "A Frame's
// local-state and memory are reference-counted immutables; unfreezing
// deep-copies them").
func (s CallStack) Clone() CallStack {
	out := make([]CallFrame, len(s.frames))
	for i, f := range s.frames {
		out[i] = CallFrame{
			CallerPC:     f.CallerPC,
			CallerLocals: f.CallerLocals.Clone(),
			CallerInstrs: f.CallerInstrs,
			Dest:         f.Dest,
		}
	}
	return CallStack{frames: out}
}

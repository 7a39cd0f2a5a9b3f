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
	"testing"

	"github.com/islavm/isla/ir"
)

func TestCallStackPushPopRoundTrip(t *testing.T) {
	var s CallStack
	if s.Len() != 0 {
		t.Fatalf("empty stack: want Len 0, got %d", s.Len())
	}
	if _, ok := s.Pop(); ok {
		t.Fatalf("Pop on an empty stack should report ok=false")
	}

	f1 := CallFrame{CallerPC: 1, CallerLocals: NewLocalState(), Dest: ir.LocId{Name: testVarX}}
	f2 := CallFrame{CallerPC: 2, CallerLocals: NewLocalState(), Dest: ir.LocId{Name: testRegR}}
	s.Push(f1)
	s.Push(f2)
	if s.Len() != 2 {
		t.Fatalf("want Len 2 after two pushes, got %d", s.Len())
	}

	top, ok := s.Pop()
	if !ok || top.CallerPC != 2 {
		t.Fatalf("want LIFO pop of f2 (CallerPC 2), got %+v ok=%v", top, ok)
	}
	next, ok := s.Pop()
	if !ok || next.CallerPC != 1 {
		t.Fatalf("want LIFO pop of f1 (CallerPC 1), got %+v ok=%v", next, ok)
	}
	if s.Len() != 0 {
		t.Fatalf("want Len 0 after draining the stack, got %d", s.Len())
	}
}

// Clone must deep-copy each frame's CallerLocals so two stacks produced
// by forking the same task never alias a mutable LocalState (spec
// section 5).
func TestCallStackCloneDoesNotAliasCallerLocals(t *testing.T) {
	var s CallStack
	locals := NewLocalState()
	locals.DeclVar(testVarX, ir.Init(ir.I64(1)))
	s.Push(CallFrame{CallerPC: 1, CallerLocals: locals, Dest: ir.LocId{Name: testVarX}})

	clone := s.Clone()
	clone.frames[0].CallerLocals.vars[testVarX] = ir.Init(ir.I64(2))

	if v := s.frames[0].CallerLocals.vars[testVarX]; v.Value().(ir.I64) != 1 {
		t.Fatalf("mutating the clone's CallerLocals leaked back into the original: %v", v.Value())
	}
}

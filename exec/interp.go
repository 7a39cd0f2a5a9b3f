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
	"fmt"

	"github.com/islavm/isla/ir"
	"github.com/islavm/isla/primop"
	"github.com/islavm/isla/smt"
)

// Task is a queued resumable path: a frozen Frame, the SMT checkpoint
// it resumes from, and an optional pending assertion the resumer must
// add before starting so both sides of a fork share the pre-fork
// checkpoint (spec section 3, "Task").
type Task struct {
	Frame      *Frame
	Checkpoint smt.Checkpoint
	Pending    smt.Exp // nil if there is nothing to assert
}

// Run drives one continuous execution segment to completion: a single
// full symbolic path, forking sibling Tasks onto push as it goes (spec
// section 4.4). It returns the path's value and ending Frame on success,
// or a nil value and Frame alongside the error otherwise (ir.Dead if the
// path turned out infeasible, or any other engine error) — the
// Result<(value,frame), Error> spec section 4.6's collector contract
// expects — together with the solver the path ran against.
func Run(task Task, shared *ir.SharedState, ctx *smt.Context, reg *primop.Registry, push func(Task)) (ir.Value, *Frame, smt.Solver, error) {
	solver := ctx.FromCheckpoint(task.Checkpoint)
	if task.Pending != nil {
		solver.Add(smt.Assert{Exp: task.Pending})
	}
	lf := task.Frame.Unfreeze(shared)
	lf.solver = solver
	lf.registry = reg

	for {
		instr := lf.instrs[lf.pc]
		switch ins := instr.(type) {
		case ir.InstrDecl:
			lf.locals.vars[ins.Var] = ir.Uninit(ins.Ty)
			lf.pc++

		case ir.InstrInit:
			v, err := lf.Eval(ins.Exp)
			if err != nil {
				return nil, nil, solver, err
			}
			lf.locals.vars[ins.Var] = ir.Init(v)
			lf.pc++

		case ir.InstrCopy:
			v, err := lf.Eval(ins.Exp)
			if err != nil {
				return nil, nil, solver, err
			}
			if err := lf.Assign(ins.Loc, v); err != nil {
				return nil, nil, solver, err
			}
			lf.pc++

		case ir.InstrGoto:
			lf.pc = ins.Target

		case ir.InstrJump:
			done, val, err := lf.stepJump(ins, push)
			if done {
				return val, nil, solver, err
			}

		case ir.InstrPrimopUnary:
			arg, err := lf.Eval(ins.Arg)
			if err != nil {
				return nil, nil, solver, err
			}
			f, ok := reg.Unary(ins.Op)
			if !ok {
				return nil, nil, solver, ir.Unimplemented("exec: unknown unary primitive %q", ins.Op)
			}
			v, err := f(arg, lf.solver)
			if err != nil {
				return nil, nil, solver, err
			}
			if err := lf.Assign(ins.Loc, v); err != nil {
				return nil, nil, solver, err
			}
			lf.pc++

		case ir.InstrPrimopBinary:
			a1, err := lf.Eval(ins.Arg1)
			if err != nil {
				return nil, nil, solver, err
			}
			a2, err := lf.Eval(ins.Arg2)
			if err != nil {
				return nil, nil, solver, err
			}
			f, ok := reg.Binary(ins.Op)
			if !ok {
				return nil, nil, solver, ir.Unimplemented("exec: unknown binary primitive %q", ins.Op)
			}
			v, err := f(a1, a2, lf.solver)
			if err != nil {
				return nil, nil, solver, err
			}
			if err := lf.Assign(ins.Loc, v); err != nil {
				return nil, nil, solver, err
			}
			lf.pc++

		case ir.InstrPrimopVariadic:
			args := make([]ir.Value, len(ins.Args))
			for i, a := range ins.Args {
				v, err := lf.Eval(a)
				if err != nil {
					return nil, nil, solver, err
				}
				args[i] = v
			}
			f, ok := reg.Variadic(ins.Op)
			if !ok {
				return nil, nil, solver, ir.Unimplemented("exec: unknown variadic primitive %q", ins.Op)
			}
			v, err := f(args, lf.solver, lf)
			if err != nil {
				return nil, nil, solver, err
			}
			if err := lf.Assign(ins.Loc, v); err != nil {
				return nil, nil, solver, err
			}
			lf.pc++

		case ir.InstrCall:
			if err := lf.stepCall(ins, shared); err != nil {
				return nil, nil, solver, err
			}

		case ir.InstrEnd:
			done, val, err := lf.stepEnd()
			if done {
				if err != nil {
					return val, nil, solver, err
				}
				return val, lf.Freeze(), solver, nil
			}

		default:
			// InstrOther and any other unrecognized variant: silently
			// advance (spec section 9, "Unknown instructions").
			lf.pc++
		}
	}
}

// stepJump evaluates a Jump's condition and applies spec section 4.4's
// four-case symbolic-fork rule. done reports whether the path ended
// right here (Dead, an evaluation error, or a non-boolean condition);
// val/err are only meaningful when done is true.
func (lf *LocalFrame) stepJump(ins ir.InstrJump, push func(Task)) (done bool, val ir.Value, err error) {
	cond, err := lf.Eval(ins.Cond)
	if err != nil {
		return true, nil, err
	}
	switch c := cond.(type) {
	case ir.Bool:
		if bool(c) {
			lf.pc = ins.Target
		} else {
			lf.pc++
		}
		return false, nil, nil

	case ir.Symbolic:
		trueExp := smt.Exp(smt.Var{Sym: smt.Sym(c)})
		falseExp := smt.Exp(smt.Not{X: trueExp})
		trueSat := lf.solver.CheckSatWith(trueExp) == smt.Sat
		falseSat := lf.solver.CheckSatWith(falseExp) == smt.Sat

		switch {
		case trueSat && falseSat:
			lf.solver.AddEvent(smt.Branch{ID: lf.branchesTaken, SrcLoc: ins.SrcLoc})
			lf.branchesTaken++
			cp := lf.solver.Checkpoint()
			push(Task{
				Frame:      lf.freezeAt(lf.pc + 1),
				Checkpoint: cp,
				Pending:    falseExp,
			})
			lf.solver.Add(smt.Assert{Exp: trueExp})
			lf.pc = ins.Target
			return false, nil, nil

		case trueSat:
			lf.solver.Add(smt.Assert{Exp: trueExp})
			lf.pc = ins.Target
			return false, nil, nil

		case falseSat:
			lf.solver.Add(smt.Assert{Exp: falseExp})
			lf.pc++
			return false, nil, nil

		default:
			return true, nil, ir.Dead()
		}

	default:
		return true, nil, ir.TypeError("exec: jump condition is not boolean (%v)", cond.Tag())
	}
}

// stepCall implements spec section 4.4's Call semantics.
func (lf *LocalFrame) stepCall(ins ir.InstrCall, shared *ir.SharedState) error {
	args := make([]ir.Value, len(ins.Args))
	for i, a := range ins.Args {
		v, err := lf.Eval(a)
		if err != nil {
			return err
		}
		args[i] = v
	}

	if fn, ok := shared.Functions[ins.Func]; ok {
		lf.stack.Push(CallFrame{
			CallerPC:     lf.pc + 1,
			CallerLocals: lf.locals,
			CallerInstrs: lf.instrs,
			Dest:         ins.Loc,
		})
		callee := NewLocalState()
		callee.regs = lf.locals.regs
		callee.lets = lf.locals.lets
		for i, p := range fn.Params {
			callee.vars[p.Name] = ir.Init(args[i])
		}
		lf.locals = callee
		lf.instrs = fn.Instrs
		lf.pc = 0
		return nil
	}

	switch ins.Func {
	case ir.InternalVectorInit:
		n, ok := concreteLen(args[0])
		if !ok {
			return ir.TypeError("exec: INTERNAL_VECTOR_INIT length is not a concrete integer (%v)", args[0].Tag())
		}
		vec := make(ir.Vector, n)
		for i := range vec {
			vec[i] = ir.Poison{}
		}
		if err := lf.Assign(ins.Loc, vec); err != nil {
			return err
		}
		lf.pc++
		return nil

	case ir.InternalVectorUpdate:
		lf.pc++
		return nil

	case ir.SailExit:
		return ir.Exit()

	default:
		if shared.UnionCtors[ins.Func] {
			if len(args) != 1 {
				return ir.TypeError("exec: union constructor %d expects exactly one argument, got %d", ins.Func, len(args))
			}
			if err := lf.Assign(ins.Loc, ir.Ctor{Ctor: ins.Func, Val: args[0]}); err != nil {
				return err
			}
			lf.pc++
			return nil
		}
		panic(fmt.Sprintf("exec: call to unknown function id %d", ins.Func))
	}
}

// stepEnd implements spec section 4.4's End semantics: read the RETURN
// slot, and either hand the value back to the worker (no caller) or pop
// the call stack and resume the caller with the return value assigned
// to its destination l-value.
func (lf *LocalFrame) stepEnd() (done bool, val ir.Value, err error) {
	slot, ok := lf.locals.vars[ir.RETURN]
	if !ok {
		panic("exec: missing RETURN slot at End")
	}
	retVal, err := lf.resolveSlot(lf.locals.vars, ir.RETURN, slot)
	if err != nil {
		return true, nil, err
	}

	cf, ok := lf.stack.Pop()
	if !ok {
		return true, retVal, nil
	}
	lf.locals = cf.CallerLocals
	lf.instrs = cf.CallerInstrs
	lf.pc = cf.CallerPC
	if err := lf.Assign(cf.Dest, retVal); err != nil {
		return true, nil, err
	}
	return false, nil, nil
}

// concreteLen extracts an int length from a concrete integer Value.
func concreteLen(v ir.Value) (int, bool) {
	switch v := v.(type) {
	case ir.I64:
		return int(v), true
	case ir.I128:
		return int(v.V.Int64()), true
	case ir.Bits:
		return int(v.V.Int64()), true
	default:
		return 0, false
	}
}

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

package ir

import "fmt"

// Kind identifies the taxonomy an Error belongs to, per the engine's
// error taxonomy (spec section 4.8).
type Kind int

const (
	// KindUnreachable marks a broken engine invariant.
	KindUnreachable Kind = iota
	// KindType marks an IR type violation discovered at runtime.
	KindType
	// KindUnimplemented marks an instruction or primop the engine
	// recognizes the shape of but does not evaluate.
	KindUnimplemented
	// KindDead marks a path whose assertion stack is unsatisfiable.
	// Not a real error: collectors treat it as a silent no-op.
	KindDead
	// KindExit marks a Sail program that invoked SAIL_EXIT.
	KindExit
	// KindSymbolic marks a request that required a concrete value
	// but received a symbolic one.
	KindSymbolic
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindType:
		return "type"
	case KindUnimplemented:
		return "unimplemented"
	case KindDead:
		return "dead"
	case KindExit:
		return "exit"
	case KindSymbolic:
		return "symbolic"
	default:
		return "unknown"
	}
}

// Error is the engine's single error sum type. Every error that can
// propagate out of a path's execution carries one of the Kind values
// above; only KindDead and KindExit are not failures (spec section 7).
type Error struct {
	Kind Kind
	Msg  string
	Err  error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, ir.ErrDead) style checks work regardless of message text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for errors.Is comparisons against a fixed Kind,
// irrespective of message.
var (
	ErrDead          = &Error{Kind: KindDead}
	ErrExit          = &Error{Kind: KindExit}
	ErrUnreachable   = &Error{Kind: KindUnreachable}
	ErrType          = &Error{Kind: KindType}
	ErrUnimplemented = &Error{Kind: KindUnimplemented}
	ErrSymbolic      = &Error{Kind: KindSymbolic}
)

// Unreachable builds a KindUnreachable error: an engine invariant broken.
func Unreachable(format string, args ...any) error {
	return &Error{Kind: KindUnreachable, Msg: fmt.Sprintf(format, args...)}
}

// TypeError builds a KindType error: an IR type violation at runtime.
func TypeError(format string, args ...any) error {
	return &Error{Kind: KindType, Msg: fmt.Sprintf(format, args...)}
}

// Unimplemented builds a KindUnimplemented error.
func Unimplemented(format string, args ...any) error {
	return &Error{Kind: KindUnimplemented, Msg: fmt.Sprintf(format, args...)}
}

// Dead is the singleton "path infeasible" pseudo-error.
func Dead() error { return ErrDead }

// Exit is the singleton SAIL_EXIT termination signal.
func Exit() error { return ErrExit }

// Symbolic builds a KindSymbolic error: a concrete value was required but
// a symbolic one was found. It carries no wrapped cause.
func Symbolic(format string, args ...any) error {
	return &Error{Kind: KindSymbolic, Msg: fmt.Sprintf(format, args...)}
}

// IsDead reports whether err is the Dead pseudo-error.
func IsDead(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindDead
}

// IsExit reports whether err is the Exit termination signal.
func IsExit(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == KindExit
}

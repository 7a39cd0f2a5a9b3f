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

// Package log is the engine's opt-in logging side channel: tid-tagged
// textual messages at numeric verbosity levels (spec section 7), the Go
// analogue of the source's log_from(tid, level, msg).
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger writes tid-tagged lines at or below its configured Level to an
// underlying io.Writer, guarded by a mutex since workers log concurrently.
type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	level int
}

// New returns a Logger writing to w, active at verbosity level.
// Level 0 disables logging entirely.
func New(w io.Writer, level int) *Logger {
	return &Logger{w: w, level: level}
}

// Default returns a Logger writing to os.Stderr at the given level.
func Default(level int) *Logger {
	return New(os.Stderr, level)
}

// Level reports the logger's configured verbosity.
func (l *Logger) Level() int { return l.level }

// Logf writes a tid-tagged line if level is within the logger's
// configured verbosity. tid identifies the worker (or -1 for the
// coordinator); format/args follow fmt.Sprintf conventions.
func (l *Logger) Logf(tid int, level int, format string, args ...any) {
	if l == nil || l.level <= 0 || level > l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[tid %d] %s\n", tid, msg)
}

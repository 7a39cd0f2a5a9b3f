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

package log

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestLogfWritesTidTaggedLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 2)
	l.Logf(3, 1, "worker %d stealing from %d", 3, 1)

	got := buf.String()
	if !strings.Contains(got, "[tid 3]") || !strings.Contains(got, "worker 3 stealing from 1") {
		t.Fatalf("unexpected log line: %q", got)
	}
}

func TestLogfSuppressesAboveConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 1)
	l.Logf(0, 2, "should not appear")
	if buf.Len() != 0 {
		t.Fatalf("want no output above the configured level, got %q", buf.String())
	}
}

func TestLogfOnNilLoggerIsANoOp(t *testing.T) {
	var l *Logger
	l.Logf(0, 0, "must not panic")
}

func TestLogfIsSafeForConcurrentUse(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 5)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			l.Logf(tid, 0, "hello from %d", tid)
		}(i)
	}
	wg.Wait()
	if strings.Count(buf.String(), "hello from") != 20 {
		t.Fatalf("want 20 log lines, got: %q", buf.String())
	}
}

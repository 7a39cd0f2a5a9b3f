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

package islacfg

import "testing"

func TestParseFillsInDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`verbosity: 2`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Threads != 1 {
		t.Fatalf("want default Threads 1, got %d", cfg.Threads)
	}
	if cfg.Verbosity != 2 {
		t.Fatalf("want Verbosity 2, got %d", cfg.Verbosity)
	}
}

func TestParseLinearizeList(t *testing.T) {
	cfg, err := Parse([]byte("threads: 4\nlinearize:\n  - probe_mem_read\n  - probe_mem_write\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Threads != 4 {
		t.Fatalf("want Threads 4, got %d", cfg.Threads)
	}
	if !cfg.ShouldLinearize("probe_mem_read") {
		t.Fatalf("want probe_mem_read in the linearize set")
	}
	if cfg.ShouldLinearize("probe_mem_execute") {
		t.Fatalf("probe_mem_execute should not be in the linearize set")
	}
}

func TestParseRejectsNonPositiveThreads(t *testing.T) {
	if _, err := Parse([]byte(`threads: 0`)); err == nil {
		t.Fatalf("want an error for threads: 0")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/isla-config.yaml"); err == nil {
		t.Fatalf("want an error for a missing config file")
	}
}

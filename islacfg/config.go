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

// Package islacfg loads the engine-tunable subset of an ISA
// configuration: worker count, logging verbosity, and the set of
// function names the linearizer pre-pass should run against. It is the
// Go analogue of isla-lib/src/config.rs's ISAConfig, restricted to the
// fields that tune this engine rather than describe a target
// architecture (register layouts, assembler/objdump/linker paths, and
// thread memory layout stay out of scope; see DESIGN.md).
package islacfg

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Config is the engine-tunable subset of an ISA configuration document.
type Config struct {
	// Threads is the worker pool size for a parallel run. Parse rejects
	// values below one.
	Threads int `json:"threads"`
	// Verbosity is the logging verbosity level (spec section 7).
	Verbosity int `json:"verbosity"`
	// Linearize lists the function names (zencode'd, matching the
	// symbol table's spelling) to run isla-lib's linearizer pre-pass
	// over before execution, mirroring config.rs's `probes` set.
	Linearize []string `json:"linearize"`
}

// Default returns a Config with conservative defaults: one worker,
// verbosity 0 (silent), and no functions linearized.
func Default() Config {
	return Config{Threads: 1, Verbosity: 0}
}

// Load reads and parses a YAML document at path into a Config seeded
// with Default's values (so a document that only sets one field leaves
// the others at their defaults).
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("islacfg: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a YAML document's bytes into a Config.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("islacfg: parsing configuration: %w", err)
	}
	if cfg.Threads <= 0 {
		return Config{}, fmt.Errorf("islacfg: threads must be positive, got %d", cfg.Threads)
	}
	return cfg, nil
}

// ShouldLinearize reports whether fn is named in the Linearize list.
func (c Config) ShouldLinearize(fn string) bool {
	for _, name := range c.Linearize {
		if name == fn {
			return true
		}
	}
	return false
}

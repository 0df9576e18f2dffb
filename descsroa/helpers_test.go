// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descsroa

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/spvopt/analysis"
	"github.com/gogpu/spvopt/spirv"
)

// shader holds an assembled test module and the ids of its %names.
type shader struct {
	m   *spirv.Module
	ids map[string]uint32
}

func assemble(t *testing.T, text string) *shader {
	t.Helper()
	m, ids, err := spirv.AssembleWithNames(text)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return &shader{m: m, ids: ids}
}

func loadShader(t *testing.T, name string) *shader {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return assemble(t, string(data))
}

// id returns the id of %name and fails the test when the name is unknown.
func (s *shader) id(t *testing.T, name string) uint32 {
	t.Helper()
	id, ok := s.ids[name]
	if !ok {
		t.Fatalf("Unknown id %%%s", name)
	}
	return id
}

func (s *shader) process(t *testing.T, opts Options) *Result {
	t.Helper()
	res, err := Process(s.m, opts, nil)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return res
}

// def returns the current definition of id.
func (s *shader) def(t *testing.T, id uint32) *spirv.Instruction {
	t.Helper()
	inst := analysis.Build(s.m).Def(id)
	if inst == nil {
		t.Fatalf("No definition for %%%d", id)
	}
	return inst
}

// loadedFrom returns the pointer that the OpLoad defining id reads.
func (s *shader) loadedFrom(t *testing.T, id uint32) uint32 {
	t.Helper()
	inst := s.def(t, id)
	if inst.Opcode != spirv.OpLoad {
		t.Fatalf("%%%d is defined by %s, want OpLoad", id, inst.Opcode)
	}
	return inst.Operands[0]
}

// lines disassembles the module with every run of blanks collapsed to one
// space.
func (s *shader) lines() []string {
	text := spirv.Disassemble(s.m)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if f := strings.Fields(line); len(f) > 0 {
			out = append(out, strings.Join(f, " "))
		}
	}
	return out
}

func (s *shader) requireLines(t *testing.T, want ...string) {
	t.Helper()
	lines := s.lines()
	for _, w := range want {
		found := false
		for _, line := range lines {
			if strings.Contains(line, w) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Disassembly has no line containing %q\n%s", w, strings.Join(lines, "\n"))
		}
	}
}

func (s *shader) forbidLines(t *testing.T, unwanted ...string) {
	t.Helper()
	for _, line := range s.lines() {
		for _, u := range unwanted {
			if strings.Contains(line, u) {
				t.Errorf("Unexpected line %q", line)
			}
		}
	}
}

func requireUnchanged(t *testing.T, before []byte, m *spirv.Module) {
	t.Helper()
	if after := m.Encode(); !bytes.Equal(before, after) {
		t.Errorf("Module changed: %d bytes before, %d after", len(before), len(after))
	}
}

func leafByName(t *testing.T, rep Replacement, name string) LeafVariable {
	t.Helper()
	for _, leaf := range rep.Leaves {
		if leaf.Name == name {
			return leaf
		}
	}
	t.Fatalf("No leaf named %q", name)
	return LeafVariable{}
}

func leafBindings(rep Replacement) []uint32 {
	out := make([]uint32, len(rep.Leaves))
	for i, leaf := range rep.Leaves {
		out[i] = leaf.Binding
	}
	return out
}

func leafNames(rep Replacement) []string {
	out := make([]string, len(rep.Leaves))
	for i, leaf := range rep.Leaves {
		out[i] = leaf.Name
	}
	return out
}

func sequence(from, n uint32) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = from + uint32(i)
	}
	return out
}

func singleReplacement(t *testing.T, res *Result) Replacement {
	t.Helper()
	if len(res.Replaced) != 1 {
		t.Fatalf("Replaced %d variables, want 1 (skipped: %+v)", len(res.Replaced), res.Skipped)
	}
	return res.Replaced[0]
}

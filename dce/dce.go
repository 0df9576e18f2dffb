// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package dce removes results that nothing reads.
//
// Only side-effect free instructions inside function bodies are considered,
// together with global variables that an earlier pass marked removable. A
// removed variable takes its debug names and decorations with it and is
// dropped from entry point interfaces. Removal repeats until no more
// instructions die, so whole chains of access chains, loads and extractions
// disappear in one run.
package dce

import (
	"io"
	"log/slog"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/gogpu/spvopt/analysis"
	"github.com/gogpu/spvopt/opt"
	"github.com/gogpu/spvopt/spirv"
)

// PassName identifies the pass in logs and pipeline files.
const PassName = "dead_code_elimination"

// memoryAccessVolatile is the Volatile bit of the memory operands mask.
const memoryAccessVolatile = 0x1

// Stats counts what a run removed.
type Stats struct {
	// Instructions is the number of dead function body instructions.
	Instructions int
	// Variables is the number of removable variables deleted.
	Variables int
	// Annotations counts debug names and decorations removed with them.
	Annotations int
	// Rounds is the number of sweeps until nothing changed.
	Rounds int
}

// Removed reports whether anything was deleted.
func (s Stats) Removed() bool {
	return s.Instructions+s.Variables+s.Annotations > 0
}

// Pass is the dead code elimination pass.
type Pass struct {
	last Stats
}

// New creates the pass.
func New() *Pass {
	return &Pass{}
}

// Name implements opt.Pass.
func (p *Pass) Name() string {
	return PassName
}

// LastStats returns the counts of the most recent Run.
func (p *Pass) LastStats() Stats {
	return p.last
}

// Run implements opt.Pass. Variables recorded with ctx.MarkRemovable are
// deleted once nothing but names, decorations and entry points refer to them.
func (p *Pass) Run(ctx *opt.Context) (opt.Status, error) {
	removable := maps.Keys(ctx.Removable())
	slices.Sort(removable)
	p.last = Eliminate(ctx.Module, removable, ctx.Logger)
	if p.last.Removed() {
		return opt.SuccessWithChange, nil
	}
	return opt.SuccessWithoutChange, nil
}

// Eliminate removes dead instructions from m and the listed global
// variables that are no longer read.
func Eliminate(m *spirv.Module, variables []uint32, logger *slog.Logger) Stats {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	variables = slices.Clone(variables)
	slices.Sort(variables)

	var stats Stats
	for {
		idx := analysis.Build(m)
		s := &sweep{idx: idx, dead: make(map[*spirv.Instruction]bool)}
		for _, f := range m.Functions {
			for _, b := range f.Blocks {
				for _, inst := range b.Insts {
					if isPure(inst) && !s.live(inst.Result) {
						s.kill(inst)
						stats.Instructions++
					}
				}
			}
		}
		for _, id := range variables {
			v := idx.Def(id)
			if v == nil || v.Opcode != spirv.OpVariable || idx.Function(v) != nil || s.live(id) {
				continue
			}
			s.kill(v)
			stats.Variables++
			if n := dropInterface(idx, id); n > 0 {
				logger.Debug("Removed variable from entry points", "variable", id, "entry_points", n)
			}
		}
		if len(s.dead) == 0 {
			break
		}
		stats.Annotations += s.annotations
		stats.Rounds++
		m.Sweep(s.dead)
	}

	if stats.Removed() {
		logger.Info("Removed dead code",
			"instructions", stats.Instructions,
			"variables", stats.Variables,
			"annotations", stats.Annotations,
			"rounds", stats.Rounds)
	}
	return stats
}

type sweep struct {
	idx         *analysis.Index
	dead        map[*spirv.Instruction]bool
	annotations int
}

// live reports whether id is read by anything other than a debug name, a
// decoration targeting it or an entry point interface.
func (s *sweep) live(id uint32) bool {
	for _, user := range s.idx.Users(id) {
		if s.dead[user] || attached(user, id) || user.Opcode == spirv.OpEntryPoint {
			continue
		}
		return true
	}
	return false
}

// kill marks inst and the names and decorations attached to its result.
func (s *sweep) kill(inst *spirv.Instruction) {
	s.dead[inst] = true
	for _, user := range s.idx.Users(inst.Result) {
		if attached(user, inst.Result) && !s.dead[user] {
			s.dead[user] = true
			s.annotations++
		}
	}
}

// attached reports whether user is a debug name or decoration of id.
func attached(user *spirv.Instruction, id uint32) bool {
	switch user.Opcode {
	case spirv.OpName, spirv.OpDecorate, spirv.OpDecorateID, spirv.OpDecorateString:
		return len(user.Operands) > 0 && user.Operands[0] == id
	}
	return false
}

// dropInterface removes id from the interface lists of every entry point and
// returns how many entry points listed it.
func dropInterface(idx *analysis.Index, id uint32) int {
	n := 0
	for _, user := range idx.Users(id) {
		if user.Opcode != spirv.OpEntryPoint {
			continue
		}
		start := user.EntryPointInterface()
		if start > len(user.Operands) {
			continue
		}
		before := len(user.Operands)
		user.Operands = append(user.Operands[:start],
			slices.DeleteFunc(slices.Clone(user.Operands[start:]), func(op uint32) bool { return op == id })...)
		if len(user.Operands) != before {
			n++
		}
	}
	return n
}

// isPure reports whether inst produces a result without side effects.
func isPure(inst *spirv.Instruction) bool {
	if inst.Result == 0 {
		return false
	}
	switch inst.Opcode {
	case spirv.OpAccessChain, spirv.OpInBoundsAccessChain, spirv.OpPtrAccessChain,
		spirv.OpCompositeExtract, spirv.OpCompositeConstruct, spirv.OpCompositeInsert,
		spirv.OpCopyObject, spirv.OpVectorShuffle,
		spirv.OpSampledImage, spirv.OpImage, spirv.OpUndef:
		return true
	case spirv.OpLoad:
		return len(inst.Operands) < 2 || inst.Operands[1]&memoryAccessVolatile == 0
	}
	return false
}

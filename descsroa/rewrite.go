// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descsroa

import (
	"github.com/gogpu/spvopt/analysis"
	"github.com/gogpu/spvopt/spirv"
)

// rewriter applies the edits of a resolved variable. Result ids that other
// instructions already reference are kept: users are pointed at new ids in
// place and no instruction is removed.
type rewriter struct {
	module   *spirv.Module
	idx      *analysis.Index
	variable uint32
	leaves   []LeafVariable
	plan     *Plan
	count    int
}

func (rw *rewriter) apply(edits []edit) *Error {
	for _, e := range edits {
		if e.leaf < 0 || e.leaf >= len(rw.leaves) {
			return newError(ErrInternal, rw.variable, "no variable for leaf %d", e.leaf)
		}
		leafVar := rw.leaves[e.leaf].ID
		inst := e.inst
		switch e.kind {
		case editForward:
			if err := rw.forward(inst.Result, leafVar); err != nil {
				return err
			}

		case editRebase:
			id := rw.module.AllocID()
			operands := append([]uint32{leafVar}, e.trail...)
			chain := spirv.NewInstruction(inst.Opcode, inst.Type, id, operands...)
			if err := rw.insertBefore(inst, chain); err != nil {
				return err
			}
			rw.cloneDecorations(inst.Result, id)
			if err := rw.forward(inst.Result, id); err != nil {
				return err
			}

		case editLoad:
			id := rw.module.AllocID()
			load := spirv.NewInstruction(spirv.OpLoad, inst.Type, id, leafVar)
			if err := rw.insertBefore(inst, load); err != nil {
				return err
			}
			rw.cloneDecorations(inst.Result, id)
			if err := rw.forward(inst.Result, id); err != nil {
				return err
			}

		case editLoadExtract:
			id := rw.module.AllocID()
			load := spirv.NewInstruction(spirv.OpLoad, rw.plan.Leaves[e.leaf].Type, id, leafVar)
			if err := rw.insertBefore(inst, load); err != nil {
				return err
			}
			inst.Operands = append([]uint32{id}, e.trail...)
		}
		rw.count++
	}
	return nil
}

func (rw *rewriter) insertBefore(anchor *spirv.Instruction, inst *spirv.Instruction) *Error {
	b := rw.idx.Block(anchor)
	if b == nil || !b.InsertBefore(anchor, inst) {
		return newError(ErrInternal, rw.variable, "%s %%%d is not in a block", anchor.Opcode, anchor.Result)
	}
	return nil
}

// forward points the users of old inside function bodies at replacement.
// Names and decorations keep referring to old.
func (rw *rewriter) forward(old, replacement uint32) *Error {
	for _, user := range rw.idx.Users(old) {
		if rw.idx.Function(user) == nil {
			continue
		}
		if user.ReplaceInID(old, replacement) == 0 {
			return newError(ErrInternal, rw.variable, "%s does not take %%%d as an operand", user.Opcode, old)
		}
	}
	return nil
}

func (rw *rewriter) cloneDecorations(from, to uint32) {
	var clones []*spirv.Instruction
	decorations := rw.idx.Decorations(from)
	for _, d := range decorations {
		c := d.Clone()
		c.Operands[0] = to
		clones = append(clones, c)
	}
	if len(clones) > 0 {
		rw.module.InsertAnnotationsAfter(decorations[len(decorations)-1], clones...)
	}
}

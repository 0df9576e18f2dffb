// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descsroa

import (
	"github.com/gogpu/spvopt/analysis"
	"github.com/gogpu/spvopt/spirv"
)

// materializer declares one variable per leaf of a plan.
type materializer struct {
	module *spirv.Module
	idx    *analysis.Index
	types  *analysis.TypeRegistry
}

// materialize creates the leaf variables of v in plan order, together with
// their names and decorations, and returns them.
func (mt *materializer) materialize(v *spirv.Instruction, plan *Plan) ([]LeafVariable, *Error) {
	sc, _, ok := mt.idx.Pointer(v.Type)
	if !ok {
		return nil, newError(ErrInternal, v.Result, "type %%%d is not a pointer", v.Type)
	}
	binding, _ := mt.idx.DecorationLiteral(v.Result, spirv.DecorationBinding)
	set, hasSet := mt.idx.DecorationLiteral(v.Result, spirv.DecorationDescriptorSet)
	name, hasName := mt.idx.Name(v.Result)
	decorations := mt.idx.Decorations(v.Result)

	var vars, names, annotations []*spirv.Instruction
	leaves := make([]LeafVariable, 0, len(plan.Leaves))
	for _, leaf := range plan.Leaves {
		ptr := mt.types.GetOrCreatePointer(sc, leaf.Type, v)
		id := mt.module.AllocID()
		vars = append(vars, spirv.NewInstruction(spirv.OpVariable, ptr, id, uint32(sc)))

		lv := LeafVariable{
			ID:      id,
			Set:     set,
			HasSet:  hasSet,
			Binding: binding + leaf.Offset,
			Path:    leaf.Path,
		}
		if hasName {
			lv.Name = name + leaf.Suffix
			b := spirv.NewInstructionBuilder()
			b.AddWord(id)
			b.AddString(lv.Name)
			names = append(names, b.Build(spirv.OpName))
		}

		for _, d := range decorations {
			c := d.Clone()
			c.Operands[0] = id
			if c.Opcode == spirv.OpDecorate && len(c.Operands) >= 3 &&
				spirv.Decoration(c.Operands[1]) == spirv.DecorationBinding {
				c.Operands[2] = lv.Binding
			}
			annotations = append(annotations, c)
		}
		for _, cut := range leaf.Cuts {
			for _, md := range mt.idx.MemberDecorations(cut.Struct, cut.Member) {
				annotations = append(annotations, memberToVariable(md, id))
			}
		}
		leaves = append(leaves, lv)
	}

	mt.module.InsertGlobalAfter(v, vars...)
	if hasName {
		mt.module.InsertNamesAfter(mt.idx.NameInst(v.Result), names...)
	}
	var anchor *spirv.Instruction
	if n := len(decorations); n > 0 {
		anchor = decorations[n-1]
	}
	mt.module.InsertAnnotationsAfter(anchor, annotations...)
	return leaves, nil
}

// memberToVariable turns a member decoration into the same decoration on the
// variable that now holds the member.
func memberToVariable(md *spirv.Instruction, id uint32) *spirv.Instruction {
	op := spirv.OpDecorate
	if md.Opcode == spirv.OpMemberDecorateString {
		op = spirv.OpDecorateString
	}
	operands := make([]uint32, 0, len(md.Operands)-1)
	operands = append(operands, id)
	operands = append(operands, md.Operands[2:]...)
	return spirv.NewInstruction(op, 0, 0, operands...)
}

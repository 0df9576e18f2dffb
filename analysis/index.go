// Package analysis answers read-only questions about a SPIR-V module:
// definitions and uses of ids, debug names, decorations, constant values and
// the function and block that contain an instruction.
//
// An Index is a snapshot. It must be rebuilt after the module is edited.
package analysis

import (
	"github.com/gogpu/spvopt/spirv"
)

// memberKey addresses one member of a struct type.
type memberKey struct {
	structID uint32
	member   uint32
}

// Index is a def-use and annotation index over a module.
type Index struct {
	module            *spirv.Module
	defs              map[uint32]*spirv.Instruction
	users             map[uint32][]*spirv.Instruction
	names             map[uint32]*spirv.Instruction
	memberNames       map[memberKey]string
	decorations       map[uint32][]*spirv.Instruction
	memberDecorations map[memberKey][]*spirv.Instruction
	blocks            map[*spirv.Instruction]*spirv.Block
	functions         map[*spirv.Instruction]*spirv.Function
	callers           map[uint32][]*spirv.Instruction
}

// Build indexes m.
func Build(m *spirv.Module) *Index {
	idx := &Index{
		module:            m,
		defs:              make(map[uint32]*spirv.Instruction),
		users:             make(map[uint32][]*spirv.Instruction),
		names:             make(map[uint32]*spirv.Instruction),
		memberNames:       make(map[memberKey]string),
		decorations:       make(map[uint32][]*spirv.Instruction),
		memberDecorations: make(map[memberKey][]*spirv.Instruction),
		blocks:            make(map[*spirv.Instruction]*spirv.Block),
		functions:         make(map[*spirv.Instruction]*spirv.Function),
		callers:           make(map[uint32][]*spirv.Instruction),
	}
	m.ForEach(idx.add)
	for _, f := range m.Functions {
		f.ForEach(func(inst *spirv.Instruction) {
			idx.functions[inst] = f
		})
		for _, b := range f.Blocks {
			idx.blocks[b.Label] = b
			for _, inst := range b.Insts {
				idx.blocks[inst] = b
			}
		}
	}
	return idx
}

func (idx *Index) add(inst *spirv.Instruction) {
	if inst.Result != 0 {
		idx.defs[inst.Result] = inst
	}
	inst.ForEachInID(func(id *uint32) {
		list := idx.users[*id]
		if n := len(list); n > 0 && list[n-1] == inst {
			return
		}
		idx.users[*id] = append(list, inst)
	})

	ops := inst.Operands
	switch inst.Opcode {
	case spirv.OpName:
		if len(ops) >= 1 {
			if _, seen := idx.names[ops[0]]; !seen {
				idx.names[ops[0]] = inst
			}
		}
	case spirv.OpMemberName:
		if len(ops) >= 2 {
			key := memberKey{ops[0], ops[1]}
			if _, seen := idx.memberNames[key]; !seen {
				idx.memberNames[key], _ = inst.StringOperand(2)
			}
		}
	case spirv.OpDecorate, spirv.OpDecorateID, spirv.OpDecorateString:
		if len(ops) >= 2 {
			idx.decorations[ops[0]] = append(idx.decorations[ops[0]], inst)
		}
	case spirv.OpMemberDecorate, spirv.OpMemberDecorateString:
		if len(ops) >= 3 {
			key := memberKey{ops[0], ops[1]}
			idx.memberDecorations[key] = append(idx.memberDecorations[key], inst)
		}
	case spirv.OpFunctionCall:
		if len(ops) >= 1 {
			idx.callers[ops[0]] = append(idx.callers[ops[0]], inst)
		}
	}
}

// Module returns the indexed module.
func (idx *Index) Module() *spirv.Module {
	return idx.module
}

// Def returns the instruction defining id, or nil.
func (idx *Index) Def(id uint32) *spirv.Instruction {
	return idx.defs[id]
}

// Users returns the instructions that reference id as an operand, in layout
// order. Each instruction appears once.
func (idx *Index) Users(id uint32) []*spirv.Instruction {
	return idx.users[id]
}

// Name returns the debug name of id.
func (idx *Index) Name(id uint32) (string, bool) {
	inst, ok := idx.names[id]
	if !ok {
		return "", false
	}
	s, _ := inst.StringOperand(1)
	return s, true
}

// NameInst returns the OpName instruction naming id, or nil.
func (idx *Index) NameInst(id uint32) *spirv.Instruction {
	return idx.names[id]
}

// MemberName returns the debug name of a struct member.
func (idx *Index) MemberName(structID, member uint32) (string, bool) {
	s, ok := idx.memberNames[memberKey{structID, member}]
	return s, ok
}

// Decorations returns the OpDecorate, OpDecorateId and OpDecorateString
// instructions targeting id, in layout order.
func (idx *Index) Decorations(id uint32) []*spirv.Instruction {
	return idx.decorations[id]
}

// MemberDecorations returns the OpMemberDecorate and OpMemberDecorateString
// instructions targeting one struct member, in layout order.
func (idx *Index) MemberDecorations(structID, member uint32) []*spirv.Instruction {
	return idx.memberDecorations[memberKey{structID, member}]
}

// Decoration returns the first decoration of kind d on id.
func (idx *Index) Decoration(id uint32, d spirv.Decoration) (*spirv.Instruction, bool) {
	for _, inst := range idx.decorations[id] {
		if spirv.Decoration(inst.Operands[1]) == d {
			return inst, true
		}
	}
	return nil, false
}

// HasDecoration reports whether id carries decoration d.
func (idx *Index) HasDecoration(id uint32, d spirv.Decoration) bool {
	_, ok := idx.Decoration(id, d)
	return ok
}

// DecorationLiteral returns the first literal operand of decoration d on id,
// as for Binding or DescriptorSet.
func (idx *Index) DecorationLiteral(id uint32, d spirv.Decoration) (uint32, bool) {
	inst, ok := idx.Decoration(id, d)
	if !ok || inst.Opcode != spirv.OpDecorate || len(inst.Operands) < 3 {
		return 0, false
	}
	return inst.Operands[2], true
}

// ConstantUint returns the value of an integer OpConstant or OpConstantNull.
// Spec constants and negative values are not reported.
func (idx *Index) ConstantUint(id uint32) (uint64, bool) {
	def := idx.defs[id]
	if def == nil {
		return 0, false
	}
	typ := idx.defs[def.Type]
	if typ == nil || typ.Opcode != spirv.OpTypeInt || len(typ.Operands) < 2 {
		return 0, false
	}
	width, signed := typ.Operands[0], typ.Operands[1] != 0
	switch def.Opcode {
	case spirv.OpConstantNull:
		return 0, true
	case spirv.OpConstant:
	default:
		return 0, false
	}
	var v uint64
	switch len(def.Operands) {
	case 1:
		v = uint64(def.Operands[0])
		if width < 32 {
			v &= 1<<width - 1
		}
		if signed && width > 0 && v>>(width-1)&1 == 1 {
			return 0, false
		}
	case 2:
		v = uint64(def.Operands[0]) | uint64(def.Operands[1])<<32
		if signed && int64(v) < 0 {
			return 0, false
		}
	default:
		return 0, false
	}
	return v, true
}

// Pointer returns the storage class and pointee of a pointer type.
func (idx *Index) Pointer(typeID uint32) (spirv.StorageClass, uint32, bool) {
	def := idx.defs[typeID]
	if def == nil || def.Opcode != spirv.OpTypePointer || len(def.Operands) < 2 {
		return 0, 0, false
	}
	return spirv.StorageClass(def.Operands[0]), def.Operands[1], true
}

// Block returns the block containing inst, or nil for instructions outside
// function bodies.
func (idx *Index) Block(inst *spirv.Instruction) *spirv.Block {
	return idx.blocks[inst]
}

// Function returns the function containing inst, or nil.
func (idx *Index) Function(inst *spirv.Instruction) *spirv.Function {
	return idx.functions[inst]
}

// Callers returns the OpFunctionCall instructions calling function fn.
func (idx *Index) Callers(fn uint32) []*spirv.Instruction {
	return idx.callers[fn]
}

// Params returns the OpFunctionParameter instructions of function fn.
func (idx *Index) Params(fn uint32) []*spirv.Instruction {
	def := idx.defs[fn]
	if def == nil {
		return nil
	}
	if f := idx.functions[def]; f != nil {
		return f.Params
	}
	return nil
}

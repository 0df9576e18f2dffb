// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descsroa

import (
	"math"

	"github.com/gogpu/spvopt/analysis"
	"github.com/gogpu/spvopt/spirv"
)

// Kind is the opacity class of a type.
type Kind uint8

const (
	// KindOther is plain data; it is never split.
	KindOther Kind = iota
	// KindResource is an opaque descriptor: image, sampler, sampled image or
	// acceleration structure.
	KindResource
	// KindAtomic is a buffer block: a struct decorated Block or BufferBlock,
	// or one whose last member is a runtime array. It binds as one descriptor.
	KindAtomic
	// KindArray is a fixed-size array.
	KindArray
	// KindRuntimeArray is an array without a length.
	KindRuntimeArray
	// KindStruct is a struct that may be split member by member.
	KindStruct
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindAtomic:
		return "atomic"
	case KindArray:
		return "array"
	case KindRuntimeArray:
		return "runtime-array"
	case KindStruct:
		return "struct"
	default:
		return "other"
	}
}

// Shape is the classification of a type together with what the planner needs
// to descend into it.
type Shape struct {
	Kind Kind
	Type uint32

	// Element is the element type of arrays.
	Element uint32
	// Length is the element count of a sized array.
	Length uint32
	// Sized is true when the array length is a literal constant rather than
	// a specialization constant.
	Sized bool

	// Members are the member types of structs.
	Members []uint32
}

// Classify determines how typeID may be decomposed. It only reads idx.
func Classify(idx *analysis.Index, typeID uint32) Shape {
	s := Shape{Kind: KindOther, Type: typeID}
	def := idx.Def(typeID)
	if def == nil {
		return s
	}
	switch def.Opcode {
	case spirv.OpTypeImage, spirv.OpTypeSampler, spirv.OpTypeSampledImage,
		spirv.OpTypeAccelerationStructureKHR:
		s.Kind = KindResource
	case spirv.OpTypeArray:
		// A truncated declaration has no element or length to descend into.
		if len(def.Operands) < 2 {
			return s
		}
		s.Kind = KindArray
		s.Element = def.Operands[0]
		if n, ok := idx.ConstantUint(def.Operands[1]); ok && n <= math.MaxUint32 {
			s.Length = uint32(n)
			s.Sized = true
		}
	case spirv.OpTypeRuntimeArray:
		if len(def.Operands) < 1 {
			return s
		}
		s.Kind = KindRuntimeArray
		s.Element = def.Operands[0]
	case spirv.OpTypeStruct:
		s.Members = def.Operands
		s.Kind = KindStruct
		if isBufferBlock(idx, def) {
			s.Kind = KindAtomic
		}
	}
	return s
}

func isBufferBlock(idx *analysis.Index, def *spirv.Instruction) bool {
	if idx.HasDecoration(def.Result, spirv.DecorationBlock) ||
		idx.HasDecoration(def.Result, spirv.DecorationBufferBlock) {
		return true
	}
	if n := len(def.Operands); n > 0 {
		last := idx.Def(def.Operands[n-1])
		return last != nil && last.Opcode == spirv.OpTypeRuntimeArray
	}
	return false
}

package analysis

import (
	"github.com/gogpu/spvopt/spirv"
)

// pointerKey identifies a pointer type by its structure.
type pointerKey struct {
	storage spirv.StorageClass
	pointee uint32
}

// TypeRegistry ensures pointer type deduplication when a pass needs new
// pointer types. SPIR-V allows duplicate non-aggregate types, but reusing the
// declaration a module already has keeps the output minimal.
type TypeRegistry struct {
	module   *spirv.Module
	pointers map[pointerKey]uint32
	created  int
}

// NewTypeRegistry indexes the pointer types already declared in m. When a
// module declares the same pointer type twice the first declaration wins.
func NewTypeRegistry(m *spirv.Module) *TypeRegistry {
	r := &TypeRegistry{
		module:   m,
		pointers: make(map[pointerKey]uint32, 16),
	}
	for _, inst := range m.Globals {
		if inst.Opcode != spirv.OpTypePointer || len(inst.Operands) < 2 {
			continue
		}
		key := pointerKey{spirv.StorageClass(inst.Operands[0]), inst.Operands[1]}
		if _, exists := r.pointers[key]; !exists {
			r.pointers[key] = inst.Result
		}
	}
	return r
}

// GetOrCreatePointer returns the id of the pointer type to pointee in storage
// class sc. A missing type is declared right before anchor, which must be a
// global that comes after the pointee's declaration.
func (r *TypeRegistry) GetOrCreatePointer(sc spirv.StorageClass, pointee uint32, anchor *spirv.Instruction) uint32 {
	key := pointerKey{sc, pointee}
	if id, exists := r.pointers[key]; exists {
		return id
	}

	id := r.module.AllocID()
	inst := spirv.NewInstruction(spirv.OpTypePointer, 0, id, uint32(sc), pointee)
	r.module.InsertGlobalBefore(anchor, inst)
	r.pointers[key] = id
	r.created++
	return id
}

// Created returns the number of pointer types declared by the registry.
func (r *TypeRegistry) Created() int {
	return r.created
}

package spirv

import (
	"encoding/binary"
	"slices"
)

// Module is a SPIR-V module split into the sections of the logical layout.
type Module struct {
	// Header
	Version   Version
	Generator uint32
	Bound     uint32 // max ID + 1
	Schema    uint32

	// Sections in logical layout order
	Capabilities   []*Instruction
	Extensions     []*Instruction
	ExtInstImports []*Instruction
	MemoryModel    *Instruction
	EntryPoints    []*Instruction
	ExecutionModes []*Instruction
	DebugStrings   []*Instruction // OpString, OpSource*
	Names          []*Instruction // OpName, OpMemberName
	Processed      []*Instruction // OpModuleProcessed
	Annotations    []*Instruction // OpDecorate* and decoration groups
	Globals        []*Instruction // types, constants, global variables
	Functions      []*Function
}

// Function is a function declaration or definition.
type Function struct {
	Def    *Instruction
	Params []*Instruction
	Blocks []*Block
	End    *Instruction
}

// Block is a basic block: its label and the instructions that follow it.
type Block struct {
	Label *Instruction
	Insts []*Instruction
}

// ID returns the function's result id.
func (f *Function) ID() uint32 {
	return f.Def.Result
}

// InsertBefore inserts insts in front of anchor. It reports false when anchor
// is not in the block.
func (b *Block) InsertBefore(anchor *Instruction, insts ...*Instruction) bool {
	i := slices.Index(b.Insts, anchor)
	if i < 0 {
		return false
	}
	b.Insts = slices.Insert(b.Insts, i, insts...)
	return true
}

// AllocID allocates a fresh id and bumps the bound.
func (m *Module) AllocID() uint32 {
	if m.Bound == 0 {
		m.Bound = 1
	}
	id := m.Bound
	m.Bound++
	return id
}

// Function returns the function with result id, or nil.
func (m *Module) Function(id uint32) *Function {
	for _, f := range m.Functions {
		if f.ID() == id {
			return f
		}
	}
	return nil
}

// ForEach calls fn for every instruction in layout order.
func (m *Module) ForEach(fn func(inst *Instruction)) {
	each := func(list []*Instruction) {
		for _, inst := range list {
			fn(inst)
		}
	}
	each(m.Capabilities)
	each(m.Extensions)
	each(m.ExtInstImports)
	if m.MemoryModel != nil {
		fn(m.MemoryModel)
	}
	each(m.EntryPoints)
	each(m.ExecutionModes)
	each(m.DebugStrings)
	each(m.Names)
	each(m.Processed)
	each(m.Annotations)
	each(m.Globals)
	for _, f := range m.Functions {
		f.ForEach(fn)
	}
}

// ForEach calls fn for every instruction of the function in order.
func (f *Function) ForEach(fn func(inst *Instruction)) {
	fn(f.Def)
	for _, p := range f.Params {
		fn(p)
	}
	for _, b := range f.Blocks {
		fn(b.Label)
		for _, inst := range b.Insts {
			fn(inst)
		}
	}
	if f.End != nil {
		fn(f.End)
	}
}

// InsertGlobalBefore inserts insts in front of anchor in the globals section.
func (m *Module) InsertGlobalBefore(anchor *Instruction, insts ...*Instruction) {
	m.Globals = insertAt(m.Globals, anchor, 0, insts)
}

// InsertGlobalAfter inserts insts right after anchor in the globals section.
func (m *Module) InsertGlobalAfter(anchor *Instruction, insts ...*Instruction) {
	m.Globals = insertAt(m.Globals, anchor, 1, insts)
}

// InsertNamesAfter inserts debug names after anchor, or appends them when
// anchor is nil or absent.
func (m *Module) InsertNamesAfter(anchor *Instruction, insts ...*Instruction) {
	m.Names = insertAt(m.Names, anchor, 1, insts)
}

// InsertAnnotationsAfter inserts annotations after anchor, or appends them
// when anchor is nil or absent.
func (m *Module) InsertAnnotationsAfter(anchor *Instruction, insts ...*Instruction) {
	m.Annotations = insertAt(m.Annotations, anchor, 1, insts)
}

func insertAt(list []*Instruction, anchor *Instruction, offset int, insts []*Instruction) []*Instruction {
	i := -1
	if anchor != nil {
		i = slices.Index(list, anchor)
	}
	if i < 0 {
		return append(list, insts...)
	}
	return slices.Insert(list, i+offset, insts...)
}

// Sweep removes every instruction in dead from the module. Function
// definitions, parameters and labels are never removed.
func (m *Module) Sweep(dead map[*Instruction]bool) {
	if len(dead) == 0 {
		return
	}
	drop := func(inst *Instruction) bool { return dead[inst] }
	m.EntryPoints = slices.DeleteFunc(m.EntryPoints, drop)
	m.ExecutionModes = slices.DeleteFunc(m.ExecutionModes, drop)
	m.DebugStrings = slices.DeleteFunc(m.DebugStrings, drop)
	m.Names = slices.DeleteFunc(m.Names, drop)
	m.Annotations = slices.DeleteFunc(m.Annotations, drop)
	m.Globals = slices.DeleteFunc(m.Globals, drop)
	for _, f := range m.Functions {
		for _, b := range f.Blocks {
			b.Insts = slices.DeleteFunc(b.Insts, drop)
		}
	}
}

// Encode generates the SPIR-V binary.
func (m *Module) Encode() []byte {
	var words []uint32
	m.ForEach(func(inst *Instruction) {
		words = append(words, inst.Encode()...)
	})

	buffer := make([]byte, (5+len(words))*4)
	offset := 0

	// Write header
	binary.LittleEndian.PutUint32(buffer[offset:], MagicNumber)
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], versionToWord(m.Version))
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], m.Generator)
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], m.Bound)
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], m.Schema)
	offset += 4

	for _, word := range words {
		binary.LittleEndian.PutUint32(buffer[offset:], word)
		offset += 4
	}
	return buffer
}

// versionToWord converts Version to SPIR-V word format.
func versionToWord(v Version) uint32 {
	return (uint32(v.Major) << 16) | (uint32(v.Minor) << 8)
}

// wordToVersion converts a SPIR-V version word to Version.
func wordToVersion(w uint32) Version {
	return Version{Major: uint8(w >> 16), Minor: uint8(w >> 8)}
}

// section identifies where an instruction goes in the logical layout.
type section uint8

const (
	sectionCapabilities section = iota
	sectionExtensions
	sectionExtInstImports
	sectionMemoryModel
	sectionEntryPoints
	sectionExecutionModes
	sectionDebugStrings
	sectionNames
	sectionProcessed
	sectionAnnotations
	sectionGlobals
)

func sectionOf(op OpCode) section {
	switch op {
	case OpCapability:
		return sectionCapabilities
	case OpExtension:
		return sectionExtensions
	case OpExtInstImport:
		return sectionExtInstImports
	case OpMemoryModel:
		return sectionMemoryModel
	case OpEntryPoint:
		return sectionEntryPoints
	case OpExecutionMode, OpExecutionModeID:
		return sectionExecutionModes
	case OpString, OpSource, OpSourceContinued, OpSourceExtension:
		return sectionDebugStrings
	case OpName, OpMemberName:
		return sectionNames
	case OpModuleProcessed:
		return sectionProcessed
	case OpDecorate, OpMemberDecorate, OpDecorationGroup, OpGroupDecorate,
		OpGroupMemberDecorate, OpDecorateID, OpDecorateString, OpMemberDecorateString:
		return sectionAnnotations
	default:
		return sectionGlobals
	}
}

// appendGlobal places inst into the section its opcode belongs to.
func (m *Module) appendGlobal(inst *Instruction) {
	switch sectionOf(inst.Opcode) {
	case sectionCapabilities:
		m.Capabilities = append(m.Capabilities, inst)
	case sectionExtensions:
		m.Extensions = append(m.Extensions, inst)
	case sectionExtInstImports:
		m.ExtInstImports = append(m.ExtInstImports, inst)
	case sectionMemoryModel:
		m.MemoryModel = inst
	case sectionEntryPoints:
		m.EntryPoints = append(m.EntryPoints, inst)
	case sectionExecutionModes:
		m.ExecutionModes = append(m.ExecutionModes, inst)
	case sectionDebugStrings:
		m.DebugStrings = append(m.DebugStrings, inst)
	case sectionNames:
		m.Names = append(m.Names, inst)
	case sectionProcessed:
		m.Processed = append(m.Processed, inst)
	case sectionAnnotations:
		m.Annotations = append(m.Annotations, inst)
	default:
		m.Globals = append(m.Globals, inst)
	}
}

// functionBuilder assembles functions from a flat instruction stream.
type functionBuilder struct {
	m       *Module
	current *Function
	block   *Block
}

// add appends inst to the function being built. It reports false when inst
// cannot appear at this point of a function.
func (fb *functionBuilder) add(inst *Instruction) bool {
	switch inst.Opcode {
	case OpFunction:
		if fb.current != nil {
			return false
		}
		fb.current = &Function{Def: inst}
		fb.block = nil
		fb.m.Functions = append(fb.m.Functions, fb.current)
		return true
	case OpFunctionParameter:
		if fb.current == nil || fb.block != nil {
			return false
		}
		fb.current.Params = append(fb.current.Params, inst)
		return true
	case OpLabel:
		if fb.current == nil {
			return false
		}
		fb.block = &Block{Label: inst}
		fb.current.Blocks = append(fb.current.Blocks, fb.block)
		return true
	case OpFunctionEnd:
		if fb.current == nil {
			return false
		}
		fb.current.End = inst
		fb.current = nil
		fb.block = nil
		return true
	default:
		if fb.block == nil {
			return false
		}
		fb.block.Insts = append(fb.block.Insts, inst)
		return true
	}
}

// open reports whether a function is being built.
func (fb *functionBuilder) open() bool {
	return fb.current != nil
}

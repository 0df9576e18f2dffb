// Package spirv reads, writes and edits SPIR-V modules.
//
// A Module keeps the sections of the SPIR-V logical layout as separate
// instruction lists and functions as blocks, so passes can insert and rewrite
// instructions without re-encoding the binary:
//
//	m, err := spirv.Parse(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, inst := range m.Globals {
//		if inst.Opcode == spirv.OpVariable {
//			fmt.Println(inst.Result)
//		}
//	}
//	out := m.Encode()
//
// # Instructions
//
// Instruction separates the result type id and the result id from the other
// operands. The operand grammar (Info, Spans) tells which operand words are
// ids, literals, strings or enumerants; ForEachInID and ReplaceInID build on
// it. Opcodes outside the grammar are kept verbatim and every operand word is
// reported as a possible id.
//
// # Text form
//
// Assemble accepts the usual SPIR-V assembly syntax and Disassemble prints it
// back with friendly names:
//
//	               OpDecorate %textures Binding 0
//	   %textures = OpVariable %_ptr_UniformConstant__arr_type_2d_image_uint_5 UniformConstant
//
// # Binary Writer
//
// ModuleBuilder constructs modules programmatically:
//
//	builder := spirv.NewModuleBuilder(spirv.Version1_3)
//	builder.AddCapability(spirv.CapabilityShader)
//	builder.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
//
//	// Add types
//	floatType := builder.AddTypeFloat(32)
//	vec4Type := builder.AddTypeVector(floatType, 4)
//
//	// Build binary
//	binary := builder.Build()
//
// # SPIR-V Structure
//
// SPIR-V modules consist of:
//   - Header (magic, version, generator, bound, schema)
//   - Capabilities (required features)
//   - Extensions (optional extensions)
//   - Extended instruction imports (GLSL.std.450, etc.)
//   - Memory model (addressing and memory model)
//   - Entry points and execution modes
//   - Debug information (strings, names)
//   - Annotations (decorations)
//   - Types, constants and global variables
//   - Function declarations and definitions
//
// # References
//
// SPIR-V Specification: https://registry.khronos.org/SPIR-V/specs/unified1/SPIRV.html
package spirv

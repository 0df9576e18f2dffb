package spirv

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common SPIR-V versions
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_4 = Version{1, 4}
	Version1_5 = Version{1, 5}
	Version1_6 = Version{1, 6}
)

// SPIR-V magic number and constants
const (
	MagicNumber = 0x07230203
	GeneratorID = 0x00000000 // Unregistered generator
)

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes known to the grammar.
const (
	OpNop                          OpCode = 0
	OpUndef                        OpCode = 1
	OpSourceContinued              OpCode = 2
	OpSource                       OpCode = 3
	OpSourceExtension              OpCode = 4
	OpName                         OpCode = 5
	OpMemberName                   OpCode = 6
	OpString                       OpCode = 7
	OpLine                         OpCode = 8
	OpExtension                    OpCode = 10
	OpExtInstImport                OpCode = 11
	OpExtInst                      OpCode = 12
	OpMemoryModel                  OpCode = 14
	OpEntryPoint                   OpCode = 15
	OpExecutionMode                OpCode = 16
	OpCapability                   OpCode = 17
	OpTypeVoid                     OpCode = 19
	OpTypeBool                     OpCode = 20
	OpTypeInt                      OpCode = 21
	OpTypeFloat                    OpCode = 22
	OpTypeVector                   OpCode = 23
	OpTypeMatrix                   OpCode = 24
	OpTypeImage                    OpCode = 25
	OpTypeSampler                  OpCode = 26
	OpTypeSampledImage             OpCode = 27
	OpTypeArray                    OpCode = 28
	OpTypeRuntimeArray             OpCode = 29
	OpTypeStruct                   OpCode = 30
	OpTypeOpaque                   OpCode = 31
	OpTypePointer                  OpCode = 32
	OpTypeFunction                 OpCode = 33
	OpConstantTrue                 OpCode = 41
	OpConstantFalse                OpCode = 42
	OpConstant                     OpCode = 43
	OpConstantComposite            OpCode = 44
	OpConstantNull                 OpCode = 46
	OpSpecConstantTrue             OpCode = 48
	OpSpecConstantFalse            OpCode = 49
	OpSpecConstant                 OpCode = 50
	OpSpecConstantComposite        OpCode = 51
	OpSpecConstantOp               OpCode = 52
	OpFunction                     OpCode = 54
	OpFunctionParameter            OpCode = 55
	OpFunctionEnd                  OpCode = 56
	OpFunctionCall                 OpCode = 57
	OpVariable                     OpCode = 59
	OpImageTexelPointer            OpCode = 60
	OpLoad                         OpCode = 61
	OpStore                        OpCode = 62
	OpCopyMemory                   OpCode = 63
	OpAccessChain                  OpCode = 65
	OpInBoundsAccessChain          OpCode = 66
	OpPtrAccessChain               OpCode = 67
	OpArrayLength                  OpCode = 68
	OpDecorate                     OpCode = 71
	OpMemberDecorate               OpCode = 72
	OpDecorationGroup              OpCode = 73
	OpGroupDecorate                OpCode = 74
	OpGroupMemberDecorate          OpCode = 75
	OpVectorExtractDynamic         OpCode = 77
	OpVectorInsertDynamic          OpCode = 78
	OpVectorShuffle                OpCode = 79
	OpCompositeConstruct           OpCode = 80
	OpCompositeExtract             OpCode = 81
	OpCompositeInsert              OpCode = 82
	OpCopyObject                   OpCode = 83
	OpTranspose                    OpCode = 84
	OpSampledImage                 OpCode = 86
	OpImageSampleImplicitLod       OpCode = 87
	OpImageSampleExplicitLod       OpCode = 88
	OpImageSampleDrefImplicitLod   OpCode = 89
	OpImageSampleDrefExplicitLod   OpCode = 90
	OpImageFetch                   OpCode = 95
	OpImageGather                  OpCode = 96
	OpImageDrefGather              OpCode = 97
	OpImageRead                    OpCode = 98
	OpImageWrite                   OpCode = 99
	OpImage                        OpCode = 100
	OpImageQuerySizeLod            OpCode = 103
	OpImageQuerySize               OpCode = 104
	OpImageQueryLod                OpCode = 105
	OpImageQueryLevels             OpCode = 106
	OpImageQuerySamples            OpCode = 107
	OpConvertFToU                  OpCode = 109
	OpConvertFToS                  OpCode = 110
	OpConvertSToF                  OpCode = 111
	OpConvertUToF                  OpCode = 112
	OpUConvert                     OpCode = 113
	OpSConvert                     OpCode = 114
	OpFConvert                     OpCode = 115
	OpBitcast                      OpCode = 124
	OpSNegate                      OpCode = 126
	OpFNegate                      OpCode = 127
	OpIAdd                         OpCode = 128
	OpFAdd                         OpCode = 129
	OpISub                         OpCode = 130
	OpFSub                         OpCode = 131
	OpIMul                         OpCode = 132
	OpFMul                         OpCode = 133
	OpUDiv                         OpCode = 134
	OpSDiv                         OpCode = 135
	OpFDiv                         OpCode = 136
	OpUMod                         OpCode = 137
	OpSRem                         OpCode = 138
	OpSMod                         OpCode = 139
	OpFRem                         OpCode = 140
	OpFMod                         OpCode = 141
	OpVectorTimesScalar            OpCode = 142
	OpMatrixTimesScalar            OpCode = 143
	OpVectorTimesMatrix            OpCode = 144
	OpMatrixTimesVector            OpCode = 145
	OpMatrixTimesMatrix            OpCode = 146
	OpDot                          OpCode = 148
	OpAny                          OpCode = 154
	OpAll                          OpCode = 155
	OpLogicalEqual                 OpCode = 164
	OpLogicalNotEqual              OpCode = 165
	OpLogicalOr                    OpCode = 166
	OpLogicalAnd                   OpCode = 167
	OpLogicalNot                   OpCode = 168
	OpSelect                       OpCode = 169
	OpIEqual                       OpCode = 170
	OpINotEqual                    OpCode = 171
	OpUGreaterThan                 OpCode = 172
	OpSGreaterThan                 OpCode = 173
	OpUGreaterThanEqual            OpCode = 174
	OpSGreaterThanEqual            OpCode = 175
	OpULessThan                    OpCode = 176
	OpSLessThan                    OpCode = 177
	OpULessThanEqual               OpCode = 178
	OpSLessThanEqual               OpCode = 179
	OpFOrdEqual                    OpCode = 180
	OpFOrdNotEqual                 OpCode = 182
	OpFOrdLessThan                 OpCode = 184
	OpFOrdGreaterThan              OpCode = 186
	OpFOrdLessThanEqual            OpCode = 188
	OpFOrdGreaterThanEqual         OpCode = 190
	OpShiftRightLogical            OpCode = 194
	OpShiftRightArithmetic         OpCode = 195
	OpShiftLeftLogical             OpCode = 196
	OpBitwiseOr                    OpCode = 197
	OpBitwiseXor                   OpCode = 198
	OpBitwiseAnd                   OpCode = 199
	OpNot                          OpCode = 200
	OpDPdx                         OpCode = 207
	OpDPdy                         OpCode = 208
	OpFwidth                       OpCode = 209
	OpControlBarrier               OpCode = 224
	OpMemoryBarrier                OpCode = 225
	OpAtomicLoad                   OpCode = 227
	OpAtomicStore                  OpCode = 228
	OpAtomicExchange               OpCode = 229
	OpAtomicIAdd                   OpCode = 234
	OpPhi                          OpCode = 245
	OpLoopMerge                    OpCode = 246
	OpSelectionMerge               OpCode = 247
	OpLabel                        OpCode = 248
	OpBranch                       OpCode = 249
	OpBranchConditional            OpCode = 250
	OpSwitch                       OpCode = 251
	OpKill                         OpCode = 252
	OpReturn                       OpCode = 253
	OpReturnValue                  OpCode = 254
	OpUnreachable                  OpCode = 255
	OpNoLine                       OpCode = 317
	OpModuleProcessed              OpCode = 330
	OpExecutionModeID              OpCode = 331
	OpDecorateID                   OpCode = 332
	OpCopyLogical                  OpCode = 400
	OpTerminateInvocation          OpCode = 4416
	OpTypeAccelerationStructureKHR OpCode = 5341
	OpDecorateString               OpCode = 5632
	OpMemberDecorateString         OpCode = 5633
)

// Capability represents a SPIR-V capability.
type Capability uint32

// Common capabilities
const (
	CapabilityMatrix Capability = 0 // Implied by Shader
	CapabilityShader Capability = 1
)

// StorageClass represents a SPIR-V storage class.
type StorageClass uint32

// Storage classes
const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassPushConstant    StorageClass = 9
	StorageClassStorageBuffer   StorageClass = 12
)

// Decoration represents a SPIR-V decoration.
type Decoration uint32

// Common decorations
const (
	DecorationRelaxedPrecision  Decoration = 0
	DecorationBlock             Decoration = 2
	DecorationBufferBlock       Decoration = 3
	DecorationRowMajor          Decoration = 4
	DecorationColMajor          Decoration = 5
	DecorationArrayStride       Decoration = 6
	DecorationMatrixStride      Decoration = 7
	DecorationBuiltIn           Decoration = 11
	DecorationNonWritable       Decoration = 24
	DecorationLocation          Decoration = 30
	DecorationBinding           Decoration = 33
	DecorationDescriptorSet     Decoration = 34
	DecorationOffset            Decoration = 35
	DecorationLinkageAttributes Decoration = 41
	DecorationNonUniform        Decoration = 5300
	DecorationUserSemantic      Decoration = 5635
	DecorationUserTypeGOOGLE    Decoration = 5636
)

// ExecutionModel represents a shader stage.
type ExecutionModel uint32

// Execution models
const (
	ExecutionModelVertex    ExecutionModel = 0
	ExecutionModelFragment  ExecutionModel = 4
	ExecutionModelGLCompute ExecutionModel = 5
)

// ExecutionMode represents an entry point execution mode.
type ExecutionMode uint32

// Execution modes
const (
	ExecutionModeOriginUpperLeft ExecutionMode = 7
	ExecutionModeLocalSize       ExecutionMode = 17
)

// AddressingModel represents the module addressing model.
type AddressingModel uint32

// Addressing models
const (
	AddressingModelLogical AddressingModel = 0
)

// MemoryModel represents the module memory model.
type MemoryModel uint32

// Memory models
const (
	MemoryModelSimple  MemoryModel = 0
	MemoryModelGLSL450 MemoryModel = 1
	MemoryModelVulkan  MemoryModel = 3
)

// FunctionControl is the OpFunction control mask.
type FunctionControl uint32

// Function control bits
const (
	FunctionControlNone FunctionControl = 0
)

// Memory access mask bits that carry extra operands.
const (
	MemoryAccessVolatile uint32 = 0x1
	MemoryAccessAligned  uint32 = 0x2
)

// IsDescriptorStorage reports whether variables in the storage class are bound
// through descriptor sets.
func (sc StorageClass) IsDescriptorStorage() bool {
	switch sc {
	case StorageClassUniformConstant, StorageClassUniform, StorageClassStorageBuffer:
		return true
	default:
		return false
	}
}

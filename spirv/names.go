package spirv

import (
	"fmt"
	"strings"
)

// EnumKind identifies the value space of an enumerated operand.
type EnumKind uint8

// Enumerated operand kinds.
const (
	EnumNone EnumKind = iota
	EnumCapability
	EnumStorageClass
	EnumDecoration
	EnumBuiltIn
	EnumExecutionModel
	EnumExecutionMode
	EnumAddressingModel
	EnumMemoryModel
	EnumDim
	EnumImageFormat
	EnumAccessQualifier
	EnumSourceLanguage
	EnumFunctionControl
	EnumSelectionControl
	EnumLoopControl
	EnumMemoryAccess
	EnumImageOperands
	EnumSamplerAddressingMode
	EnumSamplerFilterMode
	EnumFPFastMathMode
)

// enumTable maps values of one enumerated operand kind to names and back.
type enumTable struct {
	names  map[uint32]string
	values map[string]uint32
	mask   bool
}

func newEnumTable(mask bool, names map[uint32]string) *enumTable {
	t := &enumTable{names: names, values: make(map[string]uint32, len(names)), mask: mask}
	for v, n := range names {
		t.values[n] = v
	}
	return t
}

var capabilities = map[uint32]string{
	0: "Matrix", 1: "Shader", 2: "Geometry", 3: "Tessellation",
	4: "Addresses", 5: "Linkage", 6: "Kernel", 7: "Vector16",
	8: "Float16Buffer", 9: "Float16", 10: "Float64", 11: "Int64",
	12: "Int64Atomics", 13: "ImageBasic", 14: "ImageReadWrite", 15: "ImageMipmap",
	17: "Pipes", 18: "Groups", 19: "DeviceEnqueue", 20: "LiteralSampler",
	21: "AtomicStorage", 22: "Int16", 23: "TessellationPointSize",
	24: "GeometryPointSize", 25: "ImageGatherExtended", 27: "StorageImageMultisample",
	28: "UniformBufferArrayDynamicIndexing", 29: "SampledImageArrayDynamicIndexing",
	30: "StorageBufferArrayDynamicIndexing", 31: "StorageImageArrayDynamicIndexing",
	32: "ClipDistance", 33: "CullDistance", 34: "ImageCubeArray",
	35: "SampleRateShading", 36: "ImageRect", 37: "SampledRect",
	38: "GenericPointer", 39: "Int8", 40: "InputAttachment",
	41: "SparseResidency", 42: "MinLod", 43: "Sampled1D", 44: "Image1D",
	45: "SampledCubeArray", 46: "SampledBuffer", 47: "ImageBuffer",
	48: "ImageMSArray", 49: "StorageImageExtendedFormats",
	50: "ImageQuery", 51: "DerivativeControl", 52: "InterpolationFunction",
	53: "TransformFeedback", 54: "GeometryStreams", 55: "StorageImageReadWithoutFormat",
	56: "StorageImageWriteWithoutFormat", 57: "MultiViewport",
	61: "GroupNonUniform", 62: "GroupNonUniformVote", 63: "GroupNonUniformArithmetic",
	64: "GroupNonUniformBallot", 65: "GroupNonUniformShuffle",
	66: "GroupNonUniformShuffleRelative", 67: "GroupNonUniformClustered",
	68: "GroupNonUniformQuad", 4423: "SubgroupBallotKHR", 4427: "DrawParameters",
	4433: "StorageBuffer16BitAccess", 4434: "UniformAndStorageBuffer16BitAccess",
	4435: "StoragePushConstant16", 4436: "StorageInputOutput16",
	4437: "DeviceGroup", 4439: "MultiView", 4441: "VariablePointersStorageBuffer",
	4442: "VariablePointers", 4472: "RayQueryKHR", 5013: "StencilExportEXT",
	5301: "ShaderNonUniform", 5302: "RuntimeDescriptorArray",
	5303: "InputAttachmentArrayDynamicIndexing", 5304: "UniformTexelBufferArrayDynamicIndexing",
	5305: "StorageTexelBufferArrayDynamicIndexing", 5306: "UniformBufferArrayNonUniformIndexing",
	5307: "SampledImageArrayNonUniformIndexing", 5308: "StorageBufferArrayNonUniformIndexing",
	5309: "StorageImageArrayNonUniformIndexing", 5345: "VulkanMemoryModel",
}

var storageClasses = map[uint32]string{
	0: "UniformConstant", 1: "Input", 2: "Uniform", 3: "Output",
	4: "Workgroup", 5: "CrossWorkgroup", 6: "Private", 7: "Function",
	8: "Generic", 9: "PushConstant", 10: "AtomicCounter", 11: "Image",
	12: "StorageBuffer", 5349: "PhysicalStorageBuffer",
}

var decorations = map[uint32]string{
	0: "RelaxedPrecision", 1: "SpecId", 2: "Block", 3: "BufferBlock",
	4: "RowMajor", 5: "ColMajor", 6: "ArrayStride", 7: "MatrixStride",
	8: "GLSLShared", 9: "GLSLPacked", 10: "CPacked", 11: "BuiltIn",
	13: "NoPerspective", 14: "Flat", 15: "Patch", 16: "Centroid",
	17: "Sample", 18: "Invariant", 19: "Restrict", 20: "Aliased",
	21: "Volatile", 22: "Constant", 23: "Coherent", 24: "NonWritable",
	25: "NonReadable", 26: "Uniform", 27: "UniformId", 28: "SaturatedConversion",
	29: "Stream", 30: "Location", 31: "Component", 32: "Index",
	33: "Binding", 34: "DescriptorSet", 35: "Offset", 36: "XfbBuffer",
	37: "XfbStride", 38: "FuncParamAttr", 39: "FPRoundingMode",
	40: "FPFastMathMode", 41: "LinkageAttributes", 42: "NoContraction",
	43: "InputAttachmentIndex", 44: "Alignment", 5300: "NonUniform",
	5634: "CounterBuffer", 5635: "UserSemantic", 5636: "UserTypeGOOGLE",
}

var builtins = map[uint32]string{
	0: "Position", 1: "PointSize", 3: "ClipDistance", 4: "CullDistance",
	5: "VertexId", 6: "InstanceId", 7: "PrimitiveId", 8: "InvocationId",
	9: "Layer", 10: "ViewportIndex", 11: "TessLevelOuter", 12: "TessLevelInner",
	13: "TessCoord", 14: "PatchVertices", 15: "FragCoord", 16: "PointCoord",
	17: "FrontFacing", 18: "SampleId", 19: "SamplePosition", 20: "SampleMask",
	22: "FragDepth", 23: "HelperInvocation", 24: "NumWorkgroups",
	25: "WorkgroupSize", 26: "WorkgroupId", 27: "LocalInvocationId",
	28: "GlobalInvocationId", 29: "LocalInvocationIndex",
	36: "SubgroupSize", 38: "NumSubgroups", 40: "SubgroupId",
	41: "SubgroupLocalInvocationId", 42: "VertexIndex", 43: "InstanceIndex",
}

var executionModes = map[uint32]string{
	0: "Invocations", 1: "SpacingEqual", 2: "SpacingFractionalEven",
	3: "SpacingFractionalOdd", 4: "VertexOrderCw", 5: "VertexOrderCcw",
	6: "PixelCenterInteger", 7: "OriginUpperLeft", 8: "OriginLowerLeft",
	9: "EarlyFragmentTests", 10: "PointMode", 11: "Xfb", 12: "DepthReplacing",
	14: "DepthGreater", 15: "DepthLess", 16: "DepthUnchanged",
	17: "LocalSize", 18: "LocalSizeHint", 19: "InputPoints", 20: "InputLines",
	21: "InputLinesAdjacency", 22: "Triangles", 23: "InputTrianglesAdjacency",
	24: "Quads", 25: "Isolines", 26: "OutputVertices", 27: "OutputPoints",
	28: "OutputLineStrip", 29: "OutputTriangleStrip", 30: "VecTypeHint",
	31: "ContractionOff",
}

var executionModels = map[uint32]string{
	0: "Vertex", 1: "TessellationControl", 2: "TessellationEvaluation",
	3: "Geometry", 4: "Fragment", 5: "GLCompute", 6: "Kernel",
}

var addressingModels = map[uint32]string{
	0: "Logical", 1: "Physical32", 2: "Physical64", 5348: "PhysicalStorageBuffer64",
}

var memoryModels = map[uint32]string{
	0: "Simple", 1: "GLSL450", 2: "OpenCL", 3: "Vulkan",
}

var dims = map[uint32]string{
	0: "1D", 1: "2D", 2: "3D", 3: "Cube", 4: "Rect", 5: "Buffer", 6: "SubpassData",
}

var imageFormats = map[uint32]string{
	0: "Unknown", 1: "Rgba32f", 2: "Rgba16f", 3: "R32f", 4: "Rgba8", 5: "Rgba8Snorm",
	21: "Rgba32i", 22: "Rgba16i", 23: "Rgba8i", 24: "R32i",
	30: "Rgba32ui", 31: "Rgba16ui", 32: "Rgba8ui", 33: "R32ui",
}

var accessQualifiers = map[uint32]string{
	0: "ReadOnly", 1: "WriteOnly", 2: "ReadWrite",
}

var sourceLanguages = map[uint32]string{
	0: "Unknown", 1: "ESSL", 2: "GLSL", 3: "OpenCL_C", 4: "OpenCL_CPP", 5: "HLSL",
}

var functionControls = map[uint32]string{
	0: "None", 1: "Inline", 2: "DontInline", 4: "Pure", 8: "Const",
}

var selectionControls = map[uint32]string{
	0: "None", 1: "Flatten", 2: "DontFlatten",
}

var loopControls = map[uint32]string{
	0: "None", 1: "Unroll", 2: "DontUnroll",
}

var memoryAccesses = map[uint32]string{
	0: "None", 1: "Volatile", 2: "Aligned", 4: "Nontemporal",
}

var imageOperands = map[uint32]string{
	0: "None", 1: "Bias", 2: "Lod", 4: "Grad", 8: "ConstOffset",
	16: "Offset", 32: "ConstOffsets", 64: "Sample", 128: "MinLod",
}

var samplerAddressingModes = map[uint32]string{
	0: "None", 1: "ClampToEdge", 2: "Clamp", 3: "Repeat", 4: "RepeatMirrored",
}

var samplerFilterModes = map[uint32]string{
	0: "Nearest", 1: "Linear",
}

var fpFastMathModes = map[uint32]string{
	0: "None", 1: "NotNaN", 2: "NotInf", 4: "NSZ", 8: "AllowRecip", 16: "Fast",
}

var enumTables = map[EnumKind]*enumTable{
	EnumCapability:            newEnumTable(false, capabilities),
	EnumStorageClass:          newEnumTable(false, storageClasses),
	EnumDecoration:            newEnumTable(false, decorations),
	EnumBuiltIn:               newEnumTable(false, builtins),
	EnumExecutionModel:        newEnumTable(false, executionModels),
	EnumExecutionMode:         newEnumTable(false, executionModes),
	EnumAddressingModel:       newEnumTable(false, addressingModels),
	EnumMemoryModel:           newEnumTable(false, memoryModels),
	EnumDim:                   newEnumTable(false, dims),
	EnumImageFormat:           newEnumTable(false, imageFormats),
	EnumAccessQualifier:       newEnumTable(false, accessQualifiers),
	EnumSourceLanguage:        newEnumTable(false, sourceLanguages),
	EnumFunctionControl:       newEnumTable(true, functionControls),
	EnumSelectionControl:      newEnumTable(true, selectionControls),
	EnumLoopControl:           newEnumTable(true, loopControls),
	EnumMemoryAccess:          newEnumTable(true, memoryAccesses),
	EnumImageOperands:         newEnumTable(true, imageOperands),
	EnumSamplerAddressingMode: newEnumTable(false, samplerAddressingModes),
	EnumSamplerFilterMode:     newEnumTable(false, samplerFilterModes),
	EnumFPFastMathMode:        newEnumTable(true, fpFastMathModes),
}

// EnumName returns the assembly spelling of value in the given kind. Mask kinds
// are rendered as '|'-joined flag names. Unknown values are printed as numbers.
func EnumName(kind EnumKind, value uint32) string {
	t := enumTables[kind]
	if t == nil {
		return fmt.Sprintf("%d", value)
	}
	if n, ok := t.names[value]; ok {
		return n
	}
	if !t.mask {
		return fmt.Sprintf("%d", value)
	}
	var parts []string
	rest := value
	for bit := uint32(1); bit != 0 && rest != 0; bit <<= 1 {
		if rest&bit == 0 {
			continue
		}
		n, ok := t.names[bit]
		if !ok {
			return fmt.Sprintf("%d", value)
		}
		parts = append(parts, n)
		rest &^= bit
	}
	return strings.Join(parts, "|")
}

// EnumValue parses the assembly spelling of an enumerated operand. Numbers are
// accepted for every kind; mask kinds also accept '|'-joined flag names.
func EnumValue(kind EnumKind, s string) (uint32, bool) {
	if v, ok := parseUint32(s); ok {
		return v, true
	}
	t := enumTables[kind]
	if t == nil {
		return 0, false
	}
	if v, ok := t.values[s]; ok {
		return v, true
	}
	if !t.mask {
		return 0, false
	}
	var v uint32
	for _, part := range strings.Split(s, "|") {
		bit, ok := t.values[part]
		if !ok {
			return 0, false
		}
		v |= bit
	}
	return v, true
}

// StorageClassName returns the assembly spelling of a storage class.
func StorageClassName(sc StorageClass) string {
	return EnumName(EnumStorageClass, uint32(sc))
}

// DecorationName returns the assembly spelling of a decoration.
func DecorationName(d Decoration) string {
	return EnumName(EnumDecoration, uint32(d))
}

package spirv

import "strconv"

// OperandKind describes how a logical operand is encoded in words.
type OperandKind uint8

// Operand kinds. The first five are primitive: every decoded instruction is a
// sequence of primitive spans. The rest expand into primitive spans depending
// on the words that follow them.
const (
	OperandID OperandKind = iota
	OperandLiteral
	OperandString
	OperandEnum
	OperandContextLiteral

	// OperandDecoration is a Decoration enum followed by its extra operands.
	OperandDecoration
	// OperandExecutionMode is an ExecutionMode enum followed by literals.
	OperandExecutionMode
	// OperandImageOperands is an ImageOperands mask followed by ids.
	OperandImageOperands
	// OperandMemoryAccess is a MemoryAccess mask with an optional alignment.
	OperandMemoryAccess
	// OperandPairLiteralID is a (literal, label id) pair of OpSwitch.
	OperandPairLiteralID
	// OperandPairIDID is a (value id, parent id) pair of OpPhi.
	OperandPairIDID
	// OperandPairIDLiteral is an (id, member literal) pair.
	OperandPairIDLiteral
	// OperandSpecConstantOp is the opcode word of OpSpecConstantOp followed by
	// the operands of that opcode.
	OperandSpecConstantOp
)

// Quantifier tells how many times an operand may occur.
type Quantifier uint8

// Quantifiers.
const (
	One Quantifier = iota
	Optional
	Variadic
)

// Operand is one entry of an instruction's logical operand list.
type Operand struct {
	Kind       OperandKind
	Enum       EnumKind
	Quantifier Quantifier
}

// InstructionInfo is the grammar of one opcode.
type InstructionInfo struct {
	Name      string
	HasType   bool
	HasResult bool
	Operands  []Operand
}

var (
	oID      = Operand{Kind: OperandID}
	oOptID   = Operand{Kind: OperandID, Quantifier: Optional}
	oIDs     = Operand{Kind: OperandID, Quantifier: Variadic}
	oLit     = Operand{Kind: OperandLiteral}
	oOptLit  = Operand{Kind: OperandLiteral, Quantifier: Optional}
	oLits    = Operand{Kind: OperandLiteral, Quantifier: Variadic}
	oStr     = Operand{Kind: OperandString}
	oOptStr  = Operand{Kind: OperandString, Quantifier: Optional}
	oStrs    = Operand{Kind: OperandString, Quantifier: Variadic}
	oCtx     = Operand{Kind: OperandContextLiteral}
	oDeco    = Operand{Kind: OperandDecoration}
	oMode    = Operand{Kind: OperandExecutionMode}
	oImg     = Operand{Kind: OperandImageOperands}
	oOptImg  = Operand{Kind: OperandImageOperands, Quantifier: Optional}
	oOptMem  = Operand{Kind: OperandMemoryAccess, Quantifier: Optional}
	oCases   = Operand{Kind: OperandPairLiteralID, Quantifier: Variadic}
	oPhi     = Operand{Kind: OperandPairIDID, Quantifier: Variadic}
	oMembers = Operand{Kind: OperandPairIDLiteral, Quantifier: Variadic}
	oSpecOp  = Operand{Kind: OperandSpecConstantOp}
)

func oEnum(k EnumKind) Operand    { return Operand{Kind: OperandEnum, Enum: k} }
func oOptEnum(k EnumKind) Operand { return Operand{Kind: OperandEnum, Enum: k, Quantifier: Optional} }

// Result shapes.
const (
	none = iota
	result
	typed
)

func def(name string, shape int, operands ...Operand) *InstructionInfo {
	return &InstructionInfo{
		Name:      name,
		HasType:   shape == typed,
		HasResult: shape != none,
		Operands:  operands,
	}
}

// unaryOp and binaryOp are the shapes of most arithmetic instructions.
func unaryOp(name string) *InstructionInfo  { return def(name, typed, oID) }
func binaryOp(name string) *InstructionInfo { return def(name, typed, oID, oID) }

var grammar = map[OpCode]*InstructionInfo{
	OpNop:             def("OpNop", none),
	OpUndef:           def("OpUndef", typed),
	OpSourceContinued: def("OpSourceContinued", none, oStr),
	OpSource:          def("OpSource", none, oEnum(EnumSourceLanguage), oLit, oOptID, oOptStr),
	OpSourceExtension: def("OpSourceExtension", none, oStr),
	OpName:            def("OpName", none, oID, oStr),
	OpMemberName:      def("OpMemberName", none, oID, oLit, oStr),
	OpString:          def("OpString", result, oStr),
	OpLine:            def("OpLine", none, oID, oLit, oLit),
	OpNoLine:          def("OpNoLine", none),
	OpModuleProcessed: def("OpModuleProcessed", none, oStr),
	OpExtension:       def("OpExtension", none, oStr),
	OpExtInstImport:   def("OpExtInstImport", result, oStr),
	OpExtInst:         def("OpExtInst", typed, oID, oLit, oIDs),
	OpMemoryModel:     def("OpMemoryModel", none, oEnum(EnumAddressingModel), oEnum(EnumMemoryModel)),
	OpEntryPoint:      def("OpEntryPoint", none, oEnum(EnumExecutionModel), oID, oStr, oIDs),
	OpExecutionMode:   def("OpExecutionMode", none, oID, oMode),
	OpExecutionModeID: def("OpExecutionModeId", none, oID, oEnum(EnumExecutionMode), oIDs),
	OpCapability:      def("OpCapability", none, oEnum(EnumCapability)),

	OpTypeVoid:         def("OpTypeVoid", result),
	OpTypeBool:         def("OpTypeBool", result),
	OpTypeInt:          def("OpTypeInt", result, oLit, oLit),
	OpTypeFloat:        def("OpTypeFloat", result, oLit, oOptLit),
	OpTypeVector:       def("OpTypeVector", result, oID, oLit),
	OpTypeMatrix:       def("OpTypeMatrix", result, oID, oLit),
	OpTypeImage:        def("OpTypeImage", result, oID, oEnum(EnumDim), oLit, oLit, oLit, oLit, oEnum(EnumImageFormat), oOptEnum(EnumAccessQualifier)),
	OpTypeSampler:      def("OpTypeSampler", result),
	OpTypeSampledImage: def("OpTypeSampledImage", result, oID),
	OpTypeArray:        def("OpTypeArray", result, oID, oID),
	OpTypeRuntimeArray: def("OpTypeRuntimeArray", result, oID),
	OpTypeStruct:       def("OpTypeStruct", result, oIDs),
	OpTypeOpaque:       def("OpTypeOpaque", result, oStr),
	OpTypePointer:      def("OpTypePointer", result, oEnum(EnumStorageClass), oID),
	OpTypeFunction:     def("OpTypeFunction", result, oID, oIDs),

	OpTypeAccelerationStructureKHR: def("OpTypeAccelerationStructureKHR", result),

	OpConstantTrue:          def("OpConstantTrue", typed),
	OpConstantFalse:         def("OpConstantFalse", typed),
	OpConstant:              def("OpConstant", typed, oCtx),
	OpConstantComposite:     def("OpConstantComposite", typed, oIDs),
	45:                      def("OpConstantSampler", typed, oEnum(EnumSamplerAddressingMode), oLit, oEnum(EnumSamplerFilterMode)),
	OpConstantNull:          def("OpConstantNull", typed),
	OpSpecConstantTrue:      def("OpSpecConstantTrue", typed),
	OpSpecConstantFalse:     def("OpSpecConstantFalse", typed),
	OpSpecConstant:          def("OpSpecConstant", typed, oCtx),
	OpSpecConstantComposite: def("OpSpecConstantComposite", typed, oIDs),
	OpSpecConstantOp:        def("OpSpecConstantOp", typed, oSpecOp),

	OpFunction:          def("OpFunction", typed, oEnum(EnumFunctionControl), oID),
	OpFunctionParameter: def("OpFunctionParameter", typed),
	OpFunctionEnd:       def("OpFunctionEnd", none),
	OpFunctionCall:      def("OpFunctionCall", typed, oID, oIDs),

	OpVariable:            def("OpVariable", typed, oEnum(EnumStorageClass), oOptID),
	OpImageTexelPointer:   def("OpImageTexelPointer", typed, oID, oID, oID),
	OpLoad:                def("OpLoad", typed, oID, oOptMem),
	OpStore:               def("OpStore", none, oID, oID, oOptMem),
	OpCopyMemory:          def("OpCopyMemory", none, oID, oID, oOptMem),
	OpAccessChain:         def("OpAccessChain", typed, oID, oIDs),
	OpInBoundsAccessChain: def("OpInBoundsAccessChain", typed, oID, oIDs),
	OpPtrAccessChain:      def("OpPtrAccessChain", typed, oID, oID, oIDs),
	OpArrayLength:         def("OpArrayLength", typed, oID, oLit),
	OpCopyLogical:         unaryOp("OpCopyLogical"),

	OpDecorate:             def("OpDecorate", none, oID, oDeco),
	OpMemberDecorate:       def("OpMemberDecorate", none, oID, oLit, oDeco),
	OpDecorationGroup:      def("OpDecorationGroup", result),
	OpGroupDecorate:        def("OpGroupDecorate", none, oID, oIDs),
	OpGroupMemberDecorate:  def("OpGroupMemberDecorate", none, oID, oMembers),
	OpDecorateID:           def("OpDecorateId", none, oID, oEnum(EnumDecoration), oIDs),
	OpDecorateString:       def("OpDecorateString", none, oID, oEnum(EnumDecoration), oStr, oStrs),
	OpMemberDecorateString: def("OpMemberDecorateString", none, oID, oLit, oEnum(EnumDecoration), oStr, oStrs),

	OpVectorExtractDynamic: binaryOp("OpVectorExtractDynamic"),
	OpVectorInsertDynamic:  def("OpVectorInsertDynamic", typed, oID, oID, oID),
	OpVectorShuffle:        def("OpVectorShuffle", typed, oID, oID, oLits),
	OpCompositeConstruct:   def("OpCompositeConstruct", typed, oIDs),
	OpCompositeExtract:     def("OpCompositeExtract", typed, oID, oLits),
	OpCompositeInsert:      def("OpCompositeInsert", typed, oID, oID, oLits),
	OpCopyObject:           unaryOp("OpCopyObject"),
	OpTranspose:            unaryOp("OpTranspose"),

	OpSampledImage:               binaryOp("OpSampledImage"),
	OpImageSampleImplicitLod:     def("OpImageSampleImplicitLod", typed, oID, oID, oOptImg),
	OpImageSampleExplicitLod:     def("OpImageSampleExplicitLod", typed, oID, oID, oImg),
	OpImageSampleDrefImplicitLod: def("OpImageSampleDrefImplicitLod", typed, oID, oID, oID, oOptImg),
	OpImageSampleDrefExplicitLod: def("OpImageSampleDrefExplicitLod", typed, oID, oID, oID, oImg),
	91:                           def("OpImageSampleProjImplicitLod", typed, oID, oID, oOptImg),
	92:                           def("OpImageSampleProjExplicitLod", typed, oID, oID, oImg),
	93:                           def("OpImageSampleProjDrefImplicitLod", typed, oID, oID, oID, oOptImg),
	94:                           def("OpImageSampleProjDrefExplicitLod", typed, oID, oID, oID, oImg),
	OpImageFetch:                 def("OpImageFetch", typed, oID, oID, oOptImg),
	OpImageGather:                def("OpImageGather", typed, oID, oID, oID, oOptImg),
	OpImageDrefGather:            def("OpImageDrefGather", typed, oID, oID, oID, oOptImg),
	OpImageRead:                  def("OpImageRead", typed, oID, oID, oOptImg),
	OpImageWrite:                 def("OpImageWrite", none, oID, oID, oID, oOptImg),
	OpImage:                      unaryOp("OpImage"),
	101:                          unaryOp("OpImageQueryFormat"),
	102:                          unaryOp("OpImageQueryOrder"),
	OpImageQuerySizeLod:          binaryOp("OpImageQuerySizeLod"),
	OpImageQuerySize:             unaryOp("OpImageQuerySize"),
	OpImageQueryLod:              binaryOp("OpImageQueryLod"),
	OpImageQueryLevels:           unaryOp("OpImageQueryLevels"),
	OpImageQuerySamples:          unaryOp("OpImageQuerySamples"),

	OpConvertFToU: unaryOp("OpConvertFToU"),
	OpConvertFToS: unaryOp("OpConvertFToS"),
	OpConvertSToF: unaryOp("OpConvertSToF"),
	OpConvertUToF: unaryOp("OpConvertUToF"),
	OpUConvert:    unaryOp("OpUConvert"),
	OpSConvert:    unaryOp("OpSConvert"),
	OpFConvert:    unaryOp("OpFConvert"),
	116:           unaryOp("OpQuantizeToF16"),
	OpBitcast:     unaryOp("OpBitcast"),
	OpSNegate:     unaryOp("OpSNegate"),
	OpFNegate:     unaryOp("OpFNegate"),

	OpIAdd:              binaryOp("OpIAdd"),
	OpFAdd:              binaryOp("OpFAdd"),
	OpISub:              binaryOp("OpISub"),
	OpFSub:              binaryOp("OpFSub"),
	OpIMul:              binaryOp("OpIMul"),
	OpFMul:              binaryOp("OpFMul"),
	OpUDiv:              binaryOp("OpUDiv"),
	OpSDiv:              binaryOp("OpSDiv"),
	OpFDiv:              binaryOp("OpFDiv"),
	OpUMod:              binaryOp("OpUMod"),
	OpSRem:              binaryOp("OpSRem"),
	OpSMod:              binaryOp("OpSMod"),
	OpFRem:              binaryOp("OpFRem"),
	OpFMod:              binaryOp("OpFMod"),
	OpVectorTimesScalar: binaryOp("OpVectorTimesScalar"),
	OpMatrixTimesScalar: binaryOp("OpMatrixTimesScalar"),
	OpVectorTimesMatrix: binaryOp("OpVectorTimesMatrix"),
	OpMatrixTimesVector: binaryOp("OpMatrixTimesVector"),
	OpMatrixTimesMatrix: binaryOp("OpMatrixTimesMatrix"),
	147:                 binaryOp("OpOuterProduct"),
	OpDot:               binaryOp("OpDot"),

	OpAny:                  unaryOp("OpAny"),
	OpAll:                  unaryOp("OpAll"),
	156:                    unaryOp("OpIsNan"),
	157:                    unaryOp("OpIsInf"),
	OpLogicalEqual:         binaryOp("OpLogicalEqual"),
	OpLogicalNotEqual:      binaryOp("OpLogicalNotEqual"),
	OpLogicalOr:            binaryOp("OpLogicalOr"),
	OpLogicalAnd:           binaryOp("OpLogicalAnd"),
	OpLogicalNot:           unaryOp("OpLogicalNot"),
	OpSelect:               def("OpSelect", typed, oID, oID, oID),
	OpIEqual:               binaryOp("OpIEqual"),
	OpINotEqual:            binaryOp("OpINotEqual"),
	OpUGreaterThan:         binaryOp("OpUGreaterThan"),
	OpSGreaterThan:         binaryOp("OpSGreaterThan"),
	OpUGreaterThanEqual:    binaryOp("OpUGreaterThanEqual"),
	OpSGreaterThanEqual:    binaryOp("OpSGreaterThanEqual"),
	OpULessThan:            binaryOp("OpULessThan"),
	OpSLessThan:            binaryOp("OpSLessThan"),
	OpULessThanEqual:       binaryOp("OpULessThanEqual"),
	OpSLessThanEqual:       binaryOp("OpSLessThanEqual"),
	OpFOrdEqual:            binaryOp("OpFOrdEqual"),
	181:                    binaryOp("OpFUnordEqual"),
	OpFOrdNotEqual:         binaryOp("OpFOrdNotEqual"),
	183:                    binaryOp("OpFUnordNotEqual"),
	OpFOrdLessThan:         binaryOp("OpFOrdLessThan"),
	185:                    binaryOp("OpFUnordLessThan"),
	OpFOrdGreaterThan:      binaryOp("OpFOrdGreaterThan"),
	187:                    binaryOp("OpFUnordGreaterThan"),
	OpFOrdLessThanEqual:    binaryOp("OpFOrdLessThanEqual"),
	189:                    binaryOp("OpFUnordLessThanEqual"),
	OpFOrdGreaterThanEqual: binaryOp("OpFOrdGreaterThanEqual"),
	191:                    binaryOp("OpFUnordGreaterThanEqual"),
	OpShiftRightLogical:    binaryOp("OpShiftRightLogical"),
	OpShiftRightArithmetic: binaryOp("OpShiftRightArithmetic"),
	OpShiftLeftLogical:     binaryOp("OpShiftLeftLogical"),
	OpBitwiseOr:            binaryOp("OpBitwiseOr"),
	OpBitwiseXor:           binaryOp("OpBitwiseXor"),
	OpBitwiseAnd:           binaryOp("OpBitwiseAnd"),
	OpNot:                  unaryOp("OpNot"),
	204:                    unaryOp("OpBitReverse"),
	205:                    unaryOp("OpBitCount"),
	OpDPdx:                 unaryOp("OpDPdx"),
	OpDPdy:                 unaryOp("OpDPdy"),
	OpFwidth:               unaryOp("OpFwidth"),

	OpControlBarrier: def("OpControlBarrier", none, oID, oID, oID),
	OpMemoryBarrier:  def("OpMemoryBarrier", none, oID, oID),
	OpAtomicLoad:     def("OpAtomicLoad", typed, oID, oID, oID),
	OpAtomicStore:    def("OpAtomicStore", none, oID, oID, oID, oID),
	OpAtomicExchange: def("OpAtomicExchange", typed, oID, oID, oID, oID),
	OpAtomicIAdd:     def("OpAtomicIAdd", typed, oID, oID, oID, oID),

	OpPhi:                 def("OpPhi", typed, oPhi),
	OpLoopMerge:           def("OpLoopMerge", none, oID, oID, oEnum(EnumLoopControl), oLits),
	OpSelectionMerge:      def("OpSelectionMerge", none, oID, oEnum(EnumSelectionControl)),
	OpLabel:               def("OpLabel", result),
	OpBranch:              def("OpBranch", none, oID),
	OpBranchConditional:   def("OpBranchConditional", none, oID, oID, oID, oLits),
	OpSwitch:              def("OpSwitch", none, oID, oID, oCases),
	OpKill:                def("OpKill", none),
	OpReturn:              def("OpReturn", none),
	OpReturnValue:         def("OpReturnValue", none, oID),
	OpUnreachable:         def("OpUnreachable", none),
	OpTerminateInvocation: def("OpTerminateInvocation", none),
}

var opcodesByName = func() map[string]OpCode {
	m := make(map[string]OpCode, len(grammar))
	for op, info := range grammar {
		m[info.Name] = op
	}
	return m
}()

// Info returns the grammar of op. The second result is false for opcodes the
// grammar does not cover; such instructions are carried opaquely.
func Info(op OpCode) (*InstructionInfo, bool) {
	info, ok := grammar[op]
	return info, ok
}

// LookupOpcode returns the opcode spelled name in assembly.
func LookupOpcode(name string) (OpCode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

// String returns the assembly spelling of the opcode.
func (op OpCode) String() string {
	if info, ok := grammar[op]; ok {
		return info.Name
	}
	return "Op" + strconv.Itoa(int(op))
}

// Span is a run of operand words with a single primitive kind.
type Span struct {
	Kind       OperandKind
	Enum       EnumKind
	Start, End int
}

// Spans splits the operand words of inst into primitive spans according to
// the grammar. ok is false for opcodes outside the grammar.
func (inst *Instruction) Spans() (spans []Span, ok bool) {
	info, ok := grammar[inst.Opcode]
	if !ok {
		return nil, false
	}
	d := spanDecoder{words: inst.Operands}
	for _, operand := range info.Operands {
		switch operand.Quantifier {
		case One:
			if d.done() {
				return d.spans, true
			}
			d.decode(operand)
		case Optional:
			if !d.done() {
				d.decode(operand)
			}
		case Variadic:
			for !d.done() {
				d.decode(operand)
			}
		}
	}
	if !d.done() {
		// Trailing words the grammar does not describe are kept as literals.
		d.emit(OperandLiteral, EnumNone, len(d.words)-d.pos)
	}
	return d.spans, true
}

type spanDecoder struct {
	words []uint32
	pos   int
	spans []Span
}

func (d *spanDecoder) done() bool { return d.pos >= len(d.words) }

func (d *spanDecoder) emit(kind OperandKind, enum EnumKind, n int) {
	if n <= 0 || d.done() {
		return
	}
	if d.pos+n > len(d.words) {
		n = len(d.words) - d.pos
	}
	d.spans = append(d.spans, Span{Kind: kind, Enum: enum, Start: d.pos, End: d.pos + n})
	d.pos += n
}

func (d *spanDecoder) rest(kind OperandKind) {
	for !d.done() {
		d.emit(kind, EnumNone, 1)
	}
}

func (d *spanDecoder) decode(operand Operand) {
	switch operand.Kind {
	case OperandID, OperandLiteral:
		d.emit(operand.Kind, EnumNone, 1)
	case OperandEnum:
		d.emit(OperandEnum, operand.Enum, 1)
	case OperandString:
		d.emit(OperandString, EnumNone, stringWordCount(d.words[d.pos:]))
	case OperandContextLiteral:
		d.emit(OperandContextLiteral, EnumNone, len(d.words)-d.pos)
	case OperandDecoration:
		decoration := Decoration(d.words[d.pos])
		d.emit(OperandEnum, EnumDecoration, 1)
		switch decoration {
		case DecorationBuiltIn:
			d.emit(OperandEnum, EnumBuiltIn, 1)
		case DecorationLinkageAttributes:
			d.emit(OperandString, EnumNone, stringWordCount(d.words[d.pos:]))
			d.rest(OperandLiteral)
		case DecorationUserSemantic, DecorationUserTypeGOOGLE:
			d.emit(OperandString, EnumNone, stringWordCount(d.words[d.pos:]))
		case 40: // FPFastMathMode
			d.emit(OperandEnum, EnumFPFastMathMode, 1)
		default:
			d.rest(OperandLiteral)
		}
	case OperandExecutionMode:
		d.emit(OperandEnum, EnumExecutionMode, 1)
		d.rest(OperandLiteral)
	case OperandImageOperands:
		d.emit(OperandEnum, EnumImageOperands, 1)
		d.rest(OperandID)
	case OperandMemoryAccess:
		mask := d.words[d.pos]
		d.emit(OperandEnum, EnumMemoryAccess, 1)
		if mask&MemoryAccessAligned != 0 {
			d.emit(OperandLiteral, EnumNone, 1)
		}
	case OperandPairLiteralID:
		d.emit(OperandLiteral, EnumNone, 1)
		d.emit(OperandID, EnumNone, 1)
	case OperandPairIDID:
		d.emit(OperandID, EnumNone, 1)
		d.emit(OperandID, EnumNone, 1)
	case OperandPairIDLiteral:
		d.emit(OperandID, EnumNone, 1)
		d.emit(OperandLiteral, EnumNone, 1)
	case OperandSpecConstantOp:
		op := OpCode(d.words[d.pos])
		d.emit(OperandLiteral, EnumNone, 1)
		switch op {
		case OpCompositeExtract:
			d.emit(OperandID, EnumNone, 1)
			d.rest(OperandLiteral)
		case OpCompositeInsert, OpVectorShuffle:
			d.emit(OperandID, EnumNone, 1)
			d.emit(OperandID, EnumNone, 1)
			d.rest(OperandLiteral)
		default:
			d.rest(OperandID)
		}
	}
}

// stringWordCount returns the number of words occupied by the null-terminated
// string at the start of words.
func stringWordCount(words []uint32) int {
	for i, w := range words {
		if w&0xFF == 0 || w&0xFF00 == 0 || w&0xFF0000 == 0 || w&0xFF000000 == 0 {
			return i + 1
		}
	}
	return len(words)
}

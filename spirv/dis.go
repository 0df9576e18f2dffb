package spirv

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DisassembleOptions controls the text produced by DisassembleWith.
type DisassembleOptions struct {
	// FriendlyNames prints ids by their debug or type-derived names instead
	// of their numbers.
	FriendlyNames bool
	// Header prints the module header as leading comments.
	Header bool
}

// Disassemble renders m as assembly text with a header and friendly names.
func Disassemble(m *Module) string {
	return DisassembleWith(m, DisassembleOptions{FriendlyNames: true, Header: true})
}

// DisassembleWith renders m as assembly text.
func DisassembleWith(m *Module, opts DisassembleOptions) string {
	d := &disassembler{types: numericTypes(m)}
	if opts.FriendlyNames {
		d.names = FriendlyNames(m)
	}

	var sb strings.Builder
	if opts.Header {
		fmt.Fprintf(&sb, "; SPIR-V\n")
		fmt.Fprintf(&sb, "; Version: %d.%d\n", m.Version.Major, m.Version.Minor)
		fmt.Fprintf(&sb, "; Generator: 0x%08X\n", m.Generator)
		fmt.Fprintf(&sb, "; Bound: %d\n", m.Bound)
		fmt.Fprintf(&sb, "; Schema: %d\n", m.Schema)
	}
	m.ForEach(func(inst *Instruction) {
		sb.WriteString(d.line(inst))
		sb.WriteByte('\n')
	})
	return sb.String()
}

// resultColumn is the width of the right-aligned result id field.
const resultColumn = 12

type disassembler struct {
	names map[uint32]string
	types map[uint32]numericType
}

func (d *disassembler) id(n uint32) string {
	if name, ok := d.names[n]; ok {
		return "%" + name
	}
	return "%" + strconv.FormatUint(uint64(n), 10)
}

func (d *disassembler) line(inst *Instruction) string {
	var sb strings.Builder
	info, known := grammar[inst.Opcode]
	if known && info.HasResult {
		fmt.Fprintf(&sb, "%*s = ", resultColumn, d.id(inst.Result))
	} else {
		sb.WriteString(strings.Repeat(" ", resultColumn+3))
	}
	sb.WriteString(inst.Opcode.String())
	if known && info.HasType {
		sb.WriteByte(' ')
		sb.WriteString(d.id(inst.Type))
	}

	spans, ok := inst.Spans()
	if !ok {
		for _, w := range inst.Operands {
			fmt.Fprintf(&sb, " %d", w)
		}
		return sb.String()
	}
	for _, span := range spans {
		sb.WriteByte(' ')
		sb.WriteString(d.operand(inst, span))
	}
	return sb.String()
}

func (d *disassembler) operand(inst *Instruction, span Span) string {
	words := inst.Operands[span.Start:span.End]
	switch span.Kind {
	case OperandID:
		return d.id(words[0])
	case OperandString:
		s, _ := DecodeString(words)
		return quote(s)
	case OperandEnum:
		return EnumName(span.Enum, words[0])
	case OperandContextLiteral:
		return formatTypedLiteral(words, d.types[inst.Type])
	default:
		if inst.Opcode == OpSpecConstantOp && span.Start == 0 {
			return strings.TrimPrefix(OpCode(words[0]).String(), "Op")
		}
		parts := make([]string, len(words))
		for i, w := range words {
			parts[i] = strconv.FormatUint(uint64(w), 10)
		}
		return strings.Join(parts, " ")
	}
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	sb.WriteByte('"')
	return sb.String()
}

func numericTypes(m *Module) map[uint32]numericType {
	types := make(map[uint32]numericType)
	for _, inst := range m.Globals {
		switch inst.Opcode {
		case OpTypeInt:
			if len(inst.Operands) == 2 {
				types[inst.Result] = numericType{width: inst.Operands[0], signed: inst.Operands[1] != 0}
			}
		case OpTypeFloat:
			if len(inst.Operands) >= 1 {
				types[inst.Result] = numericType{float: true, width: inst.Operands[0]}
			}
		}
	}
	return types
}

func formatTypedLiteral(words []uint32, t numericType) string {
	var u uint64
	for i, w := range words {
		if i < 2 {
			u |= uint64(w) << (32 * i)
		}
	}
	switch {
	case t.float && t.width == 64:
		return strconv.FormatFloat(math.Float64frombits(u), 'g', -1, 64)
	case t.float:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(u))), 'g', -1, 32)
	case t.signed && t.width == 64:
		return strconv.FormatInt(int64(u), 10)
	case t.signed:
		return strconv.FormatInt(int64(int32(uint32(u))), 10)
	default:
		return strconv.FormatUint(u, 10)
	}
}

// FriendlyNames derives a printable name for ids of m. Debug names come first,
// sanitized to [A-Za-z0-9_]; unnamed types and scalar constants get names
// built from their structure such as "v4float", "_ptr_Uniform_S" or "uint_3".
// Clashes are resolved by appending "_0", "_1" and so on. Ids without a
// derivable name are absent from the map.
func FriendlyNames(m *Module) map[uint32]string {
	f := &friendlyNamer{
		names: make(map[uint32]string),
		used:  make(map[string]bool),
	}
	for _, inst := range m.Names {
		if inst.Opcode != OpName || len(inst.Operands) < 2 {
			continue
		}
		target := inst.Operands[0]
		if _, done := f.names[target]; done {
			continue
		}
		s, _ := inst.StringOperand(1)
		f.claim(target, Sanitize(s))
	}
	for _, inst := range m.Globals {
		if inst.Result == 0 {
			continue
		}
		if _, done := f.names[inst.Result]; done {
			continue
		}
		if name := f.derive(inst); name != "" {
			f.claim(inst.Result, name)
		}
	}
	return f.names
}

type friendlyNamer struct {
	names map[uint32]string
	used  map[string]bool
}

func (f *friendlyNamer) claim(id uint32, base string) {
	name := base
	for i := 0; f.used[name]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	f.used[name] = true
	f.names[id] = name
}

// ref returns the name used for id inside a derived name.
func (f *friendlyNamer) ref(id uint32) string {
	if name, ok := f.names[id]; ok {
		return name
	}
	return strconv.FormatUint(uint64(id), 10)
}

//nolint:gocyclo,cyclop // one case per type opcode
func (f *friendlyNamer) derive(inst *Instruction) string {
	ops := inst.Operands
	switch inst.Opcode {
	case OpTypeVoid:
		return "void"
	case OpTypeBool:
		return "bool"
	case OpTypeInt:
		if len(ops) < 2 {
			return ""
		}
		name := map[uint32]string{8: "char", 16: "short", 32: "int", 64: "long"}[ops[0]]
		if name == "" {
			name = "int" + strconv.FormatUint(uint64(ops[0]), 10)
		}
		if ops[1] == 0 {
			name = "u" + name
		}
		return name
	case OpTypeFloat:
		if len(ops) < 1 {
			return ""
		}
		switch ops[0] {
		case 16:
			return "half"
		case 32:
			return "float"
		case 64:
			return "double"
		}
		return "fp" + strconv.FormatUint(uint64(ops[0]), 10)
	case OpTypeVector:
		if len(ops) < 2 {
			return ""
		}
		return "v" + strconv.FormatUint(uint64(ops[1]), 10) + f.ref(ops[0])
	case OpTypeMatrix:
		if len(ops) < 2 {
			return ""
		}
		return "mat" + strconv.FormatUint(uint64(ops[1]), 10) + f.ref(ops[0])
	case OpTypeArray:
		if len(ops) < 2 {
			return ""
		}
		return "_arr_" + f.ref(ops[0]) + "_" + f.ref(ops[1])
	case OpTypeRuntimeArray:
		if len(ops) < 1 {
			return ""
		}
		return "_runtimearr_" + f.ref(ops[0])
	case OpTypePointer:
		if len(ops) < 2 {
			return ""
		}
		return "_ptr_" + StorageClassName(StorageClass(ops[0])) + "_" + f.ref(ops[1])
	case OpTypeStruct:
		return "_struct_" + strconv.FormatUint(uint64(inst.Result), 10)
	case OpTypeSampler:
		return "sampler"
	case OpTypeImage:
		return "image"
	case OpTypeSampledImage:
		if len(ops) < 1 {
			return ""
		}
		return "sampled_" + f.ref(ops[0])
	case OpTypeAccelerationStructureKHR:
		return "accelerationStructure"
	case OpConstantTrue:
		return "true"
	case OpConstantFalse:
		return "false"
	case OpConstant:
		return f.constant(inst)
	}
	return ""
}

func (f *friendlyNamer) constant(inst *Instruction) string {
	typeName, ok := f.names[inst.Type]
	if !ok || len(inst.Operands) == 0 {
		return ""
	}
	var t numericType
	switch typeName {
	case "int", "short", "char", "long":
		t.signed = true
	case "float", "half", "double":
		t.float = true
	case "uint", "ushort", "uchar", "ulong":
	default:
		return ""
	}
	t.width = 32
	if len(inst.Operands) == 2 {
		t.width = 64
	}
	value := formatTypedLiteral(inst.Operands, t)
	value = strings.NewReplacer("-", "n", ".", "p", "+", "").Replace(value)
	return Sanitize(typeName + "_" + value)
}

// Sanitize maps a debug name to the id spelling used in assembly: every byte
// outside [A-Za-z0-9_] becomes '_', and names made only of digits get a
// leading '_' so they cannot be mistaken for numeric ids.
func Sanitize(name string) string {
	if name == "" {
		return "_"
	}
	b := []byte(name)
	digits := true
	for i, c := range b {
		isDigit := c >= '0' && c <= '9'
		if !isDigit {
			digits = false
		}
		if !isDigit && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && c != '_' {
			b[i] = '_'
		}
	}
	if digits {
		return "_" + string(b)
	}
	return string(b)
}

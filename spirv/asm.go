package spirv

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Assemble parses SPIR-V assembly text into a module.
//
// The accepted syntax is the one printed by Disassemble and by the common
// SPIR-V tool chains: one instruction per line, "%id = OpName operands..." for
// instructions with a result, ';' comments, quoted strings and enum operands
// spelled by name. Numeric ids such as %12 keep their number; named ids are
// numbered in order of first appearance. A "; Version: X.Y" comment sets the
// module version, which defaults to 1.3.
func Assemble(text string) (*Module, error) {
	m, _, err := AssembleWithNames(text)
	return m, err
}

// AssembleWithNames is Assemble that also returns the id given to every
// %name, keyed without the leading '%'.
func AssembleWithNames(text string) (*Module, map[string]uint32, error) {
	a := &assembler{
		m: &Module{
			Version:   Version1_3,
			Generator: GeneratorID,
		},
		ids:   make(map[string]uint32),
		types: make(map[uint32]numericType),
	}
	a.fb = functionBuilder{m: a.m}

	var errs error
	var lines [][]token
	for i, line := range strings.Split(text, "\n") {
		a.header(line)
		toks, err := tokenize(line, i+1)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if len(toks) > 0 {
			lines = append(lines, toks)
		}
	}
	a.assignIDs(lines)

	inFunctions := false
	for _, toks := range lines {
		inst, err := a.instruction(toks)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if inst.Opcode == OpFunction {
			inFunctions = true
		}
		if !inFunctions {
			a.m.appendGlobal(inst)
			continue
		}
		if !a.fb.add(inst) {
			errs = multierr.Append(errs, errors.Errorf("line %d: unexpected %s", toks[0].line, inst.Opcode))
		}
	}
	if a.fb.open() {
		errs = multierr.Append(errs, errors.New("missing OpFunctionEnd"))
	}
	if errs != nil {
		return nil, nil, errs
	}
	a.m.Bound = a.maxID + 1
	return a.m, a.ids, nil
}

type tokenKind uint8

const (
	tokWord tokenKind = iota
	tokString
)

type token struct {
	kind tokenKind
	text string
	line int
}

// tokenize splits one line into words and quoted strings, dropping comments.
func tokenize(line string, lineNo int) ([]token, error) {
	var toks []token
	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case c == ';':
			return toks, nil
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '"':
			var sb strings.Builder
			i++
			closed := false
			for i < len(line) {
				if line[i] == '\\' && i+1 < len(line) {
					sb.WriteByte(line[i+1])
					i += 2
					continue
				}
				if line[i] == '"' {
					closed = true
					i++
					break
				}
				sb.WriteByte(line[i])
				i++
			}
			if !closed {
				return nil, errors.Errorf("line %d: unterminated string", lineNo)
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), line: lineNo})
		default:
			start := i
			for i < len(line) && line[i] != ' ' && line[i] != '\t' && line[i] != '\r' && line[i] != ';' && line[i] != '"' {
				i++
			}
			toks = append(toks, token{kind: tokWord, text: line[start:i], line: lineNo})
		}
	}
	return toks, nil
}

// numericType records what OpConstant literals of a type look like.
type numericType struct {
	float  bool
	width  uint32
	signed bool
}

type assembler struct {
	m     *Module
	fb    functionBuilder
	ids   map[string]uint32
	maxID uint32
	types map[uint32]numericType
}

// header picks up the module version from a "; Version: X.Y" comment.
func (a *assembler) header(line string) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "; Version:")
	if !ok {
		return
	}
	major, minor, ok := strings.Cut(strings.TrimSpace(rest), ".")
	if !ok {
		return
	}
	maj, err1 := strconv.ParseUint(major, 10, 8)
	mnr, err2 := strconv.ParseUint(minor, 10, 8)
	if err1 == nil && err2 == nil {
		a.m.Version = Version{Major: uint8(maj), Minor: uint8(mnr)}
	}
}

// assignIDs numbers every %name. Numeric names are taken literally and the
// others get the lowest numbers not already taken.
func (a *assembler) assignIDs(lines [][]token) {
	reserved := make(map[uint32]bool)
	var named []string
	for _, toks := range lines {
		for _, tok := range toks {
			if tok.kind != tokWord || !strings.HasPrefix(tok.text, "%") {
				continue
			}
			name := tok.text[1:]
			if _, seen := a.ids[name]; seen {
				continue
			}
			if n, err := strconv.ParseUint(name, 10, 32); err == nil && n > 0 {
				a.ids[name] = uint32(n)
				reserved[uint32(n)] = true
				a.maxID = max(a.maxID, uint32(n))
				continue
			}
			a.ids[name] = 0
			named = append(named, name)
		}
	}
	next := uint32(1)
	for _, name := range named {
		for reserved[next] {
			next++
		}
		a.ids[name] = next
		a.maxID = max(a.maxID, next)
		next++
	}
}

func (a *assembler) instruction(toks []token) (*Instruction, error) {
	line := toks[0].line
	var resultName string
	if len(toks) >= 2 && toks[1].kind == tokWord && toks[1].text == "=" {
		resultName = toks[0].text
		toks = toks[2:]
	}
	if len(toks) == 0 || toks[0].kind != tokWord {
		return nil, errors.Errorf("line %d: expected an opcode", line)
	}
	opcode, ok := LookupOpcode(toks[0].text)
	if !ok {
		return nil, errors.Errorf("line %d: unknown opcode %q", line, toks[0].text)
	}
	info := grammar[opcode]
	p := &operandParser{a: a, toks: toks[1:], line: line, builder: NewInstructionBuilder()}

	if info.HasType {
		typeID, err := p.id()
		if err != nil {
			return nil, err
		}
		p.builder.AddWord(typeID)
		p.resultType = typeID
	}
	switch {
	case info.HasResult && resultName == "":
		return nil, errors.Errorf("line %d: %s needs a result id", line, opcode)
	case !info.HasResult && resultName != "":
		return nil, errors.Errorf("line %d: %s has no result id", line, opcode)
	case info.HasResult:
		id, err := a.lookup(resultName, line)
		if err != nil {
			return nil, err
		}
		p.builder.AddWord(id)
	}

	for _, operand := range info.Operands {
		if err := p.operand(operand); err != nil {
			return nil, err
		}
	}
	if !p.done() {
		return nil, errors.Errorf("line %d: unexpected operand %q", line, p.toks[0].text)
	}

	inst := p.builder.Build(opcode)
	a.recordType(inst)
	return inst, nil
}

func (a *assembler) lookup(text string, line int) (uint32, error) {
	if !strings.HasPrefix(text, "%") {
		return 0, errors.Errorf("line %d: expected an id, got %q", line, text)
	}
	return a.ids[text[1:]], nil
}

func (a *assembler) recordType(inst *Instruction) {
	switch inst.Opcode {
	case OpTypeInt:
		if len(inst.Operands) == 2 {
			a.types[inst.Result] = numericType{width: inst.Operands[0], signed: inst.Operands[1] != 0}
		}
	case OpTypeFloat:
		if len(inst.Operands) >= 1 {
			a.types[inst.Result] = numericType{float: true, width: inst.Operands[0]}
		}
	}
}

type operandParser struct {
	a          *assembler
	toks       []token
	line       int
	builder    *InstructionBuilder
	resultType uint32
}

func (p *operandParser) done() bool { return len(p.toks) == 0 }

func (p *operandParser) next() (token, error) {
	if p.done() {
		return token{}, errors.Errorf("line %d: missing operand", p.line)
	}
	tok := p.toks[0]
	p.toks = p.toks[1:]
	return tok, nil
}

func (p *operandParser) id() (uint32, error) {
	tok, err := p.next()
	if err != nil {
		return 0, err
	}
	if tok.kind != tokWord {
		return 0, errors.Errorf("line %d: expected an id, got string %q", p.line, tok.text)
	}
	return p.a.lookup(tok.text, p.line)
}

func (p *operandParser) literal() (uint32, error) {
	tok, err := p.next()
	if err != nil {
		return 0, err
	}
	v, ok := parseLiteral(tok.text)
	if tok.kind != tokWord || !ok {
		return 0, errors.Errorf("line %d: expected a literal number, got %q", p.line, tok.text)
	}
	return v, nil
}

func (p *operandParser) str() (string, error) {
	tok, err := p.next()
	if err != nil {
		return "", err
	}
	if tok.kind != tokString {
		return "", errors.Errorf("line %d: expected a string, got %q", p.line, tok.text)
	}
	return tok.text, nil
}

func (p *operandParser) enum(kind EnumKind) (uint32, error) {
	tok, err := p.next()
	if err != nil {
		return 0, err
	}
	v, ok := EnumValue(kind, tok.text)
	if tok.kind != tokWord || !ok {
		return 0, errors.Errorf("line %d: invalid enumerant %q", p.line, tok.text)
	}
	return v, nil
}

func (p *operandParser) operand(operand Operand) error {
	switch operand.Quantifier {
	case Optional:
		if p.done() {
			return nil
		}
	case Variadic:
		for !p.done() {
			if err := p.single(operand); err != nil {
				return err
			}
		}
		return nil
	}
	return p.single(operand)
}

//nolint:gocyclo,cyclop // one case per operand kind
func (p *operandParser) single(operand Operand) error {
	b := p.builder
	switch operand.Kind {
	case OperandID:
		v, err := p.id()
		if err != nil {
			return err
		}
		b.AddWord(v)
	case OperandLiteral:
		v, err := p.literal()
		if err != nil {
			return err
		}
		b.AddWord(v)
	case OperandString:
		s, err := p.str()
		if err != nil {
			return err
		}
		b.AddString(s)
	case OperandEnum:
		v, err := p.enum(operand.Enum)
		if err != nil {
			return err
		}
		b.AddWord(v)
	case OperandContextLiteral:
		tok, err := p.next()
		if err != nil {
			return err
		}
		words, ok := typedLiteral(tok.text, p.a.types[p.resultType])
		if !ok {
			return errors.Errorf("line %d: invalid constant %q", p.line, tok.text)
		}
		b.AddWords(words...)
	case OperandDecoration:
		v, err := p.enum(EnumDecoration)
		if err != nil {
			return err
		}
		b.AddWord(v)
		return p.decorationExtras(Decoration(v))
	case OperandExecutionMode:
		v, err := p.enum(EnumExecutionMode)
		if err != nil {
			return err
		}
		b.AddWord(v)
		return p.operand(oLits)
	case OperandImageOperands:
		v, err := p.enum(EnumImageOperands)
		if err != nil {
			return err
		}
		b.AddWord(v)
		return p.operand(oIDs)
	case OperandMemoryAccess:
		v, err := p.enum(EnumMemoryAccess)
		if err != nil {
			return err
		}
		b.AddWord(v)
		if v&MemoryAccessAligned != 0 {
			return p.single(oLit)
		}
	case OperandPairLiteralID:
		if err := p.single(oLit); err != nil {
			return err
		}
		return p.single(oID)
	case OperandPairIDID:
		if err := p.single(oID); err != nil {
			return err
		}
		return p.single(oID)
	case OperandPairIDLiteral:
		if err := p.single(oID); err != nil {
			return err
		}
		return p.single(oLit)
	case OperandSpecConstantOp:
		tok, err := p.next()
		if err != nil {
			return err
		}
		name := tok.text
		if !strings.HasPrefix(name, "Op") {
			name = "Op" + name
		}
		op, ok := LookupOpcode(name)
		if !ok {
			return errors.Errorf("line %d: unknown opcode %q", p.line, tok.text)
		}
		b.AddWord(uint32(op))
		for !p.done() {
			if strings.HasPrefix(p.toks[0].text, "%") {
				if err := p.single(oID); err != nil {
					return err
				}
				continue
			}
			if err := p.single(oLit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *operandParser) decorationExtras(d Decoration) error {
	switch d {
	case DecorationBuiltIn:
		return p.single(oEnum(EnumBuiltIn))
	case 40: // FPFastMathMode
		return p.single(oEnum(EnumFPFastMathMode))
	}
	for !p.done() {
		tok := p.toks[0]
		switch {
		case tok.kind == tokString:
			if err := p.single(oStr); err != nil {
				return err
			}
		case strings.HasPrefix(tok.text, "%"):
			if err := p.single(oID); err != nil {
				return err
			}
		default:
			if _, ok := parseLiteral(tok.text); ok {
				if err := p.single(oLit); err != nil {
					return err
				}
				continue
			}
			// LinkageAttributes ends with a linkage type spelled by name.
			switch tok.text {
			case "Export":
				p.builder.AddWord(0)
			case "Import":
				p.builder.AddWord(1)
			default:
				return errors.Errorf("line %d: invalid decoration operand %q", p.line, tok.text)
			}
			p.toks = p.toks[1:]
		}
	}
	return nil
}

// parseUint32 parses a decimal or 0x-prefixed hexadecimal number.
func parseUint32(s string) (uint32, bool) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// parseLiteral parses a 32-bit literal number; negative values are stored in
// two's complement.
func parseLiteral(s string) (uint32, bool) {
	if v, ok := parseUint32(s); ok {
		return v, true
	}
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, false
	}
	return uint32(int32(v)), true
}

// typedLiteral encodes an OpConstant value for a numeric type. Unknown types
// are treated as 32-bit integers.
func typedLiteral(s string, t numericType) ([]uint32, bool) {
	if t.float {
		bits := 32
		if t.width == 64 {
			bits = 64
		}
		f, err := strconv.ParseFloat(s, bits)
		if err != nil {
			return nil, false
		}
		if t.width == 64 {
			u := math.Float64bits(f)
			return []uint32{uint32(u), uint32(u >> 32)}, true
		}
		return []uint32{math.Float32bits(float32(f))}, true
	}
	if t.width == 64 {
		var u uint64
		if t.signed && strings.HasPrefix(s, "-") {
			v, err := strconv.ParseInt(s, 0, 64)
			if err != nil {
				return nil, false
			}
			u = uint64(v)
		} else {
			v, err := strconv.ParseUint(s, 0, 64)
			if err != nil {
				return nil, false
			}
			u = v
		}
		return []uint32{uint32(u), uint32(u >> 32)}, true
	}
	v, ok := parseLiteral(s)
	if !ok {
		return nil, false
	}
	return []uint32{v}, true
}

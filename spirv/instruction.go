package spirv

// Instruction represents a SPIR-V instruction.
//
// Type and Result hold the result type id and the result id when the opcode
// has them, and are zero otherwise. Operands holds the remaining words.
// Instructions whose opcode is outside the grammar keep all their words in
// Operands.
type Instruction struct {
	Opcode   OpCode
	Type     uint32
	Result   uint32
	Operands []uint32
}

// NewInstruction creates an instruction from its logical parts.
func NewInstruction(opcode OpCode, typeID, resultID uint32, operands ...uint32) *Instruction {
	return &Instruction{
		Opcode:   opcode,
		Type:     typeID,
		Result:   resultID,
		Operands: operands,
	}
}

// DecodeInstruction splits the words following the opcode word into the
// result type, result id and operands according to the grammar.
func DecodeInstruction(opcode OpCode, words []uint32) *Instruction {
	inst := &Instruction{Opcode: opcode}
	info, ok := grammar[opcode]
	if !ok {
		inst.Operands = append([]uint32(nil), words...)
		return inst
	}
	if info.HasType && len(words) > 0 {
		inst.Type = words[0]
		words = words[1:]
	}
	if info.HasResult && len(words) > 0 {
		inst.Result = words[0]
		words = words[1:]
	}
	inst.Operands = append([]uint32(nil), words...)
	return inst
}

// Known reports whether the opcode is described by the grammar.
func (inst *Instruction) Known() bool {
	_, ok := grammar[inst.Opcode]
	return ok
}

// Words returns the instruction words that follow the opcode word.
func (inst *Instruction) Words() []uint32 {
	words := make([]uint32, 0, len(inst.Operands)+2)
	if info, ok := grammar[inst.Opcode]; ok {
		if info.HasType {
			words = append(words, inst.Type)
		}
		if info.HasResult {
			words = append(words, inst.Result)
		}
	}
	return append(words, inst.Operands...)
}

// Encode encodes the instruction to binary.
func (inst *Instruction) Encode() []uint32 {
	words := inst.Words()
	wordCount := uint32(len(words) + 1) // +1 for opcode word
	encoded := make([]uint32, 0, wordCount)
	encoded = append(encoded, (wordCount<<16)|uint32(inst.Opcode))
	return append(encoded, words...)
}

// Clone returns a deep copy of the instruction.
func (inst *Instruction) Clone() *Instruction {
	c := *inst
	c.Operands = append([]uint32(nil), inst.Operands...)
	return &c
}

// ForEachInID calls fn with a pointer to every id operand, excluding the
// result type and result id. For opcodes outside the grammar every operand
// word is treated as a possible id.
func (inst *Instruction) ForEachInID(fn func(id *uint32)) {
	spans, ok := inst.Spans()
	if !ok {
		for i := range inst.Operands {
			fn(&inst.Operands[i])
		}
		return
	}
	for _, span := range spans {
		if span.Kind != OperandID {
			continue
		}
		for i := span.Start; i < span.End; i++ {
			fn(&inst.Operands[i])
		}
	}
}

// InIDs returns the id operands of the instruction.
func (inst *Instruction) InIDs() []uint32 {
	var out []uint32
	inst.ForEachInID(func(id *uint32) { out = append(out, *id) })
	return out
}

// UsesID reports whether id appears among the id operands.
func (inst *Instruction) UsesID(id uint32) bool {
	found := false
	inst.ForEachInID(func(p *uint32) {
		if *p == id {
			found = true
		}
	})
	return found
}

// ReplaceInID replaces every id operand equal to old with replacement and
// returns the number of replaced operands. Instructions outside the grammar
// are never modified.
func (inst *Instruction) ReplaceInID(old, replacement uint32) int {
	if !inst.Known() {
		return 0
	}
	n := 0
	inst.ForEachInID(func(p *uint32) {
		if *p == old {
			*p = replacement
			n++
		}
	})
	return n
}

// StringOperand decodes the null-terminated string that starts at operand
// index i and returns it with the number of words it occupies.
func (inst *Instruction) StringOperand(i int) (string, int) {
	if i >= len(inst.Operands) {
		return "", 0
	}
	return DecodeString(inst.Operands[i:])
}

// DecodeString decodes a null-terminated UTF-8 string packed little endian
// into words.
func DecodeString(words []uint32) (string, int) {
	n := stringWordCount(words)
	buf := make([]byte, 0, n*4)
	for _, w := range words[:n] {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				return string(buf), n
			}
			buf = append(buf, c)
		}
	}
	return string(buf), n
}

// EncodeString packs s into null-terminated, zero-padded words.
func EncodeString(s string) []uint32 {
	b := NewInstructionBuilder()
	b.AddString(s)
	return b.words
}

// EntryPointInterface returns the operand index at which the interface id list
// of an OpEntryPoint starts.
func (inst *Instruction) EntryPointInterface() int {
	_, n := inst.StringOperand(2)
	return 2 + n
}

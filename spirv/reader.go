package spirv

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// headerWords is the size of the module header.
const headerWords = 5

// ErrInvalidModule is the cause of every error returned by Parse.
var ErrInvalidModule = errors.New("invalid SPIR-V module")

// Parse decodes a SPIR-V binary. Both byte orders are accepted.
//
// Instructions are distributed over the sections of the logical layout by
// opcode until the first OpFunction; everything after it must belong to a
// function.
func Parse(data []byte) (*Module, error) {
	if len(data)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidModule, "size %d is not a multiple of 4", len(data))
	}
	if len(data) < headerWords*4 {
		return nil, errors.Wrapf(ErrInvalidModule, "file too small: %d bytes", len(data))
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch magic := binary.LittleEndian.Uint32(data); magic {
	case MagicNumber:
	case swap32(MagicNumber):
		order = binary.BigEndian
	default:
		return nil, errors.Wrapf(ErrInvalidModule, "invalid magic 0x%08X", magic)
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}

	m := &Module{
		Version:   wordToVersion(words[1]),
		Generator: words[2],
		Bound:     words[3],
		Schema:    words[4],
	}
	fb := functionBuilder{m: m}
	inFunctions := false

	for offset := headerWords; offset < len(words); {
		word := words[offset]
		opcode := OpCode(word & 0xFFFF)
		wordCount := int(word >> 16)
		if wordCount == 0 || offset+wordCount > len(words) {
			return nil, errors.Wrapf(ErrInvalidModule, "invalid word count %d at word %d", wordCount, offset)
		}
		inst := DecodeInstruction(opcode, words[offset+1:offset+wordCount])
		offset += wordCount

		if opcode == OpFunction {
			inFunctions = true
		}
		if !inFunctions {
			m.appendGlobal(inst)
			continue
		}
		if !fb.add(inst) {
			return nil, errors.Wrapf(ErrInvalidModule, "unexpected %s at word %d", opcode, offset-wordCount)
		}
	}
	if fb.open() {
		return nil, errors.Wrap(ErrInvalidModule, "missing OpFunctionEnd")
	}
	if m.Bound == 0 {
		return nil, errors.Wrap(ErrInvalidModule, "bound is zero")
	}
	return m, nil
}

func swap32(v uint32) uint32 {
	return v>>24 | (v>>8)&0xFF00 | (v<<8)&0xFF0000 | v<<24
}

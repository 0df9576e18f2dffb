package spirv

import (
	"slices"
	"testing"
)

func TestInstruction_ReplaceInID(t *testing.T) {
	tests := []struct {
		name string
		inst *Instruction
		old  uint32
		want []uint32
		n    int
	}{
		{
			name: "access chain base and index",
			inst: NewInstruction(OpAccessChain, 1, 2, 5, 5, 6),
			old:  5,
			want: []uint32{9, 9, 6},
			n:    2,
		},
		{
			name: "result type is not an operand",
			inst: NewInstruction(OpLoad, 5, 2, 7),
			old:  5,
			want: []uint32{7},
			n:    0,
		},
		{
			name: "decoration literals are kept",
			inst: NewInstruction(OpDecorate, 0, 0, 5, uint32(DecorationBinding), 5),
			old:  5,
			want: []uint32{9, uint32(DecorationBinding), 5},
			n:    1,
		},
		{
			name: "unknown opcode is left alone",
			inst: NewInstruction(OpCode(4999), 0, 0, 5, 5),
			old:  5,
			want: []uint32{5, 5},
			n:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if n := tt.inst.ReplaceInID(tt.old, 9); n != tt.n {
				t.Errorf("Replaced %d operands, want %d", n, tt.n)
			}
			if !slices.Equal(tt.inst.Operands, tt.want) {
				t.Errorf("Operands = %v, want %v", tt.inst.Operands, tt.want)
			}
		})
	}
}

func TestInstruction_EntryPointInterface(t *testing.T) {
	for _, name := range []string{"", "abc", "main", "fragment_main"} {
		operands := []uint32{uint32(ExecutionModelFragment), 3}
		operands = append(operands, EncodeString(name)...)
		operands = append(operands, 10, 11)
		inst := NewInstruction(OpEntryPoint, 0, 0, operands...)

		got := inst.Operands[inst.EntryPointInterface():]
		if !slices.Equal(got, []uint32{10, 11}) {
			t.Errorf("%q: interface = %v, want [10 11]", name, got)
		}
		if s, _ := inst.StringOperand(2); s != name {
			t.Errorf("Name = %q, want %q", s, name)
		}
		if ids := inst.InIDs(); !slices.Equal(ids, []uint32{3, 10, 11}) {
			t.Errorf("%q: in ids = %v", name, ids)
		}
	}
}

func TestInstruction_Clone(t *testing.T) {
	inst := NewInstruction(OpAccessChain, 1, 2, 3, 4)
	c := inst.Clone()
	c.Operands[0] = 7
	if inst.Operands[0] != 3 {
		t.Error("Clone shares operands with the original")
	}
}

func TestDecodeInstruction(t *testing.T) {
	inst := DecodeInstruction(OpVariable, []uint32{1, 2, uint32(StorageClassUniform)})
	if inst.Type != 1 || inst.Result != 2 || !slices.Equal(inst.Operands, []uint32{uint32(StorageClassUniform)}) {
		t.Errorf("Decoded %+v", inst)
	}
	if !slices.Equal(inst.Encode(), []uint32{4<<16 | uint32(OpVariable), 1, 2, uint32(StorageClassUniform)}) {
		t.Errorf("Encode = %v", inst.Encode())
	}

	unknown := DecodeInstruction(OpCode(4999), []uint32{1, 2})
	if unknown.Known() || unknown.Result != 0 || len(unknown.Operands) != 2 {
		t.Errorf("Unknown opcode decoded as %+v", unknown)
	}
}

func TestModule_Sweep(t *testing.T) {
	m, ids, err := AssembleWithNames(resourceShader)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	dead := make(map[*Instruction]bool)
	m.ForEach(func(inst *Instruction) {
		if inst.UsesID(ids["tex"]) || inst.Result == ids["tex"] {
			dead[inst] = true
		}
	})
	m.Sweep(dead)

	m.ForEach(func(inst *Instruction) {
		if dead[inst] {
			t.Errorf("%s survived the sweep", inst.Opcode)
		}
	})
	f := m.Functions[0]
	if f.Def == nil || len(f.Blocks) != 1 || f.Blocks[0].Label == nil {
		t.Error("Function structure was swept")
	}
}

func TestModule_AllocID(t *testing.T) {
	m := &Module{Bound: 10}
	if id := m.AllocID(); id != 10 || m.Bound != 11 {
		t.Errorf("AllocID = %d with bound %d", id, m.Bound)
	}
	empty := &Module{}
	if id := empty.AllocID(); id != 1 {
		t.Errorf("AllocID on an empty module = %d, want 1", id)
	}
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descsroa

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/gogpu/spvopt/analysis"
	"github.com/gogpu/spvopt/spirv"
)

const planTypes = `
               OpCapability Shader
               OpMemoryModel Logical GLSL450
               OpMemberName %S 0 "t"
               OpMemberName %S 1 "s"
               OpDecorate %block Block
               OpDecorate %n SpecId 0
       %uint = OpTypeInt 32 0
     %uint_0 = OpConstant %uint 0
     %uint_2 = OpConstant %uint 2
     %uint_3 = OpConstant %uint 3
          %n = OpSpecConstant %uint 2
      %float = OpTypeFloat 32
      %image = OpTypeImage %float 2D 0 0 0 1 Unknown
    %sampler = OpTypeSampler
    %sampled = OpTypeSampledImage %image
      %accel = OpTypeAccelerationStructureKHR
  %image_arr = OpTypeArray %image %uint_2
          %S = OpTypeStruct %image_arr %sampler
      %S_arr = OpTypeArray %S %uint_3
    %S_arr_2 = OpTypeArray %S_arr %uint_2
  %anonymous = OpTypeStruct %sampler %image
      %block = OpTypeStruct %float
         %rt = OpTypeRuntimeArray %float
   %trailing = OpTypeStruct %float %rt
   %spec_arr = OpTypeArray %sampler %n
  %empty_arr = OpTypeArray %sampler %uint_0
     %rt_smp = OpTypeRuntimeArray %sampler
`

func TestClassify(t *testing.T) {
	s := assemble(t, planTypes)
	idx := analysis.Build(s.m)

	tests := []struct {
		name   string
		typ    string
		want   Kind
		length uint32
		sized  bool
	}{
		{name: "image", typ: "image", want: KindResource},
		{name: "sampler", typ: "sampler", want: KindResource},
		{name: "sampled image", typ: "sampled", want: KindResource},
		{name: "acceleration structure", typ: "accel", want: KindResource},
		{name: "float", typ: "float", want: KindOther},
		{name: "sized array", typ: "image_arr", want: KindArray, length: 2, sized: true},
		{name: "spec constant length", typ: "spec_arr", want: KindArray},
		{name: "zero length", typ: "empty_arr", want: KindArray, sized: true},
		{name: "runtime array", typ: "rt_smp", want: KindRuntimeArray},
		{name: "struct", typ: "S", want: KindStruct},
		{name: "block", typ: "block", want: KindAtomic},
		{name: "trailing runtime array", typ: "trailing", want: KindAtomic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(idx, s.id(t, tt.typ))
			if got.Kind != tt.want {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.want)
			}
			if got.Length != tt.length || got.Sized != tt.sized {
				t.Errorf("Length, Sized = %d, %v; want %d, %v", got.Length, got.Sized, tt.length, tt.sized)
			}
		})
	}

	if got := Classify(idx, 9999); got.Kind != KindOther {
		t.Errorf("Classify of an unknown id = %v, want %v", got.Kind, KindOther)
	}
}

func planSuffixes(p *Plan) []string {
	out := make([]string, len(p.Leaves))
	for i, leaf := range p.Leaves {
		out[i] = leaf.Suffix
	}
	return out
}

func TestPlanner_Plan(t *testing.T) {
	s := assemble(t, planTypes)
	idx := analysis.Build(s.m)

	tests := []struct {
		name string
		root string
		opts Options
		want []string
	}{
		{
			name: "struct",
			root: "S",
			opts: DefaultOptions(),
			want: []string{".t[0]", ".t[1]", ".s"},
		},
		{
			name: "struct without arrays",
			root: "S",
			opts: Options{DecomposeStructs: true},
			want: []string{".t", ".s"},
		},
		{
			name: "array of structs without structs",
			root: "S_arr",
			opts: Options{DecomposeArrays: true},
			want: []string{"[0]", "[1]", "[2]"},
		},
		{
			name: "array of structs without arrays",
			root: "S_arr",
			opts: Options{DecomposeStructs: true},
			want: []string{""},
		},
		{
			name: "unnamed members",
			root: "anonymous",
			opts: DefaultOptions(),
			want: []string{".member_0", ".member_1"},
		},
		{
			name: "block",
			root: "block",
			opts: DefaultOptions(),
			want: []string{""},
		},
		{
			name: "spec constant length",
			root: "spec_arr",
			opts: DefaultOptions(),
			want: []string{""},
		},
		{
			name: "zero length",
			root: "empty_arr",
			opts: DefaultOptions(),
			want: []string{""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlanner(idx, tt.opts).Plan(s.id(t, tt.root))
			if diff := cmp.Diff(tt.want, planSuffixes(p)); diff != "" {
				t.Errorf("Leaves mismatch (-want +got):\n%s", diff)
			}
			for i, leaf := range p.Leaves {
				if leaf.Offset != uint32(i) {
					t.Errorf("Leaf %d offset = %d", i, leaf.Offset)
				}
			}
		})
	}
}

func TestPlanner_NestedArrays(t *testing.T) {
	s := assemble(t, planTypes)
	idx := analysis.Build(s.m)
	p := NewPlanner(idx, DefaultOptions()).Plan(s.id(t, "S_arr_2"))

	if len(p.Leaves) != 18 {
		t.Fatalf("Got %d leaves, want 18", len(p.Leaves))
	}
	leaf := p.Leaves[7]
	want := Leaf{
		Path:   []uint32{0, 2, 0, 1},
		Type:   s.id(t, "image"),
		Offset: 7,
		Suffix: "[0][2].t[1]",
		Cuts:   []Cut{{Struct: s.id(t, "S"), Member: 0}},
	}
	if diff := cmp.Diff(want, leaf); diff != "" {
		t.Errorf("Leaf 7 mismatch (-want +got):\n%s", diff)
	}
	if p.Trivial() {
		t.Error("Plan is trivial")
	}
}

func TestPlan_Locate(t *testing.T) {
	s := assemble(t, planTypes)
	idx := analysis.Build(s.m)
	p := NewPlanner(idx, DefaultOptions()).Plan(s.id(t, "S_arr"))

	tests := []struct {
		name  string
		path  []uint32
		pos   Position
		leaf  int
		trail []uint32
	}{
		{"root", nil, PositionInterior, -1, nil},
		{"element", []uint32{1}, PositionInterior, -1, nil},
		{"member array", []uint32{1, 0}, PositionInterior, -1, nil},
		{"image", []uint32{1, 0, 1}, PositionLeaf, 4, nil},
		{"sampler", []uint32{2, 1}, PositionLeaf, 8, nil},
		{"past a leaf", []uint32{2, 1, 5, 6}, PositionBeyond, 8, []uint32{5, 6}},
		{"element out of bounds", []uint32{3}, PositionInvalid, -1, nil},
		{"member out of bounds", []uint32{0, 2}, PositionInvalid, -1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, leaf, trail := p.Locate(tt.path)
			if pos != tt.pos || leaf != tt.leaf {
				t.Errorf("Locate = %v, %d; want %v, %d", pos, leaf, tt.pos, tt.leaf)
			}
			if diff := cmp.Diff(tt.trail, trail, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Trail mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPlanner_StopAt(t *testing.T) {
	s := assemble(t, planTypes)
	idx := analysis.Build(s.m)
	root := s.id(t, "S_arr")

	tests := []struct {
		name string
		stop []uint32
		want []string
	}{
		{
			name: "member array of one element",
			stop: []uint32{1, 0},
			want: []string{"[0].t", "[0].s", "[1].t", "[1].s", "[2].t", "[2].s"},
		},
		{
			name: "root",
			stop: nil,
			want: []string{""},
		},
		{
			name: "element",
			stop: []uint32{0},
			want: []string{"[0]", "[1]", "[2]"},
		},
		{
			name: "path outside the type",
			stop: []uint32{0, 1, 4},
			want: []string{
				"[0].t[0]", "[0].t[1]", "[0].s",
				"[1].t[0]", "[1].t[1]", "[1].s",
				"[2].t[0]", "[2].t[1]", "[2].s",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl := NewPlanner(idx, DefaultOptions())
			pl.StopAt(root, tt.stop)
			if diff := cmp.Diff(tt.want, planSuffixes(pl.Plan(root))); diff != "" {
				t.Errorf("Leaves mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassify_TruncatedArray(t *testing.T) {
	s := assemble(t, `
               OpCapability Shader
               OpMemoryModel Logical GLSL450
               OpEntryPoint Fragment %main "main"
               OpExecutionMode %main OriginUpperLeft
    %sampler = OpTypeSampler
       %void = OpTypeVoid
     %fnvoid = OpTypeFunction %void
       %main = OpFunction %void None %fnvoid
      %entry = OpLabel
               OpReturn
               OpFunctionEnd
`)
	short := s.m.AllocID()
	noElement := s.m.AllocID()
	ptr := s.m.AllocID()
	v := s.m.AllocID()
	s.m.Globals = append(s.m.Globals,
		spirv.NewInstruction(spirv.OpTypeArray, 0, short, s.id(t, "sampler")),
		spirv.NewInstruction(spirv.OpTypeRuntimeArray, 0, noElement),
		spirv.NewInstruction(spirv.OpTypePointer, 0, ptr, uint32(spirv.StorageClassUniformConstant), short),
		spirv.NewInstruction(spirv.OpVariable, ptr, v, uint32(spirv.StorageClassUniformConstant)),
	)
	s.m.Annotations = append(s.m.Annotations,
		spirv.NewInstruction(spirv.OpDecorate, 0, 0, v, uint32(spirv.DecorationBinding), 0))
	idx := analysis.Build(s.m)

	for _, id := range []uint32{short, noElement} {
		if got := Classify(idx, id); got.Kind != KindOther {
			t.Errorf("Classify(%%%d) = %v, want %v", id, got.Kind, KindOther)
		}
	}

	pl := NewPlanner(idx, DefaultOptions())
	pl.StopAt(short, []uint32{1})
	if p := pl.Plan(short); !p.Trivial() {
		t.Errorf("Plan of a truncated array has leaves %v", planSuffixes(p))
	}

	before := s.m.Encode()
	res := s.process(t, DefaultOptions())
	if res.Changed() || len(res.Skipped) != 0 {
		t.Errorf("Result = %+v, want the variable left alone", res)
	}
	requireUnchanged(t, before, s.m)
}

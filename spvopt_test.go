package spvopt

import (
	"strings"
	"testing"

	"github.com/gogpu/spvopt/analysis"
	"github.com/gogpu/spvopt/dce"
	"github.com/gogpu/spvopt/descsroa"
	"github.com/gogpu/spvopt/opt"
	"github.com/gogpu/spvopt/spirv"
)

const samplerArrayShader = `
               OpCapability Shader
               OpMemoryModel Logical GLSL450
               OpEntryPoint Fragment %main "main"
               OpExecutionMode %main OriginUpperLeft
               OpName %samplers "samplers"
               OpDecorate %samplers DescriptorSet 2
               OpDecorate %samplers Binding 5
        %int = OpTypeInt 32 1
      %int_0 = OpConstant %int 0
      %int_1 = OpConstant %int 1
       %uint = OpTypeInt 32 0
     %uint_2 = OpConstant %uint 2
    %sampler = OpTypeSampler
    %smp_arr = OpTypeArray %sampler %uint_2
    %ptr_arr = OpTypePointer UniformConstant %smp_arr
    %ptr_smp = OpTypePointer UniformConstant %sampler
       %void = OpTypeVoid
     %fnvoid = OpTypeFunction %void
   %samplers = OpVariable %ptr_arr UniformConstant
       %main = OpFunction %void None %fnvoid
      %entry = OpLabel
         %a0 = OpAccessChain %ptr_smp %samplers %int_0
         %l0 = OpLoad %sampler %a0
         %a1 = OpAccessChain %ptr_smp %samplers %int_1
         %l1 = OpLoad %sampler %a1
               OpReturn
               OpFunctionEnd
`

func encode(t *testing.T, text string) ([]byte, map[string]uint32) {
	t.Helper()
	m, ids, err := spirv.AssembleWithNames(text)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return m.Encode(), ids
}

func TestOptimize(t *testing.T) {
	tests := []struct {
		name         string
		dce          bool
		wantOriginal bool
	}{
		{"without dead code elimination", false, true},
		{"with dead code elimination", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ids := encode(t, samplerArrayShader)
			opts := DefaultOptions()
			opts.EliminateDeadCode = tt.dce

			out, err := Optimize(data, opts)
			if err != nil {
				t.Fatalf("Optimize failed: %v", err)
			}
			m, err := spirv.Parse(out)
			if err != nil {
				t.Fatalf("Output does not parse: %v", err)
			}

			idx := analysis.Build(m)
			if got := idx.Def(ids["samplers"]) != nil; got != tt.wantOriginal {
				t.Errorf("Original variable present = %v, want %v", got, tt.wantOriginal)
			}
			text := spirv.Disassemble(m)
			for _, want := range []string{
				`OpName %samplers_0_ "samplers[0]"`,
				`OpName %samplers_1_ "samplers[1]"`,
				"OpDecorate %samplers_0_ Binding 5",
				"OpDecorate %samplers_1_ Binding 6",
				"OpDecorate %samplers_1_ DescriptorSet 2",
			} {
				if !strings.Contains(collapse(text), want) {
					t.Errorf("Output has no %q:\n%s", want, text)
				}
			}
			if got := idx.Def(ids["a0"]) != nil; got != !tt.dce {
				t.Errorf("Access chain present = %v, want %v", got, !tt.dce)
			}
		})
	}
}

func collapse(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

func TestOptimize_InvalidBinary(t *testing.T) {
	_, err := Optimize([]byte{1, 2, 3}, DefaultOptions())
	if err == nil {
		t.Fatal("Optimize accepted a truncated binary")
	}
	if !strings.Contains(err.Error(), "parse error") {
		t.Errorf("Error = %v, want a parse error", err)
	}
}

func TestOptimizeModule_Report(t *testing.T) {
	m, ids, err := spirv.AssembleWithNames(samplerArrayShader)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	opts := DefaultOptions()
	opts.EliminateDeadCode = true

	report, err := OptimizeModule(m, opts)
	if err != nil {
		t.Fatalf("OptimizeModule failed: %v", err)
	}
	if report.Status != opt.SuccessWithChange {
		t.Errorf("Status = %v, want %v", report.Status, opt.SuccessWithChange)
	}
	if report.Replacements == nil || len(report.Replacements.Replaced) != 1 {
		t.Fatalf("Replacements = %+v, want one", report.Replacements)
	}
	if got := report.Replacements.Replaced[0].Variable; got != ids["samplers"] {
		t.Errorf("Replaced %%%d, want %%samplers", got)
	}
	if report.DeadCode.Variables != 1 {
		t.Errorf("Dead code removed %d variables, want 1", report.DeadCode.Variables)
	}
}

func TestPasses(t *testing.T) {
	passes := Passes(Options{DecomposeArrays: true, EliminateDeadCode: true})
	if len(passes) != 2 {
		t.Fatalf("Got %d passes, want 2", len(passes))
	}
	sroa, ok := passes[0].(*descsroa.Pass)
	if !ok {
		t.Fatalf("First pass is %T", passes[0])
	}
	if got := sroa.Options(); got.DecomposeStructs || !got.DecomposeArrays {
		t.Errorf("Options = %+v", got)
	}
	if passes[1].Name() != dce.PassName {
		t.Errorf("Second pass = %s, want %s", passes[1].Name(), dce.PassName)
	}
	if n := len(Passes(DefaultOptions())); n != 1 {
		t.Errorf("Default pipeline has %d passes, want 1", n)
	}
}

package spvopt

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/gogpu/spvopt/spirv"
)

// ---------------------------------------------------------------------------
// Test shaders: arrays of structs of descriptors at different sizes
// ---------------------------------------------------------------------------

// materialShader returns a fragment shader with an array of n materials,
// each a texture and a sampler, and one constant-index access per member.
func materialShader(n int) string {
	var sb strings.Builder
	sb.WriteString(`
               OpCapability Shader
               OpMemoryModel Logical GLSL450
               OpEntryPoint Fragment %main "main"
               OpExecutionMode %main OriginUpperLeft
               OpName %materials "materials"
               OpMemberName %Material 0 "albedo"
               OpMemberName %Material 1 "smp"
               OpDecorate %materials DescriptorSet 1
               OpDecorate %materials Binding 0
        %int = OpTypeInt 32 1
       %uint = OpTypeInt 32 0
      %float = OpTypeFloat 32
      %image = OpTypeImage %float 2D 0 0 0 1 Unknown
    %sampler = OpTypeSampler
   %Material = OpTypeStruct %image %sampler
`)
	fmt.Fprintf(&sb, "%%uint_n = OpConstant %%uint %d\n", n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%%int_%d = OpConstant %%int %d\n", i, i)
	}
	if n < 2 {
		sb.WriteString("%int_1 = OpConstant %int 1\n")
	}
	sb.WriteString(`
        %arr = OpTypeArray %Material %uint_n
    %ptr_arr = OpTypePointer UniformConstant %arr
    %ptr_img = OpTypePointer UniformConstant %image
    %ptr_smp = OpTypePointer UniformConstant %sampler
  %materials = OpVariable %ptr_arr UniformConstant
       %void = OpTypeVoid
     %fnvoid = OpTypeFunction %void
       %main = OpFunction %void None %fnvoid
      %entry = OpLabel
`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%%t%d = OpAccessChain %%ptr_img %%materials %%int_%d %%int_0\n", i, i)
		fmt.Fprintf(&sb, "%%lt%d = OpLoad %%image %%t%d\n", i, i)
		fmt.Fprintf(&sb, "%%s%d = OpAccessChain %%ptr_smp %%materials %%int_%d %%int_1\n", i, i)
		fmt.Fprintf(&sb, "%%ls%d = OpLoad %%sampler %%s%d\n", i, i)
	}
	sb.WriteString("OpReturn\nOpFunctionEnd\n")
	return sb.String()
}

var shadersBySize = []struct {
	name string
	n    int
}{
	{"small", 2},
	{"medium", 32},
	{"large", 512},
}

// ---------------------------------------------------------------------------
// End-to-End: binary in, binary out
// ---------------------------------------------------------------------------

// BenchmarkOptimize benchmarks descriptor scalar replacement on binaries of
// growing size. Reports allocations and throughput in bytes/sec.
func BenchmarkOptimize(b *testing.B) {
	for _, sc := range shadersBySize {
		b.Run(sc.name, func(b *testing.B) {
			m, err := spirv.Assemble(materialShader(sc.n))
			if err != nil {
				b.Fatalf("assemble failed: %v", err)
			}
			data := m.Encode()
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			b.ResetTimer()

			var result []byte
			for i := 0; i < b.N; i++ {
				result, err = Optimize(data, DefaultOptions())
				if err != nil {
					b.Fatalf("optimize failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkOptimizeWithDCE benchmarks the pipeline including dead code
// elimination, measuring the cost of the cleanup rounds.
func BenchmarkOptimizeWithDCE(b *testing.B) {
	opts := DefaultOptions()
	opts.EliminateDeadCode = true
	for _, sc := range shadersBySize {
		b.Run(sc.name, func(b *testing.B) {
			m, err := spirv.Assemble(materialShader(sc.n))
			if err != nil {
				b.Fatalf("assemble failed: %v", err)
			}
			data := m.Encode()
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			b.ResetTimer()

			var result []byte
			for i := 0; i < b.N; i++ {
				result, err = Optimize(data, opts)
				if err != nil {
					b.Fatalf("optimize failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// Package spvopt rewrites SPIR-V modules so that every bound descriptor has a
// variable of its own.
//
// Shaders often declare arrays or structs of images, samplers and buffers
// behind a single binding. spvopt splits those variables into one variable
// per descriptor with consecutive bindings, redirects every access to the new
// variables, and optionally removes the code left dead by the split.
//
// Example usage:
//
//	data, _ := os.ReadFile("shader.spv")
//	out, err := spvopt.Optimize(data, spvopt.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For finer control, parse the module with the spirv package and run passes
// from the descsroa and dce packages through an opt.Manager.
package spvopt

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/gogpu/spvopt/dce"
	"github.com/gogpu/spvopt/descsroa"
	"github.com/gogpu/spvopt/opt"
	"github.com/gogpu/spvopt/spirv"
)

// Options configures Optimize.
type Options struct {
	// DecomposeStructs splits structs of descriptors.
	DecomposeStructs bool

	// DecomposeArrays splits fixed-size arrays of descriptors.
	DecomposeArrays bool

	// EliminateDeadCode removes the replaced variables and the loads and
	// access chains nothing reads any more.
	EliminateDeadCode bool

	// Logger receives pass diagnostics. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions splits structs and arrays and keeps dead code.
func DefaultOptions() Options {
	return Options{
		DecomposeStructs: true,
		DecomposeArrays:  true,
	}
}

// Report describes what OptimizeModule did.
type Report struct {
	Status       opt.Status
	Replacements *descsroa.Result
	DeadCode     dce.Stats
}

// Passes returns the passes Optimize runs for opts, in order.
func Passes(opts Options) []opt.Pass {
	passes := []opt.Pass{descsroa.New(descsroa.Options{
		DecomposeStructs: opts.DecomposeStructs,
		DecomposeArrays:  opts.DecomposeArrays,
	})}
	if opts.EliminateDeadCode {
		passes = append(passes, dce.New())
	}
	return passes
}

// Optimize parses a SPIR-V binary, runs the passes selected by opts and
// returns the encoded result.
func Optimize(binary []byte, opts Options) ([]byte, error) {
	m, err := spirv.Parse(binary)
	if err != nil {
		return nil, errors.Wrap(err, "parse error")
	}
	if _, err := OptimizeModule(m, opts); err != nil {
		return nil, err
	}
	return m.Encode(), nil
}

// OptimizeModule runs the passes selected by opts on m in place. On error m
// must be discarded.
func OptimizeModule(m *spirv.Module, opts Options) (*Report, error) {
	passes := Passes(opts)
	mgr := opt.NewManager(opts.Logger)
	mgr.Add(passes...)

	status, err := mgr.Run(m)
	if err != nil {
		return nil, errors.Wrap(err, "optimization error")
	}

	report := &Report{Status: status}
	for _, p := range passes {
		switch p := p.(type) {
		case *descsroa.Pass:
			report.Replacements = p.LastResult()
		case *dce.Pass:
			report.DeadCode = p.LastStats()
		}
	}
	return report, nil
}

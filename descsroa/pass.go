// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descsroa

import (
	"io"
	"log/slog"

	"github.com/gogpu/spvopt/analysis"
	"github.com/gogpu/spvopt/opt"
	"github.com/gogpu/spvopt/spirv"
)

// PassName identifies the pass in logs and pipeline files.
const PassName = "descriptor_scalar_replacement"

// Options configures descriptor scalar replacement.
type Options struct {
	// DecomposeStructs splits structs of descriptors into their members.
	DecomposeStructs bool

	// DecomposeArrays splits fixed-size arrays of descriptors into their
	// elements.
	DecomposeArrays bool
}

// DefaultOptions returns options that decompose both structs and arrays.
func DefaultOptions() Options {
	return Options{
		DecomposeStructs: true,
		DecomposeArrays:  true,
	}
}

// LeafVariable describes one variable created for a leaf.
type LeafVariable struct {
	ID      uint32
	Name    string
	Set     uint32
	HasSet  bool
	Binding uint32
	// Path is the index path of the leaf inside the replaced variable.
	Path []uint32
}

// Replacement describes a variable that was split.
type Replacement struct {
	Variable uint32
	Name     string
	Leaves   []LeafVariable
	// Rewrites counts the instructions redirected to the leaves.
	Rewrites int
}

// Skip describes a candidate variable that was left untouched.
type Skip struct {
	Variable uint32
	Name     string
	Err      *Error
}

// Result reports what a run did.
type Result struct {
	Replaced []Replacement
	Skipped  []Skip
}

// Changed reports whether any variable was replaced.
func (r *Result) Changed() bool {
	return len(r.Replaced) > 0
}

// Pass is the descriptor scalar replacement pass.
type Pass struct {
	opts Options
	last *Result
}

// New creates a pass with opts.
func New(opts Options) *Pass {
	return &Pass{opts: opts}
}

// Name implements opt.Pass.
func (p *Pass) Name() string {
	return PassName
}

// Options returns the options the pass was created with.
func (p *Pass) Options() Options {
	return p.opts
}

// LastResult returns the result of the most recent Run, or nil.
func (p *Pass) LastResult() *Result {
	return p.last
}

// Run implements opt.Pass. Replaced variables are marked removable in ctx.
func (p *Pass) Run(ctx *opt.Context) (opt.Status, error) {
	res, err := Process(ctx.Module, p.opts, ctx.Logger)
	p.last = res
	if err != nil {
		return opt.Failure, err
	}
	for _, r := range res.Replaced {
		ctx.MarkRemovable(r.Variable)
	}
	if res.Changed() {
		return opt.SuccessWithChange, nil
	}
	return opt.SuccessWithoutChange, nil
}

// Process replaces every decomposable descriptor variable of m. Variables
// with unsupported shapes or uses are logged, reported in Result.Skipped and
// left untouched. An ErrInternal error means m is partially rewritten and
// must be discarded.
func Process(m *spirv.Module, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	res := &Result{}
	if !opts.DecomposeStructs && !opts.DecomposeArrays {
		return res, nil
	}

	types := analysis.NewTypeRegistry(m)
	for _, v := range candidates(analysis.Build(m)) {
		idx := analysis.Build(m)
		name, _ := idx.Name(v.Result)
		log := logger.With("variable", v.Result, "name", name)

		rep, err := replace(m, idx, types, v, opts)
		if err != nil {
			if err.IsInternal() {
				log.Error("Descriptor replacement failed", "error", err)
				return res, err
			}
			log.Warn("Skipping descriptor variable", "reason", err.Kind.String(), "error", err.Message)
			res.Skipped = append(res.Skipped, Skip{Variable: v.Result, Name: name, Err: err})
			continue
		}
		if rep == nil {
			continue
		}
		rep.Name = name
		for _, leaf := range rep.Leaves {
			log.Debug("Created leaf variable", "id", leaf.ID, "leaf", leaf.Name, "binding", leaf.Binding)
		}
		log.Info("Replaced descriptor variable", "leaves", len(rep.Leaves), "rewrites", rep.Rewrites)
		res.Replaced = append(res.Replaced, *rep)
	}
	return res, nil
}

// candidates returns the global variables in descriptor storage classes that
// carry a Binding decoration, in declaration order.
func candidates(idx *analysis.Index) []*spirv.Instruction {
	var out []*spirv.Instruction
	for _, inst := range idx.Module().Globals {
		if inst.Opcode != spirv.OpVariable {
			continue
		}
		sc, _, ok := idx.Pointer(inst.Type)
		if !ok || !sc.IsDescriptorStorage() {
			continue
		}
		if _, ok := idx.DecorationLiteral(inst.Result, spirv.DecorationBinding); !ok {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// replace splits one variable. It returns nil when the plan keeps the
// variable whole.
func replace(m *spirv.Module, idx *analysis.Index, types *analysis.TypeRegistry, v *spirv.Instruction, opts Options) (*Replacement, *Error) {
	_, pointee, _ := idx.Pointer(v.Type)
	planner := NewPlanner(idx, opts)
	scanDynamic(idx, v.Result, pointee, planner)
	plan := planner.Plan(pointee)
	if plan.Trivial() {
		return nil, nil
	}

	r := newResolver(idx, plan, v.Result)
	if err := r.resolve(); err != nil {
		return nil, err
	}

	mt := &materializer{module: m, idx: idx, types: types}
	leaves, err := mt.materialize(v, plan)
	if err != nil {
		return nil, err
	}

	rw := &rewriter{module: m, idx: idx, variable: v.Result, leaves: leaves, plan: plan}
	if err := rw.apply(r.edits); err != nil {
		return nil, err
	}
	updateEntryPoints(r.entryPoints, v.Result, leaves)
	return &Replacement{Variable: v.Result, Leaves: leaves, Rewrites: rw.count}, nil
}

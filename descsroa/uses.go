// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descsroa

import (
	"slices"

	"golang.org/x/exp/maps"

	"github.com/gogpu/spvopt/analysis"
	"github.com/gogpu/spvopt/spirv"
)

// partialKind tells whether a tracked id is a pointer into the variable or a
// value loaded from it.
type partialKind uint8

const (
	partialAddress partialKind = iota
	partialValue
)

// partial is a tracked id that still denotes an interior node of the plan.
type partial struct {
	kind partialKind
	path []uint32
}

func (p partial) equal(o partial) bool {
	return p.kind == o.kind && slices.Equal(p.path, o.path)
}

// editKind selects how an instruction is rewritten once the leaf variables
// exist.
type editKind uint8

const (
	// editForward redirects the users of an access chain that lands exactly
	// on a leaf to the leaf variable.
	editForward editKind = iota
	// editRebase replaces an access chain that continues past a leaf with a
	// new chain rooted at the leaf.
	editRebase
	// editLoad replaces an extraction that lands exactly on a leaf with a
	// fresh load of the leaf variable.
	editLoad
	// editLoadExtract points an extraction that continues past a leaf at a
	// fresh load of the leaf variable.
	editLoadExtract
)

type edit struct {
	kind  editKind
	inst  *spirv.Instruction
	leaf  int
	trail []uint32
}

// literalPrefix returns the leading indices that are integer constants and
// reports whether every index was one.
func literalPrefix(idx *analysis.Index, indices []uint32) ([]uint32, bool) {
	out := make([]uint32, 0, len(indices))
	for _, id := range indices {
		v, ok := idx.ConstantUint(id)
		if !ok || v > 1<<32-1 {
			return out, false
		}
		out = append(out, uint32(v))
	}
	return out, true
}

func isAccessChain(op spirv.OpCode) bool {
	return op == spirv.OpAccessChain || op == spirv.OpInBoundsAccessChain
}

// scanDynamic stops the planner at every position that an access chain
// rooted at variable indexes with a non-constant id. It follows pointers
// through access chains and function parameters.
func scanDynamic(idx *analysis.Index, variable, pointee uint32, pl *Planner) {
	type item struct {
		id   uint32
		path []uint32
	}
	seen := map[uint32]bool{variable: true}
	queue := []item{{id: variable}}
	push := func(id uint32, path []uint32) {
		if !seen[id] {
			seen[id] = true
			queue = append(queue, item{id, path})
		}
	}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		for _, user := range idx.Users(it.id) {
			switch {
			case isAccessChain(user.Opcode) && len(user.Operands) > 0 && user.Operands[0] == it.id:
				literals, all := literalPrefix(idx, user.Operands[1:])
				path := append(slices.Clip(it.path), literals...)
				if !all {
					pl.StopAt(pointee, path)
					continue
				}
				push(user.Result, path)
			case user.Opcode == spirv.OpFunctionCall && len(user.Operands) > 0:
				params := idx.Params(user.Operands[0])
				for i, arg := range user.Operands[1:] {
					if arg == it.id && i < len(params) {
						push(params[i].Result, it.path)
					}
				}
			}
		}
	}
}

// resolver walks the uses of one variable and decides how each one is
// rewritten. It never changes the module, so a variable it rejects is left
// exactly as it was.
type resolver struct {
	idx      *analysis.Index
	plan     *Plan
	variable uint32

	partials    map[uint32]partial
	params      map[uint32]partial
	queue       []uint32
	edits       []edit
	entryPoints []*spirv.Instruction
}

func newResolver(idx *analysis.Index, plan *Plan, variable uint32) *resolver {
	return &resolver{
		idx:      idx,
		plan:     plan,
		variable: variable,
		partials: make(map[uint32]partial),
		params:   make(map[uint32]partial),
	}
}

func (r *resolver) track(id uint32, p partial) {
	r.partials[id] = p
	r.queue = append(r.queue, id)
}

func (r *resolver) resolve() *Error {
	r.track(r.variable, partial{kind: partialAddress})
	for len(r.queue) > 0 {
		id := r.queue[0]
		r.queue = r.queue[1:]
		for _, user := range r.idx.Users(id) {
			if err := r.visit(id, r.partials[id], user); err != nil {
				return err
			}
		}
	}
	return r.checkCallSites()
}

func (r *resolver) visit(id uint32, p partial, user *spirv.Instruction) *Error {
	ops := user.Operands
	if len(ops) == 0 {
		return r.unsupported(user)
	}
	switch user.Opcode {
	case spirv.OpName, spirv.OpDecorate, spirv.OpDecorateID, spirv.OpDecorateString,
		spirv.OpGroupDecorate:
		return nil

	case spirv.OpEntryPoint:
		if id != r.variable {
			return r.unsupported(user)
		}
		r.entryPoints = append(r.entryPoints, user)
		return nil

	case spirv.OpAccessChain, spirv.OpInBoundsAccessChain:
		if p.kind != partialAddress || ops[0] != id || slices.Contains(ops[1:], id) {
			return r.unsupported(user)
		}
		indices := ops[1:]
		literals, all := literalPrefix(r.idx, indices)
		path := append(slices.Clip(p.path), literals...)
		pos, leaf, _ := r.plan.Locate(path)
		switch pos {
		case PositionInterior:
			if !all {
				return newError(ErrInternal, r.variable,
					"dynamic index in %%%d at a decomposed position", user.Result)
			}
			r.track(user.Result, partial{kind: partialAddress, path: path})
		case PositionLeaf, PositionBeyond:
			if err := r.checkForwardable(user); err != nil {
				return err
			}
			if pos == PositionLeaf && all {
				r.edits = append(r.edits, edit{kind: editForward, inst: user, leaf: leaf})
				break
			}
			consumed := len(r.plan.Leaves[leaf].Path) - len(p.path)
			if consumed < 0 || consumed > len(indices) {
				return newError(ErrInternal, r.variable,
					"leaf path of %%%d does not extend its base", user.Result)
			}
			r.edits = append(r.edits, edit{
				kind:  editRebase,
				inst:  user,
				leaf:  leaf,
				trail: slices.Clone(indices[consumed:]),
			})
		default:
			return newError(ErrUnsupportedShape, r.variable,
				"access chain %%%d indexes outside the variable type", user.Result)
		}
		return nil

	case spirv.OpLoad:
		if p.kind != partialAddress || ops[0] != id {
			return r.unsupported(user)
		}
		r.track(user.Result, partial{kind: partialValue, path: p.path})
		return nil

	case spirv.OpCompositeExtract:
		if p.kind != partialValue || ops[0] != id {
			return r.unsupported(user)
		}
		path := append(slices.Clip(p.path), ops[1:]...)
		pos, leaf, rest := r.plan.Locate(path)
		switch pos {
		case PositionInterior:
			r.track(user.Result, partial{kind: partialValue, path: path})
		case PositionLeaf:
			if err := r.checkForwardable(user); err != nil {
				return err
			}
			r.edits = append(r.edits, edit{kind: editLoad, inst: user, leaf: leaf})
		case PositionBeyond:
			r.edits = append(r.edits, edit{
				kind:  editLoadExtract,
				inst:  user,
				leaf:  leaf,
				trail: slices.Clone(rest),
			})
		default:
			return newError(ErrUnsupportedShape, r.variable,
				"extraction %%%d indexes outside the variable type", user.Result)
		}
		return nil

	case spirv.OpFunctionCall:
		if ops[0] == id {
			return r.unsupported(user)
		}
		params := r.idx.Params(ops[0])
		for i, arg := range ops[1:] {
			if arg != id {
				continue
			}
			if i >= len(params) {
				return newError(ErrUnsupportedUse, r.variable,
					"call %%%d passes more arguments than %%%d declares", user.Result, ops[0])
			}
			param := params[i].Result
			if bound, ok := r.params[param]; ok {
				if !bound.equal(p) {
					return newError(ErrUnsupportedUse, r.variable,
						"parameter %%%d receives different parts of the variable", param)
				}
				continue
			}
			r.params[param] = p
			r.track(param, p)
		}
		return nil
	}
	return r.unsupported(user)
}

func (r *resolver) unsupported(user *spirv.Instruction) *Error {
	if user.Result != 0 {
		return newError(ErrUnsupportedUse, r.variable, "%s %%%d", user.Opcode, user.Result)
	}
	return newError(ErrUnsupportedUse, r.variable, "%s", user.Opcode)
}

// checkForwardable rejects inst when a function body uses its result in an
// instruction whose operands cannot be rewritten to the replacement.
func (r *resolver) checkForwardable(inst *spirv.Instruction) *Error {
	for _, user := range r.idx.Users(inst.Result) {
		if r.idx.Function(user) != nil && !user.Known() {
			return newError(ErrUnsupportedUse, r.variable,
				"%%%d is used by unknown opcode %d", inst.Result, uint32(user.Opcode))
		}
	}
	return nil
}

// checkCallSites verifies that every call of a function with a bound
// parameter passes the same part of the variable, so that rewriting the
// callee is correct for all of its callers.
func (r *resolver) checkCallSites() *Error {
	params := maps.Keys(r.params)
	slices.Sort(params)
	for _, param := range params {
		want := r.params[param]
		def := r.idx.Def(param)
		fn := r.idx.Function(def)
		if fn == nil {
			return newError(ErrInternal, r.variable, "parameter %%%d outside a function", param)
		}
		pos := slices.Index(fn.Params, def)
		for _, call := range r.idx.Callers(fn.ID()) {
			if pos+1 >= len(call.Operands) {
				return newError(ErrUnsupportedUse, r.variable,
					"call %%%d omits parameter %%%d", call.Result, param)
			}
			got, ok := r.partials[call.Operands[pos+1]]
			if !ok || !got.equal(want) {
				return newError(ErrUnsupportedUse, r.variable,
					"call %%%d passes a different argument for parameter %%%d", call.Result, param)
			}
		}
	}
	return nil
}

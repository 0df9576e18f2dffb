// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descsroa

import (
	"slices"
	"strconv"
	"strings"

	"github.com/gogpu/spvopt/analysis"
	"github.com/gogpu/spvopt/spirv"
)

// Cut is a struct member crossed on the way from the root to a leaf.
type Cut struct {
	Struct uint32
	Member uint32
}

// Leaf is one descriptor-bearing node of a decomposed variable.
type Leaf struct {
	// Path holds the array indices and member indices from the root.
	Path []uint32
	// Type is the leaf's pointee type.
	Type uint32
	// Offset is added to the original Binding. It equals the leaf's position.
	Offset uint32
	// Suffix is appended to the original name, e.g. "[0][1].t[0]".
	Suffix string
	// Cuts lists the struct members along Path, outermost first.
	Cuts []Cut
}

// Position tells where an index path lands relative to a plan.
type Position uint8

const (
	// PositionInvalid paths index outside the variable's type.
	PositionInvalid Position = iota
	// PositionInterior paths denote a node that is split further.
	PositionInterior
	// PositionLeaf paths denote exactly one leaf.
	PositionLeaf
	// PositionBeyond paths continue inside a leaf.
	PositionBeyond
)

// Plan is the ordered list of leaves for one variable type.
type Plan struct {
	Root   uint32
	Leaves []Leaf

	leaves   map[string]int
	interior map[string]bool
}

// Trivial reports whether the plan keeps the variable whole.
func (p *Plan) Trivial() bool {
	return len(p.Leaves) == 1 && len(p.Leaves[0].Path) == 0
}

// Locate finds the node an index path denotes. For PositionLeaf and
// PositionBeyond it also returns the leaf index and the part of path that
// lies past the leaf.
func (p *Plan) Locate(path []uint32) (Position, int, []uint32) {
	key := pathKey(path)
	if i, ok := p.leaves[key]; ok {
		return PositionLeaf, i, nil
	}
	if p.interior[key] {
		return PositionInterior, -1, nil
	}
	for n := len(path) - 1; n >= 0; n-- {
		if i, ok := p.leaves[pathKey(path[:n])]; ok {
			return PositionBeyond, i, path[n:]
		}
	}
	return PositionInvalid, -1, nil
}

func (p *Plan) add(leaf Leaf) {
	leaf.Offset = uint32(len(p.Leaves))
	p.leaves[pathKey(leaf.Path)] = len(p.Leaves)
	for n := 0; n < len(leaf.Path); n++ {
		p.interior[pathKey(leaf.Path[:n])] = true
	}
	p.Leaves = append(p.Leaves, leaf)
}

func pathKey(path []uint32) string {
	var sb strings.Builder
	for i, v := range path {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return sb.String()
}

// Planner computes decomposition plans. It is pure: planning never touches
// the module.
type Planner struct {
	idx   *analysis.Index
	opts  Options
	stops map[string]bool
}

// NewPlanner creates a planner over idx.
func NewPlanner(idx *analysis.Index, opts Options) *Planner {
	return &Planner{
		idx:   idx,
		opts:  opts,
		stops: make(map[string]bool),
	}
}

// StopAt keeps the node that path reaches from root, and every node with the
// same member steps under any array index, from being split. Paths that leave
// the aggregate types are ignored.
func (pl *Planner) StopAt(root uint32, path []uint32) {
	if key, ok := pl.shapeKey(root, path); ok {
		pl.stops[key] = true
	}
}

// shapeKey names the type-level position of path: array steps become '*' so
// that a stop applies to every element of the arrays above it.
func (pl *Planner) shapeKey(root uint32, path []uint32) (string, bool) {
	var sb strings.Builder
	t := root
	for _, step := range path {
		def := pl.idx.Def(t)
		if def == nil {
			return "", false
		}
		switch def.Opcode {
		case spirv.OpTypeArray, spirv.OpTypeRuntimeArray:
			if len(def.Operands) == 0 {
				return "", false
			}
			sb.WriteString("/*")
			t = def.Operands[0]
		case spirv.OpTypeStruct:
			if int(step) >= len(def.Operands) {
				return "", false
			}
			sb.WriteString("/" + strconv.FormatUint(uint64(step), 10))
			t = def.Operands[step]
		default:
			return "", false
		}
	}
	return sb.String(), true
}

// Plan decomposes root depth first: array elements in ascending index order,
// struct members in declaration order.
func (pl *Planner) Plan(root uint32) *Plan {
	p := &Plan{
		Root:     root,
		leaves:   make(map[string]int),
		interior: make(map[string]bool),
	}
	pl.walk(p, root, nil, "", "", nil)
	return p
}

func (pl *Planner) walk(p *Plan, typeID uint32, path []uint32, shape, suffix string, cuts []Cut) {
	s := Classify(pl.idx, typeID)
	if !pl.stops[shape] {
		switch s.Kind {
		case KindArray:
			if pl.opts.DecomposeArrays && s.Sized && s.Length > 0 {
				for i := uint32(0); i < s.Length; i++ {
					index := strconv.FormatUint(uint64(i), 10)
					pl.walk(p, s.Element, with(path, i), shape+"/*", suffix+"["+index+"]", cuts)
				}
				return
			}
		case KindStruct:
			if pl.opts.DecomposeStructs && len(s.Members) > 0 {
				for i, member := range s.Members {
					m := uint32(i)
					name, ok := pl.idx.MemberName(typeID, m)
					if !ok {
						name = "member_" + strconv.Itoa(i)
					}
					pl.walk(p, member, with(path, m), shape+"/"+strconv.Itoa(i), suffix+"."+name,
						append(slices.Clip(cuts), Cut{Struct: typeID, Member: m}))
				}
				return
			}
		}
	}
	p.add(Leaf{Path: path, Type: typeID, Suffix: suffix, Cuts: cuts})
}

// with returns a copy of path extended by v.
func with(path []uint32, v uint32) []uint32 {
	out := make([]uint32, len(path), len(path)+1)
	copy(out, path)
	return append(out, v)
}

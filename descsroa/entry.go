// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descsroa

import (
	"github.com/gogpu/spvopt/spirv"
)

// updateEntryPoints replaces variable in the interface lists of eps with the
// leaf variables, in creation order. It returns the number of entry points
// that changed.
func updateEntryPoints(eps []*spirv.Instruction, variable uint32, leaves []LeafVariable) int {
	changed := 0
	for _, ep := range eps {
		start := ep.EntryPointInterface()
		if start > len(ep.Operands) {
			continue
		}
		iface := ep.Operands[start:]
		out := make([]uint32, 0, len(iface)+len(leaves))
		found := false
		for _, id := range iface {
			if id != variable {
				out = append(out, id)
				continue
			}
			if !found {
				for _, leaf := range leaves {
					out = append(out, leaf.ID)
				}
				found = true
			}
		}
		if !found {
			continue
		}
		ep.Operands = append(ep.Operands[:start:start], out...)
		changed++
	}
	return changed
}

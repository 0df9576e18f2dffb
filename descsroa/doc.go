// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package descsroa replaces arrays and structs of bound descriptors with one
// variable per descriptor.
//
// A global variable in UniformConstant, Uniform or StorageBuffer storage that
// carries a Binding decoration is a candidate. Its pointee type is walked
// depth first: array elements in ascending order, struct members in
// declaration order. Images, samplers, sampled images, acceleration
// structures, buffer blocks and runtime arrays are never split and become
// leaves. Each leaf gets a new variable whose Binding is the original Binding
// plus the leaf's position.
//
// # Usage
//
//	module, err := spirv.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := descsroa.Process(module, descsroa.DefaultOptions(), logger)
//	if err != nil {
//	    log.Fatal(err) // the module is unusable
//	}
//	for _, r := range res.Replaced {
//	    fmt.Println(r.Name, len(r.Leaves))
//	}
//
// # Naming
//
// A leaf variable is named after the original with the path appended:
//
//	globalS[0][1].t[0]
//	TheStruct.Sampler
//	output[1]
//
// Unnamed struct members render as member_<index>. Unnamed variables produce
// unnamed leaves.
//
// # Rewriting
//
// Access chains that land on a leaf are redirected to the leaf variable.
// Chains that continue past a leaf, for example into the runtime array of a
// storage buffer, are rebuilt from the leaf with the remaining indices. A
// whole load of an interior node is kept, and the literal extractions that
// consume it are turned into loads of the leaves they reach. Loaded values
// and pointers passed to functions are followed into the callee.
//
// An array indexed with a non-constant id is kept whole, for every element
// of the arrays that contain it.
//
// The pass never deletes instructions. Replaced variables are left for the
// dce package.
//
// # Errors
//
// A variable with a use the pass cannot follow, or an index outside its
// type, is left untouched and reported in Result.Skipped. An Error of kind
// ErrInternal aborts the run and the module must be discarded.
package descsroa

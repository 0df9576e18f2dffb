// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package config loads optimizer pipelines from HCL files.
//
// A pipeline file sets logging and lists the passes to run in order:
//
//	log_level  = "info"
//	log_format = "text"
//
//	pass "descriptor_scalar_replacement" {
//	  decompose_structs = true
//	  decompose_arrays  = var.split_arrays == "yes"
//	}
//
//	pass "dead_code_elimination" {}
//
// Expressions may read string variables through var.<name>; their values
// come from the caller, usually the -var flag of spvopt.
package config

import (
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"

	"github.com/gogpu/spvopt/dce"
	"github.com/gogpu/spvopt/descsroa"
	"github.com/gogpu/spvopt/opt"
)

// Log levels and formats accepted in pipeline files.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json"}
)

// Pipeline is a decoded pipeline file.
type Pipeline struct {
	LogLevel  string       `hcl:"log_level,optional"`
	LogFormat string       `hcl:"log_format,optional"`
	Steps     []*PassBlock `hcl:"pass,block"`
}

// PassBlock configures one pass. Attributes that do not apply to the named
// pass are rejected by Passes.
type PassBlock struct {
	Name             string `hcl:"name,label"`
	DecomposeStructs *bool  `hcl:"decompose_structs,optional"`
	DecomposeArrays  *bool  `hcl:"decompose_arrays,optional"`

	DefRange hcl.Range
}

// Load reads and decodes the pipeline file at path.
func Load(path string, vars map[string]string) (*Pipeline, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read pipeline file")
	}
	return Parse(src, path, vars)
}

// Parse decodes a pipeline from src. filename is only used in diagnostics.
func Parse(src []byte, filename string, vars map[string]string) (*Pipeline, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("failed to parse %s: %s", filename, diags.Error())
	}

	content, diags := file.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{{Name: "log_level"}, {Name: "log_format"}},
		Blocks:     []hcl.BlockHeaderSchema{{Type: "pass", LabelNames: []string{"name"}}},
	})
	if diags.HasErrors() {
		return nil, errors.Errorf("failed to decode %s: %s", filename, diags.Error())
	}

	p := &Pipeline{}
	ctx := evalContext(vars)
	diags = gohcl.DecodeBody(file.Body, ctx, p)
	if diags.HasErrors() {
		return nil, errors.Errorf("failed to decode %s: %s", filename, diags.Error())
	}
	for i, block := range content.Blocks {
		if i < len(p.Steps) {
			p.Steps[i].DefRange = block.DefRange
		}
	}

	if err := p.validate(); err != nil {
		return nil, errors.Wrap(err, filename)
	}
	return p, nil
}

// evalContext exposes vars as the var object.
func evalContext(vars map[string]string) *hcl.EvalContext {
	values := make(map[string]cty.Value, len(vars))
	for name, v := range vars {
		values[name] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(values),
		},
	}
}

func (p *Pipeline) validate() error {
	if p.LogLevel != "" && !slices.Contains(LogLevels, p.LogLevel) {
		return errors.Errorf("invalid log_level %q: must be one of %s", p.LogLevel, strings.Join(LogLevels, ", "))
	}
	if p.LogFormat != "" && !slices.Contains(LogFormats, p.LogFormat) {
		return errors.Errorf("invalid log_format %q: must be one of %s", p.LogFormat, strings.Join(LogFormats, ", "))
	}
	return nil
}

// Passes builds the configured passes in file order.
func (p *Pipeline) Passes() ([]opt.Pass, error) {
	passes := make([]opt.Pass, 0, len(p.Steps))
	for _, step := range p.Steps {
		switch step.Name {
		case descsroa.PassName:
			opts := descsroa.DefaultOptions()
			if step.DecomposeStructs != nil {
				opts.DecomposeStructs = *step.DecomposeStructs
			}
			if step.DecomposeArrays != nil {
				opts.DecomposeArrays = *step.DecomposeArrays
			}
			passes = append(passes, descsroa.New(opts))

		case dce.PassName:
			if step.DecomposeStructs != nil || step.DecomposeArrays != nil {
				return nil, errors.Errorf("%s: pass %q takes no arguments", step.DefRange, step.Name)
			}
			passes = append(passes, dce.New())

		default:
			return nil, errors.Errorf("%s: unknown pass %q (known: %s)", step.DefRange, step.Name, strings.Join(Known(), ", "))
		}
	}
	return passes, nil
}

// Known returns the names of the passes a pipeline may list, sorted.
func Known() []string {
	names := []string{descsroa.PassName, dce.PassName}
	slices.Sort(names)
	return names
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spvopt/dce"
	"github.com/gogpu/spvopt/descsroa"
)

func TestParse_FullPipeline(t *testing.T) {
	src := `
log_level  = "debug"
log_format = "json"

pass "descriptor_scalar_replacement" {
  decompose_structs = false
}

pass "dead_code_elimination" {}
`
	p, err := Parse([]byte(src), "pipeline.hcl", nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", p.LogLevel)
	assert.Equal(t, "json", p.LogFormat)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, 5, p.Steps[0].DefRange.Start.Line)

	passes, err := p.Passes()
	require.NoError(t, err)
	require.Len(t, passes, 2)

	sroa, ok := passes[0].(*descsroa.Pass)
	require.True(t, ok, "first pass is %T", passes[0])
	assert.Equal(t, descsroa.Options{DecomposeArrays: true}, sroa.Options())
	assert.IsType(t, &dce.Pass{}, passes[1])
}

func TestParse_Variables(t *testing.T) {
	src := `
pass "descriptor_scalar_replacement" {
  decompose_arrays = var.arrays == "yes"
}
`
	tests := []struct {
		value string
		want  bool
	}{
		{"yes", true},
		{"no", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			p, err := Parse([]byte(src), "vars.hcl", map[string]string{"arrays": tt.value})
			require.NoError(t, err)
			passes, err := p.Passes()
			require.NoError(t, err)
			require.Len(t, passes, 1)
			opts := passes[0].(*descsroa.Pass).Options()
			assert.Equal(t, tt.want, opts.DecomposeArrays)
			assert.True(t, opts.DecomposeStructs)
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	p, err := Parse([]byte(`pass "descriptor_scalar_replacement" {}`), "min.hcl", nil)
	require.NoError(t, err)
	assert.Empty(t, p.LogLevel)
	assert.Empty(t, p.LogFormat)

	passes, err := p.Passes()
	require.NoError(t, err)
	assert.Equal(t, descsroa.DefaultOptions(), passes[0].(*descsroa.Pass).Options())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		vars    map[string]string
		wantErr string
	}{
		{
			name:    "syntax",
			src:     `pass "x" {`,
			wantErr: "failed to parse",
		},
		{
			name:    "unknown attribute",
			src:     `optimize = true`,
			wantErr: "failed to decode",
		},
		{
			name:    "wrong type",
			src:     `pass "descriptor_scalar_replacement" { decompose_arrays = "maybe" }`,
			wantErr: "failed to decode",
		},
		{
			name:    "undefined variable",
			src:     `pass "descriptor_scalar_replacement" { decompose_arrays = var.missing == "x" }`,
			wantErr: "failed to decode",
		},
		{
			name:    "log level",
			src:     `log_level = "verbose"`,
			wantErr: `invalid log_level "verbose"`,
		},
		{
			name:    "log format",
			src:     `log_format = "xml"`,
			wantErr: `invalid log_format "xml"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl", tt.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPipeline_Passes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unknown pass",
			src:     `pass "loop_unroll" {}`,
			wantErr: `unknown pass "loop_unroll"`,
		},
		{
			name:    "arguments for dce",
			src:     `pass "dead_code_elimination" { decompose_arrays = true }`,
			wantErr: "takes no arguments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse([]byte(tt.src), "passes.hcl", nil)
			require.NoError(t, err)
			_, err = p.Passes()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "passes.hcl:1")
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`pass "dead_code_elimination" {}`), 0o600))

	p, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, dce.PassName, p.Steps[0].Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.hcl"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read pipeline file")
}

func TestKnown(t *testing.T) {
	assert.Equal(t, []string{dce.PassName, descsroa.PassName}, Known())
}

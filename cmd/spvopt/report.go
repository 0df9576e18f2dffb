package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/spvopt/dce"
	"github.com/gogpu/spvopt/descsroa"
)

// Report is the YAML document written by -report.
type Report struct {
	Files []FileReport `yaml:"files"`
}

// FileReport lists what happened to one input.
type FileReport struct {
	Input    string          `yaml:"input"`
	Output   string          `yaml:"output,omitempty"`
	Status   string          `yaml:"status"`
	Replaced []VariableEntry `yaml:"replaced,omitempty"`
	Skipped  []SkipEntry     `yaml:"skipped,omitempty"`
	DeadCode *dce.Stats      `yaml:"dead_code,omitempty"`
}

// VariableEntry is a replaced variable and its leaves.
type VariableEntry struct {
	ID     uint32      `yaml:"id"`
	Name   string      `yaml:"name,omitempty"`
	Leaves []LeafEntry `yaml:"leaves"`
}

// LeafEntry is one new descriptor variable.
type LeafEntry struct {
	ID      uint32   `yaml:"id"`
	Name    string   `yaml:"name,omitempty"`
	Set     *uint32  `yaml:"set,omitempty"`
	Binding uint32   `yaml:"binding"`
	Path    []uint32 `yaml:"path,flow"`
}

// SkipEntry is a candidate that was left whole.
type SkipEntry struct {
	ID     uint32 `yaml:"id"`
	Name   string `yaml:"name,omitempty"`
	Reason string `yaml:"reason"`
	Detail string `yaml:"detail"`
}

func (f *FileReport) add(res *descsroa.Result) {
	for _, r := range res.Replaced {
		v := VariableEntry{ID: r.Variable, Name: r.Name}
		for _, leaf := range r.Leaves {
			e := LeafEntry{ID: leaf.ID, Name: leaf.Name, Binding: leaf.Binding, Path: leaf.Path}
			if leaf.HasSet {
				set := leaf.Set
				e.Set = &set
			}
			v.Leaves = append(v.Leaves, e)
		}
		f.Replaced = append(f.Replaced, v)
	}
	for _, s := range res.Skipped {
		f.Skipped = append(f.Skipped, SkipEntry{
			ID:     s.Variable,
			Name:   s.Name,
			Reason: s.Err.Kind.String(),
			Detail: s.Err.Message,
		})
	}
}

// WriteFile encodes the report as YAML to path.
func (r *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to encode report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return nil
}

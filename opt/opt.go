// Package opt defines the pass interface shared by the module transforms and
// the manager that runs them in sequence.
package opt

import (
	"io"
	"log/slog"

	"github.com/gogpu/spvopt/spirv"
)

// Status is the outcome of running a pass.
type Status int

// Pass outcomes.
const (
	// SuccessWithoutChange means the module is unchanged.
	SuccessWithoutChange Status = iota
	// SuccessWithChange means the module was rewritten.
	SuccessWithChange
	// Failure means the module is in an unspecified state and must be
	// discarded.
	Failure
)

func (s Status) String() string {
	switch s {
	case SuccessWithoutChange:
		return "unchanged"
	case SuccessWithChange:
		return "changed"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Pass transforms a module in place.
type Pass interface {
	// Name is the identifier used in logs and pipeline files.
	Name() string
	// Run transforms ctx.Module. A non-nil error comes with Failure.
	Run(ctx *Context) (Status, error)
}

// Context carries the module through a pipeline together with state passes
// hand to each other.
type Context struct {
	Module *spirv.Module
	Logger *slog.Logger

	removable map[uint32]bool
}

// NewContext wraps m. A nil logger discards all output.
func NewContext(m *spirv.Module, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Context{
		Module:    m,
		Logger:    logger,
		removable: make(map[uint32]bool),
	}
}

// MarkRemovable records that the global id was superseded by a pass and may
// be deleted once nothing references it.
func (c *Context) MarkRemovable(id uint32) {
	c.removable[id] = true
}

// Removable returns the ids recorded by MarkRemovable.
func (c *Context) Removable() map[uint32]bool {
	return c.removable
}

package opt

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/gogpu/spvopt/spirv"
)

// Manager runs a sequence of passes over a module.
type Manager struct {
	passes []Pass
	logger *slog.Logger
}

// NewManager creates a manager that logs to logger; nil discards output.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{logger: logger}
}

// Add appends passes to the pipeline.
func (m *Manager) Add(passes ...Pass) {
	m.passes = append(m.passes, passes...)
}

// Passes returns the pipeline in execution order.
func (m *Manager) Passes() []Pass {
	return m.passes
}

// Run executes the passes in order on module. It stops at the first failing
// pass and returns Failure with that pass's error. Otherwise it returns
// SuccessWithChange when any pass changed the module.
func (m *Manager) Run(module *spirv.Module) (Status, error) {
	ctx := NewContext(module, m.logger)
	status := SuccessWithoutChange
	for _, p := range m.passes {
		start := time.Now()
		s, err := p.Run(ctx)
		if err == nil && s == Failure {
			err = errors.New("pass reported failure")
		}
		if err != nil {
			ctx.Logger.Error("Pass failed.", "pass", p.Name(), "error", err)
			return Failure, errors.Wrapf(err, "pass %s", p.Name())
		}
		ctx.Logger.Debug("Pass finished.", "pass", p.Name(), "status", s.String(), "duration", time.Since(start))
		if s == SuccessWithChange {
			status = SuccessWithChange
		}
	}
	return status, nil
}

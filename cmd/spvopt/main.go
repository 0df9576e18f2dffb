// Command spvopt splits arrays and structs of descriptors in SPIR-V modules.
//
// Usage:
//
//	spvopt [options] <input>...
//
// Inputs ending in .spvasm are read as assembly text, everything else as a
// SPIR-V binary.
//
// Examples:
//
//	spvopt -o out.spv shader.spv              # Split structs and arrays
//	spvopt -decompose-arrays=false shader.spv # Split structs only
//	spvopt -dce -S shader.spv                 # Remove dead code, print assembly
//	spvopt -config pipeline.hcl a.spv b.spv   # Passes from an HCL file
//	spvopt -report bindings.yaml shader.spv   # Write the new bindings as YAML
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/gogpu/spvopt"
	"github.com/gogpu/spvopt/config"
	"github.com/gogpu/spvopt/dce"
	"github.com/gogpu/spvopt/descsroa"
	"github.com/gogpu/spvopt/opt"
	"github.com/gogpu/spvopt/spirv"
)

const spvoptVersion = "0.1.0-dev"

// exitError carries the process exit code for run failures.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := 1
		var exit *exitError
		if errors.As(err, &exit) {
			code = exit.code
		}
		os.Exit(code)
	}
}

// vars collects repeated -var name=value flags.
type vars map[string]string

func (v vars) String() string {
	pairs := make([]string, 0, len(v))
	for name, value := range v {
		pairs = append(pairs, name+"="+value)
	}
	return strings.Join(pairs, ",")
}

func (v vars) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return errors.Errorf("invalid variable %q: want name=value", s)
	}
	v[name] = value
	return nil
}

// options are the parsed command line flags.
type options struct {
	output           string
	configPath       string
	vars             vars
	decomposeStructs bool
	decomposeArrays  bool
	dce              bool
	assembly         bool
	reportPath       string
	logLevel         string
	logFormat        string
	version          bool
	inputs           []string
	explicit         map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{vars: vars{}, explicit: make(map[string]bool)}
	fs := flag.NewFlagSet("spvopt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: spvopt [options] <input>...\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.output, "o", "", "output file (default: stdout; with several inputs <input>.opt.spv)")
	fs.StringVar(&o.configPath, "config", "", "HCL pipeline file; overrides the pass flags")
	fs.Var(o.vars, "var", "pipeline variable as name=value (repeatable)")
	fs.BoolVar(&o.decomposeStructs, "decompose-structs", true, "split structs of descriptors")
	fs.BoolVar(&o.decomposeArrays, "decompose-arrays", true, "split arrays of descriptors")
	fs.BoolVar(&o.dce, "dce", false, "remove replaced variables and dead code")
	fs.BoolVar(&o.assembly, "S", false, "write assembly text instead of a binary")
	fs.StringVar(&o.reportPath, "report", "", "write the replacement report as YAML to this file")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level: "+strings.Join(config.LogLevels, ", "))
	fs.StringVar(&o.logFormat, "log-format", "text", "log format: "+strings.Join(config.LogFormats, ", "))
	fs.BoolVar(&o.version, "version", false, "print version")

	if err := fs.Parse(args); err != nil {
		return nil, &exitError{code: 2, err: err}
	}
	fs.Visit(func(f *flag.Flag) { o.explicit[f.Name] = true })
	o.inputs = fs.Args()
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if o.version {
		fmt.Fprintf(stdout, "spvopt version %s\n", spvoptVersion)
		return nil
	}
	if len(o.inputs) == 0 {
		return &exitError{code: 2, err: errors.New("no input file specified")}
	}
	if o.output != "" && len(o.inputs) > 1 {
		return &exitError{code: 2, err: errors.New("-o needs exactly one input")}
	}

	var pipeline *config.Pipeline
	if o.configPath != "" {
		pipeline, err = config.Load(o.configPath, o.vars)
		if err != nil {
			return err
		}
		if pipeline.LogLevel != "" && !o.explicit["log-level"] {
			o.logLevel = pipeline.LogLevel
		}
		if pipeline.LogFormat != "" && !o.explicit["log-format"] {
			o.logFormat = pipeline.LogFormat
		}
	}
	if err := checkLogFlags(o.logLevel, o.logFormat); err != nil {
		return &exitError{code: 2, err: err}
	}
	logger := newLogger(o.logLevel, o.logFormat, stderr)

	newPasses := func() ([]opt.Pass, error) {
		if pipeline != nil {
			return pipeline.Passes()
		}
		return spvopt.Passes(spvopt.Options{
			DecomposeStructs:  o.decomposeStructs,
			DecomposeArrays:   o.decomposeArrays,
			EliminateDeadCode: o.dce,
		}), nil
	}

	var errs error
	report := &Report{}
	for _, input := range o.inputs {
		entry, err := processFile(input, outputPath(o, input), o.assembly, newPasses, logger.With("input", input), stdout)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, input))
			continue
		}
		report.Files = append(report.Files, *entry)
	}

	if o.reportPath != "" {
		if err := report.WriteFile(o.reportPath); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func checkLogFlags(level, format string) error {
	var errs error
	if !slices.Contains(config.LogLevels, level) {
		errs = multierr.Append(errs, errors.Errorf("invalid -log-level %q", level))
	}
	if !slices.Contains(config.LogFormats, format) {
		errs = multierr.Append(errs, errors.Errorf("invalid -log-format %q", format))
	}
	return errs
}

// outputPath returns where the result for input goes; "" means stdout.
func outputPath(o *options, input string) string {
	if o.output != "" || len(o.inputs) == 1 {
		return o.output
	}
	ext := ".opt.spv"
	if o.assembly {
		ext = ".opt.spvasm"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

// newLogger creates a logger writing to w. Unknown levels fall back to info.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func readModule(path string) (*spirv.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".spvasm" {
		return spirv.Assemble(string(data))
	}
	return spirv.Parse(data)
}

func processFile(input, output string, assembly bool, newPasses func() ([]opt.Pass, error), logger *slog.Logger, stdout io.Writer) (*FileReport, error) {
	m, err := readModule(input)
	if err != nil {
		return nil, err
	}
	passes, err := newPasses()
	if err != nil {
		return nil, err
	}

	mgr := opt.NewManager(logger)
	mgr.Add(passes...)
	status, err := mgr.Run(m)
	if err != nil {
		return nil, err
	}

	entry := &FileReport{Input: input, Output: output, Status: status.String()}
	for _, p := range passes {
		switch p := p.(type) {
		case *descsroa.Pass:
			if res := p.LastResult(); res != nil {
				entry.add(res)
			}
		case *dce.Pass:
			stats := p.LastStats()
			entry.DeadCode = &stats
		}
	}

	var data []byte
	if assembly {
		data = []byte(spirv.Disassemble(m))
	} else {
		data = m.Encode()
	}
	if output == "" {
		_, err = stdout.Write(data)
		return entry, err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return nil, err
	}
	logger.Info("Wrote output.", "output", output, "bytes", len(data), "status", status.String())
	return entry, nil
}

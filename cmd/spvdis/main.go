// spvdis - SPIR-V disassembler
// Generates .spvasm text that spvopt and spirv.Assemble read back.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gogpu/spvopt/spirv"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("spvdis", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rawIDs := fs.Bool("raw-ids", false, "print ids as numbers instead of debug names")
	noHeader := fs.Bool("no-header", false, "omit the header comments")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: spvdis [options] <file.spv>\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one input file, got %d", fs.NArg())
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	m, err := spirv.Parse(data)
	if err != nil {
		return err
	}

	text := spirv.DisassembleWith(m, spirv.DisassembleOptions{
		FriendlyNames: !*rawIDs,
		Header:        !*noHeader,
	})
	_, err = io.WriteString(stdout, text)
	return err
}

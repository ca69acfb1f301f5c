// canorus translates a STEP file describing one drilled stock blank into a
// G-code program for the drilling and cutting machine.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

const usageText = `canorus - STEP stock blank to CNC G-code

Usage:
    canorus [options] INPUT.stp

Options:
`

const examplesText = `
Examples:
    # Program to stdout with the default machine
    canorus blank.stp

    # Machine configuration from a script, program to a file, report
    canorus -c machine.zy -o blank.gcode -report blank.stp

    # Also write a mesh of the machined stock
    canorus -c machine.yaml -preview blank.stl blank.stp
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("canorus", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts Options
	var verbose bool
	fs.StringVar(&opts.Config, "c", "", "Machine config (JSON, YAML, or .zy script)")
	fs.StringVar(&opts.Output, "o", "", "Output G-code file (default: stdout)")
	fs.BoolVar(&opts.Report, "report", false, "Print the job report")
	fs.StringVar(&opts.Preview, "preview", "", "Write the machined stock as STL (or mesh JSON for .json)")
	fs.BoolVar(&verbose, "v", false, "Verbose output")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
		fmt.Fprint(stderr, examplesText)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one input file, got %d", fs.NArg())
	}
	opts.Input = fs.Arg(0)

	var logw io.Writer
	if verbose {
		logw = stderr
	}
	return NewApp(logw).Run(opts, stdout, stderr)
}

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/canorus/pkg/compile"
	"github.com/chazu/canorus/pkg/config"
	"github.com/chazu/canorus/pkg/engine"
	"github.com/chazu/canorus/pkg/kernel"
	"github.com/chazu/canorus/pkg/kernel/sdfx"
	"github.com/chazu/canorus/pkg/preview"
)

// Options is one command-line invocation.
type Options struct {
	Input   string // STEP file
	Config  string // JSON, YAML or machine script; empty for defaults
	Output  string // G-code file; empty for stdout
	Preview string // STL or mesh JSON of the machined stock
	Report  bool
}

// App ties the compiler to files, configuration and previews.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	log    *log.Logger
}

// NewApp creates an App with the sdfx kernel. Progress is logged to logw;
// nil discards it.
func NewApp(logw io.Writer) *App {
	if logw == nil {
		logw = io.Discard
	}
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
		log:    log.New(logw, "canorus: ", 0),
	}
}

// LoadConfig reads the machine configuration at path. Scripts (.zy,
// .lisp) are evaluated on top of the defaults; other files are decoded as
// YAML or JSON. An empty path gives the defaults.
func (a *App) LoadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zy", ".lisp":
		return a.engine.EvaluateFile(path, config.Default())
	default:
		return config.LoadFile(path)
	}
}

// Run compiles opts.Input and writes the program, the report and the
// preview. With no output file the program goes to stdout and the report
// to stderr.
func (a *App) Run(opts Options, stdout, stderr io.Writer) error {
	cfg, err := a.LoadConfig(opts.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	text, err := os.ReadFile(opts.Input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	start := time.Now()
	res, err := compile.Compile(string(text), cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.Input, err)
	}
	a.log.Printf("compiled %s in %s: %d faces, %d drills, job %s",
		opts.Input, time.Since(start).Round(time.Microsecond), len(res.Faces), len(res.Proc.Drills), res.JobID)
	for _, w := range res.Warnings {
		a.log.Printf("warning: %s", w)
	}

	reportw := stdout
	if opts.Output == "" {
		if _, err := io.WriteString(stdout, res.GCode); err != nil {
			return fmt.Errorf("writing G-code: %w", err)
		}
		reportw = stderr
	} else {
		if err := os.WriteFile(opts.Output, []byte(res.GCode), 0o644); err != nil {
			return fmt.Errorf("writing G-code: %w", err)
		}
		a.log.Printf("wrote %s", opts.Output)
	}

	if opts.Report {
		if _, err := io.WriteString(reportw, res.Report); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	if opts.Preview != "" {
		start := time.Now()
		if err := preview.Write(a.kernel, res.Proc, opts.Preview); err != nil {
			return fmt.Errorf("writing preview: %w", err)
		}
		a.log.Printf("wrote preview %s in %s", opts.Preview, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

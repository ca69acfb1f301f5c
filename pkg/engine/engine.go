// Package engine evaluates machine-configuration scripts. A script is a
// zygomys Lisp program run in a fresh sandbox; its (machine ...) forms
// override fields of a base configuration:
//
//	(def station-x 15)
//	(machine
//	  :offset (axes :x station-x :z 5)
//	  :drill (drill :feed-rate 120)
//	  :cut true)
package engine

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/canorus/pkg/config"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in the script or an invalid
// resulting configuration.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ScriptError collects the evaluation errors of one script file.
type ScriptError struct {
	Path   string
	Errors []EvalError
}

func (e *ScriptError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ee := range e.Errors {
		msgs[i] = ee.Error()
	}
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(msgs, "; "))
}

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrSuperseded is returned by an evaluation that finished after a
	// newer evaluation of the same script was started. Its configuration
	// is stale and is discarded.
	ErrSuperseded = errors.New("evaluation superseded by newer request")

	// ErrTimeout is returned when a script runs past the engine's timeout.
	ErrTimeout = errors.New("evaluation timed out")
)

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment.
//
// Evaluations are numbered per script: EvaluateFile numbers by path and
// Evaluate shares one anonymous slot. Reloading a file therefore discards
// the pending result of the previous load of that file, but loads of two
// different files never cancel each other.
type Engine struct {
	mu      sync.Mutex
	latest  map[string]uint64
	timeout time.Duration
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{latest: make(map[string]uint64), timeout: EvalTimeout}
}

// evalResult carries one evaluation's output back from its goroutine.
type evalResult struct {
	cfg    config.Config
	errors []EvalError
	err    error
}

// Evaluate runs source and returns base with the script's overrides applied.
//
// Return semantics:
//   - On success: returns config + nil errors + nil error
//   - On parse/eval/validation failure: returns zero config + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns zero config + nil + error
func (e *Engine) Evaluate(source string, base config.Config) (config.Config, []EvalError, error) {
	return e.run("", source, base)
}

func (e *Engine) run(script, source string, base config.Config) (config.Config, []EvalError, error) {
	e.mu.Lock()
	e.latest[script]++
	gen := e.latest[script]
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		cfg, evalErrs, err := e.evaluate(source, base)
		ch <- evalResult{cfg: cfg, errors: evalErrs, err: err}
	}()

	return e.wait(ch, script, gen)
}

// wait returns the result of evaluation gen of script, or ErrTimeout when
// it takes longer than the engine's timeout. On timeout the goroutine may
// still be running; its result lands in the buffered channel and is
// dropped.
func (e *Engine) wait(ch <-chan evalResult, script string, gen uint64) (config.Config, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.latest[script]
		e.mu.Unlock()

		if gen != current {
			return config.Config{}, nil, ErrSuperseded
		}
		return res.cfg, res.errors, res.err

	case <-timer.C:
		return config.Config{}, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}

// EvaluateFile reads and evaluates the script at path. Evaluation errors
// are returned as a *ScriptError.
func (e *Engine) EvaluateFile(path string, base config.Config) (config.Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("reading config script: %w", err)
	}
	cfg, evalErrs, err := e.run(path, string(src), base)
	if err != nil {
		return config.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		return config.Config{}, &ScriptError{Path: path, Errors: evalErrs}
	}
	return cfg, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string, base config.Config) (config.Config, []EvalError, error) {
	// Empty source leaves the base untouched.
	if strings.TrimSpace(source) == "" {
		return base, nil, nil
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	m := &machineState{cfg: base}
	registerBuiltins(env, m)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return config.Config{}, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return config.Config{}, parseZygomysError(err), nil
	}

	if err := m.cfg.Validate(); err != nil {
		return config.Config{}, []EvalError{{Message: err.Error()}}, nil
	}
	return m.cfg, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values, pulling
// out the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

// Package compile runs the whole translation: STEP text in, G-code and a
// human-readable report out.
package compile

import (
	"fmt"
	"strings"

	"github.com/chazu/canorus/pkg/analysis"
	"github.com/chazu/canorus/pkg/config"
	"github.com/chazu/canorus/pkg/resolve"
	"github.com/chazu/canorus/pkg/step"
	"github.com/chazu/canorus/pkg/toolpath"
	"github.com/google/uuid"
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageConfig  Stage = "config"
	StageDecode  Stage = "decode"
	StageResolve Stage = "resolve"
)

// Error tags a failure with the stage it came from. Err is the stage's own
// error (*step.SyntaxError, *step.InternalError, *resolve.DataError or a
// configuration error).
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is everything one compile produces.
type Result struct {
	GCode    string
	Report   string
	Header   resolve.Header
	Faces    []resolve.AdvancedFace
	Proc     analysis.Proc
	Warnings []analysis.Warning

	// JobID is derived from the STEP text, so recompiling the same file
	// gives the same id.
	JobID uuid.UUID
}

// Compile translates stepText into a G-code program for cfg.
func Compile(stepText string, cfg config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Stage: StageConfig, Err: err}
	}

	doc, err := step.Parse(stepText)
	if err != nil {
		return nil, &Error{Stage: StageDecode, Err: err}
	}

	db, err := resolve.New(doc)
	if err != nil {
		return nil, &Error{Stage: StageResolve, Err: err}
	}
	faces, err := db.Faces()
	if err != nil {
		return nil, &Error{Stage: StageResolve, Err: err}
	}

	proc := analysis.Analyze(faces)
	res := &Result{
		Header:   db.Header(),
		Faces:    faces,
		Proc:     proc,
		Warnings: analysis.Validate(proc),
		JobID:    JobID(stepText),
	}
	res.GCode = toolpath.Emit(proc, cfg, headerLines(res))

	report, err := renderReport(res, cfg)
	if err != nil {
		return nil, err
	}
	res.Report = report
	return res, nil
}

// JobID returns the name-based id of a STEP text.
func JobID(stepText string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(stepText))
}

// headerLines are the comment lines opening the program.
func headerLines(r *Result) []string {
	lines := []string{"canorus job " + r.JobID.String()}
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("file", r.Header.Name)
	add("author", strings.Join(r.Header.Author, ", "))
	add("timestamp", r.Header.TimeStamp)
	add("schema", strings.Join(r.Header.Schemas, ", "))
	lines = append(lines, fmt.Sprintf("stock: %.3f x %.3f x %.3f, %d drills",
		r.Proc.Size.X, r.Proc.Size.Y, r.Proc.Size.Z, len(r.Proc.Drills)))
	return lines
}

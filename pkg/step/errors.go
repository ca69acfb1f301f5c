package step

import "fmt"

// Position is a 1-based line and column in the input text.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// SyntaxError reports input that does not match the physical-file grammar.
// End is set when the failure covers a span, for example an unterminated
// string; it then points at where the decoder gave up.
type SyntaxError struct {
	Pos Position
	End *Position
	Msg string
}

func (e *SyntaxError) Error() string {
	if e.End != nil {
		return fmt.Sprintf("step: syntax error at %s-%s: %s", e.Pos, *e.End, e.Msg)
	}
	return fmt.Sprintf("step: syntax error at %s: %s", e.Pos, e.Msg)
}

// InternalError reports a numeric literal that the grammar accepted but that
// could not be converted to its Go type, typically because it is out of range.
type InternalError struct {
	Pos     Position
	Literal string
	Err     error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("step: internal error at %s: converting %q: %v", e.Pos, e.Literal, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

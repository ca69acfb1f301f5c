package step

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	magicStart = "ISO-10303-21"
	magicEnd   = "END-ISO-10303-21"
)

// Parse decodes a complete physical file. It returns a *SyntaxError when the
// text does not match the grammar and an *InternalError when a numeric
// literal cannot be converted.
func Parse(text string) (*Step, error) {
	p := &parser{src: text, line: 1, col: 1}
	return p.file()
}

// parser is a recursive descent parser over the raw file text. It tracks the
// line and column of the next unread byte for error reporting.
type parser struct {
	src  string
	off  int
	line int
	col  int
}

func (p *parser) pos() Position {
	return Position{Line: p.line, Col: p.col}
}

func (p *parser) eof() bool {
	return p.off >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.off]
}

func (p *parser) advance() {
	if p.src[p.off] == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	p.off++
}

func (p *parser) advanceN(n int) {
	for i := 0; i < n && !p.eof(); i++ {
		p.advance()
	}
}

// describe names the next unread token for error messages.
func (p *parser) describe() string {
	if p.eof() {
		return "end of input"
	}
	return strconv.Quote(string(p.src[p.off]))
}

func (p *parser) errorf(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Pos: p.pos(), Msg: fmt.Sprintf(format, args...)}
}

// spanError reports a construct opened at start that never closed.
func (p *parser) spanError(start Position, msg string) *SyntaxError {
	end := p.pos()
	return &SyntaxError{Pos: start, End: &end, Msg: msg}
}

// skipSpace skips whitespace and /* ... */ comments.
func (p *parser) skipSpace() error {
	for !p.eof() {
		c := p.src[p.off]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.advance()
		case c == '/' && strings.HasPrefix(p.src[p.off:], "/*"):
			start := p.pos()
			p.advanceN(2)
			for {
				if p.eof() {
					return p.spanError(start, "unterminated comment")
				}
				if strings.HasPrefix(p.src[p.off:], "*/") {
					p.advanceN(2)
					break
				}
				p.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (p *parser) expect(c byte) error {
	if err := p.skipSpace(); err != nil {
		return err
	}
	if p.eof() || p.src[p.off] != c {
		return p.errorf("expected %q, found %s", string(c), p.describe())
	}
	p.advance()
	return nil
}

// acceptWord consumes w if the input continues with it.
func (p *parser) acceptWord(w string) (bool, error) {
	if err := p.skipSpace(); err != nil {
		return false, err
	}
	if !strings.HasPrefix(p.src[p.off:], w) {
		return false, nil
	}
	p.advanceN(len(w))
	return true, nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isKeywordStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '!'
}

func isKeywordChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

// keyword reads an entity or section name.
func (p *parser) keyword() (string, error) {
	if err := p.skipSpace(); err != nil {
		return "", err
	}
	if p.eof() || !isKeywordStart(p.src[p.off]) {
		return "", p.errorf("expected keyword, found %s", p.describe())
	}
	start := p.off
	p.advance()
	for !p.eof() && isKeywordChar(p.src[p.off]) {
		p.advance()
	}
	return p.src[start:p.off], nil
}

func (p *parser) expectKeyword(want string) error {
	at := p.pos()
	got, err := p.keyword()
	if err != nil {
		return err
	}
	if got != want {
		return &SyntaxError{Pos: at, Msg: fmt.Sprintf("expected %s, found %s", want, got)}
	}
	return nil
}

func (p *parser) digits() string {
	start := p.off
	for !p.eof() && isDigit(p.src[p.off]) {
		p.advance()
	}
	return p.src[start:p.off]
}

// ---------------------------------------------------------------------------
// Sections
// ---------------------------------------------------------------------------

func (p *parser) file() (*Step, error) {
	ok, err := p.acceptWord(magicStart)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := p.expect(';'); err != nil {
			return nil, err
		}
	}

	header, err := p.header()
	if err != nil {
		return nil, err
	}
	data, err := p.data()
	if err != nil {
		return nil, err
	}

	ok, err = p.acceptWord(magicEnd)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := p.expect(';'); err != nil {
			return nil, err
		}
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.errorf("unexpected %s after data section", p.describe())
	}
	return &Step{Header: header, Data: data}, nil
}

func (p *parser) header() ([]Entity, error) {
	if err := p.expectKeyword("HEADER"); err != nil {
		return nil, err
	}
	if err := p.expect(';'); err != nil {
		return nil, err
	}
	var entities []Entity
	for {
		name, err := p.keyword()
		if err != nil {
			return nil, err
		}
		if name == "ENDSEC" {
			return entities, p.expect(';')
		}
		args, err := p.params()
		if err != nil {
			return nil, err
		}
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		entities = append(entities, Entity{Name: name, Args: args})
	}
}

func (p *parser) data() ([]Record, error) {
	if err := p.expectKeyword("DATA"); err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	// DATA may carry a section name and schema; neither is used.
	if p.peek() == '(' {
		if _, err := p.params(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(';'); err != nil {
		return nil, err
	}
	var records []Record
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.peek() != '#' {
			if err := p.expectKeyword("ENDSEC"); err != nil {
				return nil, err
			}
			return records, p.expect(';')
		}
		r, err := p.instance()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
}

// instance parses #id=NAME(args); or #id=(NAME(args) NAME(args) ...);
func (p *parser) instance() (Record, error) {
	id, err := p.reference()
	if err != nil {
		return nil, err
	}
	if err := p.expect('='); err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}

	var r Record
	if p.peek() == '(' {
		open := p.pos()
		p.advance()
		var parts []Entity
		for {
			if err := p.skipSpace(); err != nil {
				return nil, err
			}
			if p.eof() {
				return nil, p.spanError(open, "unterminated complex instance")
			}
			if p.peek() == ')' {
				p.advance()
				break
			}
			name, err := p.keyword()
			if err != nil {
				return nil, err
			}
			args, err := p.params()
			if err != nil {
				return nil, err
			}
			parts = append(parts, Entity{Name: name, Args: args})
		}
		if len(parts) == 0 {
			return nil, &SyntaxError{Pos: open, Msg: "empty complex instance"}
		}
		r = Aggregate{ID: uint64(id), Parts: parts}
	} else {
		name, err := p.keyword()
		if err != nil {
			return nil, err
		}
		args, err := p.params()
		if err != nil {
			return nil, err
		}
		r = Single{ID: uint64(id), Name: name, Args: args}
	}

	if err := p.expect(';'); err != nil {
		return nil, err
	}
	return r, nil
}

// ---------------------------------------------------------------------------
// Values
// ---------------------------------------------------------------------------

// params parses a parenthesised parameter list.
func (p *parser) params() ([]Value, error) {
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	open := p.pos()
	if err := p.expect('('); err != nil {
		return nil, err
	}
	return p.list(open)
}

// list parses the values of a list whose opening parenthesis at open has
// already been consumed.
func (p *parser) list(open Position) ([]Value, error) {
	vals := []Value{}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.peek() == ')' {
		p.advance()
		return vals, nil
	}
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.eof() {
			return nil, p.spanError(open, "unterminated parameter list")
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)

		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		switch {
		case p.eof():
			return nil, p.spanError(open, "unterminated parameter list")
		case p.peek() == ',':
			p.advance()
		case p.peek() == ')':
			p.advance()
			return vals, nil
		default:
			return nil, p.errorf("expected ',' or ')', found %s", p.describe())
		}
	}
}

func (p *parser) value() (Value, error) {
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.eof() {
		return nil, p.errorf("expected value, found end of input")
	}
	c := p.peek()
	switch {
	case c == '#':
		id, err := p.reference()
		if err != nil {
			return nil, err
		}
		return id, nil
	case c == '\'':
		return p.str()
	case c == '.':
		return p.enum()
	case c == '(':
		open := p.pos()
		p.advance()
		vals, err := p.list(open)
		if err != nil {
			return nil, err
		}
		return Tuple(vals), nil
	case c == '*':
		p.advance()
		return Xplicit{}, nil
	case c == '$':
		p.advance()
		return Undefined{}, nil
	case c == '+' || c == '-' || isDigit(c):
		return p.number()
	case isKeywordStart(c):
		name, err := p.keyword()
		if err != nil {
			return nil, err
		}
		args, err := p.params()
		if err != nil {
			return nil, err
		}
		return Desc{Name: name, Args: args}, nil
	}
	return nil, p.errorf("unexpected %s", p.describe())
}

// reference parses #digits.
func (p *parser) reference() (ID, error) {
	if err := p.expect('#'); err != nil {
		return 0, err
	}
	at := p.pos()
	lit := p.digits()
	if lit == "" {
		return 0, p.errorf("expected instance number after '#', found %s", p.describe())
	}
	n, err := strconv.ParseUint(lit, 10, 64)
	if err != nil {
		return 0, &InternalError{Pos: at, Literal: lit, Err: err}
	}
	return ID(n), nil
}

func (p *parser) number() (Value, error) {
	at := p.pos()
	start := p.off
	if c := p.peek(); c == '+' || c == '-' {
		p.advance()
	}
	if p.digits() == "" {
		return nil, p.errorf("expected digits, found %s", p.describe())
	}
	isReal := false
	if p.peek() == '.' {
		isReal = true
		p.advance()
		p.digits()
	}
	if c := p.peek(); c == 'E' || c == 'e' {
		isReal = true
		p.advance()
		if c := p.peek(); c == '+' || c == '-' {
			p.advance()
		}
		if p.digits() == "" {
			return nil, p.errorf("expected exponent digits, found %s", p.describe())
		}
	}
	lit := p.src[start:p.off]

	if isReal {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, &InternalError{Pos: at, Literal: lit, Err: err}
		}
		return Float(f), nil
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return nil, &InternalError{Pos: at, Literal: lit, Err: err}
	}
	return Int(n), nil
}

// enum parses .TOKEN. literals; .T. and .F. become Bool.
func (p *parser) enum() (Value, error) {
	p.advance()
	start := p.off
	for !p.eof() && isKeywordChar(p.src[p.off]) {
		p.advance()
	}
	name := p.src[start:p.off]
	if name == "" {
		return nil, p.errorf("expected enumeration name, found %s", p.describe())
	}
	if p.peek() != '.' {
		return nil, p.errorf("expected '.' to close enumeration, found %s", p.describe())
	}
	p.advance()
	switch name {
	case "T":
		return Bool(true), nil
	case "F":
		return Bool(false), nil
	}
	return Enum(name), nil
}

// str parses a quoted string. A doubled quote stands for one quote.
// Backslash control directives (\X2\...\X0\, \S\ and friends) are kept
// exactly as written.
func (p *parser) str() (Value, error) {
	open := p.pos()
	p.advance()
	var b strings.Builder
	for {
		if p.eof() {
			return nil, p.spanError(open, "unterminated string")
		}
		c := p.peek()
		p.advance()
		if c != '\'' {
			b.WriteByte(c)
			continue
		}
		if p.peek() == '\'' {
			b.WriteByte('\'')
			p.advance()
			continue
		}
		return String(b.String()), nil
	}
}

package engine

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/chazu/canorus/pkg/config"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites script source into something zygomys reads:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols.
//  2. kebab-case identifiers become snake_case (feed-rate -> feed_rate);
//     zygomys reads a hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied unchanged.
func preprocessSource(source string) string {
	pp := preprocessor{src: []byte(source), out: make([]byte, 0, len(source)+len(source)/4)}
	for pp.i < len(pp.src) {
		switch c := pp.src[pp.i]; {
		case c == '"':
			pp.quoted('"', true)
		case c == '`':
			pp.quoted('`', false)
		case c == ';':
			pp.comment()
		case c == ':' && pp.at(1) == '=':
			pp.copy(2)
		case c == ':' && isLetter(pp.at(1)):
			pp.keyword()
		case c == '-' && pp.i > 0 && isIdentChar(pp.src[pp.i-1]) && isLetter(pp.at(1)):
			pp.out = append(pp.out, '_')
			pp.i++
		default:
			pp.copy(1)
		}
	}
	return string(pp.out)
}

type preprocessor struct {
	src []byte
	out []byte
	i   int
}

// at returns the byte n positions ahead, or 0 past the end.
func (pp *preprocessor) at(n int) byte {
	if pp.i+n < len(pp.src) {
		return pp.src[pp.i+n]
	}
	return 0
}

func (pp *preprocessor) copy(n int) {
	end := min(pp.i+n, len(pp.src))
	pp.out = append(pp.out, pp.src[pp.i:end]...)
	pp.i = end
}

// quoted copies a literal delimited by q, honoring backslash escapes when
// escapes is set.
func (pp *preprocessor) quoted(q byte, escapes bool) {
	pp.copy(1)
	for pp.i < len(pp.src) && pp.src[pp.i] != q {
		if escapes && pp.src[pp.i] == '\\' {
			pp.copy(2)
			continue
		}
		pp.copy(1)
	}
	pp.copy(1)
}

func (pp *preprocessor) comment() {
	pp.out = append(pp.out, '/', '/')
	for pp.i < len(pp.src) && pp.src[pp.i] == ';' {
		pp.i++
	}
	for pp.i < len(pp.src) && pp.src[pp.i] != '\n' {
		pp.copy(1)
	}
}

func (pp *preprocessor) keyword() {
	j := pp.i + 1
	for j < len(pp.src) && isKWChar(pp.src[j]) {
		j++
	}
	pp.out = append(pp.out, '"')
	pp.out = append(pp.out, kwPrefix...)
	pp.out = append(pp.out, pp.src[pp.i+1:j]...)
	pp.out = append(pp.out, '"')
	pp.i = j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string and returns its
// name without the prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// sortedKeys returns the keyword names of pa in a stable order.
func (pa kwArgs) sortedKeys() []string {
	return slices.Sorted(maps.Keys(pa.kw))
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func describe(s zygo.Sexp) string {
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

// toFloat64 extracts a float64 from a SexpInt or SexpFloat.
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

// toBool extracts a bool from a SexpBool.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %s", describe(s))
}

// ---------------------------------------------------------------------------
// Configuration overrides
// ---------------------------------------------------------------------------

// field locates one float setting inside a Config.
type field func(c *config.Config) *float64

var axesFields = map[string]field{
	"x": func(c *config.Config) *float64 { return &c.Offset.X },
	"y": func(c *config.Config) *float64 { return &c.Offset.Y },
	"z": func(c *config.Config) *float64 { return &c.Offset.Z },
	"a": func(c *config.Config) *float64 { return &c.Offset.A },
	"b": func(c *config.Config) *float64 { return &c.Offset.B },
}

var endmillFields = map[string]field{
	"radius":    func(c *config.Config) *float64 { return &c.Endmill.Radius },
	"step":      func(c *config.Config) *float64 { return &c.Endmill.Step },
	"offset":    func(c *config.Config) *float64 { return &c.Endmill.Offset },
	"feed-rate": func(c *config.Config) *float64 { return &c.Endmill.FeedRate },
}

var drillFields = map[string]field{
	"offset":    func(c *config.Config) *float64 { return &c.Drill.Offset },
	"feed-rate": func(c *config.Config) *float64 { return &c.Drill.FeedRate },
	"pulling":   func(c *config.Config) *float64 { return &c.Drill.Pulling },
}

// setting is one keyword assignment of an override.
type setting struct {
	key   string
	value float64
	ref   field
}

// sexpOverride is the value of an (axes ...), (endmill ...) or (drill ...)
// form: a set of assignments that (machine ...) applies to the config.
type sexpOverride struct {
	form     string
	settings []setting
}

func (o *sexpOverride) SexpString(ps *zygo.PrintState) string {
	var b strings.Builder
	b.WriteString("(" + o.form)
	for _, s := range o.settings {
		b.WriteString(" :" + s.key + " " + strconv.FormatFloat(s.value, 'g', -1, 64))
	}
	b.WriteString(")")
	return b.String()
}
func (o *sexpOverride) Type() *zygo.RegisteredType { return nil }

func (o *sexpOverride) apply(c *config.Config) {
	for _, s := range o.settings {
		*s.ref(c) = s.value
	}
}

// overrideForm builds the builtin for a form whose keywords all set numbers.
func overrideForm(form string, fields map[string]field) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("%s: unexpected argument %s", form, pa.positional[0].SexpString(nil))
		}
		o := &sexpOverride{form: form}
		for _, key := range pa.sortedKeys() {
			ref, ok := fields[key]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("%s: unknown keyword :%s", form, key)
			}
			v, err := toFloat64(pa.kw[key])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %s: %w", form, key, err)
			}
			o.settings = append(o.settings, setting{key: key, value: v, ref: ref})
		}
		return o, nil
	}
}

// toOverride extracts an override produced by form.
func toOverride(s zygo.Sexp, form string) (*sexpOverride, error) {
	o, ok := s.(*sexpOverride)
	if !ok || o.form != form {
		return nil, fmt.Errorf("expected (%s ...), got %s", form, describe(s))
	}
	return o, nil
}

// machineState is the configuration being built by one evaluation.
type machineState struct {
	cfg config.Config
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the configuration builtins into env. Every
// (machine ...) form applies its overrides to m in evaluation order.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, m *machineState) {

	// (axes :x 15 :z 5)
	env.AddFunction("axes", overrideForm("axes", axesFields))

	// (endmill :radius 3 :step 1 :offset 10 :feed-rate 300)
	env.AddFunction("endmill", overrideForm("endmill", endmillFields))

	// (drill :offset 0 :feed-rate 100 :pulling 30)
	env.AddFunction("drill", overrideForm("drill", drillFields))

	// -----------------------------------------------------------------------
	// (machine :offset (axes ...) :endmill (endmill ...) :drill (drill ...)
	//          :feed-rate 1000 :gap 40 :cut true)
	//
	// Overrides may also be passed positionally: (machine (drill :pulling 20))
	// -----------------------------------------------------------------------
	env.AddFunction("machine", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		next := m.cfg

		for _, p := range pa.positional {
			o, ok := p.(*sexpOverride)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("machine: unexpected argument %s", describe(p))
			}
			o.apply(&next)
		}

		for _, key := range pa.sortedKeys() {
			v := pa.kw[key]
			switch key {
			case "offset", "endmill", "drill":
				form := key
				if key == "offset" {
					form = "axes"
				}
				o, err := toOverride(v, form)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("machine: %s: %w", key, err)
				}
				o.apply(&next)
			case "feed-rate", "gap":
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("machine: %s: %w", key, err)
				}
				if key == "gap" {
					next.Gap = f
				} else {
					next.FeedRate = f
				}
			case "cut":
				b, err := toBool(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("machine: cut: %w", err)
				}
				next.Cut = b
			default:
				return zygo.SexpNull, fmt.Errorf("machine: unknown keyword :%s", key)
			}
		}

		m.cfg = next
		return zygo.SexpNull, nil
	})
}

package step

import (
	"strconv"
	"strings"
)

// Format returns the physical-file literal for v. Parsing the result yields
// a value equal to v.
func Format(v Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

// FormatEntity returns NAME(args) for e.
func FormatEntity(e Entity) string {
	var b strings.Builder
	writeEntity(&b, e.Name, e.Args)
	return b.String()
}

func writeEntity(b *strings.Builder, name string, args []Value) {
	b.WriteString(name)
	writeList(b, args)
}

func writeList(b *strings.Builder, vals []Value) {
	b.WriteByte('(')
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		writeValue(b, v)
	}
	b.WriteByte(')')
}

func writeValue(b *strings.Builder, v Value) {
	switch v := v.(type) {
	case Float:
		b.WriteString(formatReal(float64(v)))
	case Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case String:
		writeString(b, string(v))
	case ID:
		b.WriteByte('#')
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case Bool:
		if v {
			b.WriteString(".T.")
		} else {
			b.WriteString(".F.")
		}
	case Enum:
		b.WriteByte('.')
		b.WriteString(string(v))
		b.WriteByte('.')
	case Tuple:
		writeList(b, v)
	case Xplicit:
		b.WriteByte('*')
	case Undefined:
		b.WriteByte('$')
	case Desc:
		writeEntity(b, v.Name, v.Args)
	}
}

// formatReal always writes a decimal point so the literal reads back as a
// real and not an integer.
func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += "."
	}
	if exp == "+00" {
		return mantissa
	}
	return mantissa + "E" + exp
}

func writeString(b *strings.Builder, s string) {
	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(s, "'", "''"))
	b.WriteByte('\'')
}

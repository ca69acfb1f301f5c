package resolve

import "github.com/chazu/canorus/pkg/step"

// Header holds the three well-known header entities. Fields whose entity or
// argument is absent stay empty; the header is informational only.
type Header struct {
	// FILE_DESCRIPTION
	Description         []string
	ImplementationLevel string

	// FILE_NAME
	Name                string
	TimeStamp           string
	Author              []string
	Organization        []string
	PreprocessorVersion string
	OriginatingSystem   string
	Authorization       string

	// FILE_SCHEMA
	Schemas []string
}

func parseHeader(entities []step.Entity) Header {
	var h Header
	for _, e := range entities {
		switch e.Name {
		case "FILE_DESCRIPTION":
			h.Description = stringsAt(e.Args, 0)
			h.ImplementationLevel = stringAt(e.Args, 1)
		case "FILE_NAME":
			h.Name = stringAt(e.Args, 0)
			h.TimeStamp = stringAt(e.Args, 1)
			h.Author = stringsAt(e.Args, 2)
			h.Organization = stringsAt(e.Args, 3)
			h.PreprocessorVersion = stringAt(e.Args, 4)
			h.OriginatingSystem = stringAt(e.Args, 5)
			h.Authorization = stringAt(e.Args, 6)
		case "FILE_SCHEMA":
			h.Schemas = stringsAt(e.Args, 0)
		}
	}
	return h
}

func stringAt(args []step.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	if s, ok := args[i].(step.String); ok {
		return string(s)
	}
	return ""
}

func stringsAt(args []step.Value, i int) []string {
	if i >= len(args) {
		return nil
	}
	t, ok := args[i].(step.Tuple)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(t))
	for _, v := range t {
		if s, ok := v.(step.String); ok {
			out = append(out, string(s))
		}
	}
	return out
}

package compile

import (
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/chazu/canorus/pkg/config"
	"github.com/chazu/canorus/pkg/resolve"
	"github.com/chazu/canorus/pkg/toolpath"
)

const reportText = `Job:          {{.Result.JobID}}
File:         {{or .Result.Header.Name "-"}}
Time stamp:   {{or .Result.Header.TimeStamp "-"}}
Author:       {{join .Result.Header.Author}}
Organization: {{join .Result.Header.Organization}}
System:       {{or .Result.Header.OriginatingSystem "-"}}
Schema:       {{join .Result.Header.Schemas}}

Faces:        {{len .Result.Faces}} ({{.Planes}} planar, {{.Cylinders}} cylindrical)
Stock:        {{mm .Result.Proc.Size.X}} x {{mm .Result.Proc.Size.Y}} x {{mm .Result.Proc.Size.Z}}
Safe height:  {{mm .SafeHeight}}
Cut passes:   {{if .Config.Cut}}{{.CutPasses}} per face{{else}}off{{end}}
Drills:       {{len .Result.Proc.Drills}}
{{- range $i, $d := .Result.Proc.Drills}}
  {{inc $i}}. depth {{mm $d.AxialDepth}}  angle {{deg $d.Angle}}  lateral {{mm $d.LateralOffset}}  radius {{mm $d.Radius}}
{{- end}}
{{- if .Result.Warnings}}

Warnings:
{{- range .Result.Warnings}}
  - {{.}}
{{- end}}
{{- end}}
`

var report = template.Must(template.New("report").Funcs(template.FuncMap{
	"join": func(s []string) string {
		if len(s) == 0 {
			return "-"
		}
		return strings.Join(s, ", ")
	},
	"mm":  func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"deg": func(rad float64) string { return fmt.Sprintf("%.1f°", rad*180/math.Pi) },
	"inc": func(i int) int { return i + 1 },
}).Parse(reportText))

type reportData struct {
	Result     *Result
	Config     config.Config
	Planes     int
	Cylinders  int
	SafeHeight float64
	CutPasses  int
}

func renderReport(r *Result, cfg config.Config) (string, error) {
	data := reportData{
		Result:     r,
		Config:     cfg,
		SafeHeight: toolpath.SafeHeight(r.Proc, cfg),
		CutPasses:  toolpath.CutPasses(r.Proc, cfg),
	}
	for _, f := range r.Faces {
		switch f.Elem.(type) {
		case resolve.Plane:
			data.Planes++
		case resolve.Cylinder:
			data.Cylinders++
		}
	}

	var b strings.Builder
	if err := report.Execute(&b, data); err != nil {
		return "", fmt.Errorf("compile: rendering report: %w", err)
	}
	return b.String(), nil
}

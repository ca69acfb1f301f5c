package analysis

import (
	"fmt"
	"math"
)

// Warning is an advisory finding about the analyzed stock. Warnings never
// stop G-code generation; they end up in the report.
type Warning struct {
	Drill   int // index into Proc.Drills, -1 for stock-level findings
	Message string
}

func (w Warning) String() string {
	if w.Drill < 0 {
		return w.Message
	}
	return fmt.Sprintf("drill %d: %s", w.Drill+1, w.Message)
}

// Validate runs the geometric checks on p and returns the warnings found.
// It is read-only.
func Validate(p Proc) []Warning {
	var warnings []Warning
	warnings = append(warnings, validateStock(p)...)
	warnings = append(warnings, validateDrills(p)...)
	return warnings
}

// validateStock checks that every stock dimension is positive.
func validateStock(p Proc) []Warning {
	var warnings []Warning
	dims := p.Size.Components()
	for i, name := range []string{"X", "Y", "Z"} {
		if dims[i] <= 0 {
			warnings = append(warnings, Warning{
				Drill:   -1,
				Message: fmt.Sprintf("stock dimension %s is %.4f, must be positive", name, dims[i]),
			})
		}
	}
	return warnings
}

// validateDrills checks each drill against the stock it is cut into.
func validateDrills(p Proc) []Warning {
	var warnings []Warning
	circumradius := math.Hypot(p.Size.X, p.Size.Y) / 2

	for i, d := range p.Drills {
		if d.AxialDepth < p.Min.Z || d.AxialDepth > p.Max.Z {
			warnings = append(warnings, Warning{
				Drill: i,
				Message: fmt.Sprintf("axial depth %.3f is outside the stock [%.3f, %.3f]",
					d.AxialDepth, p.Min.Z, p.Max.Z),
			})
		}
		if math.Abs(d.LateralOffset) > circumradius {
			warnings = append(warnings, Warning{
				Drill: i,
				Message: fmt.Sprintf("lateral offset %.3f exceeds the section circumradius %.3f",
					d.LateralOffset, circumradius),
			})
		}
		if d.Radius <= 0 {
			warnings = append(warnings, Warning{
				Drill:   i,
				Message: fmt.Sprintf("radius %.3f is not positive", d.Radius),
			})
		}
	}
	return warnings
}

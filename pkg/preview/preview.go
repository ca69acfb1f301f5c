// Package preview builds the machined stock, the blank with every drill
// bored out, as a kernel solid and writes it as a mesh for inspection.
//
// The solid lives in the aligned frame of analysis.Proc: the feed axis is
// Z, the stock section is centered on the Z axis and drills are placed
// from their axial depth, angle and lateral offset.
package preview

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/canorus/pkg/analysis"
	"github.com/chazu/canorus/pkg/kernel"
)

// MeshName is the name given to preview meshes.
const MeshName = "stock"

// Stock returns the stock box minus one cylinder per drill. Drills run
// through the whole section. Drills with a non-positive radius are
// skipped.
func Stock(k kernel.Kernel, p analysis.Proc) (kernel.Solid, error) {
	if p.Size.X <= 0 || p.Size.Y <= 0 || p.Size.Z <= 0 {
		return nil, fmt.Errorf("preview: stock size %.3f x %.3f x %.3f is degenerate",
			p.Size.X, p.Size.Y, p.Size.Z)
	}

	box := k.Box(p.Size.X, p.Size.Y, p.Size.Z)
	if turn := degrees(math.Atan2(p.Axes[0].Y, p.Axes[0].X)); turn != 0 {
		box = k.Rotate(box, 0, 0, turn)
	}
	box = k.Translate(box, 0, 0, (p.Min.Z+p.Max.Z)/2)

	length := math.Hypot(p.Size.X, p.Size.Y) + 2
	var holes []kernel.Solid
	for _, d := range p.Drills {
		if d.Radius <= 0 {
			continue
		}
		holes = append(holes, hole(k, d, length))
	}
	if len(holes) == 0 {
		return box, nil
	}
	return k.Difference(box, k.Union(holes...)), nil
}

// hole lays a Z cylinder along the drill direction (cos θ, sin θ, 0) and
// moves it sideways by the lateral offset.
func hole(k kernel.Kernel, d analysis.Drill, length float64) kernel.Solid {
	c := k.Cylinder(length, d.Radius)
	c = k.Rotate(c, 0, 90, degrees(d.Angle))
	sin, cos := math.Sincos(d.Angle)
	return k.Translate(c, d.LateralOffset*sin, -d.LateralOffset*cos, d.AxialDepth)
}

// Mesh tessellates the machined stock.
func Mesh(k kernel.Kernel, p analysis.Proc) (*kernel.Mesh, error) {
	s, err := Stock(k, p)
	if err != nil {
		return nil, err
	}
	m, err := k.ToMesh(s)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	m.Name = MeshName
	return m, nil
}

// Write writes the machined stock to path. A .json path gets the mesh as
// JSON; anything else is written as STL.
func Write(k kernel.Kernel, p analysis.Proc, path string) error {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		s, err := Stock(k, p)
		if err != nil {
			return err
		}
		return k.WriteSTL(s, path)
	}

	m, err := Mesh(k, p)
	if err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("preview: encoding mesh: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

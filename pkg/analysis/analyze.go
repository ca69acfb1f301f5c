// Package analysis brings the faces of a rectangular stock blank into the
// machine frame and reduces them to a stock size, a center and one Drill per
// drilled hole.
//
// The feed axis (canonical Z) is the direction of the two end caps. The
// blank is rotated so that axis coincides with global Z; the normals of the
// side faces then give canonical X and Y. Analysis has no error path:
// geometry outside the rectangular-prism assumption yields a frame that is
// wrong but well defined, and Validate reports what it can detect.
package analysis

import (
	"math"

	"github.com/chazu/canorus/pkg/geom"
	"github.com/chazu/canorus/pkg/resolve"
)

// holeTolerance bounds the distance between two cylinder axes that are
// treated as the same hole.
const holeTolerance = 1e-6

// Drill is one hole in machine terms.
type Drill struct {
	AxialDepth    float64 // position along the feed axis
	Angle         float64 // approach angle about the feed axis, radians
	LateralOffset float64 // signed offset perpendicular to the drill axis
	Radius        float64
}

// Proc is the analysis result handed to the toolpath emitter.
type Proc struct {
	Drills []Drill
	Center geom.V3
	Size   geom.V3

	// Min and Max are the stock extents along the canonical axes.
	Min, Max geom.V3
	// Axes are the canonical X, Y and Z directions in the aligned frame.
	Axes [3]geom.V3
}

// family is a group of planes with mutually dependent normals.
type family struct {
	normal geom.V3 // normal of the first member
	planes []resolve.Axis
}

// spread is the distance between the outermost planes along the normal.
func (f family) spread() float64 {
	n := f.normal.Normalize()
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range f.planes {
		d := p.Origin.Dot(n)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return hi - lo
}

// Analyze reduces faces to a Proc. Planes are grouped by normal direction;
// cylinders become drills.
func Analyze(faces []resolve.AdvancedFace) Proc {
	families := classify(faces)
	feed := feedFamily(families)

	feedDir := geom.UnitZ
	if feed >= 0 {
		feedDir = families[feed].normal
	}
	rot := geom.AlignToZ(feedDir)

	// Rotated copies; the resolved faces are left untouched.
	aligned := make([]family, len(families))
	for i, f := range families {
		af := family{normal: rot.MulVec(f.normal).Normalize()}
		for _, p := range f.planes {
			af.planes = append(af.planes, p.Transform(rot))
		}
		aligned[i] = af
	}

	var proc Proc
	proc.Axes = canonicalAxes(aligned, feed)

	var lo, hi [3]float64
	var sides []family
	for i, f := range aligned {
		if i != feed {
			sides = append(sides, f)
		}
	}
	for k := 0; k < 2 && k < len(sides); k++ {
		lo[k], hi[k] = extent(sides[k].planes, func(o geom.V3) float64 {
			return o.Dot(proc.Axes[k])
		})
	}
	if feed >= 0 {
		lo[2], hi[2] = extent(aligned[feed].planes, func(o geom.V3) float64 {
			return o.Z
		})
	}
	proc.Min = geom.V3{X: lo[0], Y: lo[1], Z: lo[2]}
	proc.Max = geom.V3{X: hi[0], Y: hi[1], Z: hi[2]}
	proc.Size = proc.Max.Sub(proc.Min)

	// The feed-axis center stays at 0: machine zero is the stock end face.
	cx := (lo[0] + hi[0]) / 2
	cy := (lo[1] + hi[1]) / 2
	proc.Center = proc.Axes[0].Scale(cx).Add(proc.Axes[1].Scale(cy))

	proc.Drills = drills(faces, rot, proc.Center)
	return proc
}

// classify groups plane faces by normal direction, in face order.
func classify(faces []resolve.AdvancedFace) []family {
	var families []family
	for _, f := range faces {
		p, ok := f.Elem.(resolve.Plane)
		if !ok {
			continue
		}
		n := p.Axis.Direction
		placed := false
		for i := range families {
			if !geom.Independent(families[i].normal, n) {
				families[i].planes = append(families[i].planes, p.Axis)
				placed = true
				break
			}
		}
		if !placed {
			families = append(families, family{normal: n, planes: []resolve.Axis{p.Axis}})
		}
	}
	return families
}

// feedFamily picks the end-cap family: the one family with two planes. When
// several have two planes the one spanning the longest distance wins; when
// none has, the first family is used. It returns -1 when there are no planes.
func feedFamily(families []family) int {
	best := -1
	for i, f := range families {
		if len(f.planes) != 2 {
			continue
		}
		if best < 0 || f.spread() > families[best].spread() {
			best = i
		}
	}
	if best < 0 && len(families) > 0 {
		best = 0
	}
	return best
}

// canonicalAxes takes X and Y from the first two side families. A missing X
// falls back to global X and a missing Y completes the right-handed frame.
func canonicalAxes(aligned []family, feed int) [3]geom.V3 {
	axes := [3]geom.V3{geom.UnitX, {}, geom.UnitZ}
	if feed >= 0 {
		axes[2] = aligned[feed].normal
	}
	k := 0
	for i, f := range aligned {
		if i == feed || k == 2 {
			continue
		}
		axes[k] = f.normal
		k++
	}
	if k < 2 {
		axes[1] = axes[2].Cross(axes[0]).Normalize()
	}
	return axes
}

func extent(planes []resolve.Axis, coord func(geom.V3) float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range planes {
		c := coord(p.Origin)
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}
	return lo, hi
}

// drills reduces every cylindrical face to a Drill. Exporters split one hole
// into several faces on the same axis; those collapse into the first.
func drills(faces []resolve.AdvancedFace, rot geom.Mat3x3, center geom.V3) []Drill {
	var holes []resolve.Cylinder
	var out []Drill
	for _, f := range faces {
		c, ok := f.Elem.(resolve.Cylinder)
		if !ok {
			continue
		}
		if seen(holes, c) {
			continue
		}
		holes = append(holes, c)

		axis := c.Axis.Transform(rot)
		dir := axis.Direction.Normalize()
		p := axis.Origin.Sub(center)
		out = append(out, Drill{
			AxialDepth:    p.Z,
			Angle:         math.Atan2(dir.Y, dir.X),
			LateralOffset: p.Dot(dir.Cross(geom.UnitZ)),
			Radius:        c.Radius,
		})
	}
	return out
}

func seen(holes []resolve.Cylinder, c resolve.Cylinder) bool {
	for _, h := range holes {
		if sameHole(h, c) {
			return true
		}
	}
	return false
}

// sameHole reports whether a and b lie on one axis line with one radius.
func sameHole(a, b resolve.Cylinder) bool {
	if math.Abs(a.Radius-b.Radius) > holeTolerance {
		return false
	}
	if geom.Independent(a.Axis.Direction, b.Axis.Direction) {
		return false
	}
	d := b.Axis.Origin.Sub(a.Axis.Origin)
	return d.Cross(a.Axis.Direction.Normalize()).Norm() <= holeTolerance
}

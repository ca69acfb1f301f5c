package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/canorus/pkg/geom"
	"github.com/chazu/canorus/pkg/resolve"
)

const tol = 1e-9

func v(x, y, z float64) geom.V3 { return geom.V3{X: x, Y: y, Z: z} }

func plane(o, n geom.V3) resolve.AdvancedFace {
	return resolve.AdvancedFace{SameSense: true, Elem: resolve.Plane{Axis: resolve.Axis{
		Origin: o, Direction: n, RefDirection: geom.UnitX,
	}}}
}

func cylinder(o, d geom.V3, r float64) resolve.AdvancedFace {
	return resolve.AdvancedFace{SameSense: false, Elem: resolve.Cylinder{Radius: r, Axis: resolve.Axis{
		Origin: o, Direction: d, RefDirection: geom.UnitZ,
	}}}
}

func near(a, b float64) bool { return math.Abs(a-b) <= tol }

func wantSize(t *testing.T, p Proc, want geom.V3) {
	t.Helper()
	if !p.Size.ApproxEqual(want, tol) {
		t.Errorf("Size = %+v, want %+v", p.Size, want)
	}
}

// box300 is a 300 x 90 x 45 blank lying along global X with one hole
// drilled along Y at x=100.
func box300() []resolve.AdvancedFace {
	return []resolve.AdvancedFace{
		plane(v(300, 0, 0), v(1, 0, 0)),
		plane(v(0, 0, 0), v(-1, 0, 0)),
		plane(v(0, -45, 0), v(0, -1, 0)),
		plane(v(0, 45, 0), v(0, 1, 0)),
		plane(v(0, 0, -22.5), v(0, 0, -1)),
		plane(v(0, 0, 22.5), v(0, 0, 1)),
		cylinder(v(100, -45, 0), v(0, 1, 0), 4),
	}
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	families := classify(box300())
	if len(families) != 3 {
		t.Fatalf("got %d families, want 3", len(families))
	}
	for i, f := range families {
		if len(f.planes) != 2 {
			t.Errorf("family %d has %d planes, want 2", i, len(f.planes))
		}
	}
	if families[0].normal != v(1, 0, 0) {
		t.Errorf("first family normal = %+v, want first face's normal", families[0].normal)
	}
}

func TestFeedFamily(t *testing.T) {
	tests := []struct {
		name  string
		faces []resolve.AdvancedFace
		want  int
	}{
		{"six planes, longest pair wins", box300(), 0},
		{
			"unique pair among split sides",
			[]resolve.AdvancedFace{
				plane(v(0, -100, 0), v(0, -1, 0)),
				plane(v(50, -100, 0), v(0, -1, 0)),
				plane(v(0, 100, 0), v(0, 1, 0)),
				plane(v(50, 100, 0), v(0, 1, 0)),
				plane(v(0, 0, 0), v(1, 0, 0)),
				plane(v(10, 0, 0), v(-1, 0, 0)),
			},
			1,
		},
		{
			"no pair falls back to first family",
			[]resolve.AdvancedFace{
				plane(v(0, 0, 0), v(0, 0, 1)),
				plane(v(0, 0, 0), v(1, 0, 0)),
			},
			0,
		},
		{"no planes", []resolve.AdvancedFace{cylinder(v(0, 0, 0), geom.UnitZ, 1)}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := feedFamily(classify(tt.faces)); got != tt.want {
				t.Errorf("feedFamily = %d, want %d", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Analyze
// ---------------------------------------------------------------------------

func TestAnalyze_Box(t *testing.T) {
	p := Analyze(box300())

	wantSize(t, p, v(90, 45, 300))
	if !p.Center.ApproxEqual(geom.V3{}, tol) {
		t.Errorf("Center = %+v, want origin", p.Center)
	}
	if !near(p.Min.Z, 0) || !near(p.Max.Z, 300) {
		t.Errorf("feed extent = [%v, %v], want [0, 300]", p.Min.Z, p.Max.Z)
	}
	if !p.Axes[2].ApproxEqual(geom.UnitZ, tol) {
		t.Errorf("feed axis = %+v, want +Z", p.Axes[2])
	}
	if len(p.Drills) != 1 {
		t.Fatalf("got %d drills, want 1", len(p.Drills))
	}
	d := p.Drills[0]
	if !near(d.AxialDepth, 100) {
		t.Errorf("AxialDepth = %v, want 100", d.AxialDepth)
	}
	if !near(d.Angle, math.Pi/2) {
		t.Errorf("Angle = %v, want pi/2", d.Angle)
	}
	if !near(d.LateralOffset, 0) {
		t.Errorf("LateralOffset = %v, want 0", d.LateralOffset)
	}
	if d.Radius != 4 {
		t.Errorf("Radius = %v, want 4", d.Radius)
	}
}

// Split side faces give the side families four planes each; the end caps
// are the only family with two, even though they are closest together.
func TestAnalyze_SplitSides(t *testing.T) {
	faces := []resolve.AdvancedFace{
		plane(v(120, 0, 0), v(1, 0, 0)),
		plane(v(0, 0, 0), v(-1, 0, 0)),
		plane(v(30, -100, 0), v(0, -1, 0)),
		plane(v(90, -100, 0), v(0, -1, 0)),
		plane(v(30, 100, 0), v(0, 1, 0)),
		plane(v(90, 100, 0), v(0, 1, 0)),
		plane(v(30, 0, -10), v(0, 0, -1)),
		plane(v(90, 0, -10), v(0, 0, -1)),
		plane(v(30, 0, 10), v(0, 0, 1)),
		plane(v(90, 0, 10), v(0, 0, 1)),
		cylinder(v(60, 0, -10), v(0, 0, 1), 5),
	}
	p := Analyze(faces)

	wantSize(t, p, v(200, 20, 120))
	if len(p.Drills) != 1 {
		t.Fatalf("got %d drills, want 1", len(p.Drills))
	}
	d := p.Drills[0]
	if !near(d.AxialDepth, 60) {
		t.Errorf("AxialDepth = %v, want 60", d.AxialDepth)
	}
	if !near(math.Cos(d.Angle), -1) {
		t.Errorf("Angle = %v, want pi", d.Angle)
	}
	if !near(d.LateralOffset, 0) {
		t.Errorf("LateralOffset = %v, want 0", d.LateralOffset)
	}
}

// A box built along Z and then tilted arbitrarily analyzes to the same
// stock and drill as the untilted one.
func TestAnalyze_TiltedBox(t *testing.T) {
	m := geom.RotateZ(0.3).Mul(geom.RotateY(0.7))
	local := []resolve.AdvancedFace{
		plane(v(0, 0, 200), v(0, 0, 1)),
		plane(v(0, 0, 0), v(0, 0, -1)),
		plane(v(30, 0, 0), v(1, 0, 0)),
		plane(v(-30, 0, 0), v(-1, 0, 0)),
		plane(v(0, 15, 0), v(0, 1, 0)),
		plane(v(0, -15, 0), v(0, -1, 0)),
		cylinder(v(-30, 5, 50), v(1, 0, 0), 4),
	}
	faces := make([]resolve.AdvancedFace, len(local))
	for i, f := range local {
		switch e := f.Elem.(type) {
		case resolve.Plane:
			faces[i] = resolve.AdvancedFace{SameSense: f.SameSense, Elem: resolve.Plane{Axis: e.Axis.Transform(m)}}
		case resolve.Cylinder:
			faces[i] = resolve.AdvancedFace{SameSense: f.SameSense, Elem: resolve.Cylinder{Radius: e.Radius, Axis: e.Axis.Transform(m)}}
		}
	}

	p := Analyze(faces)
	wantSize(t, p, v(60, 30, 200))
	if !near(p.Min.Z, 0) || !near(p.Max.Z, 200) {
		t.Errorf("feed extent = [%v, %v], want [0, 200]", p.Min.Z, p.Max.Z)
	}
	if !p.Center.ApproxEqual(geom.V3{}, tol) {
		t.Errorf("Center = %+v, want origin", p.Center)
	}
	if !near(p.Axes[0].Cross(p.Axes[1]).Dot(p.Axes[2]), 1) {
		t.Errorf("axes %+v are not a right-handed orthonormal frame", p.Axes)
	}
	if len(p.Drills) != 1 {
		t.Fatalf("got %d drills, want 1", len(p.Drills))
	}
	d := p.Drills[0]
	if !near(d.AxialDepth, 50) {
		t.Errorf("AxialDepth = %v, want 50", d.AxialDepth)
	}
	if !near(d.LateralOffset, -5) {
		t.Errorf("LateralOffset = %v, want -5", d.LateralOffset)
	}
	// The hole runs along the first side family's normal.
	if want := math.Atan2(p.Axes[0].Y, p.Axes[0].X); !near(d.Angle, want) {
		t.Errorf("Angle = %v, want %v", d.Angle, want)
	}
}

func TestAnalyze_SplitHoleCollapses(t *testing.T) {
	faces := append(box300(),
		// Second half of the same hole, described from the other side.
		cylinder(v(100, 45, 0), v(0, -1, 0), 4),
		// Same axis, different radius: a counterbore, kept.
		cylinder(v(100, -45, 0), v(0, 1, 0), 6),
		// Same radius, parallel but offset: a different hole.
		cylinder(v(150, -45, 0), v(0, 1, 0), 4),
	)
	p := Analyze(faces)
	if len(p.Drills) != 3 {
		t.Fatalf("got %d drills, want 3: %+v", len(p.Drills), p.Drills)
	}
	if p.Drills[1].Radius != 6 || !near(p.Drills[2].AxialDepth, 150) {
		t.Errorf("unexpected drills %+v", p.Drills)
	}
}

func TestAnalyze_NoPlanes(t *testing.T) {
	p := Analyze(nil)
	wantSize(t, p, geom.V3{})
	if p.Axes != [3]geom.V3{geom.UnitX, geom.UnitY, geom.UnitZ} {
		t.Errorf("Axes = %+v, want the global frame", p.Axes)
	}
	if len(p.Drills) != 0 {
		t.Errorf("Drills = %+v, want none", p.Drills)
	}
}

func TestAnalyze_DoesNotMutateFaces(t *testing.T) {
	faces := box300()
	Analyze(faces)
	if got := faces[6].Elem.Placement().Origin; got != v(100, -45, 0) {
		t.Errorf("cylinder origin changed to %+v", got)
	}
	if got := faces[0].Elem.Placement().Direction; got != v(1, 0, 0) {
		t.Errorf("plane normal changed to %+v", got)
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func hasWarning(ws []Warning, substr string) bool {
	for _, w := range ws {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Clean(t *testing.T) {
	if ws := Validate(Analyze(box300())); len(ws) != 0 {
		t.Errorf("unexpected warnings %v", ws)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		proc  Proc
		want  string
		drill int
	}{
		{
			name:  "flat stock",
			proc:  Proc{Size: v(10, 0, 100), Max: v(10, 0, 100)},
			want:  "stock dimension Y",
			drill: -1,
		},
		{
			name: "drill past end",
			proc: Proc{
				Size: v(10, 10, 100), Max: v(10, 10, 100),
				Drills: []Drill{{AxialDepth: 50, Radius: 1}, {AxialDepth: 120, Radius: 1}},
			},
			want:  "outside the stock",
			drill: 1,
		},
		{
			name: "drill beside the stock",
			proc: Proc{
				Size: v(6, 8, 100), Max: v(6, 8, 100),
				Drills: []Drill{{AxialDepth: 10, LateralOffset: -5.5, Radius: 1}},
			},
			want:  "circumradius 5.000",
			drill: 0,
		},
		{
			name: "zero radius",
			proc: Proc{
				Size: v(6, 8, 100), Max: v(6, 8, 100),
				Drills: []Drill{{AxialDepth: 10}},
			},
			want:  "not positive",
			drill: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := Validate(tt.proc)
			if !hasWarning(ws, tt.want) {
				t.Fatalf("expected warning containing %q, got %v", tt.want, ws)
			}
			for _, w := range ws {
				if strings.Contains(w.Message, tt.want) && w.Drill != tt.drill {
					t.Errorf("warning %q on drill %d, want %d", w.Message, w.Drill, tt.drill)
				}
			}
		})
	}
}

func TestWarningString(t *testing.T) {
	if got := (Warning{Drill: -1, Message: "m"}).String(); got != "m" {
		t.Errorf("String = %q", got)
	}
	if got := (Warning{Drill: 2, Message: "m"}).String(); got != "drill 3: m" {
		t.Errorf("String = %q", got)
	}
}

package resolve_test

import (
	"errors"
	"math"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/canorus/pkg/geom"
	"github.com/chazu/canorus/pkg/resolve"
	"github.com/chazu/canorus/pkg/step"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func load(t *testing.T, data string) *resolve.Database {
	t.Helper()
	doc, err := step.Parse("HEADER;\nENDSEC;\nDATA;\n" + data + "\nENDSEC;\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	db, err := resolve.New(doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return db
}

// chain is a minimal valid document: one plane and one cylinder.
const chain = `#1=MECHANICAL_DESIGN_GEOMETRIC_PRESENTATION_REPRESENTATION('',(#2),#99);
#2=STYLED_ITEM('',(#98),#3);
#3=MANIFOLD_SOLID_BREP('',#4);
#4=CLOSED_SHELL('',(#5,#6));
#5=ADVANCED_FACE('',(),#7,.T.);
#6=ADVANCED_FACE('',(),#8,.F.);
#7=PLANE('',#9);
#8=CYLINDRICAL_SURFACE('',#10,2.5);
#9=AXIS2_PLACEMENT_3D('',#11,#12,#13);
#10=AXIS2_PLACEMENT_3D('',#14,$,$);
#11=CARTESIAN_POINT('',(1.,2.,3.));
#12=DIRECTION('',(0.,0.,1.));
#13=DIRECTION('',(1.,0.,0.));
#14=CARTESIAN_POINT('',(4,5,6));`

// replace swaps one record line of chain for another.
func replace(from, to string) string {
	return strings.Replace(chain, from, to, 1)
}

func wantDataError(t *testing.T, err error, entity string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected DataError for %s, got nil", entity)
	}
	var de *resolve.DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected *resolve.DataError, got %T: %v", err, err)
	}
	if de.Entity != entity {
		t.Errorf("DataError.Entity = %q, want %q (%v)", de.Entity, entity, err)
	}
}

// ---------------------------------------------------------------------------
// Database
// ---------------------------------------------------------------------------

func TestNew_IndexesRecords(t *testing.T) {
	db := load(t, chain)
	if db.Len() != 14 {
		t.Errorf("Len = %d, want 14", db.Len())
	}
	if got := db.Lookup("ADVANCED_FACE"); !reflect.DeepEqual(got, []uint64{5, 6}) {
		t.Errorf("Lookup(ADVANCED_FACE) = %v, want [5 6]", got)
	}
	if db.Lookup("B_SPLINE_CURVE") != nil {
		t.Error("Lookup of absent name should be nil")
	}
	r, ok := db.Get(7).(step.Single)
	if !ok || r.Name != "PLANE" {
		t.Errorf("Get(7) = %#v, want PLANE", db.Get(7))
	}
	if db.Get(1000) != nil {
		t.Error("Get(1000) should be nil")
	}
}

func TestNew_DuplicateID(t *testing.T) {
	doc, err := step.Parse("HEADER;ENDSEC;DATA;#1=PLANE('',#2);#1=DIRECTION('',(0.,0.,1.));ENDSEC;")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = resolve.New(doc)
	wantDataError(t, err, "DIRECTION")
	if !strings.Contains(err.Error(), "#1") || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error %q should name the id and say duplicate", err)
	}
}

func TestHeader(t *testing.T) {
	doc, err := step.Parse(`HEADER;
FILE_DESCRIPTION(('first','second'),'2;1');
FILE_NAME('part.stp','2021-06-01T08:00:00',('ann','bo'),('shop'),'pre 1','cad 2','ok');
FILE_SCHEMA(('CONFIG_CONTROL_DESIGN'));
SOMETHING_ELSE('ignored');
ENDSEC;
DATA;
ENDSEC;`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	db, err := resolve.New(doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := resolve.Header{
		Description:         []string{"first", "second"},
		ImplementationLevel: "2;1",
		Name:                "part.stp",
		TimeStamp:           "2021-06-01T08:00:00",
		Author:              []string{"ann", "bo"},
		Organization:        []string{"shop"},
		PreprocessorVersion: "pre 1",
		OriginatingSystem:   "cad 2",
		Authorization:       "ok",
		Schemas:             []string{"CONFIG_CONTROL_DESIGN"},
	}
	if got := db.Header(); !reflect.DeepEqual(got, want) {
		t.Errorf("Header = %#v\nwant %#v", got, want)
	}
}

func TestHeader_Absent(t *testing.T) {
	db := load(t, "")
	if got := db.Header(); !reflect.DeepEqual(got, resolve.Header{}) {
		t.Errorf("Header = %#v, want zero value", got)
	}
}

// ---------------------------------------------------------------------------
// Face chain
// ---------------------------------------------------------------------------

func TestFaces(t *testing.T) {
	db := load(t, chain)
	faces, err := db.Faces()
	if err != nil {
		t.Fatalf("Faces: %v", err)
	}
	want := []resolve.AdvancedFace{
		{SameSense: true, Elem: resolve.Plane{Axis: resolve.Axis{
			Origin:       geom.V3{X: 1, Y: 2, Z: 3},
			Direction:    geom.UnitZ,
			RefDirection: geom.UnitX,
		}}},
		{SameSense: false, Elem: resolve.Cylinder{Radius: 2.5, Axis: resolve.Axis{
			Origin:       geom.V3{X: 4, Y: 5, Z: 6},
			Direction:    geom.UnitZ,
			RefDirection: geom.UnitX,
		}}},
	}
	if !reflect.DeepEqual(faces, want) {
		t.Errorf("Faces = %#v\nwant %#v", faces, want)
	}
}

func TestFaces_DataErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		entity string
		msg    string
	}{
		{
			name:   "no anchor",
			data:   replace("#1=MECHANICAL_DESIGN_GEOMETRIC_PRESENTATION_REPRESENTATION('',(#2),#99);", ""),
			entity: "MECHANICAL_DESIGN_GEOMETRIC_PRESENTATION_REPRESENTATION",
			msg:    "not found",
		},
		{
			name:   "two anchors",
			data:   chain + "\n#50=MECHANICAL_DESIGN_GEOMETRIC_PRESENTATION_REPRESENTATION('',(#2),#99);",
			entity: "MECHANICAL_DESIGN_GEOMETRIC_PRESENTATION_REPRESENTATION",
			msg:    "found 2",
		},
		{
			name:   "empty item list",
			data:   replace("(#2),#99", "(),#99"),
			entity: "MECHANICAL_DESIGN_GEOMETRIC_PRESENTATION_REPRESENTATION",
			msg:    "no representation items",
		},
		{
			name:   "styled item missing",
			data:   replace("#2=STYLED_ITEM('',(#98),#3);", ""),
			entity: "STYLED_ITEM",
			msg:    "no such instance",
		},
		{
			name:   "styled item wrong name",
			data:   replace("#2=STYLED_ITEM(", "#2=OVER_RIDING_STYLED_ITEM("),
			entity: "STYLED_ITEM",
			msg:    "found OVER_RIDING_STYLED_ITEM",
		},
		{
			name:   "solid reference is a string",
			data:   replace("#2=STYLED_ITEM('',(#98),#3);", "#2=STYLED_ITEM('',(#98),'x');"),
			entity: "STYLED_ITEM",
			msg:    "instance reference",
		},
		{
			name:   "brep missing argument",
			data:   replace("MANIFOLD_SOLID_BREP('',#4)", "MANIFOLD_SOLID_BREP('')"),
			entity: "MANIFOLD_SOLID_BREP",
			msg:    "missing argument 1",
		},
		{
			name:   "shell face list not a list",
			data:   replace("CLOSED_SHELL('',(#5,#6))", "CLOSED_SHELL('',#5)"),
			entity: "CLOSED_SHELL",
			msg:    "a list",
		},
		{
			name:   "face same_sense not boolean",
			data:   replace("#7,.T.)", "#7,.UNKNOWN.)"),
			entity: "ADVANCED_FACE",
			msg:    "a boolean",
		},
		{
			name:   "unsupported surface",
			data:   replace("#7=PLANE('',#9);", "#7=SPHERICAL_SURFACE('',#9,1.);"),
			entity: "PLANE or CYLINDRICAL_SURFACE",
			msg:    "found SPHERICAL_SURFACE",
		},
		{
			name:   "complex surface",
			data:   replace("#7=PLANE('',#9);", "#7=(PLANE('',#9) GEOMETRIC_REPRESENTATION_ITEM());"),
			entity: "PLANE or CYLINDRICAL_SURFACE",
			msg:    "complex instance",
		},
		{
			name:   "radius not a number",
			data:   replace("#10,2.5)", "#10,'r')"),
			entity: "CYLINDRICAL_SURFACE",
			msg:    "a number",
		},
		{
			name:   "placement wrong name",
			data:   replace("#9=AXIS2_PLACEMENT_3D(", "#9=AXIS1_PLACEMENT("),
			entity: "AXIS2_PLACEMENT_3D",
			msg:    "found AXIS1_PLACEMENT",
		},
		{
			name:   "point with two coordinates",
			data:   replace("(1.,2.,3.)", "(1.,2.)"),
			entity: "CARTESIAN_POINT",
			msg:    "want 3 coordinates",
		},
		{
			name:   "direction with enum coordinate",
			data:   replace("#12=DIRECTION('',(0.,0.,1.));", "#12=DIRECTION('',(0.,0.,.Z.));"),
			entity: "DIRECTION",
			msg:    "coordinate 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := load(t, tt.data)
			_, err := db.Faces()
			wantDataError(t, err, tt.entity)
			if err != nil && !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q should contain %q", err, tt.msg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

func TestFixture(t *testing.T) {
	text, err := os.ReadFile("../../examples/blank.stp")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	doc, err := step.Parse(string(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	db, err := resolve.New(doc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h := db.Header()
	if h.TimeStamp != "2019-03-14T10:20:30" {
		t.Errorf("TimeStamp = %q", h.TimeStamp)
	}
	if !reflect.DeepEqual(h.Author, []string{"Kenji Sato"}) {
		t.Errorf("Author = %q", h.Author)
	}
	if !reflect.DeepEqual(h.Schemas, []string{"AUTOMOTIVE_DESIGN { 1 0 10303 214 1 1 1 1 }"}) {
		t.Errorf("Schemas = %q", h.Schemas)
	}

	faces, err := db.Faces()
	if err != nil {
		t.Fatalf("Faces: %v", err)
	}
	if len(faces) != 9 {
		t.Fatalf("len(faces) = %d, want 9", len(faces))
	}
	var planes, cylinders int
	for _, f := range faces {
		switch e := f.Elem.(type) {
		case resolve.Plane:
			planes++
		case resolve.Cylinder:
			cylinders++
			if e.Radius <= 0 {
				t.Errorf("cylinder radius %v", e.Radius)
			}
		}
	}
	if planes != 6 || cylinders != 3 {
		t.Errorf("planes=%d cylinders=%d, want 6 and 3", planes, cylinders)
	}
	// #35 omits both directions.
	top := faces[5].Elem.Placement()
	if top.Direction != geom.UnitZ || top.RefDirection != geom.UnitX {
		t.Errorf("defaulted placement = %+v", top)
	}
}

func TestAxisTransform(t *testing.T) {
	a := resolve.Axis{
		Origin:       geom.V3{X: 1, Y: 2, Z: 3},
		Direction:    geom.UnitX,
		RefDirection: geom.UnitY,
	}
	got := a.Transform(geom.RotateZ(math.Pi / 2))
	if !got.Origin.ApproxEqual(geom.V3{X: -2, Y: 1, Z: 3}, 1e-12) {
		t.Errorf("Origin = %v", got.Origin)
	}
	if !got.Direction.ApproxEqual(geom.UnitY, 1e-12) {
		t.Errorf("Direction = %v", got.Direction)
	}
	if !got.RefDirection.ApproxEqual(geom.V3{X: -1}, 1e-12) {
		t.Errorf("RefDirection = %v", got.RefDirection)
	}
	if a.Origin != (geom.V3{X: 1, Y: 2, Z: 3}) {
		t.Error("Transform mutated its receiver")
	}
}

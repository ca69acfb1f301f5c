package resolve

import (
	"fmt"

	"github.com/chazu/canorus/pkg/geom"
	"github.com/chazu/canorus/pkg/step"
)

// Entity names on the resolution chain.
const (
	entityPresentation = "MECHANICAL_DESIGN_GEOMETRIC_PRESENTATION_REPRESENTATION"
	entityStyledItem   = "STYLED_ITEM"
	entitySolidBrep    = "MANIFOLD_SOLID_BREP"
	entityClosedShell  = "CLOSED_SHELL"
	entityAdvancedFace = "ADVANCED_FACE"
	entityPlane        = "PLANE"
	entityCylinder     = "CYLINDRICAL_SURFACE"
	entityPlacement    = "AXIS2_PLACEMENT_3D"
	entityPoint        = "CARTESIAN_POINT"
	entityDirection    = "DIRECTION"
)

// Axis is a local coordinate frame: an origin, the local Z direction (plane
// normal or cylinder axis) and the local X reference direction.
type Axis struct {
	Origin       geom.V3
	Direction    geom.V3
	RefDirection geom.V3
}

// Transform returns the frame rotated by m.
func (a Axis) Transform(m geom.Mat3x3) Axis {
	return Axis{
		Origin:       m.MulVec(a.Origin),
		Direction:    m.MulVec(a.Direction),
		RefDirection: m.MulVec(a.RefDirection),
	}
}

// FaceElement is the carrier surface of a face. The set of implementations
// is closed: Plane and Cylinder.
type FaceElement interface {
	Placement() Axis
	faceElement()
}

// Plane is a PLANE surface.
type Plane struct {
	Axis Axis
}

// Cylinder is a CYLINDRICAL_SURFACE.
type Cylinder struct {
	Radius float64
	Axis   Axis
}

func (p Plane) Placement() Axis    { return p.Axis }
func (c Cylinder) Placement() Axis { return c.Axis }
func (Plane) faceElement()         {}
func (Cylinder) faceElement()      {}

// AdvancedFace is a face with its orientation flag and carrier surface.
type AdvancedFace struct {
	SameSense bool
	Elem      FaceElement
}

// Faces follows the presentation representation to its styled item, the
// manifold solid, its closed shell and finally every advanced face of the
// shell, in shell order.
func (db *Database) Faces() ([]AdvancedFace, error) {
	anchor, err := db.anchor()
	if err != nil {
		return nil, err
	}
	styled, err := db.presentation(anchor)
	if err != nil {
		return nil, err
	}
	solid, err := db.styledItem(styled)
	if err != nil {
		return nil, err
	}
	shell, err := db.solidBrep(solid)
	if err != nil {
		return nil, err
	}
	ids, err := db.closedShell(shell)
	if err != nil {
		return nil, err
	}
	faces := make([]AdvancedFace, 0, len(ids))
	for _, id := range ids {
		f, err := db.advancedFace(id)
		if err != nil {
			return nil, err
		}
		faces = append(faces, f)
	}
	return faces, nil
}

// anchor finds the one presentation representation of the file.
func (db *Database) anchor() (uint64, error) {
	ids := db.Lookup(entityPresentation)
	switch len(ids) {
	case 0:
		return 0, &DataError{Entity: entityPresentation, Msg: "not found"}
	case 1:
		return ids[0], nil
	}
	return 0, &DataError{Entity: entityPresentation, Msg: fmt.Sprintf("found %d instances, want exactly one", len(ids))}
}

// presentation returns the first item of the representation: the styled item.
func (db *Database) presentation(id uint64) (uint64, error) {
	args, err := db.single(id, entityPresentation)
	if err != nil {
		return 0, err
	}
	items, err := tupleArg(args, 1, entityPresentation, id)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, &DataError{Entity: entityPresentation, ID: id, Msg: "no representation items"}
	}
	item, ok := items[0].(step.ID)
	if !ok {
		return 0, shapeError(entityPresentation, id, "first item", "an instance reference", items[0])
	}
	return uint64(item), nil
}

func (db *Database) styledItem(id uint64) (uint64, error) {
	args, err := db.single(id, entityStyledItem)
	if err != nil {
		return 0, err
	}
	return idArg(args, 2, entityStyledItem, id)
}

func (db *Database) solidBrep(id uint64) (uint64, error) {
	args, err := db.single(id, entitySolidBrep)
	if err != nil {
		return 0, err
	}
	return idArg(args, 1, entitySolidBrep, id)
}

func (db *Database) closedShell(id uint64) ([]uint64, error) {
	args, err := db.single(id, entityClosedShell)
	if err != nil {
		return nil, err
	}
	faces, err := tupleArg(args, 1, entityClosedShell, id)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(faces))
	for i, v := range faces {
		ref, ok := v.(step.ID)
		if !ok {
			return nil, shapeError(entityClosedShell, id, fmt.Sprintf("face %d", i), "an instance reference", v)
		}
		ids = append(ids, uint64(ref))
	}
	return ids, nil
}

func (db *Database) advancedFace(id uint64) (AdvancedFace, error) {
	args, err := db.single(id, entityAdvancedFace)
	if err != nil {
		return AdvancedFace{}, err
	}
	surface, err := idArg(args, 2, entityAdvancedFace, id)
	if err != nil {
		return AdvancedFace{}, err
	}
	sameSense, err := boolArg(args, 3, entityAdvancedFace, id)
	if err != nil {
		return AdvancedFace{}, err
	}
	elem, err := db.surface(surface)
	if err != nil {
		return AdvancedFace{}, err
	}
	return AdvancedFace{SameSense: sameSense, Elem: elem}, nil
}

// surface decodes the PLANE or CYLINDRICAL_SURFACE carrying a face.
func (db *Database) surface(id uint64) (FaceElement, error) {
	r, ok := db.records[id].(step.Single)
	if !ok || (r.Name != entityPlane && r.Name != entityCylinder) {
		_, err := db.single(id, entityPlane+" or "+entityCylinder)
		return nil, err
	}
	switch r.Name {
	case entityPlane:
		placement, err := idArg(r.Args, 1, entityPlane, id)
		if err != nil {
			return nil, err
		}
		axis, err := db.placement(placement)
		if err != nil {
			return nil, err
		}
		return Plane{Axis: axis}, nil
	default:
		placement, err := idArg(r.Args, 1, entityCylinder, id)
		if err != nil {
			return nil, err
		}
		radius, err := floatArg(r.Args, 2, entityCylinder, id)
		if err != nil {
			return nil, err
		}
		axis, err := db.placement(placement)
		if err != nil {
			return nil, err
		}
		return Cylinder{Radius: radius, Axis: axis}, nil
	}
}

// placement decodes an AXIS2_PLACEMENT_3D. An omitted ($) axis or reference
// direction takes the default (0,0,1) or (1,0,0).
func (db *Database) placement(id uint64) (Axis, error) {
	args, err := db.single(id, entityPlacement)
	if err != nil {
		return Axis{}, err
	}
	pointID, err := idArg(args, 1, entityPlacement, id)
	if err != nil {
		return Axis{}, err
	}
	origin, err := db.point(pointID)
	if err != nil {
		return Axis{}, err
	}
	dir, err := db.optionalDirection(args, 2, id, geom.UnitZ)
	if err != nil {
		return Axis{}, err
	}
	ref, err := db.optionalDirection(args, 3, id, geom.UnitX)
	if err != nil {
		return Axis{}, err
	}
	return Axis{Origin: origin, Direction: dir, RefDirection: ref}, nil
}

func (db *Database) optionalDirection(args []step.Value, i int, owner uint64, def geom.V3) (geom.V3, error) {
	if i < len(args) {
		if _, ok := args[i].(step.Undefined); ok {
			return def, nil
		}
	}
	dirID, err := idArg(args, i, entityPlacement, owner)
	if err != nil {
		return geom.V3{}, err
	}
	return db.direction(dirID)
}

func (db *Database) point(id uint64) (geom.V3, error) {
	args, err := db.single(id, entityPoint)
	if err != nil {
		return geom.V3{}, err
	}
	return tripleArg(args, 1, entityPoint, id)
}

func (db *Database) direction(id uint64) (geom.V3, error) {
	args, err := db.single(id, entityDirection)
	if err != nil {
		return geom.V3{}, err
	}
	return tripleArg(args, 1, entityDirection, id)
}

// ---------------------------------------------------------------------------
// Argument accessors
// ---------------------------------------------------------------------------

func argAt(args []step.Value, i int, entity string, id uint64) (step.Value, error) {
	if i >= len(args) {
		return nil, &DataError{Entity: entity, ID: id, Msg: fmt.Sprintf("missing argument %d (have %d)", i, len(args))}
	}
	return args[i], nil
}

func shapeError(entity string, id uint64, what, want string, got step.Value) *DataError {
	return &DataError{Entity: entity, ID: id, Msg: fmt.Sprintf("%s: want %s, got %s", what, want, step.Format(got))}
}

func idArg(args []step.Value, i int, entity string, id uint64) (uint64, error) {
	v, err := argAt(args, i, entity, id)
	if err != nil {
		return 0, err
	}
	ref, ok := v.(step.ID)
	if !ok {
		return 0, shapeError(entity, id, fmt.Sprintf("argument %d", i), "an instance reference", v)
	}
	return uint64(ref), nil
}

func tupleArg(args []step.Value, i int, entity string, id uint64) (step.Tuple, error) {
	v, err := argAt(args, i, entity, id)
	if err != nil {
		return nil, err
	}
	t, ok := v.(step.Tuple)
	if !ok {
		return nil, shapeError(entity, id, fmt.Sprintf("argument %d", i), "a list", v)
	}
	return t, nil
}

func boolArg(args []step.Value, i int, entity string, id uint64) (bool, error) {
	v, err := argAt(args, i, entity, id)
	if err != nil {
		return false, err
	}
	b, ok := v.(step.Bool)
	if !ok {
		return false, shapeError(entity, id, fmt.Sprintf("argument %d", i), "a boolean", v)
	}
	return bool(b), nil
}

// number accepts both real and integer literals.
func number(v step.Value) (float64, bool) {
	switch v := v.(type) {
	case step.Float:
		return float64(v), true
	case step.Int:
		return float64(v), true
	}
	return 0, false
}

func floatArg(args []step.Value, i int, entity string, id uint64) (float64, error) {
	v, err := argAt(args, i, entity, id)
	if err != nil {
		return 0, err
	}
	f, ok := number(v)
	if !ok {
		return 0, shapeError(entity, id, fmt.Sprintf("argument %d", i), "a number", v)
	}
	return f, nil
}

func tripleArg(args []step.Value, i int, entity string, id uint64) (geom.V3, error) {
	t, err := tupleArg(args, i, entity, id)
	if err != nil {
		return geom.V3{}, err
	}
	if len(t) != 3 {
		return geom.V3{}, &DataError{Entity: entity, ID: id, Msg: fmt.Sprintf("want 3 coordinates, got %d", len(t))}
	}
	var c [3]float64
	for k, v := range t {
		f, ok := number(v)
		if !ok {
			return geom.V3{}, shapeError(entity, id, fmt.Sprintf("coordinate %d", k), "a number", v)
		}
		c[k] = f
	}
	return geom.V3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// Package kernel defines the geometry kernel used to build stock previews.
// A backend (sdfx) provides primitives, booleans and mesh output behind
// this interface.
package kernel

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and turns them into triangles.
type Kernel interface {
	// Primitives. Both are centered on the origin; the cylinder runs
	// along Z.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid

	// Boolean operations
	Union(solids ...Solid) Solid
	Difference(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees, applied X, Y, Z

	// Output
	ToMesh(s Solid) (*Mesh, error)
	WriteSTL(s Solid, path string) error
}

// Package geom provides the small fixed-size linear algebra used to bring a
// solid into the machine frame: 3-vectors, 3x3 matrices and the direction
// independence test used to group face normals.
package geom

import "math"

// Tolerances for comparing derived directions. Derived floating values are
// never compared exactly.
const (
	// RatioTolerance bounds the spread of component ratios of two
	// dependent vectors.
	RatioTolerance = 1e-10
	// ZeroTolerance is the magnitude below which a component counts as zero.
	ZeroTolerance = 1e-15
)

// V3 is a 3-vector. It is a value type; operations return new vectors.
type V3 struct {
	X, Y, Z float64
}

// Unit vectors of the global frame.
var (
	UnitX = V3{X: 1}
	UnitY = V3{Y: 1}
	UnitZ = V3{Z: 1}
)

// Add returns v + o.
func (v V3) Add(o V3) V3 {
	return V3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v V3) Sub(o V3) V3 {
	return V3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v * k.
func (v V3) Scale(k float64) V3 {
	return V3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Dot returns the scalar product.
func (v V3) Dot(o V3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the vector product v × o.
func (v V3) Cross(o V3) V3 {
	return V3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Norm returns the euclidean length.
func (v V3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v V3) Normalize() V3 {
	n := v.Norm()
	if n < ZeroTolerance {
		return v
	}
	return v.Scale(1 / n)
}

// ApproxEqual reports whether every component differs by at most tol.
func (v V3) ApproxEqual(o V3, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol &&
		math.Abs(v.Y-o.Y) <= tol &&
		math.Abs(v.Z-o.Z) <= tol
}

// Components returns the vector as an array, X first.
func (v V3) Components() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// Independent reports whether a and b are linearly independent, i.e. not
// parallel or anti-parallel. Components that are zero in both vectors are
// ignored; a component that is zero in only one of them makes the vectors
// independent; the remaining component ratios must all agree.
func Independent(a, b V3) bool {
	ac, bc := a.Components(), b.Components()
	ratio, haveRatio := 0.0, false
	for i := 0; i < 3; i++ {
		az := math.Abs(ac[i]) < ZeroTolerance
		bz := math.Abs(bc[i]) < ZeroTolerance
		switch {
		case az && bz:
			continue
		case az != bz:
			return true
		}
		r := ac[i] / bc[i]
		if !haveRatio {
			ratio, haveRatio = r, true
			continue
		}
		if math.Abs(r-ratio) > RatioTolerance {
			return true
		}
	}
	return false
}

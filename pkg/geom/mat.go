package geom

import "math"

// Mat3x3 is a row-major 3x3 matrix acting on column vectors.
type Mat3x3 [3][3]float64

// Identity returns the identity matrix.
func Identity() Mat3x3 {
	return Mat3x3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// RotateY returns the right-handed rotation by theta radians about the Y axis.
func RotateY(theta float64) Mat3x3 {
	s, c := math.Sincos(theta)
	return Mat3x3{
		{c, 0, s},
		{0, 1, 0},
		{-s, 0, c},
	}
}

// RotateZ returns the right-handed rotation by theta radians about the Z axis.
func RotateZ(theta float64) Mat3x3 {
	s, c := math.Sincos(theta)
	return Mat3x3{
		{c, -s, 0},
		{s, c, 0},
		{0, 0, 1},
	}
}

// Mul returns the matrix product m·o.
func (m Mat3x3) Mul(o Mat3x3) Mat3x3 {
	var r Mat3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return r
}

// MulVec returns m·v.
func (m Mat3x3) MulVec(v V3) V3 {
	c := v.Components()
	var r [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i] += m[i][j] * c[j]
		}
	}
	return V3{X: r[0], Y: r[1], Z: r[2]}
}

// AlignToZ returns the pure rotation that maps dir onto the positive global Z
// axis: first about Z by -atan2(y, x), then about Y by
// -atan2(sqrt(x²+y²), z).
func AlignToZ(dir V3) Mat3x3 {
	thetaY := -math.Atan2(math.Hypot(dir.X, dir.Y), dir.Z)
	thetaZ := -math.Atan2(dir.Y, dir.X)
	return RotateY(thetaY).Mul(RotateZ(thetaZ))
}

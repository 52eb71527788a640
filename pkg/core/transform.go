package core

import (
	"errors"
	"math"
)

// ErrSingularMatrix is returned when a transform matrix cannot be inverted
var ErrSingularMatrix = errors.New("singular transform matrix")

// Mat4 is a row-major 4x4 matrix. Transforms in this package are affine, so the
// bottom row is always (0, 0, 0, 1).
type Mat4 [4][4]float64

// Identity4 returns the 4x4 identity matrix
func Identity4() Mat4 {
	return Mat4{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
}

// Mul returns m·o
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j] + m[i][3]*o[3][j]
		}
	}
	return r
}

// Linear returns the upper-left 3x3 block
func (m Mat4) Linear() Mat3 {
	return Mat3{
		{m[0][0], m[0][1], m[0][2]},
		{m[1][0], m[1][1], m[1][2]},
		{m[2][0], m[2][1], m[2][2]},
	}
}

// affineInverse inverts an affine matrix through its linear block
func (m Mat4) affineInverse() (Mat4, bool) {
	lin, ok := m.Linear().Inverse()
	if !ok {
		return Mat4{}, false
	}
	t := lin.MulVec(Vec3{m[0][3], m[1][3], m[2][3]}).Negate()
	return Mat4{
		{lin[0][0], lin[0][1], lin[0][2], t.X},
		{lin[1][0], lin[1][1], lin[1][2], t.Y},
		{lin[2][0], lin[2][1], lin[2][2], t.Z},
		{0, 0, 0, 1},
	}, true
}

// Transform is an affine transform carrying its forward matrix and inverse
type Transform struct {
	M   Mat4
	Inv Mat4
}

// IdentityTransform returns the identity transform
func IdentityTransform() Transform {
	return Transform{M: Identity4(), Inv: Identity4()}
}

// NewTransform builds a transform from an affine matrix. The bottom row is forced to (0,0,0,1).
func NewTransform(m Mat4) (Transform, error) {
	m[3] = [4]float64{0, 0, 0, 1}
	inv, ok := m.affineInverse()
	if !ok {
		return Transform{}, ErrSingularMatrix
	}
	return Transform{M: m, Inv: inv}, nil
}

// Translate returns a translation by v
func Translate(v Vec3) Transform {
	m := Identity4()
	m[0][3], m[1][3], m[2][3] = v.X, v.Y, v.Z
	inv := Identity4()
	inv[0][3], inv[1][3], inv[2][3] = -v.X, -v.Y, -v.Z
	return Transform{M: m, Inv: inv}
}

// Scale returns a non-uniform scale. A zero factor yields a singular transform whose
// inverse maps every ray to a zero direction; callers reject it before use.
func Scale(v Vec3) Transform {
	m := Identity4()
	m[0][0], m[1][1], m[2][2] = v.X, v.Y, v.Z
	inv := Identity4()
	inv[0][0], inv[1][1], inv[2][2] = safeRecip(v.X), safeRecip(v.Y), safeRecip(v.Z)
	return Transform{M: m, Inv: inv}
}

func safeRecip(x float64) float64 {
	if x == 0 {
		return 0
	}
	return 1 / x
}

// RotateX returns a rotation about the x axis by theta radians
func RotateX(theta float64) Transform {
	s, c := math.Sincos(theta)
	m := Mat4{{1, 0, 0, 0}, {0, c, -s, 0}, {0, s, c, 0}, {0, 0, 0, 1}}
	return Transform{M: m, Inv: m.transpose()}
}

// RotateY returns a rotation about the y axis by theta radians
func RotateY(theta float64) Transform {
	s, c := math.Sincos(theta)
	m := Mat4{{c, 0, s, 0}, {0, 1, 0, 0}, {-s, 0, c, 0}, {0, 0, 0, 1}}
	return Transform{M: m, Inv: m.transpose()}
}

// RotateZ returns a rotation about the z axis by theta radians
func RotateZ(theta float64) Transform {
	s, c := math.Sincos(theta)
	m := Mat4{{c, -s, 0, 0}, {s, c, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
	return Transform{M: m, Inv: m.transpose()}
}

func (m Mat4) transpose() Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// LookAt returns the camera-to-world transform for a camera at eye looking at target.
// Camera space has +z forward, +x right and +y down, matching image rows.
func LookAt(eye, target, up Vec3) (Transform, error) {
	forward := target.Subtract(eye).Normalize()
	right := forward.Cross(up).Normalize()
	if forward.IsZero() || right.IsZero() {
		return Transform{}, ErrSingularMatrix
	}
	down := forward.Cross(right)

	m := Mat4{
		{right.X, down.X, forward.X, eye.X},
		{right.Y, down.Y, forward.Y, eye.Y},
		{right.Z, down.Z, forward.Z, eye.Z},
		{0, 0, 0, 1},
	}
	return NewTransform(m)
}

// Compose returns the transform that applies other first and then t
func (t Transform) Compose(other Transform) Transform {
	return Transform{M: t.M.Mul(other.M), Inv: other.Inv.Mul(t.Inv)}
}

// Inverse swaps the forward and inverse matrices
func (t Transform) Inverse() Transform {
	return Transform{M: t.Inv, Inv: t.M}
}

// IsIdentity reports whether the forward matrix is exactly the identity
func (t Transform) IsIdentity() bool {
	return t.M == Identity4()
}

// Point applies the transform to a point
func (t Transform) Point(p Vec3) Vec3 {
	m := &t.M
	return Vec3{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// Vector applies the linear part of the transform to a direction
func (t Transform) Vector(v Vec3) Vec3 {
	m := &t.M
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Normal applies the inverse transpose of the linear part and renormalizes
func (t Transform) Normal(n Vec3) Vec3 {
	m := &t.Inv
	return Vec3{
		X: m[0][0]*n.X + m[1][0]*n.Y + m[2][0]*n.Z,
		Y: m[0][1]*n.X + m[1][1]*n.Y + m[2][1]*n.Z,
		Z: m[0][2]*n.X + m[1][2]*n.Y + m[2][2]*n.Z,
	}.Normalize()
}

// AreaScale returns the factor by which the transform scales surface area,
// exact for similarity transforms (cbrt(|det|)²).
func (t Transform) AreaScale() float64 {
	s := math.Cbrt(math.Abs(t.M.Linear().Determinant()))
	return s * s
}

// Ray transforms a ray. The direction is renormalized and the returned scale is
// the length of the transformed direction, so that t' = t·scale. TMax is rescaled
// to match. A direction that collapses to zero yields an invalid ray and scale 0.
func (t Transform) Ray(r Ray) (Ray, float64) {
	d := t.Vector(r.Direction)
	scale := d.Length()
	out := Ray{Origin: t.Point(r.Origin), TMax: r.TMax}
	if scale == 0 || math.IsNaN(scale) {
		return out, 0
	}
	out.Direction = d.Multiply(1 / scale)
	out.TMax = r.TMax * scale
	return out, scale
}

// Bounds transforms an AABB, returning the box enclosing its eight transformed corners
func (t Transform) Bounds(b AABB) AABB {
	if b.IsInfinite() {
		return b
	}
	corners := make([]Vec3, 0, 8)
	for i := 0; i < 8; i++ {
		p := Vec3{b.Min.X, b.Min.Y, b.Min.Z}
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		corners = append(corners, t.Point(p))
	}
	return NewAABBFromPoints(corners...)
}

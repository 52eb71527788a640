package geometry

import (
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/material"
)

// Box is an axis-aligned box centered at the local origin. Dim holds the full
// extent along each axis.
type Box struct {
	base
	Dim core.Vec3
}

// NewBox creates a box; every extent must be positive
func NewBox(dim core.Vec3, xf core.Transform, mat *material.Material) (*Box, error) {
	if !(dim.X > 0) || !(dim.Y > 0) || !(dim.Z > 0) {
		return nil, &DegenerateError{Kind: "box", Reason: "every dimension must be positive"}
	}
	return &Box{base: newBase(xf, mat), Dim: dim}, nil
}

func (b *Box) corners() (core.Vec3, core.Vec3) {
	half := b.Dim.Multiply(0.5)
	return half.Negate(), half
}

// Intersect tests a local-space ray against the box
func (b *Box) Intersect(ray core.Ray) (*SurfaceInfo, bool) {
	lo, hi := b.corners()
	t, uv, n := IntersectBox(ray, lo, hi)
	if !core.IsHit(t) {
		return nil, false
	}
	return &SurfaceInfo{T: t, P: ray.At(t), N: n, UV: uv, Object: b}, true
}

// CastShadow reports whether the local-space ray hits the box
func (b *Box) CastShadow(ray core.Ray) bool {
	if !castsShadow(b.mat) {
		return false
	}
	lo, hi := b.corners()
	t, _, _ := IntersectBox(ray, lo, hi)
	return core.IsHit(t)
}

func (b *Box) faceAreas() [3]float64 {
	// indexed by the axis the face is perpendicular to
	return [3]float64{b.Dim.Y * b.Dim.Z, b.Dim.Z * b.Dim.X, b.Dim.X * b.Dim.Y}
}

// Area returns the parent-space area of all six faces
func (b *Box) Area() float64 {
	a := b.faceAreas()
	return 2 * (a[0] + a[1] + a[2]) * b.xf.AreaScale()
}

// Sample picks a face in proportion to its area, then a uniform point on it
func (b *Box) Sample(u core.Vec2) (core.Vec3, core.Vec3, float64) {
	areas := b.faceAreas()
	total := 2 * (areas[0] + areas[1] + areas[2])

	pick := u.X * total
	face := 5
	for i := 0; i < 6; i++ {
		a := areas[i/2]
		if pick < a {
			face = i
			break
		}
		pick -= a
	}
	axis, sign := face/2, 1.0
	if face%2 == 1 {
		sign = -1
	}
	fu := min(pick/areas[axis], 1)

	half := b.Dim.Multiply(0.5)
	coords := [3]float64{}
	ua, va := (axis+1)%3, (axis+2)%3
	coords[axis] = sign * half.Component(axis)
	coords[ua] = (2*fu - 1) * half.Component(ua)
	coords[va] = (2*u.Y - 1) * half.Component(va)

	var normal [3]float64
	normal[axis] = sign
	p := core.NewVec3(coords[0], coords[1], coords[2])
	n := core.NewVec3(normal[0], normal[1], normal[2])
	return sampleInParent(b.xf, p, n, b.Area())
}

// Bounds returns the parent-space bounding box
func (b *Box) Bounds() core.AABB {
	lo, hi := b.corners()
	return b.xf.Bounds(core.NewAABB(lo, hi))
}

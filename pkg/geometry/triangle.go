package geometry

import (
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/material"
)

// Triangle is a single triangle. Its normal follows the winding v0 -> v1 -> v2.
type Triangle struct {
	base
	V0, V1, V2 core.Vec3

	normal core.Vec3 // cached
	area   float64   // cached, local space
}

// NewTriangle creates a triangle; a zero-area triangle is degenerate
func NewTriangle(v0, v1, v2 core.Vec3, xf core.Transform, mat *material.Material) (*Triangle, error) {
	cross := v1.Subtract(v0).Cross(v2.Subtract(v0))
	length := cross.Length()
	if !(length > 1e-12) {
		return nil, &DegenerateError{Kind: "triangle", Reason: "vertices are collinear"}
	}
	return &Triangle{
		base:   newBase(xf, mat),
		V0:     v0,
		V1:     v1,
		V2:     v2,
		normal: cross.Multiply(1 / length),
		area:   length / 2,
	}, nil
}

// Intersect tests a local-space ray against the triangle
func (tr *Triangle) Intersect(ray core.Ray) (*SurfaceInfo, bool) {
	t, uv := IntersectTriangle(ray, tr.V0, tr.V1, tr.V2)
	if !core.IsHit(t) {
		return nil, false
	}
	return &SurfaceInfo{T: t, P: ray.At(t), N: tr.normal, UV: uv, Object: tr}, true
}

// CastShadow reports whether the local-space ray hits the triangle
func (tr *Triangle) CastShadow(ray core.Ray) bool {
	if !castsShadow(tr.mat) {
		return false
	}
	t, _ := IntersectTriangle(ray, tr.V0, tr.V1, tr.V2)
	return core.IsHit(t)
}

// Normal returns the unit local-space normal
func (tr *Triangle) Normal() core.Vec3 {
	return tr.normal
}

// Area returns the parent-space area
func (tr *Triangle) Area() float64 {
	return tr.area * tr.xf.AreaScale()
}

// Sample picks a uniform point on the triangle
func (tr *Triangle) Sample(u core.Vec2) (core.Vec3, core.Vec3, float64) {
	b0, b1 := core.SampleUniformTriangle(u)
	p := tr.V0.Multiply(b0).Add(tr.V1.Multiply(b1)).Add(tr.V2.Multiply(1 - b0 - b1))
	return sampleInParent(tr.xf, p, tr.normal, tr.Area())
}

// Bounds returns the parent-space bounding box
func (tr *Triangle) Bounds() core.AABB {
	return tr.xf.Bounds(core.NewAABBFromPoints(tr.V0, tr.V1, tr.V2))
}

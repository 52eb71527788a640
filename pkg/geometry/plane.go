package geometry

import (
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/material"
)

var planeNormal = core.NewVec3(0, 0, 1)

// Plane is the infinite z = 0 plane of its local space, facing +z
type Plane struct {
	base
}

// NewPlane creates a plane
func NewPlane(xf core.Transform, mat *material.Material) *Plane {
	return &Plane{base: newBase(xf, mat)}
}

// Intersect tests a local-space ray against the plane
func (pl *Plane) Intersect(ray core.Ray) (*SurfaceInfo, bool) {
	t := IntersectPlane(ray, core.Vec3{}, planeNormal)
	if !core.IsHit(t) {
		return nil, false
	}
	p := ray.At(t)
	p.Z = 0
	return &SurfaceInfo{
		T:      t,
		P:      p,
		N:      planeNormal,
		UV:     core.NewVec2(p.X, p.Y),
		Object: pl,
	}, true
}

// CastShadow reports whether the local-space ray crosses the plane
func (pl *Plane) CastShadow(ray core.Ray) bool {
	return castsShadow(pl.mat) && core.IsHit(IntersectPlane(ray, core.Vec3{}, planeNormal))
}

// Area is infinite; planes cannot be sampled
func (pl *Plane) Area() float64 {
	return core.NoIntersection
}

// Sample always fails for the unbounded plane
func (pl *Plane) Sample(u core.Vec2) (core.Vec3, core.Vec3, float64) {
	return core.Vec3{}, core.Vec3{}, 0
}

// Bounds is unbounded
func (pl *Plane) Bounds() core.AABB {
	return core.InfiniteAABB()
}

package geometry

import (
	"math"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/material"
)

// Sphere is centered at the origin of its local space
type Sphere struct {
	base
	Radius float64
}

// NewSphere creates a sphere; a non-positive radius is degenerate
func NewSphere(radius float64, xf core.Transform, mat *material.Material) (*Sphere, error) {
	if !(radius > 0) {
		return nil, &DegenerateError{Kind: "sphere", Reason: "radius must be positive"}
	}
	return &Sphere{base: newBase(xf, mat), Radius: radius}, nil
}

// Intersect tests a local-space ray against the sphere
func (s *Sphere) Intersect(ray core.Ray) (*SurfaceInfo, bool) {
	t := IntersectSphere(ray, core.Vec3{}, s.Radius)
	if !core.IsHit(t) {
		return nil, false
	}

	p := ray.At(t)
	n := p.Multiply(1 / s.Radius)

	phi := math.Atan2(n.Y, n.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	theta := math.Acos(math.Max(-1, math.Min(1, n.Z)))

	return &SurfaceInfo{
		T:      t,
		P:      p,
		N:      n,
		UV:     core.NewVec2(phi/(2*math.Pi), theta/math.Pi),
		Object: s,
	}, true
}

// CastShadow reports whether the local-space ray hits the sphere
func (s *Sphere) CastShadow(ray core.Ray) bool {
	return castsShadow(s.mat) && core.IsHit(IntersectSphere(ray, core.Vec3{}, s.Radius))
}

// Area returns the parent-space surface area
func (s *Sphere) Area() float64 {
	return 4 * math.Pi * s.Radius * s.Radius * s.xf.AreaScale()
}

// Sample picks a uniform point on the sphere
func (s *Sphere) Sample(u core.Vec2) (core.Vec3, core.Vec3, float64) {
	n := core.SampleOnUnitSphere(u)
	return sampleInParent(s.xf, n.Multiply(s.Radius), n, s.Area())
}

// Bounds returns the parent-space bounding box
func (s *Sphere) Bounds() core.AABB {
	r := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return s.xf.Bounds(core.NewAABB(r.Negate(), r))
}

func castsShadow(m *material.Material) bool {
	return m == nil || m.IsShadowCaster()
}

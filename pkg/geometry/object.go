package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-lightpath/pkg/bxdf"
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/material"
)

// SurfaceInfo describes a ray hit. Inside an object's own Intersect the fields
// are in that object's space; IntersectInParent maps them outward one level.
type SurfaceInfo struct {
	T      float64
	Wo     core.Vec3 // unit direction back along the incoming ray
	P      core.Vec3
	N      core.Vec3 // unit outward geometric normal, not flipped toward Wo
	UV     core.Vec2
	Object Object // leaf that was hit
	Root   Object // top-level scene object containing Object

	XfrmSW core.Mat3 // world -> shading
	XfrmWS core.Mat3 // shading -> world
}

// BuildFrame fills the shading rotations from N
func (s *SurfaceInfo) BuildFrame() {
	s.XfrmSW, s.XfrmWS = core.NewShadingFrame(s.N)
}

// Frame returns the shading context used by the BSDF
func (s *SurfaceInfo) Frame() bxdf.Frame {
	return bxdf.Frame{SW: s.XfrmSW, WS: s.XfrmWS, N: s.N, UV: s.UV}
}

// offsetOrigin pushes P off the surface toward the side wi leaves on
func (s *SurfaceInfo) offsetOrigin(wi core.Vec3) core.Vec3 {
	if wi.Dot(s.N) < 0 {
		return s.P.Subtract(s.N.Multiply(core.ShadowBias))
	}
	return s.P.Add(s.N.Multiply(core.ShadowBias))
}

// SpawnRay starts an unbounded ray leaving the surface in direction wi
func (s *SurfaceInfo) SpawnRay(wi core.Vec3) core.Ray {
	return core.NewRay(s.offsetOrigin(wi), wi)
}

// ShadowRayTo starts a ray toward the point dist along wi from P. The ray
// leaves from the biased origin and stops ShadowBias short of the target.
// An infinite dist gives an unbounded ray.
func (s *SurfaceInfo) ShadowRayTo(wi core.Vec3, dist float64) core.Ray {
	origin := s.offsetOrigin(wi)
	if math.IsInf(dist, 1) {
		return core.NewRay(origin, wi)
	}
	toTarget := s.P.Add(wi.Multiply(dist)).Subtract(origin)
	return core.NewRayTo(origin, toTarget, math.Max(0, toTarget.Length()-core.ShadowBias))
}

// Material returns the material of the leaf that was hit
func (s *SurfaceInfo) Material() *material.Material {
	if s.Object == nil {
		return nil
	}
	return s.Object.Material()
}

// Object is anything that can be placed in a scene. Intersect and CastShadow
// take a ray already expressed in the object's local space; Area, Sample and
// Bounds report values in the parent space, i.e. with Transform applied.
type Object interface {
	Intersect(ray core.Ray) (*SurfaceInfo, bool)
	CastShadow(ray core.Ray) bool

	// Area returns the surface area in parent space
	Area() float64
	// Sample returns a uniformly distributed surface point and its normal in
	// parent space, with pdf = 1/Area (zero for unbounded objects)
	Sample(u core.Vec2) (p, n core.Vec3, pdf float64)

	Transform() core.Transform // object -> parent
	Material() *material.Material
	Bounds() core.AABB // parent space
}

// DegenerateError reports a shape that has no surface
type DegenerateError struct {
	Kind   string
	Reason string
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("degenerate %s: %s", e.Kind, e.Reason)
}

// base carries the transform and material shared by every object
type base struct {
	xf  core.Transform
	mat *material.Material
}

func newBase(xf core.Transform, mat *material.Material) base {
	return base{xf: xf, mat: mat}
}

func (b *base) Transform() core.Transform    { return b.xf }
func (b *base) Material() *material.Material { return b.mat }

// IntersectInParent intersects obj with a ray given in obj's parent space and
// maps the hit back out to that space.
func IntersectInParent(obj Object, ray core.Ray) (*SurfaceInfo, bool) {
	xf := obj.Transform()
	if xf.IsIdentity() {
		hit, ok := obj.Intersect(ray)
		if ok {
			hit.Wo = ray.Direction.Negate()
		}
		return hit, ok
	}

	local, scale := xf.Inverse().Ray(ray)
	if scale == 0 || !local.Valid() {
		return nil, false
	}
	hit, ok := obj.Intersect(local)
	if !ok {
		return nil, false
	}

	hit.T /= scale
	hit.P = xf.Point(hit.P)
	hit.N = xf.Normal(hit.N)
	hit.Wo = ray.Direction.Negate()
	return hit, true
}

// CastShadowInParent is the occlusion counterpart of IntersectInParent
func CastShadowInParent(obj Object, ray core.Ray) bool {
	xf := obj.Transform()
	if xf.IsIdentity() {
		return obj.CastShadow(ray)
	}
	local, scale := xf.Inverse().Ray(ray)
	if scale == 0 || !local.Valid() {
		return false
	}
	return obj.CastShadow(local)
}

// sampleInParent maps a local surface sample to parent space
func sampleInParent(xf core.Transform, p, n core.Vec3, area float64) (core.Vec3, core.Vec3, float64) {
	if area <= 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}
	return xf.Point(p), xf.Normal(n), 1 / area
}

package lights

import (
	"math"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
)

// AreaLight makes a scene object emit Radiance from the side its normals face.
// The object must be a top-level scene object so its samples are in world space.
type AreaLight struct {
	Object   geometry.Object
	Radiance core.Vec3
}

// NewAreaLight creates an area light over obj
func NewAreaLight(obj geometry.Object, radiance core.Vec3) *AreaLight {
	return &AreaLight{Object: obj, Radiance: radiance}
}

func (al *AreaLight) Type() LightType { return LightTypeArea }
func (al *AreaLight) IsDelta() bool   { return false }

// L returns the radiance leaving a point on the light toward w
func (al *AreaLight) L(hit *geometry.SurfaceInfo, w core.Vec3) core.Vec3 {
	if hit.N.Dot(w) > 0 {
		return al.Radiance
	}
	return core.Vec3{}
}

// SampleLi picks a uniform point on the object and converts its area density to solid angle
func (al *AreaLight) SampleLi(ref *geometry.SurfaceInfo, u core.Vec2) LightSample {
	p, n, pdfArea := al.Object.Sample(u)
	if pdfArea <= 0 {
		return LightSample{}
	}

	toLight := p.Subtract(ref.P)
	dist2 := toLight.LengthSquared()
	if dist2 == 0 {
		return LightSample{}
	}
	dist := math.Sqrt(dist2)
	wi := toLight.Multiply(1 / dist)

	cosLight := n.Dot(wi.Negate())
	if cosLight == 0 {
		return LightSample{}
	}

	var li core.Vec3
	if cosLight > 0 {
		li = al.Radiance
	}
	return LightSample{
		Wi:        wi,
		Li:        li,
		Pdf:       pdfArea * dist2 / math.Abs(cosLight),
		ShadowRay: ref.ShadowRayTo(wi, dist),
	}
}

// PDF returns the solid-angle density of hitting the light along wi from ref.
// Distance and cosine are measured from ref.P, as in SampleLi.
func (al *AreaLight) PDF(ref *geometry.SurfaceInfo, wi core.Vec3) float64 {
	hit, ok := geometry.IntersectInParent(al.Object, core.NewRay(ref.P, wi))
	if !ok {
		return 0
	}
	area := al.Object.Area()
	cosLight := math.Abs(hit.N.Dot(wi))
	if area <= 0 || math.IsInf(area, 0) || cosLight == 0 {
		return 0
	}
	return hit.T * hit.T / (cosLight * area)
}

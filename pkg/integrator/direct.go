package integrator

import (
	"github.com/df07/go-lightpath/pkg/bxdf"
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
	"github.com/df07/go-lightpath/pkg/lights"
	"github.com/df07/go-lightpath/pkg/scene"
)

// DirectLighting estimates single-bounce illumination with multiple
// importance sampling between light and BSDF samples, and recurses through
// specular lobes like Whitted.
type DirectLighting struct {
	scene          *scene.Scene
	sampleOneLight bool
}

// NewDirectLighting creates a direct lighting integrator. With sampleOneLight
// a single light is chosen per hit instead of sampling every light.
func NewDirectLighting(s *scene.Scene, sampleOneLight bool) *DirectLighting {
	return &DirectLighting{scene: s, sampleOneLight: sampleOneLight}
}

// Radiance traces ray into the scene
func (d *DirectLighting) Radiance(ray core.Ray, sampler core.Sampler, depth int) core.Vec3 {
	if depth >= d.scene.Options.MaxDepth {
		return core.Vec3{}
	}
	hit, ok := d.scene.Intersect(ray)
	if !ok {
		return d.scene.Background()
	}

	l := d.scene.Emitted(hit, hit.Wo)
	if hit.Material() == nil {
		return l
	}

	if d.sampleOneLight {
		l = l.Add(d.UniformSampleOneLight(hit, sampler))
	} else {
		l = l.Add(d.UniformSampleAllLights(hit, sampler))
	}
	return l.Add(traceSpecular(d.scene, d, hit, sampler, depth))
}

// UniformSampleAllLights sums one MIS estimate from every light
func (d *DirectLighting) UniformSampleAllLights(hit *geometry.SurfaceInfo, sampler core.Sampler) core.Vec3 {
	var l core.Vec3
	for _, light := range d.scene.Lights {
		uLight, uScatter := sampler.Get2D(), sampler.Get2D()
		l = l.Add(d.EstimateDirect(hit, light, uLight, uScatter))
	}
	return l
}

// UniformSampleOneLight estimates the contribution of one randomly chosen
// light, divided by the probability of choosing it
func (d *DirectLighting) UniformSampleOneLight(hit *geometry.SurfaceInfo, sampler core.Sampler) core.Vec3 {
	light, prob, _ := d.scene.LightSampler.SampleLight(sampler.Get1D())
	if light == nil || prob <= 0 {
		return core.Vec3{}
	}
	uLight, uScatter := sampler.Get2D(), sampler.Get2D()
	return d.EstimateDirect(hit, light, uLight, uScatter).Multiply(1 / prob)
}

// EstimateDirect combines a light sample and a BSDF sample of one light with
// the power heuristic. Delta lights use the light sample alone.
func (d *DirectLighting) EstimateDirect(hit *geometry.SurfaceInfo, light lights.Light, uLight, uScatter core.Vec2) core.Vec3 {
	bsdf := hit.Material().BSDF
	if !bsdf.HasFlags(bxdf.AllNonSpecular) {
		return core.Vec3{}
	}
	fr := hit.Frame()

	var ld core.Vec3
	ls := light.SampleLi(hit, uLight)
	if !ls.IsBlack() {
		f := bsdf.Eval(fr, hit.Wo, ls.Wi, bxdf.AllNonSpecular).Multiply(ls.Wi.AbsDot(hit.N))
		if !f.IsZero() && !d.scene.Occluded(ls.ShadowRay) {
			if light.IsDelta() {
				ld = ld.Add(f.MultiplyVec(ls.Li).Multiply(1 / ls.Pdf))
			} else {
				scatterPdf := bsdf.PDF(fr, hit.Wo, ls.Wi, bxdf.AllNonSpecular)
				weight := core.PowerHeuristic(1, ls.Pdf, 1, scatterPdf)
				ld = ld.Add(f.MultiplyVec(ls.Li).Multiply(weight / ls.Pdf))
			}
		}
	}

	area, ok := light.(*lights.AreaLight)
	if !ok {
		return ld
	}

	wi, f, scatterPdf, _ := bsdf.Sample(fr, hit.Wo, uScatter, bxdf.AllNonSpecular)
	if scatterPdf <= 0 || f.IsZero() {
		return ld
	}
	lightPdf := area.PDF(hit, wi)
	if lightPdf <= 0 {
		return ld
	}

	// Visibility is tested like the light sample's: only shadow casters block
	lhit, ok := geometry.IntersectInParent(area.Object, core.NewRay(hit.P, wi))
	if !ok {
		return ld
	}
	li := area.L(lhit, wi.Negate())
	if li.IsZero() || d.scene.Occluded(d.scene.ShadowRayTo(hit, wi, lhit.T)) {
		return ld
	}

	weight := core.PowerHeuristic(1, scatterPdf, 1, lightPdf)
	return ld.Add(f.MultiplyVec(li).Multiply(wi.AbsDot(hit.N) * weight / scatterPdf))
}

package integrator

import (
	"github.com/df07/go-lightpath/pkg/bxdf"
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
	"github.com/df07/go-lightpath/pkg/scene"
)

// Whitted takes one sample from every light at each hit and recurses only
// through specular lobes. Area lights work but are noisy; the method is meant
// for scenes lit by point and directional lights.
type Whitted struct {
	scene *scene.Scene
}

// NewWhitted creates a Whitted integrator over s
func NewWhitted(s *scene.Scene) *Whitted {
	return &Whitted{scene: s}
}

// Radiance traces ray into the scene
func (w *Whitted) Radiance(ray core.Ray, sampler core.Sampler, depth int) core.Vec3 {
	if depth >= w.scene.Options.MaxDepth {
		return core.Vec3{}
	}
	hit, ok := w.scene.Intersect(ray)
	if !ok {
		return w.scene.Background()
	}

	l := w.scene.Emitted(hit, hit.Wo)
	if hit.Material() == nil {
		return l
	}

	l = l.Add(w.directLighting(hit, sampler))
	return l.Add(traceSpecular(w.scene, w, hit, sampler, depth))
}

func (w *Whitted) directLighting(hit *geometry.SurfaceInfo, sampler core.Sampler) core.Vec3 {
	var l core.Vec3
	bsdf := hit.Material().BSDF
	if !bsdf.HasFlags(bxdf.AllNonSpecular) {
		return l
	}

	fr := hit.Frame()
	for _, light := range w.scene.Lights {
		ls := light.SampleLi(hit, sampler.Get2D())
		if ls.IsBlack() || w.scene.Occluded(ls.ShadowRay) {
			continue
		}
		f := bsdf.Eval(fr, hit.Wo, ls.Wi, bxdf.AllNonSpecular)
		if f.IsZero() {
			continue
		}
		l = l.Add(f.MultiplyVec(ls.Li).Multiply(ls.Wi.AbsDot(hit.N) / ls.Pdf))
	}
	return l
}

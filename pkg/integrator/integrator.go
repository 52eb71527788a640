package integrator

import (
	"fmt"

	"github.com/df07/go-lightpath/pkg/bxdf"
	"github.com/df07/go-lightpath/pkg/config"
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
	"github.com/df07/go-lightpath/pkg/scene"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// Radiance returns the radiance arriving along ray. depth counts the
	// specular bounces taken so far; camera rays start at 0.
	Radiance(ray core.Ray, sampler core.Sampler, depth int) core.Vec3
}

// New returns the integrator named by the scene's options
func New(s *scene.Scene) (Integrator, error) {
	switch s.Options.Integrator {
	case config.IntegratorWhitted, "":
		return NewWhitted(s), nil
	case config.IntegratorDirect:
		return NewDirectLighting(s, s.Options.SampleOneLight), nil
	default:
		return nil, fmt.Errorf("unknown integrator %q", s.Options.Integrator)
	}
}

// traceSpecular follows every specular lobe of the hit material one level
// deeper, reflection before transmission. Nothing is traced once depth+1
// reaches maxDepth.
func traceSpecular(s *scene.Scene, in Integrator, hit *geometry.SurfaceInfo, sampler core.Sampler, depth int) core.Vec3 {
	var l core.Vec3
	m := hit.Material()
	if m == nil || depth+1 >= s.Options.MaxDepth || !m.BSDF.HasFlags(bxdf.AllSpecular) {
		return l
	}

	fr := hit.Frame()
	wo := fr.ToLocal(hit.Wo)
	for _, side := range [2]bxdf.Flags{bxdf.Reflection, bxdf.Transmission} {
		for _, lobe := range m.BSDF.Lobes {
			flags := lobe.Flags()
			if !flags.Has(bxdf.Specular) || !flags.Has(side) {
				continue
			}
			wi, f, pdf := lobe.Sample(wo, sampler.Get2D(), fr.UV)
			if pdf <= 0 || f.IsZero() {
				continue
			}
			wiW := fr.ToWorld(wi)
			li := in.Radiance(s.SpawnRay(hit, wiW), sampler, depth+1)
			l = l.Add(f.MultiplyVec(li).Multiply(wiW.AbsDot(hit.N) / pdf))
		}
	}
	return l
}

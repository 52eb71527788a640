package material

import (
	"fmt"
	"math"

	"github.com/df07/go-lightpath/pkg/bxdf"
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/texture"
)

// Material binds textures and a refractive index to a set of BxDF lobes.
// Materials are shared by pointer between objects and are read-only once the
// scene is loaded.
type Material struct {
	Name       string
	Refraction float64 // index of the medium behind the surface; never below 1
	BSDF       *bxdf.BSDF

	shadowCaster bool
}

// New creates a material without lobes. Refraction below 1 is clamped to 1, so
// a dielectric cannot be less dense than the medium around it.
func New(name string, refraction float64, shadowCaster bool) *Material {
	if math.IsNaN(refraction) {
		refraction = 1
	}
	return &Material{
		Name:         name,
		Refraction:   math.Max(1, refraction),
		BSDF:         bxdf.NewBSDF(),
		shadowCaster: shadowCaster,
	}
}

// NewMatte creates a single-lobe diffuse material that casts shadows
func NewMatte(name string, color core.Vec3) *Material {
	return New(name, 1, true).AddDiffuse(texture.NewFlat(color))
}

// IsShadowCaster reports whether the material blocks shadow rays
func (m *Material) IsShadowCaster() bool {
	return m.shadowCaster
}

// AddDiffuse appends a Lambertian lobe
func (m *Material) AddDiffuse(tint texture.Texture) *Material {
	m.BSDF.Lobes = append(m.BSDF.Lobes, bxdf.NewLambertian(tint))
	return m
}

// AddGlossy appends a Phong lobe
func (m *Material) AddGlossy(tint texture.Texture, exponent float64) *Material {
	m.BSDF.Lobes = append(m.BSDF.Lobes, bxdf.NewPhong(tint, exponent))
	return m
}

// AddSpecular appends a mirror lobe weighted by the material's Fresnel reflectance
func (m *Material) AddSpecular(tint texture.Texture) *Material {
	m.BSDF.Lobes = append(m.BSDF.Lobes, bxdf.NewSpecularReflection(tint, m.Refraction))
	return m
}

// AddTransmission appends a refraction lobe between vacuum on the normal side
// and the material's index behind it
func (m *Material) AddTransmission(tint texture.Texture) *Material {
	m.BSDF.Lobes = append(m.BSDF.Lobes, bxdf.NewSpecularTransmission(tint, 1, m.Refraction))
	return m
}

func (m *Material) String() string {
	return fmt.Sprintf("Material{%s, n=%.3g, lobes=%d, shadow=%v}", m.Name, m.Refraction, len(m.BSDF.Lobes), m.shadowCaster)
}

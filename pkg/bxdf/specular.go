package bxdf

import (
	"math"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/optics"
	"github.com/df07/go-lightpath/pkg/texture"
)

// SpecularReflection is a perfect mirror weighted by dielectric Fresnel reflectance.
// With Eta == 1 it is an ideal mirror that reflects everything.
type SpecularReflection struct {
	Tint texture.Texture
	Eta  float64 // index of the far side relative to the normal side
}

// NewSpecularReflection creates a mirror lobe. Indices below 1 are clamped to 1.
func NewSpecularReflection(tint texture.Texture, eta float64) *SpecularReflection {
	return &SpecularReflection{Tint: tint, Eta: math.Max(1, eta)}
}

func (s *SpecularReflection) Flags() Flags { return Reflection | Specular }

func (s *SpecularReflection) Eval(wo, wi core.Vec3, uv core.Vec2) core.Vec3 { return core.Vec3{} }

func (s *SpecularReflection) PDF(wo, wi core.Vec3) float64 { return 0 }

// Reflectance returns k_R for an outgoing direction
func (s *SpecularReflection) Reflectance(wo core.Vec3) float64 {
	if s.Eta == 1 {
		return 1
	}
	eta := s.Eta
	if optics.CosTheta(wo) < 0 {
		eta = 1 / eta
	}
	return optics.DielectricFresnel(optics.AbsCosTheta(wo), eta)
}

// Sample returns the mirror direction with pdf 1
func (s *SpecularReflection) Sample(wo core.Vec3, u core.Vec2, uv core.Vec2) (core.Vec3, core.Vec3, float64) {
	if optics.CosTheta(wo) == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}
	wi := optics.Reflect(wo)
	kr := s.Reflectance(wo)
	f := s.Tint.Lookup(uv).Multiply(kr / optics.AbsCosTheta(wi))
	return wi, f, 1
}

// SpecularTransmission refracts through a dielectric boundary. EtaI is the index
// on the side the normal points into, EtaO the index on the far side.
type SpecularTransmission struct {
	Tint texture.Texture
	EtaI float64
	EtaO float64
}

// NewSpecularTransmission creates a refraction lobe
func NewSpecularTransmission(tint texture.Texture, etaI, etaO float64) *SpecularTransmission {
	return &SpecularTransmission{Tint: tint, EtaI: etaI, EtaO: etaO}
}

func (s *SpecularTransmission) Flags() Flags { return Transmission | Specular }

func (s *SpecularTransmission) Eval(wo, wi core.Vec3, uv core.Vec2) core.Vec3 { return core.Vec3{} }

func (s *SpecularTransmission) PDF(wo, wi core.Vec3) float64 { return 0 }

// relativeEta returns η_rel and the normal side sign for an outgoing direction
func (s *SpecularTransmission) relativeEta(wo core.Vec3) (float64, float64) {
	if optics.CosTheta(wo) >= 0 {
		return s.EtaO / s.EtaI, 1
	}
	return s.EtaI / s.EtaO, -1
}

// Transmittance returns k_T = 1 - k_R for an outgoing direction
func (s *SpecularTransmission) Transmittance(wo core.Vec3) float64 {
	eta, _ := s.relativeEta(wo)
	return 1 - optics.DielectricFresnel(optics.AbsCosTheta(wo), eta)
}

// Sample returns the refracted direction with pdf 1, or a zero direction under
// total internal reflection
func (s *SpecularTransmission) Sample(wo core.Vec3, u core.Vec2, uv core.Vec2) (core.Vec3, core.Vec3, float64) {
	if optics.CosTheta(wo) == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}
	eta, nz := s.relativeEta(wo)
	wi := optics.Refract(wo, eta, nz)
	if wi.IsZero() {
		return core.Vec3{}, core.Vec3{}, 0
	}

	kt := s.Transmittance(wo)
	f := s.Tint.Lookup(uv).Multiply(kt * eta * eta / optics.AbsCosTheta(wi))
	return wi, f, 1
}

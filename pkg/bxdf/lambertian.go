package bxdf

import (
	"math"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/optics"
	"github.com/df07/go-lightpath/pkg/texture"
)

// Lambertian is an ideal diffuse reflector
type Lambertian struct {
	Tint texture.Texture
}

// NewLambertian creates a diffuse lobe tinted by tint
func NewLambertian(tint texture.Texture) *Lambertian {
	return &Lambertian{Tint: tint}
}

func (l *Lambertian) Flags() Flags { return Reflection | Diffuse }

// Eval returns albedo/π when wo and wi share a hemisphere
func (l *Lambertian) Eval(wo, wi core.Vec3, uv core.Vec2) core.Vec3 {
	if !optics.SameHemisphere(wo, wi) {
		return core.Vec3{}
	}
	return l.Tint.Lookup(uv).Multiply(1 / math.Pi)
}

// PDF returns the cosine-weighted density |cosθi|/π
func (l *Lambertian) PDF(wo, wi core.Vec3) float64 {
	if !optics.SameHemisphere(wo, wi) {
		return 0
	}
	return optics.AbsCosTheta(wi) / math.Pi
}

// Sample draws a cosine-weighted direction on wo's side of the surface
func (l *Lambertian) Sample(wo core.Vec3, u core.Vec2, uv core.Vec2) (core.Vec3, core.Vec3, float64) {
	wi := core.SampleCosineHemisphere(u)
	if wo.Z < 0 {
		wi.Z = -wi.Z
	}
	pdf := l.PDF(wo, wi)
	if pdf == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}
	return wi, l.Eval(wo, wi, uv), pdf
}
